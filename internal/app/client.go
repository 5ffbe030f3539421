// Package app wires the request pipeline components into a Client and runs the
// long-lived service around it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	comms "github.com/nats-io/nats.go"

	"github.com/morezero/platform-client/internal/config"
	"github.com/morezero/platform-client/pkg/classify"
	"github.com/morezero/platform-client/pkg/commsutil"
	"github.com/morezero/platform-client/pkg/db"
	"github.com/morezero/platform-client/pkg/diagnostics"
	"github.com/morezero/platform-client/pkg/dispatcher"
	"github.com/morezero/platform-client/pkg/events"
	"github.com/morezero/platform-client/pkg/jsontransport"
	"github.com/morezero/platform-client/pkg/reachability"
	"github.com/morezero/platform-client/pkg/semver"
	"github.com/morezero/platform-client/pkg/transport"
)

const clientLogPrefix = "app:client"

// Client holds every pipeline component. Construct it with NewClient; components are
// exported so callers can subscribe to the bus or submit requests directly.
type Client struct {
	Bus        *events.Bus
	Sink       diagnostics.Sink
	Transport  transport.Transport
	Classifier *classify.Classifier
	Dispatcher *dispatcher.Dispatcher
	Monitor    *reachability.Monitor
	Prober     *reachability.Prober
	API        *jsontransport.JSONTransport

	cfg       *config.Config
	nc        *comms.Conn
	pool      *pgxpool.Pool
	storeSink *diagnostics.StoreSink
	busSub    events.Subscription
}

// NewClient validates cfg and builds the pipeline. The NATS bridge is attached when
// COMMS_URL is set and diagnostics are persisted when DATABASE_URL is set.
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	env, err := cfg.PlatformEnvironment()
	if err != nil {
		return nil, err
	}
	urls, err := cfg.BaseURLs()
	if err != nil {
		return nil, err
	}
	baseURL, err := urls.BaseURL(env)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%s - invalid base URL %q: %w", clientLogPrefix, baseURL, err)
	}

	c := &Client{cfg: cfg}

	// Step 1: Event bus, forwarding to COMMS when configured
	var forward events.EventPublisher
	if cfg.COMMSURL != "" {
		nc, err := commsutil.Connect(cfg.COMMSURL, cfg.COMMSName)
		if err != nil {
			return nil, fmt.Errorf("%s - failed to connect to NATS: %w", clientLogPrefix, err)
		}
		c.nc = nc
		forward = events.NewCommsPublisher(nc, &events.CommsPublisherOpts{SubjectPrefix: cfg.EventSubjectPrefix})
		slog.Info(fmt.Sprintf("%s - Forwarding events to %s under %s", clientLogPrefix, cfg.COMMSURL, cfg.EventSubjectPrefix))
	}
	c.Bus = events.NewBus(forward)
	c.busSub = c.Bus.Subscribe(logEvent)

	// Step 2: Diagnostics sink, persisted when a database is configured
	sinks := diagnostics.MultiSink{diagnostics.LogSink{}}
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			c.Close(ctx)
			return nil, fmt.Errorf("%s - failed to connect to database: %w", clientLogPrefix, err)
		}
		c.pool = pool
		if cfg.RunMigrations {
			migrationSQL, err := db.LoadMigrationFiles(cfg.MigrationPath)
			if err != nil {
				c.Close(ctx)
				return nil, fmt.Errorf("%s - failed to load migrations: %w", clientLogPrefix, err)
			}
			if err := db.RunMigrations(ctx, pool, migrationSQL); err != nil {
				c.Close(ctx)
				return nil, fmt.Errorf("%s - failed to run migrations: %w", clientLogPrefix, err)
			}
		}
		c.storeSink = diagnostics.NewStoreSink(db.NewRepository(pool), diagnostics.DefaultBufferSize, 0)
		sinks = append(sinks, c.storeSink)
	}
	c.Sink = sinks

	// Step 3: Transport, classifier and dispatcher
	httpOpts := transport.HTTPOptions{
		Timeout: cfg.RequestTimeout,
		Debug:   cfg.DebugLogEnable,
	}
	if cfg.AllowSelfSignedCertificate {
		httpOpts.SelfSignedHosts = []string{base.Hostname()}
	}
	c.Transport = transport.NewHTTPTransport(httpOpts)
	c.Classifier = classify.New(c.Sink)

	sdkVersion, err := semver.Canonical(cfg.SDKVersion)
	if err != nil {
		c.Close(ctx)
		return nil, err
	}
	c.Dispatcher = dispatcher.NewDispatcher(dispatcher.Options{
		Transport:  c.Transport,
		Classifier: c.Classifier,
		Publisher:  c.Bus,
		Sink:       c.Sink,
		Headers: dispatcher.ClientInfo{
			APIVersion:    cfg.APIVersion,
			SDKVersion:    sdkVersion,
			Device:        cfg.Device,
			DeviceVersion: cfg.DeviceVersion,
		},
	})

	// Step 4: Reachability
	c.Monitor = reachability.NewMonitor(c.Bus, c.Dispatcher)
	probeHost := base.Host
	if cfg.ReachabilityHost != "" {
		probeHost = cfg.ReachabilityHost
	}
	c.Prober = reachability.NewProber(
		reachability.HostPort(base.Scheme, probeHost),
		cfg.ReachabilityInterval,
		cfg.ReachabilityTimeout,
		c.Monitor,
	)

	// Step 5: Caller-facing JSON API
	c.API, err = jsontransport.New(env, urls, jsontransport.NewTokens(cfg.APIKey, cfg.SessionToken), c.Dispatcher)
	if err != nil {
		c.Close(ctx)
		return nil, err
	}

	slog.Info(fmt.Sprintf("%s - Client ready for %s (%s)", clientLogPrefix, env, baseURL))
	return c, nil
}

// Close flushes persisted diagnostics and releases connections. Requests still in
// the pending queue are dropped.
func (c *Client) Close(ctx context.Context) {
	c.busSub.Unsubscribe()
	if c.storeSink != nil {
		if err := c.storeSink.Close(ctx); err != nil {
			slog.Warn(fmt.Sprintf("%s - diagnostics flush: %v", clientLogPrefix, err))
		}
		if n := c.storeSink.Dropped(); n > 0 {
			slog.Warn(fmt.Sprintf("%s - %d diagnostic records were dropped", clientLogPrefix, n))
		}
	}
	if c.nc != nil {
		c.nc.Drain()
	}
	if c.pool != nil {
		c.pool.Close()
	}
}

// Request submits method/path through the JSON API and blocks until the request
// completes, ctx ends, or a notification for it arrives instead of a callback
// (deferred and SDK-deprecated requests never call back).
func (c *Client) Request(ctx context.Context, method, path, body string) ([]byte, error) {
	done := make(chan dispatcher.Result, 1)
	call := jsontransport.Call{Path: path, Auth: c.authorization()}
	if body != "" {
		call.Body = &body
	}
	req := c.API.Prepare(method, call, func(r dispatcher.Result) { done <- r })

	notified := make(chan *events.Event, 1)
	sub := c.Bus.Subscribe(func(_ context.Context, e *events.Event) {
		if e.RequestID == nil || *e.RequestID != req.ID {
			return
		}
		select {
		case notified <- e:
		default:
		}
	})
	defer sub.Unsubscribe()

	c.API.Submit(req)

	select {
	case r := <-done:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Payload, nil
	case e := <-notified:
		if e.Error != nil {
			return nil, fmt.Errorf("%s - %s: %w", clientLogPrefix, e.Kind, e.Error)
		}
		return nil, fmt.Errorf("%s - %s", clientLogPrefix, e.Kind)
	case <-ctx.Done():
		return nil, fmt.Errorf("%s - request %s: %w", clientLogPrefix, req.ID, ctx.Err())
	}
}

func (c *Client) authorization() jsontransport.Authorization {
	switch {
	case c.API.Tokens().SessionToken() != "":
		return jsontransport.AuthProjectAndSession
	case c.cfg.APIKey != "":
		return jsontransport.AuthProject
	default:
		return jsontransport.AuthNone
	}
}

func logEvent(_ context.Context, e *events.Event) {
	msg := fmt.Sprintf("%s - Event %s", clientLogPrefix, e.Kind)
	if e.RequestID != nil {
		msg += fmt.Sprintf(" request=%s", e.RequestID)
	}
	if e.Error != nil {
		msg += fmt.Sprintf(": %v", e.Error)
	}
	switch e.Kind {
	case events.KindNetworkReachable, events.KindNetworkUnreachable:
		slog.Info(msg)
	default:
		slog.Warn(msg)
	}
}

// shutdownTimeout bounds Close and the HTTP server shutdown in Run.
const shutdownTimeout = 10 * time.Second
