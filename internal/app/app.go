package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/morezero/platform-client/internal/config"
	"github.com/morezero/platform-client/pkg/reachability"
)

const logPrefix = "app:app"

// HealthChecks reports per-dependency state. Database and Comms are nil when the
// dependency is not configured.
type HealthChecks struct {
	API             string `json:"api"`
	Database        *bool  `json:"database,omitempty"`
	Comms           *bool  `json:"comms,omitempty"`
	PendingRequests int    `json:"pendingRequests"`
}

// HealthOutput is the /health response body.
type HealthOutput struct {
	Status    string       `json:"status"`
	Timestamp string       `json:"timestamp"`
	Checks    HealthChecks `json:"checks"`
}

// Health reports "unhealthy" when a configured dependency is down and "degraded"
// while the API host is unreachable (requests are being deferred).
func (c *Client) Health(ctx context.Context) *HealthOutput {
	out := &HealthOutput{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks: HealthChecks{
			API:             c.Monitor.Status().String(),
			PendingRequests: c.Dispatcher.QueueLen(),
		},
	}
	if c.pool != nil {
		ok := c.pool.Ping(ctx) == nil
		out.Checks.Database = &ok
		if !ok {
			out.Status = "unhealthy"
		}
	}
	if c.nc != nil {
		ok := c.nc.IsConnected()
		out.Checks.Comms = &ok
		if !ok {
			out.Status = "unhealthy"
		}
	}
	if out.Status == "healthy" && c.Monitor.Status() == reachability.StatusUnreachable {
		out.Status = "degraded"
	}
	return out
}

// Handler serves /health, /ready and /metrics.
func (c *Client) Handler(healthTimeout time.Duration) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		healthCtx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		h := c.Health(healthCtx)
		w.Header().Set("Content-Type", "application/json")
		if h.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(h)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Run builds the client, serves the health endpoints and probes the API host until
// ctx is cancelled or either service fails.
func Run(ctx context.Context, cfg *config.Config) error {
	if err := cfg.ValidateForServe(); err != nil {
		return err
	}
	slog.Info(fmt.Sprintf("%s - Starting platform-client", logPrefix))

	client, err := NewClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s - failed to build client: %w", logPrefix, err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		client.Close(closeCtx)
		slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	}()

	httpAddr := fmt.Sprintf(":%d", cfg.HTTPPort)
	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           client.Handler(cfg.HealthCheckTimeout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info(fmt.Sprintf("%s - HTTP health server listening on %s", logPrefix, httpAddr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s - HTTP server: %w", logPrefix, err)
		}
		return nil
	})
	g.Go(func() error {
		return client.Prober.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info(fmt.Sprintf("%s - Shutting down", logPrefix))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	slog.Info(fmt.Sprintf("%s - platform-client is ready", logPrefix))
	return g.Wait()
}
