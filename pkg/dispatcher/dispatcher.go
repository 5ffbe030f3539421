package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/morezero/platform-client/pkg/apierror"
	"github.com/morezero/platform-client/pkg/classify"
	"github.com/morezero/platform-client/pkg/diagnostics"
	"github.com/morezero/platform-client/pkg/events"
	"github.com/morezero/platform-client/pkg/metrics"
	"github.com/morezero/platform-client/pkg/queue"
	"github.com/morezero/platform-client/pkg/transport"
)

const logPrefix = "dispatcher:dispatch"

// Options wires a Dispatcher. Transport is required; nil optional fields get no-op
// implementations, and a nil Headers sends the fixed header keys with empty values.
type Options struct {
	Transport  transport.Transport
	Classifier *classify.Classifier
	Publisher  events.EventPublisher
	Sink       diagnostics.Sink
	Headers    HeaderProvider
}

// Dispatcher runs requests through transport and classifier, then delivers the
// result, defers the request, or publishes a notification.
type Dispatcher struct {
	transport  transport.Transport
	classifier *classify.Classifier
	publisher  events.EventPublisher
	sink       diagnostics.Sink
	headers    HeaderProvider

	pending  *queue.Queue[*Request]
	drainMu  sync.Mutex
	inflight sync.WaitGroup
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(opts Options) *Dispatcher {
	d := &Dispatcher{
		transport:  opts.Transport,
		classifier: opts.Classifier,
		publisher:  opts.Publisher,
		sink:       opts.Sink,
		headers:    opts.Headers,
		pending:    queue.New[*Request](),
	}
	if d.sink == nil {
		d.sink = diagnostics.NoOpSink{}
	}
	if d.classifier == nil {
		d.classifier = classify.New(d.sink)
	}
	if d.publisher == nil {
		d.publisher = &events.NoOpPublisher{}
	}
	if d.headers == nil {
		d.headers = ClientInfo{}
	}
	return d
}

// Submit issues req asynchronously. The outcome arrives through req.Callback, or
// the request is deferred to the pending queue.
func (d *Dispatcher) Submit(req *Request) {
	if req == nil {
		return
	}
	metrics.RequestsSubmitted.WithLabelValues(req.Method).Inc()
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		d.process(context.Background(), req)
	}()
}

// Wait blocks until every submitted request has been processed.
func (d *Dispatcher) Wait() {
	d.inflight.Wait()
}

// DrainQueue replays every queued request once, in insertion order, on the calling
// goroutine. Requests deferred again during the replay wait for the next drain.
// It returns the number of requests replayed.
func (d *Dispatcher) DrainQueue() int {
	d.drainMu.Lock()
	defer d.drainMu.Unlock()

	snapshot := d.pending.Drain()
	metrics.QueueDepth.Set(float64(d.pending.Len()))
	if len(snapshot) == 0 {
		return 0
	}

	slog.Info(fmt.Sprintf("%s - Replaying %d pending requests", logPrefix, len(snapshot)))
	for _, req := range snapshot {
		metrics.RequestsReplayed.Inc()
		d.process(context.Background(), req)
	}
	return len(snapshot)
}

// QueueLen returns the number of deferred requests.
func (d *Dispatcher) QueueLen() int {
	return d.pending.Len()
}

// Pending returns a copy of the deferred requests in queue order.
func (d *Dispatcher) Pending() []*Request {
	return d.pending.Snapshot()
}

func (d *Dispatcher) process(ctx context.Context, req *Request) {
	slog.Debug(fmt.Sprintf("%s - %s %s id=%s", logPrefix, req.Method, req.URL, req.ID))

	treq, err := d.buildTransportRequest(req)
	if err != nil {
		be := apierror.NewWithReason(apierror.CodeJSONError, err.Error())
		d.sink.Log(diagnostics.WithRequest(req.ID, be))
		metrics.RequestsClassified.WithLabelValues(be.Code.String()).Inc()
		d.deliver(req, Result{Err: be})
		return
	}

	start := time.Now()
	res := d.transport.Execute(ctx, treq)
	metrics.RequestLatency.WithLabelValues(treq.Method).Observe(time.Since(start).Seconds())

	out := d.classifier.Classify(res)
	if out.Err == nil {
		metrics.RequestsClassified.WithLabelValues("success").Inc()
		d.deliver(req, Result{Payload: out.Payload})
		return
	}

	be, ok := out.Backend()
	if !ok {
		d.sink.Log(diagnostics.WithRequest(req.ID, out.Err))
		metrics.RequestsClassified.WithLabelValues("transport").Inc()
		d.deliver(req, Result{Err: out.Err})
		return
	}

	d.sink.Log(diagnostics.WithRequest(req.ID, be))
	metrics.RequestsClassified.WithLabelValues(be.Code.String()).Inc()
	d.applyPolicy(ctx, req, be)
}

// applyPolicy decides what happens to a classified failure.
func (d *Dispatcher) applyPolicy(ctx context.Context, req *Request, be *apierror.BackendError) {
	switch {
	case be.IsDeferrable():
		d.pending.Append(req)
		metrics.RequestsDeferred.WithLabelValues(be.Code.String()).Inc()
		metrics.QueueDepth.Set(float64(d.pending.Len()))
		slog.Info(fmt.Sprintf("%s - Deferred %s %s id=%s: %s", logPrefix, req.Method, req.URL, req.ID, be.Code))
		d.notify(ctx, req, be)

	case be.IsSessionError():
		d.notify(ctx, req, be)
		if !req.SuppressCallbackOnSessionInvalid {
			d.deliver(req, Result{Err: be})
		}

	case be.IsSDKDeprecated():
		d.notify(ctx, req, be)

	default:
		d.deliver(req, Result{Err: be})
	}
}

func (d *Dispatcher) notify(ctx context.Context, req *Request, be *apierror.BackendError) {
	kind, ok := events.KindForError(be)
	if !ok {
		return
	}
	metrics.EventsPublished.WithLabelValues(kind.String()).Inc()
	if err := d.publisher.Publish(ctx, events.NewEvent(kind, be).WithRequest(req.ID)); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to publish %s: %v", logPrefix, kind, err))
	}
}

func (d *Dispatcher) deliver(req *Request, result Result) {
	if req.Callback != nil {
		req.Callback(result)
	}
}

func (d *Dispatcher) buildTransportRequest(req *Request) (*transport.Request, error) {
	body, err := req.encodeBody()
	if err != nil {
		return nil, fmt.Errorf("%s - encode parameters: %w", logPrefix, err)
	}

	headers := make(map[string]string, len(req.Headers)+5)
	for k, v := range req.Headers {
		headers[k] = v
	}
	if body != nil && !hasHeader(headers, HeaderContentType) {
		headers[HeaderContentType] = "application/json"
	}
	fixed := ClientInfo{}.Headers()
	for k, v := range d.headers.Headers() {
		deleteHeader(fixed, k)
		fixed[k] = v
	}
	for k, v := range fixed {
		deleteHeader(headers, k)
		headers[k] = v
	}

	return &transport.Request{
		Method:  strings.ToUpper(req.Method),
		URL:     req.URL,
		Headers: headers,
		Body:    body,
	}, nil
}

func deleteHeader(headers map[string]string, name string) {
	for k := range headers {
		if strings.EqualFold(k, name) {
			delete(headers, k)
		}
	}
}

func hasHeader(headers map[string]string, name string) bool {
	for k := range headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}
