// Package reachability tracks whether the API host can be reached and triggers a
// pending-queue drain when it comes back.
package reachability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/morezero/platform-client/pkg/events"
	"github.com/morezero/platform-client/pkg/metrics"
)

const logPrefix = "reachability:monitor"

// Status is the connectivity state reported by a signal source.
type Status int

const (
	StatusUnknown Status = iota
	StatusReachable
	StatusUnreachable
)

func (s Status) String() string {
	switch s {
	case StatusReachable:
		return "reachable"
	case StatusUnreachable:
		return "unreachable"
	}
	return "unknown"
}

// Drainer replays deferred requests.
type Drainer interface {
	DrainQueue() int
}

// Monitor reacts to connectivity transitions. Entering StatusReachable publishes
// KindNetworkReachable and then drains the queue; leaving it publishes
// KindNetworkUnreachable. Repeated observations of the same status do nothing.
type Monitor struct {
	publisher events.EventPublisher
	drainer   Drainer

	mu      sync.Mutex
	current Status
}

// NewMonitor creates a Monitor starting in StatusUnknown.
func NewMonitor(publisher events.EventPublisher, drainer Drainer) *Monitor {
	if publisher == nil {
		publisher = &events.NoOpPublisher{}
	}
	return &Monitor{publisher: publisher, drainer: drainer}
}

// Status returns the last observed status.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Observe records status and returns true when it was a transition. The drain runs on
// the calling goroutine.
func (m *Monitor) Observe(ctx context.Context, status Status) bool {
	m.mu.Lock()
	previous := m.current
	m.current = status
	m.mu.Unlock()

	if previous == status {
		return false
	}
	slog.Info(fmt.Sprintf("%s - API host %s -> %s", logPrefix, previous, status))

	switch status {
	case StatusReachable:
		metrics.Reachable.Set(1)
		m.publish(ctx, events.KindNetworkReachable)
		if m.drainer != nil {
			if n := m.drainer.DrainQueue(); n > 0 {
				slog.Info(fmt.Sprintf("%s - Drained %d pending requests after reconnect", logPrefix, n))
			}
		}
	case StatusUnreachable:
		metrics.Reachable.Set(0)
		m.publish(ctx, events.KindNetworkUnreachable)
	}
	return true
}

func (m *Monitor) publish(ctx context.Context, kind events.Kind) {
	metrics.EventsPublished.WithLabelValues(kind.String()).Inc()
	if err := m.publisher.Publish(ctx, events.NewEvent(kind, nil)); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to publish %s: %v", logPrefix, kind, err))
	}
}
