package reachability

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/morezero/platform-client/pkg/events"
)

const reachabilityTestPrefix = "reachability:reachability_test"

type countingDrainer struct {
	mu    sync.Mutex
	calls int
	seq   *[]string
}

func (d *countingDrainer) DrainQueue() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.seq != nil {
		*d.seq = append(*d.seq, "drain")
	}
	return 0
}

func TestMonitor_TransitionToReachablePublishesThenDrains(t *testing.T) {
	var seq []string
	pub := events.NewCallbackPublisher(func(_ context.Context, e *events.Event) error {
		seq = append(seq, string(e.Kind))
		return nil
	})
	drainer := &countingDrainer{seq: &seq}
	m := NewMonitor(pub, drainer)
	ctx := context.Background()

	if !m.Observe(ctx, StatusUnreachable) {
		t.Fatalf("%s - unknown -> unreachable should be a transition", reachabilityTestPrefix)
	}
	if m.Observe(ctx, StatusUnreachable) {
		t.Errorf("%s - repeated status should not be a transition", reachabilityTestPrefix)
	}
	m.Observe(ctx, StatusReachable)
	m.Observe(ctx, StatusReachable)

	want := []string{"network.unreachable", "network.reachable", "drain"}
	if len(seq) != len(want) {
		t.Fatalf("%s - seq = %v, want %v", reachabilityTestPrefix, seq, want)
	}
	for i := range want {
		if seq[i] != want[i] {
			t.Errorf("%s - seq[%d] = %q, want %q", reachabilityTestPrefix, i, seq[i], want[i])
		}
	}
	if drainer.calls != 1 {
		t.Errorf("%s - drain calls = %d, want 1", reachabilityTestPrefix, drainer.calls)
	}
	if m.Status() != StatusReachable {
		t.Errorf("%s - Status = %s, want reachable", reachabilityTestPrefix, m.Status())
	}
}

func TestMonitor_FirstReachableDrains(t *testing.T) {
	drainer := &countingDrainer{}
	m := NewMonitor(nil, drainer)
	m.Observe(context.Background(), StatusReachable)
	if drainer.calls != 1 {
		t.Errorf("%s - unknown -> reachable should drain, calls = %d", reachabilityTestPrefix, drainer.calls)
	}
}

func TestMonitor_UnknownPublishesNothing(t *testing.T) {
	var published int
	pub := events.NewCallbackPublisher(func(_ context.Context, _ *events.Event) error {
		published++
		return nil
	})
	drainer := &countingDrainer{}
	m := NewMonitor(pub, drainer)

	m.Observe(context.Background(), StatusReachable)
	m.Observe(context.Background(), StatusUnknown)

	if published != 1 {
		t.Errorf("%s - published = %d, want 1", reachabilityTestPrefix, published)
	}
	if drainer.calls != 1 {
		t.Errorf("%s - drain calls = %d, want 1", reachabilityTestPrefix, drainer.calls)
	}
}

type recordingObserver struct {
	mu       sync.Mutex
	statuses []Status
}

func (o *recordingObserver) Observe(_ context.Context, s Status) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = append(o.statuses, s)
	return true
}

func (o *recordingObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.statuses)
}

func TestProber_Check(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("%s - listen: %v", reachabilityTestPrefix, err)
	}
	addr := ln.Addr().String()

	p := NewProber(addr, time.Second, time.Second, &recordingObserver{})
	if got := p.Check(context.Background()); got != StatusReachable {
		t.Errorf("%s - Check with listener = %s, want reachable", reachabilityTestPrefix, got)
	}

	ln.Close()
	if got := p.Check(context.Background()); got != StatusUnreachable {
		t.Errorf("%s - Check after close = %s, want unreachable", reachabilityTestPrefix, got)
	}
}

func TestProber_RunStopsOnCancel(t *testing.T) {
	obs := &recordingObserver{}
	p := NewProber("api.invalid:443", 10*time.Millisecond, 10*time.Millisecond, obs).
		WithDialer(func(context.Context, string, string) (net.Conn, error) {
			return nil, errors.New("offline")
		})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for obs.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("%s - Run returned %v", reachabilityTestPrefix, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("%s - Run did not stop after cancel", reachabilityTestPrefix)
	}
	if obs.count() < 2 {
		t.Errorf("%s - observations = %d, want at least 2", reachabilityTestPrefix, obs.count())
	}
}

func TestHostPort(t *testing.T) {
	tests := []struct {
		scheme, host, want string
	}{
		{"https", "api.example.com", "api.example.com:443"},
		{"http", "localhost", "localhost:80"},
		{"https", "api.example.com:8443", "api.example.com:8443"},
	}
	for _, tt := range tests {
		if got := HostPort(tt.scheme, tt.host); got != tt.want {
			t.Errorf("%s - HostPort(%q, %q) = %q, want %q", reachabilityTestPrefix, tt.scheme, tt.host, got, tt.want)
		}
	}
}
