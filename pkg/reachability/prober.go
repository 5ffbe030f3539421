package reachability

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"
)

const proberLogPrefix = "reachability:prober"

// Observer receives connectivity observations.
type Observer interface {
	Observe(ctx context.Context, status Status) bool
}

// DialFunc opens a connection; net.Dialer.DialContext satisfies it.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Prober periodically dials the API host over TCP and reports the result.
type Prober struct {
	address  string
	interval time.Duration
	timeout  time.Duration
	dial     DialFunc
	observer Observer
}

// NewProber creates a Prober for address ("host:port").
func NewProber(address string, interval, timeout time.Duration, observer Observer) *Prober {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	d := &net.Dialer{}
	return &Prober{
		address:  address,
		interval: interval,
		timeout:  timeout,
		dial:     d.DialContext,
		observer: observer,
	}
}

// WithDialer replaces the dial function and returns p.
func (p *Prober) WithDialer(dial DialFunc) *Prober {
	p.dial = dial
	return p
}

// Check dials once and returns the resulting status.
func (p *Prober) Check(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := p.dial(ctx, "tcp", p.address)
	if err != nil {
		slog.Debug(fmt.Sprintf("%s - %s unreachable: %v", proberLogPrefix, p.address, err))
		return StatusUnreachable
	}
	conn.Close()
	return StatusReachable
}

// Run checks immediately and then every interval until ctx is cancelled.
func (p *Prober) Run(ctx context.Context) error {
	slog.Info(fmt.Sprintf("%s - Probing %s every %s", proberLogPrefix, p.address, p.interval))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if status := p.Check(ctx); ctx.Err() == nil {
			p.observer.Observe(ctx, status)
		}
		select {
		case <-ctx.Done():
			slog.Info(fmt.Sprintf("%s - Stopped probing %s", proberLogPrefix, p.address))
			return nil
		case <-ticker.C:
		}
	}
}

// HostPort derives the dial address from a base URL host, defaulting the port from
// the scheme.
func HostPort(scheme, host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	port := "443"
	if scheme == "http" {
		port = "80"
	}
	return net.JoinHostPort(host, port)
}
