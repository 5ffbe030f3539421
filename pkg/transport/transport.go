// Package transport executes single HTTP round-trips for the request pipeline.
package transport

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// Request is a fully built outgoing call. Body is sent as is; the transport performs
// no parameter encoding.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response is the outcome of one round-trip. StatusCode is 0 when no HTTP response
// was received. Err is set for transport-level failures, including a body that is
// not valid JSON; StatusCode and Data are kept in that case.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Data       []byte
	Err        error
}

// Transport performs a single attempt; retries live above this layer.
type Transport interface {
	Execute(ctx context.Context, req *Request) *Response
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *Request) *Response

// Execute calls f.
func (f TransportFunc) Execute(ctx context.Context, req *Request) *Response {
	return f(ctx, req)
}

// ErrInvalidJSON is wrapped into Response.Err when the body cannot be parsed.
var ErrInvalidJSON = errors.New("response body is not valid JSON")

// ErrNotConnected can be returned by transports that know the device is offline.
var ErrNotConnected = errors.New("network connection unavailable")

// IsConnectivityError reports whether err means the server could not be reached at all:
// DNS failure, refused/reset/unreachable connections or a failed dial.
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotConnected) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	for _, errno := range []syscall.Errno{
		syscall.ECONNREFUSED,
		syscall.ECONNRESET,
		syscall.ENETUNREACH,
		syscall.EHOSTUNREACH,
		syscall.ENETDOWN,
	} {
		if errors.Is(err, errno) {
			return true
		}
	}

	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
