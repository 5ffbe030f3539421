// Package classify turns transport responses into success payloads or typed errors.
package classify

import (
	"encoding/json"
	"net/http"

	"github.com/morezero/platform-client/pkg/apierror"
	"github.com/morezero/platform-client/pkg/diagnostics"
	"github.com/morezero/platform-client/pkg/transport"
)

// Outcome is the classified result of one round-trip. Exactly one of Payload (on
// success) and Err is meaningful.
type Outcome struct {
	Payload json.RawMessage
	Err     error
}

// Backend returns the classified error, if Err is one.
func (o Outcome) Backend() (*apierror.BackendError, bool) {
	return apierror.As(o.Err)
}

// Classifier applies the status-code precedence rules.
type Classifier struct {
	sink diagnostics.Sink
}

// New creates a Classifier. A nil sink discards diagnostics.
func New(sink diagnostics.Sink) *Classifier {
	if sink == nil {
		sink = diagnostics.NoOpSink{}
	}
	return &Classifier{sink: sink}
}

// Classify maps res to an Outcome. The first matching rule wins:
//
//	401        decoded body, else invalid session
//	412        sdk deprecated
//	429        too many requests
//	503        server maintenance
//	other 4xx  decoded body, else incorrect parameters
//	5xx        decoded body, else service unavailable; reason is the transport error
//	otherwise  success payload, network not available on connectivity failure,
//	           or the transport error unchanged
//
// Every transport error is reported to the sink before classification.
func (c *Classifier) Classify(res *transport.Response) Outcome {
	if res == nil {
		res = &transport.Response{Err: transport.ErrNotConnected}
	}
	if res.Err != nil {
		c.sink.Log(res.Err)
	}

	status := res.StatusCode
	switch {
	case status == http.StatusUnauthorized:
		return Outcome{Err: decodeOr(res.Data, apierror.CodeInvalidSession)}
	case status == http.StatusPreconditionFailed:
		return Outcome{Err: apierror.New(apierror.CodeSDKDeprecated)}
	case status == http.StatusTooManyRequests:
		return Outcome{Err: apierror.New(apierror.CodeTooManyRequests)}
	case status == http.StatusServiceUnavailable:
		return Outcome{Err: apierror.New(apierror.CodeServerMaintenance)}
	case status >= 400 && status < 500:
		return Outcome{Err: decodeOr(res.Data, apierror.CodeIncorrectParameters)}
	case status >= 500 && status < 600:
		return Outcome{Err: serverError(res)}
	}

	if res.Err != nil {
		if transport.IsConnectivityError(res.Err) {
			return Outcome{Err: apierror.New(apierror.CodeNetworkNotAvailable)}
		}
		return Outcome{Err: res.Err}
	}
	return Outcome{Payload: json.RawMessage(res.Data)}
}

func decodeOr(data []byte, fallback apierror.Code) *apierror.BackendError {
	if be, ok := apierror.DecodeBody(data); ok {
		return be
	}
	return apierror.New(fallback)
}

func serverError(res *transport.Response) *apierror.BackendError {
	var reason string
	if res.Err != nil {
		reason = res.Err.Error()
	}
	if be, ok := apierror.DecodeBody(res.Data); ok {
		be.Reason = reason
		return be
	}
	return apierror.NewWithReason(apierror.CodeServiceUnavailable, reason)
}
