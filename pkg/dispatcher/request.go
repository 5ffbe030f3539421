// Package dispatcher issues platform requests, applies the deferral policy to
// classified failures and replays deferred requests on demand.
package dispatcher

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// Request describes one API call. When Body is non-nil it is sent verbatim and
// Parameters are ignored.
type Request struct {
	ID         uuid.UUID
	URL        string
	Method     string
	Parameters map[string]any
	Body       *string
	Headers    map[string]string

	// SuppressCallbackOnSessionInvalid skips the callback for session errors; the
	// session notification is still published.
	SuppressCallbackOnSessionInvalid bool

	Callback func(Result)
}

// NewRequest creates a Request with a fresh ID.
func NewRequest(method, url string) *Request {
	return &Request{
		ID:     uuid.New(),
		Method: strings.ToUpper(method),
		URL:    url,
	}
}

// WithParameters sets Parameters and returns r.
func (r *Request) WithParameters(params map[string]any) *Request {
	r.Parameters = params
	return r
}

// WithBody sets a raw body and returns r.
func (r *Request) WithBody(body string) *Request {
	r.Body = &body
	return r
}

// WithHeader adds a caller header and returns r.
func (r *Request) WithHeader(key, value string) *Request {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
	return r
}

// WithCallback sets the completion callback and returns r.
func (r *Request) WithCallback(cb func(Result)) *Request {
	r.Callback = cb
	return r
}

// Result is delivered to the callback: Payload on success, Err otherwise.
type Result struct {
	Payload json.RawMessage
	Err     error
}

// OK reports success.
func (r Result) OK() bool { return r.Err == nil }

// encodeBody returns the bytes to send. A raw body wins over parameters; parameters
// are JSON-encoded regardless of method.
func (r *Request) encodeBody() ([]byte, error) {
	if r.Body != nil {
		return []byte(*r.Body), nil
	}
	if r.Parameters == nil {
		return nil, nil
	}
	return json.Marshal(r.Parameters)
}
