package jsontransport

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/morezero/platform-client/pkg/apierror"
	"github.com/morezero/platform-client/pkg/dispatcher"
)

const logPrefix = "jsontransport:transport"

// Submitter is the dispatcher surface JSONTransport needs.
type Submitter interface {
	Submit(req *dispatcher.Request)
	DrainQueue() int
	Wait()
}

// Call describes one API call relative to the base URL.
type Call struct {
	Path       string
	Auth       Authorization
	Parameters map[string]any
	// Body, when set, is sent verbatim instead of Parameters.
	Body *string
	// SuppressCallbackOnSessionInvalid skips the callback on session errors.
	SuppressCallbackOnSessionInvalid bool
}

// JSONTransport builds requests against the environment's base URL and hands them to
// the dispatcher.
type JSONTransport struct {
	env     Environment
	baseURL string
	tokens  *Tokens
	disp    Submitter
}

// New resolves the base URL for env and creates a JSONTransport.
func New(env Environment, urls BaseURLProvider, tokens *Tokens, disp Submitter) (*JSONTransport, error) {
	baseURL, err := urls.BaseURL(env)
	if err != nil {
		return nil, err
	}
	if tokens == nil {
		tokens = NewTokens("", "")
	}
	slog.Info(fmt.Sprintf("%s - Using %s environment at %s", logPrefix, env, baseURL))
	return &JSONTransport{env: env, baseURL: baseURL, tokens: tokens, disp: disp}, nil
}

// Environment returns the configured environment.
func (t *JSONTransport) Environment() Environment { return t.env }

// BaseURL returns the resolved base URL.
func (t *JSONTransport) BaseURL() string { return t.baseURL }

// Tokens returns the credential store.
func (t *JSONTransport) Tokens() *Tokens { return t.tokens }

// URL joins path onto the base URL. Absolute URLs are returned unchanged.
func (t *JSONTransport) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return t.baseURL + "/" + strings.TrimLeft(path, "/")
}

// Get submits a GET call.
func (t *JSONTransport) Get(call Call, cb func(dispatcher.Result)) *dispatcher.Request {
	return t.Do(http.MethodGet, call, cb)
}

// Post submits a POST call.
func (t *JSONTransport) Post(call Call, cb func(dispatcher.Result)) *dispatcher.Request {
	return t.Do(http.MethodPost, call, cb)
}

// Put submits a PUT call.
func (t *JSONTransport) Put(call Call, cb func(dispatcher.Result)) *dispatcher.Request {
	return t.Do(http.MethodPut, call, cb)
}

// Delete submits a DELETE call.
func (t *JSONTransport) Delete(call Call, cb func(dispatcher.Result)) *dispatcher.Request {
	return t.Do(http.MethodDelete, call, cb)
}

// PostBody submits a POST with a raw JSON body.
func (t *JSONTransport) PostBody(call Call, body string, cb func(dispatcher.Result)) *dispatcher.Request {
	call.Body = &body
	return t.Do(http.MethodPost, call, cb)
}

// Do builds the request for call and submits it. The returned request's ID can be
// matched against notifications and diagnostics.
func (t *JSONTransport) Do(method string, call Call, cb func(dispatcher.Result)) *dispatcher.Request {
	req := t.Prepare(method, call, cb)
	t.Submit(req)
	return req
}

// Prepare builds the request for call without submitting it, so its ID is known
// before any notification for it can be published.
func (t *JSONTransport) Prepare(method string, call Call, cb func(dispatcher.Result)) *dispatcher.Request {
	req := dispatcher.NewRequest(method, t.URL(call.Path)).
		WithParameters(call.Parameters).
		WithCallback(cb)
	req.Body = call.Body
	req.SuppressCallbackOnSessionInvalid = call.SuppressCallbackOnSessionInvalid
	for k, v := range t.tokens.Headers(call.Auth) {
		req.WithHeader(k, v)
	}
	return req
}

// Submit hands a prepared request to the dispatcher.
func (t *JSONTransport) Submit(req *dispatcher.Request) {
	t.disp.Submit(req)
}

// RunPendingRequests replays the deferred queue, e.g. once KYC has been passed.
func (t *JSONTransport) RunPendingRequests() int {
	return t.disp.DrainQueue()
}

// Wait blocks until submitted calls have finished processing.
func (t *JSONTransport) Wait() {
	t.disp.Wait()
}

// Decode converts a successful result into T. A result error is returned as is; a
// payload that does not fit T becomes a json_error BackendError.
func Decode[T any](res dispatcher.Result) (T, error) {
	var out T
	if res.Err != nil {
		return out, res.Err
	}
	if err := json.Unmarshal(res.Payload, &out); err != nil {
		return out, apierror.NewWithReason(apierror.CodeJSONError, err.Error())
	}
	return out, nil
}
