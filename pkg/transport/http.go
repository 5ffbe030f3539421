package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"
)

const logPrefix = "transport:http"

const (
	// DefaultTimeout applies uniformly to every request.
	DefaultTimeout = 180 * time.Second

	defaultMaxResponseBodyBytes int64 = 10 << 20
)

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPOptions configures NewHTTPTransport. Zero values use defaults.
type HTTPOptions struct {
	Timeout time.Duration
	// SelfSignedHosts lists hosts whose TLS certificate is not verified (local/dev servers).
	SelfSignedHosts      []string
	MaxResponseBodyBytes int64
	// Debug logs a cURL rendering of every request and the response status/headers.
	Debug bool
}

// HTTPTransport is the net/http implementation of Transport.
type HTTPTransport struct {
	client       HTTPDoer
	maxBodyBytes int64
	debug        bool
}

// NewHTTPTransport creates an HTTPTransport with its own http.Client.
func NewHTTPTransport(opts HTTPOptions) *HTTPTransport {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	rt := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	if len(opts.SelfSignedHosts) > 0 {
		rt.DialTLSContext = selfSignedDialer(opts.SelfSignedHosts)
	}

	return NewHTTPTransportWithClient(&http.Client{Timeout: timeout, Transport: rt}, opts)
}

// NewHTTPTransportWithClient wraps an existing client; opts.Timeout and
// opts.SelfSignedHosts are ignored.
func NewHTTPTransportWithClient(client HTTPDoer, opts HTTPOptions) *HTTPTransport {
	maxBody := opts.MaxResponseBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxResponseBodyBytes
	}
	return &HTTPTransport{client: client, maxBodyBytes: maxBody, debug: opts.Debug}
}

// Execute performs the round-trip. It never returns nil.
func (t *HTTPTransport) Execute(ctx context.Context, req *Request) *Response {
	if ctx == nil {
		ctx = context.Background()
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return &Response{Err: fmt.Errorf("%s - create request: %w", logPrefix, err)}
	}
	for key, value := range req.Headers {
		if strings.TrimSpace(key) == "" {
			continue
		}
		httpReq.Header.Set(key, value)
	}

	if t.debug {
		slog.Debug(fmt.Sprintf("%s - %s", logPrefix, CurlCommand(method, req.URL, req.Headers, req.Body)))
	}

	httpRes, err := t.client.Do(httpReq)
	if err != nil {
		return &Response{Err: fmt.Errorf("%s - execute %s %s: %w", logPrefix, method, req.URL, err)}
	}
	defer httpRes.Body.Close()

	res := &Response{
		StatusCode: httpRes.StatusCode,
		Headers:    flattenHeaders(httpRes.Header),
	}

	data, err := io.ReadAll(io.LimitReader(httpRes.Body, t.maxBodyBytes+1))
	if err != nil {
		res.Err = fmt.Errorf("%s - read response body: %w", logPrefix, err)
		return res
	}
	if int64(len(data)) > t.maxBodyBytes {
		res.Err = fmt.Errorf("%s - response body exceeds limit of %d bytes", logPrefix, t.maxBodyBytes)
		return res
	}
	res.Data = data

	if t.debug {
		slog.Debug(fmt.Sprintf("%s - Response received: %d %s headers=%v", logPrefix, httpRes.StatusCode, req.URL, res.Headers))
	}

	if len(bytes.TrimSpace(data)) > 0 && !json.Valid(data) {
		res.Err = fmt.Errorf("%s - status %d: %w", logPrefix, httpRes.StatusCode, ErrInvalidJSON)
	}
	return res
}

// CurlCommand renders the request as a cURL command line for debug logs.
func CurlCommand(method, url string, headers map[string]string, body []byte) string {
	var b strings.Builder
	b.WriteString("curl -v")
	b.WriteString(" -X ")
	b.WriteString(method)

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " -H %s", shellQuote(k+": "+headers[k]))
	}
	if len(body) > 0 {
		fmt.Fprintf(&b, " -d %s", shellQuote(string(body)))
	}
	b.WriteString(" ")
	b.WriteString(shellQuote(url))
	return b.String()
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func flattenHeaders(headers http.Header) map[string]string {
	flat := make(map[string]string, len(headers))
	for key, values := range headers {
		flat[strings.ToLower(key)] = strings.Join(values, ",")
	}
	return flat
}

// selfSignedDialer skips certificate verification only for the listed hosts.
func selfSignedDialer(hosts []string) func(ctx context.Context, network, addr string) (net.Conn, error) {
	insecure := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		insecure[strings.ToLower(strings.TrimSpace(h))] = struct{}{}
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		cfg := &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
		if _, ok := insecure[strings.ToLower(host)]; ok {
			cfg.InsecureSkipVerify = true
		}
		dialer := &tls.Dialer{
			NetDialer: &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second},
			Config:    cfg,
		}
		return dialer.DialContext(ctx, network, addr)
	}
}

var _ Transport = (*HTTPTransport)(nil)
