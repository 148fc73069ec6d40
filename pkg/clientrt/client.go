// Package clientrt is the runtime used by clients generated with restcoder.
//
// Generated code depends only on this package and the standard library. It
// owns the HTTP exchange, response status mapping, query assembly and the
// media finalizers and decoders referenced by generated codec functions.
package clientrt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// Client performs the HTTP exchanges of a generated resource client.
type Client struct {
	endpoint string
	http     *http.Client
	log      zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for every call.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger enables debug logging of every exchange.
func WithLogger(l zerolog.Logger) Option { return func(c *Client) { c.log = l } }

// NewClient returns a client bound to endpoint. An empty endpoint selects the
// first of defaults.
func NewClient(endpoint string, defaults []string, opts ...Option) *Client {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" && len(defaults) > 0 {
		endpoint = defaults[0]
	}
	c := &Client{
		endpoint: endpoint,
		http: &http.Client{Transport: &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			DisableKeepAlives: true,
		}},
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint reports the base URL every call is resolved against.
func (c *Client) Endpoint() string { return c.endpoint }

// Call describes a single operation invocation.
type Call struct {
	Method string
	// Path is appended to the endpoint; placeholders are already substituted.
	Path string
	// Query is either empty or starts with "?".
	Query       string
	ContentType string
	Body        []byte
	// Expected is the success status declared for the operation.
	Expected int
	// Errors maps declared error statuses to their causes.
	Errors map[int]string
}

// Invoke sends call over a fresh connection and returns the raw response
// payload when the status matches call.Expected.
func (c *Client) Invoke(ctx context.Context, call Call) ([]byte, error) {
	target := c.resolve(call.Path, call.Query)
	var body io.Reader
	if call.Body != nil {
		body = bytes.NewReader(call.Body)
	}
	req, err := http.NewRequestWithContext(ctx, call.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("clientrt: build request: %w", err)
	}
	req.Close = true
	if call.ContentType != "" {
		req.Header.Set("Content-Type", call.ContentType)
	}

	c.log.Debug().Str("method", call.Method).Str("url", target).Int("bytes", len(call.Body)).Msg("sending request")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("clientrt: read response: %w", err)
	}
	c.log.Debug().Int("status", resp.StatusCode).Bytes("payload", payload).Msg("received response")

	if err := CheckStatus(resp.StatusCode, payload, call.Expected, call.Errors); err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *Client) resolve(path, query string) string {
	base := strings.TrimSuffix(c.endpoint, "/")
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path + query
}

// CheckStatus maps a response status onto the operation's declared outcomes.
// Declared error statuses win over the expected-status comparison.
func CheckStatus(status int, payload []byte, expected int, errs map[int]string) error {
	if cause, ok := errs[status]; ok {
		return &RemoteError{Status: status, Cause: cause, Body: payload}
	}
	if status != expected {
		return &RemoteError{Status: status, Cause: fmt.Sprintf("unexpected status: %d", status), Body: payload}
	}
	return nil
}
