// Package gateway is the single outbound HTTP pipeline of the client. Every
// call carries the token currently held by the credential store and every
// failure comes back classified.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vidyasetu/vidyasetu/internal/client/clienterr"
)

// DefaultTimeout caps every request when Config.Timeout is zero.
const DefaultTimeout = 15 * time.Second

// maxBodySize bounds how much of a response body is buffered.
const maxBodySize = 8 << 20

// TokenReader is the read side of the credential store.
type TokenReader interface {
	Get(ctx context.Context, key string) (string, bool, error)
}

// Config holds the fixed gateway settings.
type Config struct {
	// BaseURL is prefixed to every request path.
	BaseURL string
	// Timeout is the ceiling for a whole request, body included.
	Timeout time.Duration
	// CAFile adds a private root CA, e.g. for the development backend.
	CAFile string
	// CertFile and KeyFile optionally present a client certificate.
	CertFile string
	KeyFile  string
	// Transport replaces the base transport; used by tests.
	Transport http.RoundTripper
}

// Client performs requests against the backend.
type Client struct {
	base *url.URL
	http *http.Client
	log  *zap.Logger
}

// New builds a Client. tokens is consulted on every request.
func New(cfg Config, tokens TokenReader, log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, clienterr.New(clienterr.KindInvalid, "gateway.new", "base URL is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, clienterr.Wrap(clienterr.KindInvalid, "gateway.new", "invalid base URL "+cfg.BaseURL, orInvalid(err))
	}
	if tokens == nil {
		return nil, clienterr.New(clienterr.KindInvalid, "gateway.new", "token reader is required")
	}

	transport, err := baseTransport(cfg)
	if err != nil {
		return nil, clienterr.Wrap(clienterr.KindInvalid, "gateway.new", "configure transport", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		base: base,
		http: &http.Client{
			Transport: &authTransport{next: transport, tokens: tokens},
			Timeout:   timeout,
		},
		log: log,
	}, nil
}

func orInvalid(err error) error {
	if err != nil {
		return err
	}
	return errors.New("scheme and host are required")
}

// HTTPClient exposes the configured client; requests sent through it still
// carry the bearer token.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// RequestOption adjusts an outgoing request.
type RequestOption func(*http.Request)

// WithHeader sets a request header. A multipart body still forces its own
// Content-Type.
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

// WithQuery merges values into the request query.
func WithQuery(values url.Values) RequestOption {
	return func(r *http.Request) {
		q := r.URL.Query()
		for k, vs := range values {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		r.URL.RawQuery = q.Encode()
	}
}

// Get issues a GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodGet, path, nil, out, opts...)
}

// Post sends body and decodes the JSON response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPost, path, body, out, opts...)
}

// Put sends body and decodes the JSON response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPut, path, body, out, opts...)
}

// Delete issues a DELETE and decodes the JSON response into out.
func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out, opts...)
}

// Do sends one request. body may be nil, a *Multipart, or any JSON-encodable
// value; raw bytes and readers are rejected, binary content goes through
// Multipart. out may be nil. Errors are always *clienterr.Error.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	op := "gateway." + strings.ToLower(method)

	target, err := c.resolve(path)
	if err != nil {
		return clienterr.Wrap(clienterr.KindInvalid, op, "resolve path "+path, err)
	}

	payload, contentType, err := encodeBody(body)
	if err != nil {
		return clienterr.Wrap(clienterr.KindInvalid, op, "encode body", err)
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return clienterr.Wrap(clienterr.KindInvalid, op, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, opt := range opts {
		opt(req)
	}
	if _, ok := body.(*Multipart); ok {
		// Caller headers and auto-detection are not trusted for file uploads.
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.classify(op, req, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return c.classify(op, req, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return clienterr.HTTP(op, resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return clienterr.Wrap(clienterr.KindDecode, op, "decode response", err)
	}
	return nil
}

func (c *Client) resolve(path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	if ref.IsAbs() || ref.Host != "" {
		return "", errors.New("absolute URLs bypass the configured base URL")
	}
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawPath = ""
	u.RawQuery = ref.RawQuery
	return u.String(), nil
}

func encodeBody(body any) ([]byte, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case *Multipart:
		return b.encode()
	case io.Reader, []byte:
		return nil, "", errors.New("raw body not supported, send binary data as a Multipart file")
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", err
		}
		return data, "application/json", nil
	}
}

// classify maps a missing response onto the error taxonomy.
func (c *Client) classify(op string, req *http.Request, err error) error {
	var typed *clienterr.Error
	if errors.As(err, &typed) {
		return typed
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		c.log.Warn("request timed out",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
		)
		return clienterr.Wrap(clienterr.KindTimeout, op, "request timed out", err)
	}

	c.log.Warn("network unreachable",
		zap.String("method", req.Method),
		zap.String("host", req.URL.Host),
		zap.Error(err),
	)
	return clienterr.Wrap(clienterr.KindNetwork, op, "network unreachable", err)
}
