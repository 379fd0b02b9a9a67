// Package apiclient is the single configured request pipeline to the backend.
// It injects the persisted bearer token and tears the session down when the
// server rejects it.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"smilegift/internal/models"
	"smilegift/internal/navigator"
	"smilegift/internal/observability"
)

// IdentityPath is the identity-check endpoint. A 401 from it never tears the session down.
const IdentityPath = "/auth/me"

// TokenStore is the part of the token store the client needs.
type TokenStore interface {
	Get(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// Client performs authenticated JSON and multipart calls against a base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore
	nav        navigator.Navigator
	userAgent  string
	logger     *observability.APILogger

	mu         sync.RWMutex
	onTeardown []func(context.Context)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets a whole-request timeout. Zero keeps the transport default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.httpClient
			hc.Timeout = d
			c.httpClient = &hc
		}
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a Client for baseURL, e.g. "https://host/api".
func New(baseURL string, tokens TokenStore, nav navigator.Navigator, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		tokens:     tokens,
		nav:        nav,
		logger:     observability.NewAPILogger("apiclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnTeardown registers fn to run after a 401 has cleared the persisted token.
func (c *Client) OnTeardown(fn func(ctx context.Context)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTeardown = append(c.onTeardown, fn)
}

// BaseURL returns the configured base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Request describes one call. Body is JSON-encoded unless Form is set.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Form   *Form
}

// Response is a successful (2xx) response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the body into v. A nil v or an empty body is a no-op.
func (r *Response) Decode(v any) error {
	if v == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Do sends req. Non-2xx responses become *models.AppError carrying the status
// and the server's message; transport failures are returned as they are.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	ctx, _ = observability.EnsureCorrelationID(ctx)
	endpoint := observability.EndpointLabel(req.Path)

	ctx, span := observability.StartClientSpan(ctx, req.Method, endpoint)
	status := 0
	var callErr error
	defer func() { observability.EndSpan(span, status, callErr) }()

	httpReq, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		callErr = err
		return nil, err
	}

	c.logger.LogRequest(ctx, req.Method, req.Path)
	start := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		callErr = err
		observability.APIRequestsTotal.WithLabelValues(endpoint, req.Method, "error").Inc()
		c.logger.LogError(ctx, req.Method, req.Path, err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		callErr = err
		return nil, fmt.Errorf("read response body: %w", err)
	}

	status = resp.StatusCode
	elapsed := time.Since(start)
	observability.APIRequestsTotal.WithLabelValues(endpoint, req.Method, strconv.Itoa(status)).Inc()
	observability.APIRequestDuration.WithLabelValues(endpoint, req.Method).Observe(elapsed.Seconds())
	c.logger.LogResponse(ctx, req.Method, req.Path, status, elapsed)

	if status == http.StatusUnauthorized {
		c.handleUnauthorized(ctx, req.Path)
	}
	if status < 200 || status >= 300 {
		callErr = models.NewAPIError(status, serverMessage(body))
		return nil, callErr
	}

	return &Response{Status: status, Header: resp.Header, Body: body}, nil
}

func (c *Client) newHTTPRequest(ctx context.Context, req Request) (*http.Request, error) {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case req.Form != nil:
		buf, ct, err := req.Form.encode()
		if err != nil {
			return nil, err
		}
		body, contentType = buf, ct
	case req.Body != nil:
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body, contentType = bytes.NewReader(data), "application/json"
	default:
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", observability.ExtractCorrelationID(ctx))
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	token, err := c.tokens.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	observability.InjectTraceHeaders(ctx, httpReq.Header)
	return httpReq, nil
}

// handleUnauthorized clears the persisted token and sends the user to the
// login view, unless the rejected call was the identity check or the user is
// already on the login view.
func (c *Client) handleUnauthorized(ctx context.Context, path string) {
	if strings.Contains(path, IdentityPath) || c.nav.Location() == navigator.LoginPath {
		return
	}
	if err := c.tokens.Clear(ctx); err != nil {
		c.logger.LogError(ctx, "CLEAR", "token", err)
	}
	observability.SessionTeardowns.WithLabelValues("unauthorized").Inc()
	observability.GlobalLogger.WarnContext(ctx, "session torn down after 401",
		"path", path,
		"correlation_id", observability.ExtractCorrelationID(ctx),
	)
	c.mu.RLock()
	hooks := append(([]func(context.Context))(nil), c.onTeardown...)
	c.mu.RUnlock()
	for _, fn := range hooks {
		fn(ctx)
	}
	c.nav.Navigate(navigator.LoginPath)
}

func serverMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	for _, field := range []string{"message", "error"} {
		if v := gjson.GetBytes(body, field); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}

// Get issues a GET and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.call(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post issues a JSON POST and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Put issues a JSON PUT and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

// Delete issues a DELETE and decodes the response into out.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.call(ctx, Request{Method: http.MethodDelete, Path: path}, out)
}

// PostMultipart issues a multipart POST.
func (c *Client) PostMultipart(ctx context.Context, path string, form *Form, out any) error {
	return c.call(ctx, Request{Method: http.MethodPost, Path: path, Form: form}, out)
}

// PutMultipart issues a multipart PUT.
func (c *Client) PutMultipart(ctx context.Context, path string, form *Form, out any) error {
	return c.call(ctx, Request{Method: http.MethodPut, Path: path, Form: form}, out)
}

func (c *Client) call(ctx context.Context, req Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}
