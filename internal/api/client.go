// Package api is the REST client for the TaskFlow gateway.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tgienger/taskflow/internal/metrics"
)

// RequestIDHeader carries a per-request uuid for gateway log correlation
const RequestIDHeader = "X-Request-ID"

// CookieStore persists the session cookies between runs
type CookieStore interface {
	SaveCookies(host string, cookies []*http.Cookie) error
	LoadCookies(host string) ([]*http.Cookie, error)
	ClearCookies() error
}

// Client talks to the gateway with credentials (cookies) on every call
type Client struct {
	base    *url.URL
	http    *http.Client
	jar     *sessionJar
	store   CookieStore
	log     *slog.Logger
	metrics *metrics.Metrics

	mu             sync.Mutex
	onUnauthorized func()
}

// Option configures a Client
type Option func(*Client)

// WithCookieStore persists cookies to s and seeds the jar from it
func WithCookieStore(s CookieStore) Option {
	return func(c *Client) { c.store = s }
}

// WithLogger sets the debug logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithMetrics instruments every request
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTimeout bounds each request
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithTransport replaces the HTTP transport
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.http.Transport = rt }
}

// New creates a client for the gateway at baseURL
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}

	jar := newSessionJar()
	c := &Client{
		base: base,
		jar:  jar,
		http: &http.Client{Jar: jar, Timeout: 15 * time.Second},
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.store != nil {
		cookies, err := c.store.LoadCookies(c.base.Host)
		if err != nil {
			return nil, fmt.Errorf("failed to load session cookies: %w", err)
		}
		c.jar.SetCookies(c.base, cookies)
	}
	return c, nil
}

// BaseURL returns the gateway base URL
func (c *Client) BaseURL() string {
	return c.base.String()
}

// OnUnauthorized sets the hook run when an authenticated-area call
// answers 401. The session check and login/logout calls never trigger it.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

// ClearSession forgets every cookie, in memory and on disk
func (c *Client) ClearSession() error {
	c.jar.reset()
	if c.store != nil {
		return c.store.ClearCookies()
	}
	return nil
}

// Cookies returns the cookies the jar would send to the gateway
func (c *Client) Cookies() []*http.Cookie {
	return c.jar.Cookies(c.base)
}

// paths that must not trigger the unauthorized hook
var sessionPaths = map[string]bool{
	"/auth/protected": true,
	"/auth/login":     true,
	"/auth/logout":    true,
}

func (c *Client) endpoint(path string, query url.Values) *url.URL {
	u := *c.base
	u.Path = c.base.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return &u
}

// do sends body as JSON and decodes the response into out (when non-nil)
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	u := c.endpoint(path, query)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(method, path, 0, time.Since(start))
		c.log.Debug("request failed", "method", method, "path", path, "request_id", reqID, "err", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveRequest(method, path, resp.StatusCode, time.Since(start))
	c.log.Debug("request", "method", method, "path", path, "status", resp.StatusCode,
		"request_id", reqID, "elapsed", time.Since(start))

	c.persistCookies(resp)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: failed to read response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp.StatusCode, raw)
		if resp.StatusCode == http.StatusUnauthorized && !sessionPaths[path] {
			c.mu.Lock()
			hook := c.onUnauthorized
			c.mu.Unlock()
			if hook != nil {
				hook()
			}
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: malformed response: %w", method, path, err)
	}
	return nil
}

// persistCookies merges Set-Cookie headers into the stored session so
// expiry attributes survive (the jar only hands back name and value)
func (c *Client) persistCookies(resp *http.Response) {
	set := resp.Cookies()
	if c.store == nil || len(set) == 0 {
		return
	}
	existing, err := c.store.LoadCookies(c.base.Host)
	if err != nil {
		c.log.Warn("failed to load cookies", "err", err)
		return
	}
	byName := make(map[string]*http.Cookie, len(existing)+len(set))
	var order []string
	for _, ck := range append(existing, set...) {
		if _, seen := byName[ck.Name]; !seen {
			order = append(order, ck.Name)
		}
		byName[ck.Name] = ck
	}
	merged := make([]*http.Cookie, 0, len(order))
	for _, name := range order {
		merged = append(merged, byName[name])
	}
	if err := c.store.SaveCookies(c.base.Host, merged); err != nil {
		c.log.Warn("failed to save cookies", "err", err)
	}
}

func decodeError(status int, raw []byte) *Error {
	e := &Error{Status: status}
	var body struct {
		Message string          `json:"message"`
		Error   string          `json:"error"`
		Errors  json.RawMessage `json:"errors"`
	}
	if json.Unmarshal(raw, &body) != nil {
		return e
	}
	e.Message = body.Message
	if e.Message == "" {
		e.Message = body.Error
	}
	e.Fields = decodeFields(body.Errors)
	return e
}

// decodeFields accepts {"field":"msg"} or [{"field":"f","message":"m"}]
func decodeFields(raw json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	var asMap map[string]string
	if json.Unmarshal(raw, &asMap) == nil && len(asMap) > 0 {
		return asMap
	}
	var asList []struct {
		Field   string `json:"field"`
		Path    string `json:"path"`
		Message string `json:"message"`
		Msg     string `json:"msg"`
	}
	if json.Unmarshal(raw, &asList) != nil {
		return nil
	}
	out := map[string]string{}
	for _, f := range asList {
		name := f.Field
		if name == "" {
			name = f.Path
		}
		msg := f.Message
		if msg == "" {
			msg = f.Msg
		}
		if name != "" && msg != "" {
			out[name] = msg
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// entity decodes either {"<key>": {...}} or a bare object into out
func entity(raw json.RawMessage, key string, out any) error {
	var wrapped map[string]json.RawMessage
	if json.Unmarshal(raw, &wrapped) == nil {
		if inner, ok := wrapped[key]; ok {
			return json.Unmarshal(inner, out)
		}
	}
	return json.Unmarshal(raw, out)
}
