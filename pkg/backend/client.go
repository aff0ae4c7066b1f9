package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rhuss/zotgate/pkg/api"
	"github.com/rhuss/zotgate/pkg/debug"
	"github.com/rhuss/zotgate/pkg/transport"
)

// Paths lists the endpoints the translation engine serves.
var Paths = []string{"/web", "/search", "/export", "/import"}

// maxErrorBody bounds how much of an upstream error body is kept as the
// error message.
const maxErrorBody = 64 << 10

// propagatedHeaders are copied from the upstream reply onto the Context.
var propagatedHeaders = []string{"Content-Type", "Link", "Location"}

// Config describes the upstream engine.
type Config struct {
	// URL is the engine base URL, for example http://translate:1969.
	URL string

	// APIKey, when set, is sent as a bearer token on every upstream request.
	APIKey string

	// Timeout bounds each upstream request. Default: 60s.
	Timeout time.Duration

	// InitPath is requested by Init to check that the engine is reachable.
	// Default: "/".
	InitPath string
}

// Client performs HTTP requests against the translation engine.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	initPath   string
}

// NewClient creates a Client for the engine described by cfg.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	initPath := cfg.InitPath
	if initPath == "" {
		initPath = "/"
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			// A followed redirect would re-send the POST as a bodiless GET.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		initPath:   initPath,
	}
}

// Routes returns a forwarding handler for every path in Paths, ready for
// transport.NewRouteTable.
func (c *Client) Routes() map[string]transport.Handler {
	routes := make(map[string]transport.Handler, len(Paths))
	for _, p := range Paths {
		routes[p] = c.Endpoint(p)
	}
	return routes
}

// Endpoint returns a handler that forwards requests to path on the engine.
func (c *Client) Endpoint(path string) transport.Handler {
	return transport.HandlerFunc(func(ctx *transport.Context) error {
		return c.forward(ctx, path)
	})
}

func (c *Client) forward(ctx *transport.Context, path string) error {
	url := c.baseURL + path
	if _, rawQuery, ok := strings.Cut(ctx.URL, "?"); ok && rawQuery != "" {
		url += "?" + rawQuery
	}

	req, err := http.NewRequestWithContext(ctx.Context(), http.MethodPost, url, strings.NewReader(ctx.Request.Body))
	if err != nil {
		return &api.Error{
			Status:  http.StatusInternalServerError,
			Message: api.DefaultMessage,
			Err:     fmt.Errorf("building upstream request: %w", err),
		}
	}
	if ct := ctx.RequestHeader("Content-Type"); ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	if id := transport.RequestIDFromContext(ctx.Context()); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	c.authorize(req)

	debug.Log("backend", "forward", "path", path, "url", url, "bytes", len(ctx.Request.Body))
	debug.Trace("backend", "upstream request body", "body", ctx.Request.Body)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return MapNetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return MapHTTPError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return MapNetworkError(err)
	}

	debug.Log("backend", "upstream reply", "path", path, "status", resp.StatusCode, "bytes", len(body))
	debug.Trace("backend", "upstream reply body", "body", debug.Truncate(string(body), 4096))

	for _, h := range propagatedHeaders {
		if v := resp.Header.Get(h); v != "" {
			ctx.SetHeader(h, v)
		}
	}
	ctx.SetStatus(resp.StatusCode)
	ctx.SetBody(body)
	return nil
}

// Init checks that the engine answers on its init path. Any reply below
// 500 counts as reachable.
func (c *Client) Init(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.initPath, nil)
	if err != nil {
		return fmt.Errorf("building init request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("probing %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 500 {
		return fmt.Errorf("probing %s: upstream returned HTTP %d", c.baseURL, resp.StatusCode)
	}
	debug.Log("backend", "engine reachable", "url", c.baseURL, "status", resp.StatusCode)
	return nil
}

// Close releases idle upstream connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// MapHTTPError converts an upstream reply with status >= 400 into a
// status-tagged error carrying the upstream message.
func MapHTTPError(resp *http.Response) *api.Error {
	message := ExtractErrorMessage(resp.Header.Get("Content-Type"), resp.Body)
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return &api.Error{
		Status:  resp.StatusCode,
		Message: message,
		Err:     fmt.Errorf("upstream returned HTTP %d", resp.StatusCode),
	}
}

// MapNetworkError converts a transport-level failure into a 504 for
// timeouts and a 502 otherwise.
func MapNetworkError(err error) *api.Error {
	status := http.StatusBadGateway
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		status = http.StatusGatewayTimeout
	}
	return &api.Error{
		Status:  status,
		Message: http.StatusText(status),
		Err:     fmt.Errorf("translation engine unavailable: %w", err),
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// ExtractErrorMessage reads an upstream error body. JSON bodies of the form
// {"error": "..."} or {"message": "..."} yield the field; anything else is
// returned as trimmed text.
func ExtractErrorMessage(contentType string, body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil {
		return ""
	}
	data = bytes.TrimSpace(data)
	if transport.MediaType(contentType) == "application/json" {
		if msg := jsonMessage(data); msg != "" {
			return msg
		}
	}
	return string(data)
}
