package transport

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/rhuss/zotgate/pkg/api"
)

// defaultClientIP is reported when neither X-Forwarded-For nor the remote
// address yields a client address.
const defaultClientIP = "127.0.0.1"

// RequestView is the read-only request side of a Context.
type RequestView struct {
	// Body is the acquired request body as text.
	Body string

	// IP is the client address (X-Forwarded-For first entry, then the
	// connection's remote host).
	IP string

	// Headers are the request headers. Handlers must not modify them.
	Headers http.Header

	// Query holds the parsed query string.
	Query url.Values
}

// ResponseView is the response side of a Context: the status and body a
// handler declares, plus the headers it set through Context.SetHeader.
type ResponseView struct {
	// Status is the HTTP status to write. Zero is written as 200.
	Status int

	// Body is the response payload. Strings and byte slices are written
	// verbatim, nil writes an empty body, anything else is encoded as JSON.
	Body any

	headers http.Header
}

// Context is the per-request object handlers operate on. It is created
// fresh for every request and discarded once the response is written.
type Context struct {
	Method string
	URL    string
	Path   string
	Query  url.Values

	Request  RequestView
	Response ResponseView

	ctx    context.Context
	wire   http.Header
	sealed bool
}

// NewContext builds a Context for r. body is the already-acquired request
// body; it is not read again. Headers set through SetHeader are written
// synchronously to w's header map.
func NewContext(r *http.Request, body string, w http.ResponseWriter) *Context {
	query := r.URL.Query()
	return &Context{
		Method: r.Method,
		URL:    r.URL.RequestURI(),
		Path:   r.URL.Path,
		Query:  query,
		Request: RequestView{
			Body:    body,
			IP:      ClientIP(r),
			Headers: r.Header,
			Query:   query,
		},
		Response: ResponseView{
			Status:  http.StatusOK,
			headers: make(http.Header),
		},
		ctx:  r.Context(),
		wire: w.Header(),
	}
}

// Context returns the request's context.Context.
func (c *Context) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// Status returns the response status, treating an unset (zero) status as 200.
func (c *Context) Status() int {
	if c.Response.Status == 0 {
		return http.StatusOK
	}
	return c.Response.Status
}

// SetStatus sets the response status.
func (c *Context) SetStatus(status int) {
	c.Response.Status = status
}

// Body returns the response body.
func (c *Context) Body() any {
	return c.Response.Body
}

// SetBody sets the response body.
func (c *Context) SetBody(body any) {
	c.Response.Body = body
}

// SetHeader sets a response header. The value is recorded on the Context
// and written to the live response header map in the same call, so it is
// visible to the transport before the handler returns. Setting a header
// twice keeps the last value.
//
// Once the response has started, SetHeader has no effect.
func (c *Context) SetHeader(name, value string) {
	if c.sealed {
		slog.Debug("header set after response started", "header", name)
		return
	}
	c.Response.headers.Set(name, value)
	if c.wire != nil {
		c.wire.Set(name, value)
	}
}

// ResponseHeader returns the value of a header set through SetHeader.
func (c *Context) ResponseHeader(name string) string {
	return c.Response.headers.Get(name)
}

// ResponseHeaders returns a copy of the headers set through SetHeader.
func (c *Context) ResponseHeaders() http.Header {
	return c.Response.headers.Clone()
}

// RequestHeader returns the value of a request header.
func (c *Context) RequestHeader(name string) string {
	return c.Request.Headers.Get(name)
}

// IsContentType reports whether the request's Content-Type media type
// matches any of types. Matching is case-insensitive; a type matches when
// it equals the media type or is contained in it, so "json" matches
// "application/json".
func (c *Context) IsContentType(types ...string) bool {
	media := MediaType(c.Request.Headers.Get("Content-Type"))
	if media == "" {
		return false
	}
	for _, t := range types {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if media == t || strings.Contains(media, t) {
			return true
		}
	}
	return false
}

// Assert returns a status-tagged error when value is falsy and nil
// otherwise. The optional msg becomes the error message; without it the
// status text is used.
//
// Falsy values are nil, false, numeric zero, NaN, the empty string and nil
// pointers, maps, slices, channels and functions.
func (c *Context) Assert(value any, status int, msg ...string) error {
	if truthy(value) {
		return nil
	}
	return api.NewError(status, strings.Join(msg, " "))
}

// Fail returns a status-tagged error unconditionally.
func (c *Context) Fail(status int, msg string) error {
	return api.NewError(status, msg)
}

// Seal marks the response as started. The transport calls it right before
// writing the status line; later SetHeader calls are ignored.
func (c *Context) Seal() {
	c.sealed = true
}

// MediaType returns the lower-cased media type of a Content-Type header
// value with any parameters removed.
func MediaType(contentType string) string {
	media, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(media))
}

// ClientIP returns the first X-Forwarded-For entry, the host part of
// RemoteAddr, or 127.0.0.1 when neither is available.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
			return host
		}
		return r.RemoteAddr
	}
	return defaultClientIP
}

func truthy(value any) bool {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Invalid:
		return false
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		return f != 0 && !math.IsNaN(f)
	case reflect.String:
		return v.Len() > 0
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return !v.IsNil()
	default:
		return true
	}
}
