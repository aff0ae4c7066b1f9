package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/rhuss/zotgate/pkg/api"
	"github.com/rhuss/zotgate/pkg/auth"
	"github.com/rhuss/zotgate/pkg/debug"
	"github.com/rhuss/zotgate/pkg/engine"
	"github.com/rhuss/zotgate/pkg/observability"
	"github.com/rhuss/zotgate/pkg/transport"
)

// Error kinds recorded in zotgate_handler_errors_total and error reports.
const (
	KindTagged   = "tagged"
	KindUntagged = "untagged"
	KindPanic    = "panic"
	KindBody     = "body"
	KindEngine   = "engine"
	KindEncode   = "encode"
)

// errInvalidStatus is returned when a handler leaves a status that cannot
// be written on the wire.
var errInvalidStatus = errors.New("handler set an invalid response status")

// Adapter serves a route table over HTTP. For each request it applies the
// CORS policy, short-circuits preflight and non-POST requests, resolves the
// route, authenticates, makes sure the engine is initialized, builds a
// transport.Context and translates the handler's outcome into exactly one
// response.
type Adapter struct {
	routes   *transport.RouteTable
	handlers map[string]transport.Handler
	cors     transport.CORS
	engine   *engine.Lazy
	auth     *auth.AuthChain
	reporter observability.Reporter
	logger   *slog.Logger
	extra    []transport.Middleware
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithCORS sets the cross-origin policy. Default: all origins.
func WithCORS(c transport.CORS) AdapterOption {
	return func(a *Adapter) { a.cors = c }
}

// WithEngine makes every routed request wait for the engine to be
// initialized before its body is read.
func WithEngine(l *engine.Lazy) AdapterOption {
	return func(a *Adapter) { a.engine = l }
}

// WithAuth enables the authentication gate.
func WithAuth(chain *auth.AuthChain) AdapterOption {
	return func(a *Adapter) { a.auth = chain }
}

// WithReporter sets where untagged and 5xx failures are reported.
func WithReporter(r observability.Reporter) AdapterOption {
	return func(a *Adapter) { a.reporter = r }
}

// WithAdapterLogger sets the logger used by the request logging middleware.
func WithAdapterLogger(l *slog.Logger) AdapterOption {
	return func(a *Adapter) { a.logger = l }
}

// WithMiddleware appends handler middleware after the default
// recovery, request ID and logging middleware.
func WithMiddleware(mw ...transport.Middleware) AdapterOption {
	return func(a *Adapter) { a.extra = append(a.extra, mw...) }
}

// NewAdapter creates an HTTP adapter for routes. Default middleware
// (recovery, request ID, logging) wraps every handler.
func NewAdapter(routes *transport.RouteTable, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		routes:   routes,
		cors:     transport.DefaultCORS(),
		reporter: observability.NopReporter{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}

	chain := transport.Chain(append([]transport.Middleware{
		transport.Recovery(),
		transport.RequestID(),
		transport.Logging(a.logger),
	}, a.extra...)...)

	a.handlers = make(map[string]transport.Handler, routes.Len())
	for _, path := range routes.Paths() {
		h, _ := routes.Lookup(path)
		a.handlers[path] = chain(h)
	}
	return a
}

// Routes returns the route table the adapter dispatches to.
func (a *Adapter) Routes() *transport.RouteTable {
	return a.routes
}

// Handler returns the http.Handler for this adapter. Use this to integrate
// with an http.Server or test with httptest.
func (a *Adapter) Handler() http.Handler {
	return a
}

// ServeHTTP handles one request.
func (a *Adapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r = withRequestID(w, r)
	origin := r.Header.Get("Origin")

	if debug.Enabled("transport") {
		debug.Log("transport", requestLine(r, origin))
	}

	a.cors.Apply(w.Header(), origin)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		transport.WriteText(w, http.StatusMethodNotAllowed, transport.MessageMethodNotAllowed)
		return
	}

	path := r.URL.Path
	handler, ok := a.handlers[path]
	if !ok {
		transport.WriteText(w, http.StatusNotFound, transport.MessageNotFound)
		return
	}

	authed, err := auth.Check(a.auth, r)
	if err != nil {
		status, _, _ := api.StatusFromError(err)
		if status == http.StatusUnauthorized {
			observability.AuthRejectedTotal.WithLabelValues(path).Inc()
			transport.WriteText(w, status, transport.MessageUnauthorized)
			return
		}
		a.fail(r.Context(), w, path, err, true)
		return
	}
	r = authed

	if a.engine != nil {
		if err := a.engine.Ensure(r.Context()); err != nil {
			// Lazy logs its own failures.
			a.fail(r.Context(), w, path, err, false)
			return
		}
	}

	body, err := transport.ReadBody(r)
	if err != nil {
		a.fail(r.Context(), w, path, err, true)
		return
	}

	c := transport.NewContext(r, body, w)
	if err := handler.Handle(c); err != nil {
		// transport.Logging has already logged handler failures, except
		// panics, which unwind past it.
		a.fail(c.Context(), w, path, err, errors.Is(err, transport.ErrPanic))
		return
	}

	a.respond(w, c, path)
}

// respond writes the Context's status and body after a handler completed
// normally.
func (a *Adapter) respond(w http.ResponseWriter, c *transport.Context, path string) {
	status := c.Status()
	if status < 100 || status > 599 {
		a.fail(c.Context(), w, path, fmt.Errorf("%w: %d", errInvalidStatus, status), true)
		return
	}

	payload, err := encodeBody(c.Body())
	if err != nil {
		a.fail(c.Context(), w, path, err, true)
		return
	}

	if c.ResponseHeader("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	c.Seal()
	w.WriteHeader(status)
	if len(payload) > 0 {
		w.Write(payload)
	}
}

// fail writes err as the response, records it, and reports it when it is
// untagged or a server error. log controls whether the failure still
// needs to be logged here.
func (a *Adapter) fail(ctx context.Context, w http.ResponseWriter, path string, err error, log bool) {
	status, message, tagged := api.StatusFromError(err)
	kind := errorKind(err, tagged)

	if log {
		level := slog.LevelWarn
		if status >= 500 {
			level = slog.LevelError
		}
		a.logger.LogAttrs(ctx, level, "request failed",
			slog.String("request_id", transport.RequestIDFromContext(ctx)),
			slog.String("path", path),
			slog.Int("status", status),
			slog.String("kind", kind),
			slog.String("error", api.Detail(err)),
		)
	}

	observability.HandlerErrorsTotal.WithLabelValues(path, kind).Inc()

	if !tagged || kind == KindPanic || status >= 500 {
		a.reporter.Report(ctx, err, map[string]string{
			"route":      path,
			"status":     strconv.Itoa(status),
			"kind":       kind,
			"request_id": transport.RequestIDFromContext(ctx),
		})
	}

	transport.WriteText(w, status, message+"\n")
}

func errorKind(err error, tagged bool) string {
	switch {
	case errors.Is(err, transport.ErrPanic):
		return KindPanic
	case errors.Is(err, transport.ErrBodyRead):
		return KindBody
	case errors.Is(err, engine.ErrInitFailed):
		return KindEngine
	case errors.Is(err, errEncode), errors.Is(err, errInvalidStatus):
		return KindEncode
	case tagged:
		return KindTagged
	default:
		return KindUntagged
	}
}

// errEncode wraps failures to serialize a structured response body.
var errEncode = errors.New("encoding response body")

// encodeBody turns a Context body into wire bytes: strings and byte slices
// verbatim, nil as an empty body, anything else as JSON.
func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(b), nil
	case []byte:
		return b, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errEncode, err)
	}
	return data, nil
}

// withRequestID propagates the X-Request-ID header into the request
// context, generating one when the client sent none, and sets it on the
// response before anything is written.
func withRequestID(w http.ResponseWriter, r *http.Request) *http.Request {
	id := r.Header.Get("X-Request-ID")
	if id == "" {
		id = transport.NewRequestID()
	}
	w.Header().Set("X-Request-ID", id)
	return r.WithContext(transport.ContextWithRequestID(r.Context(), id))
}

// requestLine formats the per-request debug line.
func requestLine(r *http.Request, origin string) string {
	line := fmt.Sprintf("%s %s from %s %q", r.Method, r.URL.Path, transport.ClientIP(r), r.UserAgent())
	if origin != "" {
		line += " (" + origin + ")"
	}
	return line
}
