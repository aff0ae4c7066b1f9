package transport

import "context"

// Middleware decorates a Handler. The adapter wraps every route once at
// construction, so a Middleware runs per request but is built only once.
type Middleware func(Handler) Handler

// Chain folds mws into one Middleware. The first entry ends up outermost:
// Chain(a, b)(h) behaves like a(b(h)).
func Chain(mws ...Middleware) Middleware {
	return func(h Handler) Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			h = mws[i](h)
		}
		return h
	}
}

type requestIDKey struct{}

// RequestIDFromContext returns the request ID stored in ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// ContextWithRequestID stores id in a copy of ctx.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}
