package transport

import (
	"github.com/google/uuid"
)

// RequestID returns middleware that makes sure a request ID is present in
// the handler's context. The HTTP adapter normally assigns one from the
// X-Request-ID header; when it has not, a new UUID is generated here.
func RequestID() Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(c *Context) error {
			if RequestIDFromContext(c.Context()) == "" {
				c.ctx = ContextWithRequestID(c.Context(), NewRequestID())
			}
			return next.Handle(c)
		})
	}
}

// NewRequestID generates a new unique request ID.
func NewRequestID() string {
	return uuid.NewString()
}
