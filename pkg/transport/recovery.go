package transport

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rhuss/zotgate/pkg/api"
)

// ErrPanic is wrapped by errors produced from a recovered handler panic.
var ErrPanic = errors.New("handler panic")

// Recovery returns middleware that catches panics in the handler and
// converts them to 500 errors. The panic value is kept in the error chain
// for logging but is not written to the client.
func Recovery() Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(c *Context) (retErr error) {
			defer func() {
				if r := recover(); r != nil {
					retErr = &api.Error{
						Status:  http.StatusInternalServerError,
						Message: api.DefaultMessage,
						Err:     fmt.Errorf("%w: %v", ErrPanic, r),
					}
				}
			}()
			return next.Handle(c)
		})
	}
}
