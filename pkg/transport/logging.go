package transport

import (
	"log/slog"
	"time"

	"github.com/rhuss/zotgate/pkg/api"
	"github.com/rhuss/zotgate/pkg/auth"
)

// Logging returns middleware that emits one structured log entry per
// handler invocation with the request ID, path, caller subject, status and
// duration. The entry describes what the handler returned; the status
// actually written can still differ when the response cannot be encoded.
// Failures are logged at error level for 5xx and warn level otherwise.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Handler) Handler {
		return HandlerFunc(func(c *Context) error {
			start := time.Now()

			err := next.Handle(c)

			attrs := []slog.Attr{
				slog.String("request_id", RequestIDFromContext(c.Context())),
				slog.String("path", c.Path),
				slog.Duration("duration", time.Since(start)),
			}
			if subject := auth.SubjectFromContext(c.Context()); subject != "" {
				attrs = append(attrs, slog.String("subject", subject))
			}

			if err != nil {
				status, _, _ := api.StatusFromError(err)
				attrs = append(attrs,
					slog.Int("status", status),
					slog.String("error", api.Detail(err)),
				)
				level := slog.LevelWarn
				if status >= 500 {
					level = slog.LevelError
				}
				logger.LogAttrs(c.Context(), level, "handler failed", attrs...)
			} else {
				attrs = append(attrs, slog.Int("status", c.Status()))
				logger.LogAttrs(c.Context(), slog.LevelInfo, "handler returned", attrs...)
			}

			return err
		})
	}
}
