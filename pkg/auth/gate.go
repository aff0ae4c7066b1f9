package auth

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rhuss/zotgate/pkg/api"
	"github.com/rhuss/zotgate/pkg/debug"
)

// Check authenticates r with chain. On success it returns r with the
// identity stored in its context. On rejection it returns a 401
// status-tagged error. A nil chain admits every request unchanged.
func Check(chain *AuthChain, r *http.Request) (*http.Request, error) {
	if chain == nil {
		return r, nil
	}

	result := chain.Authenticate(r.Context(), r)

	if result.Decision != Yes || result.Identity == nil {
		slog.Warn("authentication failed",
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"error", result.Err,
		)
		cause := result.Err
		if cause == nil {
			cause = ErrUnauthenticated
		}
		return nil, &api.Error{
			Status:  http.StatusUnauthorized,
			Message: http.StatusText(http.StatusUnauthorized),
			Err:     cause,
		}
	}

	if result.Identity.Subject == "" {
		slog.Error("authenticator returned identity with empty subject", "path", r.URL.Path)
		return nil, &api.Error{
			Status:  http.StatusInternalServerError,
			Message: api.DefaultMessage,
			Err:     fmt.Errorf("%w (method %q)", ErrEmptySubject, result.Identity.Method),
		}
	}

	debug.Log("auth", "authentication succeeded",
		"subject", result.Identity.Subject,
		"method", result.Identity.Method,
		"path", r.URL.Path,
	)

	return r.WithContext(SetIdentity(r.Context(), result.Identity)), nil
}
