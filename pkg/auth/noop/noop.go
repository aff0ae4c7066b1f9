// Package noop provides an authenticator that accepts every request as the
// anonymous identity. It backs auth type "none" when a chain is still
// wanted, for example to carry an identity into handler logs.
package noop

import (
	"context"
	"net/http"

	"github.com/rhuss/zotgate/pkg/auth"
)

// Authenticator always returns Yes with the anonymous identity.
type Authenticator struct{}

func (a *Authenticator) Authenticate(_ context.Context, _ *http.Request) auth.AuthResult {
	return auth.AuthResult{Decision: auth.Yes, Identity: auth.Anonymous()}
}
