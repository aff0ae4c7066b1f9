package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// AuthDecision is an authenticator's vote on a request.
type AuthDecision int

const (
	// Yes admits the request with the returned identity.
	Yes AuthDecision = iota
	// No rejects the request outright.
	No
	// Abstain passes the request to the next authenticator, typically
	// because the credentials are of a kind this one does not handle.
	Abstain
)

var decisionNames = [...]string{Yes: "yes", No: "no", Abstain: "abstain"}

func (d AuthDecision) String() string {
	if d < 0 || int(d) >= len(decisionNames) {
		return "unknown"
	}
	return decisionNames[d]
}

// AuthResult is one authenticator's vote. Identity is set for Yes and Err
// may explain a No.
type AuthResult struct {
	Decision AuthDecision
	Identity *Identity
	Err      error
}

// Identity describes the caller a request was admitted for.
type Identity struct {
	// Subject identifies the caller and is never empty for an admitted
	// request.
	Subject string

	// Method is "apikey", "jwt" or "anonymous".
	Method string
}

// Anonymous returns the identity used when a request is admitted without
// credentials.
func Anonymous() *Identity {
	return &Identity{Subject: "anonymous", Method: "anonymous"}
}

// Authenticator votes on a request's credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) AuthResult
}

// AuthenticatorFunc lets a plain function serve as an Authenticator.
type AuthenticatorFunc func(ctx context.Context, r *http.Request) AuthResult

// Authenticate calls f(ctx, r).
func (f AuthenticatorFunc) Authenticate(ctx context.Context, r *http.Request) AuthResult {
	return f(ctx, r)
}

var (
	ErrUnauthenticated = errors.New("no credentials accepted")
	ErrEmptySubject    = errors.New("identity has an empty subject")
)

// AuthChain asks its authenticators in order until one votes Yes or No.
type AuthChain struct {
	Authenticators []Authenticator

	// DefaultDecision applies when every authenticator abstains. Yes admits
	// the request as Anonymous; anything else rejects it.
	DefaultDecision AuthDecision
}

// Authenticate returns the first non-abstaining vote, or the default.
func (c *AuthChain) Authenticate(ctx context.Context, r *http.Request) AuthResult {
	for _, a := range c.Authenticators {
		if res := a.Authenticate(ctx, r); res.Decision != Abstain {
			return res
		}
	}
	if c.DefaultDecision == Yes {
		return AuthResult{Decision: Yes, Identity: Anonymous()}
	}
	return AuthResult{Decision: No, Err: ErrUnauthenticated}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return strings.TrimSpace(token), true
}
