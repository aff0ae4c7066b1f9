// Package jwt admits requests carrying an HS256, HS384 or HS512 signed
// bearer token.
package jwt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/rhuss/zotgate/pkg/auth"
	"github.com/rhuss/zotgate/pkg/debug"
)

// ErrNoSecret is returned by New when the shared secret is empty.
var ErrNoSecret = errors.New("jwt: no shared secret configured")

// Config describes which tokens are accepted.
type Config struct {
	Secret string // HMAC key shared with the token issuer

	// Issuer and Audience are enforced only when set.
	Issuer   string
	Audience string

	UserClaim string        // claim holding the subject, "sub" when empty
	Leeway    time.Duration // clock skew allowed on exp, nbf and iat, 30s when zero
}

var signingMethods = []string{
	jwtlib.SigningMethodHS256.Alg(),
	jwtlib.SigningMethodHS384.Alg(),
	jwtlib.SigningMethodHS512.Alg(),
}

// Authenticator accepts HMAC-signed bearer tokens.
type Authenticator struct {
	claim  string
	key    []byte
	parser *jwtlib.Parser
}

// New builds an Authenticator. It fails with ErrNoSecret when cfg.Secret
// is empty.
func New(cfg Config) (*Authenticator, error) {
	if cfg.Secret == "" {
		return nil, ErrNoSecret
	}
	if cfg.UserClaim == "" {
		cfg.UserClaim = "sub"
	}
	if cfg.Leeway == 0 {
		cfg.Leeway = 30 * time.Second
	}

	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods(signingMethods),
		jwtlib.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwtlib.WithAudience(cfg.Audience))
	}

	return &Authenticator{
		claim:  cfg.UserClaim,
		key:    []byte(cfg.Secret),
		parser: jwtlib.NewParser(opts...),
	}, nil
}

// Authenticate abstains unless the request carries a bearer value with the
// three dot-separated segments of a JWT, so that an API key later in the
// chain can still claim other bearer values. A token that fails parsing,
// signature or claim checks is a No.
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.AuthResult {
	raw, ok := auth.BearerToken(r)
	if !ok || strings.Count(raw, ".") != 2 {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	claims := jwtlib.MapClaims{}
	if _, err := a.parser.ParseWithClaims(raw, claims, a.keyFunc); err != nil {
		debug.Log("auth", "token rejected", "error", err)
		return auth.AuthResult{Decision: auth.No, Err: fmt.Errorf("invalid token: %w", err)}
	}

	subject, _ := claims[a.claim].(string)
	if subject == "" {
		return auth.AuthResult{Decision: auth.No, Err: fmt.Errorf("token has no %q claim", a.claim)}
	}
	return auth.AuthResult{
		Decision: auth.Yes,
		Identity: &auth.Identity{Subject: subject, Method: "jwt"},
	}
}

func (a *Authenticator) keyFunc(*jwtlib.Token) (any, error) {
	return a.key, nil
}
