// Package apikey provides an API key authenticator that validates
// bearer tokens against a static key store using SHA-256 hashing
// and constant-time comparison.
package apikey

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/rhuss/zotgate/pkg/auth"
)

// keyEntry maps a key hash to the subject it authenticates.
type keyEntry struct {
	hash    [32]byte
	subject string
}

// Authenticator validates bearer tokens against a static key store.
type Authenticator struct {
	keys []keyEntry
}

// Key is the configuration format for an API key.
type Key struct {
	Key     string
	Subject string
}

// New creates an API key authenticator. Keys are hashed immediately;
// plaintext keys are not stored. A key without a subject authenticates as
// "apikey-<n>" where n is its position.
func New(keys []Key) *Authenticator {
	a := &Authenticator{}
	for i, k := range keys {
		subject := k.Subject
		if subject == "" {
			subject = "apikey-" + strconv.Itoa(i)
		}
		a.keys = append(a.keys, keyEntry{
			hash:    sha256.Sum256([]byte(k.Key)),
			subject: subject,
		})
	}
	return a
}

// Authenticate extracts the bearer token and validates it.
// Returns Yes if valid, No if bearer token present but invalid,
// Abstain if no Authorization header or not a Bearer token.
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.AuthResult {
	token, ok := auth.BearerToken(r)
	if !ok {
		return auth.AuthResult{Decision: auth.Abstain}
	}
	if token == "" {
		return auth.AuthResult{Decision: auth.No, Err: auth.ErrUnauthenticated}
	}

	tokenHash := sha256.Sum256([]byte(token))

	// Every entry is compared; the loop never exits early.
	match := -1
	for i, entry := range a.keys {
		if subtle.ConstantTimeCompare(tokenHash[:], entry.hash[:]) == 1 && match < 0 {
			match = i
		}
	}
	if match < 0 {
		return auth.AuthResult{Decision: auth.No, Err: auth.ErrUnauthenticated}
	}

	return auth.AuthResult{
		Decision: auth.Yes,
		Identity: &auth.Identity{Subject: a.keys[match].subject, Method: "apikey"},
	}
}
