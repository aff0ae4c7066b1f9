package transport

import (
	"net/http"
	"slices"
)

// Headers written on every response regardless of method or path.
const (
	CORSAllowMethods  = "POST, GET, OPTIONS"
	CORSAllowHeaders  = "Content-Type"
	CORSExposeHeaders = "Link"
)

// CORS holds the cross-origin policy.
type CORS struct {
	// AllowedOrigins lists the origins that receive an
	// Access-Control-Allow-Origin header. "*" allows every origin.
	AllowedOrigins []string
}

// DefaultCORS allows all origins.
func DefaultCORS() CORS {
	return CORS{AllowedOrigins: []string{"*"}}
}

// AllowOrigin returns the Access-Control-Allow-Origin value for origin and
// whether the origin is permitted. With a wildcard in the list the value is
// "*"; otherwise a listed origin is echoed back.
func (c CORS) AllowOrigin(origin string) (string, bool) {
	if origin == "" {
		return "", false
	}
	if slices.Contains(c.AllowedOrigins, "*") {
		return "*", true
	}
	if slices.Contains(c.AllowedOrigins, origin) {
		return origin, true
	}
	return "", false
}

// Apply writes the CORS headers for a request carrying origin (which may be
// empty) into h. It must run before the status line is written.
func (c CORS) Apply(h http.Header, origin string) {
	h.Set("Access-Control-Allow-Methods", CORSAllowMethods)
	h.Set("Access-Control-Allow-Headers", CORSAllowHeaders)
	h.Set("Access-Control-Expose-Headers", CORSExposeHeaders)

	value, ok := c.AllowOrigin(origin)
	if !ok {
		return
	}
	h.Set("Access-Control-Allow-Origin", value)
	if value != "*" {
		h.Add("Vary", "Origin")
	}
}
