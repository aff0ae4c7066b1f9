// Package api defines the error vocabulary shared by zotgate handlers and
// the HTTP transport.
//
// Handlers signal failure by returning an error. A [*Error] (or any error
// exposing an HTTPStatus method) carries the HTTP status the transport
// writes; every other error is treated as an internal server error. The
// package performs no I/O and has no external dependencies.
package api
