// Package transport defines the request Context, the handler contract and
// the middleware chain that sit between zotgate's HTTP adapter and its
// endpoint handlers.
//
// # Handler Contract
//
// Every endpoint is a [Handler]: it receives a [*Context], reads the
// acquired request body and headers from the request view, and declares
// its result by setting a status and body on the response view. Failure is
// signalled by returning an error; errors carrying a status (see pkg/api)
// are written with that status, all others become 500.
//
// Handlers never touch the http.ResponseWriter. The only side effect that
// reaches the wire before the handler returns is [Context.SetHeader],
// which writes through to the live response header map so that the
// headers are in place before the status line is written.
//
// # Body Acquisition
//
// [ReadBody] returns the request body as text. A hosting shim that has
// already materialized the body (serverless platforms do) attaches it with
// [WithParsedBody]; otherwise the stream is read to completion.
//
// # Middleware
//
// [Middleware] wraps a Handler. Built-in middleware provides panic
// recovery, request ID assignment (X-Request-ID) and structured logging
// via log/slog.
package transport
