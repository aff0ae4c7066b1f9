// Package engine manages the process-wide translation engine dependency.
//
// The engine is initialized lazily, once, before the first handler is
// dispatched. [Lazy] guards the initialization so that concurrent first
// requests trigger at most one attempt at a time and never observe a
// partially initialized engine.
//
// # Lifecycle
//
//   - Warm (optional) initializes eagerly before the server starts serving.
//   - Ensure is called by the HTTP adapter before each dispatch. After the
//     first success it is a single atomic load.
//   - A failed attempt is not remembered. The request that triggered it
//     fails with a 500 and the next request tries again, so a transient
//     backend outage does not poison the process.
//   - Ready reports whether initialization has succeeded; it backs the
//     /readyz endpoint.
//
// There is no teardown: once initialized the engine lives for the rest of
// the process.
package engine
