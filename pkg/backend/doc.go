// Package backend forwards zotgate endpoints to an upstream translation
// engine over HTTP.
//
// Each endpoint in the route table is a Client.Endpoint handler: it POSTs
// the acquired request body to the same path on the engine and copies the
// engine's status, body, Content-Type and Link headers onto the Context.
// The Client also probes the engine once at startup through the
// engine.Initializer contract.
package backend
