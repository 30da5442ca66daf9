// Package server is the network boundary of inkwell: it terminates TLS
// and decides, once per request, whether the request reaches the
// application.
//
// # Dispatch
//
// Every request carries its bearer token in the "token" query parameter.
// The dispatcher classifies each request into exactly one of three
// outcomes before any store access happens:
//
//	absent token   → 400 "Missing access token"
//	unknown token  → 401 "Invalid access token"
//	known token    → delegated to the application handler
//
// The two rejection bodies are an external contract and never change.
//
// # Bootstrap
//
// Start loads the certificate and key, binds the configured port, and
// serves until the context is cancelled. Every startup failure is fatal;
// the server refuses to run half-configured. Request cancellation is
// left entirely to the transport: authentication is pure, so an aborted
// request leaves no partial side effects.
package server
