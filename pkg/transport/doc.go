// Package transport provides the HTTP middleware chain that surrounds the
// OAuth filter.
//
// # Middleware
//
// Middleware wraps an http.Handler with cross-cutting behavior. Chain
// composes middleware so that the first entry is the outermost wrapper.
// Built-in middleware provides panic recovery, request ID assignment
// (X-Request-ID) and structured access logging via log/slog.
//
// The authentication filter itself lives in pkg/auth and plugs into the
// same chain, typically after the request ID and logging middleware so
// that its log lines carry the request ID.
package transport
