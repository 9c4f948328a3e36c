// Package client is the single entry point for calls to the docsum backend.
//
// # Overview
//
// A Gateway resolves endpoints against the configured base URL, attaches the
// bearer token taken from a TokenSource, sends JSON by default and
// normalizes every failure into an *APIError.
//
// # Error Handling
//
// Failures unwrap to one of the sentinel errors:
//
//   - ErrAuthRequired: no token while the call needs one; nothing is sent.
//   - ErrAuthFailed:   the backend answered 401. The AuthFailureHandler is
//     invoked before returning and the body is not read.
//   - ErrAPI:          another non-2xx status. Code and Message come from the
//     {error, message} body, with fallbacks "API Error" and "HTTP <status>".
//   - ErrNetwork:      transport failure or unreadable reply.
//
// # Concurrency & Contexts
//
// A Gateway is safe for concurrent use. Every call takes a context and
// honors its cancellation and deadline.
package client
