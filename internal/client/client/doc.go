// Package client is the REST collaborator of the study-room client.
//
// # Overview
//
// The package provides:
//  1. Narrow contracts for the remote API (AuthAPI, RoomsAPI, and their union
//     Client) so the session and lobby components can be tested with fakes.
//  2. HTTPClient, a JSON-over-HTTP implementation that attaches the bearer
//     token when one is given, tags requests with X-Request-ID, and throttles
//     outbound traffic with a token-bucket limiter.
//
// # Error Handling
//
// Transport failures wrap ErrUnavailable; undecodable success bodies wrap
// ErrMalformedResponse. Non-2xx answers are returned as *APIError, which
// unwraps to ErrUnauthorized, ErrConflict or ErrRejected. Use MessageOr to get
// the server's human-readable message with a fallback.
//
// # Concurrency
//
// HTTPClient is safe for concurrent use. All operations honor ctx.
package client
