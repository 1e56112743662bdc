// Package client talks to the HoaxBuster story API.
//
// # Overview
//
// The package provides:
//  1. The Client interface used by the services: stories, authentication,
//     hoax classification, a reachability probe and replay of queued writes.
//  2. HTTPClient, a REST implementation that injects the bearer token from a
//     TokenProvider, decodes the per-endpoint result envelopes and validates
//     them at the boundary.
//  3. StoryMutation, which turns a story created offline into a queue entry
//     that Send can replay later.
//
// # Error Handling
//
// HTTP and transport failures map to sentinel errors that callers match with
// errors.Is: ErrUnavailable (offline, timeout, 5xx), ErrUnauthorized (401,
// 403 or no token), ErrNotFound (404) and ErrRejected (the API answered
// with error=true).
//
// The token is passed through verbatim and never inspected.
package client
