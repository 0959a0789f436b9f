// Package transport provides the HTTP plumbing shared by wicket's
// middleware stack: the middleware chain helper, request-ID propagation,
// access logging, panic recovery, and the JSON error envelope with its
// machine-readable error kinds.
package transport
