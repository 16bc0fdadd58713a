package proxy

import "errors"

var (
	// ErrInvalidTarget indicates a route was registered with a target URL that
	// could not be parsed as an absolute URL.
	ErrInvalidTarget = errors.New("invalid target URL")

	// ErrNoRoutesConfigured indicates a handler was requested from a router
	// with no registered routes.
	ErrNoRoutesConfigured = errors.New("no routes configured")

	// ErrUpstreamUnavailable indicates a transport-level failure contacting an
	// upstream. Requests are not retried; the pipeline is expected to turn
	// this into a 502-class response.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
