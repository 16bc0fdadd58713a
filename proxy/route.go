package proxy

import (
	"fmt"
	"net/url"
	"strings"
)

// PathMode determines how a route's local path is matched against requests.
type PathMode int

const (
	// PathModeSingle matches exactly one path, case-insensitively.
	PathModeSingle PathMode = iota
	// PathModeRoot matches any path with the local path as a case-insensitive
	// prefix; the rest of the path is forwarded to the upstream.
	PathModeRoot
)

// RedirectPolicy determines how a route deals with redirect responses from
// its upstream.
type RedirectPolicy int

const (
	// RedirectFollow resolves redirects when making the upstream request, so
	// clients never see a redirect from this hop.
	RedirectFollow RedirectPolicy = iota
	// RedirectForward relays upstream redirects to the client untouched.
	RedirectForward
	// RedirectRewrite translates permanent redirects that stay within the
	// upstream's base path back into the route's local path space. Redirects
	// that point elsewhere are forwarded untouched.
	RedirectRewrite
)

// RouteOptions alters how a route matches and forwards requests. The zero
// value gives single-path matching, no exclusions, and redirect following.
type RouteOptions struct {
	Mode     PathMode
	Exclude  []Matcher
	Redirect RedirectPolicy
}

// Route forwards requests for one local path to an upstream target. Routes
// are immutable once created and safe for concurrent use.
type Route struct {
	methods   []Method
	localPath string
	folded    string
	target    *url.URL
	options   RouteOptions

	client httpDoer
}

// NewRoute creates a route that forwards requests matching the given methods
// and local path to the target URL. A nil options applies the defaults
// documented on RouteOptions.
func NewRoute(methods []Method, localPath string, target string, options *RouteOptions) (*Route, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTarget, target, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%w: %s: not an absolute URL", ErrInvalidTarget, target)
	}

	opts := RouteOptions{}
	if options != nil {
		opts = *options
	}

	return &Route{
		methods:   methods,
		localPath: localPath,
		folded:    strings.ToLower(localPath),
		target:    u,
		options:   opts,
		client:    clientFor(opts.Redirect),
	}, nil
}

// LocalPath returns the local path the route was registered with.
func (r *Route) LocalPath() string {
	return r.localPath
}

// acceptsMethod checks whether the request method is one the route serves.
func (r *Route) acceptsMethod(method string) bool {
	for i := range r.methods {
		if string(r.methods[i]) == method {
			return true
		}
	}
	return false
}

// matchPath matches the decoded request path against the route's local path.
// In root mode the returned remainder keeps the request path's original
// casing; the fold is only used for comparison.
func (r *Route) matchPath(path string) (remainder string, ok bool) {
	switch r.options.Mode {
	case PathModeRoot:
		if len(path) >= len(r.folded) && strings.EqualFold(path[:len(r.folded)], r.folded) {
			return path[len(r.folded):], true
		}
	default:
		if strings.EqualFold(path, r.folded) {
			return "", true
		}
	}
	return "", false
}

// excluded checks the path against the route's exclusion list, in order.
func (r *Route) excluded(path string) bool {
	for i := range r.options.Exclude {
		if r.options.Exclude[i].Matches(path) {
			return true
		}
	}
	return false
}
