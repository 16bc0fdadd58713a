package proxy

import "regexp"

// Matcher decides whether a request path should be excluded from a route.
type Matcher interface {
	Matches(path string) bool
}

type exactMatcher string

// ExactPath creates a matcher that requires the request path to exactly equal
// the given string.
func ExactPath(path string) Matcher {
	return exactMatcher(path)
}

func (e exactMatcher) Matches(path string) bool {
	return string(e) == path
}

type patternMatcher struct {
	pattern *regexp.Regexp
}

// PathPattern creates a matcher that matches if the pattern is found anywhere
// in the request path.
func PathPattern(pattern *regexp.Regexp) Matcher {
	return &patternMatcher{pattern: pattern}
}

func (p *patternMatcher) Matches(path string) bool {
	return p.pattern.MatchString(path)
}
