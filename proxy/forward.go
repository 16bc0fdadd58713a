package proxy

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// httpDoer is the surface of http.Client used to make upstream requests.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

var (
	followClient = &http.Client{}
	manualClient = &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
)

// clientFor selects the outbound client for a redirect policy. Only the
// follow policy lets the client resolve redirects itself; otherwise the raw
// redirect response is inspected by the route.
func clientFor(policy RedirectPolicy) httpDoer {
	if policy == RedirectFollow {
		return followClient
	}
	return manualClient
}

// Handle attempts to serve the request by forwarding it to the route's
// upstream. It returns false if the route declines the request — wrong
// method, unmatched or excluded path, or an upstream response that should
// fall through to the next stage — in which case nothing has been written to
// the response writer. A non-nil error indicates the upstream could not be
// contacted.
func (r *Route) Handle(writer http.ResponseWriter, request *http.Request) (bool, error) {
	if !r.acceptsMethod(request.Method) {
		return false, nil
	}

	remainder, ok := r.matchPath(request.URL.Path)
	if !ok {
		return false, nil
	}

	if r.excluded(request.URL.Path) {
		return false, nil
	}

	response, err := r.forward(request, remainder)
	if err != nil {
		return false, err
	}
	defer response.Body.Close()

	// A 404 from the upstream falls through to the next stage, so that a
	// fallback stage owns "not found" presentation.
	if response.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, response.Body)
		return false, nil
	}

	if response.StatusCode == http.StatusMovedPermanently && r.options.Redirect == RedirectRewrite {
		return r.relayRedirect(writer, request, response)
	}

	relay(writer, response)
	return true, nil
}

// forward issues the upstream request: same method, inbound headers with the
// Host replaced by the target's, the inbound body streamed through, and the
// matched remainder appended to the target path.
func (r *Route) forward(request *http.Request, remainder string) (*http.Response, error) {
	target := *r.target
	target.Path = r.target.Path + remainder
	target.RawQuery = request.URL.RawQuery

	out, err := http.NewRequestWithContext(request.Context(), request.Method, target.String(), request.Body)
	if err != nil {
		return nil, err
	}

	out.Header = request.Header.Clone()
	out.Host = target.Host
	out.ContentLength = request.ContentLength

	response, err := r.client.Do(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return response, nil
}

// relayRedirect translates a permanent redirect back into the route's local
// path space, when the redirect stays on the upstream origin underneath the
// target's base path. Redirects elsewhere are relayed untouched; a missing or
// unparseable location declines the request entirely.
func (r *Route) relayRedirect(writer http.ResponseWriter, request *http.Request, response *http.Response) (bool, error) {
	location := response.Header.Get("Location")
	if location == "" {
		_, _ = io.Copy(io.Discard, response.Body)
		return false, nil
	}

	redirect, err := url.Parse(location)
	if err != nil || !redirect.IsAbs() || redirect.Host == "" {
		_, _ = io.Copy(io.Discard, response.Body)
		return false, nil
	}

	if sameOrigin(redirect, r.target) && strings.HasPrefix(redirect.Path, r.target.Path) {
		remainder := redirect.Path[len(r.target.Path):]
		rewritten := request.URL.ResolveReference(&url.URL{
			Path:     r.localPath + remainder,
			RawQuery: redirect.RawQuery,
		})
		response.Header.Set("Location", rewritten.String())
	}

	relay(writer, response)
	return true, nil
}

func sameOrigin(a, b *url.URL) bool {
	return strings.EqualFold(a.Scheme, b.Scheme) && strings.EqualFold(a.Host, b.Host)
}

// relay copies the upstream response to the client: same status, same
// headers, body streamed through without buffering.
func relay(writer http.ResponseWriter, response *http.Response) {
	headers := writer.Header()
	for name, values := range response.Header {
		for i := range values {
			headers.Add(name, values[i])
		}
	}
	writer.WriteHeader(response.StatusCode)
	_, _ = io.Copy(writer, response.Body)
}
