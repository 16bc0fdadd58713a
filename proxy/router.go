package proxy

import (
	"log/slog"
	"net/http"
)

// Observer receives notifications about how the router disposed of requests.
// Implementations must be safe for concurrent use.
type Observer interface {
	// RouteResponse is called when a route responded to a request.
	RouteResponse(localPath string, status int)
	// Fallthrough is called when no route handled a request.
	Fallthrough(path string)
	// UpstreamError is called when a route's upstream could not be contacted.
	UpstreamError(localPath string)
}

// Router holds an ordered collection of routes and exposes them as a single
// pipeline stage. Routes are tried in registration order; the first one to
// handle a request wins. Registration must finish before Handler is called;
// after that the router is read-only and safe for concurrent use.
type Router struct {
	routes []*Route
	err    error

	// ErrorHandler is invoked when a route fails to reach its upstream. If
	// nil, a plain 502 is written.
	ErrorHandler func(http.ResponseWriter, *http.Request, error)

	// Observer, if set, is notified of responses, fallthroughs and upstream
	// errors.
	Observer Observer
}

// NewRouter creates an empty router. Register routes with the per-method
// calls before requesting a handler.
func NewRouter() *Router {
	return &Router{}
}

// Register appends a route accepting the given methods. It returns the
// router to allow chained registration; the first registration error is
// retained and reported by Handler.
func (r *Router) Register(methods []Method, localPath string, target string, options *RouteOptions) *Router {
	route, err := NewRoute(methods, localPath, target, options)
	if err != nil {
		if r.err == nil {
			r.err = err
		}
		return r
	}
	r.routes = append(r.routes, route)
	return r
}

// Delete registers a route accepting only DELETE requests.
func (r *Router) Delete(localPath string, target string, options *RouteOptions) *Router {
	return r.Register([]Method{MethodDelete}, localPath, target, options)
}

// Get registers a route accepting only GET requests.
func (r *Router) Get(localPath string, target string, options *RouteOptions) *Router {
	return r.Register([]Method{MethodGet}, localPath, target, options)
}

// Head registers a route accepting only HEAD requests.
func (r *Router) Head(localPath string, target string, options *RouteOptions) *Router {
	return r.Register([]Method{MethodHead}, localPath, target, options)
}

// Options registers a route accepting only OPTIONS requests.
func (r *Router) Options(localPath string, target string, options *RouteOptions) *Router {
	return r.Register([]Method{MethodOptions}, localPath, target, options)
}

// Patch registers a route accepting only PATCH requests.
func (r *Router) Patch(localPath string, target string, options *RouteOptions) *Router {
	return r.Register([]Method{MethodPatch}, localPath, target, options)
}

// Post registers a route accepting only POST requests.
func (r *Router) Post(localPath string, target string, options *RouteOptions) *Router {
	return r.Register([]Method{MethodPost}, localPath, target, options)
}

// Put registers a route accepting only PUT requests.
func (r *Router) Put(localPath string, target string, options *RouteOptions) *Router {
	return r.Register([]Method{MethodPut}, localPath, target, options)
}

// All registers a route accepting every method in AllMethods.
func (r *Router) All(localPath string, target string, options *RouteOptions) *Router {
	return r.Register(AllMethods, localPath, target, options)
}

// Routes returns the registered routes in registration order.
func (r *Router) Routes() []*Route {
	return r.routes
}

// Handler builds the pipeline stage for the registered routes. Requests no
// route handles are passed to next. An empty router, or one that recorded a
// registration error, is a configuration error.
func (r *Router) Handler(next http.Handler) (http.Handler, error) {
	if r.err != nil {
		return nil, r.err
	}
	if len(r.routes) == 0 {
		return nil, ErrNoRoutesConfigured
	}

	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		for i := range r.routes {
			route := r.routes[i]

			recorder := &statusRecorder{ResponseWriter: writer}
			handled, err := route.Handle(recorder, request)
			if err != nil {
				slog.Warn("Failed to contact upstream", "route", route.LocalPath(), "error", err)
				if r.Observer != nil {
					r.Observer.UpstreamError(route.LocalPath())
				}
				r.handleError(writer, request, err)
				return
			}

			if handled {
				if r.Observer != nil {
					r.Observer.RouteResponse(route.LocalPath(), recorder.status)
				}
				return
			}
		}

		if r.Observer != nil {
			r.Observer.Fallthrough(request.URL.Path)
		}
		next.ServeHTTP(writer, request)
	}), nil
}

func (r *Router) handleError(writer http.ResponseWriter, request *http.Request, err error) {
	if r.ErrorHandler != nil {
		r.ErrorHandler(writer, request, err)
		return
	}
	writer.WriteHeader(http.StatusBadGateway)
}

// statusRecorder captures the status code a route writes, for observers.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}
