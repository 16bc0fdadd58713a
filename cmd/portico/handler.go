package main

import (
	"flag"
	"net/http"
	"sync/atomic"

	"github.com/portico/portico/config"
	"github.com/portico/portico/proxy"
)

var (
	fallbackRoot = flag.String("fallback-root", "", "Directory to serve static files from when no route handles a request")
)

// pipeline is the swappable request-handling chain: proxy router first, then
// the fallback stage. Updates install a whole new chain atomically; in-flight
// requests finish on the chain they started with.
type pipeline struct {
	observer proxy.Observer
	handler  atomic.Pointer[http.Handler]
}

func newPipeline(observer proxy.Observer) *pipeline {
	return &pipeline{observer: observer}
}

// Update builds a router from the given bindings and swaps it in. It
// satisfies the routeUpdater signature used by config sources.
func (p *pipeline) Update(bindings []config.Binding) error {
	router := proxy.NewRouter()
	for i := range bindings {
		router.Register(bindings[i].Methods, bindings[i].Path, bindings[i].Target, &bindings[i].Options)
	}
	router.Observer = p.observer
	router.ErrorHandler = handleError

	handler, err := router.Handler(fallbackHandler())
	if err != nil {
		return err
	}

	p.handler.Store(&handler)
	return nil
}

func (p *pipeline) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	handler := p.handler.Load()
	if handler == nil {
		// Routes haven't been installed yet.
		writer.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	(*handler).ServeHTTP(writer, request)
}

// fallbackHandler builds the stage requests fall through to when no route
// handles them: a static file server if one is configured, and a not-found
// page otherwise.
func fallbackHandler() http.Handler {
	if *fallbackRoot != "" {
		return http.FileServer(http.Dir(*fallbackRoot))
	}
	return http.HandlerFunc(handleNotFound)
}
