package proxy

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObserver struct {
	responses      map[string]int
	fallthroughs   []string
	upstreamErrors []string
}

func newFakeObserver() *fakeObserver {
	return &fakeObserver{responses: make(map[string]int)}
}

func (f *fakeObserver) RouteResponse(localPath string, status int) {
	f.responses[localPath] = status
}

func (f *fakeObserver) Fallthrough(path string) {
	f.fallthroughs = append(f.fallthroughs, path)
}

func (f *fakeObserver) UpstreamError(localPath string) {
	f.upstreamErrors = append(f.upstreamErrors, localPath)
}

func nextStage(called *bool) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		*called = true
		writer.WriteHeader(http.StatusNoContent)
	})
}

func Test_Router_Handler_ErrorsWithNoRoutes(t *testing.T) {
	_, err := NewRouter().Handler(http.NotFoundHandler())

	assert.ErrorIs(t, err, ErrNoRoutesConfigured)
}

func Test_Router_Handler_SurfacesRegistrationErrors(t *testing.T) {
	router := NewRouter().
		Get("/good", "https://upstream.example", nil).
		Get("/bad", "://broken", nil)

	_, err := router.Handler(http.NotFoundHandler())

	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func Test_Router_Register_PreservesRegistrationOrder(t *testing.T) {
	router := NewRouter().
		All("/api", "https://one.example", &RouteOptions{Mode: PathModeRoot}).
		Get("/api/health", "https://two.example", nil)

	routes := router.Routes()
	require.Len(t, routes, 2)
	assert.Equal(t, "/api", routes[0].LocalPath())
	assert.Equal(t, "/api/health", routes[1].LocalPath())
}

func Test_Router_Handler_FirstRegisteredRouteWins(t *testing.T) {
	router := NewRouter().
		All("/api", "https://one.example", &RouteOptions{Mode: PathModeRoot}).
		Get("/api/health", "https://two.example", nil)

	first := &fakeDoer{response: upstreamResponse(http.StatusOK, nil, "first")}
	second := &fakeDoer{response: upstreamResponse(http.StatusOK, nil, "second")}
	router.routes[0].client = first
	router.routes[1].client = second

	nextCalled := false
	handler, err := router.Handler(nextStage(&nextCalled))
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, "first", recorder.Body.String())
	assert.NotNil(t, first.request)
	assert.Nil(t, second.request, "the more specific route must not be tried")
	assert.False(t, nextCalled)
}

func Test_Router_Handler_TriesRoutesUntilOneHandles(t *testing.T) {
	router := NewRouter().
		Get("/one", "https://one.example", nil).
		Get("/two", "https://two.example", nil)

	second := &fakeDoer{response: upstreamResponse(http.StatusOK, nil, "two")}
	router.routes[1].client = second

	nextCalled := false
	handler, err := router.Handler(nextStage(&nextCalled))
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/two", nil))

	assert.Equal(t, "two", recorder.Body.String())
	assert.False(t, nextCalled)
}

func Test_Router_Handler_FallsThroughWhenNoRouteMatches(t *testing.T) {
	router := NewRouter().Get("/api", "https://upstream.example", nil)

	nextCalled := false
	handler, err := router.Handler(nextStage(&nextCalled))
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/other", nil))

	assert.True(t, nextCalled)
	assert.Equal(t, http.StatusNoContent, recorder.Code)
}

func Test_Router_Handler_FallsThroughOnUpstreamNotFound(t *testing.T) {
	router := NewRouter().Get("/api", "https://upstream.example", nil)
	router.routes[0].client = &fakeDoer{response: upstreamResponse(http.StatusNotFound, nil, "")}

	nextCalled := false
	handler, err := router.Handler(nextStage(&nextCalled))
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api", nil))

	assert.True(t, nextCalled, "a 404 from the upstream should reach the next stage")
	assert.Equal(t, http.StatusNoContent, recorder.Code)
}

func Test_Router_Handler_WritesBadGatewayOnUpstreamError(t *testing.T) {
	router := NewRouter().Get("/api", "https://upstream.example", nil)
	router.routes[0].client = &fakeDoer{err: errors.New("connection refused")}

	nextCalled := false
	handler, err := router.Handler(nextStage(&nextCalled))
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api", nil))

	assert.Equal(t, http.StatusBadGateway, recorder.Code)
	assert.False(t, nextCalled)
}

func Test_Router_Handler_UsesCustomErrorHandler(t *testing.T) {
	router := NewRouter().Get("/api", "https://upstream.example", nil)
	router.routes[0].client = &fakeDoer{err: errors.New("connection refused")}

	var seen error
	router.ErrorHandler = func(writer http.ResponseWriter, request *http.Request, err error) {
		seen = err
		writer.WriteHeader(http.StatusServiceUnavailable)
	}

	handler, err := router.Handler(http.NotFoundHandler())
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api", nil))

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	assert.ErrorIs(t, seen, ErrUpstreamUnavailable)
}

func Test_Router_Handler_NotifiesObserver(t *testing.T) {
	router := NewRouter().
		Get("/ok", "https://upstream.example", nil).
		Get("/down", "https://upstream.example", nil)
	router.routes[0].client = &fakeDoer{response: upstreamResponse(http.StatusCreated, nil, "made")}
	router.routes[1].client = &fakeDoer{err: errors.New("connection refused")}

	observer := newFakeObserver()
	router.Observer = observer

	handler, err := router.Handler(http.NotFoundHandler())
	require.NoError(t, err)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/down", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusCreated, observer.responses["/ok"])
	assert.Equal(t, []string{"/down"}, observer.upstreamErrors)
	assert.Equal(t, []string{"/missing"}, observer.fallthroughs)
}

func Test_Router_All_AcceptsEveryMethod(t *testing.T) {
	router := NewRouter().All("/api", "https://upstream.example", nil)

	route := router.Routes()[0]
	for _, m := range AllMethods {
		assert.True(t, route.acceptsMethod(string(m)), "method %s", m)
	}
}
