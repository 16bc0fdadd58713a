package metrics

import (
	"bytes"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func Test_Recorder_TracksResponses(t *testing.T) {
	rec := NewRecorder()

	rec.RouteResponse("/api", 200)
	rec.RouteResponse("/api", 200)
	rec.RouteResponse("/ext", 301)

	expected := `# HELP portico_response_total The total number of proxied HTTP responses sent to clients
# TYPE portico_response_total counter
portico_response_total{route="/api",status="200"} 2
portico_response_total{route="/ext",status="301"} 1
`

	assert.NoError(t, testutil.CollectAndCompare(rec.registry, bytes.NewBufferString(expected), "portico_response_total"))
}

func Test_Recorder_TracksFallthroughs(t *testing.T) {
	rec := NewRecorder()

	rec.Fallthrough("/missing")
	rec.Fallthrough("/also/missing")

	expected := `# HELP portico_fallthrough_total The total number of requests no proxy route handled
# TYPE portico_fallthrough_total counter
portico_fallthrough_total 2
`

	assert.NoError(t, testutil.CollectAndCompare(rec.registry, bytes.NewBufferString(expected), "portico_fallthrough_total"))
}

func Test_Recorder_TracksUpstreamErrorsAsBadGateways(t *testing.T) {
	rec := NewRecorder()

	rec.UpstreamError("/api")

	expectedErrors := `# HELP portico_upstream_error_total The total number of requests that failed to reach an upstream
# TYPE portico_upstream_error_total counter
portico_upstream_error_total{route="/api"} 1
`

	expectedResponses := `# HELP portico_response_total The total number of proxied HTTP responses sent to clients
# TYPE portico_response_total counter
portico_response_total{route="/api",status="502"} 1
`

	assert.NoError(t, testutil.CollectAndCompare(rec.registry, bytes.NewBufferString(expectedErrors), "portico_upstream_error_total"))
	assert.NoError(t, testutil.CollectAndCompare(rec.registry, bytes.NewBufferString(expectedResponses), "portico_response_total"))
}
