package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/lookahead"
	"github.com/aretw0/lookahead/internal/logging"
	"github.com/aretw0/lookahead/pkg/adapters/memory"
	"github.com/aretw0/lookahead/pkg/dsl"
	"github.com/aretw0/lookahead/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *memory.Network) {
	t.Helper()
	b := dsl.New()
	b.Segment("A", 500).Sign(400, "6\n10", dsl.Forward).Sign(100, "8", dsl.Forward)
	b.Segment("B", 300).Grade(1.5)
	b.Segment("C", 300)
	b.Segment("Yard B", 100).Bare()
	b.Segment("Yard C", 100).Bare()
	b.Junction("J").In("A", dsl.Last).Out("B", dsl.First).Out("C", dsl.First)
	b.Link("B", dsl.Last, "Yard B", dsl.First)
	b.Link("C", dsl.Last, "Yard C", dsl.First)
	net, err := b.Build()
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	streams := NewStreamManager(logging.NewNop())

	eng, err := lookahead.New(net, lookahead.WithLifecycleHooks(observability.Combine(metrics.Hooks(), streams.Hooks())))
	require.NoError(t, err)

	srv := httptest.NewServer(NewHandler(eng,
		WithStreams(streams),
		WithGatherer(reg),
		WithLogger(logging.NewNop()),
	))
	t.Cleanup(srv.Close)
	return srv, net
}

func getJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	var body map[string]string
	resp := getJSON(t, srv.URL+"/health", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	resp = getJSON(t, srv.URL+"/info", &body)
	assert.Equal(t, lookahead.Version, body["version"])
}

func TestServer_RequestIDIsEchoed(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
}

func TestServer_Upcoming(t *testing.T) {
	srv, net := newTestServer(t)

	var body EventsResponse
	resp := getJSON(t, srv.URL+"/upcoming?segment=A&speed=90", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 7, body.Count)
	require.Len(t, body.Rows, 7)
	assert.Equal(t, "A", body.Rows[0].Text)
	assert.Equal(t, "80 km/h", body.Rows[1].Text)
	assert.Equal(t, "60 km/h", body.Rows[2].Text)
	assert.Equal(t, "Yard B <<< Yard C", body.Rows[3].Text)
	assert.Equal(t, "Yard B", body.Rows[6].Text)

	require.NoError(t, net.Throw("J"))
	resp = getJSON(t, srv.URL+"/upcoming?segment=A&max_count=3", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 3, body.Count)
	assert.Equal(t, "100 km/h", body.Rows[2].Text, "junction selection is read live")
}

func TestServer_FollowAndAnnotations(t *testing.T) {
	srv, _ := newTestServer(t)

	var body EventsResponse
	resp := getJSON(t, srv.URL+"/follow?segment=A&offset=0&distance=600", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Positive(t, body.Count)

	resp = getJSON(t, srv.URL+"/segments/A/annotations", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Positive(t, body.Count)
}

func TestServer_Errors(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		path   string
		status int
	}{
		{"/upcoming?segment=ghost", http.StatusNotFound},
		{"/upcoming?segment=A&offset=9000", http.StatusBadRequest},
		{"/upcoming?segment=A&max_count=many", http.StatusBadRequest},
		{"/follow?segment=A&distance=NaN", http.StatusBadRequest},
		{"/segments/ghost/annotations", http.StatusNotFound},
		{"/junctions/ghost", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var body ErrorResponse
			resp := getJSON(t, srv.URL+tt.path, &body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.NotEmpty(t, body.Error)
			assert.NotEmpty(t, body.RequestID)
		})
	}
}

func TestServer_Junction(t *testing.T) {
	srv, _ := newTestServer(t)

	var body JunctionResponse
	resp := getJSON(t, srv.URL+"/junctions/J", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Yard B <<< Yard C", body.Text)
	assert.Equal(t, 0, body.Selected)
}

func TestServer_Graph(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/graph?segment=A")
	require.NoError(t, err)
	defer resp.Body.Close()

	var sb strings.Builder
	_, err = bufio.NewReader(resp.Body).WriteTo(&sb)
	require.NoError(t, err)
	assert.Contains(t, sb.String(), "graph LR")
	assert.Contains(t, sb.String(), "j_J ==>|0| s_B")
	assert.Contains(t, sb.String(), "class s_A current;")
}

func TestServer_InvalidateBroadcastsAndCounts(t *testing.T) {
	srv, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	stream, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer stream.Body.Close()

	lines := make(chan string, 16)
	go func() {
		scanner := bufio.NewScanner(stream.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	waitFor := func(want string) {
		t.Helper()
		deadline := time.After(2 * time.Second)
		for {
			select {
			case line, ok := <-lines:
				require.True(t, ok, "stream closed before %q", want)
				if line == want {
					return
				}
			case <-deadline:
				t.Fatalf("timed out waiting for %q", want)
			}
		}
	}
	waitFor("data: connected")

	resp, err := http.Post(srv.URL+"/invalidate", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	waitFor("data: invalidate")

	metrics, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	var sb strings.Builder
	_, err = bufio.NewReader(metrics.Body).WriteTo(&sb)
	require.NoError(t, err)
	assert.Contains(t, sb.String(), "lookahead_invalidations_total 1")
}

func TestStreamManager(t *testing.T) {
	sm := NewStreamManager(nil)
	ch, cancel := sm.Subscribe()
	assert.Equal(t, 1, sm.Len())

	sm.Broadcast("x")
	assert.Equal(t, "x", <-ch)

	for range 20 {
		sm.Broadcast("flood")
	}

	cancel()
	cancel()
	assert.Equal(t, 0, sm.Len())
}
