package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/lookahead/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(records []domain.Record) []domain.Kind {
	out := make([]domain.Kind, len(records))
	for i, r := range records {
		out[i] = r.Kind
	}
	return out
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatPretty, f)

	f, err = ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestRunUpcoming_JSON(t *testing.T) {
	env := newTestEnvironment(t, Options{})
	var buf bytes.Buffer

	require.NoError(t, RunUpcoming(context.Background(), env, NewPrinter(&buf, FormatJSON), Position{Segment: "A"}))

	var doc EventsDocument
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Contains(t, kinds(doc.Events), domain.KindSpeedLimit)
	assert.Contains(t, kinds(doc.Events), domain.KindJunctionReached)
	require.Len(t, doc.Rows, len(doc.Events))
	var texts []string
	for _, r := range doc.Rows {
		texts = append(texts, r.Text)
	}
	assert.Contains(t, texts, "80 km/h")
	assert.Contains(t, texts, "North <<< South")
}

func TestRunUpcoming_Pretty(t *testing.T) {
	env := newTestEnvironment(t, Options{})
	var buf bytes.Buffer

	require.NoError(t, RunUpcoming(context.Background(), env, NewPrinter(&buf, FormatPretty), Position{Segment: "A"}))

	out := buf.String()
	assert.Contains(t, out, "100 m")
	assert.Contains(t, out, "80 km/h")
	assert.Contains(t, out, "North <<< South")
	assert.NotContains(t, out, "\x1b[", "no colors outside a terminal")
}

func TestRunUpcoming_Markdown(t *testing.T) {
	env := newTestEnvironment(t, Options{})
	var buf bytes.Buffer

	require.NoError(t, RunUpcoming(context.Background(), env, NewPrinter(&buf, FormatMarkdown), Position{Segment: "A"}))
	assert.Contains(t, buf.String(), "80 km/h")
}

func TestRunUpcoming_UnknownSegment(t *testing.T) {
	env := newTestEnvironment(t, Options{})
	err := RunUpcoming(context.Background(), env, NewPrinter(&bytes.Buffer{}, FormatPretty), Position{Segment: "Z"})
	assert.ErrorIs(t, err, domain.ErrUnknownSegment)
}

func TestRunFollow_Backward(t *testing.T) {
	env := newTestEnvironment(t, Options{})
	var buf bytes.Buffer

	pos := Position{Segment: "B", Offset: 100, Backward: true}
	require.NoError(t, RunFollow(context.Background(), env, NewPrinter(&buf, FormatJSON), pos, 1000))

	var doc EventsDocument
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.NotEmpty(t, doc.Events)
	for _, r := range doc.Events {
		assert.LessOrEqual(t, r.Span, 1000.0)
	}
}

func TestRunAnnotations(t *testing.T) {
	env := newTestEnvironment(t, Options{})
	var buf bytes.Buffer

	require.NoError(t, RunAnnotations(context.Background(), env, NewPrinter(&buf, FormatJSON), "B"))

	var doc EventsDocument
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Contains(t, kinds(doc.Events), domain.KindSpeedLimit)
}

func TestRunDescribe(t *testing.T) {
	env := newTestEnvironment(t, Options{})

	t.Run("One junction", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RunDescribe(env, NewPrinter(&buf, FormatPretty), "J1"))
		out := buf.String()
		assert.Contains(t, out, "JUNCTION")
		assert.Regexp(t, `J1\s+\S*\s*North\s+\S*\s*<<<\s+\S*\s*South`, out)
	})

	t.Run("All junctions as JSON", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RunDescribe(env, NewPrinter(&buf, FormatJSON), ""))

		var got []domain.JunctionDescription
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, domain.SegmentID("North"), got[0].Left)
		assert.Equal(t, domain.SegmentID("South"), got[0].Right)
	})

	t.Run("Unknown junction", func(t *testing.T) {
		err := RunDescribe(env, NewPrinter(&bytes.Buffer{}, FormatPretty), "nope")
		assert.ErrorIs(t, err, domain.ErrUnknownJunction)
	})
}

func TestRunGraph(t *testing.T) {
	env := newTestEnvironment(t, Options{})
	var buf bytes.Buffer

	require.NoError(t, RunGraph(context.Background(), env, &buf, "A", 1000))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "graph LR\n"))
	assert.Contains(t, out, "class s_A current")
	assert.Contains(t, out, "class s_B visited")
	assert.NotContains(t, out, "class s_C visited")
}

func TestRunValidate(t *testing.T) {
	env := newTestEnvironment(t, Options{})
	assert.NoError(t, RunValidate(env, ""))
	assert.ErrorIs(t, RunValidate(env, "Z"), domain.ErrUnknownSegment)
}

func TestJSONDevice(t *testing.T) {
	env := newTestEnvironment(t, Options{})
	var buf bytes.Buffer

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, RunPush(ctx, env, NewJSONDevice(&buf), Position{Segment: "A"}, 200, 10*time.Millisecond))

	var seen []string
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var update struct {
			Kind string `json:"kind"`
		}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &update))
		seen = append(seen, update.Kind)
	}
	assert.Subset(t, seen, []string{"speed", "grade", "junction", "consist_limit"})
}

func TestRunPush_BadPosition(t *testing.T) {
	env := newTestEnvironment(t, Options{})
	err := RunPush(context.Background(), env, NewJSONDevice(&bytes.Buffer{}), Position{Segment: "Z"}, 200, time.Second)
	assert.ErrorIs(t, err, domain.ErrUnknownSegment)
}

func TestNewHandler(t *testing.T) {
	env := newTestEnvironment(t, Options{})
	srv := httptest.NewServer(NewHandler(env, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/upcoming?segment=A")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body bytes.Buffer
	_, err = body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), "lookahead_segments_indexed_total")
}

func TestRunServe_GracefulShutdown(t *testing.T) {
	env := newTestEnvironment(t, Options{})

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunServe(ctx, env, ServeOptions{Port: port}) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://127.0.0.1:" + strconv.Itoa(port) + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRunMCP_UnknownTransport(t *testing.T) {
	env := newTestEnvironment(t, Options{})
	assert.ErrorContains(t, RunMCP(context.Background(), env, "carrier-pigeon", 0), "unknown transport")
}
