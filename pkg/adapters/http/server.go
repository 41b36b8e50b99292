package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"math"
	"net/http"
	"slices"
	"strconv"

	"github.com/aretw0/lookahead"
	"github.com/aretw0/lookahead/internal/presentation/graph"
	"github.com/aretw0/lookahead/internal/presentation/timeline"
	"github.com/aretw0/lookahead/pkg/domain"
	"github.com/aretw0/lookahead/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine defines the lookahead operations exposed over HTTP. *lookahead.Engine implements it.
type Engine interface {
	Follow(ctx context.Context, id domain.SegmentID, offset, distance float64) (iter.Seq[domain.Event], error)
	Upcoming(ctx context.Context, q lookahead.Query) (iter.Seq[domain.Event], error)
	Annotations(ctx context.Context, id domain.SegmentID) ([]domain.Event, error)
	DescribeJunction(j *domain.Junction) domain.JunctionDescription
	DescribeJunctionByID(id string) (domain.JunctionDescription, error)
	InvalidateAll(ctx context.Context) error
	Network() ports.Network
	JunctionState() ports.JunctionState
}

// Server serves an Engine.
type Server struct {
	Engine   Engine
	Streams  *StreamManager
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
	// AllowedOrigins feeds the CORS middleware. Defaults to "*".
	AllowedOrigins []string
}

// Option configures a Server.
type Option func(*Server)

// WithStreams shares a StreamManager, typically one also fed by the engine's OnInvalidate hook.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithGatherer exposes the given metrics on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.Gatherer = g
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// WithAllowedOrigins restricts CORS.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.AllowedOrigins = origins
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:         engine,
		Gatherer:       prometheus.DefaultGatherer,
		Logger:         slog.Default(),
		AllowedOrigins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.Logger)
	}
	return s.Routes()
}

// Routes builds the router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{RequestIDHeader},
	}))
	r.Use(s.logRequests)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/follow", s.GetFollow)
	r.Get("/upcoming", s.GetUpcoming)
	r.Get("/segments/{id}/annotations", s.GetAnnotations)
	r.Get("/junctions/{id}", s.GetJunction)
	r.Get("/graph", s.GetGraph)
	r.Post("/invalidate", s.PostInvalidate)
	r.Get("/events", s.SubscribeEvents)
	r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	return r
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// EventsResponse carries raw or display events.
type EventsResponse struct {
	Events []domain.Record `json:"events"`
	Rows   []timeline.Row  `json:"rows,omitempty"`
	Count  int             `json:"count"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "lookahead-http",
		"version": lookahead.Version,
	})
}

// GetFollow handles GET /follow?segment=&offset=&distance=
func (s *Server) GetFollow(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offset, err1 := floatParam(q.Get("offset"), 0)
	distance, err2 := floatParam(q.Get("distance"), lookahead.DefaultMaxSpan)
	if err := errors.Join(err1, err2); err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}

	seq, err := s.Engine.Follow(r.Context(), domain.SegmentID(q.Get("segment")), offset, distance)
	if err != nil {
		s.fail(w, r, statusOf(err), err)
		return
	}
	events := slices.Collect(seq)
	writeJSON(w, http.StatusOK, EventsResponse{Events: domain.ToRecords(events), Count: len(events)})
}

// GetUpcoming handles GET /upcoming?segment=&offset=&backward=&max_count=&max_span=&speed=
func (s *Server) GetUpcoming(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offset, err1 := floatParam(q.Get("offset"), 0)
	maxSpan, err2 := floatParam(q.Get("max_span"), 0)
	speed, err3 := floatParam(q.Get("speed"), 0)
	maxCount, err4 := intParam(q.Get("max_count"), 0)
	backward, err5 := boolParam(q.Get("backward"))
	if err := errors.Join(err1, err2, err3, err4, err5); err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}

	seq, err := s.Engine.Upcoming(r.Context(), lookahead.Query{
		Segment:  domain.SegmentID(q.Get("segment")),
		Offset:   offset,
		Backward: backward,
		MaxCount: maxCount,
		MaxSpan:  maxSpan,
	})
	if err != nil {
		s.fail(w, r, statusOf(err), err)
		return
	}
	events := slices.Collect(seq)
	rows := timeline.Format(events, timeline.Options{CurrentSpeed: speed, Describe: s.Engine.DescribeJunction})
	writeJSON(w, http.StatusOK, EventsResponse{Events: domain.ToRecords(events), Rows: rows, Count: len(events)})
}

// GetAnnotations handles GET /segments/{id}/annotations
func (s *Server) GetAnnotations(w http.ResponseWriter, r *http.Request) {
	events, err := s.Engine.Annotations(r.Context(), domain.SegmentID(chi.URLParam(r, "id")))
	if err != nil {
		s.fail(w, r, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, EventsResponse{Events: domain.ToRecords(events), Count: len(events)})
}

// JunctionResponse describes a junction.
type JunctionResponse struct {
	domain.JunctionDescription
	Text string `json:"text"`
}

// GetJunction handles GET /junctions/{id}
func (s *Server) GetJunction(w http.ResponseWriter, r *http.Request) {
	d, err := s.Engine.DescribeJunctionByID(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, JunctionResponse{JunctionDescription: d, Text: d.String()})
}

// GetGraph handles GET /graph. It returns a Mermaid flowchart.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	network := s.Engine.Network()
	inspector, ok := network.(ports.Inspector)
	if !ok {
		s.fail(w, r, http.StatusNotImplemented, fmt.Errorf("network cannot be listed"))
		return
	}

	overlay := &graph.GraphOverlay{State: s.Engine.JunctionState()}
	if current := r.URL.Query().Get("segment"); current != "" {
		overlay.CurrentSegment = domain.SegmentID(current)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(graph.GenerateMermaid(inspector, network.IsGeneric, overlay)))
}

// PostInvalidate handles POST /invalidate.
// Subscribers of /events hear about it through StreamManager.Hooks.
func (s *Server) PostInvalidate(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.InvalidateAll(r.Context()); err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.Logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Debug("SSE client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.Logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", RequestIDFrom(r.Context()),
		)
	})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	id := RequestIDFrom(r.Context())
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "path", r.URL.Path, "err", err, "request_id", id)
	} else {
		s.Logger.Warn("request rejected", "path", r.URL.Path, "err", err, "request_id", id)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), RequestID: id})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownSegment), errors.Is(err, domain.ErrUnknownJunction):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrOffsetOutOfRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

// -- Helpers --

func floatParam(raw string, def float64) (float64, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) {
		return 0, fmt.Errorf("invalid number %q", raw)
	}
	return v, nil
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", raw)
	}
	return v, nil
}

func boolParam(raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid boolean %q", raw)
	}
	return v, nil
}
