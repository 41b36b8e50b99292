package mcp

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/aretw0/lookahead"
	"github.com/aretw0/lookahead/internal/logging"
	"github.com/aretw0/lookahead/internal/presentation/graph"
	"github.com/aretw0/lookahead/internal/presentation/timeline"
	"github.com/aretw0/lookahead/pkg/domain"
	"github.com/aretw0/lookahead/pkg/ports"
	"github.com/go-chi/cors"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// GraphURI is the resource holding the Mermaid diagram of the network.
const GraphURI = "network://graph"

// UpcomingArgs are the arguments of the upcoming_events tool.
type UpcomingArgs struct {
	Segment  string  `json:"segment"`
	Offset   float64 `json:"offset"`
	Backward bool    `json:"backward"`
	MaxCount int     `json:"max_count"`
	MaxSpan  float64 `json:"max_span"`
	Speed    float64 `json:"speed"`
}

// UpcomingResponse lists display rows ahead of a position.
type UpcomingResponse struct {
	Segment string         `json:"segment" jsonschema_description:"Segment the query started on"`
	Rows    []timeline.Row `json:"rows" jsonschema_description:"Upcoming events, nearest first, spans rounded to 10 m"`
}

// JunctionArgs are the arguments of the describe_junction tool.
type JunctionArgs struct {
	Junction string `json:"junction"`
}

// JunctionResponse describes a junction.
type JunctionResponse struct {
	domain.JunctionDescription
	Text string `json:"text" jsonschema_description:"Left and right branch names around the selection arrow"`
}

// Engine defines what the MCP server needs. *lookahead.Engine implements it.
type Engine interface {
	Upcoming(ctx context.Context, q lookahead.Query) (iter.Seq[domain.Event], error)
	DescribeJunction(j *domain.Junction) domain.JunctionDescription
	DescribeJunctionByID(id string) (domain.JunctionDescription, error)
	Network() ports.Network
	JunctionState() ports.JunctionState
}

// Server wraps the lookahead Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		engine:    engine,
		logger:    logger,
		mcpServer: server.NewMCPServer("lookahead-mcp", lookahead.Version),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: cors.AllowAll().Handler(mux),
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		// Create a timeout context for the graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	// TOOL: upcoming_events
	upcomingTool := mcp.NewTool("upcoming_events",
		mcp.WithDescription("List the segment boundaries, junctions, speed limits and grade changes ahead of a position on the network."),
		mcp.WithString("segment", mcp.Required(), mcp.Description("Segment ID the traveller is on")),
		mcp.WithNumber("offset", mcp.Description("Distance from the segment's first end, in meters")),
		mcp.WithBoolean("backward", mcp.Description("Travel towards the first end instead of the last end")),
		mcp.WithNumber("max_count", mcp.Description("Maximum number of events (default 10)")),
		mcp.WithNumber("max_span", mcp.Description("Maximum look-ahead distance in meters (default 5000)")),
		mcp.WithNumber("speed", mcp.Description("Current speed in km/h, used to color speed limits")),
		mcp.WithOutputSchema[UpcomingResponse](),
	)
	s.mcpServer.AddTool(upcomingTool, mcp.NewStructuredToolHandler(s.handleUpcoming))

	// TOOL: describe_junction
	junctionTool := mcp.NewTool("describe_junction",
		mcp.WithDescription("Name both branches of a junction and tell which one is selected."),
		mcp.WithString("junction", mcp.Required(), mcp.Description("Junction ID")),
		mcp.WithOutputSchema[JunctionResponse](),
	)
	s.mcpServer.AddTool(junctionTool, mcp.NewStructuredToolHandler(s.handleDescribeJunction))
}

func (s *Server) handleUpcoming(ctx context.Context, request mcp.CallToolRequest, args UpcomingArgs) (UpcomingResponse, error) {
	seq, err := s.engine.Upcoming(ctx, lookahead.Query{
		Segment:  domain.SegmentID(args.Segment),
		Offset:   args.Offset,
		Backward: args.Backward,
		MaxCount: args.MaxCount,
		MaxSpan:  args.MaxSpan,
	})
	if err != nil {
		s.logger.Warn("MCP upcoming_events rejected", "segment", args.Segment, "err", err)
		return UpcomingResponse{}, fmt.Errorf("upcoming failed: %w", err)
	}

	rows := timeline.Format(slices.Collect(seq), timeline.Options{
		CurrentSpeed: args.Speed,
		Describe:     s.engine.DescribeJunction,
	})
	return UpcomingResponse{Segment: args.Segment, Rows: rows}, nil
}

func (s *Server) handleDescribeJunction(ctx context.Context, request mcp.CallToolRequest, args JunctionArgs) (JunctionResponse, error) {
	d, err := s.engine.DescribeJunctionByID(args.Junction)
	if err != nil {
		return JunctionResponse{}, fmt.Errorf("describe failed: %w", err)
	}
	return JunctionResponse{JunctionDescription: d, Text: d.String()}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: network://graph
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Network Diagram",
		mcp.WithMIMEType("text/vnd.mermaid"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		text, err := s.mermaid()
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphURI,
				MIMEType: "text/vnd.mermaid",
				Text:     text,
			},
		}, nil
	})
}

func (s *Server) mermaid() (string, error) {
	network := s.engine.Network()
	inspector, ok := network.(ports.Inspector)
	if !ok {
		return "", fmt.Errorf("network cannot be listed")
	}
	return graph.GenerateMermaid(inspector, network.IsGeneric, &graph.GraphOverlay{State: s.engine.JunctionState()}), nil
}
