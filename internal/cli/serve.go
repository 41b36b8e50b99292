package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	httpAdapter "github.com/aretw0/lookahead/pkg/adapters/http"
	"github.com/aretw0/lookahead/pkg/adapters/mcp"
)

// ShutdownTimeout bounds how long outstanding requests may run after a stop signal.
const ShutdownTimeout = 5 * time.Second

// ServeOptions configures RunServe.
type ServeOptions struct {
	// Port overrides server.port when positive.
	Port           int
	AllowedOrigins []string
	// Watch reloads the network whenever its file changes.
	Watch bool
}

// NewHandler builds the HTTP API over the environment.
func NewHandler(env *Environment, origins []string) http.Handler {
	return httpAdapter.NewHandler(env.Engine,
		httpAdapter.WithStreams(env.Streams),
		httpAdapter.WithGatherer(env.Registry),
		httpAdapter.WithLogger(env.Logger),
		httpAdapter.WithAllowedOrigins(origins...),
	)
}

// RunServe serves the HTTP API until ctx is done, then shuts down gracefully.
func RunServe(ctx context.Context, env *Environment, opts ServeOptions) error {
	port := env.Settings.Server.Port
	if opts.Port > 0 {
		port = opts.Port
	}
	slog.SetDefault(env.Logger)

	if opts.Watch {
		if err := env.WatchNetwork(ctx, nil); err != nil {
			return fmt.Errorf("failed to watch network: %w", err)
		}
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(port)),
		Handler:           NewHandler(env, opts.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		env.Logger.Info("starting lookahead server", "address", srv.Addr, "network", env.Meta.Name)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		env.Logger.Info("shutdown signal received")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			env.Logger.Error("graceful shutdown did not complete", "timeout", ShutdownTimeout, "error", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("could not stop server: %w", err)
			}
		}
		env.Logger.Info("lookahead server stopped gracefully")
		return nil
	}
}

// RunMCP serves the MCP tools over stdio or SSE until ctx is done.
func RunMCP(ctx context.Context, env *Environment, transport string, port int) error {
	srv := mcp.NewServer(env.Engine, env.Logger)

	switch transport {
	case "stdio":
		env.Logger.Info("starting lookahead MCP server (stdio)")
		return srv.ServeStdio()
	case "sse":
		env.Logger.Info("starting lookahead MCP server (SSE)", "port", port)
		if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		env.Logger.Info("MCP server stopped gracefully")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (stdio, sse)", transport)
	}
}
