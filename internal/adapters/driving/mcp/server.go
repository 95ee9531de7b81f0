package mcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/vectorlite-cli/internal/logger"
)

const (
	serverName = "vectorlite"

	defaultVersion         = "dev"
	defaultShutdownTimeout = 5 * time.Second
)

const instructions = `vectorlite stores text documents as segments and searches them by embedding similarity.
Call "search" to find relevant segments. Newly ingested segments are only searchable once embedded:
call "drain" with increasing offsets while has_more is true, and "requeue" to retry failed entries.
Read vectorlite://groups for the available group names to filter by.`

// Options tunes the MCP server. The zero value is usable.
type Options struct {
	// Version is reported to clients during initialisation.
	Version string
	// ShutdownTimeout bounds how long RunHTTP waits for open sessions.
	ShutdownTimeout time.Duration
}

// Server exposes vectorlite's search and queue over MCP.
type Server struct {
	ports    *Ports
	opts     Options
	protocol *mcp.Server
}

// NewServer builds a server and registers its tools and resources.
func NewServer(ports *Ports, opts Options) (*Server, error) {
	if ports == nil {
		return nil, ErrMissingSearchService
	}
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	if opts.Version == "" {
		opts.Version = defaultVersion
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}

	s := &Server{
		ports: ports,
		opts:  opts,
		protocol: mcp.NewServer(
			&mcp.Implementation{Name: serverName, Version: opts.Version},
			&mcp.ServerOptions{Instructions: instructions},
		),
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves a single client over stdin and stdout until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.protocol.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns the streamable HTTP handler. Every request shares one server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.protocol
	}, nil)
}

// RunHTTP listens on addr and serves until ctx is done.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts HTTP connections on ln until ctx is done, then drains
// open requests for at most the shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(shutdownCtx)
	}()

	logger.Debug("mcp: serving HTTP on %s", ln.Addr())
	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if err := <-stopped; err != nil {
		logger.Warn("mcp: shutdown: %v", err)
	}
	return nil
}
