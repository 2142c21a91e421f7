// Package mcpserver exposes the document operations as Model Context Protocol
// tools over stdio or streamable HTTP.
package mcpserver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dgallion1/pdfnav/internal/config"
	"github.com/dgallion1/pdfnav/internal/navigator"
)

// Version is the MCP server version.
const Version = "0.1.0"

// Server is the MCP server for pdfnav.
type Server struct {
	server *mcp.Server
	log    *slog.Logger
	cfg    config.Config
	rand   navigator.Rand
}

// Option customizes a Server.
type Option func(*Server)

// WithRand sets the randomness source for random peeks and image picks.
func WithRand(r navigator.Rand) Option {
	return func(s *Server) { s.rand = r }
}

// NewServer creates an MCP server with every pdf_* tool registered.
func NewServer(log *slog.Logger, cfg config.Config, opts ...Option) *Server {
	impl := &mcp.Implementation{
		Name:    "pdfnav",
		Version: Version,
	}
	s := &Server{
		server: mcp.NewServer(impl, nil),
		log:    log,
		cfg:    cfg,
		rand:   navigator.DefaultRand(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	return s
}

// MCP returns the underlying SDK server.
func (s *Server) MCP() *mcp.Server {
	return s.server
}

// Run serves over stdio until the context is cancelled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns the streamable HTTP handler.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is done.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background()) //nolint:errcheck
	}()

	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// readPDF loads the document named by a tool's path argument.
func (s *Server) readPDF(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	limit := s.cfg.MaxUploadBytes
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%s exceeds max size (%d bytes)", path, limit)
	}
	return data, nil
}

// logged wraps a tool handler with a one-line summary log.
func logged[In, Out any](log *slog.Logger, name string, h mcp.ToolHandlerFor[In, Out]) mcp.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, req *mcp.CallToolRequest, in In) (*mcp.CallToolResult, Out, error) {
		start := time.Now()
		res, out, err := h(ctx, req, in)
		attrs := []any{"tool", name, "duration_ms", time.Since(start).Milliseconds()}
		if err != nil {
			log.Warn("tool call failed", append(attrs, "error", err)...)
		} else {
			log.Info("tool call", attrs...)
		}
		return res, out, err
	}
}
