// Package toolserver serves the catalog tools, health statistics, Prometheus
// metrics, and the MCP endpoint over HTTP.
package toolserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"filmscout/internal/config"
	"filmscout/internal/health"
	"filmscout/internal/logging"
	"filmscout/internal/mcpserver"
	"filmscout/internal/services"
	"filmscout/internal/tools"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 5 * time.Second
	serviceName     = "filmscout tool server"
)

// Dependencies are the collaborators the server routes to. Metrics and MCP
// are optional.
type Dependencies struct {
	Tools   *tools.Service
	Health  *health.Recorder
	Metrics http.Handler
	MCP     *mcp.Server
}

// Server is the HTTP front of the tool service.
type Server struct {
	bind    string
	mcpPath string
	logger  *slog.Logger
	deps    Dependencies
	handler http.Handler

	listener net.Listener
	server   *http.Server
}

// New builds the routing table. The MCP endpoint is mounted only when enabled
// in cfg and an MCP server is supplied.
func New(cfg *config.Config, deps Dependencies, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("tool server: config is required")
	}
	if deps.Tools == nil || deps.Health == nil {
		return nil, fmt.Errorf("tool server: tools and health recorder are required")
	}
	bind := strings.TrimSpace(cfg.Server.Bind)
	if bind == "" {
		return nil, fmt.Errorf("tool server: server.bind is empty")
	}

	srv := &Server{
		bind:   bind,
		logger: logging.NewComponentLogger(logger, "tool-server"),
		deps:   deps,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", srv.handleRoot)
	mux.Handle("/tools/", srv.authMiddleware(cfg.Server.Token, http.HandlerFunc(srv.handleTool)))
	mux.HandleFunc("/health", srv.handleHealth)
	mux.HandleFunc("/health/metrics", srv.handleHealthMetrics)
	if deps.Metrics != nil {
		mux.Handle("/metrics", deps.Metrics)
	}
	if cfg.Server.MCPEnabled && deps.MCP != nil {
		mount := strings.Trim(cfg.Server.MCPPath, "/")
		if mount == "" {
			mount = "mcp"
		}
		srv.mcpPath = "/" + mount
		streamable := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
			return deps.MCP
		}, nil)
		mux.Handle(srv.mcpPath, srv.authMiddleware(cfg.Server.Token, streamable))
	}
	srv.handler = requestIDMiddleware(mux)

	srv.server = &http.Server{
		Handler:           srv.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// Handler exposes the full middleware chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("tool server listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("tool server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("tool server listening",
		logging.String("address", listener.Addr().String()),
		logging.Bool("mcp", s.mcpPath != ""),
	)
	return nil
}

// Addr reports the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

type rootResponse struct {
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.writeError(w, http.StatusNotFound, tools.ToolError{Kind: services.KindNotFound, Message: "no such endpoint"})
		return
	}
	if r.Method != http.MethodGet {
		s.writeMethodNotAllowed(w)
		return
	}
	endpoints := map[string]string{
		"health":         "GET /health",
		"health_metrics": "GET /health/metrics",
	}
	for _, name := range tools.Names() {
		endpoints[name] = "POST /tools/" + name
	}
	if s.deps.Metrics != nil {
		endpoints["metrics"] = "GET /metrics"
	}
	if s.mcpPath != "" {
		endpoints["mcp"] = s.mcpPath
	}
	s.writeJSON(w, http.StatusOK, rootResponse{
		Service:   serviceName,
		Version:   mcpserver.Version,
		Endpoints: endpoints,
	})
}

func (s *Server) handleTool(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeMethodNotAllowed(w)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/tools/")
	if !slices.Contains(tools.Names(), name) {
		s.writeError(w, http.StatusNotFound, tools.ToolError{Kind: services.KindNotFound, Message: fmt.Sprintf("unknown tool %q", name)})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusRequestEntityTooLarge, tools.ToolError{Kind: services.KindValidation, Message: "request body too large"})
		return
	}

	result, err := s.deps.Tools.Call(r.Context(), name, body)
	if err != nil {
		envelope := tools.Envelope(err)
		s.writeError(w, services.HTTPStatus(envelope.Kind), envelope)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeMethodNotAllowed(w)
		return
	}
	s.writeJSON(w, http.StatusOK, s.deps.Health.Snapshot())
}

func (s *Server) handleHealthMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeMethodNotAllowed(w)
		return
	}
	s.writeJSON(w, http.StatusOK, s.deps.Health.Raw())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, envelope tools.ToolError) {
	s.writeJSON(w, status, envelope)
}

func (s *Server) writeMethodNotAllowed(w http.ResponseWriter) {
	s.writeError(w, http.StatusMethodNotAllowed, tools.ToolError{Kind: services.KindValidation, Message: "method not allowed"})
}
