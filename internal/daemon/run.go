package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"filmscout/internal/config"
	"filmscout/internal/health"
	"filmscout/internal/logging"
	"filmscout/internal/mcpserver"
	"filmscout/internal/metrics"
	"filmscout/internal/tmdb"
	"filmscout/internal/tools"
	"filmscout/internal/toolserver"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	// Stdio serves MCP on stdin/stdout instead of running the HTTP server.
	Stdio bool
}

// Runtime is the object graph shared by the HTTP and stdio modes.
type Runtime struct {
	Logger  *slog.Logger
	Client  *tmdb.Client
	Tools   *tools.Service
	Health  *health.Recorder
	Metrics *metrics.Metrics
	MCP     *mcp.Server
}

// Build wires the catalog client, tool service, statistics, and MCP server
// from configuration.
func Build(cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	m := metrics.New(true)
	client, err := tmdb.NewFromConfig(cfg, tmdb.WithLogger(logger), tmdb.WithObserver(m))
	if err != nil {
		return nil, err
	}
	recorder := health.NewRecorder()
	service := tools.New(client,
		tools.WithLogger(logger),
		tools.WithRecorder(recorder),
		tools.WithRecorder(m),
	)
	return &Runtime{
		Logger:  logger,
		Client:  client,
		Tools:   service,
		Health:  recorder,
		Metrics: m,
		MCP:     mcpserver.New(service, logger),
	}, nil
}

// Close releases the client's idle connections.
func (r *Runtime) Close() {
	if r != nil && r.Client != nil {
		r.Client.Close()
	}
}

// Run starts the filmscout daemon and blocks until SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := newLogger(cfg, opts)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	rt, err := Build(cfg, logger)
	if err != nil {
		logger.Error("build runtime", logging.Error(err))
		return err
	}
	defer rt.Close()

	if opts.Stdio {
		logger.Info("serving MCP on stdio")
		if err := rt.MCP.Run(signalCtx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("mcp stdio: %w", err)
		}
		return nil
	}

	server, err := toolserver.New(cfg, toolserver.Dependencies{
		Tools:   rt.Tools,
		Health:  rt.Health,
		Metrics: rt.Metrics.Handler(),
		MCP:     rt.MCP,
	}, logger)
	if err != nil {
		return err
	}
	d, err := New(cfg, server, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check server.bind and whether another daemon holds "+d.lockPath),
		)
		return err
	}
	defer d.Stop()

	<-signalCtx.Done()
	logger.Info("filmscout daemon shutting down")
	return nil
}

func newLogger(cfg *config.Config, opts Options) (*slog.Logger, error) {
	level := cfg.Logging.Level
	if strings.TrimSpace(opts.LogLevel) != "" {
		level = opts.LogLevel
	}
	loggerOpts := logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		Development: opts.Development,
	}
	if dir := strings.TrimSpace(cfg.Paths.LogDir); dir != "" {
		loggerOpts.FilePath = filepath.Join(dir, logging.LogFileName)
	}
	return logging.New(loggerOpts)
}
