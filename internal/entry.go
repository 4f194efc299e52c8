// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/starford/brainboard/internal/backend"
	"github.com/starford/brainboard/internal/graph"
	"github.com/starford/brainboard/internal/inbox"
	"github.com/starford/brainboard/internal/ingest"
	"github.com/starford/brainboard/internal/mcpserver"
	"github.com/starford/brainboard/internal/models"
	"github.com/starford/brainboard/internal/querycache"
)

// graphConcurrency bounds the note detail requests issued while building the
// graph.
const graphConcurrency = 4

// App holds the services shared by every command.
type App struct {
	Config *Config
	Logger *slog.Logger
	// API is the backend client, behind the read cache when it is enabled.
	API backend.API
	// Cache is nil when caching is disabled.
	Cache *querycache.Cache
}

// New builds the application from the given options.
func New(opts ...Option) (*App, error) {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := app.logger
	if logger == nil {
		out := app.logOutput
		if out == nil {
			out = os.Stderr
		}
		// Structured JSON logs go to stderr; stdout carries command output.
		logger = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
		slog.SetDefault(logger)
	}

	logger.Debug("Configuration loaded",
		slog.String("backend_url", cfg.Backend.BaseURL),
		slog.String("backend_timeout", cfg.Backend.Timeout.String()),
		slog.Int("cache_size", cfg.Cache.Size),
		slog.String("inbox_path", cfg.Inbox.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	client := backend.NewClient(backend.Config{
		BaseURL:    cfg.Backend.BaseURL,
		Timeout:    cfg.Backend.Timeout,
		HTTPClient: app.httpClient,
		Logger:     logger,
	})

	a := &App{Config: cfg, Logger: logger, API: client}
	if cfg.Cache.Enabled() {
		a.Cache = querycache.New(cfg.Cache.Size, cfg.Cache.TTL)
		a.API = querycache.NewClient(client, a.Cache)
	}
	return a, nil
}

// Pipeline returns the upload pipeline. summarize forces the summarize step
// on; otherwise the inbox setting decides.
func (a *App) Pipeline(summarize bool) *ingest.Pipeline {
	return ingest.New(a.API,
		ingest.WithSummary(summarize || a.Config.Inbox.Summarize),
		ingest.WithLogger(a.Logger))
}

// Graph loads every note on the first limit notes and builds the link graph.
func (a *App) Graph(ctx context.Context, limit int) (graph.Graph, error) {
	return graph.Load(ctx, a.API, models.ListNotesParams{Limit: limit}, graphConcurrency)
}

// Syncer opens the configured inbox, creating the directory if needed.
func (a *App) Syncer(opts ...inbox.Option) (*inbox.Syncer, error) {
	if err := os.MkdirAll(a.Config.Inbox.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create inbox dir: %w", err)
	}
	src, err := inbox.Open(a.Config.Inbox.Path)
	if err != nil {
		return nil, fmt.Errorf("open inbox: %w", err)
	}
	opts = append([]inbox.Option{
		inbox.WithRate(a.Config.Inbox.Rate),
		inbox.WithLogger(a.Logger),
	}, opts...)
	return inbox.NewSyncer(src, a.Pipeline(false), opts...), nil
}

// Watch ingests inbox files until ctx is cancelled or the process receives
// SIGINT or SIGTERM.
func (a *App) Watch(ctx context.Context, opts ...inbox.Option) error {
	syncer, err := a.Syncer(opts...)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.Logger.Info("Watching inbox", slog.String("path", a.Config.Inbox.Path))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return syncer.Watch(gCtx)
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			a.Logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
			cancel()
		case <-gCtx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		a.Logger.Error("Watcher error", slog.String("error", err.Error()))
		return err
	}

	a.Logger.Info("Watcher stopped")
	return nil
}

// ServeMCP serves the MCP tools on stdin/stdout until the client disconnects
// or the process is signalled.
func (a *App) ServeMCP() error {
	a.Logger.Info("Starting MCP server on stdio")
	return mcpserver.New(a.API, a.Logger).ServeStdio()
}
