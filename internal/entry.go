// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/granola-sync/internal/api"
	"github.com/starford/granola-sync/internal/apperr"
	"github.com/starford/granola-sync/internal/credentials"
	"github.com/starford/granola-sync/internal/granola"
	"github.com/starford/granola-sync/internal/ledger"
	"github.com/starford/granola-sync/internal/mcpserver"
	"github.com/starford/granola-sync/internal/prosemirror"
	"github.com/starford/granola-sync/internal/scheduler"
	"github.com/starford/granola-sync/internal/sse"
	"github.com/starford/granola-sync/internal/storage"
	"github.com/starford/granola-sync/internal/syncservice"
	"github.com/starford/granola-sync/internal/watch"
)

// components are the collaborators shared by every command.
type components struct {
	store  *storage.FS
	ledger *ledger.DB
	broker *sse.Broker
	sync   *syncservice.Service
}

func (c *components) Close() {
	if c.broker != nil {
		c.broker.Close()
	}
	if c.ledger != nil {
		_ = c.ledger.Close()
	}
}

func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

// build wires storage, the ledger, the Granola client and the sync service.
func build(cfg *Config, logger *slog.Logger) (*components, error) {
	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := ledger.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init ledger: %w", err)
	}
	c := &components{store: store, ledger: db, broker: sse.NewBroker(0)}

	client := granola.NewClient(granola.Options{
		BaseURL:       cfg.Granola.BaseURL,
		ClientVersion: cfg.Granola.ClientVersion,
		UserAgent:     cfg.Granola.UserAgent,
		PageSize:      cfg.Granola.PageSize,
		MaxPages:      cfg.Granola.MaxPages,
		Timeout:       cfg.Granola.Timeout,
	})

	svc, err := syncservice.New(syncservice.Deps{
		Store:       store,
		Credentials: newResolver(cfg, store, logger),
		API:         client,
		Ledger:      db,
		Notifier:    c.broker,
		Logger:      logger,
	}, cfg.SyncOptions())
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("init sync service: %w", err)
	}
	c.sync = svc
	return c, nil
}

func newResolver(cfg *Config, store storage.Provider, logger *slog.Logger) credentials.Resolver {
	if cfg.Credentials.Source == CredentialSourceLoopback {
		return &credentials.LoopbackResolver{
			Loopback: &credentials.Loopback{
				Address:    cfg.Credentials.Loopback.Address,
				SourcePath: cfg.Credentials.Loopback.SourcePath,
				Logger:     logger,
			},
		}
	}
	return &credentials.FileResolver{Store: store, Path: cfg.Credentials.TokenPath}
}

// Run starts the long-running service: HTTP API, scheduler and credential watcher.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(cfg, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("sync_mode", cfg.Sync.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	c, err := build(cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	interval := time.Duration(0)
	if cfg.Sync.Enabled {
		interval = cfg.Sync.Interval
	}
	sched := scheduler.New(interval, func(ctx context.Context) error {
		_, err := c.sync.Sync(ctx)
		if errors.Is(err, apperr.ErrConflict) {
			return nil
		}
		return err
	}, logger)

	apiRouter := api.NewRouter(c.sync, cfg.Auth.AuthEnabled(), cfg.Auth.Token, c.broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := c.ledger.Ping(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sched.Run(gCtx)
	})
	if cfg.Sync.Enabled {
		sched.Trigger()
	}

	// Sync again whenever the credential file changes.
	if path := cfg.Credentials.WatchPath(cfg.Vault.Path); path != "" {
		g.Go(func() error {
			err := watch.File(gCtx, path, watch.DefaultDebounce, logger, func() {
				logger.Info("credentials changed, triggering sync", slog.String("path", path))
				sched.Trigger()
			})
			if err != nil {
				logger.Warn("credential watcher disabled", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// End SSE streams so Shutdown does not wait on them.
		c.broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group context so the scheduler and watcher exit
// once the HTTP server has stopped.
var errShutdown = errors.New("shutdown")

// SyncOnce runs a single sync and prints the report as JSON.
func SyncOnce(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	logger := newLogger(app.config, os.Stderr)
	slog.SetDefault(logger)

	c, err := build(app.config, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	report, err := c.sync.Sync(ctx)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	enc := json.NewEncoder(app.output)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// Render converts one notes tree read from r into Markdown.
func Render(r io.Reader, opts ...Option) error {
	app := newApplication(opts)
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	md, err := prosemirror.RenderJSON(data)
	if err != nil {
		return err
	}
	_, err = io.WriteString(app.output, md)
	return err
}

// RunMCP serves the MCP tools over stdio. Logs go to stderr.
func RunMCP(_ context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	logger := newLogger(app.config, os.Stderr)
	slog.SetDefault(logger)

	c, err := build(app.config, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	return mcpserver.New(c.sync, c.store, app.version).ServeStdio()
}
