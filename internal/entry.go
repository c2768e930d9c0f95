// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/hashdb/internal/api"
	"github.com/starford/hashdb/internal/index"
	"github.com/starford/hashdb/internal/mcpserver"
	"github.com/starford/hashdb/internal/recordservice"
	"github.com/starford/hashdb/internal/scheduler"
	"github.com/starford/hashdb/internal/sse"
	"github.com/starford/hashdb/internal/storage"
	"github.com/starford/hashdb/internal/store"
)

const shutdownTimeout = 10 * time.Second

// Run starts the HTTP server with the given options and blocks until ctx
// is cancelled or a shutdown signal arrives. The HTTP server is drained
// before the scheduler writes its final save.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := newLogger(cfg.App, app.logOut)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("database_path", cfg.Database.Path),
		slog.String("index_path", cfg.Index.Path),
		slog.Duration("save_interval", cfg.Database.SaveInterval),
		slog.String("log_level", cfg.App.LogLevel.String()))

	st, err := openStore(cfg.Database, logger)
	if err != nil {
		return err
	}

	db, err := openIndex(cfg.Index.Path, st, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc := recordservice.NewService(st, db, broker, logger)
	sched := newScheduler(cfg.Database, st, logger, scheduler.WithOnSave(broker.DatabaseSaved))

	limiter := api.NewLimiter(cfg.Ingest.RatePerSecond, cfg.Ingest.Burst)
	apiRouter := api.NewRouter(svc, limiter, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"status":"ok","records":%d}`, st.Len())
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// The scheduler outlives gCtx: it is stopped only once no request can
	// add records any more.
	schedCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()

	g.Go(func() error {
		return sched.Run(schedCtx)
	})

	if cfg.Watch.Enabled {
		g.Go(func() error {
			if err := storage.Watch(gCtx, st, logger, broker.DatabaseModified); err != nil {
				logger.Warn("database watcher unavailable", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		defer stopScheduler()

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

		// Ends open event streams so Shutdown does not wait on them.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully", slog.Int("records", st.Len()))
	return nil
}

// RunMCP serves the database over MCP on stdin/stdout until the client
// disconnects or ctx is cancelled, then saves once more if needed.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := newLogger(cfg.App, app.logOut)
	slog.SetDefault(logger)

	st, err := openStore(cfg.Database, logger)
	if err != nil {
		return err
	}

	db, err := openIndex(cfg.Index.Path, st, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := recordservice.NewService(st, db, nil, logger)
	sched := newScheduler(cfg.Database, st, logger)
	srv := mcpserver.New(svc, app.version)

	schedCtx, stopScheduler := context.WithCancel(ctx)
	defer stopScheduler()

	var g errgroup.Group
	g.Go(func() error {
		return sched.Run(schedCtx)
	})
	g.Go(func() error {
		defer stopScheduler()
		logger.Info("Serving MCP on stdio", slog.String("database_path", st.Location()))
		return srv.ServeStdio()
	})

	return g.Wait()
}

// openStore loads the database file, or starts an empty store at its
// location when the file does not exist and creation is allowed. The file
// itself is only written by the first save.
func openStore(cfg DatabaseConfig, logger *slog.Logger) (*store.Store, error) {
	st, err := storage.Load(cfg.Path)
	switch {
	case err == nil:
		logger.Info("Database loaded",
			slog.String("path", cfg.Path),
			slog.Int("records", st.Len()),
			slog.String("checksum", st.SavedChecksum()))
		return st, nil
	case errors.Is(err, fs.ErrNotExist) && cfg.CreateIfMissing:
		logger.Warn("Database file not found, starting empty", slog.String("path", cfg.Path))
		return store.New(cfg.Path), nil
	default:
		return nil, fmt.Errorf("load database: %w", err)
	}
}

// openIndex opens the SQLite index and rebuilds it from st. A failed
// rebuild is not fatal: the pages are served from the store.
func openIndex(path string, st *store.Store, logger *slog.Logger) (*index.DB, error) {
	db, err := index.Open(path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	start := time.Now()
	if err := db.Rebuild(st); err != nil {
		logger.Warn("index rebuild failed", slog.String("error", err.Error()))
	} else {
		logger.Info("Index rebuilt",
			slog.Int("records", st.Len()),
			slog.Duration("took", time.Since(start)))
	}
	return db, nil
}

func newScheduler(cfg DatabaseConfig, st *store.Store, logger *slog.Logger, opts ...scheduler.Option) *scheduler.Scheduler {
	opts = append([]scheduler.Option{
		scheduler.WithInterval(cfg.SaveInterval),
		scheduler.WithLogger(logger),
	}, opts...)
	return scheduler.New(st, func() error { return storage.Save(st) }, opts...)
}
