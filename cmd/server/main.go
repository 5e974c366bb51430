package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"interaction-timeline/internal/interaction"
	"interaction-timeline/internal/platform/config"
	"interaction-timeline/internal/platform/logger"
	"interaction-timeline/internal/platform/metrics"
	"interaction-timeline/internal/playback"
	"interaction-timeline/internal/script"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()
	cfg := config.LoadServer()

	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Error("open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	var engineOpts []interaction.Option
	if cfg.StrictReferences {
		engineOpts = append(engineOpts, interaction.WithStrictReferences())
	}
	repo := playback.NewEngineRepositoryWithStore(store, playback.ScriptCompiler(engineOpts...))
	svc := playback.NewService(repo, playback.Options{
		DefaultFPS: cfg.DefaultFPS,
		Workers:    cfg.RenderWorkers,
		MaxFrames:  cfg.MaxRenderFrames,
	})

	if cfg.SequencesDir != "" {
		preload(log, svc, cfg.SequencesDir)
	}

	met := metrics.New()
	h := playback.NewHandler(svc, log, met)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Method(http.MethodGet, "/metrics", met.Handler(func() { met.SetSequences(repo.SequenceCount()) }))
	h.Mount(r)

	addr := ":" + cfg.Port
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", cfg.Port,
		"store", cfg.StoreDriver,
		"default_fps", cfg.DefaultFPS,
		"render_workers", cfg.RenderWorkers,
		"strict_references", cfg.StrictReferences,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

func openStore(cfg config.Server) (playback.Store, func(), error) {
	switch cfg.StoreDriver {
	case "memory", "":
		return playback.NewInMemoryStore(), func() {}, nil
	case "sqlite":
		s, err := playback.OpenSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	}
	return nil, nil, errors.New("unknown STORE_DRIVER " + cfg.StoreDriver)
}

// preload registers the scripts in dir. Broken scripts are logged and skipped.
func preload(log *slog.Logger, svc *playback.Service, dir string) {
	docs, err := script.LoadDir(dir)
	if err != nil {
		log.Error("load sequences dir", "dir", dir, "error", err)
		return
	}
	sums, err := svc.Preload(docs)
	if err != nil {
		log.Error("preload sequences", "dir", dir, "error", err)
	}
	for _, sum := range sums {
		for _, d := range sum.Diagnostics {
			log.Warn("sequence diagnostic",
				"sequence_id", sum.ID,
				"kind", d.Kind,
				"element", d.Element,
				"detail", d.Message)
		}
	}
	log.Info("sequences preloaded", "dir", dir, "count", len(sums))
}
