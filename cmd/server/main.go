package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gyaneshwarpardhi/mro/internal/api"
	"github.com/gyaneshwarpardhi/mro/internal/config"
	"github.com/gyaneshwarpardhi/mro/internal/engine"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	path := flag.String("hierarchy", "configs/hierarchy.yaml", "Path to hierarchy YAML file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// ── Load hierarchy ────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*path)
	if err != nil {
		slog.Error("failed to load hierarchy", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	if err := config.Validate(cfg); err != nil {
		slog.Error("hierarchy validation failed", "err", err)
		os.Exit(1)
	}

	// ── Build initial snapshot ────────────────────────────────────────────────
	snap, err := engine.NewSnapshot(cfg)
	if err != nil {
		slog.Error("failed to build hierarchy", "err", err)
		os.Exit(1)
	}
	if _, failed := snap.Graph.LinearizeAll(); len(failed) > 0 {
		// Served anyway: requests for these classes get a 409.
		for _, f := range failed {
			slog.Warn("class has no consistent order", "class", f.Class, "err", f.Err)
		}
	}
	slog.Info("hierarchy loaded", "classes", snap.Graph.ClassCount(), "root", snap.Graph.Root(), "version", snap.Version)

	// ── Engine ────────────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := engine.New(ctx, snap, cfg.Engine)

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.HierarchyConfig) {
		s, err := eng.Apply(newCfg)
		if err != nil {
			slog.Warn("hot-reload skipped", "err", err)
			return
		}
		slog.Info("hierarchy hot-reloaded", "classes", s.Graph.ClassCount(), "version", s.Version)
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("hierarchy watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.New(eng, loader)
	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	cancel() // stop worker pool
	eng.Shutdown()
	slog.Info("goodbye")
}
