package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sir_venger/ingest_lite/internal/app/resthttp"
	"github.com/sir_venger/ingest_lite/internal/config"
	"github.com/sir_venger/ingest_lite/internal/ingest"
	"github.com/sir_venger/ingest_lite/internal/logging"
)

// main инициализирует HTTP-сервис приёма контента и обеспечивает корректное завершение по сигналу.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "info").Fatal("load config", "err", err)
	}
	logger := logging.New(os.Stderr, cfg.LogLevel)

	handler, srv, err := resthttp.NewServer(cfg, logger)
	if err != nil {
		logger.Fatal("build server", "err", err)
	}
	defer srv.Close()

	// Фоновый GC подчищает временные файлы, оставшиеся после падений процесса.
	stopSweeper := ingest.StartSweeper(srv.Staging, cfg.StagingTTL, cfg.SweepInterval, logger)
	defer stopSweeper()

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Сценарий graceful shutdown при получении SIGTERM/SIGINT.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("shutdown error", "err", err)
		}
	}()

	logger.Info("listening",
		"addr", cfg.ListenAddr,
		"staging_dir", cfg.StagingDir,
		"hash", srv.Hasher.Algorithm(),
		"gc_ttl", cfg.StagingTTL,
		"gc_every", cfg.SweepInterval,
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("listen", "err", err)
		return
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("final shutdown error", "err", err)
	}
}
