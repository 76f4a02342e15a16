package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/sir_venger/ingest_lite/internal/config"
	"github.com/sir_venger/ingest_lite/internal/logging"
	"github.com/sir_venger/ingest_lite/internal/repo"
)

// main: migrate [up|down|status|version], по умолчанию up.
func main() {
	logger := logging.New(os.Stderr, "info")

	command := repo.CommandUp
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", "err", err)
	}

	dsn := strings.TrimSpace(cfg.MetaDSN)
	if dsn == "" {
		logger.Fatal("meta_dsn is not configured")
	}
	if strings.HasPrefix(dsn, "memory://") {
		logger.Info("memory content registry selected, nothing to migrate")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := repo.Migrate(ctx, dsn, command); err != nil {
		logger.Fatal("migrate", "command", command, "err", err)
	}

	logger.Info("migrate done", "command", command)
}
