package repo

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Команды, которые понимает Migrate.
const (
	CommandUp      = "up"
	CommandDown    = "down"
	CommandStatus  = "status"
	CommandVersion = "version"
)

// ApplyMigrations накатывает все миграции реестра контента.
func ApplyMigrations(ctx context.Context, dsn string) error {
	return Migrate(ctx, dsn, CommandUp)
}

// Migrate выполняет goose-команду над схемой реестра, используя встроенные SQL файлы.
func Migrate(ctx context.Context, dsn, command string) error {
	run, err := gooseCommand(command)
	if err != nil {
		return err
	}
	if strings.TrimSpace(dsn) == "" {
		return fmt.Errorf("meta dsn is empty")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping registry: %w", err)
	}

	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return run(ctx, db)
}

func gooseCommand(command string) (func(context.Context, *sql.DB) error, error) {
	switch strings.ToLower(strings.TrimSpace(command)) {
	case "", CommandUp:
		return func(ctx context.Context, db *sql.DB) error { return goose.UpContext(ctx, db, migrationsDir) }, nil
	case CommandDown:
		return func(ctx context.Context, db *sql.DB) error { return goose.DownContext(ctx, db, migrationsDir) }, nil
	case CommandStatus:
		return func(ctx context.Context, db *sql.DB) error { return goose.StatusContext(ctx, db, migrationsDir) }, nil
	case CommandVersion:
		return func(ctx context.Context, db *sql.DB) error { return goose.VersionContext(ctx, db, migrationsDir) }, nil
	default:
		return nil, fmt.Errorf("unknown migrate command %q", command)
	}
}
