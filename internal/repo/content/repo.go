// Package content хранит реестр принятого контента: hash → метаданные.
package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sir_venger/ingest_lite/internal/models"
)

const (
	contentTable = "content"
	memoryScheme = "memory://"
)

// Registry: реестр контента, который видят HTTP-обработчики.
type Registry interface {
	Get(ctx context.Context, hash string) (models.Content, error)
	Save(ctx context.Context, c models.Content) error
	Close()
}

// PGStore сохраняет записи о контенте в Postgres.
type PGStore struct {
	pool *pgxpool.Pool
}

var (
	_ Registry = (*PGStore)(nil)
	_ Registry = (*MemoryStore)(nil)
)

// NewPGStore создаёт пул подключений к Postgres.
func NewPGStore(ctx context.Context, dsn string) (*PGStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("meta dsn is empty")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	return &PGStore{
		pool: pool,
	}, nil
}

// Open выбирает реализацию по DSN: memory://: в памяти, иначе Postgres.
func Open(ctx context.Context, dsn string) (Registry, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" || strings.HasPrefix(dsn, memoryScheme) {
		return NewMemoryStore(), nil
	}

	return NewPGStore(ctx, dsn)
}

// Close освобождает подключения пула.
func (s *PGStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
