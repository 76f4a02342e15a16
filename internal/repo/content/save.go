package content

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/sir_venger/ingest_lite/internal/models"
)

// Save записывает (или обновляет) запись о контенте. Дата первого появления не перезаписывается.
func (s *PGStore) Save(ctx context.Context, c models.Content) error {
	c.Hash = normalizeHash(c.Hash)
	if c.Hash == "" {
		return fmt.Errorf("%w: hash is empty", models.ErrBadRequest)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	sqlStr, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Insert(contentTable).
		Columns("hash", "extension", "media_type", "file_name", "size", "created_at").
		Values(c.Hash, c.Extension, c.MediaType, c.Name, c.Size, c.CreatedAt).
		Suffix(`
					ON CONFLICT (hash) DO UPDATE
					SET extension  = EXCLUDED.extension,
						media_type = EXCLUDED.media_type,
						file_name  = EXCLUDED.file_name,
						size       = EXCLUDED.size`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert sql: %w", err)
	}

	// Выполнение UPSERT'а
	if _, err := s.pool.Exec(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("exec upsert: %w", err)
	}

	return nil
}
