package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/sir_venger/ingest_lite/internal/models"
)

// Get возвращает запись о контенте по его хешу.
func (s *PGStore) Get(ctx context.Context, hash string) (models.Content, error) {
	hash = normalizeHash(hash)
	if hash == "" {
		return models.Content{}, fmt.Errorf("%w: hash is empty", models.ErrBadRequest)
	}

	sqlStr, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select("extension", "media_type", "file_name", "size", "created_at").
		From(contentTable).
		Where(sq.Eq{"hash": hash}).
		Limit(1).
		ToSql()
	if err != nil {
		return models.Content{}, fmt.Errorf("build select: %w", err)
	}

	var (
		ext, mediaType, name string
		size                 int64
		createdAt            time.Time
	)
	if err = s.pool.QueryRow(ctx, sqlStr, args...).Scan(&ext, &mediaType, &name, &size, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Content{}, models.ErrNotFound
		}
		return models.Content{}, fmt.Errorf("scan content row: %w", err)
	}

	return models.Content{
		Hash:      hash,
		Extension: ext,
		MediaType: mediaType,
		Name:      name,
		Size:      size,
		CreatedAt: createdAt,
	}, nil
}

// normalizeHash приводит hex-дайджест к каноническому виду.
func normalizeHash(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}
