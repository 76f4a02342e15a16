package ingest

import (
	"context"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/sir_venger/ingest_lite/internal/models"
)

const (
	AlgorithmSHA1   = "sha1"
	AlgorithmSHA256 = "sha256"
)

// Hasher считает контентный адрес потока инкрементально, без буферизации файла.
type Hasher struct {
	algorithm string
	newHash   func() hash.Hash
}

// NewHasher создаёт хешер по имени алгоритма; пустое имя означает sha1.
func NewHasher(algorithm string) (*Hasher, error) {
	algorithm = strings.ToLower(strings.TrimSpace(algorithm))
	switch algorithm {
	case "", AlgorithmSHA1:
		return &Hasher{algorithm: AlgorithmSHA1, newHash: sha1.New}, nil
	case AlgorithmSHA256:
		return &Hasher{algorithm: AlgorithmSHA256, newHash: sha256.New}, nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm %q", algorithm)
	}
}

// Algorithm возвращает имя используемого алгоритма.
func (h *Hasher) Algorithm() string {
	return h.algorithm
}

// Sum дочитывает r до конца и возвращает hex-дайджест.
// Если поток оборвался, дайджест не возвращается вовсе.
func (h *Hasher) Sum(ctx context.Context, r io.Reader) (string, error) {
	d := h.newHash()
	if _, err := io.Copy(d, ctxReader{ctx: ctx, r: r}); err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrHash, err)
	}

	return hex.EncodeToString(d.Sum(nil)), nil
}

// ctxReader прерывает чтение после отмены контекста.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
