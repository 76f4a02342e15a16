package content

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sir_venger/ingest_lite/internal/models"
)

// MemoryStore хранит реестр только в оперативной памяти; удобно для тестов.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]models.Content
}

// NewMemoryStore создаёт пустое in-memory хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[string]models.Content{}}
}

// Get возвращает запись по хешу или ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, hash string) (models.Content, error) {
	hash = normalizeHash(hash)
	if hash == "" {
		return models.Content{}, fmt.Errorf("%w: hash is empty", models.ErrBadRequest)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.items[hash]
	if !ok {
		return models.Content{}, models.ErrNotFound
	}
	return c, nil
}

// Save записывает (или обновляет) запись, сохраняя дату первого появления.
func (s *MemoryStore) Save(_ context.Context, c models.Content) error {
	c.Hash = normalizeHash(c.Hash)
	if c.Hash == "" {
		return fmt.Errorf("%w: hash is empty", models.ErrBadRequest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.items[c.Hash]; ok && !prev.CreatedAt.IsZero() {
		c.CreatedAt = prev.CreatedAt
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	s.items[c.Hash] = c
	return nil
}

// Close ничего не делает: держать нечего.
func (s *MemoryStore) Close() {}
