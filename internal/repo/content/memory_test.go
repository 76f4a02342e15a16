package content

import (
	"context"
	"testing"
	"time"

	"github.com/sir_venger/ingest_lite/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SaveGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, "f572d396fae9206628714fb2ce00f72e94f2258f")
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, s.Save(ctx, models.Content{
		Hash:      "F572D396FAE9206628714FB2CE00F72E94F2258F",
		Extension: "txt",
		MediaType: "text/plain",
		Name:      "hello.txt",
		Size:      6,
	}))

	got, err := s.Get(ctx, " f572d396fae9206628714fb2ce00f72e94f2258f ")
	require.NoError(t, err)
	assert.Equal(t, "f572d396fae9206628714fb2ce00f72e94f2258f", got.Hash)
	assert.Equal(t, "txt", got.Extension)
	assert.Equal(t, int64(6), got.Size)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestMemoryStore_KeepsFirstSeen(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	first := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, s.Save(ctx, models.Content{Hash: "abc", Name: "a.bin", CreatedAt: first}))
	require.NoError(t, s.Save(ctx, models.Content{Hash: "abc", Name: "b.bin"}))

	got, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "b.bin", got.Name)
	assert.Equal(t, first, got.CreatedAt)
}

func TestMemoryStore_EmptyHash(t *testing.T) {
	s := NewMemoryStore()
	assert.ErrorIs(t, s.Save(context.Background(), models.Content{}), models.ErrBadRequest)
	_, err := s.Get(context.Background(), "  ")
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestOpen_MemoryDSN(t *testing.T) {
	r, err := Open(context.Background(), "memory://")
	require.NoError(t, err)
	t.Cleanup(r.Close)
	assert.IsType(t, &MemoryStore{}, r)
}
