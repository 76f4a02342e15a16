package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sir_venger/ingest_lite/internal/models"
	"github.com/spf13/afero"
)

const (
	stagingPrefix    = "ingest-"
	createAttempts   = 3
	stagingFileMode  = 0o600
	stagingDirectory = 0o755
)

// Location: непрозрачный идентификатор места во временном хранилище.
type Location string

// Store: временное хранилище байтов на время одного запроса.
// Содержимое живёт ровно до явного Delete.
type Store struct {
	fs  afero.Fs
	dir string

	mu   sync.Mutex
	open map[Location]afero.File
}

// NewStore создаёт хранилище в каталоге dir поверх fs.
func NewStore(fs afero.Fs, dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("staging dir is empty")
	}
	if err := fs.MkdirAll(dir, stagingDirectory); err != nil {
		return nil, fmt.Errorf("%w: create staging dir: %w", models.ErrStaging, err)
	}

	return &Store{
		fs:   fs,
		dir:  dir,
		open: make(map[Location]afero.File),
	}, nil
}

// Dir возвращает каталог хранилища.
func (s *Store) Dir() string {
	return s.dir
}

// Create выделяет новое уникальное место и открывает его на запись.
func (s *Store) Create() (Location, error) {
	var lastErr error
	for i := 0; i < createAttempts; i++ {
		loc := Location(filepath.Join(s.dir, stagingPrefix+uuid.NewString()))
		f, err := s.fs.OpenFile(string(loc), os.O_CREATE|os.O_EXCL|os.O_WRONLY, stagingFileMode)
		if err != nil {
			lastErr = err
			if errors.Is(err, os.ErrExist) {
				continue
			}
			break
		}

		s.mu.Lock()
		s.open[loc] = f
		s.mu.Unlock()

		return loc, nil
	}

	return "", fmt.Errorf("%w: allocate location: %w", models.ErrStaging, lastErr)
}

// Write дренирует r в ранее созданное место и закрывает его.
// Ошибки записи помечаются как ErrStaging, ошибки чтения r возвращаются как есть.
func (s *Store) Write(ctx context.Context, loc Location, r io.Reader) (int64, error) {
	s.mu.Lock()
	f, ok := s.open[loc]
	s.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("%w: location %s is not open for writing", models.ErrStaging, loc)
	}

	n, err := io.Copy(stagingWriter{f: f}, ctxReader{ctx: ctx, r: r})
	closeErr := s.release(loc)
	if err != nil {
		return n, err
	}
	if closeErr != nil {
		return n, fmt.Errorf("%w: close %s: %w", models.ErrStaging, loc, closeErr)
	}

	return n, nil
}

// Delete удаляет байты по месту. Повторный вызов и вызов для несуществующего места не ошибка.
func (s *Store) Delete(loc Location) error {
	if loc == "" {
		return nil
	}
	_ = s.release(loc)

	if err := s.fs.Remove(string(loc)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: delete %s: %w", models.ErrStaging, loc, err)
	}

	return nil
}

// Exists сообщает, лежат ли по месту какие-либо байты.
func (s *Store) Exists(loc Location) bool {
	ok, err := afero.Exists(s.fs, string(loc))
	return err == nil && ok
}

// isOpen проверяет, идёт ли сейчас запись в место.
func (s *Store) isOpen(loc Location) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.open[loc]
	return ok
}

// release закрывает открытый дескриптор, если он ещё есть.
func (s *Store) release(loc Location) error {
	s.mu.Lock()
	f, ok := s.open[loc]
	delete(s.open, loc)
	s.mu.Unlock()

	if !ok {
		return nil
	}
	return f.Close()
}

// stagingWriter помечает ошибки записи, чтобы отличать их от ошибок источника.
type stagingWriter struct {
	f afero.File
}

func (w stagingWriter) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	if err != nil {
		return n, fmt.Errorf("%w: write: %w", models.ErrStaging, err)
	}
	return n, nil
}
