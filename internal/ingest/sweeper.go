package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

// Usage: агрегированная статистика по каталогу временного хранилища.
type Usage struct {
	Files int
	Bytes int64
}

// Usage проходит по каталогу и суммирует размеры временных файлов.
func (s *Store) Usage() (Usage, error) {
	var u Usage
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return Usage{}, err
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), stagingPrefix) {
			continue
		}
		u.Files++
		u.Bytes += e.Size()
	}

	return u, nil
}

// Sweep удаляет временные файлы старше olderThan, оставшиеся после падений процесса.
// Файлы, в которые сейчас идёт запись, не трогаются.
func (s *Store) Sweep(olderThan time.Duration) (int, error) {
	now := time.Now()
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), stagingPrefix) {
			continue
		}
		if now.Sub(e.ModTime()) < olderThan {
			continue
		}

		loc := Location(filepath.Join(s.dir, e.Name()))
		if s.isOpen(loc) {
			continue
		}
		if err := s.fs.Remove(string(loc)); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("sweep %s: %w", loc, err)
		}
		removed++
	}

	return removed, nil
}

// StartSweeper стартует периодическую очистку хранилища и возвращает функцию остановки.
func StartSweeper(store *Store, ttl, every time.Duration, logger *log.Logger) func() {
	if every <= 0 || ttl <= 0 {
		return func() {}
	}

	ticker := time.NewTicker(every)
	stop := make(chan struct{})
	var once sync.Once
	go func() {
		for {
			select {
			case <-ticker.C:
				n, err := store.Sweep(ttl)
				if err != nil {
					logger.Warn("staging sweep failed", "err", err)
					continue
				}
				if n > 0 {
					logger.Info("staging sweep", "removed", n)
				}
			case <-stop:
				ticker.Stop()
				return
			}
		}
	}()

	return func() {
		once.Do(func() {
			close(stop)
		})
	}
}
