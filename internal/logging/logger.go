// Package logging собирает логгер сервиса поверх charmbracelet/log.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

const prefix = "ingest"

// New создаёт логгер с уровнем из конфига; неизвестный уровень считается info.
func New(w io.Writer, level string) *log.Logger {
	if w == nil {
		w = os.Stderr
	}

	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = log.InfoLevel
	}

	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		ReportCaller:    lvl == log.DebugLevel,
		Prefix:          prefix,
		Level:           lvl,
	})
}

// Discard возвращает логгер, который ничего не пишет. Удобно для тестов.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
