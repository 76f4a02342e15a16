package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("content not found")
	ErrUnauthorized = errors.New("invalid session")
	ErrBadRequest   = errors.New("bad request")
	ErrTransport    = errors.New("transport error")
	ErrStaging      = errors.New("staging error")
	ErrHash         = errors.New("hash error")
	ErrTooLarge     = errors.New("file too large")
	ErrUpstream     = errors.New("upstream fetch failed")
)

// IngestionError: единственная ошибка, которую координатор отдаёт наружу.
// Key пуст, если запрос сломался до появления первой файловой части.
type IngestionError struct {
	Key   string
	Cause error
}

func (e *IngestionError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("ingest: %v", e.Cause)
	}
	return fmt.Sprintf("ingest part %q: %v", e.Key, e.Cause)
}

func (e *IngestionError) Unwrap() error {
	return e.Cause
}
