package httperrors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sir_venger/ingest_lite/internal/models"
	"github.com/sir_venger/ingest_lite/pkg/ingestproto"
)

// StatusInsufficientStorage: staging не смог выделить или записать место.
const StatusInsufficientStorage = http.StatusInsufficientStorage

// Status сопоставляет ошибку HTTP-статусу.
func Status(err error) int {
	switch {
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, models.ErrStaging):
		return StatusInsufficientStorage
	case errors.Is(err, models.ErrTransport), errors.Is(err, models.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Write отдаёт ошибку JSON-телом; для ошибок приёма указывает ключ упавшей части.
func Write(w http.ResponseWriter, err error) {
	body := ingestproto.ErrorResponse{Error: err.Error()}
	var ie *models.IngestionError
	if errors.As(err, &ie) {
		body.Key = ie.Key
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(Status(err))
	_ = json.NewEncoder(w).Encode(body)
}
