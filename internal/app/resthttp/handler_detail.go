package resthttp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sir_venger/ingest_lite/internal/models"
	"github.com/sir_venger/ingest_lite/pkg/httperrors"
	"github.com/sir_venger/ingest_lite/pkg/ingestproto"
)

// detail отдаёт запись реестра по хешу ранее принятого контента.
func (s *Server) detail(w http.ResponseWriter, r *http.Request) {
	var req ingestproto.DetailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.Write(w, fmt.Errorf("%w: %w", models.ErrBadRequest, err))
		return
	}

	hash := strings.TrimSpace(req.Hash)
	if hash == "" {
		hash = strings.TrimSpace(req.SHA1)
	}
	if hash == "" {
		httperrors.Write(w, fmt.Errorf("%w: no hash passed", models.ErrBadRequest))
		return
	}

	c, err := s.Registry.Get(r.Context(), hash)
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ingestproto.ContentDetail{
		Hash:      c.Hash,
		Extension: c.Extension,
		MediaType: c.MediaType,
		Name:      c.Name,
		Size:      c.Size,
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
	})
}
