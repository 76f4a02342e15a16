package resthttp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sir_venger/ingest_lite/internal/models"
	"github.com/sir_venger/ingest_lite/pkg/httperrors"
	"github.com/sir_venger/ingest_lite/pkg/ingestproto"
)

// retrieve скачивает контент по URL и считает его хеш за один проход, ничего не сохраняя.
func (s *Server) retrieve(w http.ResponseWriter, r *http.Request) {
	var req ingestproto.RetrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.Write(w, fmt.Errorf("%w: %w", models.ErrBadRequest, err))
		return
	}

	u, err := url.Parse(strings.TrimSpace(req.Request))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		httperrors.Write(w, fmt.Errorf("%w: request must be an absolute http(s) url", models.ErrBadRequest))
		return
	}

	ext := strings.TrimPrefix(strings.TrimSpace(req.Extension), ".")
	if ext == "" {
		ext = ingestproto.DefaultExtension
	}

	hash, err := s.fetchAndHash(r, u.String())
	if err != nil {
		s.Log.Warn("retrieve failed", "url", u.Redacted(), "err", err)
		httperrors.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ingestproto.RetrieveResponse{
		Hash:      hash,
		Extension: ext,
	})
}

func (s *Server) fetchAndHash(r *http.Request, target string) (string, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrBadRequest, err)
	}

	resp, err := s.fetch.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s", models.ErrUpstream, resp.Status)
	}

	hash, err := s.Hasher.Sum(r.Context(), resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrUpstream, err)
	}

	return hash, nil
}
