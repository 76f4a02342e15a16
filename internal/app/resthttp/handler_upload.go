package resthttp

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sir_venger/ingest_lite/internal/models"
	"github.com/sir_venger/ingest_lite/pkg/httperrors"
	"github.com/sir_venger/ingest_lite/pkg/ingestproto"
)

// upload принимает multipart-запрос и полностью делегирует приём координатору.
// Временные байты удаляются внутри Ingest, наружу уходят только метаданные и хеши.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = &idleBody{
		ReadCloser: r.Body,
		rc:         http.NewResponseController(w),
		idle:       s.Cfg.BodyIdleTimeout,
	}

	mr, err := r.MultipartReader()
	if err != nil {
		httperrors.Write(w, fmt.Errorf("%w: %w", models.ErrBadRequest, err))
		return
	}

	res, err := s.Ingest.Ingest(r.Context(), mr)
	if err != nil {
		s.Log.Warn("upload rejected", "err", err)
		httperrors.Write(w, err)
		return
	}

	now := time.Now().UTC()
	for _, d := range res.Files {
		if err := s.Registry.Save(r.Context(), models.ContentFromDescriptor(d, now)); err != nil {
			s.Log.Error("content registry save failed", "hash", d.Hash, "err", err)
			httperrors.Write(w, err)
			return
		}
	}

	s.Log.Info("upload accepted", "files", len(res.Files), "fields", len(res.Fields))
	writeJSON(w, http.StatusOK, toUploadResponse(res))
}

func toUploadResponse(res models.IngestResult) ingestproto.UploadResponse {
	out := ingestproto.UploadResponse{
		Success: ingestproto.UploadSuccess,
		Data:    make(map[string]string, len(res.Fields)),
		Files:   make(map[string]ingestproto.FileDescriptor, len(res.Files)),
	}
	for k, v := range res.Fields {
		out.Data[k] = v
	}
	for k, d := range res.Files {
		out.Files[k] = ingestproto.FileDescriptor{
			Key:       d.Key,
			Name:      d.Name,
			Encoding:  d.Encoding,
			MediaType: d.MediaType,
			Extension: d.Extension,
			Hash:      d.Hash,
			Size:      d.Size,
		}
	}

	return out
}

// idleBody продлевает дедлайн чтения соединения перед каждым Read, поэтому
// клиент, замолчавший посреди загрузки, отваливается по таймауту.
type idleBody struct {
	io.ReadCloser
	rc   *http.ResponseController
	idle time.Duration
}

func (b *idleBody) Read(p []byte) (int, error) {
	if b.idle > 0 {
		// httptest.ResponseRecorder дедлайны не поддерживает
		_ = b.rc.SetReadDeadline(time.Now().Add(b.idle))
	}
	return b.ReadCloser.Read(p)
}
