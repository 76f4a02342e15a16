package resthttp

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sir_venger/ingest_lite/internal/models"
	"github.com/sir_venger/ingest_lite/pkg/httperrors"
	"github.com/sir_venger/ingest_lite/pkg/ingestproto"
)

// requireSession пропускает запрос, только если токен совпал с настроенным.
// Пустой токен в конфиге отключает проверку.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		want := s.Cfg.SessionToken
		if want == "" {
			next.ServeHTTP(w, r)
			return
		}

		got := r.Header.Get(ingestproto.HeaderToken)
		if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			httperrors.Write(w, models.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// logRequests пишет строку лога на каждый запрос.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		s.Log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"took", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
