package resthttp

import (
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/sir_venger/ingest_lite/pkg/ingestproto"
)

// ping: простейшая проверка живости.
func (s *Server) ping(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"pong": "pong"})
}

// health возвращает агрегированную статистику по временному хранилищу.
// Ненулевой объём в простое означает, что где-то течёт очистка.
func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	u, err := s.Staging.Usage()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ingestproto.HealthResponse{
		OK:          true,
		Algorithm:   s.Hasher.Algorithm(),
		StagedFiles: u.Files,
		StagedBytes: u.Bytes,
		StagedHuman: humanize.IBytes(uint64(u.Bytes)),
	})
}

// gcOnce вручную запускает очистку устаревших временных файлов.
func (s *Server) gcOnce(w http.ResponseWriter, _ *http.Request) {
	n, err := s.Staging.Sweep(s.Cfg.StagingTTL)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.Log.Info("manual staging sweep", "removed", n)
	writeJSON(w, http.StatusOK, ingestproto.GCResponse{Removed: n})
}
