package resthttp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sir_venger/ingest_lite/internal/config"
	"github.com/sir_venger/ingest_lite/internal/ingest"
	"github.com/sir_venger/ingest_lite/internal/logging"
	"github.com/sir_venger/ingest_lite/internal/repo/content"
	"github.com/sir_venger/ingest_lite/pkg/ingestproto"
	"github.com/spf13/afero"
)

type Server struct {
	Ingest   *ingest.Coordinator
	Staging  *ingest.Store
	Hasher   *ingest.Hasher
	Registry content.Registry
	Cfg      *config.Config
	Log      *log.Logger

	fetch *http.Client
}

// NewServer конструктор. logger может быть nil: тогда логгер строится из конфига.
func NewServer(cfg *config.Config, logger *log.Logger) (http.Handler, *Server, error) {
	if logger == nil {
		logger = logging.New(os.Stderr, cfg.LogLevel)
	}

	srv, err := buildServer(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	return srv.routes(), srv, nil
}

func buildServer(cfg *config.Config, logger *log.Logger) (*Server, error) {
	store, err := ingest.NewStore(afero.NewOsFs(), cfg.StagingDir)
	if err != nil {
		return nil, err
	}

	hasher, err := ingest.NewHasher(cfg.HashAlgorithm)
	if err != nil {
		return nil, err
	}

	registry, err := content.Open(context.Background(), cfg.MetaDSN)
	if err != nil {
		return nil, fmt.Errorf("open content registry: %w", err)
	}

	coordinator := ingest.New(ingest.Deps{
		Store:      store,
		Hasher:     hasher,
		Extensions: ingest.NewExtensions(cfg.Extensions),
		Limits: ingest.Limits{
			MaxFileSize:  cfg.MaxFileSize,
			MaxFieldSize: cfg.MaxFieldSize,
		},
		ChunkSize: cfg.TapChunkSize,
		Log:       logger.With("component", "ingest"),
	})

	return &Server{
		Ingest:   coordinator,
		Staging:  store,
		Hasher:   hasher,
		Registry: registry,
		Cfg:      cfg,
		Log:      logger,
		fetch:    &http.Client{},
	}, nil
}

// routes регистрирует публичные и защищённые сессией обработчики.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.HandleFunc(ingestproto.PathPing, s.ping)
	r.Get(ingestproto.PathHealth, s.health)

	r.Group(func(pr chi.Router) {
		pr.Use(s.requireSession)
		pr.Post(ingestproto.PathUpload, s.upload)
		pr.Post(ingestproto.PathDetail, s.detail)
		pr.Post(ingestproto.PathRetrieve, s.retrieve)
		pr.Post(ingestproto.PathGC, s.gcOnce)
	})

	return r
}

// Close освобождает ресурсы реестра.
func (s *Server) Close() {
	if s.Registry != nil {
		s.Registry.Close()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
