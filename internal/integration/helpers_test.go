package integration

import (
	"net/http/httptest"
	"testing"

	"github.com/sir_venger/ingest_lite/internal/app/resthttp"
	"github.com/sir_venger/ingest_lite/internal/config"
	"github.com/sir_venger/ingest_lite/internal/logging"
)

const testToken = "integration-token"

// startService поднимает REST-сервис поверх временного каталога и реестра в памяти.
func startService(t *testing.T, tune ...func(*config.Config)) (*httptest.Server, *resthttp.Server) {
	t.Helper()

	cfg := config.Default()
	cfg.ListenAddr = ":0"
	cfg.MetaDSN = "memory://"
	cfg.StagingDir = t.TempDir()
	cfg.SessionToken = testToken
	for _, f := range tune {
		f(cfg)
	}

	handler, srv, err := resthttp.NewServer(cfg, logging.Discard())
	if err != nil {
		t.Fatalf("new rest server: %v", err)
	}
	t.Cleanup(srv.Close)

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts, srv
}
