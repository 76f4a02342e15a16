package integration

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sir_venger/ingest_lite/pkg/ingestclient"
	"github.com/sir_venger/ingest_lite/pkg/ingestproto"
)

func TestManualGCRemovesStaleStagingFiles(t *testing.T) {
	ts, srv := startService(t)

	stale := filepath.Join(srv.Staging.Dir(), "ingest-stale")
	if err := os.WriteFile(stale, []byte("left over"), 0o600); err != nil {
		t.Fatalf("write stale: %v", err)
	}
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	var health ingestproto.HealthResponse
	getJSON(t, ts.URL+ingestproto.PathHealth, &health)
	if health.StagedFiles != 1 || health.Algorithm != "sha1" {
		t.Fatalf("unexpected health before gc: %+v", health)
	}

	req, _ := http.NewRequest(http.MethodPost, ts.URL+ingestproto.PathGC, nil)
	req.Header.Set(ingestproto.HeaderToken, testToken)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("gc: %v", err)
	}
	defer resp.Body.Close()

	var gc ingestproto.GCResponse
	if err := json.NewDecoder(resp.Body).Decode(&gc); err != nil {
		t.Fatalf("decode gc: %v", err)
	}
	if gc.Removed != 1 {
		t.Fatalf("want 1 removed, got %d", gc.Removed)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale file still exists: %v", err)
	}

	getJSON(t, ts.URL+ingestproto.PathHealth, &health)
	if health.StagedFiles != 0 {
		t.Fatalf("unexpected health after gc: %+v", health)
	}
}

func TestRetrieveHashesRemoteContent(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/hello" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("hello\n"))
	}))
	t.Cleanup(upstream.Close)

	ts, _ := startService(t)
	c := ingestclient.New(ts.URL, testToken)

	res, err := c.Retrieve(context.Background(), upstream.URL+"/hello", "")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if res.Hash != "f572d396fae9206628714fb2ce00f72e94f2258f" || res.Extension != ingestproto.DefaultExtension {
		t.Fatalf("unexpected retrieve response: %+v", res)
	}

	_, err = c.Retrieve(context.Background(), upstream.URL+"/missing", "txt")
	var svcErr *ingestclient.Error
	if !errors.As(err, &svcErr) || svcErr.Status != http.StatusBadGateway {
		t.Fatalf("want 502 for missing upstream, got %v", err)
	}
}

func TestPing(t *testing.T) {
	ts, _ := startService(t)

	var out map[string]string
	getJSON(t, ts.URL+ingestproto.PathPing, &out)
	if out["pong"] != "pong" {
		t.Fatalf("unexpected ping body: %v", out)
	}
}

func getJSON(t *testing.T, url string, out any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get %s: %s", url, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
}
