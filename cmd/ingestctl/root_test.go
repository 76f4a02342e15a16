package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sir_venger/ingest_lite/internal/app/resthttp"
	"github.com/sir_venger/ingest_lite/internal/config"
	"github.com/sir_venger/ingest_lite/internal/logging"
	"github.com/sir_venger/ingest_lite/pkg/ingestproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T) string {
	t.Helper()
	cfg := config.Default()
	cfg.StagingDir = t.TempDir()
	cfg.SessionToken = "cli-token"

	handler, srv, err := resthttp.NewServer(cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts.URL
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestUploadThenDetail(t *testing.T) {
	url := startServer(t)
	path := filepath.Join(t.TempDir(), "hello.json")
	require.NoError(t, os.WriteFile(path, []byte("hello\n"), 0o644))

	out, err := run(t, "-s", url, "-t", "cli-token", "upload", "--progress=false", "-f", "owner=bob", path)
	require.NoError(t, err)

	var res ingestproto.UploadResponse
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "bob", res.Data["owner"])
	require.Contains(t, res.Files, "file1")
	assert.Equal(t, "f572d396fae9206628714fb2ce00f72e94f2258f", res.Files["file1"].Hash)
	assert.Equal(t, "json", res.Files["file1"].Extension)

	out, err = run(t, "-s", url, "-t", "cli-token", "detail", res.Files["file1"].Hash)
	require.NoError(t, err)
	var d ingestproto.ContentDetail
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.Equal(t, "hello.json", d.Name)
}

func TestUploadBadField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.bin")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))

	_, err := run(t, "-s", "http://127.0.0.1:1", "upload", "-f", "novalue", path)
	assert.ErrorContains(t, err, "key=value")
}
