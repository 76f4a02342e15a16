package integration

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/sir_venger/ingest_lite/internal/config"
	"github.com/sir_venger/ingest_lite/pkg/ingestclient"
	"github.com/sir_venger/ingest_lite/pkg/ingestproto"
)

func sha1Hex(b []byte) string {
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}

func TestUploadThenDetail(t *testing.T) {
	ts, srv := startService(t)
	c := ingestclient.New(ts.URL, testToken)
	ctx := context.Background()

	big := bytes.Repeat([]byte("0123456789abcdef"), 16<<10) // 256 KiB
	res, err := c.Upload(ctx, ingestclient.UploadRequest{
		Fields: map[string]string{"owner": "alice"},
		Files: []ingestclient.File{
			{Key: "file1", Name: "hello.txt", MediaType: "text/plain", Reader: strings.NewReader("hello\n")},
			{Key: "file2", Name: "big.bin", Reader: bytes.NewReader(big)},
			{Key: "file3", Name: "empty.json", MediaType: "application/json", Reader: strings.NewReader("")},
		},
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if res.Success != ingestproto.UploadSuccess {
		t.Fatalf("unexpected success message %q", res.Success)
	}
	if res.Data["owner"] != "alice" {
		t.Fatalf("field not echoed: %v", res.Data)
	}
	if len(res.Files) != 3 {
		t.Fatalf("want 3 files, got %d", len(res.Files))
	}

	hello := res.Files["file1"]
	if hello.Hash != "f572d396fae9206628714fb2ce00f72e94f2258f" || hello.Extension != "txt" || hello.Size != 6 {
		t.Fatalf("unexpected descriptor for file1: %+v", hello)
	}
	if got := res.Files["file2"].Hash; got != sha1Hex(big) {
		t.Fatalf("file2 hash mismatch: %s", got)
	}
	if got := res.Files["file3"]; got.Hash != sha1Hex(nil) || got.Extension != "json" {
		t.Fatalf("unexpected descriptor for file3: %+v", got)
	}

	d, err := c.Detail(ctx, hello.Hash)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if d.Name != "hello.txt" || d.Extension != "txt" || d.Size != 6 {
		t.Fatalf("unexpected detail: %+v", d)
	}

	u, err := srv.Staging.Usage()
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if u.Files != 0 {
		t.Fatalf("staging must be empty after upload, got %d files", u.Files)
	}
}

func TestDetailUnknownHash(t *testing.T) {
	ts, _ := startService(t)
	c := ingestclient.New(ts.URL, testToken)

	_, err := c.Detail(context.Background(), strings.Repeat("0", 40))
	var svcErr *ingestclient.Error
	if !errors.As(err, &svcErr) || svcErr.Status != http.StatusNotFound {
		t.Fatalf("want 404, got %v", err)
	}
}

func TestUploadRequiresSession(t *testing.T) {
	ts, _ := startService(t)
	c := ingestclient.New(ts.URL, "wrong")

	_, err := c.Upload(context.Background(), ingestclient.UploadRequest{
		Files: []ingestclient.File{{Key: "f", Name: "a.txt", Reader: strings.NewReader("a")}},
	})
	var svcErr *ingestclient.Error
	if !errors.As(err, &svcErr) || svcErr.Status != http.StatusUnauthorized {
		t.Fatalf("want 401, got %v", err)
	}
}

func TestTruncatedUploadNamesPartAndCleansUp(t *testing.T) {
	ts, srv := startService(t)

	const boundary = "trunc0boundary"
	body := "--" + boundary + "\r\n" +
		"Content-Disposition: form-data; name=\"file1\"; filename=\"a.bin\"\r\n" +
		"Content-Type: application/octet-stream\r\n\r\n" +
		"0123456789"

	req, err := http.NewRequest(http.MethodPost, ts.URL+ingestproto.PathUpload, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "multipart/form-data; boundary="+boundary)
	req.Header.Set(ingestproto.HeaderToken, testToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("want 400, got %s: %s", resp.Status, b)
	}
	var e ingestproto.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e.Key != "file1" {
		t.Fatalf("error must name the failed part, got %+v", e)
	}

	u, err := srv.Staging.Usage()
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if u.Files != 0 {
		t.Fatalf("staging must be empty after failed upload, got %d files", u.Files)
	}
}

func TestStalledUploadTimesOut(t *testing.T) {
	ts, srv := startService(t, func(c *config.Config) {
		c.BodyIdleTimeout = 300 * time.Millisecond
	})

	const boundary = "stalled0boundary"
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })
	go func() {
		// отдаём заголовок части и начало файла, после чего замолкаем
		_, _ = io.WriteString(pw, "--"+boundary+"\r\n"+
			"Content-Disposition: form-data; name=\"file1\"; filename=\"a.bin\"\r\n"+
			"Content-Type: application/octet-stream\r\n\r\n"+
			"0123456789")
	}()

	req, err := http.NewRequest(http.MethodPost, ts.URL+ingestproto.PathUpload, pr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "multipart/form-data; boundary="+boundary)
	req.Header.Set(ingestproto.HeaderToken, testToken)

	done := make(chan struct{})
	go func() {
		defer close(done)
		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			_ = resp.Body.Close()
		}
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("stalled upload was never cut off")
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		u, err := srv.Staging.Usage()
		if err != nil {
			t.Fatalf("usage: %v", err)
		}
		if u.Files == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("staging still holds %d files after timeout", u.Files)
		}
		time.Sleep(20 * time.Millisecond)
	}
}
