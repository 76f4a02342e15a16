package ingestclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strings"

	"github.com/sir_venger/ingest_lite/pkg/ingestproto"
)

// File: один файл для отправки в multipart-запросе.
type File struct {
	Key       string
	Name      string
	MediaType string
	Reader    io.Reader
	Size      int64
}

// UploadRequest: поля и файлы одного запроса загрузки.
type UploadRequest struct {
	Fields map[string]string
	Files  []File
}

type Client interface {
	// Upload Отправить поля и файлы одним multipart-запросом
	Upload(ctx context.Context, req UploadRequest) (ingestproto.UploadResponse, error)
	// Detail Запросить запись реестра по хешу
	Detail(ctx context.Context, hash string) (ingestproto.ContentDetail, error)
	// Retrieve Попросить сервис скачать URL и посчитать хеш
	Retrieve(ctx context.Context, url, extension string) (ingestproto.RetrieveResponse, error)
}

// Error: неуспешный ответ сервиса.
type Error struct {
	Status  int
	Message string
	Key     string
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("ingest service: %d: %s (part %q)", e.Status, e.Message, e.Key)
	}
	return fmt.Sprintf("ingest service: %d: %s", e.Status, e.Message)
}

// Option настраивает клиент.
type Option func(*httpClient)

// WithHTTPClient подменяет транспорт.
func WithHTTPClient(c *http.Client) Option {
	return func(h *httpClient) { h.c = c }
}

// WithProgress включает индикатор отправки файлов в out.
func WithProgress(out io.Writer) Option {
	return func(h *httpClient) { h.progress = out }
}

type httpClient struct {
	c        *http.Client
	baseURL  string
	token    string
	progress io.Writer
}

// New создаёт HTTP-клиент к сервису по базовому URL.
func New(baseURL, token string, opts ...Option) Client {
	h := &httpClient{
		c:       &http.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
	for _, opt := range opts {
		opt(h)
	}

	return h
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Upload стримит тело через pipe: файлы не читаются в память целиком.
func (h *httpClient) Upload(ctx context.Context, req UploadRequest) (ingestproto.UploadResponse, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		_ = pw.CloseWithError(writeMultipart(mw, req, h.progress))
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+ingestproto.PathUpload, pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		return ingestproto.UploadResponse{}, err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	var out ingestproto.UploadResponse
	if err := h.do(httpReq, &out); err != nil {
		_ = pr.CloseWithError(err)
		return ingestproto.UploadResponse{}, err
	}

	return out, nil
}

func writeMultipart(mw *multipart.Writer, req UploadRequest, progress io.Writer) error {
	keys := make([]string, 0, len(req.Fields))
	for k := range req.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := mw.WriteField(k, req.Fields[k]); err != nil {
			return err
		}
	}

	for i, f := range req.Files {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(f.Key), quoteEscaper.Replace(f.Name)))
		mediaType := f.MediaType
		if mediaType == "" {
			mediaType = "application/octet-stream"
		}
		hdr.Set("Content-Type", mediaType)

		part, err := mw.CreatePart(hdr)
		if err != nil {
			return err
		}

		bar := newProgressBar(progress, fmt.Sprintf("Uploading %s %d/%d", f.Name, i+1, len(req.Files)), f.Size)
		_, err = io.Copy(part, progressReader{r: f.Reader, bar: bar})
		bar.done(err)
		if err != nil {
			return err
		}
	}

	return mw.Close()
}

// Detail запрашивает запись реестра по хешу.
func (h *httpClient) Detail(ctx context.Context, hash string) (ingestproto.ContentDetail, error) {
	var out ingestproto.ContentDetail
	err := h.postJSON(ctx, ingestproto.PathDetail, ingestproto.DetailRequest{Hash: hash}, &out)
	return out, err
}

// Retrieve просит сервис скачать URL и посчитать хеш.
func (h *httpClient) Retrieve(ctx context.Context, url, extension string) (ingestproto.RetrieveResponse, error) {
	var out ingestproto.RetrieveResponse
	err := h.postJSON(ctx, ingestproto.PathRetrieve, ingestproto.RetrieveRequest{Request: url, Extension: extension}, &out)
	return out, err
}

func (h *httpClient) postJSON(ctx context.Context, path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return h.do(req, out)
}

// do добавляет токен сессии, выполняет запрос и декодирует ответ.
func (h *httpClient) do(req *http.Request, out any) error {
	if h.token != "" {
		req.Header.Set(ingestproto.HeaderToken, h.token)
	}

	resp, err := h.c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		var e ingestproto.ErrorResponse
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(body, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(body))
		}
		return &Error{Status: resp.StatusCode, Message: e.Error, Key: e.Key}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
