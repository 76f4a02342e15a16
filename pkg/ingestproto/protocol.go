// Package ingestproto описывает протокол HTTP-взаимодействия с сервисом приёма контента.
package ingestproto

// Параметры REST-протокола.
const (
	HeaderToken = "X-Ingest-Token"

	PathPing     = "/ping"
	PathHealth   = "/health"
	PathUpload   = "/content/upload"
	PathDetail   = "/content/detail"
	PathRetrieve = "/content/retrieve"
	PathGC       = "/admin/gc"

	UploadSuccess    = "File(s) uploaded"
	DefaultExtension = "bin"
)

// FileDescriptor — описание одного принятого файла в ответе на загрузку.
type FileDescriptor struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	Encoding  string `json:"encoding"`
	MediaType string `json:"mimetype"`
	Extension string `json:"ext,omitempty"`
	Hash      string `json:"hash"`
	Size      int64  `json:"size"`
}

// UploadResponse — тело успешного ответа на POST /content/upload.
type UploadResponse struct {
	Success string                    `json:"success"`
	Data    map[string]string         `json:"data"`
	Files   map[string]FileDescriptor `json:"files"`
}

// ErrorResponse — тело любого неуспешного ответа.
type ErrorResponse struct {
	Error string `json:"error"`
	Key   string `json:"key,omitempty"`
}

// DetailRequest — запрос сведений о контенте. sha1 оставлен для старых клиентов.
type DetailRequest struct {
	Hash string `json:"hash,omitempty"`
	SHA1 string `json:"sha1,omitempty"`
}

// ContentDetail — ответ на POST /content/detail.
type ContentDetail struct {
	Hash      string `json:"hash"`
	Extension string `json:"ext,omitempty"`
	MediaType string `json:"mimetype,omitempty"`
	Name      string `json:"name,omitempty"`
	Size      int64  `json:"size"`
	CreatedAt string `json:"created_at"`
}

// RetrieveRequest — скачать контент по URL и посчитать его хеш.
type RetrieveRequest struct {
	Request   string `json:"request"`
	Extension string `json:"extension,omitempty"`
}

// RetrieveResponse — ответ на POST /content/retrieve.
type RetrieveResponse struct {
	Hash      string `json:"hash"`
	Extension string `json:"extension"`
}

// HealthResponse — ответ /health.
type HealthResponse struct {
	OK          bool   `json:"ok"`
	Algorithm   string `json:"algorithm"`
	StagedFiles int    `json:"staged_files"`
	StagedBytes int64  `json:"staged_bytes"`
	StagedHuman string `json:"staged_human"`
}

// GCResponse — ответ ручного запуска очистки.
type GCResponse struct {
	Removed int `json:"removed"`
}
