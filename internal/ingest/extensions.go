package ingest

import (
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// defaultExtensions покрывает типы, которых нет в дереве mimetype или для которых
// оно выбирает другое расширение.
var defaultExtensions = map[string]string{
	"application/octet-stream": "bin",
	"application/javascript":   "js",
	"application/x-yaml":       "yaml",
	"application/yaml":         "yaml",
	"image/jpeg":               "jpeg",
	"image/svg+xml":            "svg",
	"text/css":                 "css",
	"text/csv":                 "csv",
	"text/javascript":          "js",
	"text/markdown":            "md",
	"text/x-markdown":          "md",
	"text/plain":               "txt",
	"text/x-yaml":              "yaml",
	"text/yaml":                "yaml",
}

// Extensions сопоставляет media type расширению файла.
// Порядок: переопределения из конфига, встроенная таблица, дерево mimetype.
type Extensions struct {
	overrides map[string]string
}

// NewExtensions создаёт таблицу с переопределениями (ключи: media type).
func NewExtensions(overrides map[string]string) *Extensions {
	e := &Extensions{overrides: make(map[string]string, len(overrides))}
	for mt, ext := range overrides {
		mt = strings.ToLower(strings.TrimSpace(mt))
		ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
		if mt == "" || ext == "" {
			continue
		}
		e.overrides[mt] = ext
	}

	return e
}

// Resolve возвращает расширение без точки; false, если тип неизвестен.
func (e *Extensions) Resolve(mediaType string) (string, bool) {
	mt := normalizeMediaType(mediaType)
	if mt == "" {
		return "", false
	}

	if ext, ok := e.overrides[mt]; ok {
		return ext, true
	}
	if ext, ok := defaultExtensions[mt]; ok {
		return ext, true
	}

	m := mimetype.Lookup(mt)
	if m == nil {
		return "", false
	}
	ext := strings.TrimPrefix(m.Extension(), ".")
	if ext == "" {
		return "", false
	}

	return ext, true
}

// normalizeMediaType отрезает параметры (charset и т.п.) и приводит к нижнему регистру.
func normalizeMediaType(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(v); err == nil {
		return mt
	}
	if i := strings.IndexByte(v, ';'); i >= 0 {
		v = v[:i]
	}

	return strings.ToLower(strings.TrimSpace(v))
}
