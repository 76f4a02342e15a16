package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtensions_Resolve(t *testing.T) {
	e := NewExtensions(map[string]string{
		"Application/X-Custom": ".cst",
		"":                     "skip",
	})

	cases := []struct {
		mediaType string
		want      string
		ok        bool
	}{
		{"text/plain", "txt", true},
		{"text/plain; charset=utf-8", "txt", true},
		{"TEXT/PLAIN", "txt", true},
		{"image/png", "png", true},
		{"application/json", "json", true},
		{"application/x-custom", "cst", true},
		{"application/octet-stream", "bin", true},
		{"text/css", "css", true},
		{"text/markdown", "md", true},
		{"text/yaml", "yaml", true},
		{"application/x-yaml", "yaml", true},
		{"image/jpeg", "jpeg", true},
		{"application/x-never-heard-of-it", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := e.Resolve(tc.mediaType)
		assert.Equal(t, tc.ok, ok, tc.mediaType)
		assert.Equal(t, tc.want, got, tc.mediaType)
	}
}

func TestExtensions_OverrideBeatsDefaults(t *testing.T) {
	e := NewExtensions(map[string]string{"application/octet-stream": "dat"})

	got, ok := e.Resolve("application/octet-stream")
	assert.True(t, ok)
	assert.Equal(t, "dat", got)
}
