package models

// IngestResult возвращается после успешного приёма multipart-запроса.
type IngestResult struct {
	Fields map[string]string
	Files  map[string]FileDescriptor
}
