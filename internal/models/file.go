package models

import "time"

// FileDescriptor описывает одну принятую файловую часть запроса.
type FileDescriptor struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	Encoding  string `json:"encoding"`
	MediaType string `json:"mimetype"`
	Extension string `json:"ext,omitempty"`
	Hash      string `json:"hash"`
	Size      int64  `json:"size"`
}

// Content: запись реестра о контенте, который хотя бы раз был принят.
type Content struct {
	Hash      string    `json:"hash"`
	Extension string    `json:"ext,omitempty"`
	MediaType string    `json:"mimetype,omitempty"`
	Name      string    `json:"name,omitempty"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// ContentFromDescriptor строит запись реестра по результату загрузки.
func ContentFromDescriptor(d FileDescriptor, at time.Time) Content {
	return Content{
		Hash:      d.Hash,
		Extension: d.Extension,
		MediaType: d.MediaType,
		Name:      d.Name,
		Size:      d.Size,
		CreatedAt: at,
	}
}
