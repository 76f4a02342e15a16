package ingest

import (
	"errors"

	"github.com/sir_venger/ingest_lite/internal/models"
)

// PartState: состояние файловой части внутри запроса.
type PartState int

const (
	PartPending PartState = iota
	PartWriting
	PartCompleted
	PartFailed
)

func (s PartState) String() string {
	switch s {
	case PartPending:
		return "pending"
	case PartWriting:
		return "writing"
	case PartCompleted:
		return "completed"
	case PartFailed:
		return "failed"
	default:
		return "unknown"
	}
}

var errHashAlreadySet = errors.New("content hash already set")

// FilePart: один загружаемый файл в рамках запроса.
type FilePart struct {
	Key       string
	Location  Location
	Name      string
	Encoding  string
	MediaType string
	Extension string
	Size      int64
	State     PartState

	hash     string
	hashSet  bool
	released bool
}

// SetHash фиксирует дайджест; повторная установка запрещена.
func (p *FilePart) SetHash(h string) error {
	if p.hashSet {
		return errHashAlreadySet
	}
	p.hash = h
	p.hashSet = true
	return nil
}

// Hash возвращает дайджест, если поток части был прочитан целиком.
func (p *FilePart) Hash() (string, bool) {
	return p.hash, p.hashSet
}

// Descriptor строит публичное описание части.
func (p *FilePart) Descriptor() models.FileDescriptor {
	return models.FileDescriptor{
		Key:       p.Key,
		Name:      p.Name,
		Encoding:  p.Encoding,
		MediaType: p.MediaType,
		Extension: p.Extension,
		Hash:      p.hash,
		Size:      p.Size,
	}
}

// RequestState принадлежит ровно одному запросу и никогда не разделяется между ними.
type RequestState struct {
	Fields   map[string]string
	Files    []*FilePart
	byKey    map[string]*FilePart
	observed bool
}

func newRequestState() *RequestState {
	return &RequestState{
		Fields: make(map[string]string),
		byKey:  make(map[string]*FilePart),
	}
}

// Observed сообщает, что транспорт подтвердил отсутствие новых частей.
func (s *RequestState) Observed() bool {
	return s.observed
}

// File ищет часть по имени поля.
func (s *RequestState) File(key string) (*FilePart, bool) {
	fp, ok := s.byKey[key]
	return fp, ok
}

func (s *RequestState) addFile(fp *FilePart) {
	s.Files = append(s.Files, fp)
	s.byKey[fp.Key] = fp
}
