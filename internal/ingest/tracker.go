package ingest

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/sir_venger/ingest_lite/internal/models"
)

const (
	defaultEncoding     = "7bit"
	defaultMediaType    = "text/plain"
	DefaultMaxFieldSize = 1 << 20
)

// Limits ограничивает размеры полей и файлов одного запроса. Ноль снимает ограничение.
type Limits struct {
	MaxFileSize  int64
	MaxFieldSize int64
}

// Tracker разбирает multipart-поток на поля и файловые части.
type Tracker struct {
	mr     *multipart.Reader
	store  *Store
	exts   *Extensions
	limits Limits
	state  *RequestState
}

// NewTracker создаёт трекер для одного запроса.
func NewTracker(mr *multipart.Reader, store *Store, exts *Extensions, limits Limits) *Tracker {
	if exts == nil {
		exts = NewExtensions(nil)
	}
	if limits.MaxFieldSize <= 0 {
		limits.MaxFieldSize = DefaultMaxFieldSize
	}

	return &Tracker{
		mr:     mr,
		store:  store,
		exts:   exts,
		limits: limits,
		state:  newRequestState(),
	}
}

// State возвращает состояние запроса.
func (t *Tracker) State() *RequestState {
	return t.state
}

// Next возвращает очередную файловую часть и поток её байтов. Поля по дороге
// складываются в State. io.EOF означает, что все части запроса увидены.
//
// Поток предыдущей части должен быть дочитан до вызова Next: multipart.Reader
// последовательный и при переходе выбрасывает недочитанный остаток.
func (t *Tracker) Next(ctx context.Context) (*FilePart, io.Reader, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		// NextRawPart не декодирует quoted-printable: хешируем ровно то, что пришло.
		part, err := t.mr.NextRawPart()
		// Обрыв до финальной границы приходит как обёрнутый io.EOF, а чистый конец приходит голым.
		if err == io.EOF {
			t.state.observed = true
			return nil, nil, io.EOF
		}
		if err != nil {
			return nil, nil, &models.IngestionError{Cause: fmt.Errorf("%w: next part: %w", models.ErrTransport, err)}
		}

		key := part.FormName()
		if part.FileName() == "" {
			if err := t.readField(key, part); err != nil {
				return nil, nil, err
			}
			continue
		}

		fp, err := t.startFile(key, part)
		if err != nil {
			return nil, nil, err
		}

		return fp, &partBody{r: part, limit: t.limits.MaxFileSize}, nil
	}
}

// readField читает значение обычного поля; последнее значение побеждает.
func (t *Tracker) readField(key string, part *multipart.Part) error {
	if key == "" {
		_, err := io.Copy(io.Discard, part)
		if err != nil {
			return &models.IngestionError{Cause: fmt.Errorf("%w: skip unnamed part: %w", models.ErrTransport, err)}
		}
		return nil
	}

	b, err := io.ReadAll(io.LimitReader(part, t.limits.MaxFieldSize+1))
	if err != nil {
		return &models.IngestionError{Key: key, Cause: fmt.Errorf("%w: read field: %w", models.ErrTransport, err)}
	}
	if int64(len(b)) > t.limits.MaxFieldSize {
		return &models.IngestionError{Key: key, Cause: fmt.Errorf("%w: field exceeds %d bytes", models.ErrTooLarge, t.limits.MaxFieldSize)}
	}

	t.state.Fields[key] = string(b)
	return nil
}

// startFile регистрирует часть до чтения её байтов: место в хранилище
// выделяется сразу, расширение вычисляется сразу.
func (t *Tracker) startFile(key string, part *multipart.Part) (*FilePart, error) {
	if key == "" {
		return nil, &models.IngestionError{Cause: fmt.Errorf("%w: file part %q has no field name", models.ErrTransport, part.FileName())}
	}
	if _, dup := t.state.byKey[key]; dup {
		return nil, &models.IngestionError{Key: key, Cause: fmt.Errorf("%w: duplicate file part", models.ErrTransport)}
	}

	loc, err := t.store.Create()
	if err != nil {
		return nil, &models.IngestionError{Key: key, Cause: err}
	}

	mediaType := strings.TrimSpace(part.Header.Get("Content-Type"))
	if mediaType == "" {
		mediaType = defaultMediaType
	}
	encoding := strings.ToLower(strings.TrimSpace(part.Header.Get("Content-Transfer-Encoding")))
	if encoding == "" {
		encoding = defaultEncoding
	}
	ext, _ := t.exts.Resolve(mediaType)

	fp := &FilePart{
		Key:       key,
		Location:  loc,
		Name:      part.FileName(),
		Encoding:  encoding,
		MediaType: mediaType,
		Extension: ext,
		State:     PartPending,
	}
	t.state.addFile(fp)

	return fp, nil
}

// partBody помечает ошибки транспорта и следит за лимитом размера файла.
type partBody struct {
	r     io.Reader
	limit int64
	read  int64
}

func (b *partBody) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	b.read += int64(n)
	if b.limit > 0 && b.read > b.limit {
		return n, fmt.Errorf("%w: file exceeds %d bytes", models.ErrTooLarge, b.limit)
	}
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("%w: %w", models.ErrTransport, err)
	}

	return n, err
}
