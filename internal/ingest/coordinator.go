package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/charmbracelet/log"
	"github.com/sir_venger/ingest_lite/internal/models"
	"golang.org/x/sync/errgroup"
)

// Deps: зависимости координатора.
type Deps struct {
	Store      *Store
	Hasher     *Hasher
	Extensions *Extensions
	Limits     Limits
	ChunkSize  int
	Log        *log.Logger
}

// Coordinator принимает файлы multipart-запроса: пишет каждую часть во временное
// хранилище и одновременно считает её хеш, а затем удаляет всё, что было выделено.
type Coordinator struct {
	Deps
}

// New конструирует координатор с заданными зависимостями.
func New(deps Deps) *Coordinator {
	if deps.Extensions == nil {
		deps.Extensions = NewExtensions(nil)
	}
	if deps.ChunkSize <= 0 {
		deps.ChunkSize = DefaultChunkSize
	}
	if deps.Log == nil {
		deps.Log = log.New(io.Discard)
	}

	return &Coordinator{Deps: deps}
}

// Ingest обрабатывает один запрос целиком: либо все файлы, либо ошибка.
// К моменту возврата временных байтов запроса на диске не остаётся.
func (c *Coordinator) Ingest(ctx context.Context, mr *multipart.Reader) (models.IngestResult, error) {
	tracker := NewTracker(mr, c.Store, c.Extensions, c.Limits)
	state := tracker.State()
	defer c.cleanup(state)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	eg, egCtx := errgroup.WithContext(runCtx)

	var scanErr error
scan:
	for {
		fp, body, err := tracker.Next(egCtx)
		if err == io.EOF {
			break
		}
		if err != nil {
			scanErr = err
			cancel()
			break
		}

		tap := NewTap(egCtx, body, c.ChunkSize)
		eg.Go(func() error {
			return c.processPart(egCtx, fp, tap)
		})

		// multipart.Reader последовательный: ждём, пока часть будет дочитана.
		select {
		case <-tap.Drained():
		case <-egCtx.Done():
			break scan
		}

		// Насос закрывается раньше, чем errgroup отменит egCtx. Сломанная часть
		// означает конец запроса: остаток тела не читаем и новых мест не выделяем.
		if tap.Err() != nil || egCtx.Err() != nil {
			break scan
		}
	}

	waitErr := eg.Wait()
	if err := pickFailure(ctx, waitErr, scanErr); err != nil {
		c.Log.Debug("ingest failed", "files", len(state.Files), "err", err)
		return models.IngestResult{}, err
	}

	res := models.IngestResult{
		Fields: make(map[string]string, len(state.Fields)),
		Files:  make(map[string]models.FileDescriptor, len(state.Files)),
	}
	for k, v := range state.Fields {
		res.Fields[k] = v
	}
	for _, fp := range state.Files {
		if _, ok := fp.Hash(); !ok || fp.State != PartCompleted {
			return models.IngestResult{}, &models.IngestionError{Key: fp.Key, Cause: fmt.Errorf("%w: part finished without digest", models.ErrHash)}
		}
		res.Files[fp.Key] = fp.Descriptor()
	}

	c.Log.Debug("ingest completed", "fields", len(res.Fields), "files", len(res.Files))
	return res, nil
}

// processPart одновременно пишет ветку A в хранилище и хеширует ветку B.
func (c *Coordinator) processPart(ctx context.Context, fp *FilePart, tap *Tap) error {
	fp.State = PartWriting
	// Байты части не нужны после терминального состояния, что бы ни случилось дальше.
	defer c.release(fp)

	var (
		size         int64
		digest       string
		writeErr     error
		hashErr      error
		branches     errgroup.Group
		stage, sniff = tap.A(), tap.B()
	)

	// Отмена закрывает обе ветки, иначе Write и Sum ждали бы насос, который уже не придёт.
	stop := context.AfterFunc(ctx, func() {
		_ = stage.CloseWithError(ctx.Err())
		_ = sniff.CloseWithError(ctx.Err())
	})
	defer stop()

	branches.Go(func() error {
		size, writeErr = c.Store.Write(ctx, fp.Location, stage)
		if writeErr != nil {
			_ = stage.CloseWithError(writeErr)
		}
		return writeErr
	})
	branches.Go(func() error {
		digest, hashErr = c.Hasher.Sum(ctx, sniff)
		if hashErr != nil {
			_ = sniff.CloseWithError(hashErr)
		}
		return hashErr
	})
	_ = branches.Wait()

	// Ошибка хеша всегда вторична: первопричину несёт ветка записи.
	cause := writeErr
	if cause == nil {
		cause = hashErr
	}
	if cause != nil && ctx.Err() != nil {
		// Ветки могли быть закрыты отменой раньше, чем дочитали настоящую ошибку источника.
		if srcErr := tap.Err(); srcErr != nil && !isAbort(srcErr) {
			cause = srcErr
		} else if isAbort(cause) {
			cause = ctx.Err()
		}
	}
	if cause != nil {
		fp.State = PartFailed
		return &models.IngestionError{Key: fp.Key, Cause: cause}
	}

	fp.Size = size
	if err := fp.SetHash(digest); err != nil {
		fp.State = PartFailed
		return &models.IngestionError{Key: fp.Key, Cause: fmt.Errorf("%w: %w", models.ErrHash, err)}
	}
	fp.State = PartCompleted

	return nil
}

// cleanup добирает места, до которых не дошёл processPart. Вызывается после eg.Wait.
func (c *Coordinator) cleanup(state *RequestState) {
	for _, fp := range state.Files {
		c.release(fp)
	}
}

// release удаляет место части ровно один раз. Ошибки только логируются.
func (c *Coordinator) release(fp *FilePart) {
	if fp.released {
		return
	}
	fp.released = true

	if err := c.Store.Delete(fp.Location); err != nil {
		c.Log.Warn("staging cleanup failed", "key", fp.Key, "location", fp.Location, "err", err)
	}
}

// pickFailure выбирает ошибку, которую увидит вызывающий: отказ конкретной части
// важнее ошибки разбора, а та важнее отмены.
func pickFailure(ctx context.Context, waitErr, scanErr error) error {
	err := waitErr
	if err == nil || (isCancel(err) && scanErr != nil && !isCancel(scanErr)) {
		err = scanErr
	}
	if err == nil {
		return nil
	}

	// Клиент ушёл: для вызывающего это обрыв транспорта.
	key := ""
	var ie *models.IngestionError
	if errors.As(err, &ie) {
		if !isCancel(ie.Cause) || ctx.Err() == nil {
			return err
		}
		key = ie.Key
	}
	if ctx.Err() != nil {
		err = fmt.Errorf("%w: %w", models.ErrTransport, ctx.Err())
	}

	return &models.IngestionError{Key: key, Cause: err}
}

func isCancel(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// isAbort: ошибка, вызванная отменой, а не проблемой с данными.
func isAbort(err error) bool {
	return isCancel(err) || errors.Is(err, io.ErrClosedPipe)
}
