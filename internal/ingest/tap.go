package ingest

import (
	"context"
	"io"
	"sync"
)

// DefaultChunkSize совпадает с high-water mark исходного парсера (64K).
const DefaultChunkSize = 64 << 10

// Tap раздваивает один поток на две независимые ветки A и B.
// Следующий кусок источника читается только после того, как обе ветки
// забрали текущий, поэтому память ограничена одним буфером.
type Tap struct {
	ra, rb *io.PipeReader
	wa, wb *io.PipeWriter
	done   chan struct{}

	// Ветку B кормит одна горутина на всё время жизни Tap.
	toB   chan []byte
	fromB chan error

	mu  sync.Mutex
	err error
}

// NewTap запускает перекачку src в обе ветки.
func NewTap(ctx context.Context, src io.Reader, chunkSize int) *Tap {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	ra, wa := io.Pipe()
	rb, wb := io.Pipe()
	t := &Tap{
		ra:    ra,
		rb:    rb,
		wa:    wa,
		wb:    wb,
		done:  make(chan struct{}),
		toB:   make(chan []byte),
		fromB: make(chan error),
	}
	go t.feedB()
	go t.pump(ctx, src, chunkSize)

	return t
}

// A возвращает первую ветку.
func (t *Tap) A() *io.PipeReader { return t.ra }

// B возвращает вторую ветку.
func (t *Tap) B() *io.PipeReader { return t.rb }

// Drained закрывается, когда источник дочитан (или сломался) и обе ветки закрыты.
func (t *Tap) Drained() <-chan struct{} { return t.done }

// Err возвращает ошибку, с которой насос закрыл ветки, если такая была.
func (t *Tap) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *Tap) pump(ctx context.Context, src io.Reader, chunkSize int) {
	defer close(t.done)
	defer close(t.toB)

	buf := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			t.fail(err)
			return
		}

		n, rerr := src.Read(buf)
		if n > 0 {
			if err := t.broadcast(buf[:n]); err != nil {
				t.fail(err)
				return
			}
		}

		if rerr == io.EOF {
			_ = t.wa.Close()
			_ = t.wb.Close()
			return
		}
		if rerr != nil {
			t.fail(rerr)
			return
		}
	}
}

// broadcast отдаёт кусок обеим веткам параллельно и ждёт обе.
func (t *Tap) broadcast(chunk []byte) error {
	t.toB <- chunk
	_, err := t.wa.Write(chunk)
	if errb := <-t.fromB; err == nil {
		err = errb
	}

	return err
}

// feedB пишет в ветку B куски, которые передаёт broadcast.
func (t *Tap) feedB() {
	for chunk := range t.toB {
		_, err := t.wb.Write(chunk)
		t.fromB <- err
	}
}

// fail закрывает обе ветки одной и той же ошибкой.
func (t *Tap) fail(err error) {
	t.mu.Lock()
	t.err = err
	t.mu.Unlock()

	_ = t.wa.CloseWithError(err)
	_ = t.wb.CloseWithError(err)
}
