package ingestclient

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	barWidth     = 32
	renderPeriod = 120 * time.Millisecond
)

// progressBar рисует ASCII-индикатор отправки одного файла.
// nil-бар допустим: все методы тогда ничего не делают.
type progressBar struct {
	mu        sync.Mutex
	out       io.Writer
	label     string
	total     int64
	sent      int64
	lastDraw  time.Time
	lastWidth int
	closed    bool
}

func newProgressBar(out io.Writer, label string, total int64) *progressBar {
	if out == nil {
		return nil
	}
	return &progressBar{out: out, label: label, total: total}
}

// add учитывает отправленные байты и перерисовывает строку не чаще renderPeriod.
func (p *progressBar) add(n int) {
	if p == nil || n <= 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.sent += int64(n)
	if time.Since(p.lastDraw) < renderPeriod {
		return
	}
	p.drawLocked("", false)
}

// done завершает строку галочкой или крестиком с ошибкой.
func (p *progressBar) done(err error) {
	if p == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true

	suffix := " ✓"
	if err != nil {
		suffix = fmt.Sprintf(" ✗ %v", err)
	}
	p.drawLocked(suffix, true)
}

func (p *progressBar) drawLocked(suffix string, final bool) {
	line := p.lineLocked() + suffix
	pad := ""
	if p.lastWidth > len(line) {
		pad = strings.Repeat(" ", p.lastWidth-len(line))
	}
	p.lastWidth = len(line)
	p.lastDraw = time.Now()

	end := ""
	if final {
		end = "\n"
	}
	fmt.Fprintf(p.out, "\r%s%s%s", line, pad, end)
}

func (p *progressBar) lineLocked() string {
	if p.total <= 0 {
		return fmt.Sprintf("%s %s sent", p.label, humanize.IBytes(uint64(p.sent)))
	}

	ratio := float64(p.sent) / float64(p.total)
	if ratio > 1 {
		ratio = 1
	}
	filled := int(ratio*barWidth + 0.5)

	return fmt.Sprintf("%s [%s%s] %3d%% %s/%s",
		p.label,
		strings.Repeat("=", filled),
		strings.Repeat(" ", barWidth-filled),
		int(ratio*100+0.5),
		humanize.IBytes(uint64(p.sent)),
		humanize.IBytes(uint64(p.total)),
	)
}

// progressReader считает байты, прочитанные из источника файла.
type progressReader struct {
	r   io.Reader
	bar *progressBar
}

func (p progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.bar.add(n)
	return n, err
}
