package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressReporter reports progress of a batch conversion.
type ProgressReporter interface {
	Start(total int64)
	Update(current int64)
	Finish()
	Error(err error)
}

const progressBarWidth = 30

// SimpleProgress renders a single-line bar, redrawn in place with a
// carriage return. Safe for concurrent use.
type SimpleProgress struct {
	mu      sync.Mutex
	total   int64
	done    int64
	started time.Time
	writer  io.Writer
}

// NewProgressReporter creates a progress reporter writing to w. A nil
// w means stderr, keeping the bar out of converted output on stdout.
func NewProgressReporter(w io.Writer) ProgressReporter {
	if w == nil {
		w = os.Stderr
	}
	return &SimpleProgress{writer: w}
}

// Start begins a run of total files. A non-positive total disables
// rendering entirely.
func (p *SimpleProgress) Start(total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.done = 0
	p.started = time.Now()
	p.render()
}

// Update sets the number of files converted so far.
func (p *SimpleProgress) Update(current int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = current
	p.render()
}

// Finish completes the bar and moves off the redraw line.
func (p *SimpleProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.total <= 0 {
		return
	}
	p.done = p.total
	p.render()
	fmt.Fprintln(p.writer)
}

// Error breaks out of the redraw line and reports the failure.
func (p *SimpleProgress) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.writer, "\n✗ %v\n", err)
}

func (p *SimpleProgress) render() {
	if p.total <= 0 {
		return
	}

	frac := float64(p.done) / float64(p.total)
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * progressBarWidth)

	bar := strings.Repeat("=", filled) + strings.Repeat(" ", progressBarWidth-filled)
	fmt.Fprintf(p.writer, "\r[%s] %d/%d files (%d%%)%s",
		bar, p.done, p.total, int(frac*100), p.eta())
}

// eta estimates time remaining from the pace so far. Empty until the
// first file lands and for the final render.
func (p *SimpleProgress) eta() string {
	if p.done <= 0 || p.done >= p.total {
		return ""
	}
	perFile := time.Since(p.started) / time.Duration(p.done)
	left := perFile * time.Duration(p.total-p.done)
	if left < time.Second {
		return ""
	}
	return fmt.Sprintf(" eta %s", left.Round(time.Second))
}
