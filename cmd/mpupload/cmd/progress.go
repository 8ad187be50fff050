package cmd

import (
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// progressBar renders upload progress on a terminal.
// It implements multipart.ProgressTracker.
type progressBar struct {
	w           io.Writer
	description string

	mu   sync.Mutex
	bar  *progressbar.ProgressBar
	last int64
}

func newProgressBar(w io.Writer, description string) *progressBar {
	return &progressBar{w: w, description: description}
}

// Update advances the bar. Parts may be acknowledged out of order, so the
// bar never moves backwards.
func (p *progressBar) Update(bytesTransferred, totalBytes int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil {
		p.bar = progressbar.NewOptions64(totalBytes,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetDescription(p.description),
			progressbar.OptionShowBytes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionSetWidth(30),
		)
	}
	if bytesTransferred <= p.last {
		return
	}
	p.last = bytesTransferred
	_ = p.bar.Set64(bytesTransferred)
}

// Complete finishes the bar.
func (p *progressBar) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
		_, _ = io.WriteString(p.w, "\n")
	}
}

// Error leaves the bar where it stopped.
func (p *progressBar) Error(_ error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Exit()
		_, _ = io.WriteString(p.w, "\n")
	}
}

// Transferred returns the highest byte count reported so far.
func (p *progressBar) Transferred() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}
