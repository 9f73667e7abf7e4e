// Package progress shows per-plugin progress on a terminal.
package progress

import (
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Bar implements ports.ProgressObserver with a terminal progress bar.
type Bar struct {
	w   io.Writer
	bar *progressbar.ProgressBar
	mu  sync.Mutex
}

// New creates a bar that renders to w once Start is called.
func New(w io.Writer) *Bar {
	return &Bar{w: w}
}

// Start renders an empty bar for total plugins.
func (b *Bar) Start(total int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(b.w),
		progressbar.OptionSetDescription("verifying"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
	_ = b.bar.RenderBlank()
}

// Done advances the bar and names the plugin just finished.
func (b *Bar) Done(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar == nil {
		return
	}
	b.bar.Describe("verified " + name)
	_ = b.bar.Add(1)
}

// Finish completes and clears the bar.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar == nil {
		return
	}
	_ = b.bar.Finish()
	b.bar = nil
}
