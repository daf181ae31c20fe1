package display

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// Progress counts completed items of a batch. It is safe for concurrent use.
type Progress struct {
	bar *progressbar.ProgressBar
}

// NewProgress creates a bar over total items. The bar is hidden when the
// printer is not interactive.
func (p *Printer) NewProgress(total int, description string) *Progress {
	return newProgress(p.out, total, description, p.interactive)
}

func newProgress(out io.Writer, total int, description string, visible bool) *Progress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetVisibility(visible),
	)
	return &Progress{bar: bar}
}

// Tick records one finished item.
func (pr *Progress) Tick() { _ = pr.bar.Add(1) }

// Done completes the bar.
func (pr *Progress) Done() { _ = pr.bar.Finish() }
