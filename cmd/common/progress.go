package common

import (
	"fjacquet/invoice-reconciler/internal/container"
	"fjacquet/invoice-reconciler/internal/display"
	"fjacquet/invoice-reconciler/internal/pdfscan"
	"fjacquet/invoice-reconciler/internal/pdftools"
)

// Scanner returns the container's scanner reporting to a progress bar over
// total files. Call the returned func when the batch is done.
func Scanner(c *container.Container, p *display.Printer, total int, description string) (*pdfscan.Scanner, func()) {
	bar := p.NewProgress(total, description)
	return c.GetScanner().WithPool(c.GetScanPool().WithProgress(bar.Tick)), bar.Done
}

// Tools returns the container's PDF processor reporting to a progress bar.
func Tools(c *container.Container, p *display.Printer, total int, description string) (*pdftools.Processor, func()) {
	bar := p.NewProgress(total, description)
	return c.GetTools().WithPool(c.GetToolPool().WithProgress(bar.Tick)), bar.Done
}
