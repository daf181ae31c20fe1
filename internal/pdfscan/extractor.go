package pdfscan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"fjacquet/invoice-reconciler/internal/apperror"
)

// Extractor reads page text from PDF files. Implementations must be safe for
// concurrent use.
type Extractor interface {
	// PageCount returns the number of pages, or an error if the file cannot be
	// opened as a PDF.
	PageCount(ctx context.Context, path string) (int, error)
	// ExtractPages returns the text of each page.
	ExtractPages(ctx context.Context, path string) ([]string, error)
}

var pagesLine = regexp.MustCompile(`(?m)^Pages:\s+(\d+)`)

// CommandExtractor implements Extractor with the poppler pdfinfo and pdftotext
// commands.
type CommandExtractor struct {
	PDFInfo   string
	PDFToText string
	Timeout   time.Duration
}

// NewCommandExtractor creates a CommandExtractor. Empty binary names fall back
// to the tools found on PATH.
func NewCommandExtractor(pdfinfo, pdftotext string, timeout time.Duration) *CommandExtractor {
	if pdfinfo == "" {
		pdfinfo = "pdfinfo"
	}
	if pdftotext == "" {
		pdftotext = "pdftotext"
	}
	return &CommandExtractor{PDFInfo: pdfinfo, PDFToText: pdftotext, Timeout: timeout}
}

// PageCount runs pdfinfo and parses its Pages line.
func (e *CommandExtractor) PageCount(ctx context.Context, path string) (int, error) {
	out, err := e.run(ctx, path, e.PDFInfo, path)
	if err != nil {
		return 0, err
	}
	m := pagesLine.FindSubmatch(out)
	if m == nil {
		return 0, fmt.Errorf("pdfinfo reported no page count for %s", path)
	}
	return strconv.Atoi(string(m[1]))
}

// ExtractPages runs pdftotext with layout preservation and splits the output
// on form feeds.
func (e *CommandExtractor) ExtractPages(ctx context.Context, path string) ([]string, error) {
	out, err := e.run(ctx, path, e.PDFToText, "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		return nil, err
	}
	pages := strings.Split(string(out), "\f")
	// pdftotext terminates every page with a form feed
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages, nil
}

func (e *CommandExtractor) run(ctx context.Context, path, tool string, args ...string) ([]byte, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &apperror.ToolError{Tool: tool, Path: path, TimedOut: true, Err: ctx.Err()}
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return nil, &apperror.ToolError{Tool: tool, Path: path, Err: err}
	}
	return stdout.Bytes(), nil
}

// MockExtractor serves canned page text keyed by path. Paths listed in Errors
// fail both calls; unknown paths fail with a not-found error.
type MockExtractor struct {
	Pages  map[string][]string
	Errors map[string]error
}

// NewMockExtractor creates an empty MockExtractor.
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{Pages: map[string][]string{}, Errors: map[string]error{}}
}

// PageCount returns the number of canned pages.
func (m *MockExtractor) PageCount(_ context.Context, path string) (int, error) {
	pages, err := m.lookup(path)
	return len(pages), err
}

// ExtractPages returns the canned pages.
func (m *MockExtractor) ExtractPages(_ context.Context, path string) ([]string, error) {
	return m.lookup(path)
}

func (m *MockExtractor) lookup(path string) ([]string, error) {
	if err := m.Errors[path]; err != nil {
		return nil, err
	}
	pages, ok := m.Pages[path]
	if !ok {
		return nil, &apperror.NotFoundError{Path: path, Kind: "pdf"}
	}
	return pages, nil
}
