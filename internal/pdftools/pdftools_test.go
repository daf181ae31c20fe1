package pdftools

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"fjacquet/invoice-reconciler/internal/apperror"
	"fjacquet/invoice-reconciler/internal/logging"
	"fjacquet/invoice-reconciler/internal/workerpool"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner writes output to the temporary file named in the arguments.
type fakeRunner struct {
	mu      sync.Mutex
	calls   []string
	output  string
	fail    map[string]error
	blockOn map[string]bool
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) error {
	input := args[len(args)-1]
	out := args[len(args)-1]
	for _, a := range args {
		if strings.HasPrefix(a, "-sOutputFile=") {
			out = strings.TrimPrefix(a, "-sOutputFile=")
		}
	}
	if name == "ocrmypdf" {
		input, out = args[len(args)-2], args[len(args)-1]
	}

	r.mu.Lock()
	r.calls = append(r.calls, name+" "+filepath.Base(input))
	r.mu.Unlock()

	if r.blockOn[filepath.Base(input)] {
		<-ctx.Done()
		_ = os.WriteFile(out, []byte("partial"), 0644)
		return ctx.Err()
	}
	if err := r.fail[filepath.Base(input)]; err != nil {
		_ = os.WriteFile(out, []byte("partial"), 0644)
		return err
	}
	return os.WriteFile(out, []byte(r.output), 0644)
}

func found(string) (string, error) { return "/usr/bin/x", nil }

func newProcessor(runner CommandRunner, retries int, timeout time.Duration) *Processor {
	opts := Options{
		OCRMyPDF:    "ocrmypdf",
		Language:    "spa",
		Ghostscript: "gs",
		Quality:     "ebook",
		Timeout:     timeout,
		Retries:     retries,
	}
	logger := logging.NewMockLogger()
	return NewProcessor(opts, runner, workerpool.New(2, logger), logger).WithLookPath(found)
}

func writePDF(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestRunOCR_ReplacesOriginal(t *testing.T) {
	dir := t.TempDir()
	f := writePDF(t, dir, "scan.pdf", "image only")
	runner := &fakeRunner{output: "with text"}

	require.NoError(t, newProcessor(runner, 0, time.Second).RunOCR(context.Background(), f))
	data, err := os.ReadFile(f)
	require.NoError(t, err)
	assert.Equal(t, "with text", string(data))
	assert.NoFileExists(t, f+ocrSuffix)
}

func TestRunOCR_FailureKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	f := writePDF(t, dir, "scan.pdf", "image only")
	runner := &fakeRunner{fail: map[string]error{"scan.pdf": errors.New("exit status 2")}}

	err := newProcessor(runner, 0, time.Second).RunOCR(context.Background(), f)
	var toolErr *apperror.ToolError
	require.ErrorAs(t, err, &toolErr)
	data, _ := os.ReadFile(f)
	assert.Equal(t, "image only", string(data))
	assert.NoFileExists(t, f+ocrSuffix, "partial output is cleaned up")
}

func TestRunOCR_TimeoutRetried(t *testing.T) {
	dir := t.TempDir()
	f := writePDF(t, dir, "stuck.pdf", "x")
	runner := &fakeRunner{blockOn: map[string]bool{"stuck.pdf": true}}

	err := newProcessor(runner, 1, 20*time.Millisecond).RunOCR(context.Background(), f)
	assert.True(t, apperror.IsTimeout(err))
	assert.Len(t, runner.calls, 2)
	assert.NoFileExists(t, f+ocrSuffix)
}

func TestRunOCR_NonTimeoutNotRetried(t *testing.T) {
	f := writePDF(t, t.TempDir(), "bad.pdf", "x")
	runner := &fakeRunner{fail: map[string]error{"bad.pdf": errors.New("boom")}}

	_ = newProcessor(runner, 3, time.Second).RunOCR(context.Background(), f)
	assert.Len(t, runner.calls, 1)
}

func TestCompress(t *testing.T) {
	dir := t.TempDir()
	big := writePDF(t, dir, "big.pdf", strings.Repeat("x", 100))
	small := writePDF(t, dir, "small.pdf", "xy")
	runner := &fakeRunner{output: strings.Repeat("y", 40)}
	p := newProcessor(runner, 0, time.Second)

	saved, err := p.Compress(context.Background(), big)
	require.NoError(t, err)
	assert.Equal(t, int64(60), saved)

	saved, err = p.Compress(context.Background(), small)
	require.NoError(t, err)
	assert.Zero(t, saved)
	data, _ := os.ReadFile(small)
	assert.Equal(t, "xy", string(data), "larger output is discarded")
	assert.NoFileExists(t, small+compressSuffix)
}

func TestBatches(t *testing.T) {
	dir := t.TempDir()
	a := writePDF(t, dir, "a.pdf", strings.Repeat("x", 100))
	b := writePDF(t, dir, "b.pdf", strings.Repeat("x", 100))
	c := writePDF(t, dir, "c.pdf", strings.Repeat("x", 100))
	runner := &fakeRunner{output: "tiny", fail: map[string]error{"b.pdf": errors.New("boom")}}
	p := newProcessor(runner, 0, time.Second)

	ocr := p.OCRBatch(context.Background(), []string{a, b, c})
	assert.Equal(t, 2, ocr.OK)
	assert.Equal(t, 1, ocr.Failed)
	assert.Len(t, ocr.Failures, 1)

	d := writePDF(t, dir, "d.pdf", strings.Repeat("x", 100))
	comp := p.CompressBatch(context.Background(), []string{d})
	assert.Equal(t, 1, comp.OK)
	assert.Equal(t, int64(96), comp.BytesSaved)
}

func TestBatch_MissingTools(t *testing.T) {
	runner := &fakeRunner{}
	p := newProcessor(runner, 0, time.Second).WithLookPath(func(f string) (string, error) {
		if f == "gs" {
			return "", errors.New("not found")
		}
		return "/usr/bin/" + f, nil
	})

	err := p.CheckDependencies()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gs")

	summary := p.OCRBatch(context.Background(), []string{"a.pdf", "b.pdf"})
	assert.Equal(t, 2, summary.Failed)
	assert.Empty(t, runner.calls)
}

func TestFormatSaved(t *testing.T) {
	assert.Equal(t, "1.5 kB", FormatSaved(1500))
	assert.Equal(t, "-1.5 kB", FormatSaved(-1500))
}
