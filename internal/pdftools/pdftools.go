// Package pdftools drives the external OCR and compression programs over
// batches of PDFs. Each file is rewritten through a sibling temporary file that
// replaces the original only on success.
package pdftools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"fjacquet/invoice-reconciler/internal/apperror"
	"fjacquet/invoice-reconciler/internal/logging"
	"fjacquet/invoice-reconciler/internal/models"
	"fjacquet/invoice-reconciler/internal/workerpool"

	"github.com/dustin/go-humanize"
)

const (
	ocrSuffix      = ".ocr.tmp"
	compressSuffix = ".opt.tmp"
)

// Options configures the external programs.
type Options struct {
	OCRMyPDF    string
	Language    string
	Ghostscript string
	Quality     string
	Timeout     time.Duration
	Retries     int
}

// Processor runs OCR and compression.
type Processor struct {
	opts   Options
	runner CommandRunner
	look   LookPath
	pool   *workerpool.Pool
	logger logging.Logger
}

// NewProcessor creates a Processor. A nil runner uses ExecRunner.
func NewProcessor(opts Options, runner CommandRunner, pool *workerpool.Pool, logger logging.Logger) *Processor {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if pool == nil {
		pool = workerpool.New(1, logger)
	}
	return &Processor{
		opts:   opts,
		runner: runner,
		look:   exec.LookPath,
		pool:   pool,
		logger: logger.WithField(logging.FieldComponent, "pdftools"),
	}
}

// WithLookPath replaces PATH resolution, for tests.
func (p *Processor) WithLookPath(look LookPath) *Processor {
	cp := *p
	cp.look = look
	return &cp
}

// WithPool returns a copy of the processor that runs batches on pool.
func (p *Processor) WithPool(pool *workerpool.Pool) *Processor {
	cp := *p
	cp.pool = pool
	return &cp
}

// CheckDependencies reports which of the OCR and compression programs are
// missing from PATH.
func (p *Processor) CheckDependencies() error {
	return missingTools(p.look, p.opts.OCRMyPDF, p.opts.Ghostscript)
}

// RunOCR adds a text layer to path in place.
func (p *Processor) RunOCR(ctx context.Context, path string) error {
	tmp := path + ocrSuffix
	_, err := p.rewrite(ctx, path, tmp, p.opts.OCRMyPDF, false,
		"--jobs", "1", "-l", p.opts.Language, "-q", path, tmp)
	return err
}

// Compress rewrites path with Ghostscript at the configured quality and returns
// the bytes saved. The original is kept when the rewrite is not smaller.
func (p *Processor) Compress(ctx context.Context, path string) (int64, error) {
	tmp := path + compressSuffix
	return p.rewrite(ctx, path, tmp, p.opts.Ghostscript, true,
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=1.4",
		"-dPDFSETTINGS=/"+p.opts.Quality,
		"-dNOPAUSE", "-dQUIET", "-dBATCH",
		"-sOutputFile="+tmp,
		path)
}

func (p *Processor) rewrite(ctx context.Context, path, tmp, tool string, onlyIfSmaller bool, args ...string) (int64, error) {
	defer func() { _ = os.Remove(tmp) }()

	before, err := os.Stat(path)
	if err != nil {
		return 0, &apperror.NotFoundError{Path: path, Kind: "pdf"}
	}

	var runErr error
	for attempt := 0; attempt <= p.opts.Retries; attempt++ {
		runErr = p.runOnce(ctx, path, tool, args)
		if runErr == nil || !apperror.IsTimeout(runErr) {
			break
		}
		p.logger.Warn("Tool timed out",
			logging.F(logging.FieldTool, tool),
			logging.F(logging.FieldFile, path),
			logging.F("attempt", attempt+1))
	}
	if runErr != nil {
		return 0, runErr
	}

	after, err := os.Stat(tmp)
	if err != nil {
		return 0, &apperror.ToolError{Tool: tool, Path: path, Err: errors.New("no output produced")}
	}
	if onlyIfSmaller && after.Size() >= before.Size() {
		return 0, nil
	}
	if err := os.Rename(tmp, path); err != nil {
		return 0, fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return before.Size() - after.Size(), nil
}

func (p *Processor) runOnce(ctx context.Context, path, tool string, args []string) error {
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}
	err := p.runner.Run(ctx, tool, args...)
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &apperror.ToolError{Tool: tool, Path: path, TimedOut: true, Err: ctx.Err()}
	}
	return &apperror.ToolError{Tool: tool, Path: path, Err: err}
}

type outcome struct {
	saved int64
	err   error
}

// OCRBatch runs OCR over files. When the programs are missing every file is
// counted as failed without running anything.
func (p *Processor) OCRBatch(ctx context.Context, files []string) models.ToolSummary {
	return p.batch(ctx, files, "ocr", func(ctx context.Context, f string) outcome {
		return outcome{err: p.RunOCR(ctx, f)}
	})
}

// CompressBatch compresses files and totals the bytes saved.
func (p *Processor) CompressBatch(ctx context.Context, files []string) models.ToolSummary {
	return p.batch(ctx, files, "compress", func(ctx context.Context, f string) outcome {
		saved, err := p.Compress(ctx, f)
		return outcome{saved: saved, err: err}
	})
}

func (p *Processor) batch(ctx context.Context, files []string, op string, fn func(context.Context, string) outcome) models.ToolSummary {
	var summary models.ToolSummary
	if len(files) == 0 {
		return summary
	}
	if err := p.CheckDependencies(); err != nil {
		p.logger.WithError(err).Error("Cannot run batch", logging.F(logging.FieldOperation, op))
		summary.Failed = len(files)
		for _, f := range files {
			summary.Failures = append(summary.Failures, fmt.Sprintf("%s: %v", f, err))
		}
		return summary
	}

	start := time.Now()
	results := workerpool.Map(ctx, p.pool, files, fn)
	for i, r := range results {
		if r.err != nil {
			p.logger.WithError(r.err).Error("Tool failed",
				logging.F(logging.FieldOperation, op),
				logging.F(logging.FieldFile, files[i]))
			summary.Failed++
			summary.Failures = append(summary.Failures, r.err.Error())
			continue
		}
		summary.OK++
		summary.BytesSaved += r.saved
	}

	fields := []logging.Field{
		logging.F(logging.FieldOperation, op),
		logging.F("ok", summary.OK),
		logging.F("failed", summary.Failed),
		logging.F(logging.FieldDuration, time.Since(start).Round(time.Millisecond).String()),
	}
	if summary.BytesSaved != 0 {
		fields = append(fields, logging.F("saved", FormatSaved(summary.BytesSaved)))
	}
	p.logger.Info("Batch finished", fields...)
	return summary
}

// FormatSaved renders a byte delta for humans, with a sign when it grew.
func FormatSaved(n int64) string {
	if n < 0 {
		return "-" + humanize.Bytes(uint64(-n))
	}
	return humanize.Bytes(uint64(n))
}
