// Package pdfscan runs read-only content checks over batches of PDF files.
// Every check fails closed: a file that cannot be read is logged and reported
// as failing, and a batch never stops on one bad document.
package pdfscan

import (
	"context"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"fjacquet/invoice-reconciler/internal/fileutils"
	"fjacquet/invoice-reconciler/internal/logging"
	"fjacquet/invoice-reconciler/internal/textutils"
	"fjacquet/invoice-reconciler/internal/workerpool"
)

var invoiceReference = regexp.MustCompile(`[0-9a-fA-F]{64,}`)

// Scanner applies the content checks through a bounded worker pool.
type Scanner struct {
	extractor Extractor
	pool      *workerpool.Pool
	code      *regexp.Regexp
	logger    logging.Logger
}

// NewScanner creates a Scanner. suffix is the hospital invoice prefix used to
// recognise the identifier embedded in file names.
func NewScanner(extractor Extractor, pool *workerpool.Pool, suffix string, logger logging.Logger) *Scanner {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	if pool == nil {
		pool = workerpool.New(1, logger)
	}
	return &Scanner{
		extractor: extractor,
		pool:      pool,
		code:      regexp.MustCompile(`(` + regexp.QuoteMeta(strings.ToUpper(suffix)) + `\d{4,})`),
		logger:    logger.WithField(logging.FieldComponent, "pdfscan"),
	}
}

// WithPool returns a copy of the scanner that runs on pool.
func (s *Scanner) WithPool(pool *workerpool.Pool) *Scanner {
	cp := *s
	cp.pool = pool
	return &cp
}

// NeedsOCR returns the files that open with at least one page but have no
// page with non-blank text. Files that cannot be opened are left to Invalid;
// a file that opens but whose text cannot be extracted is selected.
func (s *Scanner) NeedsOCR(ctx context.Context, files []string) []string {
	return s.filter(ctx, files, "needs_ocr", func(ctx context.Context, f string) bool {
		n, err := s.extractor.PageCount(ctx, f)
		if err != nil || n == 0 {
			if err != nil {
				s.logFailure(err, f, "needs_ocr")
			}
			return false
		}
		pages, err := s.extractor.ExtractPages(ctx, f)
		if err != nil {
			s.logFailure(err, f, "needs_ocr")
			return true
		}
		for _, p := range pages {
			if strings.TrimSpace(p) != "" {
				return false
			}
		}
		return true
	})
}

// MissingEmbeddedCode returns the files whose stem carries an invoice code
// (suffix plus four or more digits) that does not appear in the document text.
// Files without a code in their name are not checked.
func (s *Scanner) MissingEmbeddedCode(ctx context.Context, files []string) []string {
	return s.filter(ctx, files, "embedded_code", func(ctx context.Context, f string) bool {
		m := s.code.FindStringSubmatch(strings.ToUpper(fileutils.Stem(f)))
		if m == nil {
			return false
		}
		text, ok := s.text(ctx, f, "embedded_code")
		if !ok {
			return true
		}
		return !strings.Contains(strings.ToUpper(text), m[1])
	})
}

// MissingInvoiceReference returns the files whose whitespace-stripped text has
// no run of 64 or more hexadecimal characters.
func (s *Scanner) MissingInvoiceReference(ctx context.Context, files []string) []string {
	return s.filter(ctx, files, "invoice_reference", func(ctx context.Context, f string) bool {
		text, ok := s.text(ctx, f, "invoice_reference")
		if !ok {
			return true
		}
		return !invoiceReference.MatchString(textutils.StripWhitespace(text))
	})
}

// Invalid returns the files that cannot be opened or report zero pages.
func (s *Scanner) Invalid(ctx context.Context, files []string) []string {
	return s.filter(ctx, files, "validity", func(ctx context.Context, f string) bool {
		n, err := s.extractor.PageCount(ctx, f)
		if err != nil {
			s.logFailure(err, f, "validity")
			return true
		}
		return n == 0
	})
}

// FilesContainingText returns the files (or their parent folders when
// returnParent is set) whose text contains needle, ignoring case and accents.
// The result is sorted and free of repeats. An empty needle matches nothing.
func (s *Scanner) FilesContainingText(ctx context.Context, files []string, needle string, returnParent bool) []string {
	if strings.TrimSpace(needle) == "" {
		return nil
	}
	folded := textutils.Fold(needle)
	hits := s.filter(ctx, files, "contains_text", func(ctx context.Context, f string) bool {
		text, ok := s.text(ctx, f, "contains_text")
		return ok && strings.Contains(textutils.Fold(text), folded)
	})

	seen := make(map[string]struct{}, len(hits))
	var out []string
	for _, h := range hits {
		if returnParent {
			h = filepath.Dir(h)
		}
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// filter runs check over files on the pool and keeps the selected files in
// input order.
func (s *Scanner) filter(ctx context.Context, files []string, check string, fn func(context.Context, string) bool) []string {
	selected := workerpool.Map(ctx, s.pool, files, fn)
	var out []string
	for i, hit := range selected {
		if hit {
			out = append(out, files[i])
		}
	}
	s.logger.Info("Scan finished",
		logging.F(logging.FieldOperation, check),
		logging.F(logging.FieldCount, len(files)),
		logging.F("flagged", len(out)))
	return out
}

func (s *Scanner) text(ctx context.Context, f, check string) (string, bool) {
	pages, err := s.extractor.ExtractPages(ctx, f)
	if err != nil {
		s.logFailure(err, f, check)
		return "", false
	}
	return strings.Join(pages, ""), true
}

func (s *Scanner) logFailure(err error, f, check string) {
	s.logger.WithError(err).Error("Cannot read document",
		logging.F(logging.FieldFile, f),
		logging.F(logging.FieldOperation, check))
}
