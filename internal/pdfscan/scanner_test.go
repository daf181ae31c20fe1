package pdfscan

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"fjacquet/invoice-reconciler/internal/logging"
	"fjacquet/invoice-reconciler/internal/workerpool"

	"github.com/stretchr/testify/assert"
)

func newScanner(t *testing.T, ext *MockExtractor, workers int) (*Scanner, *logging.MockLogger) {
	t.Helper()
	logger := logging.NewMockLogger()
	return NewScanner(ext, workerpool.New(workers, logger), "HSL", logger), logger
}

func TestNeedsOCR(t *testing.T) {
	ext := NewMockExtractor()
	ext.Pages["text.pdf"] = []string{"", "Factura 1"}
	ext.Pages["scan.pdf"] = []string{"  \n", "\t"}
	ext.Pages["empty.pdf"] = []string{}
	ext.Errors["broken.pdf"] = errors.New("syntax error")
	s, logger := newScanner(t, ext, 4)

	got := s.NeedsOCR(context.Background(), []string{"text.pdf", "scan.pdf", "empty.pdf", "broken.pdf"})
	assert.Equal(t, []string{"scan.pdf"}, got)
	assert.Len(t, logger.EntriesByLevel("ERROR"), 1)
}

func TestMissingEmbeddedCode(t *testing.T) {
	ext := NewMockExtractor()
	ok := filepath.Join("HSL354753", "FEV_890701078_HSL354753.pdf")
	wrong := filepath.Join("HSL354753", "FEV_890701078_HSL354754.pdf")
	noCode := filepath.Join("HSL354753", "scan.pdf")
	broken := filepath.Join("HSL354753", "EPI_890701078_HSL354753.pdf")
	ext.Pages[ok] = []string{"Factura electronica ", "hsl354753"}
	ext.Pages[wrong] = []string{"HSL354753"}
	ext.Pages[noCode] = []string{""}
	ext.Errors[broken] = errors.New("boom")
	s, _ := newScanner(t, ext, 2)

	got := s.MissingEmbeddedCode(context.Background(), []string{ok, wrong, noCode, broken})
	assert.Equal(t, []string{wrong, broken}, got)
}

func TestMissingInvoiceReference(t *testing.T) {
	hex70 := strings.Repeat("a1b2c3d4e5", 7)
	ext := NewMockExtractor()
	ext.Pages["with.pdf"] = []string{"CUFE: " + hex70[:30] + "\n  " + hex70[30:]}
	ext.Pages["short.pdf"] = []string{"CUFE: " + hex70[:63]}
	ext.Errors["broken.pdf"] = errors.New("boom")
	s, _ := newScanner(t, ext, 3)

	got := s.MissingInvoiceReference(context.Background(), []string{"with.pdf", "short.pdf", "broken.pdf"})
	assert.Equal(t, []string{"short.pdf", "broken.pdf"}, got)
}

func TestInvalid(t *testing.T) {
	ext := NewMockExtractor()
	ext.Pages["good.pdf"] = []string{"x"}
	ext.Pages["zero.pdf"] = nil
	s, _ := newScanner(t, ext, 1)

	got := s.Invalid(context.Background(), []string{"good.pdf", "zero.pdf", "unknown.pdf"})
	assert.Equal(t, []string{"zero.pdf", "unknown.pdf"}, got)
}

func TestFilesContainingText(t *testing.T) {
	a := filepath.Join("d1", "a.pdf")
	b := filepath.Join("d1", "b.pdf")
	c := filepath.Join("d2", "c.pdf")
	ext := NewMockExtractor()
	ext.Pages[a] = []string{"Autorización de servicios"}
	ext.Pages[b] = []string{"AUTORIZACION"}
	ext.Pages[c] = []string{"nada"}
	s, _ := newScanner(t, ext, 2)

	files := []string{c, b, a}
	assert.Equal(t, []string{"d1"}, s.FilesContainingText(context.Background(), files, "autorizacion", true))
	assert.Equal(t, []string{a, b}, s.FilesContainingText(context.Background(), files, "Autorización", false))
	assert.Nil(t, s.FilesContainingText(context.Background(), files, "  ", false))
}

func TestScanner_EmptyBatch(t *testing.T) {
	s, _ := newScanner(t, NewMockExtractor(), 4)
	assert.Empty(t, s.NeedsOCR(context.Background(), nil))
}
