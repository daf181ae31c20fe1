// Package report writes operator-facing result tables (CSV, Excel or JSON) and
// reads and writes the plain one-name-per-line lists used as inputs.
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"fjacquet/invoice-reconciler/internal/fileutils"
	"fjacquet/invoice-reconciler/internal/logging"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"
)

// Supported formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatJSON = "json"
)

const sheetName = "Sheet1"

// utf8BOM lets spreadsheet programs open CSV exports with accents intact.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Generator renders slices of csv-tagged structs.
type Generator struct {
	delimiter rune
	logger    logging.Logger
}

// NewGenerator creates a Generator writing CSV with delimiter.
func NewGenerator(delimiter rune, logger logging.Logger) *Generator {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	if delimiter == 0 {
		delimiter = ';'
	}
	return &Generator{delimiter: delimiter, logger: logger.WithField(logging.FieldComponent, "report")}
}

// FormatFor picks the format from a file extension, defaulting to Excel.
func FormatFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".json":
		return FormatJSON
	default:
		return FormatXLSX
	}
}

// GenerateReport renders rows, a slice of csv-tagged structs, in format.
func (g *Generator) GenerateReport(rows any, format string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return g.generateCSV(rows, g.delimiter, true)
	case FormatXLSX:
		return g.generateXLSX(rows)
	case FormatJSON:
		return g.generateJSON(rows)
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

// Export writes rows to path in the format its extension names. Nothing is
// written when rows is empty; the return value reports whether a file was
// produced.
func (g *Generator) Export(rows any, path string) (bool, error) {
	n, err := length(rows)
	if err != nil {
		return false, err
	}
	if n == 0 {
		g.logger.Info("Nothing to report", logging.F(logging.FieldFile, path))
		return false, nil
	}
	data, err := g.GenerateReport(rows, FormatFor(path))
	if err != nil {
		return false, err
	}
	if err := fileutils.AtomicWrite(path, data); err != nil {
		return false, err
	}
	g.logger.Info("Report written",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, n))
	return true, nil
}

func length(rows any) (int, error) {
	v := reflect.ValueOf(rows)
	if v.Kind() != reflect.Slice {
		return 0, fmt.Errorf("report rows must be a slice, got %T", rows)
	}
	return v.Len(), nil
}

func (g *Generator) generateCSV(rows any, delimiter rune, bom bool) ([]byte, error) {
	var buf bytes.Buffer
	if bom {
		buf.Write(utf8BOM)
	}
	w := csv.NewWriter(&buf)
	w.Comma = delimiter
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(w)); err != nil {
		g.logger.WithError(err).Error("Failed to marshal CSV report")
		return nil, fmt.Errorf("failed to marshal CSV report: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) generateXLSX(rows any) ([]byte, error) {
	// the CSV rendering carries the header names and field order
	raw, err := g.generateCSV(rows, ',', false)
	if err != nil {
		return nil, err
	}
	records, err := csv.NewReader(bytes.NewReader(raw)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to re-read report rows: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, len(rec))
		for j, v := range rec {
			values[j] = v
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write report row %d: %w", i+1, err)
		}
	}
	if len(records) > 0 {
		if err := f.SetPanes(sheetName, &excelize.Panes{
			Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
		}); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) generateJSON(rows any) ([]byte, error) {
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		g.logger.WithError(err).Error("Failed to marshal JSON report")
		return nil, fmt.Errorf("failed to marshal JSON report: %w", err)
	}
	return data, nil
}
