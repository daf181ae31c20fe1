// Package ledger reads the billing ledger and turns its rows into canonical
// invoice records.
package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fjacquet/invoice-reconciler/internal/apperror"
	"fjacquet/invoice-reconciler/internal/logging"
	"fjacquet/invoice-reconciler/internal/models"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"
)

// Loader reads ledger spreadsheets, keeping every cell as text.
type Loader struct {
	columns models.LedgerColumns
	sheet   string
	logger  logging.Logger
}

// NewLoader creates a Loader for the given header names. An empty sheet selects
// the first worksheet of xlsx ledgers.
func NewLoader(columns models.LedgerColumns, sheet string, logger logging.Logger) *Loader {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Loader{
		columns: columns,
		sheet:   sheet,
		logger:  logger.WithField(logging.FieldComponent, "ledger"),
	}
}

// Load reads path (xlsx or csv) restricted to the configured columns.
func (l *Loader) Load(path string) (*models.RawTable, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, &apperror.NotFoundError{Path: path, Kind: "ledger file"}
	}

	var records []map[string]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		records, err = l.readCSV(path)
	default:
		records, err = l.readXLSX(path)
	}
	if err != nil {
		return nil, err
	}

	table := &models.RawTable{Source: path, Rows: make([]models.LedgerRow, 0, len(records))}
	for i, rec := range records {
		table.Rows = append(table.Rows, models.LedgerRow{
			Line:           i + 2,
			DocumentType:   rec[l.columns.DocumentType],
			DocumentNumber: rec[l.columns.DocumentNumber],
			Document:       rec[l.columns.Document],
			Numero:         rec[l.columns.Numero],
			Patient:        rec[l.columns.Patient],
			Administrator:  rec[l.columns.Administrator],
			Contract:       rec[l.columns.Contract],
			Operator:       rec[l.columns.Operator],
		})
	}

	l.logger.Info("Ledger loaded",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, len(table.Rows)))
	return table, nil
}

func (l *Loader) readXLSX(path string) ([]map[string]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("error opening ledger %s: %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			l.logger.WithError(err).Warn("Failed to close ledger", logging.F(logging.FieldFile, path))
		}
	}()

	sheet := l.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("ledger %s has no worksheets", path)
		}
		sheet = sheets[0]
	}

	// Raw values keep the stored digits instead of the display format.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("error reading sheet %q of %s: %w", sheet, path, err)
	}
	if len(rows) == 0 {
		return nil, &apperror.ColumnError{Path: path, Missing: l.columns.Required()}
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}
	if err := l.checkColumns(path, header); err != nil {
		return nil, err
	}

	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		rec := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(row) {
				rec[name] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func (l *Loader) readCSV(path string) ([]map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening ledger %s: %w", path, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			l.logger.WithError(err).Warn("Failed to close ledger", logging.F(logging.FieldFile, path))
		}
	}()

	raw, err := gocsv.CSVToMaps(file)
	if err != nil {
		return nil, fmt.Errorf("error parsing ledger %s: %w", path, err)
	}

	records := make([]map[string]string, 0, len(raw))
	var header []string
	for _, rec := range raw {
		trimmed := make(map[string]string, len(rec))
		for k, v := range rec {
			trimmed[strings.TrimSpace(k)] = v
		}
		if header == nil {
			for k := range trimmed {
				header = append(header, k)
			}
			if err := l.checkColumns(path, header); err != nil {
				return nil, err
			}
		}
		records = append(records, trimmed)
	}
	return records, nil
}

func (l *Loader) checkColumns(path string, header []string) error {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	var missing []string
	for _, want := range l.columns.Required() {
		if !present[want] {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return &apperror.ColumnError{Path: path, Missing: missing}
	}
	return nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
