package models

import "path"

// LedgerColumns names the spreadsheet header for each logical ledger field.
type LedgerColumns struct {
	DocumentType   string `mapstructure:"document_type" yaml:"document_type"`
	DocumentNumber string `mapstructure:"document_number" yaml:"document_number"`
	Document       string `mapstructure:"document" yaml:"document"`
	Numero         string `mapstructure:"numero" yaml:"numero"`
	Patient        string `mapstructure:"patient" yaml:"patient"`
	Administrator  string `mapstructure:"administrator" yaml:"administrator"`
	Contract       string `mapstructure:"contract" yaml:"contract"`
	Operator       string `mapstructure:"operator" yaml:"operator"`
}

// DefaultLedgerColumns are the headers of the hospital billing export.
func DefaultLedgerColumns() LedgerColumns {
	return LedgerColumns{
		DocumentType:   "Doc",
		DocumentNumber: "No Doc",
		Document:       "Documento",
		Numero:         "Numero",
		Patient:        "Paciente",
		Administrator:  "Administradora",
		Contract:       "Contrato",
		Operator:       "Operario",
	}
}

// Required returns the headers that must be present in every ledger.
// Document and Numero are read when present but are not mandatory.
func (c LedgerColumns) Required() []string {
	return []string{c.DocumentType, c.DocumentNumber, c.Patient, c.Administrator, c.Contract, c.Operator}
}

// LedgerRow is one spreadsheet row with every cell kept as text.
type LedgerRow struct {
	Line           int
	DocumentType   string
	DocumentNumber string
	Document       string
	Numero         string
	Patient        string
	Administrator  string
	Contract       string
	Operator       string
}

// RawTable is a loaded, unvalidated ledger.
type RawTable struct {
	Source string
	Rows   []LedgerRow
}

// InvoiceRecord is a canonicalized ledger row.
type InvoiceRecord struct {
	DocumentTypeCode string `csv:"Doc"`
	DocumentNumber   string `csv:"No Doc"`
	InvoiceID        string `csv:"Factura"`
	Administrator    string `csv:"Administradora"`
	Contract         string `csv:"Contrato"`
	Patient          string `csv:"Paciente"`
	Operator         string `csv:"Operario"`
	TargetPath       string `csv:"Ruta"`
}

// BuildTargetPath returns administrator[/contract]/invoiceID in slash form.
func BuildTargetPath(administrator, contract, invoiceID string) string {
	if contract == "" {
		return path.Join(administrator, invoiceID)
	}
	return path.Join(administrator, contract, invoiceID)
}

// AuditResult lists raw ledger labels with no entry in their mapping table.
type AuditResult struct {
	MissingAdministrators []string
	MissingContracts      []string
}

// IsEmpty reports whether every label was mapped.
func (a AuditResult) IsEmpty() bool {
	return len(a.MissingAdministrators) == 0 && len(a.MissingContracts) == 0
}

// AuditGap is the report row form of one AuditResult entry.
type AuditGap struct {
	Kind  string `csv:"Tipo"`
	Value string `csv:"Valor"`
}

// Gaps flattens the result into report rows, administrators first.
func (a AuditResult) Gaps() []AuditGap {
	gaps := make([]AuditGap, 0, len(a.MissingAdministrators)+len(a.MissingContracts))
	for _, v := range a.MissingAdministrators {
		gaps = append(gaps, AuditGap{Kind: "Administradora", Value: v})
	}
	for _, v := range a.MissingContracts {
		gaps = append(gaps, AuditGap{Kind: "Contrato", Value: v})
	}
	return gaps
}

// DropCounts records why ledger rows were excluded from the canonical set.
type DropCounts struct {
	MissingFields         int
	InvalidNumber         int
	UnmappedAdministrator int
	Duplicate             int
}

// Total is the number of excluded rows.
func (d DropCounts) Total() int {
	return d.MissingFields + d.InvalidNumber + d.UnmappedAdministrator + d.Duplicate
}
