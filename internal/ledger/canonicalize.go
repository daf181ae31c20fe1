package ledger

import (
	"sort"
	"strings"

	"fjacquet/invoice-reconciler/internal/apperror"
	"fjacquet/invoice-reconciler/internal/logging"
	"fjacquet/invoice-reconciler/internal/models"

	"github.com/shopspring/decimal"
)

// Canonicalizer audits and canonicalizes ledger tables against the
// administrator and contract mapping tables it was built with.
type Canonicalizer struct {
	administrators models.MappingTable
	contracts      models.MappingTable
	logger         logging.Logger
}

// Result is the canonical record set plus the reasons rows were excluded.
type Result struct {
	Records []models.InvoiceRecord
	Dropped models.DropCounts
}

// NewCanonicalizer creates a Canonicalizer.
func NewCanonicalizer(administrators, contracts models.MappingTable, logger logging.Logger) *Canonicalizer {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Canonicalizer{
		administrators: administrators,
		contracts:      contracts,
		logger:         logger.WithField(logging.FieldComponent, "canonicalizer"),
	}
}

// Audit lists the raw administrator and contract labels that have no entry in
// their mapping table. It never modifies the table.
func (c *Canonicalizer) Audit(table *models.RawTable) (models.AuditResult, error) {
	if table == nil {
		return models.AuditResult{}, &apperror.StateError{Operation: "audit", Reason: "no ledger loaded"}
	}

	admins := make(map[string]struct{})
	contracts := make(map[string]struct{})
	for _, row := range table.Rows {
		if !isBlank(row.Administrator) && !c.administrators.Has(row.Administrator) {
			admins[row.Administrator] = struct{}{}
		}
		if !isBlank(row.Contract) && !c.contracts.Has(row.Contract) {
			contracts[row.Contract] = struct{}{}
		}
	}

	result := models.AuditResult{
		MissingAdministrators: sortedKeys(admins),
		MissingContracts:      sortedKeys(contracts),
	}
	if result.IsEmpty() {
		c.logger.Info("Audit passed: every administrator and contract is mapped")
	} else {
		c.logger.Warn("Audit found unmapped labels",
			logging.F("missing_administrators", len(result.MissingAdministrators)),
			logging.F("missing_contracts", len(result.MissingContracts)))
	}
	return result, nil
}

// Canonicalize converts the table into invoice records in ledger order.
//
// Rows missing a document type, document number or administrator are dropped,
// as are rows whose number is not an integer and rows whose administrator is
// unmapped. An unmapped or blank contract leaves the contract segment out of
// the target path. When two rows share an invoice id the first one with a
// usable number wins, even if it is later dropped for its administrator.
//
// Canonicalize does not run Audit; callers decide whether a non-empty audit
// blocks them.
func (c *Canonicalizer) Canonicalize(table *models.RawTable) (Result, error) {
	if table == nil {
		return Result{}, &apperror.StateError{Operation: "canonicalize", Reason: "no ledger loaded"}
	}

	var res Result
	seen := make(map[string]struct{}, len(table.Rows))
	for _, row := range table.Rows {
		if isBlank(row.DocumentType) || isBlank(row.DocumentNumber) || isBlank(row.Administrator) {
			res.Dropped.MissingFields++
			continue
		}

		number, ok := CoerceDocumentNumber(row.DocumentNumber)
		if !ok {
			res.Dropped.InvalidNumber++
			c.logger.Debug("Dropping row with non-integer document number",
				logging.F("line", row.Line), logging.F("value", row.DocumentNumber))
			continue
		}

		docType := strings.ToUpper(strings.TrimSpace(row.DocumentType))
		invoiceID := docType + number

		// The first row claims its id even when it is dropped below.
		if _, dup := seen[invoiceID]; dup {
			res.Dropped.Duplicate++
			continue
		}
		seen[invoiceID] = struct{}{}

		administrator, ok := c.administrators.Lookup(row.Administrator)
		if !ok || administrator == "" {
			res.Dropped.UnmappedAdministrator++
			continue
		}
		contract, _ := c.contracts.Lookup(row.Contract)

		res.Records = append(res.Records, models.InvoiceRecord{
			DocumentTypeCode: docType,
			DocumentNumber:   number,
			InvoiceID:        invoiceID,
			Administrator:    administrator,
			Contract:         contract,
			Patient:          strings.TrimSpace(row.Patient),
			Operator:         strings.TrimSpace(row.Operator),
			TargetPath:       models.BuildTargetPath(administrator, contract, invoiceID),
		})
	}

	c.logger.Info("Ledger canonicalized",
		logging.F(logging.FieldCount, len(res.Records)),
		logging.F("dropped_missing_fields", res.Dropped.MissingFields),
		logging.F("dropped_invalid_number", res.Dropped.InvalidNumber),
		logging.F("dropped_unmapped_administrator", res.Dropped.UnmappedAdministrator),
		logging.F("dropped_duplicate", res.Dropped.Duplicate))
	return res, nil
}

// CoerceDocumentNumber returns the integer string form of a ledger number,
// undoing artifacts such as "354753.0" or "3.54753E5" from upstream numeric
// parsing. Fractional, negative or non-numeric values are rejected.
func CoerceDocumentNumber(raw string) (string, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	if !d.IsInteger() || d.IsNegative() {
		return "", false
	}
	return d.BigInt().String(), true
}

// InvoiceIDs returns the ids of records in order.
func InvoiceIDs(records []models.InvoiceRecord) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.InvoiceID
	}
	return ids
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
