// Package normalizer renames invoice documents to the canonical
// PREFIX_NIT_SUFFIXDDDDDD.pdf form, one file at a time.
package normalizer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"fjacquet/invoice-reconciler/internal/logging"
	"fjacquet/invoice-reconciler/internal/models"
)

var leadingLetters = regexp.MustCompile(`^([a-zA-Z]+)`)

// Normalizer holds the per-hospital naming rules. It keeps no state between
// files and is safe for concurrent use.
type Normalizer struct {
	nit         string
	suffix      string
	whitelist   map[string]struct{}
	corrections models.MappingTable

	folderID  *regexp.Regexp
	fileID    *regexp.Regexp
	canonical *regexp.Regexp

	logger logging.Logger
}

// New builds a Normalizer from a hospital profile.
func New(profile models.HospitalProfile, logger logging.Logger) (*Normalizer, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	suffix := strings.ToUpper(strings.TrimSpace(profile.InvoicePrefix))
	nit := strings.TrimSpace(profile.NIT)
	prefixes := profile.Whitelist()

	whitelist := make(map[string]struct{}, len(prefixes))
	quoted := make([]string, len(prefixes))
	for i, p := range prefixes {
		whitelist[p] = struct{}{}
		quoted[i] = regexp.QuoteMeta(p)
	}
	qs := regexp.QuoteMeta(suffix)

	return &Normalizer{
		nit:         nit,
		suffix:      suffix,
		whitelist:   whitelist,
		corrections: profile.Corrections(),
		// The folder name is trusted: exactly six digits, not part of a longer run.
		folderID: regexp.MustCompile(`(?i)` + qs + `[-_ ]?(\d{6})(?:\D|$)`),
		fileID:   regexp.MustCompile(`(?i)` + qs + `[-_ ]?(\d{5,7})`),
		canonical: regexp.MustCompile(`(?i)^(` + strings.Join(quoted, "|") + `)_` +
			regexp.QuoteMeta(nit) + `_` + qs + `(\d{6})\.pdf$`),
		logger: logger.WithField(logging.FieldComponent, "normalizer"),
	}, nil
}

// Suffix returns the invoice prefix constant (for example HSL).
func (n *Normalizer) Suffix() string { return n.suffix }

// NIT returns the tax identifier embedded in canonical names.
func (n *Normalizer) NIT() string { return n.nit }

// IsCanonical reports whether name matches the canonical filename grammar.
func (n *Normalizer) IsCanonical(name string) bool {
	return n.canonical.MatchString(name)
}

// ExtractIdentifier returns the six-digit invoice number for the file at path.
// The parent folder name is searched first; the file name is the fallback and
// its five to seven digits are left-padded and truncated to six.
func (n *Normalizer) ExtractIdentifier(path string) (string, bool) {
	if m := n.folderID.FindStringSubmatch(filepath.Base(filepath.Dir(path))); m != nil {
		return m[1], true
	}
	if m := n.fileID.FindStringSubmatch(filepath.Base(path)); m != nil {
		digits := m[1]
		if len(digits) < 6 {
			digits = strings.Repeat("0", 6-len(digits)) + digits
		}
		return digits[:6], true
	}
	return "", false
}

// CorrectPrefix returns the upper-cased leading letters of name after the
// prefix-correction map has been applied. It returns "" when name does not
// start with a letter.
func (n *Normalizer) CorrectPrefix(name string) string {
	m := leadingLetters.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	prefix := strings.ToUpper(m[1])
	if fixed, ok := n.corrections.Lookup(prefix); ok {
		return fixed
	}
	return prefix
}

// Allowed reports whether prefix is in the whitelist.
func (n *Normalizer) Allowed(prefix string) bool {
	_, ok := n.whitelist[prefix]
	return ok
}

// CanonicalName composes PREFIX_NIT_SUFFIXDDDDDD.pdf.
func (n *Normalizer) CanonicalName(prefix, id string) string {
	return fmt.Sprintf("%s_%s_%s%s.pdf", prefix, n.nit, n.suffix, id)
}

// Propose computes the canonical name for path without touching the disk.
// On failure it returns the rejection reason.
func (n *Normalizer) Propose(path string) (string, string, bool) {
	id, ok := n.ExtractIdentifier(path)
	if !ok {
		return "", models.ReasonNoIdentifier, false
	}
	prefix := n.CorrectPrefix(filepath.Base(path))
	if !n.Allowed(prefix) {
		return "", fmt.Sprintf("%s %q", models.ReasonUnrecognizedPrefix, prefix), false
	}
	return n.CanonicalName(prefix, id), "", true
}

// Normalize runs the state machine on one file. The only side effect is the
// final rename, and an existing destination is never overwritten.
func (n *Normalizer) Normalize(path string) models.NormalizationReport {
	report := models.NormalizationReport{OriginalPath: path, NewName: models.NotApplicable}

	info, err := os.Stat(path)
	if err != nil {
		report.Status = models.StatusError
		report.Reason = err.Error()
		return report
	}
	if !info.Mode().IsRegular() {
		report.Status = models.StatusSkipped
		report.Reason = models.ReasonNotAFile
		return report
	}

	newName, reason, ok := n.Propose(path)
	if !ok {
		report.Status = models.StatusRejected
		report.Reason = reason
		return report
	}
	report.NewName = newName

	if filepath.Base(path) == newName {
		report.Status = models.StatusSkipped
		report.Reason = models.ReasonAlreadyCorrect
		return report
	}

	dest := filepath.Join(filepath.Dir(path), newName)
	if destInfo, err := os.Stat(dest); err == nil {
		// A case-only rename on a case-insensitive filesystem sees itself.
		if !os.SameFile(info, destInfo) {
			report.Status = models.StatusRejected
			report.Reason = models.ReasonDestinationExists
			return report
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		report.Status = models.StatusError
		report.Reason = err.Error()
		return report
	}

	if err := os.Rename(path, dest); err != nil {
		report.Status = models.StatusError
		report.Reason = err.Error()
		return report
	}
	report.Status = models.StatusSuccess
	report.Reason = models.ReasonRenamed
	return report
}

// Run normalizes every path in order. A failure on one file never stops the
// batch; each file yields exactly one report.
func (n *Normalizer) Run(paths []string) []models.NormalizationReport {
	reports := make([]models.NormalizationReport, 0, len(paths))
	for _, p := range paths {
		r := n.Normalize(p)
		if r.Status == models.StatusError {
			n.logger.Warn("Normalization failed",
				logging.F(logging.FieldFile, p),
				logging.F(logging.FieldReason, r.Reason))
		} else {
			n.logger.Debug("Normalized file",
				logging.F(logging.FieldFile, p),
				logging.F(logging.FieldStatus, string(r.Status)),
				logging.F(logging.FieldReason, r.Reason))
		}
		reports = append(reports, r)
	}

	tally := models.Tally(reports)
	n.logger.Info("Normalization finished",
		logging.F(logging.FieldCount, len(reports)),
		logging.F("success", tally[models.StatusSuccess]),
		logging.F("skipped", tally[models.StatusSkipped]),
		logging.F("rejected", tally[models.StatusRejected]),
		logging.F("error", tally[models.StatusError]))
	return reports
}
