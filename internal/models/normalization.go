package models

// NormalizationStatus is the terminal state of one filename normalization.
type NormalizationStatus string

const (
	StatusSuccess  NormalizationStatus = "SUCCESS"
	StatusSkipped  NormalizationStatus = "SKIPPED"
	StatusRejected NormalizationStatus = "REJECTED"
	StatusError    NormalizationStatus = "ERROR"
)

// NotApplicable is the NewName of a report that produced no candidate name.
const NotApplicable = "N/A"

// Reasons attached to normalization reports.
const (
	ReasonNoIdentifier       = "no valid identifier"
	ReasonUnrecognizedPrefix = "unrecognized prefix"
	ReasonAlreadyCorrect     = "already correct"
	ReasonDestinationExists  = "destination exists"
	ReasonRenamed            = "renamed"
	ReasonNotAFile           = "not a regular file"
)

// NormalizationReport is the immutable outcome of normalizing one file.
type NormalizationReport struct {
	OriginalPath string              `csv:"Ruta original"`
	NewName      string              `csv:"Nuevo nombre"`
	Status       NormalizationStatus `csv:"Estado"`
	Reason       string              `csv:"Motivo"`
}

// NormalizationTally counts reports by status.
type NormalizationTally map[NormalizationStatus]int

// Tally counts reports by status.
func Tally(reports []NormalizationReport) NormalizationTally {
	t := NormalizationTally{}
	for _, r := range reports {
		t[r.Status]++
	}
	return t
}
