package models

import "fmt"

// OperationSummary aggregates the outcome of a bulk relocation.
type OperationSummary struct {
	Moved       int
	Failed      int
	NotFound    int
	Errors      []string
	NotFoundIDs []string
}

// AddMoved counts a successful (or simulated) move.
func (s *OperationSummary) AddMoved() { s.Moved++ }

// AddFailure counts a failed move and records its message.
func (s *OperationSummary) AddFailure(format string, args ...interface{}) {
	s.Failed++
	s.Errors = append(s.Errors, fmt.Sprintf(format, args...))
}

// AddNotFound counts an identifier with no matching entity.
func (s *OperationSummary) AddNotFound(id string) {
	s.NotFound++
	s.NotFoundIDs = append(s.NotFoundIDs, id)
}

// Total is the number of items the operation accounted for.
func (s OperationSummary) Total() int {
	return s.Moved + s.Failed + s.NotFound
}

// ToolSummary aggregates the outcome of an external tool batch.
type ToolSummary struct {
	OK         int
	Failed     int
	Failures   []string
	BytesSaved int64
}

// PathEntry is the report row form of a plain list of paths.
type PathEntry struct {
	Path string `csv:"Ruta"`
}

// PathEntries converts paths to report rows.
func PathEntries(paths []string) []PathEntry {
	rows := make([]PathEntry, len(paths))
	for i, p := range paths {
		rows[i] = PathEntry{Path: p}
	}
	return rows
}
