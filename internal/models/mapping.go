// Package models holds the data types shared by the ledger, normalizer,
// reconciler and scanner components.
package models

import "sort"

// MappingTable maps a raw external label to its canonical short label. Keys are
// matched exactly as received (case and whitespace sensitive). A MappingTable is
// immutable once built and safe to share between goroutines.
type MappingTable struct {
	name    string
	entries map[string]string
}

// NewMappingTable copies entries into a new immutable table.
func NewMappingTable(name string, entries map[string]string) MappingTable {
	copied := make(map[string]string, len(entries))
	for k, v := range entries {
		copied[k] = v
	}
	return MappingTable{name: name, entries: copied}
}

// Name identifies the table in logs and reports.
func (m MappingTable) Name() string { return m.name }

// Lookup returns the canonical label for raw.
func (m MappingTable) Lookup(raw string) (string, bool) {
	v, ok := m.entries[raw]
	return v, ok
}

// Has reports whether raw is a key of the table.
func (m MappingTable) Has(raw string) bool {
	_, ok := m.entries[raw]
	return ok
}

// Len returns the number of entries.
func (m MappingTable) Len() int { return len(m.entries) }

// Keys returns the raw labels in sorted order.
func (m MappingTable) Keys() []string {
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
