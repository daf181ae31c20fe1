package models

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// PrefixSet holds the document prefixes of one document category. In YAML it
// may be written either as a single string or as a list of strings.
type PrefixSet []string

// UnmarshalYAML accepts a scalar or a sequence.
func (p *PrefixSet) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*p = PrefixSet{value.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*p = PrefixSet(list)
		return nil
	default:
		return fmt.Errorf("line %d: document prefixes must be a string or a list", value.Line)
	}
}

// HospitalProfile is the deployment-specific naming data for one hospital.
type HospitalProfile struct {
	Name              string               `yaml:"-"`
	NIT               string               `yaml:"nit"`
	InvoicePrefix     string               `yaml:"invoice_prefix"`
	DocumentStandards map[string]PrefixSet `yaml:"document_standards"`
	PrefixCorrections map[string]string    `yaml:"prefix_corrections"`
}

// Validate checks the profile has everything the normalizer needs.
func (h HospitalProfile) Validate() error {
	if strings.TrimSpace(h.NIT) == "" {
		return fmt.Errorf("hospital %s: nit is required", h.Name)
	}
	if strings.TrimSpace(h.InvoicePrefix) == "" {
		return fmt.Errorf("hospital %s: invoice_prefix is required", h.Name)
	}
	if len(h.Whitelist()) == 0 {
		return fmt.Errorf("hospital %s: document_standards defines no prefixes", h.Name)
	}
	for category, prefixes := range h.DocumentStandards {
		if len(prefixes) == 0 {
			return fmt.Errorf("hospital %s: document category %s has no prefixes", h.Name, category)
		}
	}
	return nil
}

// Whitelist flattens the document standards into one sorted, upper-cased
// set of allowed prefixes. Category provenance is discarded.
func (h HospitalProfile) Whitelist() []string {
	seen := make(map[string]struct{})
	for _, prefixes := range h.DocumentStandards {
		for _, p := range prefixes {
			p = strings.ToUpper(strings.TrimSpace(p))
			if p != "" {
				seen[p] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// CategoryPrefixes returns the prefixes of a single category (for example
// FACTURA) or nil when the category is unknown.
func (h HospitalProfile) CategoryPrefixes(category string) []string {
	return []string(h.DocumentStandards[strings.ToUpper(category)])
}

// Corrections returns the prefix-correction map as an immutable table with
// upper-cased keys and values.
func (h HospitalProfile) Corrections() MappingTable {
	upper := make(map[string]string, len(h.PrefixCorrections))
	for k, v := range h.PrefixCorrections {
		upper[strings.ToUpper(k)] = strings.ToUpper(v)
	}
	return NewMappingTable("prefix_corrections", upper)
}
