package reconciler

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// EntityKind selects which children an index records.
type EntityKind int

const (
	Dirs EntityKind = iota
	Files
	All
)

func (k EntityKind) accepts(d fs.DirEntry) bool {
	switch k {
	case Dirs:
		return d.IsDir()
	case Files:
		return d.Type().IsRegular()
	default:
		return true
	}
}

// Index maps entity names to paths. It is a snapshot: it is never refreshed,
// so callers rebuild it after anything mutates the tree.
type Index struct {
	base       string
	entries    map[string]string
	names      []string
	duplicates map[string][]string
}

// IndexDirectory indexes the immediate children of base.
func IndexDirectory(base string, kind EntityKind) (Index, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		return Index{}, fmt.Errorf("failed to index %s: %w", base, err)
	}
	idx := newIndex(base)
	for _, e := range entries { // ReadDir is sorted by name
		if kind.accepts(e) {
			idx.add(e.Name(), filepath.Join(base, e.Name()))
		}
	}
	return idx, nil
}

// IndexTree indexes every entity below base. When two entities share a name,
// the first one in lexical walk order is indexed and the rest are recorded as
// duplicates.
func IndexTree(base string, kind EntityKind) (Index, error) {
	idx := newIndex(base)
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == base || !kind.accepts(d) {
			return nil
		}
		idx.add(d.Name(), path)
		return nil
	})
	if err != nil {
		return Index{}, fmt.Errorf("failed to index %s: %w", base, err)
	}
	return idx, nil
}

// NewIndexFromPaths builds an index over explicit paths, keyed by base name.
func NewIndexFromPaths(base string, paths []string) Index {
	idx := newIndex(base)
	for _, p := range paths {
		idx.add(filepath.Base(p), p)
	}
	return idx
}

func newIndex(base string) Index {
	return Index{
		base:       base,
		entries:    make(map[string]string),
		duplicates: make(map[string][]string),
	}
}

func (i *Index) add(name, path string) {
	if first, ok := i.entries[name]; ok {
		if len(i.duplicates[name]) == 0 {
			i.duplicates[name] = []string{first}
		}
		i.duplicates[name] = append(i.duplicates[name], path)
		return
	}
	i.entries[name] = path
	pos := sort.SearchStrings(i.names, name)
	i.names = append(i.names, "")
	copy(i.names[pos+1:], i.names[pos:])
	i.names[pos] = name
}

// Base returns the indexed root.
func (i Index) Base() string { return i.base }

// Len returns the number of distinct names.
func (i Index) Len() int { return len(i.names) }

// Names returns the indexed names in sorted order.
func (i Index) Names() []string {
	out := make([]string, len(i.names))
	copy(out, i.names)
	return out
}

// Path returns the path indexed under name.
func (i Index) Path(name string) (string, bool) {
	p, ok := i.entries[name]
	return p, ok
}

// Duplicates returns every name seen more than once with all its paths.
func (i Index) Duplicates() map[string][]string {
	out := make(map[string][]string, len(i.duplicates))
	for k, v := range i.duplicates {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Candidates returns the names containing id, compared case-insensitively,
// in sorted order.
func (i Index) Candidates(id string) []string {
	needle := strings.ToUpper(id)
	var out []string
	for _, name := range i.names {
		if strings.Contains(strings.ToUpper(name), needle) {
			out = append(out, name)
		}
	}
	return out
}

// Match resolves id to one indexed entity. A name equal to id wins; otherwise
// the first name containing id in sorted order wins. The full candidate list
// is returned so callers can report ambiguity.
func (i Index) Match(id string) (name string, candidates []string, ok bool) {
	candidates = i.Candidates(id)
	if len(candidates) == 0 {
		return "", nil, false
	}
	for _, c := range candidates {
		if strings.EqualFold(c, id) {
			return c, candidates, true
		}
	}
	return candidates[0], candidates, true
}

// SkipSet holds folder names an operator excludes from structural checks,
// such as voided invoices. Entries given as paths are reduced to their base name.
type SkipSet map[string]struct{}

// NewSkipSet builds a SkipSet from names or paths.
func NewSkipSet(entries ...string) SkipSet {
	s := make(SkipSet, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		s[filepath.Base(e)] = struct{}{}
	}
	return s
}

// Contains reports whether name is skipped.
func (s SkipSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Add merges more names or paths into the set.
func (s SkipSet) Add(entries ...string) {
	for e := range NewSkipSet(entries...) {
		s[e] = struct{}{}
	}
}
