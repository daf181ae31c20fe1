package reconciler

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"fjacquet/invoice-reconciler/internal/fileutils"
	"fjacquet/invoice-reconciler/internal/logging"
	"fjacquet/invoice-reconciler/internal/models"
)

var digitsOnly = regexp.MustCompile(`^\d+$`)

// NonCompliantFiles lists files below the base whose extension is not ext.
func (r *Reconciler) NonCompliantFiles(ext string) ([]string, error) {
	all, err := fileutils.ListFilesWithExtension(r.base, "")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, f := range all {
		if !strings.EqualFold(filepath.Ext(f), ext) {
			out = append(out, f)
		}
	}
	return out, nil
}

// DeleteFiles removes the given files and returns how many were removed.
// Failures are logged and do not stop the batch.
func (r *Reconciler) DeleteFiles(paths []string) int {
	deleted := 0
	for _, p := range paths {
		if err := os.Remove(p); err != nil {
			r.logger.WithError(err).Error("Delete failed", logging.F(logging.FieldFile, p))
			continue
		}
		deleted++
	}
	return deleted
}

// InvalidlyNamedFiles lists PDFs below the base whose name is not canonical.
func (r *Reconciler) InvalidlyNamedFiles() ([]string, error) {
	pdfs, err := fileutils.ListFilesWithExtension(r.base, ".pdf")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, f := range pdfs {
		if !r.norm.IsCanonical(filepath.Base(f)) {
			out = append(out, f)
		}
	}
	return out, nil
}

// FilesByPrefixes lists files below the base whose upper-cased name starts with
// one of prefixes.
func (r *Reconciler) FilesByPrefixes(prefixes []string) ([]string, error) {
	all, err := fileutils.ListFilesWithExtension(r.base, "")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, f := range all {
		name := strings.ToUpper(filepath.Base(f))
		for _, p := range prefixes {
			if strings.HasPrefix(name, strings.ToUpper(p)) {
				out = append(out, f)
				break
			}
		}
	}
	return out, nil
}

// RenameByPrefixMap swaps the part of each file name before the first
// underscore using table. Files without an underscore or an entry in table
// are left alone, as are renames whose target already exists.
func (r *Reconciler) RenameByPrefixMap(files []string, table models.MappingTable) int {
	renamed := 0
	for _, f := range files {
		name := filepath.Base(f)
		head, rest, found := strings.Cut(name, "_")
		if !found {
			continue
		}
		to, ok := table.Lookup(strings.ToUpper(head))
		if !ok {
			continue
		}
		if r.renameInPlace(f, to+"_"+rest) {
			renamed++
		}
	}
	return renamed
}

// ExtractNIT returns the second underscore-separated segment of name when it
// is numeric.
func ExtractNIT(name string) (string, bool) {
	parts := strings.SplitN(name, "_", 3)
	if len(parts) < 3 || !digitsOnly.MatchString(parts[1]) {
		return "", false
	}
	return parts[1], true
}

// RenameByNIT replaces the second underscore-separated segment of each name
// with nit when that segment is numeric and differs.
func (r *Reconciler) RenameByNIT(files []string, nit string) int {
	renamed := 0
	for _, f := range files {
		name := filepath.Base(f)
		current, ok := ExtractNIT(name)
		if !ok || current == nit {
			continue
		}
		parts := strings.SplitN(name, "_", 3)
		if r.renameInPlace(f, parts[0]+"_"+nit+"_"+parts[2]) {
			renamed++
		}
	}
	return renamed
}

func (r *Reconciler) renameInPlace(path, newName string) bool {
	if filepath.Base(path) == newName {
		return false
	}
	return r.Relocate(path, filepath.Join(filepath.Dir(path), newName))
}
