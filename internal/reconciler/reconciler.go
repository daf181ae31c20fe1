// Package reconciler indexes the invoice folder tree, reports where it
// disagrees with the canonical invoice identities and moves folders and
// files into place without ever overwriting.
package reconciler

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"fjacquet/invoice-reconciler/internal/fileutils"
	"fjacquet/invoice-reconciler/internal/logging"
	"fjacquet/invoice-reconciler/internal/normalizer"
)

// Reconciler works on one base tree (usually the staging area).
type Reconciler struct {
	base   string
	suffix string
	norm   *normalizer.Normalizer

	folderGrammar *regexp.Regexp
	folderID      *regexp.Regexp
	stemID        *regexp.Regexp
	stemCode      *regexp.Regexp

	logger logging.Logger
}

// New creates a Reconciler rooted at base using the normalizer's naming rules.
func New(base string, norm *normalizer.Normalizer, logger logging.Logger) *Reconciler {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	qs := regexp.QuoteMeta(norm.Suffix())
	return &Reconciler{
		base:          base,
		suffix:        norm.Suffix(),
		norm:          norm,
		folderGrammar: regexp.MustCompile(`(?i)^` + qs + `\d{6}$`),
		folderID:      regexp.MustCompile(`(?i)` + qs + `[_\-]?(\d+)`),
		stemID:        regexp.MustCompile(`(?i)(` + qs + `\d+)$`),
		stemCode:      regexp.MustCompile(`(?i)(` + qs + `\d{4,})`),
		logger:        logger.WithField(logging.FieldComponent, "reconciler"),
	}
}

// Base returns the tree this reconciler operates on.
func (r *Reconciler) Base() string { return r.base }

// IsCanonicalFolder reports whether name is exactly SUFFIX plus six digits.
func (r *Reconciler) IsCanonicalFolder(name string) bool {
	return r.folderGrammar.MatchString(name)
}

// NormalizeFolderID reduces a folder name to SUFFIXDDDDDD when it contains
// the suffix followed by digits; other names are returned unchanged.
func (r *Reconciler) NormalizeFolderID(name string) string {
	m := r.folderID.FindStringSubmatch(name)
	if m == nil {
		return name
	}
	digits := m[1]
	if len(digits) < 6 {
		digits = strings.Repeat("0", 6-len(digits)) + digits
	}
	return r.suffix + digits[:6]
}

// InvoiceCode extracts SUFFIX plus at least four digits from a file stem,
// upper-cased.
func (r *Reconciler) InvoiceCode(path string) (string, bool) {
	m := r.stemCode.FindStringSubmatch(strings.ToUpper(fileutils.Stem(path)))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// FindMissing returns the expected ids that are not a substring of any indexed
// name, in input order. Substring matching tolerates annotated folder names
// such as HSL000001_REVISAR.
func FindMissing(expectedIDs []string, idx Index) []string {
	var missing []string
	for _, id := range expectedIDs {
		if len(idx.Candidates(id)) == 0 {
			missing = append(missing, id)
		}
	}
	return missing
}

// FindExtraOrMismatchedFolders lists the immediate subdirectories of base
// whose name is not exactly SUFFIXDDDDDD, ignoring skipped names.
func (r *Reconciler) FindExtraOrMismatchedFolders(base string, skip SkipSet) ([]string, error) {
	idx, err := IndexDirectory(base, Dirs)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, name := range idx.Names() {
		if skip.Contains(name) || r.IsCanonicalFolder(name) {
			continue
		}
		p, _ := idx.Path(name)
		out = append(out, p)
	}
	return out, nil
}

// VerifyRequiredFileExists reports whether dir holds at least one immediate
// file whose upper-cased name starts with one of prefixes. A skipped directory
// is reported as satisfied. Unreadable directories count as not satisfied.
func (r *Reconciler) VerifyRequiredFileExists(dir string, prefixes []string, skip SkipSet) bool {
	if skip.Contains(filepath.Base(dir)) {
		return true
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		r.logger.WithError(err).Warn("Cannot read directory", logging.F(logging.FieldFolder, dir))
		return false
	}
	upper := make([]string, len(prefixes))
	for i, p := range prefixes {
		upper[i] = strings.ToUpper(p)
	}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := strings.ToUpper(e.Name())
		for _, p := range upper {
			if strings.HasPrefix(name, p) {
				return true
			}
		}
	}
	return false
}

// DirsMissingRequiredFile lists directories under the base that fail
// VerifyRequiredFileExists. With recursive unset only immediate children are
// checked.
func (r *Reconciler) DirsMissingRequiredFile(prefixes []string, skip SkipSet, recursive bool) ([]string, error) {
	var (
		idx Index
		err error
	)
	if recursive {
		idx, err = IndexTree(r.base, Dirs)
	} else {
		idx, err = IndexDirectory(r.base, Dirs)
	}
	if err != nil {
		return nil, err
	}

	var missing []string
	check := func(p string) {
		if !r.VerifyRequiredFileExists(p, prefixes, skip) {
			missing = append(missing, p)
		}
	}
	for _, name := range idx.Names() {
		p, _ := idx.Path(name)
		check(p)
		for _, dup := range idx.Duplicates()[name] {
			if dup != p {
				check(dup)
			}
		}
	}
	return missing, nil
}

// FoldersMissingOnDisk returns the ids (compared after NormalizeFolderID) that
// have no folder directly under the base, in input order without repeats.
func (r *Reconciler) FoldersMissingOnDisk(ids []string) ([]string, error) {
	idx, err := IndexDirectory(r.base, Dirs)
	if err != nil {
		return nil, err
	}
	onDisk := make(map[string]struct{}, idx.Len())
	for _, name := range idx.Names() {
		onDisk[strings.ToUpper(r.NormalizeFolderID(name))] = struct{}{}
	}

	seen := make(map[string]struct{})
	var missing []string
	for _, id := range ids {
		key := strings.ToUpper(r.NormalizeFolderID(strings.TrimSpace(id)))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := onDisk[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing, nil
}

// FilesWithMismatchedFolderNames lists files whose stem ends in SUFFIX plus
// digits that differ from their parent folder's name. Only folders directly
// under the base and their immediate files are examined.
func (r *Reconciler) FilesWithMismatchedFolderNames(skip SkipSet) ([]string, error) {
	folders, err := IndexDirectory(r.base, Dirs)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, name := range folders.Names() {
		if skip.Contains(name) {
			continue
		}
		dir, _ := folders.Path(name)
		files, err := IndexDirectory(dir, Files)
		if err != nil {
			r.logger.WithError(err).Warn("Cannot read folder", logging.F(logging.FieldFolder, dir))
			continue
		}
		for _, fname := range files.Names() {
			m := r.stemID.FindStringSubmatch(fileutils.Stem(fname))
			if m == nil {
				continue
			}
			if !strings.EqualFold(m[1], name) {
				p, _ := files.Path(fname)
				out = append(out, p)
			}
		}
	}
	return out, nil
}

// CancelledFolders lists immediate subdirectories whose name contains ANULAR.
func (r *Reconciler) CancelledFolders() ([]string, error) {
	idx, err := IndexDirectory(r.base, Dirs)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, name := range idx.Names() {
		if strings.Contains(strings.ToUpper(name), "ANULAR") {
			p, _ := idx.Path(name)
			out = append(out, p)
		}
	}
	return out, nil
}

// FoldersByName returns the immediate subdirectories whose name is listed.
func (r *Reconciler) FoldersByName(names []string) ([]string, error) {
	idx, err := IndexDirectory(r.base, Dirs)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, n := range names {
		if p, ok := idx.Path(strings.TrimSpace(n)); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// FilesInFolders lists files with ext inside the named folders under the base.
// Missing folders are logged and skipped.
func (r *Reconciler) FilesInFolders(names []string, ext string) []string {
	var out []string
	for _, n := range names {
		dir := filepath.Join(r.base, strings.TrimSpace(n))
		files, err := fileutils.ListFilesWithExtension(dir, ext)
		if err != nil {
			r.logger.Warn("Folder missing or invalid", logging.F(logging.FieldFolder, dir))
			continue
		}
		out = append(out, files...)
	}
	return out
}
