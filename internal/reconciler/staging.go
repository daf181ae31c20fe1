package reconciler

import (
	"io/fs"
	"os"
	"path/filepath"

	"fjacquet/invoice-reconciler/internal/fileutils"
	"fjacquet/invoice-reconciler/internal/logging"
	"fjacquet/invoice-reconciler/internal/models"
)

// ContentFolders lists the directories below root, root excluded, that hold at
// least one regular file directly.
func ContentFolders(root string) ([]string, error) {
	if err := fileutils.RequireDirectory(root); err != nil {
		return nil, err
	}
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() || path == root {
			return nil
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.Type().IsRegular() {
				out = append(out, path)
				break
			}
		}
		return nil
	})
	return out, err
}

// ConsolidateFolders copies each folder directly under targetRoot, merging into
// a folder of the same name. With usePrefix set the destination name is
// prefixed with the source's parent folder name.
func (r *Reconciler) ConsolidateFolders(folders []string, targetRoot string, usePrefix bool) models.OperationSummary {
	var summary models.OperationSummary
	if err := fileutils.EnsureDirectoryExists(targetRoot); err != nil {
		summary.AddFailure("%v", err)
		return summary
	}
	for _, folder := range folders {
		name := filepath.Base(folder)
		if usePrefix {
			name = filepath.Base(filepath.Dir(folder)) + "_" + name
		}
		dest := filepath.Join(targetRoot, name)
		if err := fileutils.Copy(folder, dest, true); err != nil {
			r.logger.WithError(err).Error("Consolidation failed",
				logging.F(logging.FieldSource, folder),
				logging.F(logging.FieldDest, dest))
			summary.AddFailure("Copy failed: %s", folder)
			continue
		}
		summary.AddMoved()
	}
	return summary
}
