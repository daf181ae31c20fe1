package reconciler

import (
	"fmt"
	"path/filepath"
	"strings"

	"fjacquet/invoice-reconciler/internal/apperror"
	"fjacquet/invoice-reconciler/internal/fileutils"
	"fjacquet/invoice-reconciler/internal/logging"
	"fjacquet/invoice-reconciler/internal/models"
)

// Relocation actions for CopyOrMoveFolders.
const (
	ActionCopy = "copy"
	ActionMove = "move"
)

// Relocate moves src to dest, creating dest's parents. It never overwrites:
// an existing dest, a missing src or any filesystem error yields false and a
// log line.
func (r *Reconciler) Relocate(src, dest string) bool {
	return r.relocate(src, dest) == nil
}

func (r *Reconciler) relocate(src, dest string) error {
	if err := fileutils.Move(src, dest); err != nil {
		r.logger.WithError(err).Error("Relocation failed",
			logging.F(logging.FieldSource, src),
			logging.F(logging.FieldDest, dest))
		return err
	}
	r.logger.Debug("Relocated",
		logging.F(logging.FieldSource, src),
		logging.F(logging.FieldDest, dest))
	return nil
}

// Organize moves each record's staging folder to
// finalBase/administrator/contract/invoiceID. The index is a snapshot taken
// before the run. With dryRun set nothing moves; collisions and double claims
// are still predicted so the summary matches what a real run would report.
func (r *Reconciler) Organize(records []models.InvoiceRecord, staging Index, finalBase string, dryRun bool) models.OperationSummary {
	var summary models.OperationSummary
	claimed := make(map[string]string)

	for _, rec := range records {
		name, candidates, ok := staging.Match(rec.InvoiceID)
		if !ok {
			summary.AddNotFound(rec.InvoiceID)
			continue
		}
		if len(candidates) > 1 {
			r.logger.Warn("Several staging folders match invoice, using first",
				logging.F(logging.FieldInvoiceID, rec.InvoiceID),
				logging.F(logging.FieldFolder, name),
				logging.F(logging.FieldCandidates, candidates))
		}

		src, _ := staging.Path(name)
		dest := filepath.Join(finalBase, filepath.FromSlash(
			models.BuildTargetPath(rec.Administrator, rec.Contract, rec.InvoiceID)))

		if by, taken := claimed[src]; taken {
			summary.AddFailure("Move failed: %s: folder %s already used by %s", rec.InvoiceID, name, by)
			continue
		}
		claimed[src] = rec.InvoiceID

		if dryRun {
			if fileutils.Exists(dest) {
				summary.AddFailure("Move failed: %s: %v", rec.InvoiceID, &apperror.CollisionError{Path: dest})
				continue
			}
			r.logger.Info("Would move",
				logging.F(logging.FieldInvoiceID, rec.InvoiceID),
				logging.F(logging.FieldSource, src),
				logging.F(logging.FieldDest, dest))
			summary.AddMoved()
			continue
		}

		if err := r.relocate(src, dest); err != nil {
			summary.AddFailure("Move failed: %s: %v", rec.InvoiceID, err)
			continue
		}
		summary.AddMoved()
	}

	r.logger.Info("Organize finished",
		logging.F("moved", summary.Moved),
		logging.F("failed", summary.Failed),
		logging.F("not_found", summary.NotFound),
		logging.F("dry_run", dryRun))
	return summary
}

// CopyOrMoveFolders copies or moves the named folders from srcRoot to dstRoot.
// Every name is accounted for: missing sources are NotFound and existing
// destinations are failures.
func (r *Reconciler) CopyOrMoveFolders(names []string, srcRoot, dstRoot, action string) (models.OperationSummary, error) {
	var summary models.OperationSummary
	if action != ActionCopy && action != ActionMove {
		return summary, fmt.Errorf("invalid action %q: use %s or %s", action, ActionCopy, ActionMove)
	}
	if err := fileutils.RequireDirectory(srcRoot); err != nil {
		return summary, err
	}
	if err := fileutils.EnsureDirectoryExists(dstRoot); err != nil {
		return summary, err
	}

	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		src := filepath.Join(srcRoot, name)
		dest := filepath.Join(dstRoot, name)
		if !fileutils.DirectoryExists(src) {
			summary.AddNotFound(name)
			summary.Errors = append(summary.Errors, "Not found: "+name)
			continue
		}
		if fileutils.Exists(dest) {
			summary.AddFailure("Destination exists: %s", name)
			continue
		}

		var err error
		if action == ActionCopy {
			err = fileutils.Copy(src, dest, false)
		} else {
			err = fileutils.Move(src, dest)
		}
		if err != nil {
			summary.AddFailure("%s failed: %s: %v", action, name, err)
			continue
		}
		summary.AddMoved()
	}
	return summary, nil
}

// MoveFilesToFolders sorts the files found anywhere below srcDir into the base
// tree. The third underscore-separated part of the stem names the destination
// folder, which must already exist.
func (r *Reconciler) MoveFilesToFolders(srcDir string) (models.OperationSummary, error) {
	var summary models.OperationSummary
	files, err := fileutils.ListFilesWithExtension(srcDir, "")
	if err != nil {
		return summary, err
	}

	for _, src := range files {
		name := filepath.Base(src)
		parts := strings.Split(fileutils.Stem(name), "_")
		if len(parts) < 3 || parts[2] == "" {
			summary.AddFailure("Invalid name: %s", name)
			continue
		}
		folder := filepath.Join(r.base, parts[2])
		if !fileutils.DirectoryExists(folder) {
			summary.AddNotFound(parts[2])
			r.logger.Warn("Destination folder missing",
				logging.F(logging.FieldFile, src),
				logging.F(logging.FieldFolder, folder))
			continue
		}
		if err := r.relocate(src, filepath.Join(folder, name)); err != nil {
			summary.AddFailure("Move failed: %s: %v", name, err)
			continue
		}
		summary.AddMoved()
	}
	return summary, nil
}
