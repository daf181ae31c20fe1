// Package common contains shared functionality for command handlers
package common

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fjacquet/invoice-reconciler/internal/apperror"
	"fjacquet/invoice-reconciler/internal/container"
	"fjacquet/invoice-reconciler/internal/display"
	"fjacquet/invoice-reconciler/internal/ledger"
	"fjacquet/invoice-reconciler/internal/lock"
	"fjacquet/invoice-reconciler/internal/logging"
	"fjacquet/invoice-reconciler/internal/models"
	"fjacquet/invoice-reconciler/internal/reconciler"
	"fjacquet/invoice-reconciler/internal/report"
)

// Report file names written under paths.reports_dir.
const (
	AuditGapsReport     = "audit_gaps.xlsx"
	NormalizationReport = "normalization.xlsx"
	MissingFoldersList  = "missing_folders.txt"
	MissingFilesList    = "missing_files.txt"
)

// LoadLedger runs load, audit and canonicalize on the configured ledger.
// Unmapped labels are exported to the gaps report; unless force is set they
// stop the pipeline before any record is produced.
func LoadLedger(c *container.Container, path string, force bool) (models.AuditResult, ledger.Result, error) {
	log := c.GetLogger()

	table, err := c.GetLoader().Load(path)
	if err != nil {
		return models.AuditResult{}, ledger.Result{}, err
	}
	audit, err := c.GetCanonicalizer().Audit(table)
	if err != nil {
		return audit, ledger.Result{}, err
	}

	if !audit.IsEmpty() {
		gapsPath := c.GetConfig().ReportPath(AuditGapsReport)
		if _, err := c.GetReports().Export(audit.Gaps(), gapsPath); err != nil {
			log.WithError(err).Warn("Failed to export audit gaps", logging.F(logging.FieldFile, gapsPath))
		}
		if !force {
			return audit, ledger.Result{}, &apperror.StateError{
				Operation: "audit",
				Reason: fmt.Sprintf("%d administrators and %d contracts are unmapped, see %s",
					len(audit.MissingAdministrators), len(audit.MissingContracts), gapsPath),
			}
		}
		log.Warn("Continuing with unmapped labels", logging.F(logging.FieldReason, "forced"))
	}

	result, err := c.GetCanonicalizer().Canonicalize(table)
	return audit, result, err
}

// SkipSet builds the folders excluded from folder checks: the names listed in
// the skip list that exist under the reconciler's base, plus every cancelled
// folder.
func SkipSet(c *container.Container, r *reconciler.Reconciler) (reconciler.SkipSet, error) {
	names, err := report.ReadOptionalList(c.GetConfig().Paths.SkipList)
	if err != nil {
		return nil, err
	}
	listed, err := r.FoldersByName(names)
	if err != nil {
		return nil, err
	}
	cancelled, err := r.CancelledFolders()
	if err != nil {
		return nil, err
	}
	skip := reconciler.NewSkipSet(listed...)
	skip.Add(cancelled...)
	if len(skip) > 0 {
		c.GetLogger().Debug("Folders skipped", logging.F(logging.FieldCount, len(skip)))
	}
	return skip, nil
}

// WithLock runs fn while holding the run lock on dir.
func WithLock(dir string, log logging.Logger, fn func() error) error {
	l := lock.New(dir)
	if err := l.Acquire(); err != nil {
		return err
	}
	defer func() {
		if err := l.Release(); err != nil {
			log.WithError(err).Warn("Failed to release run lock")
		}
	}()
	return fn()
}

// ReportPaths prints a path list and, when export is set and the list is not
// empty, writes it to the named report.
func ReportPaths(c *container.Container, p *display.Printer, title string, paths []string, export string) error {
	p.List(title, paths)
	if export == "" {
		return nil
	}
	written, err := c.GetReports().Export(models.PathEntries(paths), export)
	if err != nil {
		return err
	}
	if written {
		p.Successf("report written to %s", export)
	}
	return nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM so in-flight
// tool runs are stopped and their temporary files removed.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
