// Package organize moves staged invoice folders into the storage tree
package organize

import (
	"fjacquet/invoice-reconciler/cmd/common"
	"fjacquet/invoice-reconciler/cmd/root"
	"fjacquet/invoice-reconciler/internal/container"
	"fjacquet/invoice-reconciler/internal/display"
	"fjacquet/invoice-reconciler/internal/fileutils"
	"fjacquet/invoice-reconciler/internal/logging"
	"fjacquet/invoice-reconciler/internal/reconciler"
	"fjacquet/invoice-reconciler/internal/report"

	"github.com/spf13/cobra"
)

// Options control one organize run.
type Options struct {
	Ledger string
	Dest   string
	Force  bool
	Apply  bool
}

var opts = Options{}

// Cmd represents the organize command
var Cmd = &cobra.Command{
	Use:   "organize",
	Short: "Move staged invoice folders to their administrator/contract path",
	Long: `Match every canonical ledger record to a folder in the staging directory and
move it to <dest>/<administrator>/<contract>/<invoice>. Without --apply the
run is a dry run that reports what would move and which moves would collide.
Invoices with no staged folder are written to the missing folders list.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := root.MustContainer()
		if err != nil {
			return err
		}
		return Run(c, root.Printer(cmd), opts)
	},
}

func init() {
	Cmd.Flags().StringVarP(&opts.Ledger, "ledger", "l", "", "Ledger file (defaults to paths.ledger)")
	Cmd.Flags().StringVarP(&opts.Dest, "dest", "d", "", "Destination root (defaults to paths.storage)")
	Cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "Continue when labels are unmapped")
	Cmd.Flags().BoolVar(&opts.Apply, "apply", false, "Move folders instead of reporting a dry run")
}

// Run organizes the staging folders according to the ledger.
func Run(c *container.Container, p *display.Printer, o Options) error {
	cfg := c.GetConfig()
	ledgerPath := o.Ledger
	if ledgerPath == "" {
		ledgerPath = cfg.Paths.Ledger
	}
	dest := o.Dest
	if dest == "" {
		dest = cfg.Paths.Storage
	}
	staging := cfg.Paths.Staging
	if err := fileutils.RequireDirectory(staging); err != nil {
		return err
	}

	_, res, err := common.LoadLedger(c, ledgerPath, o.Force)
	if err != nil {
		return err
	}

	organize := func() error {
		idx, err := reconciler.IndexDirectory(staging, reconciler.Dirs)
		if err != nil {
			return err
		}
		summary := c.NewReconciler(staging).Organize(res.Records, idx, dest, !o.Apply)

		title := "Organize"
		if !o.Apply {
			title = "Organize (dry run)"
		}
		p.OperationSummary(title, summary)
		p.List("Invoices without a staged folder", summary.NotFoundIDs)

		if len(summary.NotFoundIDs) > 0 {
			list := cfg.ReportPath(common.MissingFoldersList)
			if err := report.WriteList(list, summary.NotFoundIDs); err != nil {
				return err
			}
			c.GetLogger().Info("Missing folder list written",
				logging.F(logging.FieldFile, list),
				logging.F(logging.FieldCount, len(summary.NotFoundIDs)))
		}
		return nil
	}

	if !o.Apply {
		return organize()
	}
	return common.WithLock(staging, c.GetLogger(), organize)
}
