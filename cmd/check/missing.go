package check

import (
	"fjacquet/invoice-reconciler/cmd/common"
	"fjacquet/invoice-reconciler/internal/container"
	"fjacquet/invoice-reconciler/internal/display"
	"fjacquet/invoice-reconciler/internal/logging"
	"fjacquet/invoice-reconciler/internal/reconciler"
	"fjacquet/invoice-reconciler/internal/report"

	"github.com/spf13/cobra"
)

var missingCmd = &cobra.Command{
	Use:   "missing",
	Short: "List invoices from the invoice list that have no folder on disk",
	Long: `Compare the invoice id list written by audit with the folders on disk.
By default an id is present when any folder name at any depth contains it;
with --normalized only folders directly under the base count and both sides
are reduced to the invoice prefix plus six digits. The result is written to
the missing folders list used by fetch.`,
	RunE: runE(Missing),
}

// Missing lists expected invoice ids with no folder and saves them for fetch.
func Missing(c *container.Container, p *display.Printer, o Options) error {
	dir, err := o.base(c)
	if err != nil {
		return err
	}
	list := o.List
	if list == "" {
		list = c.GetConfig().Paths.InvoiceList
	}
	ids, err := report.ReadList(list)
	if err != nil {
		return err
	}

	var missing []string
	if o.Normalized {
		missing, err = c.NewReconciler(dir).FoldersMissingOnDisk(ids)
	} else {
		var idx reconciler.Index
		if idx, err = reconciler.IndexTree(dir, reconciler.Dirs); err == nil {
			missing = reconciler.FindMissing(ids, idx)
		}
	}
	if err != nil {
		return err
	}

	if err := common.ReportPaths(c, p, "Invoices missing on disk", missing, o.Export); err != nil {
		return err
	}
	out := c.GetConfig().ReportPath(common.MissingFoldersList)
	if err := report.WriteList(out, missing); err != nil {
		return err
	}
	c.GetLogger().Info("Missing folder list written",
		logging.F(logging.FieldFile, out),
		logging.F(logging.FieldCount, len(missing)))
	return nil
}
