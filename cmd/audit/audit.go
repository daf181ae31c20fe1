// Package audit handles the ledger audit command
package audit

import (
	"strconv"

	"fjacquet/invoice-reconciler/cmd/common"
	"fjacquet/invoice-reconciler/cmd/root"
	"fjacquet/invoice-reconciler/internal/container"
	"fjacquet/invoice-reconciler/internal/display"
	"fjacquet/invoice-reconciler/internal/ledger"
	"fjacquet/invoice-reconciler/internal/logging"
	"fjacquet/invoice-reconciler/internal/report"

	"github.com/spf13/cobra"
)

// Options control one audit run.
type Options struct {
	Ledger string
	Force  bool
	Export bool
}

var opts = Options{}

// Cmd represents the audit command
var Cmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit and canonicalize the invoice ledger",
	Long: `Load the invoice ledger, report administrator and contract labels that have
no mapping, and canonicalize the remaining rows into invoice records.
Unmapped labels stop the run unless --force is given. The canonical records
and the invoice id list are exported for the other commands.`,
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
	Cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "Continue when labels are unmapped")
	Cmd.Flags().BoolVar(&opts.Export, "export", true, "Write the audit report and the invoice list")
}

// Run audits and canonicalizes the ledger and exports the result.
func Run(c *container.Container, p *display.Printer, o Options) error {
	cfg := c.GetConfig()
	path := o.Ledger
	if path == "" {
		path = cfg.Paths.Ledger
	}

	audit, res, err := common.LoadLedger(c, path, o.Force)
	if !audit.IsEmpty() {
		p.List("Unmapped administrators", audit.MissingAdministrators)
		p.List("Unmapped contracts", audit.MissingContracts)
	}
	if err != nil {
		return err
	}

	p.Titlef("Ledger %s", path)
	p.Table([]string{"Rows", "Count"}, [][]string{
		{"Canonical records", strconv.Itoa(len(res.Records))},
		{"Missing fields", strconv.Itoa(res.Dropped.MissingFields)},
		{"Invalid number", strconv.Itoa(res.Dropped.InvalidNumber)},
		{"Unmapped administrator", strconv.Itoa(res.Dropped.UnmappedAdministrator)},
		{"Duplicate", strconv.Itoa(res.Dropped.Duplicate)},
	}, display.AlignLeft, display.AlignRight)

	if !o.Export {
		return nil
	}
	if _, err := c.GetReports().Export(res.Records, cfg.Paths.AuditReport); err != nil {
		return err
	}
	if err := report.WriteList(cfg.Paths.InvoiceList, ledger.InvoiceIDs(res.Records)); err != nil {
		return err
	}
	c.GetLogger().Info("Audit exported",
		logging.F(logging.FieldFile, cfg.Paths.AuditReport),
		logging.F(logging.FieldCount, len(res.Records)))
	p.Successf("%d records written to %s", len(res.Records), cfg.Paths.AuditReport)
	p.Successf("invoice list written to %s", cfg.Paths.InvoiceList)
	return nil
}
