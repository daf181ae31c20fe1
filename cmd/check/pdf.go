package check

import (
	"context"
	"fmt"
	"path/filepath"

	"fjacquet/invoice-reconciler/cmd/common"
	"fjacquet/invoice-reconciler/cmd/root"
	"fjacquet/invoice-reconciler/internal/container"
	"fjacquet/invoice-reconciler/internal/display"
	"fjacquet/invoice-reconciler/internal/fileutils"
	"fjacquet/invoice-reconciler/internal/report"

	"github.com/spf13/cobra"
)

// InvoiceCategory is the document category holding the electronic invoice.
const InvoiceCategory = "FACTURA"

func runCtx(fn func(context.Context, *container.Container, *display.Printer, Options, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c, err := root.MustContainer()
		if err != nil {
			return err
		}
		ctx, cancel := common.SignalContext()
		defer cancel()
		return fn(ctx, c, root.Printer(cmd), opts, args)
	}
}

var invalidCmd = &cobra.Command{
	Use:   "invalid",
	Short: "List PDFs that cannot be opened or have no pages",
	RunE:  runCtx(Invalid),
}

var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Check invoice PDFs for a text layer, the invoice code and the CUFE",
	Long: `Check every invoice document under the base: list the ones without a text
layer (and OCR them with --ocr), the ones whose text lacks the invoice code of
their file name, the ones without a CUFE reference, and the folders that hold
no invoice at all. Invoices failing a content check are written to the missing
files list used by fetch --files.`,
	RunE: runCtx(Invoices),
}

var textCmd = &cobra.Command{
	Use:   "text <needle>",
	Short: "List PDFs whose text contains a string, ignoring case and accents",
	Args:  cobra.ExactArgs(1),
	RunE:  runCtx(Text),
}

// Invalid lists PDFs the extractor cannot open.
func Invalid(ctx context.Context, c *container.Container, p *display.Printer, o Options, _ []string) error {
	dir, err := o.base(c)
	if err != nil {
		return err
	}
	pdfs, err := fileutils.ListFilesWithExtension(dir, ".pdf")
	if err != nil {
		return err
	}
	scanner, done := common.Scanner(c, p, len(pdfs), "checking PDFs")
	invalid := scanner.Invalid(ctx, pdfs)
	done()
	return common.ReportPaths(c, p, "Invalid PDFs", invalid, o.Export)
}

// Invoices runs the invoice content checks.
func Invoices(ctx context.Context, c *container.Container, p *display.Printer, o Options, _ []string) error {
	r, skip, err := prepare(c, o)
	if err != nil {
		return err
	}
	prefixes := c.GetProfile().CategoryPrefixes(InvoiceCategory)
	if len(prefixes) == 0 {
		return fmt.Errorf("hospital %s defines no %s prefixes", c.GetProfile().Name, InvoiceCategory)
	}
	files, err := r.FilesByPrefixes(prefixes)
	if err != nil {
		return err
	}
	files = fileutils.FilterExtension(files, ".pdf")
	p.Successf("%d invoice documents found", len(files))

	scanner, done := common.Scanner(c, p, len(files), "text layer")
	needOCR := scanner.NeedsOCR(ctx, files)
	done()
	p.List("Invoices without a text layer", needOCR)

	if o.OCR && len(needOCR) > 0 {
		tools, done := common.Tools(c, p, len(needOCR), "OCR")
		summary := tools.OCRBatch(ctx, needOCR)
		done()
		p.ToolSummary("OCR", summary)
	}

	scanner, done = common.Scanner(c, p, len(files), "invoice code")
	noCode := scanner.MissingEmbeddedCode(ctx, files)
	done()
	p.List("Invoices whose text lacks their code", noCode)

	scanner, done = common.Scanner(c, p, len(files), "CUFE")
	noCUFE := scanner.MissingInvoiceReference(ctx, files)
	done()
	p.List("Invoices without a CUFE", noCUFE)

	noInvoice, err := r.DirsMissingRequiredFile(prefixes, skip, false)
	if err != nil {
		return err
	}
	p.List("Folders without an invoice", noInvoice)

	refetch := baseNames(noCode, noCUFE)
	if len(refetch) > 0 {
		if err := report.WriteList(c.GetConfig().ReportPath(common.MissingFilesList), refetch); err != nil {
			return err
		}
	}
	if o.Export == "" {
		return nil
	}
	return common.ReportPaths(c, p, "Invoices to fetch again", refetch, o.Export)
}

// Text lists PDFs (or their folders) whose text contains args[0].
func Text(ctx context.Context, c *container.Container, p *display.Printer, o Options, args []string) error {
	dir, err := o.base(c)
	if err != nil {
		return err
	}
	var pdfs []string
	if len(o.Folders) > 0 {
		pdfs = c.NewReconciler(dir).FilesInFolders(o.Folders, ".pdf")
	} else if pdfs, err = fileutils.ListFilesWithExtension(dir, ".pdf"); err != nil {
		return err
	}

	scanner, done := common.Scanner(c, p, len(pdfs), "searching")
	found := scanner.FilesContainingText(ctx, pdfs, args[0], o.Parent)
	done()
	return common.ReportPaths(c, p, fmt.Sprintf("Matches for %q", args[0]), found, o.Export)
}

func baseNames(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, l := range lists {
		for _, f := range l {
			name := filepath.Base(f)
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}
