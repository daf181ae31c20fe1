// Package ocr adds text layers to scanned invoice documents and compresses them
package ocr

import (
	"context"

	"fjacquet/invoice-reconciler/cmd/check"
	"fjacquet/invoice-reconciler/cmd/common"
	"fjacquet/invoice-reconciler/cmd/root"
	"fjacquet/invoice-reconciler/internal/container"
	"fjacquet/invoice-reconciler/internal/display"
	"fjacquet/invoice-reconciler/internal/fileutils"

	"github.com/spf13/cobra"
)

// Options control one OCR run.
type Options struct {
	Dir      string
	All      bool
	Compress bool
}

var opts = Options{}

// Cmd represents the ocr command
var Cmd = &cobra.Command{
	Use:   "ocr",
	Short: "OCR invoice PDFs without a text layer",
	Long: `Find the invoice documents (or every PDF with --all) whose pages carry no
text and run ocrmypdf on them in place. With --compress the same documents are
then rewritten with Ghostscript; a rewrite that is not smaller is discarded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := root.MustContainer()
		if err != nil {
			return err
		}
		ctx, cancel := common.SignalContext()
		defer cancel()
		return Run(ctx, c, root.Printer(cmd), opts)
	},
}

func init() {
	Cmd.Flags().StringVarP(&opts.Dir, "dir", "d", "", "Directory to process (defaults to paths.staging)")
	Cmd.Flags().BoolVarP(&opts.All, "all", "a", false, "Process every PDF, not only invoices")
	Cmd.Flags().BoolVar(&opts.Compress, "compress", false, "Compress the documents afterwards")
}

// Run OCRs and optionally compresses the selected documents under the run lock.
func Run(ctx context.Context, c *container.Container, p *display.Printer, o Options) error {
	dir := o.Dir
	if dir == "" {
		dir = c.GetConfig().Paths.Staging
	}
	if err := fileutils.RequireDirectory(dir); err != nil {
		return err
	}
	if err := c.GetTools().CheckDependencies(); err != nil {
		p.Warnf("%v", err)
	}

	return common.WithLock(dir, c.GetLogger(), func() error {
		files, err := selectFiles(c, dir, o.All)
		if err != nil {
			return err
		}

		scanner, done := common.Scanner(c, p, len(files), "text layer")
		needOCR := scanner.NeedsOCR(ctx, files)
		done()
		p.List("Documents without a text layer", needOCR)

		if len(needOCR) > 0 {
			tools, done := common.Tools(c, p, len(needOCR), "OCR")
			summary := tools.OCRBatch(ctx, needOCR)
			done()
			p.ToolSummary("OCR", summary)
		}

		if o.Compress && len(files) > 0 {
			tools, done := common.Tools(c, p, len(files), "compress")
			summary := tools.CompressBatch(ctx, files)
			done()
			p.ToolSummary("Compression", summary)
		}
		return nil
	})
}

func selectFiles(c *container.Container, dir string, all bool) ([]string, error) {
	if all {
		return fileutils.ListFilesWithExtension(dir, ".pdf")
	}
	prefixes := c.GetProfile().CategoryPrefixes(check.InvoiceCategory)
	files, err := c.NewReconciler(dir).FilesByPrefixes(prefixes)
	if err != nil {
		return nil, err
	}
	return fileutils.FilterExtension(files, ".pdf"), nil
}
