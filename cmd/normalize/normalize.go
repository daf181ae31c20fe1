// Package normalize renames invoice documents to the canonical naming scheme
package normalize

import (
	"path/filepath"

	"fjacquet/invoice-reconciler/cmd/common"
	"fjacquet/invoice-reconciler/cmd/root"
	"fjacquet/invoice-reconciler/internal/container"
	"fjacquet/invoice-reconciler/internal/display"
	"fjacquet/invoice-reconciler/internal/fileutils"
	"fjacquet/invoice-reconciler/internal/lock"
	"fjacquet/invoice-reconciler/internal/models"

	"github.com/spf13/cobra"
)

// Options control one normalize run.
type Options struct {
	Dir          string
	DeleteNonPDF bool
	FixPrefixes  bool
	FixNIT       bool
	Export       bool
}

var opts = Options{}

// Cmd represents the normalize command
var Cmd = &cobra.Command{
	Use:   "normalize",
	Short: "Rename documents to PREFIX_NIT_ID.pdf",
	Long: `Rename every PDF below the staging directory whose name is not canonical to
PREFIX_NIT_ID.pdf, using the active hospital profile for the allowed prefixes,
the prefix corrections and the NIT. Existing files are never overwritten.
Files that are not PDFs are listed, or deleted with --delete-non-pdf.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := root.MustContainer()
		if err != nil {
			return err
		}
		return Run(c, root.Printer(cmd), opts)
	},
}

func init() {
	Cmd.Flags().StringVarP(&opts.Dir, "dir", "d", "", "Directory to normalize (defaults to paths.staging)")
	Cmd.Flags().BoolVar(&opts.DeleteNonPDF, "delete-non-pdf", false, "Delete files that are not PDFs")
	Cmd.Flags().BoolVar(&opts.FixPrefixes, "fix-prefixes", false, "Apply prefix corrections to every PDF first")
	Cmd.Flags().BoolVar(&opts.FixNIT, "fix-nit", false, "Replace a wrong NIT segment in every PDF first")
	Cmd.Flags().BoolVar(&opts.Export, "export", true, "Write the normalization report")
}

// Run normalizes the directory under the run lock.
func Run(c *container.Container, p *display.Printer, o Options) error {
	dir := o.Dir
	if dir == "" {
		dir = c.GetConfig().Paths.Staging
	}
	if err := fileutils.RequireDirectory(dir); err != nil {
		return err
	}
	return common.WithLock(dir, c.GetLogger(), func() error {
		return normalize(c, p, dir, o)
	})
}

func normalize(c *container.Container, p *display.Printer, dir string, o Options) error {
	r := c.NewReconciler(dir)
	profile := c.GetProfile()

	others, err := r.NonCompliantFiles(".pdf")
	if err != nil {
		return err
	}
	others = withoutLockFile(others)
	if o.DeleteNonPDF {
		p.Successf("deleted %d of %d non-PDF files", r.DeleteFiles(others), len(others))
	} else {
		p.List("Files that are not PDFs", others)
	}

	if o.FixPrefixes || o.FixNIT {
		pdfs, err := fileutils.ListFilesWithExtension(dir, ".pdf")
		if err != nil {
			return err
		}
		if o.FixPrefixes {
			p.Successf("prefix corrections applied to %d files", r.RenameByPrefixMap(pdfs, profile.Corrections()))
			if pdfs, err = fileutils.ListFilesWithExtension(dir, ".pdf"); err != nil {
				return err
			}
		}
		if o.FixNIT {
			p.Successf("NIT replaced in %d files", r.RenameByNIT(pdfs, profile.NIT))
		}
	}

	invalid, err := r.InvalidlyNamedFiles()
	if err != nil {
		return err
	}
	if len(invalid) == 0 {
		p.Successf("every PDF is named correctly")
		return nil
	}

	reports := c.GetNormalizer().Run(invalid)
	rows := make([][]string, len(reports))
	for i, rep := range reports {
		rows[i] = []string{filepath.Base(rep.OriginalPath), rep.NewName, string(rep.Status), rep.Reason}
	}
	p.Titlef("Normalization")
	p.Table([]string{"File", "New name", "Status", "Reason"}, rows)
	p.Tally(models.Tally(reports))

	if !o.Export {
		return nil
	}
	out := c.GetConfig().ReportPath(common.NormalizationReport)
	if _, err := c.GetReports().Export(reports, out); err != nil {
		return err
	}
	p.Successf("report written to %s", out)
	return nil
}

func withoutLockFile(files []string) []string {
	out := files[:0]
	for _, f := range files {
		if filepath.Base(f) != lock.FileName {
			out = append(out, f)
		}
	}
	return out
}
