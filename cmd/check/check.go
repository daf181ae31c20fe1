// Package check groups the read-only consistency checks over an invoice tree
package check

import (
	"fmt"
	"strings"

	"fjacquet/invoice-reconciler/cmd/common"
	"fjacquet/invoice-reconciler/cmd/root"
	"fjacquet/invoice-reconciler/internal/container"
	"fjacquet/invoice-reconciler/internal/display"
	"fjacquet/invoice-reconciler/internal/fileutils"
	"fjacquet/invoice-reconciler/internal/reconciler"

	"github.com/spf13/cobra"
)

// Options are shared by the check subcommands; each reads the fields it needs.
type Options struct {
	Dir        string
	Export     string
	Category   string
	Recursive  bool
	List       string
	Normalized bool
	OCR        bool
	Folders    []string
	Parent     bool
}

var opts = Options{}

// Cmd represents the check command
var Cmd = &cobra.Command{
	Use:   "check",
	Short: "Check the invoice tree against the naming rules and the ledger",
	Long: `Run read-only checks over the staging directory (or --dir): folder names,
files filed in the wrong folder, invoices missing on disk, folders without a
required document, unreadable PDFs and invoice PDF contents.`,
}

func init() {
	Cmd.PersistentFlags().StringVarP(&opts.Dir, "dir", "d", "", "Directory to check (defaults to paths.staging)")
	Cmd.PersistentFlags().StringVarP(&opts.Export, "export", "e", "", "Write the result list to this report file")

	requiredCmd.Flags().StringVar(&opts.Category, "category", "FACTURA", "Document category that must be present")
	requiredCmd.Flags().BoolVarP(&opts.Recursive, "recursive", "r", false, "Check nested folders too")
	missingCmd.Flags().StringVarP(&opts.List, "list", "l", "", "Invoice id list (defaults to paths.invoice_list)")
	missingCmd.Flags().BoolVar(&opts.Normalized, "normalized", false, "Compare six-digit folder ids instead of substrings")
	invoicesCmd.Flags().BoolVar(&opts.OCR, "ocr", false, "Run OCR on invoices without a text layer")
	textCmd.Flags().StringSliceVar(&opts.Folders, "folders", nil, "Only search these folders")
	textCmd.Flags().BoolVar(&opts.Parent, "parent", false, "Report the containing folder instead of the file")

	Cmd.AddCommand(foldersCmd, mismatchedCmd, missingCmd, requiredCmd, invalidCmd, invoicesCmd, textCmd)
}

func runE(fn func(*container.Container, *display.Printer, Options) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c, err := root.MustContainer()
		if err != nil {
			return err
		}
		return fn(c, root.Printer(cmd), opts)
	}
}

var foldersCmd = &cobra.Command{
	Use:   "folders",
	Short: "List folders whose name is not the invoice prefix plus six digits",
	RunE:  runE(Folders),
}

var mismatchedCmd = &cobra.Command{
	Use:   "mismatched",
	Short: "List files whose invoice number differs from their folder",
	RunE:  runE(Mismatched),
}

var requiredCmd = &cobra.Command{
	Use:   "required",
	Short: "List folders without a document of the given category",
	RunE:  runE(Required),
}

func (o Options) base(c *container.Container) (string, error) {
	dir := o.Dir
	if dir == "" {
		dir = c.GetConfig().Paths.Staging
	}
	return dir, fileutils.RequireDirectory(dir)
}

func prepare(c *container.Container, o Options) (*reconciler.Reconciler, reconciler.SkipSet, error) {
	dir, err := o.base(c)
	if err != nil {
		return nil, nil, err
	}
	r := c.NewReconciler(dir)
	skip, err := common.SkipSet(c, r)
	if err != nil {
		return nil, nil, err
	}
	return r, skip, nil
}

// Folders lists non-canonical folder names under the base.
func Folders(c *container.Container, p *display.Printer, o Options) error {
	r, skip, err := prepare(c, o)
	if err != nil {
		return err
	}
	found, err := r.FindExtraOrMismatchedFolders(r.Base(), skip)
	if err != nil {
		return err
	}
	return common.ReportPaths(c, p, "Folders with extra or mismatched names", found, o.Export)
}

// Mismatched lists files filed under another invoice's folder.
func Mismatched(c *container.Container, p *display.Printer, o Options) error {
	r, skip, err := prepare(c, o)
	if err != nil {
		return err
	}
	found, err := r.FilesWithMismatchedFolderNames(skip)
	if err != nil {
		return err
	}
	return common.ReportPaths(c, p, "Files whose invoice number differs from the folder", found, o.Export)
}

// Required lists folders lacking a document of o.Category.
func Required(c *container.Container, p *display.Printer, o Options) error {
	r, skip, err := prepare(c, o)
	if err != nil {
		return err
	}
	prefixes := c.GetProfile().CategoryPrefixes(o.Category)
	if len(prefixes) == 0 {
		return fmt.Errorf("unknown document category: %s", o.Category)
	}
	found, err := r.DirsMissingRequiredFile(prefixes, skip, o.Recursive)
	if err != nil {
		return err
	}
	return common.ReportPaths(c, p, "Folders without "+strings.ToUpper(o.Category), found, o.Export)
}
