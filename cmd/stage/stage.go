// Package stage brings invoice folders and documents into the staging directory
package stage

import (
	"fjacquet/invoice-reconciler/cmd/common"
	"fjacquet/invoice-reconciler/cmd/root"
	"fjacquet/invoice-reconciler/internal/container"
	"fjacquet/invoice-reconciler/internal/display"
	"fjacquet/invoice-reconciler/internal/fileutils"
	"fjacquet/invoice-reconciler/internal/reconciler"

	"github.com/spf13/cobra"
)

// Options control one stage run.
type Options struct {
	From           string
	Prefix         bool
	MissingFolders bool
	MissingFiles   bool
	Copy           bool
}

var opts = Options{}

// Cmd represents the stage command
var Cmd = &cobra.Command{
	Use:   "stage",
	Short: "Collect invoice folders and documents into the staging directory",
	Long: `Collect material into the staging directory:
  --from DIR         copy every folder below DIR that holds files, merging
                     folders of the same name (--prefix adds the parent name)
  --missing-folders  move the folders downloaded by fetch into staging
  --missing-files    file the documents downloaded by fetch --files into the
                     folder named by the third part of their name
Existing folders and files in staging are never overwritten, except that
--from merges into a folder of the same name.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := root.MustContainer()
		if err != nil {
			return err
		}
		return Run(c, root.Printer(cmd), opts)
	},
}

func init() {
	Cmd.Flags().StringVar(&opts.From, "from", "", "Copy content folders from this directory")
	Cmd.Flags().BoolVar(&opts.Prefix, "prefix", false, "Prefix copied folder names with their parent folder")
	Cmd.Flags().BoolVar(&opts.MissingFolders, "missing-folders", false, "Move downloaded folders into staging")
	Cmd.Flags().BoolVar(&opts.MissingFiles, "missing-files", false, "File downloaded documents into their folders")
	Cmd.Flags().BoolVar(&opts.Copy, "copy", false, "Copy downloaded folders instead of moving them")
}

// Run performs the selected staging steps under the run lock.
func Run(c *container.Container, p *display.Printer, o Options) error {
	if o.From == "" && !o.MissingFolders && !o.MissingFiles {
		p.Warnf("nothing to do: use --from, --missing-folders or --missing-files")
		return nil
	}
	cfg := c.GetConfig()
	staging := cfg.Paths.Staging
	if err := fileutils.EnsureDirectoryExists(staging); err != nil {
		return err
	}
	r := c.NewReconciler(staging)

	return common.WithLock(staging, c.GetLogger(), func() error {
		if o.From != "" {
			folders, err := reconciler.ContentFolders(o.From)
			if err != nil {
				return err
			}
			p.OperationSummary("Consolidate "+o.From, r.ConsolidateFolders(folders, staging, o.Prefix))
		}

		if o.MissingFolders {
			src := cfg.Paths.MissingFolders
			idx, err := reconciler.IndexDirectory(src, reconciler.Dirs)
			if err != nil {
				return err
			}
			action := reconciler.ActionMove
			if o.Copy {
				action = reconciler.ActionCopy
			}
			summary, err := r.CopyOrMoveFolders(idx.Names(), src, staging, action)
			if err != nil {
				return err
			}
			p.OperationSummary("Downloaded folders", summary)
		}

		if o.MissingFiles {
			summary, err := r.MoveFilesToFolders(cfg.Paths.MissingFiles)
			if err != nil {
				return err
			}
			p.OperationSummary("Downloaded files", summary)
		}
		return nil
	})
}
