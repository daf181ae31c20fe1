// Package fetch downloads missing invoice folders and documents from Google Drive
package fetch

import (
	"context"
	"strconv"

	"fjacquet/invoice-reconciler/cmd/common"
	"fjacquet/invoice-reconciler/cmd/root"
	"fjacquet/invoice-reconciler/internal/container"
	"fjacquet/invoice-reconciler/internal/display"
	"fjacquet/invoice-reconciler/internal/drive"
	"fjacquet/invoice-reconciler/internal/logging"
	"fjacquet/invoice-reconciler/internal/report"

	"github.com/spf13/cobra"
)

// Syncer downloads folders or files by name.
type Syncer interface {
	SyncMissingFolders(ctx context.Context, names []string, localRoot string) drive.Summary
	SyncSpecificFiles(ctx context.Context, names []string, localRoot string) drive.Summary
}

// Options control one fetch run.
type Options struct {
	Files bool
	List  string
}

var opts = Options{}

// Cmd represents the fetch command
var Cmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download missing invoice folders or files from Google Drive",
	Long: `Download from Google Drive the folders listed in the missing folders list
(written by check missing and organize) into paths.missing_folders, or with
--files the documents in the missing files list (written by check invoices)
into paths.missing_files. Local files are never overwritten. Use stage to
move the downloads into the staging directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := root.MustContainer()
		if err != nil {
			return err
		}
		ctx, cancel := common.SignalContext()
		defer cancel()
		fetcher, err := c.NewFetcher(ctx)
		if err != nil {
			return err
		}
		return Run(ctx, c, root.Printer(cmd), fetcher, opts)
	},
}

func init() {
	Cmd.Flags().BoolVar(&opts.Files, "files", false, "Download individual files instead of folders")
	Cmd.Flags().StringVarP(&opts.List, "list", "l", "", "Name list (defaults to the missing folders or files list)")
}

// Run reads the name list and syncs it into the matching download directory.
func Run(ctx context.Context, c *container.Container, p *display.Printer, s Syncer, o Options) error {
	cfg := c.GetConfig()
	list, dest, kind := cfg.ReportPath(common.MissingFoldersList), cfg.Paths.MissingFolders, "folders"
	if o.Files {
		list, dest, kind = cfg.ReportPath(common.MissingFilesList), cfg.Paths.MissingFiles, "files"
	}
	if o.List != "" {
		list = o.List
	}

	names, err := report.ReadList(list)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		p.Successf("no %s to fetch", kind)
		return nil
	}
	c.GetLogger().Info("Fetching from Drive",
		logging.F(logging.FieldFile, list),
		logging.F(logging.FieldCount, len(names)),
		logging.F(logging.FieldDest, dest))

	var summary drive.Summary
	if o.Files {
		summary = s.SyncSpecificFiles(ctx, names, dest)
	} else {
		summary = s.SyncMissingFolders(ctx, names, dest)
	}

	p.Titlef("Drive %s", kind)
	p.Table([]string{"Result", "Count"}, [][]string{
		{"Downloaded", strconv.Itoa(summary.Downloaded)},
		{"Already present", strconv.Itoa(summary.Skipped)},
		{"Failed", strconv.Itoa(summary.Failed)},
		{"Not found", strconv.Itoa(len(summary.NotFound))},
	}, display.AlignLeft, display.AlignRight)
	for _, e := range summary.Errors {
		p.Failf("%s", e)
	}
	p.List("Not found on Drive", summary.NotFound)
	return nil
}
