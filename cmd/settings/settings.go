// Package settings shows the effective configuration
package settings

import (
	"strconv"
	"strings"

	"fjacquet/invoice-reconciler/cmd/root"
	"fjacquet/invoice-reconciler/internal/container"
	"fjacquet/invoice-reconciler/internal/display"

	"github.com/spf13/cobra"
)

// Cmd represents the config command
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the configuration after defaults, the config file and INVREC_*
environment variables have been applied, together with the active hospital
profile and the size of the mapping tables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := root.MustContainer()
		if err != nil {
			return err
		}
		Run(c, root.Printer(cmd))
		return nil
	},
}

// Run prints the configuration tables.
func Run(c *container.Container, p *display.Printer) {
	cfg := c.GetConfig()
	profile := c.GetProfile()

	p.Titlef("Paths")
	p.Table([]string{"Setting", "Value"}, [][]string{
		{"root", cfg.Paths.Root},
		{"storage", cfg.Paths.Storage},
		{"staging", cfg.Paths.Staging},
		{"missing folders", cfg.Paths.MissingFolders},
		{"missing files", cfg.Paths.MissingFiles},
		{"ledger", cfg.Paths.Ledger},
		{"audit report", cfg.Paths.AuditReport},
		{"invoice list", cfg.Paths.InvoiceList},
		{"skip list", cfg.Paths.SkipList},
		{"drive credentials", cfg.Paths.DriveCredentials},
		{"reports", cfg.Paths.ReportsDir},
	})

	p.Titlef("Hospital %s", profile.Name)
	p.Table([]string{"Setting", "Value"}, [][]string{
		{"NIT", profile.NIT},
		{"invoice prefix", profile.InvoicePrefix},
		{"document prefixes", strings.Join(profile.Whitelist(), ", ")},
		{"prefix corrections", strconv.Itoa(len(profile.PrefixCorrections))},
		{"administrators", strconv.Itoa(c.GetAdministrators().Len())},
		{"contracts", strconv.Itoa(c.GetContracts().Len())},
	})

	p.Titlef("Processing")
	p.Table([]string{"Setting", "Value"}, [][]string{
		{"scan workers", strconv.Itoa(cfg.Workers.Scan)},
		{"tool workers", strconv.Itoa(cfg.Workers.Tools)},
		{"tool timeout", cfg.ToolTimeout().String()},
		{"tool retries", strconv.Itoa(cfg.Tools.Retries)},
		{"OCR language", cfg.Tools.OCRLanguage},
		{"compression", cfg.Tools.CompressQuality},
		{"CSV delimiter", cfg.Report.CSVDelimiter},
		{"log", cfg.Log.Level + "/" + cfg.Log.Format},
	}, display.AlignLeft, display.AlignLeft)
}
