// Package root contains the root command for the application
package root

import (
	"fmt"
	"os"

	"fjacquet/invoice-reconciler/internal/config"
	"fjacquet/invoice-reconciler/internal/container"
	"fjacquet/invoice-reconciler/internal/display"
	"fjacquet/invoice-reconciler/internal/logging"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to every command
type CommonFlags struct {
	ConfigFile string
	LogLevel   string
	LogFormat  string
	Hospital   string
	Staging    string
}

var (
	// Log is the shared logger instance for commands
	Log logging.Logger = logging.NewLogrusAdapter("info", "text")

	// AppContainer holds the dependencies built for the current run
	AppContainer *container.Container

	// RunID tags every log line of one invocation
	RunID string

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "invoice-reconciler",
		Short: "Reconcile a hospital invoice ledger with the invoice folders on disk.",
		Long: `invoice-reconciler loads the billing ledger, canonicalizes it through the
administrator and contract mappings, and keeps the invoice folder tree in line
with it: it organizes staged folders, normalizes document names, finds missing
or misplaced invoices, checks PDF contents and fetches what is missing from Drive.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to invoice-reconciler!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return Setup()
		},
	}

	// SharedFlags are accessible to all commands
	SharedFlags = CommonFlags{}
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.ConfigFile, "config", "c", "", "Config file (default searches ./config.yaml and ~/.invoice-reconciler)")
	Cmd.PersistentFlags().StringVar(&SharedFlags.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	Cmd.PersistentFlags().StringVar(&SharedFlags.LogFormat, "log-format", "", "Log format (text, json)")
	Cmd.PersistentFlags().StringVar(&SharedFlags.Hospital, "hospital", "", "Active hospital profile")
	Cmd.PersistentFlags().StringVar(&SharedFlags.Staging, "staging", "", "Staging directory holding the invoice folders")
}

// Setup loads the environment and configuration, applies flag overrides and
// builds the container. Each invocation gets its own run id.
func Setup() error {
	config.LoadEnv()

	cfg, err := config.InitializeConfig(SharedFlags.ConfigFile)
	if err != nil {
		return err
	}
	applyOverrides(cfg)

	RunID = uuid.NewString()
	Log = logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format).WithField(logging.FieldRunID, RunID)

	c, err := container.NewContainerWithLogger(cfg, Log)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	AppContainer = c
	Log.Debug("Configuration loaded",
		logging.F("hospital", cfg.Hospital.Active),
		logging.F("staging", cfg.Paths.Staging))
	return nil
}

func applyOverrides(cfg *config.Config) {
	if SharedFlags.LogLevel != "" {
		cfg.Log.Level = SharedFlags.LogLevel
	}
	if SharedFlags.LogFormat != "" {
		cfg.Log.Format = SharedFlags.LogFormat
	}
	if SharedFlags.Hospital != "" {
		cfg.Hospital.Active = SharedFlags.Hospital
	}
	if SharedFlags.Staging != "" {
		cfg.Paths.Staging = SharedFlags.Staging
	}
}

// GetContainer returns the application container. It is nil until a
// command's pre-run has completed.
func GetContainer() *container.Container {
	return AppContainer
}

// GetLogger returns the logger of the current run.
func GetLogger() logging.Logger {
	return Log
}

// Printer returns a console printer writing to the command's output.
func Printer(cmd *cobra.Command) *display.Printer {
	out := cmd.OutOrStdout()
	if f, ok := out.(*os.File); ok {
		return display.NewPrinter(f)
	}
	return display.NewPrinterTo(out, false)
}
