package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"fjacquet/invoice-reconciler/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override (INVREC_PATHS_STAGING).
const EnvPrefix = "INVREC"

// Config is the complete application configuration.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Hospital struct {
		Active       string `mapstructure:"active" yaml:"active"`
		ProfilesFile string `mapstructure:"profiles_file" yaml:"profiles_file"`
	} `mapstructure:"hospital" yaml:"hospital"`

	Mappings struct {
		AdministratorsFile string `mapstructure:"administrators_file" yaml:"administrators_file"`
		ContractsFile      string `mapstructure:"contracts_file" yaml:"contracts_file"`
	} `mapstructure:"mappings" yaml:"mappings"`

	Paths struct {
		Root             string `mapstructure:"root" yaml:"root"`
		Storage          string `mapstructure:"storage" yaml:"storage"`
		Staging          string `mapstructure:"staging" yaml:"staging"`
		MissingFolders   string `mapstructure:"missing_folders" yaml:"missing_folders"`
		MissingFiles     string `mapstructure:"missing_files" yaml:"missing_files"`
		Ledger           string `mapstructure:"ledger" yaml:"ledger"`
		AuditReport      string `mapstructure:"audit_report" yaml:"audit_report"`
		InvoiceList      string `mapstructure:"invoice_list" yaml:"invoice_list"`
		SkipList         string `mapstructure:"skip_list" yaml:"skip_list"`
		DriveCredentials string `mapstructure:"drive_credentials" yaml:"drive_credentials"`
		ReportsDir       string `mapstructure:"reports_dir" yaml:"reports_dir"`
	} `mapstructure:"paths" yaml:"paths"`

	Ledger struct {
		Sheet   string               `mapstructure:"sheet" yaml:"sheet"`
		Columns models.LedgerColumns `mapstructure:"columns" yaml:"columns"`
	} `mapstructure:"ledger" yaml:"ledger"`

	Workers struct {
		Scan  int `mapstructure:"scan" yaml:"scan"`
		Tools int `mapstructure:"tools" yaml:"tools"`
	} `mapstructure:"workers" yaml:"workers"`

	Tools struct {
		PDFToText       string `mapstructure:"pdftotext" yaml:"pdftotext"`
		PDFInfo         string `mapstructure:"pdfinfo" yaml:"pdfinfo"`
		OCRMyPDF        string `mapstructure:"ocrmypdf" yaml:"ocrmypdf"`
		OCRLanguage     string `mapstructure:"ocr_language" yaml:"ocr_language"`
		Ghostscript     string `mapstructure:"ghostscript" yaml:"ghostscript"`
		CompressQuality string `mapstructure:"compress_quality" yaml:"compress_quality"`
		TimeoutSeconds  int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		Retries         int    `mapstructure:"retries" yaml:"retries"`
	} `mapstructure:"tools" yaml:"tools"`

	Report struct {
		CSVDelimiter string `mapstructure:"csv_delimiter" yaml:"csv_delimiter"`
	} `mapstructure:"report" yaml:"report"`
}

// ToolTimeout returns the per-file limit for external tools.
func (c *Config) ToolTimeout() time.Duration {
	return time.Duration(c.Tools.TimeoutSeconds) * time.Second
}

// Delimiter returns the report delimiter as a rune.
func (c *Config) Delimiter() rune {
	return []rune(c.Report.CSVDelimiter)[0]
}

// ReportPath places a report file name under paths.reports_dir.
func (c *Config) ReportPath(name string) string {
	return filepath.Join(c.Paths.ReportsDir, name)
}

// InitializeConfig builds the configuration with hierarchical loading:
// defaults, then the config file, then environment variables.
// configFile may be empty to search the standard locations.
func InitializeConfig(configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.invoice-reconciler")
		v.AddConfigPath(".invoice-reconciler")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.derivePaths()

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("hospital.active", "CAJAMARCA")
	v.SetDefault("hospital.profiles_file", "")
	v.SetDefault("mappings.administrators_file", "")
	v.SetDefault("mappings.contracts_file", "")

	v.SetDefault("paths.root", ".")
	for _, key := range []string{"storage", "staging", "missing_folders", "missing_files", "ledger",
		"audit_report", "invoice_list", "skip_list", "drive_credentials", "reports_dir"} {
		v.SetDefault("paths."+key, "")
	}

	cols := models.DefaultLedgerColumns()
	v.SetDefault("ledger.sheet", "")
	v.SetDefault("ledger.columns.document_type", cols.DocumentType)
	v.SetDefault("ledger.columns.document_number", cols.DocumentNumber)
	v.SetDefault("ledger.columns.document", cols.Document)
	v.SetDefault("ledger.columns.numero", cols.Numero)
	v.SetDefault("ledger.columns.patient", cols.Patient)
	v.SetDefault("ledger.columns.administrator", cols.Administrator)
	v.SetDefault("ledger.columns.contract", cols.Contract)
	v.SetDefault("ledger.columns.operator", cols.Operator)

	v.SetDefault("workers.scan", 4)
	v.SetDefault("workers.tools", 4)

	v.SetDefault("tools.pdftotext", "pdftotext")
	v.SetDefault("tools.pdfinfo", "pdfinfo")
	v.SetDefault("tools.ocrmypdf", "ocrmypdf")
	v.SetDefault("tools.ocr_language", "spa")
	v.SetDefault("tools.ghostscript", defaultGhostscript())
	v.SetDefault("tools.compress_quality", "ebook")
	v.SetDefault("tools.timeout_seconds", 300)
	v.SetDefault("tools.retries", 0)

	v.SetDefault("report.csv_delimiter", ";")
}

func defaultGhostscript() string {
	if runtime.GOOS == "windows" {
		return "gswin64c"
	}
	return "gs"
}

// derivePaths fills unset working directories from paths.root, matching the
// layout operators already use on disk.
func (c *Config) derivePaths() {
	root := c.Paths.Root
	def := func(target *string, parts ...string) {
		if *target == "" {
			*target = filepath.Join(append([]string{root}, parts...)...)
		}
	}
	def(&c.Paths.Storage, "storage")
	def(&c.Paths.Staging, "staging")
	def(&c.Paths.MissingFolders, "missing_folders")
	def(&c.Paths.MissingFiles, "missing_files")
	def(&c.Paths.ReportsDir, "reports")
	def(&c.Paths.Ledger, "ledger.xlsx")
	def(&c.Paths.AuditReport, "reports", "audit.xlsx")
	def(&c.Paths.InvoiceList, "invoices.txt")
	def(&c.Paths.SkipList, "skip.txt")
	def(&c.Paths.DriveCredentials, "credentials.json")
}

var compressQualities = map[string]bool{
	"screen": true, "ebook": true, "printer": true, "prepress": true, "default": true,
}

func validateConfig(c *Config) error {
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", c.Log.Format)
	}
	if strings.TrimSpace(c.Hospital.Active) == "" {
		return fmt.Errorf("hospital.active must be set")
	}
	if c.Workers.Scan < 1 || c.Workers.Scan > 64 {
		return fmt.Errorf("workers.scan must be between 1 and 64, got: %d", c.Workers.Scan)
	}
	if c.Workers.Tools < 1 || c.Workers.Tools > 64 {
		return fmt.Errorf("workers.tools must be between 1 and 64, got: %d", c.Workers.Tools)
	}
	if c.Tools.TimeoutSeconds < 1 {
		return fmt.Errorf("tools.timeout_seconds must be positive, got: %d", c.Tools.TimeoutSeconds)
	}
	if c.Tools.Retries < 0 || c.Tools.Retries > 3 {
		return fmt.Errorf("tools.retries must be between 0 and 3, got: %d", c.Tools.Retries)
	}
	if !compressQualities[c.Tools.CompressQuality] {
		return fmt.Errorf("tools.compress_quality must be one of screen, ebook, printer, prepress, default; got: %s", c.Tools.CompressQuality)
	}
	if len([]rune(c.Report.CSVDelimiter)) != 1 {
		return fmt.Errorf("report.csv_delimiter must be a single character, got: %q", c.Report.CSVDelimiter)
	}
	cols := c.Ledger.Columns
	for _, name := range cols.Required() {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("ledger.columns entries must not be empty")
		}
	}
	return nil
}
