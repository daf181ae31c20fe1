// Package container provides dependency injection for the invoice reconciler.
// It centralizes the creation and wiring of every component so commands only
// ask for what they use.
package container

import (
	"context"
	"fmt"

	"fjacquet/invoice-reconciler/internal/config"
	"fjacquet/invoice-reconciler/internal/drive"
	"fjacquet/invoice-reconciler/internal/ledger"
	"fjacquet/invoice-reconciler/internal/logging"
	"fjacquet/invoice-reconciler/internal/models"
	"fjacquet/invoice-reconciler/internal/normalizer"
	"fjacquet/invoice-reconciler/internal/pdfscan"
	"fjacquet/invoice-reconciler/internal/pdftools"
	"fjacquet/invoice-reconciler/internal/reconciler"
	"fjacquet/invoice-reconciler/internal/report"
	"fjacquet/invoice-reconciler/internal/store"
	"fjacquet/invoice-reconciler/internal/workerpool"
)

// Container holds all application dependencies. It is immutable after
// creation: fields are private and exposed through getters.
type Container struct {
	logger logging.Logger
	config *config.Config

	store          *store.ReferenceStore
	administrators models.MappingTable
	contracts      models.MappingTable
	profile        models.HospitalProfile

	loader        *ledger.Loader
	canonicalizer *ledger.Canonicalizer
	normalizer    *normalizer.Normalizer
	scanner       *pdfscan.Scanner
	tools         *pdftools.Processor
	reports       *report.Generator

	scanPool *workerpool.Pool
	toolPool *workerpool.Pool
}

// NewContainer creates and wires all application dependencies with a logrus
// logger built from the configuration.
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	return NewContainerWithLogger(cfg, logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format))
}

// NewContainerWithLogger wires dependencies around an existing logger.
func NewContainerWithLogger(cfg *config.Config, logger logging.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	refs := store.NewReferenceStore(
		cfg.Mappings.AdministratorsFile,
		cfg.Mappings.ContractsFile,
		cfg.Hospital.ProfilesFile,
		logger,
	)
	admins, err := refs.LoadAdministrators()
	if err != nil {
		return nil, fmt.Errorf("failed to load administrators: %w", err)
	}
	contracts, err := refs.LoadContracts()
	if err != nil {
		return nil, fmt.Errorf("failed to load contracts: %w", err)
	}
	profile, err := refs.LoadHospital(cfg.Hospital.Active)
	if err != nil {
		return nil, err
	}

	norm, err := normalizer.New(profile, logger)
	if err != nil {
		return nil, fmt.Errorf("invalid hospital profile %s: %w", profile.Name, err)
	}

	scanPool := workerpool.New(cfg.Workers.Scan, logger)
	toolPool := workerpool.New(cfg.Workers.Tools, logger)

	extractor := pdfscan.NewCommandExtractor(cfg.Tools.PDFInfo, cfg.Tools.PDFToText, cfg.ToolTimeout())
	tools := pdftools.NewProcessor(pdftools.Options{
		OCRMyPDF:    cfg.Tools.OCRMyPDF,
		Language:    cfg.Tools.OCRLanguage,
		Ghostscript: cfg.Tools.Ghostscript,
		Quality:     cfg.Tools.CompressQuality,
		Timeout:     cfg.ToolTimeout(),
		Retries:     cfg.Tools.Retries,
	}, nil, toolPool, logger)

	logger.Debug("Container initialized",
		logging.F("hospital", profile.Name),
		logging.F("administrators", admins.Len()),
		logging.F("contracts", contracts.Len()))

	return &Container{
		logger:         logger,
		config:         cfg,
		store:          refs,
		administrators: admins,
		contracts:      contracts,
		profile:        profile,
		loader:         ledger.NewLoader(cfg.Ledger.Columns, cfg.Ledger.Sheet, logger),
		canonicalizer:  ledger.NewCanonicalizer(admins, contracts, logger),
		normalizer:     norm,
		scanner:        pdfscan.NewScanner(extractor, scanPool, profile.InvoicePrefix, logger),
		tools:          tools,
		reports:        report.NewGenerator(cfg.Delimiter(), logger),
		scanPool:       scanPool,
		toolPool:       toolPool,
	}, nil
}

// GetLogger returns the container's logger.
func (c *Container) GetLogger() logging.Logger { return c.logger }

// GetConfig returns the configuration the container was built from.
func (c *Container) GetConfig() *config.Config { return c.config }

// GetStore returns the reference data store.
func (c *Container) GetStore() *store.ReferenceStore { return c.store }

// GetAdministrators returns the administrator mapping table.
func (c *Container) GetAdministrators() models.MappingTable { return c.administrators }

// GetContracts returns the contract mapping table.
func (c *Container) GetContracts() models.MappingTable { return c.contracts }

// GetProfile returns the active hospital profile.
func (c *Container) GetProfile() models.HospitalProfile { return c.profile }

func (c *Container) GetLoader() *ledger.Loader               { return c.loader }
func (c *Container) GetCanonicalizer() *ledger.Canonicalizer { return c.canonicalizer }
func (c *Container) GetNormalizer() *normalizer.Normalizer   { return c.normalizer }
func (c *Container) GetScanner() *pdfscan.Scanner            { return c.scanner }
func (c *Container) GetTools() *pdftools.Processor           { return c.tools }
func (c *Container) GetReports() *report.Generator           { return c.reports }

// GetScanPool returns the pool bounding content scans.
func (c *Container) GetScanPool() *workerpool.Pool { return c.scanPool }

// GetToolPool returns the pool bounding OCR and compression runs.
func (c *Container) GetToolPool() *workerpool.Pool { return c.toolPool }

// NewReconciler returns a reconciler rooted at base. Reconcilers are cheap
// and hold no state, so one is built per tree a command works on.
func (c *Container) NewReconciler(base string) *reconciler.Reconciler {
	return reconciler.New(base, c.normalizer, c.logger)
}

// NewFetcher connects to Drive with the configured service account key.
func (c *Container) NewFetcher(ctx context.Context) (*drive.Fetcher, error) {
	svc, err := drive.NewService(ctx, c.config.Paths.DriveCredentials)
	if err != nil {
		return nil, err
	}
	return drive.NewFetcher(svc, c.logger), nil
}
