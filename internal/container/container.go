// Package container provides dependency injection for the rent-recon
// application. It centralizes the creation and wiring of all application
// dependencies, making them explicit and testable.
package container

import (
	"context"
	"fmt"
	"time"

	"fjacquet/rent-recon/internal/config"
	"fjacquet/rent-recon/internal/ingest"
	"fjacquet/rent-recon/internal/ledger"
	"fjacquet/rent-recon/internal/loader"
	"fjacquet/rent-recon/internal/logging"
	"fjacquet/rent-recon/internal/mapping"
	"fjacquet/rent-recon/internal/reconcile"
	"fjacquet/rent-recon/internal/report"
	"fjacquet/rent-recon/internal/scanner"
	"fjacquet/rent-recon/internal/scheduler"
	"fjacquet/rent-recon/internal/server"
	"fjacquet/rent-recon/internal/store"
	"fjacquet/rent-recon/internal/template"

	"github.com/shopspring/decimal"
)

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation: all fields are private and can only
// be accessed through getter methods.
type Container struct {
	logger    logging.Logger
	config    *config.Config
	store     store.Storage
	templates *template.Cache
	registry  *mapping.Registry
	suggester *mapping.GeminiSuggester
	loader    *loader.Loader
	detector  *mapping.Detector
	ingest    *ingest.Service
	reports   *report.Generator
}

// NewContainer creates and wires all application dependencies, opening the
// configured storage backend.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	logger := logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)

	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	c, err := NewContainerWithStorage(ctx, cfg, logger, st)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return c, nil
}

// NewContainerWithStorage wires the application around an already opened
// storage backend. The container takes ownership of st.
func NewContainerWithStorage(ctx context.Context, cfg *config.Config, logger logging.Logger, st store.Storage) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if st == nil {
		return nil, fmt.Errorf("storage cannot be nil")
	}
	if logger == nil {
		logger = logging.Discard()
	}

	registry := mapping.DefaultRegistry()
	if cfg.Templates.ProfilesFile != "" {
		if err := registry.LoadProfiles(cfg.Templates.ProfilesFile); err != nil {
			return nil, err
		}
		logger.Info("Loaded bank profiles",
			logging.F(logging.FieldFile, cfg.Templates.ProfilesFile),
			logging.F(logging.FieldCount, len(registry.Profiles())))
	}

	// The detector takes an interface; a nil *GeminiSuggester must not reach it.
	var suggester *mapping.GeminiSuggester
	var detectorSuggester mapping.Suggester
	if cfg.AI.Enabled && cfg.AI.APIKey != "" {
		s, err := mapping.NewGeminiSuggester(ctx, cfg.AI.APIKey, cfg.AI.Model,
			time.Duration(cfg.AI.TimeoutSeconds)*time.Second)
		if err != nil {
			return nil, err
		}
		suggester = s
		detectorSuggester = s
		logger.Info("AI mapping suggestions enabled", logging.F("model", cfg.AI.Model))
	} else {
		logger.Info("AI mapping suggestions disabled")
	}

	ld := loader.New(loader.Options{
		Encoding:  cfg.CSV.Encoding,
		Delimiter: delimiter(cfg),
	}, logger)
	detector := mapping.NewDetector(registry, detectorSuggester, logger)
	templates := template.NewCache(st, logger)
	service := ingest.NewService(st, ld, detector, templates, ReconcileOptions(cfg), logger)

	logger.Info("Container initialized successfully",
		logging.F(logging.FieldDriver, cfg.Storage.Driver),
		logging.F("profiles_count", len(registry.Profiles())),
		logging.F("ai_enabled", suggester != nil))

	return &Container{
		logger:    logger,
		config:    cfg,
		store:     st,
		templates: templates,
		registry:  registry,
		suggester: suggester,
		loader:    ld,
		detector:  detector,
		ingest:    service,
		reports:   report.NewGenerator(logger, delimiter(cfg)),
	}, nil
}

// ReconcileOptions translates the reconcile section of the configuration.
func ReconcileOptions(cfg *config.Config) reconcile.Options {
	r := cfg.Reconcile
	return reconcile.Options{
		Ledger: ledger.Options{
			GraceDay:           r.GraceDay,
			CleanStartLeadDays: r.CleanStartLeadDays,
			MemoLookbackMonths: r.MemoLookbackMonths,
			RecentDeposits:     r.RecentDeposits,
			HistoryMonths:      r.HistoryMonths,
		},
		DelinquencyThreshold: decimal.NewFromFloat(r.DelinquencyThreshold),
		FuzzyMaxDistance:     r.FuzzyMaxDistance,
		Owner:                cfg.Templates.Owner,
	}
}

func delimiter(cfg *config.Config) rune {
	for _, r := range cfg.CSV.Delimiter {
		return r
	}
	return ','
}

// Delimiter is the configured CSV delimiter.
func (c *Container) Delimiter() rune {
	return delimiter(c.config)
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetStore returns the storage backend.
func (c *Container) GetStore() store.Storage {
	return c.store
}

// GetTemplates returns the template cache.
func (c *Container) GetTemplates() *template.Cache {
	return c.templates
}

// GetRegistry returns the bank profile registry.
func (c *Container) GetRegistry() *mapping.Registry {
	return c.registry
}

// GetLoader returns the bank file loader.
func (c *Container) GetLoader() *loader.Loader {
	return c.loader
}

// GetIngest returns the ingestion service.
func (c *Container) GetIngest() *ingest.Service {
	return c.ingest
}

// GetReports returns the report generator.
func (c *Container) GetReports() *report.Generator {
	return c.reports
}

// AIEnabled reports whether a Gemini suggester is wired.
func (c *Container) AIEnabled() bool {
	return c.suggester != nil
}

// Owner is the configured owner namespace.
func (c *Container) Owner() string {
	return c.config.Templates.Owner
}

// NewServer builds the HTTP API over the ingestion service.
func (c *Container) NewServer() *server.Server {
	return server.New(c.ingest, c.templates, c.Owner(), c.logger)
}

// NewScheduler builds the inbox job from the watch configuration.
func (c *Container) NewScheduler() (*scheduler.Scheduler, error) {
	w := c.config.Watch
	return scheduler.New(c.ingest, scanner.NewInboxScanner(c.logger), scheduler.Options{
		InboxDir: w.InboxDir,
		Schedule: w.Schedule,
		TimeZone: w.TimeZone,
		Owner:    c.Owner(),
	}, c.logger)
}

// Close releases storage and the AI client.
func (c *Container) Close() error {
	var firstErr error
	if c.suggester != nil {
		if err := c.suggester.Close(); err != nil {
			firstErr = err
		}
	}
	if err := c.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	c.logger.Info("Container closed")
	return firstErr
}
