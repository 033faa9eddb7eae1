// Package ingest runs the bank-file pipeline: load, resolve the column
// mapping, normalize, match against tenants and commit new deposits. It is
// the single entry point shared by the CLI, the scheduler and the tests.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"fjacquet/rent-recon/internal/ledger"
	"fjacquet/rent-recon/internal/loader"
	"fjacquet/rent-recon/internal/logging"
	"fjacquet/rent-recon/internal/mapping"
	"fjacquet/rent-recon/internal/models"
	"fjacquet/rent-recon/internal/normalizer"
	"fjacquet/rent-recon/internal/reconcile"
	"fjacquet/rent-recon/internal/store"
	"fjacquet/rent-recon/internal/template"
)

// ErrUnknownLayout is returned in unattended mode when the header layout
// resolves to neither a saved template nor a registered bank profile.
var ErrUnknownLayout = errors.New("bank file layout is not known")

// Request describes one ingestion.
type Request struct {
	Path  string
	Owner string
	// Mapping overrides detection with an operator-chosen mapping.
	Mapping *models.ColumnMapping
	// Confirm accepts a suggestion that needs confirmation.
	Confirm bool
	// SaveTemplate stores the mapping used for the header layout.
	SaveTemplate  bool
	TemplateLabel string
	// DryRun stops after matching; nothing is written.
	DryRun bool
	// KnownLayoutOnly refuses heuristic and suggested mappings.
	KnownLayoutOnly bool
}

// Detection is the mapping resolved for a table.
type Detection struct {
	Table      models.Table
	HeaderHash string
	Mapping    models.ColumnMapping
	Template   *template.Template
}

// Report summarizes an ingestion for the operator.
type Report struct {
	File          string                    `json:"file"`
	HeaderHash    string                    `json:"header_hash"`
	Mapping       models.ColumnMapping      `json:"mapping"`
	Normalize     normalizer.Stats          `json:"normalize"`
	Deposits      []models.CanonicalDeposit `json:"-"`
	Rejected      []string                  `json:"rejected,omitempty"`
	Match         reconcile.MatchResult     `json:"-"`
	Matched       int                       `json:"matched"`
	Duplicates    int                       `json:"duplicates"`
	Unmatched     int                       `json:"unmatched"`
	Committed     int                       `json:"committed"`
	TemplateSaved bool                      `json:"template_saved"`
	DryRun        bool                      `json:"dry_run"`
}

// Service wires the pipeline stages to storage.
type Service struct {
	store     store.Storage
	loader    *loader.Loader
	detector  *mapping.Detector
	templates *template.Cache
	opts      reconcile.Options
	logger    logging.Logger
}

// NewService creates the pipeline.
func NewService(st store.Storage, ld *loader.Loader, det *mapping.Detector, cache *template.Cache, opts reconcile.Options, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		store:     st,
		loader:    ld,
		detector:  det,
		templates: cache,
		opts:      opts,
		logger:    logger,
	}
}

// Options returns the reconciliation settings.
func (s *Service) Options() reconcile.Options {
	return s.opts
}

// Detect loads a bank file and resolves its mapping without ingesting.
func (s *Service) Detect(ctx context.Context, path, owner string) (*Detection, error) {
	table, err := s.loader.Load(path)
	if err != nil {
		return nil, err
	}
	return s.DetectTable(ctx, table, owner)
}

// DetectTable resolves the mapping of a loaded table: a saved template wins,
// then the detector runs.
func (s *Service) DetectTable(ctx context.Context, table models.Table, owner string) (*Detection, error) {
	d := &Detection{Table: table, HeaderHash: models.HeaderHash(table.Header)}

	tpl, found, err := s.templates.Lookup(ctx, owner, table.Header)
	if err != nil {
		return nil, err
	}
	if found {
		d.Mapping = tpl.Mapping
		d.Template = &tpl
		return d, nil
	}

	d.Mapping = s.detector.Detect(ctx, table)
	return d, nil
}

// Ingest runs the whole pipeline for one file. When the mapping cannot be
// used the report is returned along with the error so the operator can see
// what was detected.
func (s *Service) Ingest(ctx context.Context, req Request) (*Report, error) {
	start := time.Now()
	log := s.logger.WithFields(
		logging.F(logging.FieldFile, filepath.Base(req.Path)),
		logging.F(logging.FieldOwner, req.Owner))

	detection, err := s.Detect(ctx, req.Path, req.Owner)
	if err != nil {
		return nil, err
	}

	m := detection.Mapping
	if req.Mapping != nil {
		m = req.Mapping.Confirmed()
	}
	report := &Report{File: req.Path, HeaderHash: detection.HeaderHash, Mapping: m, DryRun: req.DryRun}

	if req.KnownLayoutOnly && req.Mapping == nil &&
		m.Source != models.SourceTemplate && m.Source != models.SourceProfile {
		return report, ErrUnknownLayout
	}
	if m.NeedsConfirmation && req.Confirm {
		m = m.Confirmed()
		report.Mapping = m
	}

	normalized, err := normalizer.Normalize(detection.Table, m)
	if err != nil {
		log.WithError(err).Warn("Column mapping cannot be applied",
			logging.F(logging.FieldMappingSource, m.Source))
		return report, err
	}
	report.Normalize = normalized.Stats
	report.Deposits = normalized.Deposits
	for _, err := range normalized.Rejected {
		report.Rejected = append(report.Rejected, err.Error())
	}

	if req.SaveTemplate && !req.DryRun {
		if _, err := s.templates.Save(ctx, req.Owner, detection.Table.Header, m, req.TemplateLabel); err != nil {
			return report, err
		}
		report.TemplateSaved = true
	}

	tenants, err := s.store.FetchTenants(ctx, req.Owner)
	if err != nil {
		return report, fmt.Errorf("failed to fetch tenants: %w", err)
	}
	existing, err := s.store.FetchDeposits(ctx, req.Owner)
	if err != nil {
		return report, fmt.Errorf("failed to fetch deposits: %w", err)
	}

	opts := s.opts
	opts.Owner = req.Owner
	result := reconcile.MatchDeposits(normalized.Deposits, tenants, existing, opts)
	report.Match = result
	report.Matched = len(result.Matched)
	report.Duplicates = result.Duplicates
	report.Unmatched = len(result.Unmatched)

	if !req.DryRun && len(result.Matched) > 0 {
		if err := s.store.UpsertDeposits(ctx, result.Matched); err != nil {
			return report, fmt.Errorf("failed to store deposits: %w", err)
		}
		report.Committed = len(result.Matched)
	}

	log.Info("Ingested bank file",
		logging.F(logging.FieldMappingSource, m.Source),
		logging.F(logging.FieldCount, normalized.Stats.Kept),
		logging.F(logging.FieldDropped, normalized.Stats.Dropped()),
		logging.F(logging.FieldMatched, report.Matched),
		logging.F(logging.FieldDuplicates, report.Duplicates),
		logging.F(logging.FieldUnmatched, report.Unmatched),
		logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
	return report, nil
}

// Snapshot loads everything a status or invoice computation needs.
func (s *Service) Snapshot(ctx context.Context, owner string) ([]models.Tenant, []models.Deposit, error) {
	tenants, err := s.store.FetchTenants(ctx, owner)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch tenants: %w", err)
	}
	deposits, err := s.store.FetchDeposits(ctx, owner)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch deposits: %w", err)
	}
	return tenants, deposits, nil
}

// Status computes the portfolio status table.
func (s *Service) Status(ctx context.Context, owner string, evalDate time.Time) ([]reconcile.StatusRow, error) {
	tenants, deposits, err := s.Snapshot(ctx, owner)
	if err != nil {
		return nil, err
	}
	return reconcile.ComputeStatus(tenants, deposits, evalDate, s.opts), nil
}

// Invoices builds the invoice payloads of a selection.
func (s *Service) Invoices(ctx context.Context, owner string, evalDate time.Time, sel reconcile.Selection) ([]ledger.InvoiceView, error) {
	tenants, deposits, err := s.Snapshot(ctx, owner)
	if err != nil {
		return nil, err
	}
	return reconcile.BuildInvoices(tenants, deposits, evalDate, sel, s.opts), nil
}

// Ledger computes one tenant's ledger. The boolean is false for an unknown
// property id.
func (s *Service) Ledger(ctx context.Context, owner, propertyID string, evalDate time.Time) (*ledger.Ledger, bool, error) {
	tenants, deposits, err := s.Snapshot(ctx, owner)
	if err != nil {
		return nil, false, err
	}
	l, ok := reconcile.TenantLedger(tenants, deposits, propertyID, evalDate, s.opts)
	return l, ok, nil
}
