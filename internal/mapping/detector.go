// Package mapping detects which columns of a bank export hold the deposit
// date, amount, payer and deposit type.
package mapping

import (
	"context"

	"fjacquet/rent-recon/internal/logging"
	"fjacquet/rent-recon/internal/models"
)

// Detector resolves a mapping for a table: an exact bank profile match first,
// then header heuristics. When the heuristics cannot find both the date and
// the amount it falls back to a same-width profile or the suggester; those
// results need operator confirmation.
type Detector struct {
	profiles  *Registry
	suggester Suggester
	logger    logging.Logger
}

// NewDetector creates a detector. profiles and suggester may be nil.
func NewDetector(profiles *Registry, suggester Suggester, logger logging.Logger) *Detector {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Detector{profiles: profiles, suggester: suggester, logger: logger}
}

// Profiles returns the registry used by the detector.
func (d *Detector) Profiles() *Registry {
	return d.profiles
}

// Detect implements the resolution order described on Detector.
func (d *Detector) Detect(ctx context.Context, table models.Table) models.ColumnMapping {
	if m, ok := d.profiles.MatchFingerprint(table.Header); ok {
		d.logger.Debug("Header matches bank profile",
			logging.Field{Key: logging.FieldProfile, Value: m.Profile})
		return m
	}

	m := Heuristic(table)
	if m.HasDate() && m.HasAmount() {
		return m
	}

	if suggestion, ok := d.profiles.SuggestByShape(table.Header); ok && suggestion.HasDate() && suggestion.HasAmount() {
		d.logger.Info("Header resembles a bank profile; confirmation required",
			logging.Field{Key: logging.FieldProfile, Value: suggestion.Profile},
			logging.Field{Key: logging.FieldHeaderHash, Value: models.HeaderHash(table.Header)})
		return suggestion
	}

	if d.suggester != nil {
		suggestion, err := d.suggester.Suggest(ctx, table)
		if err != nil {
			d.logger.WithError(err).Warn("AI mapping suggestion failed")
			return m
		}
		if suggestion.HasDate() || suggestion.HasAmount() {
			d.logger.Info("Using AI mapping suggestion; confirmation required",
				logging.Field{Key: logging.FieldConfidence, Value: suggestion.Confidence})
			return suggestion
		}
	}

	return m
}
