// Package scheduler ingests bank exports dropped into an inbox directory on a
// cron schedule. Only layouts that resolve to a saved template or a
// registered bank profile are ingested; everything else stays in the inbox
// for an operator.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"fjacquet/rent-recon/internal/fileutils"
	"fjacquet/rent-recon/internal/ingest"
	"fjacquet/rent-recon/internal/logging"
	"fjacquet/rent-recon/internal/parsererror"
	"fjacquet/rent-recon/internal/scanner"

	"github.com/robfig/cron/v3"
)

// Ingester runs one ingestion. *ingest.Service implements it.
type Ingester interface {
	Ingest(ctx context.Context, req ingest.Request) (*ingest.Report, error)
}

// Options configures the inbox job.
type Options struct {
	InboxDir string
	Schedule string
	TimeZone string
	Owner    string
}

// RunSummary counts the outcome of one inbox pass.
type RunSummary struct {
	Scanned  int
	Ingested int
	Skipped  int
	Failed   int
}

// Scheduler owns the cron runner for the inbox job.
type Scheduler struct {
	cron     *cron.Cron
	ingester Ingester
	scanner  *scanner.InboxScanner
	opts     Options
	location *time.Location
	logger   logging.Logger
}

// New validates the options and registers the inbox job. The job does not
// run until Start is called.
func New(ing Ingester, sc *scanner.InboxScanner, opts Options, logger logging.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if opts.InboxDir == "" {
		return nil, errors.New("watch.inbox_dir is required to watch an inbox")
	}
	if sc == nil {
		sc = scanner.NewInboxScanner(logger)
	}

	loc := time.UTC
	if opts.TimeZone != "" {
		l, err := time.LoadLocation(opts.TimeZone)
		if err != nil {
			logger.WithError(err).Warn("Invalid timezone, falling back to UTC",
				logging.F("timezone", opts.TimeZone))
		} else {
			loc = l
		}
	}

	s := &Scheduler{
		ingester: ing,
		scanner:  sc,
		opts:     opts,
		location: loc,
		logger:   logger.WithField("component", "Scheduler"),
	}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{s.logger})),
	)
	if _, err := s.cron.AddFunc(opts.Schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid watch schedule %q: %w", opts.Schedule, err)
	}
	return s, nil
}

// Start runs the job in the background.
func (s *Scheduler) Start() {
	s.logger.Info("Watching inbox",
		logging.F("inbox", s.opts.InboxDir),
		logging.F("schedule", s.opts.Schedule),
		logging.F("timezone", s.location.String()))
	s.cron.Start()
}

// Stop prevents further runs and waits for a running pass to finish or ctx
// to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run() {
	started := time.Now().In(s.location)
	summary, err := s.RunOnce(context.Background())
	if err != nil {
		s.logger.WithError(err).Error("Inbox pass failed")
		return
	}
	s.logger.Info("Inbox pass finished",
		logging.F("started", started.Format(time.RFC3339)),
		logging.F("scanned", summary.Scanned),
		logging.F("ingested", summary.Ingested),
		logging.F("skipped", summary.Skipped),
		logging.F("failed", summary.Failed))
}

// RunOnce scans the inbox and ingests every known layout. Ingested files
// move to the processed/ subdirectory.
func (s *Scheduler) RunOnce(ctx context.Context) (RunSummary, error) {
	var summary RunSummary

	files, err := s.scanner.ScanPaths([]string{s.opts.InboxDir})
	if err != nil {
		return summary, err
	}
	summary.Scanned = len(files)

	processed := filepath.Join(s.opts.InboxDir, scanner.ProcessedDir)
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		log := s.logger.WithField(logging.FieldFile, f.Path)

		report, err := s.ingester.Ingest(ctx, ingest.Request{
			Path:            f.Path,
			Owner:           s.opts.Owner,
			KnownLayoutOnly: true,
		})
		switch {
		case err == nil:
		case needsOperator(err):
			summary.Skipped++
			log.WithError(err).Warn("Skipping file that needs an operator")
			continue
		default:
			summary.Failed++
			log.WithError(err).Error("Failed to ingest file")
			continue
		}

		summary.Ingested++
		dst, err := fileutils.MoveFile(f.Path, processed)
		if err != nil {
			log.WithError(err).Error("Failed to move ingested file")
			continue
		}
		log.Info("Ingested inbox file",
			logging.F("moved_to", dst),
			logging.F(logging.FieldMatched, report.Matched),
			logging.F(logging.FieldUnmatched, report.Unmatched))
	}
	return summary, nil
}

func needsOperator(err error) bool {
	return errors.Is(err, ingest.ErrUnknownLayout) ||
		errors.Is(err, parsererror.ErrUnconfirmedMapping) ||
		errors.Is(err, parsererror.ErrMappingRequired)
}

// cronLogger routes cron's own messages to the application logger.
type cronLogger struct {
	logger logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, pairs(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.WithError(err).Error(msg, pairs(keysAndValues)...)
}

func pairs(kv []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, logging.F(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return fields
}
