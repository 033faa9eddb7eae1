// Package serve handles the HTTP API and inbox watcher command
package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fjacquet/rent-recon/cmd/root"
	"fjacquet/rent-recon/internal/validation"

	"github.com/spf13/cobra"
)

var (
	address string
	watch   bool
	inbox   string
	runOnce bool
)

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only HTTP API, optionally ingesting an inbox on a schedule",
	Long: `Serve GET /healthz, /api/status, /api/invoices, /api/templates and
/api/tenants/{id}/ledger. With --watch, bank exports dropped into the inbox directory are
ingested on the watch.schedule cron schedule when their layout has a saved template or a
bank profile; other files stay in the inbox for an operator.

Examples:
  rent-recon serve --address :8080
  rent-recon serve --watch --inbox /srv/bank-inbox
  rent-recon serve --watch --run-once`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	Cmd.Flags().StringVar(&address, "address", "", "Listen address (overrides server.address)")
	Cmd.Flags().BoolVar(&watch, "watch", false, "Ingest the inbox directory on a schedule")
	Cmd.Flags().StringVar(&inbox, "inbox", "", "Inbox directory (overrides watch.inbox_dir)")
	Cmd.Flags().BoolVar(&runOnce, "run-once", false, "Run one inbox pass and exit without serving")
}

func runServe(cmd *cobra.Command, _ []string) error {
	app, err := root.RequireContainer()
	if err != nil {
		return err
	}
	cfg := app.GetConfig()
	logger := app.GetLogger()

	if address != "" {
		cfg.Server.Address = address
	}
	if inbox != "" {
		cfg.Watch.InboxDir = inbox
	}

	if watch || runOnce {
		if err := validation.IsValidDirectory(cfg.Watch.InboxDir); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if runOnce {
		s, err := app.NewScheduler()
		if err != nil {
			return err
		}
		summary, err := s.RunOnce(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d files scanned, %d ingested, %d need an operator, %d failed\n",
			summary.Scanned, summary.Ingested, summary.Skipped, summary.Failed)
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watch {
		s, err := app.NewScheduler()
		if err != nil {
			return err
		}
		s.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.Stop(stopCtx); err != nil {
				logger.WithError(err).Warn("Inbox pass did not finish before shutdown")
			}
		}()
	}

	return app.NewServer().ListenAndServe(ctx, cfg.Server.Address)
}
