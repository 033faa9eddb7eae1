// Package store persists tenants, deposits and column-mapping templates.
// The reconciliation core never touches storage; orchestration code loads
// everything through Storage, computes, and writes back.
package store

import (
	"context"
	"fmt"

	"fjacquet/rent-recon/internal/config"
	"fjacquet/rent-recon/internal/logging"
	"fjacquet/rent-recon/internal/models"
	"fjacquet/rent-recon/internal/template"
)

// ErrNotFound is returned for absent records.
var ErrNotFound = template.ErrNotFound

// Storage is the persistence collaborator. An empty owner in a fetch means
// every owner. Errors are returned as-is to the caller; no store retries.
type Storage interface {
	template.Repository

	FetchTenants(ctx context.Context, owner string) ([]models.Tenant, error)
	FetchDeposits(ctx context.Context, owner string) ([]models.Deposit, error)
	// UpsertTenants inserts or replaces tenants by property id. New tenants
	// are appended, existing ones keep their position.
	UpsertTenants(ctx context.Context, tenants []models.Tenant) error
	// UpsertDeposits inserts or replaces deposits by transaction key.
	UpsertDeposits(ctx context.Context, deposits []models.Deposit) error
	Close() error
}

// Open creates the store selected by the storage driver.
func Open(ctx context.Context, cfg *config.Config, logger logging.Logger) (Storage, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	switch cfg.Storage.Driver {
	case "", config.DriverFile:
		return NewFileStore(cfg.Data.Directory, logger)
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.Storage.SQLitePath, logger)
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg.Storage.PostgresDSN, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func filterTenants(tenants []models.Tenant, owner string) []models.Tenant {
	if owner == "" {
		return tenants
	}
	out := make([]models.Tenant, 0, len(tenants))
	for _, t := range tenants {
		if t.Owner == owner {
			out = append(out, t)
		}
	}
	return out
}

func filterDeposits(deposits []models.Deposit, owner string) []models.Deposit {
	if owner == "" {
		return deposits
	}
	out := make([]models.Deposit, 0, len(deposits))
	for _, d := range deposits {
		if d.Owner == owner {
			out = append(out, d)
		}
	}
	return out
}

// prepareDeposit fills in the identifier and the deduplication key.
func prepareDeposit(d models.Deposit) models.Deposit {
	d.PropertyID = models.CanonicalPropertyID(d.PropertyID)
	if d.TransactionKey == "" {
		d.TransactionKey = models.DepositKey(d.Date, d.Summary, d.Amount)
	}
	if d.ID == "" {
		d.ID = models.NewDepositID()
	}
	return d
}

func validateTenant(t models.Tenant) (models.Tenant, error) {
	t = t.Sanitize()
	if t.PropertyID == "" {
		return t, fmt.Errorf("tenant %q has no property id", t.Name)
	}
	return t, nil
}
