package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fjacquet/rent-recon/internal/logging"
	"fjacquet/rent-recon/internal/models"
	"fjacquet/rent-recon/internal/template"
)

// dialect captures the differences between the SQL backends.
type dialect struct {
	name string
	// directory of the embedded migrations
	migrations string
	// numbered placeholders ($1, $2) instead of ?
	numbered bool
}

var (
	sqliteDialect   = dialect{name: "sqlite3", migrations: "migrations/sqlite"}
	postgresDialect = dialect{name: "postgres", migrations: "migrations/postgres", numbered: true}
)

// rebind rewrites ? placeholders for dialects that number them.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SQLStore implements Storage over database/sql. SQLite and PostgreSQL share
// the schema and the queries.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	logger  logging.Logger
}

func newSQLStore(db *sql.DB, d dialect, logger logging.Logger) (*SQLStore, error) {
	if err := runMigrations(db, d); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLStore{db: db, dialect: d, logger: logger}, nil
}

// DB exposes the underlying handle.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Close implements Storage.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

const tenantColumns = `property_id, name, monthly_rent, zip, address, billing_zip, billing_address,
	match_names, separately_managed, delinquency_memo, rent_start, baseline_date, baseline_debt,
	baseline_surplus, baseline_adjustment, adjustment_memo, clean_start, last_confirmed, owner`

// FetchTenants implements Storage.
func (s *SQLStore) FetchTenants(ctx context.Context, owner string) ([]models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants`
	var args []interface{}
	if owner != "" {
		query += ` WHERE owner = ?`
		args = append(args, owner)
	}
	query += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("error querying tenants: %w", err)
	}
	defer rows.Close()

	var tenants []models.Tenant
	for rows.Next() {
		var r tenantRecord
		var names string
		if err := rows.Scan(&r.PropertyID, &r.Name, &r.MonthlyRent, &r.Zip, &r.Address,
			&r.BillingZip, &r.BillingAddress, &names, &r.SeparatelyManaged, &r.DelinquencyMemo,
			&r.RentStart, &r.BaselineDate, &r.BaselineDebt, &r.BaselineSurplus,
			&r.BaselineAdjustment, &r.AdjustmentMemo, &r.CleanStart, &r.LastConfirmed,
			&r.Owner); err != nil {
			return nil, fmt.Errorf("error scanning tenant: %w", err)
		}
		if err := json.Unmarshal([]byte(names), &r.MatchNames); err != nil {
			s.logger.Warn("Ignoring unreadable match names",
				logging.F(logging.FieldPropertyID, r.PropertyID),
				logging.F(logging.FieldError, err.Error()))
		}
		tenants = append(tenants, fromTenantRecord(r))
	}
	return tenants, rows.Err()
}

// UpsertTenants implements Storage.
func (s *SQLStore) UpsertTenants(ctx context.Context, tenants []models.Tenant) error {
	query := s.dialect.rebind(`INSERT INTO tenants (` + tenantColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (property_id) DO UPDATE SET
		name = excluded.name,
		monthly_rent = excluded.monthly_rent,
		zip = excluded.zip,
		address = excluded.address,
		billing_zip = excluded.billing_zip,
		billing_address = excluded.billing_address,
		match_names = excluded.match_names,
		separately_managed = excluded.separately_managed,
		delinquency_memo = excluded.delinquency_memo,
		rent_start = excluded.rent_start,
		baseline_date = excluded.baseline_date,
		baseline_debt = excluded.baseline_debt,
		baseline_surplus = excluded.baseline_surplus,
		baseline_adjustment = excluded.baseline_adjustment,
		adjustment_memo = excluded.adjustment_memo,
		clean_start = excluded.clean_start,
		last_confirmed = excluded.last_confirmed,
		owner = excluded.owner`)

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, t := range tenants {
			t, err := validateTenant(t)
			if err != nil {
				return err
			}
			r := toTenantRecord(t)
			names, err := json.Marshal(append([]string{}, r.MatchNames...))
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query,
				r.PropertyID, r.Name, r.MonthlyRent, r.Zip, r.Address, r.BillingZip,
				r.BillingAddress, string(names), r.SeparatelyManaged, r.DelinquencyMemo,
				r.RentStart, r.BaselineDate, r.BaselineDebt, r.BaselineSurplus,
				r.BaselineAdjustment, r.AdjustmentMemo, r.CleanStart, r.LastConfirmed,
				r.Owner); err != nil {
				return fmt.Errorf("error upserting tenant %s: %w", r.PropertyID, err)
			}
		}
		return nil
	})
}

// FetchDeposits implements Storage.
func (s *SQLStore) FetchDeposits(ctx context.Context, owner string) ([]models.Deposit, error) {
	query := `SELECT id, transaction_key, property_id, date, amount, summary, owner FROM deposits`
	var args []interface{}
	if owner != "" {
		query += ` WHERE owner = ?`
		args = append(args, owner)
	}
	query += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("error querying deposits: %w", err)
	}
	defer rows.Close()

	var deposits []models.Deposit
	for rows.Next() {
		var r depositRecord
		if err := rows.Scan(&r.ID, &r.TransactionKey, &r.PropertyID, &r.Date, &r.Amount,
			&r.Summary, &r.Owner); err != nil {
			return nil, fmt.Errorf("error scanning deposit: %w", err)
		}
		deposits = append(deposits, fromDepositRecord(r))
	}
	return deposits, rows.Err()
}

// UpsertDeposits implements Storage. The stored id survives a replace.
func (s *SQLStore) UpsertDeposits(ctx context.Context, deposits []models.Deposit) error {
	query := s.dialect.rebind(`INSERT INTO deposits
	(id, transaction_key, property_id, date, amount, summary, owner)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (transaction_key) DO UPDATE SET
		property_id = excluded.property_id,
		date = excluded.date,
		amount = excluded.amount,
		summary = excluded.summary,
		owner = excluded.owner`)

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, d := range deposits {
			r := toDepositRecord(prepareDeposit(d))
			if _, err := tx.ExecContext(ctx, query,
				r.ID, r.TransactionKey, r.PropertyID, r.Date, r.Amount, r.Summary, r.Owner); err != nil {
				return fmt.Errorf("error upserting deposit %s: %w", r.TransactionKey, err)
			}
		}
		return nil
	})
}

func scanTemplate(scan func(dest ...interface{}) error) (template.Template, error) {
	var t template.Template
	var columns, mapping, savedAt string
	if err := scan(&t.Owner, &t.HeaderHash, &t.Label, &columns, &mapping, &savedAt); err != nil {
		return t, err
	}
	if err := json.Unmarshal([]byte(columns), &t.Columns); err != nil {
		return t, fmt.Errorf("error decoding template columns: %w", err)
	}
	if err := json.Unmarshal([]byte(mapping), &t.Mapping); err != nil {
		return t, fmt.Errorf("error decoding template mapping: %w", err)
	}
	if ts, err := time.Parse(time.RFC3339, savedAt); err == nil {
		t.SavedAt = ts
	}
	return t, nil
}

// GetTemplate implements template.Repository.
func (s *SQLStore) GetTemplate(ctx context.Context, owner, headerHash string) (template.Template, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.rebind(
		`SELECT owner, header_hash, label, columns, mapping, saved_at FROM templates
		WHERE owner = ? AND header_hash = ?`), owner, headerHash)
	t, err := scanTemplate(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return template.Template{}, ErrNotFound
	}
	if err != nil {
		return template.Template{}, fmt.Errorf("error reading template: %w", err)
	}
	return t, nil
}

// PutTemplate implements template.Repository. Last writer wins.
func (s *SQLStore) PutTemplate(ctx context.Context, t template.Template) error {
	columns, err := json.Marshal(append([]string{}, t.Columns...))
	if err != nil {
		return err
	}
	mapping, err := json.Marshal(t.Mapping)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.dialect.rebind(`INSERT INTO templates
	(owner, header_hash, label, columns, mapping, saved_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (owner, header_hash) DO UPDATE SET
		label = excluded.label,
		columns = excluded.columns,
		mapping = excluded.mapping,
		saved_at = excluded.saved_at`),
		t.Owner, t.HeaderHash, t.Label, string(columns), string(mapping), t.SavedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("error saving template: %w", err)
	}
	return nil
}

// DeleteTemplate implements template.Repository.
func (s *SQLStore) DeleteTemplate(ctx context.Context, owner, headerHash string) error {
	res, err := s.db.ExecContext(ctx, s.dialect.rebind(
		`DELETE FROM templates WHERE owner = ? AND header_hash = ?`), owner, headerHash)
	if err != nil {
		return fmt.Errorf("error deleting template: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListTemplates implements template.Repository.
func (s *SQLStore) ListTemplates(ctx context.Context, owner string) ([]template.Template, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(
		`SELECT owner, header_hash, label, columns, mapping, saved_at FROM templates
		WHERE owner = ? ORDER BY header_hash`), owner)
	if err != nil {
		return nil, fmt.Errorf("error listing templates: %w", err)
	}
	defer rows.Close()

	var out []template.Template
	for rows.Next() {
		t, err := scanTemplate(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
