package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fjacquet/rent-recon/internal/logging"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// OpenPostgres connects to PostgreSQL through the pgx driver and migrates
// the schema.
func OpenPostgres(ctx context.Context, dsn string, logger logging.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if dsn == "" {
		return nil, errors.New("postgres storage requires a DSN")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening postgres database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error connecting to postgres database: %w", err)
	}

	s, err := newSQLStore(db, postgresDialect, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Opened storage", logging.F(logging.FieldDriver, "postgres"))
	return s, nil
}
