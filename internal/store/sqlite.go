package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"fjacquet/rent-recon/internal/fileutils"
	"fjacquet/rent-recon/internal/logging"

	_ "github.com/mattn/go-sqlite3"
)

// OpenSQLite opens (creating if needed) a SQLite database and migrates it.
func OpenSQLite(ctx context.Context, path string, logger logging.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if err := fileutils.EnsureDirectoryExists(filepath.Dir(path)); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error connecting to sqlite database: %w", err)
	}

	s, err := newSQLStore(db, sqliteDialect, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Opened storage",
		logging.F(logging.FieldDriver, "sqlite"),
		logging.F(logging.FieldFile, path))
	return s, nil
}
