package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrations embed.FS

// runMigrations applies all up migrations of a dialect to db. The migrate
// instance is not closed since that would close db.
func runMigrations(db *sql.DB, d dialect) error {
	src, err := iofs.New(migrations, d.migrations)
	if err != nil {
		return fmt.Errorf("error loading migrations: %w", err)
	}
	defer src.Close()

	var driver database.Driver
	switch d.name {
	case sqliteDialect.name:
		driver, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	case postgresDialect.name:
		driver, err = migratepgx.WithInstance(db, &migratepgx.Config{})
	default:
		err = fmt.Errorf("no migration driver for %s", d.name)
	}
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", src, d.name, driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error applying migrations: %w", err)
	}
	return nil
}
