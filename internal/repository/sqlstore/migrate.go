package sqlstore

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies the embedded schema migrations for the driver. It uses its
// own connection so the caller's pool settings are left untouched.
func Migrate(driver, dsn string) error {
	sqlDriver := "sqlite"
	if driver == DriverPostgres {
		sqlDriver = "pgx"
	}

	migrateDB, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	var dbDriver database.Driver
	switch driver {
	case DriverSQLite:
		dbDriver, err = sqlite.WithInstance(migrateDB, &sqlite.Config{})
	case DriverPostgres:
		dbDriver, err = migratepgx.WithInstance(migrateDB, &migratepgx.Config{})
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return fmt.Errorf("create %s migration driver: %w", driver, err)
	}

	src, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, driver, dbDriver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
