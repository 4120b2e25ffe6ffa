package marketapi

import (
	"database/sql"
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// EnsureMigrations brings the database at dbPath up to the latest schema.
func EnsureMigrations(dbPath string) error {
	sqliteDb, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}
	driver, err := sqlite3.WithInstance(sqliteDb, &sqlite3.Config{})
	if err != nil {
		sqliteDb.Close()
		return err
	}
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		sqliteDb.Close()
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		sqliteDb.Close()
		return err
	}
	log.Info().Str("dbPath", dbPath).Msg("bringing up migration")
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		m.Close()
		return err
	}
	e1, e2 := m.Close()
	log.Err(e1).Msg("close-source")
	log.Err(e2).Msg("close-database")
	return nil
}
