package db

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/diewo77/uds-rfq/internal/config"
	"github.com/diewo77/uds-rfq/internal/models"
	migrate "github.com/golang-migrate/migrate/v4"
	// Register the postgres driver and the file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/gorm"
)

const migrationsSource = "file://migrations"

// Migrate brings the schema up to date. With useSQL on PostgreSQL the versioned SQL files
// under ./migrations are applied; otherwise gorm AutoMigrate builds the schema from the
// models.
func Migrate(gdb *gorm.DB, cfg config.DatabaseConfig, useSQL bool) error {
	if useSQL && cfg.DriverName() == config.DriverPostgres {
		slog.Info("running sql migrations", "source", migrationsSource)
		if err := runSQLMigrations(ToURLDSN(NormalizeDSN(cfg.ConnString()))); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
	} else if err := AutoMigrate(gdb); err != nil {
		return err
	}

	for _, table := range []string{"rfqs", "quotation_versions", "quotation_version_items"} {
		if !gdb.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// AutoMigrate runs gorm AutoMigrate for every model, reporting the failing model.
func AutoMigrate(gdb *gorm.DB) error {
	for _, m := range models.All() {
		if err := gdb.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

func runSQLMigrations(dsn string) error {
	m, err := migrate.New(migrationsSource, dsn)
	if err != nil {
		return err
	}
	defer m.Close()
	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
