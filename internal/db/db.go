// Package db opens the database, migrates the schema and seeds reference data.
package db

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/diewo77/uds-rfq/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const connectAttempts = 10

// Open connects with the configured driver. PostgreSQL connections are retried to give
// the server time to start. Driver errors are translated so unique violations surface as
// gorm.ErrDuplicatedKey.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel), TranslateError: true}

	driver := cfg.DriverName()
	dsn := cfg.ConnString()
	var (
		gdb *gorm.DB
		err error
	)
	switch driver {
	case config.DriverSQLite:
		gdb, err = gorm.Open(sqlite.Open(dsn), gcfg)
	case config.DriverPostgres:
		dsn = NormalizeDSN(dsn)
		for i := 0; i < connectAttempts; i++ {
			gdb, err = gorm.Open(postgres.Open(dsn), gcfg)
			if err == nil {
				break
			}
			slog.Warn("retrying database connection", "attempt", i+1, "error", err)
			time.Sleep(2 * time.Second)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if pingErr := gdb.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	slog.Info("database connected", "driver", driver, "dsn", MaskDSN(dsn))
	return gdb, nil
}
