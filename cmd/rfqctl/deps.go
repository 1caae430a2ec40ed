package main

import (
	"fmt"
	"strconv"

	"github.com/diewo77/uds-rfq/internal/config"
	"github.com/diewo77/uds-rfq/internal/db"
	"github.com/diewo77/uds-rfq/internal/services"
	"gorm.io/gorm"
)

// Deps holds what commands work with.
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Services *services.Services
}

// withDeps loads config, applies the global flags, opens the database and calls fn. The
// connection is closed afterwards.
func withDeps(g *globalFlags, fn func(*Deps) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if g.dsn != "" {
		cfg.Database.DSN = g.dsn
	}
	if g.driver != "" {
		cfg.Database.Driver = g.driver
	}

	gdb, err := db.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	return fn(&Deps{Config: cfg, DB: gdb, Services: services.New(gdb)})
}

func parseID(arg, what string) (uint, error) {
	n, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid %s %q", what, arg)
	}
	return uint(n), nil
}
