package commands

import (
	"database/sql"
	"os"

	"github.com/teranos/resonance/am"
	"github.com/teranos/resonance/conserve"
	"github.com/teranos/resonance/db"
	"github.com/teranos/resonance/errors"
	"github.com/teranos/resonance/logger"
	"github.com/teranos/resonance/metrics"
)

// ApplyConfig loads and validates configuration, then applies the settings
// that are process-wide: the conserve backend and the metrics toggle.
func ApplyConfig() error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	if err := conserve.Use(cfg.Primitives.Backend); err != nil {
		return err
	}
	metrics.Enable(cfg.Metrics.Enabled)
	return nil
}

// openDatabase opens and migrates the database at the configured path,
// or at dbPath when given.
func openDatabase(dbPath string) (*sql.DB, error) {
	if dbPath == "" {
		cfg, err := am.Load()
		if err != nil {
			return nil, errors.Wrap(err, "failed to load configuration")
		}
		dbPath = cfg.GetDatabasePath()
	}

	database, err := db.OpenWithMigrations(dbPath, logger.Logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database at %s", dbPath)
	}
	return database, nil
}

// readRegion reads a region file in full.
func readRegion(path string) ([]byte, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read region %s", path)
	}
	if len(buf) == 0 {
		return nil, errors.NewInvalidArgumentError("region file %s is empty", path)
	}
	return buf, nil
}
