package db

import (
	"database/sql"
	"embed"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/resonance/errors"
	"github.com/teranos/resonance/logger"
)

//go:embed sqlite/migrations/*.sql
var migrations embed.FS

const migrationsDir = "sqlite/migrations"

// migration is one embedded SQL file, versioned by its numeric filename prefix.
type migration struct {
	version  string
	filename string
}

// listMigrations returns the embedded migrations in version order.
// 000_create_schema_migrations.sql sorts first and creates the bookkeeping table.
func listMigrations() ([]migration, error) {
	entries, err := migrations.ReadDir(migrationsDir)
	if err != nil {
		return nil, errors.Wrap(err, "read migrations")
	}

	var out []migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		out = append(out, migration{
			version:  strings.SplitN(entry.Name(), "_", 2)[0],
			filename: entry.Name(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].filename < out[j].filename })
	return out, nil
}

// applied reports whether version is already recorded. A missing
// schema_migrations table is only acceptable before migration 000 has run.
func applied(db *sql.DB, m migration) (bool, error) {
	var exists bool
	err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)", m.version).Scan(&exists)
	if err != nil {
		if m.version != "000" {
			return false, errors.Newf("schema_migrations table missing, but migration is not 000: %s", m.filename)
		}
		return false, nil
	}
	return exists, nil
}

// Migrate runs all pending migrations, each in its own transaction.
// If log is provided, logs migration progress; otherwise operates silently.
func Migrate(db *sql.DB, log *zap.SugaredLogger) error {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	dbLog := logger.AddDBSymbol(log)

	all, err := listMigrations()
	if err != nil {
		return err
	}

	ran := 0
	for _, m := range all {
		done, err := applied(db, m)
		if err != nil {
			return err
		}
		if done {
			dbLog.Debugw("Skipping migration (already applied)", "migration", m.filename)
			continue
		}

		body, err := migrations.ReadFile(path.Join(migrationsDir, m.filename))
		if err != nil {
			return errors.Wrapf(err, "read %s", m.filename)
		}

		dbLog.Infow("Applying migration", "migration", m.filename, "version", m.version)
		if logger.ShouldLogTrace(logger.Verbosity()) {
			dbLog.Debugw("Migration SQL", "migration", m.filename, "sql", string(body))
		}

		tx, err := db.Begin()
		if err != nil {
			return errors.Wrapf(err, "begin tx for %s", m.filename)
		}
		if _, err := tx.Exec(string(body)); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "execute %s", m.filename)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "record %s", m.filename)
		}
		if err := tx.Commit(); err != nil {
			return errors.Wrapf(err, "commit %s", m.filename)
		}
		ran++
	}

	dbLog.Infow("Migrations complete", "total_migrations", len(all), "applied", ran)
	return nil
}
