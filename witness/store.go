package witness

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/resonance/errors"
	"github.com/teranos/resonance/logger"
)

// timeLayout is fixed-width so committed_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Record is one persisted commit witness.
type Record struct {
	DomainID    string
	Witness     *Witness
	Budget      int
	CommittedAt time.Time
}

// Store persists witnesses of committed domains in the witnesses table.
type Store struct {
	db  *sql.DB
	log *zap.SugaredLogger
	now func() time.Time
}

// NewStore creates a witness store over a migrated database.
func NewStore(db *sql.DB, log *zap.SugaredLogger) *Store {
	return &Store{
		db:  db,
		log: logger.AddWitnessSymbol(logger.Or(log)),
		now: time.Now,
	}
}

// Save records the witness of a committed domain. A domain commits exactly
// once, so saving a second witness for the same domain is an invalid state.
func (s *Store) Save(ctx context.Context, rec Record) error {
	if rec.DomainID == "" {
		return errors.NewInvalidArgumentError("witness record without domain id")
	}
	if rec.Witness == nil {
		return errors.Wrap(errors.ErrWitnessInvalid, "witness record without witness")
	}
	if rec.CommittedAt.IsZero() {
		rec.CommittedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO witnesses (domain_id, cid, region_len, budget, committed_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		rec.DomainID,
		rec.Witness.String(),
		rec.Witness.Len(),
		rec.Budget,
		rec.CommittedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return errors.Wrapf(errors.ErrInvalidState, "witness already recorded for domain %s", rec.DomainID)
		}
		return errors.Wrapf(err, "failed to save witness for domain %s", rec.DomainID)
	}

	ctx = logger.WithDomainID(ctx, rec.DomainID)
	logger.WithContext(ctx, s.log).Infow("Witness recorded",
		logger.FieldWitness, rec.Witness.String(),
		logger.FieldSize, rec.Witness.Len())
	return nil
}

// Get returns the witness recorded for a domain.
func (s *Store) Get(ctx context.Context, domainID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT domain_id, cid, region_len, budget, committed_at
		FROM witnesses
		WHERE domain_id = ?
	`, domainID)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrNotFound, "no witness for domain %s", domainID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load witness for domain %s", domainID)
	}
	logger.WithContext(logger.WithDomainID(ctx, domainID), s.log).Debugw("Witness loaded",
		logger.FieldWitness, rec.Witness.String())
	return rec, nil
}

// Latest returns the most recently committed witness.
func (s *Store) Latest(ctx context.Context) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT domain_id, cid, region_len, budget, committed_at
		FROM witnesses
		ORDER BY committed_at DESC
		LIMIT 1
	`)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(errors.ErrNotFound, "no witnesses recorded")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load latest witness")
	}
	return rec, nil
}

// List returns up to limit witnesses, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT domain_id, cid, region_len, budget, committed_at
		FROM witnesses
		ORDER BY committed_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list witnesses")
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan witness")
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate witnesses")
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		rec         Record
		cidText     string
		regionLen   int
		committedAt string
	)
	if err := row.Scan(&rec.DomainID, &cidText, &regionLen, &rec.Budget, &committedAt); err != nil {
		return nil, err
	}

	w, err := Parse(cidText, regionLen)
	if err != nil {
		return nil, err
	}
	rec.Witness = w

	ts, err := time.Parse(timeLayout, committedAt)
	if err != nil {
		return nil, errors.Wrapf(err, "parse committed_at %q", committedAt)
	}
	rec.CommittedAt = ts
	return &rec, nil
}
