// Package domain implements the lifecycle-guarded handle over a conserved
// memory region.
//
// A Domain starts Open with no region. Attach binds a caller-owned buffer
// once, Commit seals it exactly once by binding a witness, and Close drops the
// Domain's own bookkeeping. The attached bytes are never copied or freed; the
// caller keeps ownership and must re-run Verify after writing to them.
//
// All transitions are single atomic compare-and-swap operations, so a Domain
// may be shared across goroutines without external locking.
package domain

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/resonance/conserve"
	"github.com/teranos/resonance/errors"
	"github.com/teranos/resonance/logger"
	"github.com/teranos/resonance/metrics"
	"github.com/teranos/resonance/pulse/budget"
	"github.com/teranos/resonance/witness"
)

// State is the lifecycle state of a Domain.
type State int32

const (
	// Open is the initial state; the region may be attached and committed.
	Open State = iota
	// Committed is terminal; the witness is bound and immutable.
	Committed
	// Closed means Close ran; every further operation reports InvalidState.
	Closed
)

func (s State) String() string {
	switch s {
	case Open:
		return "OPEN"
	case Committed:
		return "COMMITTED"
	case Closed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// seal is the record installed by the one successful Commit.
type seal struct {
	witness     *witness.Witness
	committedAt time.Time
}

// Domain couples a non-owned region, a budget ledger and the commit seal.
type Domain struct {
	id          string
	expectedLen int

	region atomic.Pointer[[]byte]
	sealed atomic.Pointer[seal]
	closed atomic.Bool

	ledger *budget.Ledger
	log    *zap.SugaredLogger
	now    func() time.Time
}

// New creates an Open domain expecting a region of expectedLen bytes and a
// budget ledger starting at budgetClass. It returns an InvalidArgument error
// and a nil Domain when expectedLen is not positive or budgetClass lies
// outside [0,95].
func New(expectedLen, budgetClass int, log *zap.SugaredLogger) (*Domain, error) {
	if expectedLen <= 0 {
		return nil, errors.NewInvalidArgumentError("expected region length must be positive, got %d", expectedLen)
	}
	ledger, err := budget.New(budgetClass)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	d := &Domain{
		id:          id,
		expectedLen: expectedLen,
		ledger:      ledger,
		log:         logger.AddDomainSymbol(logger.Or(log)).With(logger.FieldDomainID, id),
		now:         time.Now,
	}
	d.log.Debugw("Domain created", logger.FieldSize, expectedLen, logger.FieldBudget, budgetClass)
	return d, nil
}

// ID returns the domain's unique identifier.
func (d *Domain) ID() string {
	if d == nil {
		return ""
	}
	return d.id
}

// ExpectedLen returns the region length the domain accepts.
func (d *Domain) ExpectedLen() int {
	if d == nil {
		return 0
	}
	return d.expectedLen
}

// State returns the current lifecycle state.
func (d *Domain) State() State {
	switch {
	case d == nil || d.closed.Load():
		return Closed
	case d.sealed.Load() != nil:
		return Committed
	default:
		return Open
	}
}

// Attached reports whether a region is bound.
func (d *Domain) Attached() bool {
	return d != nil && !d.closed.Load() && d.region.Load() != nil
}

// Attach binds buf as the domain's region. The domain does not copy buf.
//
// Attach fails with InvalidArgument when buf is empty or its length differs
// from the expected length, with InvalidState when a region is already bound
// or the domain is closed, and with ConservationViolation when the byte sum
// of buf is not 0 mod 96. A failed Attach leaves the domain unchanged.
func (d *Domain) Attach(buf []byte) error {
	if d == nil || d.closed.Load() {
		return errors.NewInvalidStateError("attach on closed domain")
	}
	if len(buf) == 0 {
		return errors.NewInvalidArgumentError("attach with empty region")
	}
	if len(buf) != d.expectedLen {
		return errors.NewInvalidArgumentError("region length %d, domain expects %d", len(buf), d.expectedLen)
	}
	if d.region.Load() != nil {
		return errors.NewInvalidStateError("domain %s already attached", d.id)
	}

	residue := conserve.Residue(buf)
	metrics.RecordConservationCheck("attach", residue == 0)
	if residue != 0 {
		d.log.Warnw("Attach rejected", logger.FieldResidue, residue)
		return errors.WithDetailf(errors.ErrConservationViolation, "attach: region sum mod 96 = %d", residue)
	}

	if !d.region.CompareAndSwap(nil, &buf) {
		return errors.NewInvalidStateError("domain %s already attached", d.id)
	}
	d.log.Debugw("Region attached", logger.FieldSize, len(buf))
	return nil
}

// Verify reports whether the conservation predicate holds over the attached
// region right now. It has no side effects and returns false when no region
// is attached.
func (d *Domain) Verify() bool {
	if d == nil || d.closed.Load() {
		return false
	}
	p := d.region.Load()
	if p == nil {
		return false
	}
	ok := conserve.Holds(*p)
	metrics.RecordConservationCheck("verify", ok)
	return ok
}

// Commit seals the domain by binding a fresh witness over the attached
// region. Exactly one of any number of concurrent callers succeeds; the rest,
// and every later call, get InvalidState. Commit also fails with
// InvalidState when no region is attached and with ConservationViolation
// when the predicate does not hold. Failed commits have no side effect.
func (d *Domain) Commit() error {
	err := d.commit()
	metrics.RecordCommit(errors.CodeOf(err).String())
	return err
}

func (d *Domain) commit() error {
	if d == nil || d.closed.Load() {
		return errors.NewInvalidStateError("commit on closed domain")
	}
	if d.sealed.Load() != nil {
		return errors.NewInvalidStateError("domain %s already committed", d.id)
	}
	p := d.region.Load()
	if p == nil {
		return errors.NewInvalidStateError("commit before attach")
	}
	buf := *p

	residue := conserve.Residue(buf)
	metrics.RecordConservationCheck("commit", residue == 0)
	if residue != 0 {
		return errors.WithDetailf(errors.ErrConservationViolation, "commit: region sum mod 96 = %d", residue)
	}

	w, err := witness.Generate(buf)
	metrics.RecordWitness("generate", err == nil)
	if err != nil {
		return err
	}

	if !d.sealed.CompareAndSwap(nil, &seal{witness: w, committedAt: d.now()}) {
		return errors.NewInvalidStateError("domain %s already committed", d.id)
	}
	d.log.Infow("Domain committed",
		logger.FieldWitness, w.String(),
		logger.FieldBudget, d.ledger.Value())
	return nil
}

// Witness returns the witness bound at commit, or nil while Open or after Close.
func (d *Domain) Witness() *witness.Witness {
	if d == nil || d.closed.Load() {
		return nil
	}
	s := d.sealed.Load()
	if s == nil {
		return nil
	}
	return s.witness
}

// CommittedAt returns the commit time, or the zero time while Open.
func (d *Domain) CommittedAt() time.Time {
	if d == nil {
		return time.Time{}
	}
	s := d.sealed.Load()
	if s == nil {
		return time.Time{}
	}
	return s.committedAt
}

// Budget returns the current ledger value.
func (d *Domain) Budget() int {
	if d == nil {
		return 0
	}
	return d.ledger.Value()
}

// BudgetAlloc adds amount to the domain ledger, failing with BudgetFailure
// when the result would exceed 95.
func (d *Domain) BudgetAlloc(amount int) error {
	if d == nil || d.closed.Load() {
		return errors.NewInvalidStateError("budget alloc on closed domain")
	}
	err := d.ledger.Alloc(amount)
	metrics.RecordBudget("alloc", err == nil)
	if err != nil {
		d.log.Debugw("Budget alloc refused", logger.FieldAmount, amount, logger.FieldBudget, d.ledger.Value())
	}
	return err
}

// BudgetRelease subtracts amount from the domain ledger, failing with
// BudgetFailure when amount exceeds the current value.
func (d *Domain) BudgetRelease(amount int) error {
	if d == nil || d.closed.Load() {
		return errors.NewInvalidStateError("budget release on closed domain")
	}
	err := d.ledger.Release(amount)
	metrics.RecordBudget("release", err == nil)
	if err != nil {
		d.log.Debugw("Budget release refused", logger.FieldAmount, amount, logger.FieldBudget, d.ledger.Value())
	}
	return err
}

// Close releases the domain's references to its region and witness. The
// region itself is untouched. Close is nil-safe and idempotent.
func (d *Domain) Close() {
	if d == nil || !d.closed.CompareAndSwap(false, true) {
		return
	}
	d.region.Store(nil)
	d.log.Debugw("Domain closed", "committed", d.sealed.Load() != nil)
}
