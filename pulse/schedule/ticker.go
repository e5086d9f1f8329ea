package schedule

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/resonance/errors"
	"github.com/teranos/resonance/logger"
	"github.com/teranos/resonance/metrics"
	"github.com/teranos/resonance/resonance"
)

// Window is one opened slot for a watched class.
type Window struct {
	Slot  uint64
	Class resonance.Class
	At    time.Time
}

// TickerConfig contains configuration for the window ticker
type TickerConfig struct {
	Interval time.Duration     // Length of one slot (default: 1 second)
	Classes  []resonance.Class // Classes to emit windows for; empty watches all 96
	Buffer   int               // Capacity of the window channel (default: 96)
}

// DefaultTickerConfig returns sensible defaults
func DefaultTickerConfig() TickerConfig {
	return TickerConfig{
		Interval: 1 * time.Second,
		Buffer:   Period,
	}
}

// Ticker converts wall-clock time into slots of Interval length, counted from
// the Unix epoch, and emits a Window whenever a slot opens a watched class.
type Ticker struct {
	interval time.Duration
	watched  [resonance.Classes]bool
	out      chan Window

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	log      *zap.SugaredLogger
	pulseLog *zap.SugaredLogger

	mu              sync.Mutex
	lastTickAt      time.Time
	lastSlot        uint64
	ticksSinceStart int64
	windowsEmitted  int64
	windowsDropped  int64
}

// NewTicker creates a window ticker
func NewTicker(cfg TickerConfig, log *zap.SugaredLogger) (*Ticker, error) {
	return NewTickerWithContext(context.Background(), cfg, log)
}

// NewTickerWithContext creates a ticker with a parent context
func NewTickerWithContext(ctx context.Context, cfg TickerConfig, log *zap.SugaredLogger) (*Ticker, error) {
	if cfg.Interval <= 0 {
		return nil, errors.NewInvalidArgumentError("ticker interval must be positive, got %s", cfg.Interval)
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = Period
	}

	tickerCtx, cancel := context.WithCancel(ctx)
	t := &Ticker{
		interval: cfg.Interval,
		out:      make(chan Window, cfg.Buffer),
		ctx:      tickerCtx,
		cancel:   cancel,
		log:      logger.Or(log),
		pulseLog: logger.AddPulseSymbol(logger.Or(log)),
	}
	if len(cfg.Classes) == 0 {
		for r := range t.watched {
			t.watched[r] = true
		}
	}
	for _, r := range cfg.Classes {
		if int(r) >= resonance.Classes {
			cancel()
			return nil, errors.NewInvalidArgumentError("class %d outside [0,95]", r)
		}
		t.watched[r] = true
	}
	return t, nil
}

// C returns the channel windows are delivered on. It is closed by Stop.
func (t *Ticker) C() <-chan Window {
	return t.out
}

// Start begins the ticker loop
func (t *Ticker) Start() {
	t.wg.Add(1)
	go t.run()
	logger.AddPulseOpenSymbol(t.log).Infow("Window ticker started", "interval", t.interval)
}

// Stop gracefully stops the ticker and closes its channel
func (t *Ticker) Stop() {
	t.cancel()
	t.wg.Wait()
	logger.AddPulseCloseSymbol(t.log).Infow("Window ticker stopped", "windows_emitted", t.Emitted())
}

// run is the main ticker loop
func (t *Ticker) run() {
	defer t.wg.Done()
	defer close(t.out)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.ctx.Done():
			return
		case tickTime := <-ticker.C:
			t.tick(tickTime)
		}
	}
}

// Interval returns the slot length.
func (t *Ticker) Interval() time.Duration {
	return t.interval
}

// Slot returns the slot containing at.
func (t *Ticker) Slot(at time.Time) uint64 {
	return uint64(at.UnixNano()) / uint64(t.interval)
}

// tick emits every watched window opened since the previous tick. A late tick
// catches up on at most one period of skipped slots, a tick that does not
// advance past the last handled slot emits nothing, and a full channel drops
// the window.
func (t *Ticker) tick(at time.Time) {
	slot := t.Slot(at)

	t.mu.Lock()
	if t.ticksSinceStart > 0 && slot <= t.lastSlot {
		// Same slot again (ticker jitter) or the clock stepped back: every
		// window up to lastSlot has already been emitted.
		t.lastTickAt = at
		t.ticksSinceStart++
		t.mu.Unlock()
		return
	}
	first := t.lastSlot + 1
	switch {
	case t.ticksSinceStart == 0:
		first = slot
	case slot-first >= Period:
		first = slot - Period + 1
	}
	t.lastSlot = slot
	t.lastTickAt = at
	t.ticksSinceStart++
	t.mu.Unlock()

	for s := first; s <= slot; s++ {
		class := ClassAt(s)
		if !t.watched[class] {
			continue
		}
		t.emit(Window{Slot: s, Class: class, At: at})
	}
}

func (t *Ticker) emit(w Window) {
	select {
	case t.out <- w:
		metrics.RecordWindow()
		t.mu.Lock()
		t.windowsEmitted++
		t.mu.Unlock()
		t.pulseLog.Debugw("Window opened", logger.FieldSlot, w.Slot, logger.FieldClass, w.Class)
	default:
		t.mu.Lock()
		t.windowsDropped++
		t.mu.Unlock()
		t.pulseLog.Warnw("Window dropped, consumer too slow", logger.FieldSlot, w.Slot, logger.FieldClass, w.Class)
	}
}

// Next returns the start time of the first slot, counting from the one that
// contains from, which opens class r.
func (t *Ticker) Next(from time.Time, r resonance.Class) time.Time {
	slot := NextWindow(t.Slot(from), r)
	return time.Unix(0, int64(slot*uint64(t.interval)))
}

// Emitted returns the number of windows delivered so far.
func (t *Ticker) Emitted() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.windowsEmitted
}

// GetStats returns ticker statistics
func (t *Ticker) GetStats() map[string]interface{} {
	t.mu.Lock()
	defer t.mu.Unlock()

	return map[string]interface{}{
		"last_tick_at":      t.lastTickAt,
		"last_slot":         t.lastSlot,
		"ticks_since_start": t.ticksSinceStart,
		"windows_emitted":   t.windowsEmitted,
		"windows_dropped":   t.windowsDropped,
		"interval":          t.interval,
	}
}
