package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/teranos/resonance/errors"
	"github.com/teranos/resonance/logger"
	"github.com/teranos/resonance/resonance"
	"github.com/teranos/resonance/sym"
)

// slotTime returns the start of slot s for a ticker with the given interval.
func slotTime(s uint64, interval time.Duration) time.Time {
	return time.Unix(0, int64(s)*int64(interval))
}

func drain(ch <-chan Window) []Window {
	var out []Window
	for {
		select {
		case w := <-ch:
			out = append(out, w)
		default:
			return out
		}
	}
}

func TestNewTicker_Validation(t *testing.T) {
	_, err := NewTicker(TickerConfig{Interval: 0}, nil)
	assert.Equal(t, errors.InvalidArgument, errors.CodeOf(err))

	_, err = NewTicker(TickerConfig{Interval: time.Second, Classes: []resonance.Class{96}}, nil)
	assert.Equal(t, errors.InvalidArgument, errors.CodeOf(err))
}

func TestTicker_EmitsOnlyWatchedClasses(t *testing.T) {
	cfg := DefaultTickerConfig()
	cfg.Classes = []resonance.Class{0, 5}
	tk, err := NewTicker(cfg, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	// Slots 960..1055 cover one full period.
	for s := uint64(960); s < 960+Period; s++ {
		tk.tick(slotTime(s, cfg.Interval))
	}

	got := drain(tk.C())
	require.Len(t, got, 2)
	assert.Equal(t, Window{Slot: 960, Class: 0, At: slotTime(960, cfg.Interval)}, got[0])
	assert.Equal(t, resonance.Class(5), got[1].Class)
	assert.Equal(t, uint64(960+91), got[1].Slot)
	for _, w := range got {
		assert.Equal(t, w.Slot, NextWindow(w.Slot, w.Class))
	}
}

func TestTicker_CatchesUpSkippedSlots(t *testing.T) {
	cfg := DefaultTickerConfig()
	tk, err := NewTicker(cfg, nil)
	require.NoError(t, err)

	tk.tick(slotTime(100, cfg.Interval))
	tk.tick(slotTime(104, cfg.Interval))

	got := drain(tk.C())
	require.Len(t, got, 5)
	for i, w := range got {
		assert.Equal(t, uint64(100+i), w.Slot)
		assert.Equal(t, ClassAt(w.Slot), w.Class)
	}
}

func TestTicker_SameSlotEmitsOnce(t *testing.T) {
	cfg := DefaultTickerConfig()
	cfg.Classes = []resonance.Class{0}
	tk, err := NewTicker(cfg, nil)
	require.NoError(t, err)

	start := slotTime(960, cfg.Interval)
	tk.tick(start.Add(10 * time.Millisecond))
	tk.tick(start.Add(990 * time.Millisecond))

	got := drain(tk.C())
	require.Len(t, got, 1)
	assert.Equal(t, uint64(960), got[0].Slot)

	stats := tk.GetStats()
	assert.Equal(t, uint64(960), stats["last_slot"])
	assert.Equal(t, int64(2), stats["ticks_since_start"])
	assert.Equal(t, start.Add(990*time.Millisecond), stats["last_tick_at"])
}

func TestTicker_ClockStepBackEmitsNothing(t *testing.T) {
	cfg := DefaultTickerConfig()
	tk, err := NewTicker(cfg, nil)
	require.NoError(t, err)

	tk.tick(slotTime(200, cfg.Interval))
	tk.tick(slotTime(195, cfg.Interval))
	got := drain(tk.C())
	require.Len(t, got, 1)
	assert.Equal(t, uint64(200), tk.GetStats()["last_slot"])

	// Resumes after the last handled slot, not after the stepped-back one.
	tk.tick(slotTime(202, cfg.Interval))
	got = drain(tk.C())
	require.Len(t, got, 2)
	assert.Equal(t, uint64(201), got[0].Slot)
	assert.Equal(t, uint64(202), got[1].Slot)
}

func TestTicker_CatchUpBoundedToOnePeriod(t *testing.T) {
	cfg := DefaultTickerConfig()
	cfg.Buffer = 4 * Period
	tk, err := NewTicker(cfg, nil)
	require.NoError(t, err)

	tk.tick(slotTime(0, cfg.Interval))
	tk.tick(slotTime(1000, cfg.Interval))

	got := drain(tk.C())
	assert.Len(t, got, 1+Period)
}

func TestTicker_DropsWhenFull(t *testing.T) {
	cfg := DefaultTickerConfig()
	cfg.Buffer = 1
	tk, err := NewTicker(cfg, nil)
	require.NoError(t, err)

	tk.tick(slotTime(10, cfg.Interval))
	tk.tick(slotTime(12, cfg.Interval))

	stats := tk.GetStats()
	assert.Equal(t, int64(1), stats["windows_emitted"])
	assert.Equal(t, int64(2), stats["windows_dropped"])
	assert.Equal(t, uint64(12), stats["last_slot"])
	assert.Equal(t, int64(2), stats["ticks_since_start"])
}

func TestTicker_Next(t *testing.T) {
	cfg := DefaultTickerConfig()
	tk, err := NewTicker(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Second, tk.Interval())

	from := slotTime(1, cfg.Interval).Add(300 * time.Millisecond)
	next := tk.Next(from, 0)
	assert.Equal(t, slotTime(96, cfg.Interval), next)
	assert.Equal(t, resonance.Class(0), ClassAt(tk.Slot(next)))
}

func TestTicker_StartStop(t *testing.T) {
	cfg := TickerConfig{Interval: time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	core, logs := observer.New(zapcore.InfoLevel)
	tk, err := NewTickerWithContext(ctx, cfg, zap.New(core).Sugar())
	require.NoError(t, err)
	tk.Start()

	select {
	case w := <-tk.C():
		assert.Equal(t, w.Slot, NextWindow(w.Slot, w.Class))
	case <-time.After(2 * time.Second):
		t.Fatal("no window within 2s")
	}

	tk.Stop()
	for range tk.C() {
		// drain until closed
	}

	started := logs.FilterMessage("Window ticker started").All()
	require.Len(t, started, 1)
	assert.Equal(t, sym.PulseOpen, started[0].ContextMap()[logger.FieldSymbol])
	stopped := logs.FilterMessage("Window ticker stopped").All()
	require.Len(t, stopped, 1)
	assert.Equal(t, sym.PulseClose, stopped[0].ContextMap()[logger.FieldSymbol])
	assert.GreaterOrEqual(t, tk.Emitted(), int64(1))
}
