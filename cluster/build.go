// Package cluster builds CSR views that group region coordinates by
// resonance class.
//
// A build is two linear passes: count bytes per class, prefix-sum the counts
// into bucket offsets, then rescan writing each coordinate at its bucket's
// cursor. Because the scan is in coordinate order and cursors only advance,
// every bucket comes out ascending without a sort.
//
// The parallel build splits the page range across workers. Each worker
// counts its own pages; the merge gives worker w a starting cursor in bucket
// r just past all class-r coordinates of workers before it, so the second
// pass writes disjoint slots and keeps the same ascending order.
package cluster

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teranos/resonance/errors"
	"github.com/teranos/resonance/logger"
	"github.com/teranos/resonance/metrics"
	"github.com/teranos/resonance/resonance"
)

// DefaultMinPagesPerWorker is the smallest page range handed to one worker.
const DefaultMinPagesPerWorker = 4

// maxPages keeps pages*256 within uint32 coordinates.
const maxPages = math.MaxUint32 / resonance.PageSize

// Builder holds the tuning for cluster builds.
type Builder struct {
	// Workers is the maximum number of goroutines per build; 0 or 1 is serial.
	Workers int
	// MinPagesPerWorker bounds how thinly pages are split.
	MinPagesPerWorker int

	log *zap.SugaredLogger
}

// NewBuilder creates a builder. A nil logger uses the global logger.
func NewBuilder(workers, minPagesPerWorker int, log *zap.SugaredLogger) *Builder {
	if minPagesPerWorker <= 0 {
		minPagesPerWorker = DefaultMinPagesPerWorker
	}
	return &Builder{
		Workers:           workers,
		MinPagesPerWorker: minPagesPerWorker,
		log:               logger.AddClusterSymbol(logger.Or(log)),
	}
}

// Build constructs a view over the first pages*256 bytes of buf in one goroutine.
func Build(buf []byte, pages int) (*View, error) {
	return NewBuilder(1, 0, nil).Build(context.Background(), buf, pages)
}

// BuildParallel constructs a view using up to workers goroutines.
// The result is identical to Build over the same bytes.
func BuildParallel(ctx context.Context, buf []byte, pages, workers int) (*View, error) {
	return NewBuilder(workers, 0, nil).Build(ctx, buf, pages)
}

// Build constructs a view over the first pages*256 bytes of buf. The bytes
// must not change while the build runs.
func (b *Builder) Build(ctx context.Context, buf []byte, pages int) (*View, error) {
	if pages <= 0 {
		return nil, errors.NewInvalidArgumentError("cluster build over %d pages", pages)
	}
	if pages > maxPages {
		return nil, errors.WithDetailf(errors.ErrAllocationFailure, "%d pages exceed the coordinate space", pages)
	}
	if len(buf) < pages*resonance.PageSize {
		return nil, errors.NewInvalidArgumentError("buffer holds %d bytes, %d pages need %d", len(buf), pages, pages*resonance.PageSize)
	}

	start := time.Now()
	workers := b.workersFor(pages)
	mode := "serial"
	if workers > 1 {
		mode = "parallel"
	}

	v, err := b.build(ctx, buf, pages, workers)
	if err != nil {
		b.log.Warnw("Cluster build failed", logger.FieldPages, pages, logger.FieldWorkers, workers, logger.FieldError, err)
		return nil, err
	}

	elapsed := time.Since(start)
	metrics.RecordClusterBuild(mode, elapsed.Seconds())
	b.log.Debugw("Cluster built",
		logger.FieldPages, pages,
		logger.FieldWorkers, workers,
		logger.FieldCount, v.N,
		logger.FieldDurationMS, elapsed.Milliseconds())
	if logger.ShouldLogAll(logger.Verbosity()) {
		for r := 0; r < resonance.Classes; r++ {
			if n := v.Count(r); n > 0 {
				b.log.Debugw("Cluster bucket", logger.FieldClass, r, logger.FieldCount, n)
			}
		}
	}
	return v, nil
}

func (b *Builder) workersFor(pages int) int {
	w := b.Workers
	if w <= 1 {
		return 1
	}
	floor := b.MinPagesPerWorker
	if floor <= 0 {
		floor = DefaultMinPagesPerWorker
	}
	if most := pages / floor; w > most {
		w = most
	}
	if w < 1 {
		w = 1
	}
	return w
}

// span is the page range [lo, hi) owned by one worker.
type span struct{ lo, hi int }

func split(pages, workers int) []span {
	spans := make([]span, workers)
	per, extra := pages/workers, pages%workers
	lo := 0
	for i := range spans {
		n := per
		if i < extra {
			n++
		}
		spans[i] = span{lo, lo + n}
		lo += n
	}
	return spans
}

func (b *Builder) build(ctx context.Context, buf []byte, pages, workers int) (*View, error) {
	spans := split(pages, workers)
	counts := make([]resonance.Histogram, workers)

	// Pass 1: per-span class counts.
	if err := run(ctx, spans, func(ctx context.Context, w int, s span) error {
		for p := s.lo; p < s.hi; p++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			h := resonance.HistogramPage(resonance.PageAt(buf, p))
			counts[w].Add(&h)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	n := uint32(pages * resonance.PageSize)
	v := &View{
		Offsets: make([]uint32, resonance.Classes+1),
		Indices: make([]uint32, n),
		N:       n,
	}

	// Exclusive prefix sum over classes, then per-worker cursors within each bucket.
	cursors := make([][resonance.Classes]uint32, workers)
	var acc uint32
	for r := 0; r < resonance.Classes; r++ {
		v.Offsets[r] = acc
		for w := range counts {
			cursors[w][r] = acc
			acc += counts[w][r]
		}
	}
	v.Offsets[resonance.Classes] = acc
	if acc != n {
		return nil, errors.AssertionFailedf("cluster counts sum to %d, expected %d", acc, n)
	}

	// Pass 2: scatter coordinates into their buckets.
	if err := run(ctx, spans, func(ctx context.Context, w int, s span) error {
		cur := &cursors[w]
		var classes [resonance.PageSize]resonance.Class
		for p := s.lo; p < s.hi; p++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			resonance.ClassifyPage(resonance.PageAt(buf, p), &classes)
			base := resonance.Coordinate(p, 0)
			for off, r := range classes {
				v.Indices[cur[r]] = base + uint32(off)
				cur[r]++
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return v, nil
}

// run executes fn once per span, inline for a single span and on an
// errgroup otherwise.
func run(ctx context.Context, spans []span, fn func(ctx context.Context, w int, s span) error) error {
	if len(spans) == 1 {
		return fn(ctx, 0, spans[0])
	}
	g, gctx := errgroup.WithContext(ctx)
	for w, s := range spans {
		g.Go(func() error {
			return fn(gctx, w, s)
		})
	}
	return g.Wait()
}
