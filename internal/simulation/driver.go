// Package simulation runs the parallel cross-section lookup loop and reduces
// every lookup into an order-independent checksum.
package simulation

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/xsbenchgo/internal/ctxlog"
	"github.com/specialistvlad/xsbenchgo/internal/lookup"
	"github.com/specialistvlad/xsbenchgo/internal/material"
	"github.com/specialistvlad/xsbenchgo/internal/rng"
)

// Observer is notified after a worker finishes a chunk of lookups.
type Observer interface {
	ObserveLookups(n int)
}

// Result describes one finished run.
type Result struct {
	Checksum uint64
	Elapsed  time.Duration
	Lookups  int
	Workers  int
}

// Rate is lookups per second.
func (r *Result) Rate() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Lookups) / r.Elapsed.Seconds()
}

// accumulator is padded to its own cache line.
type accumulator struct {
	sum uint64
	_   [56]byte
}

// Driver executes the lookups of one run. A Driver runs once.
type Driver struct {
	engine   *lookup.Engine
	settings Settings
	chunk    int
	observer Observer
	lo, hi   float64

	cursor    atomic.Int64
	completed atomic.Int64
	shared    *rng.Locked
	sums      []accumulator
}

// Option customizes a Driver.
type Option func(*Driver)

// WithObserver registers o for per-chunk progress notifications.
func WithObserver(o Observer) Option {
	return func(d *Driver) { d.observer = o }
}

// NewDriver validates settings and prepares a driver over engine.
func NewDriver(engine *lookup.Engine, settings Settings, opts ...Option) (*Driver, error) {
	if err := settings.validate(); err != nil {
		return nil, err
	}
	lo, hi := engine.Grid().Range()
	d := &Driver{
		engine:   engine,
		settings: settings,
		chunk:    settings.chunkSize(),
		lo:       lo,
		hi:       hi,
		sums:     make([]accumulator, settings.Workers),
	}
	if settings.Mode == Verification && settings.Strategy == Locked {
		d.shared = rng.NewLocked(settings.Stream)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Settings returns the settings the driver was built with.
func (d *Driver) Settings() Settings { return d.settings }

// Completed is the number of lookups finished so far. Safe to call while Run
// is in progress.
func (d *Driver) Completed() int64 { return d.completed.Load() }

// Run executes every lookup and returns once all workers are done. The loop
// has no cancellation point; ctx only carries the logger.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Starting lookup workers.",
		"workers", d.settings.Workers,
		"lookups", d.settings.Lookups,
		"mode", d.settings.Mode.String(),
		"chunk", d.chunk,
	)

	start := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < d.settings.Workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			d.worker(ctx, workerID)
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	var checksum uint64
	for i := range d.sums {
		checksum += d.sums[i].sum
	}
	logger.Debug("Lookup workers finished.", "duration", elapsed, "checksum", checksum)

	return &Result{
		Checksum: checksum,
		Elapsed:  elapsed,
		Lookups:  d.settings.Lookups,
		Workers:  d.settings.Workers,
	}, nil
}

// worker claims chunks from the shared cursor until the trial range is
// exhausted.
func (d *Driver) worker(ctx context.Context, workerID int) {
	logger := ctxlog.FromContext(ctx).With("workerID", workerID)
	logger.Debug("Worker started.")

	draw := d.drawFunc(workerID)
	total := int64(d.settings.Lookups)
	chunk := int64(d.chunk)
	buf := make([]byte, 0, 128)
	var sum uint64

	for {
		first := d.cursor.Add(chunk) - chunk
		if first >= total {
			break
		}
		last := min(first+chunk, total)
		for i := first; i < last; i++ {
			u1, u2 := draw(i)
			energy := d.lo + u1*(d.hi-d.lo)
			mat := material.Pick(u2)
			macro := d.engine.Macro(energy, mat)
			buf = AppendFingerprint(buf[:0], energy, mat, macro)
			sum += Hash(buf)
		}
		d.completed.Add(last - first)
		if d.observer != nil {
			d.observer.ObserveLookups(int(last - first))
		}
	}

	d.sums[workerID].sum = sum
	logger.Debug("Worker finished.")
}

// drawFunc returns the per-trial draw pair source for one worker. Trials are
// claimed in increasing order, so the indexed source only ever skips forward.
func (d *Driver) drawFunc(workerID int) func(trial int64) (float64, float64) {
	switch {
	case d.settings.Mode == Performance:
		src := rng.NewParkMiller(rng.WorkerSeed(workerID) + d.settings.Seed)
		return func(int64) (float64, float64) {
			return src.Float64(), src.Float64()
		}
	case d.settings.Strategy == Locked:
		return func(int64) (float64, float64) {
			return d.shared.Pair()
		}
	default:
		src := d.settings.Stream.Clone()
		var next int64
		return func(trial int64) (float64, float64) {
			if trial != next {
				src.Skip(uint64(trial-next) * DrawsPerLookup)
			}
			next = trial + 1
			return src.Float64(), src.Float64()
		}
	}
}
