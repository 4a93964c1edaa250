package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/xsbenchgo/internal/blob"
	"github.com/specialistvlad/xsbenchgo/internal/ctxlog"
	"github.com/specialistvlad/xsbenchgo/internal/history"
	"github.com/specialistvlad/xsbenchgo/internal/lookup"
	"github.com/specialistvlad/xsbenchgo/internal/material"
	"github.com/specialistvlad/xsbenchgo/internal/metrics"
	"github.com/specialistvlad/xsbenchgo/internal/nuclide"
	"github.com/specialistvlad/xsbenchgo/internal/publish"
	"github.com/specialistvlad/xsbenchgo/internal/report"
	"github.com/specialistvlad/xsbenchgo/internal/rng"
	"github.com/specialistvlad/xsbenchgo/internal/simulation"
	"github.com/specialistvlad/xsbenchgo/internal/snapshot"
	"github.com/specialistvlad/xsbenchgo/internal/sysinfo"
	"github.com/specialistvlad/xsbenchgo/internal/unionized"
)

// Summary describes a finished invocation.
type Summary struct {
	RunID     string
	StartedAt time.Time
	Problem   Problem
	// Dumped is set when the run only wrote a snapshot.
	Dumped      bool
	SnapshotKey string

	Results  []*simulation.Result
	Elapsed  time.Duration
	Lookups  int
	Rate     float64
	Checksum uint64
}

// Record converts the summary into a history record.
func (s *Summary) Record() history.Record {
	return history.Record{
		RunID:            s.RunID,
		StartedAt:        s.StartedAt,
		Mode:             s.Problem.Mode().String(),
		Size:             s.Problem.Size,
		Threads:          s.Problem.Threads,
		Isotopes:         s.Problem.Isotopes,
		GridPoints:       s.Problem.GridPoints,
		Lookups:          s.Lookups,
		Replicas:         s.Problem.Replicas,
		ElapsedSeconds:   s.Elapsed.Seconds(),
		LookupsPerSecond: s.Rate,
		Checksum:         s.Checksum,
	}
}

// Run executes the benchmark: setup, the timed lookup loop and the sinks.
func (a *App) Run(ctx context.Context) (*Summary, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	a.logger.Debug("App.Run method started.")

	a.healthCheckServer()
	defer a.closeHealthCheckServer()

	p := a.problem
	summary := &Summary{RunID: history.NewRunID(), StartedAt: time.Now().UTC(), Problem: p}
	ctx = ctxlog.With(ctx, "runID", summary.RunID)

	a.printer.Inputs(report.Inputs{
		Verification:   p.Verify,
		Strategy:       p.Strategy.String(),
		Materials:      material.Count,
		Size:           p.Size,
		Isotopes:       p.Isotopes,
		GridPoints:     p.GridPoints,
		UnionPoints:    p.Isotopes * p.GridPoints,
		Lookups:        p.Lookups,
		Threads:        p.Threads,
		Replicas:       p.Replicas,
		EstimatedBytes: unionized.EstimateBytes(p.Isotopes, p.GridPoints),
	})

	need := unionized.EstimateBytes(p.Isotopes, p.GridPoints)
	if err := sysinfo.CheckMemory(ctx, need, a.probe); err != nil {
		return nil, err
	}
	if err := interrupted(ctx, "grid setup"); err != nil {
		return nil, err
	}

	// Verification draws come from one stream in a fixed order: grids,
	// then concentrations, then lookups.
	var stream *rng.ParkMiller
	var setup rng.Source
	if p.Verify {
		stream = rng.NewParkMiller(rng.VerificationSeed)
		setup = stream
	} else {
		setup = rng.NewTimeSeeded()
	}

	grid, err := a.grid(ctx, stream, setup)
	if err != nil {
		return nil, err
	}
	if err := interrupted(ctx, "material setup"); err != nil {
		return nil, err
	}

	if a.config.Snapshot == SnapshotDump {
		summary.Dumped = true
		summary.SnapshotKey = a.snapshotKey()
		a.logger.Info("Grid snapshot dumped, exiting.", "key", summary.SnapshotKey)
		return summary, nil
	}

	table, err := a.materialTable(setup)
	if err != nil {
		return nil, err
	}
	engine := lookup.New(grid, table)

	if err := interrupted(ctx, "simulation"); err != nil {
		return nil, err
	}
	a.printer.Section("SIMULATION")
	results, err := a.simulate(ctx, engine, stream)
	if err != nil {
		return nil, err
	}

	for _, r := range results {
		summary.Elapsed = max(summary.Elapsed, r.Elapsed)
		summary.Lookups += r.Lookups
	}
	summary.Results = results
	summary.Rate = simulation.AggregateRate(results)
	summary.Checksum = results[0].Checksum

	a.printer.Results(report.Results{
		Threads:      p.Threads,
		Replicas:     p.Replicas,
		Elapsed:      summary.Elapsed,
		Lookups:      summary.Lookups,
		Rate:         summary.Rate,
		Verification: p.Verify,
		Checksum:     summary.Checksum,
	})

	a.metrics.ObserveRun(p.Mode().String(), summary.Elapsed, summary.Checksum)
	a.record(ctx, summary)
	a.publish(ctx, summary)

	a.logger.Debug("App.Run method finished.")
	return summary, nil
}

// interrupted reports a cancelled ctx at a phase boundary. Phases themselves
// run to completion once started.
func interrupted(ctx context.Context, next string) error {
	if err := ctx.Err(); err != nil {
		ctxlog.FromContext(ctx).Warn("Run interrupted.", "before", next)
		return fmt.Errorf("run interrupted before %s: %w", next, err)
	}
	return nil
}

// grid generates and unionizes the nuclide grids, or reloads them from a
// snapshot. A reload advances the verification stream past the draws
// generation would have consumed.
func (a *App) grid(ctx context.Context, stream *rng.ParkMiller, setup rng.Source) (*unionized.Grid, error) {
	p := a.problem
	logger := ctxlog.FromContext(ctx)

	if a.config.Snapshot == SnapshotLoad {
		store, err := a.blobStore(ctx)
		if err != nil {
			return nil, err
		}
		grid, err := snapshot.Load(ctx, store, a.snapshotKey(), snapshot.Shape{Isotopes: p.Isotopes, Points: p.GridPoints})
		if err != nil {
			return nil, err
		}
		if stream != nil {
			stream.Skip(uint64(nuclide.DrawsPerSample) * uint64(p.Isotopes) * uint64(p.GridPoints))
		}
		return grid, nil
	}

	start := time.Now()
	logger.Info("Generating nuclide energy grids...")
	grids, err := nuclide.Generate(ctx, p.Isotopes, p.GridPoints, setup)
	if err != nil {
		return nil, err
	}
	if err := grids.Sort(ctx, p.Threads); err != nil {
		return nil, err
	}
	logger.Info("Generating unionized energy grid...")
	grid, err := unionized.Build(ctx, grids, p.Threads)
	if err != nil {
		return nil, err
	}
	a.metrics.ObserveGridBuild(time.Since(start))
	logger.Info("Grids built.", "unionPoints", grid.Len(), "elapsed", time.Since(start))

	if a.config.Snapshot == SnapshotDump {
		store, err := a.blobStore(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := snapshot.Save(ctx, store, a.snapshotKey(), grid, a.config.SnapshotOverwrite); err != nil {
			return nil, err
		}
	}
	return grid, nil
}

func (a *App) materialTable(src rng.Source) (*material.Table, error) {
	if len(a.materials) == 0 {
		return material.Default(a.problem.Isotopes, src)
	}
	return material.FromSpecs(a.materials, a.problem.Isotopes, src)
}

func (a *App) blobStore(ctx context.Context) (blob.Store, error) {
	store, err := blob.Open(ctx, blob.Options{
		Driver: blob.Driver(a.config.BlobDriver),
		Root:   a.config.BlobRoot,
	}, a.getenv)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}
	return store, nil
}

// snapshotKey defaults to a name derived from the problem shape.
func (a *App) snapshotKey() string {
	if a.config.SnapshotKey != "" {
		return a.config.SnapshotKey
	}
	return fmt.Sprintf("xsbench-%dx%d.snap", a.problem.Isotopes, a.problem.GridPoints)
}

// simulate runs every replica and reports progress until they finish.
func (a *App) simulate(ctx context.Context, engine *lookup.Engine, stream *rng.ParkMiller) ([]*simulation.Result, error) {
	p := a.problem
	prog := &progress{metrics: a.metrics, total: int64(p.Lookups) * int64(p.Replicas)}

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		prog.report(ctx, a.config.ProgressInterval, done)
	}()

	results, err := simulation.Replicate(ctx, p.Replicas, func(replica int) (*simulation.Driver, error) {
		return simulation.NewDriver(engine, simulation.Settings{
			Workers:  p.Threads,
			Lookups:  p.Lookups,
			Mode:     p.Mode(),
			Strategy: p.Strategy,
			Seed:     uint64(replica) * uint64(p.Threads) * 19,
			Stream:   stream,
		}, simulation.WithObserver(prog))
	})
	close(done)
	<-stopped
	if err != nil {
		return nil, fmt.Errorf("simulation failed: %w", err)
	}
	a.metrics.SetProgress(1)
	return results, nil
}

// progress counts completed lookups across replicas and forwards them to
// the metrics.
type progress struct {
	metrics *metrics.Metrics
	total   int64
	done    atomic.Int64
}

func (p *progress) ObserveLookups(n int) {
	p.done.Add(int64(n))
	p.metrics.ObserveLookups(n)
}

func (p *progress) ratio() float64 {
	return float64(p.done.Load()) / float64(p.total)
}

func (p *progress) report(ctx context.Context, interval time.Duration, done <-chan struct{}) {
	logger := ctxlog.FromContext(ctx)
	if interval <= 0 {
		interval = DefaultProgress
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			r := p.ratio()
			p.metrics.SetProgress(r)
			logger.Info(fmt.Sprintf("Calculating XS's... (%.0f%% completed)", r*100))
		}
	}
}

// record saves the run to the history store. Sink failures are logged and
// leave the run result untouched.
func (a *App) record(ctx context.Context, s *Summary) {
	if a.config.HistoryDSN == "" {
		return
	}
	logger := ctxlog.FromContext(ctx)
	store, err := history.Open(ctx, a.config.HistoryDSN)
	if err != nil {
		logger.Error("Failed to open run history.", "error", err)
		return
	}
	defer store.Close()
	if err := store.Save(ctx, s.Record()); err != nil {
		logger.Error("Failed to record run.", "error", err)
		return
	}
	logger.Debug("Run recorded.", "dsn", a.config.HistoryDSN)
}

func (a *App) publish(ctx context.Context, s *Summary) {
	if a.config.ReportURL == "" {
		return
	}
	logger := ctxlog.FromContext(ctx)
	pub, err := publish.New(publish.Options{
		URL:                a.config.ReportURL,
		Namespace:          a.config.ReportNamespace,
		Event:              a.config.ReportEvent,
		AckEvent:           a.config.ReportAckEvent,
		Timeout:            a.config.ReportTimeout,
		InsecureSkipVerify: a.config.ReportInsecure,
	})
	if err != nil {
		logger.Error("Invalid result publisher settings.", "error", err)
		return
	}
	if err := pub.Publish(ctx, s.Record()); err != nil {
		logger.Error("Failed to publish run result.", "error", err)
	}
}
