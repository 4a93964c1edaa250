package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/xsbenchgo/internal/ctxlog"
	"github.com/specialistvlad/xsbenchgo/internal/history"
	"github.com/specialistvlad/xsbenchgo/internal/report"
	"github.com/specialistvlad/xsbenchgo/internal/snapshot"
)

// List prints the stored snapshots and recent runs the configuration asks
// for. Unlike the result sinks in Run, store failures are returned.
func (a *App) List(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	if a.config.SnapshotList {
		if err := a.listSnapshots(ctx); err != nil {
			return err
		}
	}
	if a.config.HistoryList > 0 {
		if err := a.listHistory(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) listSnapshots(ctx context.Context) error {
	store, err := a.blobStore(ctx)
	if err != nil {
		return err
	}
	infos, err := snapshot.List(ctx, store, a.config.SnapshotKey)
	if err != nil {
		return err
	}
	rows := make([]report.Snapshot, 0, len(infos))
	for _, info := range infos {
		row := report.Snapshot{Key: info.Key, Bytes: info.Size, Modified: info.LastModified}
		if shape, ok := snapshot.ShapeOf(info); ok {
			row.Isotopes = fmt.Sprint(shape.Isotopes)
			row.GridPoints = fmt.Sprint(shape.Points)
		}
		rows = append(rows, row)
	}
	return a.printer.Snapshots(rows)
}

func (a *App) listHistory(ctx context.Context) error {
	store, err := history.Open(ctx, a.config.HistoryDSN)
	if err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}
	defer store.Close()

	recs, err := store.Recent(ctx, a.config.HistoryList)
	if err != nil {
		return fmt.Errorf("failed to read run history: %w", err)
	}
	rows := make([]report.Run, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, report.Run{
			RunID:     r.RunID,
			StartedAt: r.StartedAt,
			Mode:      r.Mode,
			Size:      r.Size,
			Threads:   r.Threads,
			Lookups:   r.Lookups,
			Rate:      r.LookupsPerSecond,
			Checksum:  r.Checksum,
		})
	}
	return a.printer.Runs(rows)
}
