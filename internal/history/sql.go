package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

// dialect captures the differences between the two SQL backends.
type dialect struct {
	driver string
	ddl    string
	insert string
	recent string
}

var sqliteDialect = dialect{
	driver: "sqlite",
	ddl: `CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		mode TEXT NOT NULL,
		size TEXT NOT NULL,
		threads INTEGER NOT NULL,
		isotopes INTEGER NOT NULL,
		grid_points INTEGER NOT NULL,
		lookups INTEGER NOT NULL,
		replicas INTEGER NOT NULL,
		elapsed_seconds REAL NOT NULL,
		lookups_per_second REAL NOT NULL,
		checksum TEXT NOT NULL
	)`,
	insert: `INSERT INTO runs (run_id, started_at, mode, size, threads, isotopes, grid_points, lookups,
		replicas, elapsed_seconds, lookups_per_second, checksum) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	recent: `SELECT run_id, started_at, mode, size, threads, isotopes, grid_points, lookups, replicas,
		elapsed_seconds, lookups_per_second, checksum FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`,
}

var postgresDialect = dialect{
	driver: "pgx",
	ddl: `CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		mode TEXT NOT NULL,
		size TEXT NOT NULL,
		threads INTEGER NOT NULL,
		isotopes INTEGER NOT NULL,
		grid_points INTEGER NOT NULL,
		lookups BIGINT NOT NULL,
		replicas INTEGER NOT NULL,
		elapsed_seconds DOUBLE PRECISION NOT NULL,
		lookups_per_second DOUBLE PRECISION NOT NULL,
		checksum TEXT NOT NULL
	)`,
	insert: `INSERT INTO runs (run_id, started_at, mode, size, threads, isotopes, grid_points, lookups,
		replicas, elapsed_seconds, lookups_per_second, checksum) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
	recent: `SELECT run_id, started_at, mode, size, threads, isotopes, grid_points, lookups, replicas,
		elapsed_seconds, lookups_per_second, checksum FROM runs ORDER BY started_at DESC LIMIT $1`,
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQL is a Store over database/sql. The checksum is kept as decimal text
// since it may exceed the signed 64-bit range of both engines.
type SQL struct {
	db *sql.DB
	d  dialect
}

// OpenSQLite opens (creating if needed) the SQLite database at path.
func OpenSQLite(ctx context.Context, path string) (*SQL, error) {
	if path == "" {
		path = "xsbench-history.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	return openSQL(ctx, sqliteDialect, path)
}

// OpenPostgres connects to the Postgres server at dsn.
func OpenPostgres(ctx context.Context, dsn string) (*SQL, error) {
	return openSQL(ctx, postgresDialect, dsn)
}

func openSQL(ctx context.Context, d dialect, dsn string) (*SQL, error) {
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.driver, err)
	}
	if _, err := db.ExecContext(ctx, d.ddl); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	return &SQL{db: db, d: d}, nil
}

func (s *SQL) Save(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx, s.d.insert,
		rec.RunID,
		rec.StartedAt.UTC().Format(timeLayout),
		rec.Mode,
		rec.Size,
		rec.Threads,
		rec.Isotopes,
		rec.GridPoints,
		rec.Lookups,
		rec.Replicas,
		rec.ElapsedSeconds,
		rec.LookupsPerSecond,
		strconv.FormatUint(rec.Checksum, 10),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", rec.RunID, err)
	}
	return nil
}

func (s *SQL) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, s.d.recent, limit)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		var (
			rec      Record
			started  string
			checksum string
		)
		if err := rows.Scan(&rec.RunID, &started, &rec.Mode, &rec.Size, &rec.Threads, &rec.Isotopes,
			&rec.GridPoints, &rec.Lookups, &rec.Replicas, &rec.ElapsedSeconds, &rec.LookupsPerSecond, &checksum); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if rec.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", started, err)
		}
		if rec.Checksum, err = strconv.ParseUint(checksum, 10, 64); err != nil {
			return nil, fmt.Errorf("parse checksum %q: %w", checksum, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQL) Close() error { return s.db.Close() }
