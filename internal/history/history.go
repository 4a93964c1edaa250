// Package history keeps a record of finished benchmark runs in memory,
// SQLite or Postgres.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Record is one finished run.
type Record struct {
	RunID            string
	StartedAt        time.Time
	Mode             string
	Size             string
	Threads          int
	Isotopes         int
	GridPoints       int
	Lookups          int
	Replicas         int
	ElapsedSeconds   float64
	LookupsPerSecond float64
	Checksum         uint64
}

// NewRunID returns a fresh random run identifier.
func NewRunID() string { return uuid.NewString() }

// Store persists run records.
type Store interface {
	Save(ctx context.Context, rec Record) error
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// Open routes a DSN to a backend:
//
//	memory              process memory
//	sqlite:<path>       embedded SQLite file
//	postgres://...      Postgres (postgresql:// is accepted too)
func Open(ctx context.Context, dsn string) (Store, error) {
	switch {
	case dsn == "" || dsn == "memory":
		return NewMemory(), nil
	case strings.HasPrefix(dsn, "sqlite:"):
		return OpenSQLite(ctx, strings.TrimPrefix(dsn, "sqlite:"))
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported history DSN %q (want memory, sqlite:<path> or postgres://...)", dsn)
	}
}
