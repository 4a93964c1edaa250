package config

import "context"

// Loader is the interface for a format-specific run file loader.
type Loader interface {
	// Load reads the run files at paths and merges them into one model.
	// Later files override scalar settings of earlier ones.
	Load(ctx context.Context, paths ...string) (*Model, error)
}
