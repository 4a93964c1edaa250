// Package sysinfo queries the host for the resources a run needs before it
// allocates anything.
package sysinfo

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/dustin/go-humanize"
	gcpu "github.com/shirou/gopsutil/v4/cpu"
	gmem "github.com/shirou/gopsutil/v4/mem"
	"github.com/specialistvlad/xsbenchgo/internal/ctxlog"
)

// ErrInsufficientMemory is returned when the grids would not fit in the
// memory currently available.
var ErrInsufficientMemory = errors.New("insufficient memory for the requested problem size")

// MemoryProbe reports the bytes of memory available for new allocations.
type MemoryProbe func(ctx context.Context) (uint64, error)

// AvailableMemory is the default probe backed by the host's virtual memory
// statistics.
func AvailableMemory(ctx context.Context) (uint64, error) {
	vm, err := gmem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return vm.Available, nil
}

// CheckMemory fails with ErrInsufficientMemory when need exceeds what probe
// reports. A probe error is logged and the check passes, since the host
// statistics are advisory.
func CheckMemory(ctx context.Context, need uint64, probe MemoryProbe) error {
	logger := ctxlog.FromContext(ctx)
	if probe == nil {
		probe = AvailableMemory
	}
	avail, err := probe(ctx)
	if err != nil {
		logger.Warn("Unable to determine available memory, skipping check.", "error", err)
		return nil
	}
	logger.Debug("Memory check.", "need", humanize.IBytes(need), "available", humanize.IBytes(avail))
	if need > avail {
		return fmt.Errorf("%w: need %s, %s available", ErrInsufficientMemory, humanize.IBytes(need), humanize.IBytes(avail))
	}
	return nil
}

// CPUs is the number of logical CPUs, falling back to the Go runtime's view
// when the host cannot be queried.
func CPUs() int {
	if n, err := gcpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}
