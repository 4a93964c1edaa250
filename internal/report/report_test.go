package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPrinter_Inputs(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	var out bytes.Buffer
	p := NewPrinter(&out)

	// --- Act ---
	p.Inputs(Inputs{
		Verification:   true,
		Strategy:       "indexed",
		Materials:      12,
		Size:           "large",
		Isotopes:       355,
		GridPoints:     11303,
		UnionPoints:    4012565,
		Lookups:        15000000,
		Threads:        8,
		Replicas:       1,
		EstimatedBytes: 5 << 30,
	})

	// --- Assert ---
	text := out.String()
	require.Contains(t, text, "INPUT SUMMARY")
	require.Contains(t, text, "Verification Mode:            on (indexed draws)")
	require.Contains(t, text, "Gridpoints (per Nuclide):     11,303")
	require.Contains(t, text, "Unionized Energy Gridpoints:  4,012,565")
	require.Contains(t, text, "XS Lookups:                   15,000,000")
	require.Contains(t, text, "Est. Memory Usage (MB):       5,120 (5.0 GiB)")
	require.NotContains(t, text, "Replicas")
	require.NotContains(t, text, "\x1b[", "buffers are never colored")
}

func TestPrinter_Results(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		results  Results
		contains []string
		absent   []string
	}{
		{
			name:     "verification run",
			results:  Results{Threads: 4, Replicas: 1, Elapsed: 1500 * time.Millisecond, Lookups: 3000000, Rate: 2000000, Verification: true, Checksum: 74966788162},
			contains: []string{"RESULTS", "Runtime:                      1.500 seconds", "Lookups/s:                    2,000,000", "Verification checksum:        74966788162"},
			absent:   []string{"Replicas"},
		},
		{
			name:     "replicated performance run",
			results:  Results{Threads: 2, Replicas: 3, Elapsed: time.Second, Lookups: 10, Rate: 30},
			contains: []string{"Replicas:                     3", "Lookups/s:                    30"},
			absent:   []string{"checksum"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer
			NewPrinter(&out).Results(tc.results)
			for _, s := range tc.contains {
				require.Contains(t, out.String(), s)
			}
			for _, s := range tc.absent {
				require.NotContains(t, out.String(), s)
			}
		})
	}
}

func TestPrinter_SectionIsCentered(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	NewPrinter(&out).Section("SIMULATION")
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, strings.Repeat("=", Width), lines[0])
	require.Equal(t, strings.Repeat(" ", 35)+"SIMULATION", lines[1])
}

func TestPrinter_Runs(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	var out bytes.Buffer
	p := NewPrinter(&out)
	started := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	// --- Act ---
	err := p.Runs([]Run{
		{RunID: "b", StartedAt: started, Mode: "verification", Size: "small", Threads: 4, Lookups: 15000000, Rate: 1234567, Checksum: 945990},
		{RunID: "a", StartedAt: started, Mode: "performance", Size: "large", Threads: 8, Lookups: 1000, Rate: 10},
	})

	// --- Assert ---
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Contains(t, lines[1], "RUN HISTORY")
	require.Len(t, lines, 6)
	require.True(t, strings.HasPrefix(lines[3], "RUN ID"))
	require.Contains(t, lines[4], "2026-03-04T05:06:07Z")
	require.Contains(t, lines[4], "15,000,000")
	require.Contains(t, lines[4], "1,234,567")
	require.True(t, strings.HasSuffix(lines[4], "945990"))
	require.True(t, strings.HasSuffix(lines[5], "-"), "performance runs carry no checksum")
}

func TestPrinter_EmptyListings(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := NewPrinter(&out)

	require.NoError(t, p.Runs(nil))
	require.NoError(t, p.Snapshots(nil))

	require.Contains(t, out.String(), "No recorded runs.")
	require.Contains(t, out.String(), "No stored snapshots.")
}

func TestPrinter_Snapshots(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	var out bytes.Buffer
	p := NewPrinter(&out)

	// --- Act ---
	err := p.Snapshots([]Snapshot{
		{Key: "xsbench-68x100.snap", Bytes: 2048, Isotopes: "68", GridPoints: "100", Modified: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Key: "foreign.bin", Bytes: 1},
	})

	// --- Assert ---
	require.NoError(t, err)
	text := out.String()
	require.Contains(t, text, "SNAPSHOTS")
	require.Contains(t, text, "xsbench-68x100.snap")
	require.Contains(t, text, "2.0 KiB")
	require.Regexp(t, `foreign\.bin\s+1 B\s+-\s+-`, text)
}
