package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestSimulation_Merge(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	base := Simulation{Size: ptr("large"), Threads: ptr(4), Lookups: ptr(100)}
	overlay := Simulation{Threads: ptr(8), Verify: ptr(true), Strategy: ptr("locked")}

	// --- Act ---
	base.Merge(overlay)

	// --- Assert ---
	require.Equal(t, "large", *base.Size)
	require.Equal(t, 8, *base.Threads)
	require.Equal(t, 100, *base.Lookups)
	require.True(t, *base.Verify)
	require.Equal(t, "locked", *base.Strategy)
	require.Nil(t, base.GridPoints)
	require.Nil(t, base.Replicas)
}
