package nuclide

import (
	"context"
	"testing"

	"github.com/specialistvlad/xsbenchgo/internal/rng"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsBadShapes(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		isotopes int
		points   int
	}{
		{name: "zero isotopes", isotopes: 0, points: 4},
		{name: "negative isotopes", isotopes: -1, points: 4},
		{name: "single point", isotopes: 2, points: 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tc.isotopes, tc.points)
			require.Error(t, err)
		})
	}
}

func TestGenerate_ConsumesSixDrawsPerSample(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	src := rng.NewParkMiller(rng.VerificationSeed)
	ref := rng.NewParkMiller(rng.VerificationSeed)

	// --- Act ---
	g, err := Generate(context.Background(), 3, 5, src)

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, 15, g.Len())
	first := g.Samples[0]
	require.Equal(t, ref.Float64(), first.Energy)
	require.Equal(t, ref.Float64(), first.Total)
	require.Equal(t, ref.Float64(), first.Elastic)
	require.Equal(t, ref.Float64(), first.Absorption)
	require.Equal(t, ref.Float64(), first.Fission)
	require.Equal(t, ref.Float64(), first.NuFission)

	ref.Skip(uint64(DrawsPerSample * (g.Len() - 1)))
	require.Equal(t, ref.Seed(), src.Seed(), "generator must consume exactly 6 draws per sample")
}

func TestSort_MakesEveryRowNonDecreasing(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	g, err := Generate(context.Background(), 7, 200, rng.NewSplitMix(5))
	require.NoError(t, err)
	require.False(t, g.Sorted(), "random grids should not start sorted")

	// --- Act ---
	require.NoError(t, g.Sort(context.Background(), 3))

	// --- Assert ---
	require.True(t, g.Sorted())
	for n := 0; n < g.Isotopes; n++ {
		row := g.Isotope(n)
		for i := 1; i < len(row); i++ {
			require.LessOrEqual(t, row[i-1].Energy, row[i].Energy)
		}
	}
}

func TestSort_KeepsSamplesInsideTheirIsotope(t *testing.T) {
	t.Parallel()

	g, err := New(2, 3)
	require.NoError(t, err)
	copy(g.Isotope(0), []Sample{{Energy: 3, Total: 30}, {Energy: 1, Total: 10}, {Energy: 2, Total: 20}})
	copy(g.Isotope(1), []Sample{{Energy: 0.3, Total: 3}, {Energy: 0.2, Total: 2}, {Energy: 0.1, Total: 1}})

	require.NoError(t, g.Sort(context.Background(), 0))

	require.Equal(t, []Sample{{Energy: 1, Total: 10}, {Energy: 2, Total: 20}, {Energy: 3, Total: 30}}, g.Isotope(0))
	require.Equal(t, []Sample{{Energy: 0.1, Total: 1}, {Energy: 0.2, Total: 2}, {Energy: 0.3, Total: 3}}, g.Isotope(1))
}

func TestEqual(t *testing.T) {
	t.Parallel()

	a, err := Generate(context.Background(), 2, 4, rng.NewParkMiller(9))
	require.NoError(t, err)
	b, err := Generate(context.Background(), 2, 4, rng.NewParkMiller(9))
	require.NoError(t, err)
	require.True(t, a.Equal(b))

	b.Samples[3].Fission += 1
	require.False(t, a.Equal(b))
}
