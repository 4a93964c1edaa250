package snapshot

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/zstd"
	"github.com/specialistvlad/xsbenchgo/internal/blob"
	"github.com/specialistvlad/xsbenchgo/internal/nuclide"
	"github.com/specialistvlad/xsbenchgo/internal/rng"
	"github.com/specialistvlad/xsbenchgo/internal/unionized"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func buildGrid(t *testing.T, isotopes, points int) *unionized.Grid {
	t.Helper()
	ctx := context.Background()
	g, err := nuclide.Generate(ctx, isotopes, points, rng.NewParkMiller(rng.VerificationSeed))
	require.NoError(t, err)
	require.NoError(t, g.Sort(ctx, 2))
	grid, err := unionized.Build(ctx, g, 2)
	require.NoError(t, err)
	return grid
}

func requireSameGrid(t *testing.T, want, got *unionized.Grid) {
	t.Helper()
	require.True(t, want.Nuclides.Equal(got.Nuclides), "nuclide grids differ")
	if diff := cmp.Diff(want.Points, got.Points); diff != "" {
		t.Fatalf("union grid mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.Index, got.Index); diff != "" {
		t.Fatalf("index table mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeDecode_RoundTripIsExact(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	grid := buildGrid(t, 7, 25)
	var buf bytes.Buffer

	// --- Act ---
	require.NoError(t, Encode(&buf, grid))
	got, err := Decode(&buf)

	// --- Assert ---
	require.NoError(t, err)
	requireSameGrid(t, grid, got)
	require.NoError(t, got.Validate())
}

func TestDecode_DetectsDigestMismatch(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	doc := fromGrid(buildGrid(t, 3, 10))
	doc.Samples[4] += 1e-9
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, msgpack.NewEncoder(zw).Encode(&doc))
	require.NoError(t, zw.Close())

	// --- Act ---
	_, err = Decode(&buf)

	// --- Assert ---
	require.ErrorIs(t, err, ErrCorrupt)
	require.ErrorContains(t, err, "digest")
}

func TestDecode_RejectsGarbage(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		input func(t *testing.T) []byte
	}{
		{name: "not zstd", input: func(*testing.T) []byte { return []byte("definitely not a snapshot") }},
		{name: "truncated", input: func(t *testing.T) []byte {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, buildGrid(t, 2, 5)))
			return buf.Bytes()[:buf.Len()/2]
		}},
		{name: "wrong version", input: func(t *testing.T) []byte {
			doc := fromGrid(buildGrid(t, 2, 5))
			doc.Version = 99
			var buf bytes.Buffer
			zw, err := zstd.NewWriter(&buf)
			require.NoError(t, err)
			require.NoError(t, msgpack.NewEncoder(zw).Encode(&doc))
			require.NoError(t, zw.Close())
			return buf.Bytes()
		}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode(bytes.NewReader(tc.input(t)))
			require.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestDecode_RejectsGridsBreakingLookupBounds(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		corrupt func(g *unionized.Grid)
	}{
		{name: "index past the last interval", corrupt: func(g *unionized.Grid) { g.Index[0] = 1 << 20 }},
		{name: "negative index", corrupt: func(g *unionized.Grid) { g.Index[len(g.Index)-1] = -1 }},
		{name: "row offset out of place", corrupt: func(g *unionized.Grid) { g.Points[1].Offset = 0 }},
		{name: "unsorted union energies", corrupt: func(g *unionized.Grid) { g.Points[1].Energy = -1 }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			// Encode recomputes the digest, so only the structural checks can catch these.
			grid := buildGrid(t, 3, 8)
			tc.corrupt(grid)
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, grid))

			// --- Act ---
			_, err := Decode(&buf)

			// --- Assert ---
			require.ErrorIs(t, err, ErrCorrupt)
			require.NotContains(t, err.Error(), "digest")
		})
	}
}

func TestSaveLoad(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	ctx := context.Background()
	store := blob.NewMemory()
	grid := buildGrid(t, 4, 12)

	// --- Act ---
	info, err := Save(ctx, store, "grids/test", grid, false)
	require.NoError(t, err)
	got, err := Load(ctx, store, "grids/test", Shape{Isotopes: 4, Points: 12})

	// --- Assert ---
	require.NoError(t, err)
	requireSameGrid(t, grid, got)
	require.Positive(t, info.Size)
	head, err := store.Head(ctx, "grids/test")
	require.NoError(t, err)
	require.Equal(t, ContentType, head.ContentType)
	require.Equal(t, "4", head.Metadata["isotopes"])
}

func TestSave_Overwrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := blob.NewMemory()
	_, err := Save(ctx, store, "k", buildGrid(t, 2, 5), false)
	require.NoError(t, err)

	_, err = Save(ctx, store, "k", buildGrid(t, 3, 5), false)
	require.ErrorIs(t, err, blob.ErrExists)

	_, err = Save(ctx, store, "k", buildGrid(t, 3, 5), true)
	require.NoError(t, err)
	got, err := Load(ctx, store, "k", Shape{})
	require.NoError(t, err)
	require.Equal(t, 3, got.Isotopes())
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := blob.NewMemory()
	_, err := Save(ctx, store, "k", buildGrid(t, 2, 5), false)
	require.NoError(t, err)

	_, err = Load(ctx, store, "k", Shape{Isotopes: 68, Points: 5})
	require.ErrorIs(t, err, ErrMismatch)

	_, err = Load(ctx, store, "k", Shape{Points: 6})
	require.ErrorIs(t, err, ErrMismatch)

	_, err = Load(ctx, store, "missing", Shape{})
	require.ErrorIs(t, err, blob.ErrNotFound)
}

func TestLoad_ChecksShapeBeforeDownloading(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	ctx := context.Background()
	store := blob.NewMemory()
	_, err := store.Put(ctx, "k", bytes.NewReader([]byte("not a snapshot")), blob.PutOptions{
		ContentType: ContentType,
		Metadata:    map[string]string{MetaIsotopes: "2", MetaPoints: "5"},
	})
	require.NoError(t, err)

	// --- Act ---
	_, mismatchErr := Load(ctx, store, "k", Shape{Isotopes: 68})
	_, corruptErr := Load(ctx, store, "k", Shape{Isotopes: 2, Points: 5})

	// --- Assert ---
	require.ErrorIs(t, mismatchErr, ErrMismatch)
	require.ErrorIs(t, corruptErr, ErrCorrupt)
}

func TestShapeOf(t *testing.T) {
	t.Parallel()

	shape, ok := ShapeOf(blob.Info{Metadata: map[string]string{MetaIsotopes: "355", MetaPoints: "11303"}})
	require.True(t, ok)
	require.Equal(t, Shape{Isotopes: 355, Points: 11303}, shape)

	_, ok = ShapeOf(blob.Info{Metadata: map[string]string{MetaIsotopes: "355"}})
	require.False(t, ok)
	_, ok = ShapeOf(blob.Info{})
	require.False(t, ok)
}

func TestList_SkipsForeignBlobs(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	ctx := context.Background()
	store := blob.NewMemory()
	_, err := Save(ctx, store, "grids/b", buildGrid(t, 2, 5), false)
	require.NoError(t, err)
	_, err = Save(ctx, store, "grids/a", buildGrid(t, 3, 5), false)
	require.NoError(t, err)
	_, err = Save(ctx, store, "other/c", buildGrid(t, 2, 5), false)
	require.NoError(t, err)
	_, err = store.Put(ctx, "grids/notes.txt", bytes.NewReader([]byte("hi")), blob.PutOptions{ContentType: "text/plain"})
	require.NoError(t, err)

	// --- Act ---
	snaps, err := List(ctx, store, "grids/")

	// --- Assert ---
	require.NoError(t, err)
	keys := make([]string, 0, len(snaps))
	for _, s := range snaps {
		keys = append(keys, s.Key)
	}
	require.Equal(t, []string{"grids/a", "grids/b"}, keys)
}
