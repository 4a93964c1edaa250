// Package snapshot dumps and reloads precomputed grids: the nuclide grids,
// the union grid and the index table. Documents are msgpack encoded,
// zstd compressed and carry an xxhash64 digest of the raw buffers.
package snapshot

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/specialistvlad/xsbenchgo/internal/blob"
	"github.com/specialistvlad/xsbenchgo/internal/ctxlog"
	"github.com/specialistvlad/xsbenchgo/internal/nuclide"
	"github.com/specialistvlad/xsbenchgo/internal/unionized"
	"github.com/vmihailenco/msgpack/v5"
)

// Version is the document layout written by Encode.
const Version = 1

// ContentType labels snapshot blobs.
const ContentType = "application/vnd.xsbench.snapshot+zstd"

// Blob metadata keys carrying the problem shape.
const (
	MetaIsotopes = "isotopes"
	MetaPoints   = "points"
)

var (
	// ErrCorrupt is returned when a document fails to decode or its digest
	// does not match its contents.
	ErrCorrupt = errors.New("snapshot is corrupt")
	// ErrMismatch is returned when a snapshot's problem shape differs from
	// the one requested.
	ErrMismatch = errors.New("snapshot does not match the requested problem")
)

// Shape is the problem size a snapshot was built for. Zero fields are not
// checked by Load.
type Shape struct {
	Isotopes int
	Points   int
}

func (s Shape) matches(got Shape) bool {
	return (s.Isotopes == 0 || s.Isotopes == got.Isotopes) && (s.Points == 0 || s.Points == got.Points)
}

// ShapeOf reads the problem shape Save recorded in the blob metadata.
func ShapeOf(info blob.Info) (Shape, bool) {
	isotopes, err := strconv.Atoi(info.Metadata[MetaIsotopes])
	if err != nil {
		return Shape{}, false
	}
	points, err := strconv.Atoi(info.Metadata[MetaPoints])
	if err != nil {
		return Shape{}, false
	}
	return Shape{Isotopes: isotopes, Points: points}, true
}

// document is the on-disk layout. Samples holds six floats per sample in
// nuclide.Sample field order.
type document struct {
	Version  int       `msgpack:"version"`
	Isotopes int       `msgpack:"isotopes"`
	Points   int       `msgpack:"points"`
	Samples  []float64 `msgpack:"samples"`
	Energies []float64 `msgpack:"energies"`
	Offsets  []int64   `msgpack:"offsets"`
	Index    []int32   `msgpack:"index"`
	Digest   uint64    `msgpack:"digest"`
}

// Encode writes grid to w.
func Encode(w io.Writer, grid *unionized.Grid) error {
	doc := fromGrid(grid)
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	if err := msgpack.NewEncoder(zw).Encode(&doc); err != nil {
		_ = zw.Close()
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return zw.Close()
}

// Decode reads a grid written by Encode and verifies its digest.
func Decode(r io.Reader) (*unionized.Grid, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer zr.Close()

	var doc document
	if err := msgpack.NewDecoder(zr).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if doc.Version != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, doc.Version)
	}
	return doc.toGrid()
}

func fromGrid(grid *unionized.Grid) document {
	nuc := grid.Nuclides
	doc := document{
		Version:  Version,
		Isotopes: nuc.Isotopes,
		Points:   nuc.Points,
		Samples:  make([]float64, 0, len(nuc.Samples)*nuclide.DrawsPerSample),
		Energies: make([]float64, len(grid.Points)),
		Offsets:  make([]int64, len(grid.Points)),
		Index:    grid.Index,
	}
	for _, s := range nuc.Samples {
		doc.Samples = append(doc.Samples, s.Energy, s.Total, s.Elastic, s.Absorption, s.Fission, s.NuFission)
	}
	for i, p := range grid.Points {
		doc.Energies[i] = p.Energy
		doc.Offsets[i] = int64(p.Offset)
	}
	doc.Digest = doc.digest()
	return doc
}

func (d *document) toGrid() (*unionized.Grid, error) {
	if d.digest() != d.Digest {
		return nil, fmt.Errorf("%w: digest mismatch", ErrCorrupt)
	}
	nuc, err := nuclide.New(d.Isotopes, d.Points)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if len(d.Samples) != nuc.Len()*nuclide.DrawsPerSample {
		return nil, fmt.Errorf("%w: %d sample values for %d samples", ErrCorrupt, len(d.Samples), nuc.Len())
	}
	if len(d.Offsets) != len(d.Energies) {
		return nil, fmt.Errorf("%w: %d offsets for %d energies", ErrCorrupt, len(d.Offsets), len(d.Energies))
	}
	for i := range nuc.Samples {
		v := d.Samples[i*nuclide.DrawsPerSample : (i+1)*nuclide.DrawsPerSample]
		nuc.Samples[i] = nuclide.Sample{Energy: v[0], Total: v[1], Elastic: v[2], Absorption: v[3], Fission: v[4], NuFission: v[5]}
	}
	points := make([]unionized.Point, len(d.Energies))
	for i := range points {
		points[i] = unionized.Point{Energy: d.Energies[i], Offset: int(d.Offsets[i])}
	}
	grid, err := unionized.Assemble(nuc, points, d.Index)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	// The digest only guards against damage; the lookup path trusts these.
	if err := grid.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return grid, nil
}

// digest hashes the shape and every buffer as little-endian words.
func (d *document) digest() uint64 {
	h := xxhash.New()
	buf := make([]byte, 0, 8*1024)
	flush := func() {
		_, _ = h.Write(buf)
		buf = buf[:0]
	}
	put := func(v uint64) {
		buf = binary.LittleEndian.AppendUint64(buf, v)
		if len(buf) == cap(buf) {
			flush()
		}
	}
	put(uint64(d.Isotopes))
	put(uint64(d.Points))
	for _, v := range d.Samples {
		put(math.Float64bits(v))
	}
	for _, v := range d.Energies {
		put(math.Float64bits(v))
	}
	for _, v := range d.Offsets {
		put(uint64(v))
	}
	for _, v := range d.Index {
		put(uint64(uint32(v)))
	}
	flush()
	return h.Sum64()
}

// Save encodes grid and stores it under key. With overwrite an existing
// blob is replaced; otherwise blob.ErrExists is returned.
func Save(ctx context.Context, store blob.Store, key string, grid *unionized.Grid, overwrite bool) (blob.Info, error) {
	logger := ctxlog.FromContext(ctx)

	var buf bytes.Buffer
	if err := Encode(&buf, grid); err != nil {
		return blob.Info{}, err
	}
	if overwrite {
		if _, err := store.Delete(ctx, key); err != nil {
			return blob.Info{}, fmt.Errorf("replacing snapshot %s: %w", key, err)
		}
	}
	info, err := store.Put(ctx, key, &buf, blob.PutOptions{
		ContentType: ContentType,
		Metadata: map[string]string{
			MetaIsotopes: strconv.Itoa(grid.Nuclides.Isotopes),
			MetaPoints:   strconv.Itoa(grid.Nuclides.Points),
		},
	})
	if err != nil {
		return blob.Info{}, fmt.Errorf("storing snapshot %s: %w", key, err)
	}
	logger.Info("Snapshot written.", "key", key, "driver", store.Driver(), "bytes", info.Size)
	return info, nil
}

// Load fetches and decodes the snapshot at key and checks it against want.
func Load(ctx context.Context, store blob.Store, key string, want Shape) (*unionized.Grid, error) {
	logger := ctxlog.FromContext(ctx)

	// Reject a mismatched shape from metadata before downloading the body.
	head, err := store.Head(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("fetching snapshot %s: %w", key, err)
	}
	if got, ok := ShapeOf(head); ok && !want.matches(got) {
		return nil, fmt.Errorf("%w: snapshot %s holds %d isotopes x %d points, want %d x %d",
			ErrMismatch, key, got.Isotopes, got.Points, want.Isotopes, want.Points)
	}

	info, rc, err := store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("fetching snapshot %s: %w", key, err)
	}
	defer rc.Close()

	grid, err := Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", key, err)
	}
	got := Shape{Isotopes: grid.Nuclides.Isotopes, Points: grid.Nuclides.Points}
	if !want.matches(got) {
		return nil, fmt.Errorf("%w: snapshot %s holds %d isotopes x %d points, want %d x %d",
			ErrMismatch, key, got.Isotopes, got.Points, want.Isotopes, want.Points)
	}
	logger.Info("Snapshot loaded.", "key", key, "driver", store.Driver(), "bytes", info.Size)
	return grid, nil
}

// List returns the snapshots in store whose key has prefix. Blobs written
// by anything other than Save are skipped.
func List(ctx context.Context, store blob.Store, prefix string) ([]blob.Info, error) {
	infos, err := store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	snaps := infos[:0]
	for _, info := range infos {
		if info.ContentType == ContentType {
			snaps = append(snaps, info)
		}
	}
	return snaps, nil
}
