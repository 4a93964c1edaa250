package simulation

import (
	"fmt"
	"strconv"

	"github.com/specialistvlad/xsbenchgo/internal/lookup"
)

// HashBins bounds every per-lookup hash.
const HashBins = 10000

// Fingerprint renders a lookup as energy, material id and the five macro
// channels, floats with five decimals, separated by single spaces.
func Fingerprint(energy float64, mat int, macro lookup.Vector) string {
	return fmt.Sprintf("%.5f %d %.5f %.5f %.5f %.5f %.5f",
		energy, mat, macro[0], macro[1], macro[2], macro[3], macro[4])
}

// AppendFingerprint appends the same text as Fingerprint to dst without
// allocating when dst has room.
func AppendFingerprint(dst []byte, energy float64, mat int, macro lookup.Vector) []byte {
	dst = strconv.AppendFloat(dst, energy, 'f', 5, 64)
	dst = append(dst, ' ')
	dst = strconv.AppendInt(dst, int64(mat), 10)
	for _, v := range macro {
		dst = append(dst, ' ')
		dst = strconv.AppendFloat(dst, v, 'f', 5, 64)
	}
	return dst
}

// Hash is djb2 over b reduced modulo HashBins.
func Hash(b []byte) uint64 {
	h := uint64(5381)
	for _, c := range b {
		h = h*33 + uint64(c)
	}
	return h % HashBins
}
