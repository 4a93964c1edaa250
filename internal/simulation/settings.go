package simulation

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/xsbenchgo/internal/rng"
)

// Mode selects where lookup draws come from.
type Mode int

const (
	// Performance gives every worker a private stream seeded from its id.
	Performance Mode = iota
	// Verification feeds every lookup from the shared verification stream so
	// the checksum is reproducible.
	Verification
)

func (m Mode) String() string {
	switch m {
	case Performance:
		return "performance"
	case Verification:
		return "verification"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Strategy selects how workers share the verification stream.
type Strategy int

const (
	// Indexed lets trial i consume draws 2i and 2i+1; workers skip ahead to
	// their chunk and never contend.
	Indexed Strategy = iota
	// Locked serializes every draw pair behind a mutex.
	Locked
)

func (s Strategy) String() string {
	switch s {
	case Indexed:
		return "indexed"
	case Locked:
		return "locked"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy maps a strategy name to its value.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "indexed", "":
		return Indexed, nil
	case "locked":
		return Locked, nil
	default:
		return 0, fmt.Errorf("unknown verification strategy %q (want indexed or locked)", name)
	}
}

// DrawsPerLookup is the number of stream draws each trial consumes: one for
// the energy and one for the material roll.
const DrawsPerLookup = 2

// Settings configures one driver run.
type Settings struct {
	Workers  int
	Lookups  int
	Mode     Mode
	Strategy Strategy
	// Seed offsets the performance-mode worker seeds. Replicas use distinct
	// values so their private streams differ.
	Seed uint64
	// Stream is the verification stream positioned right after setup. It is
	// cloned, never advanced. Required in verification mode.
	Stream *rng.ParkMiller
	// Chunk is the number of trials a worker claims at once; zero picks a
	// size from the lookup and worker counts.
	Chunk int
}

// ErrNoStream is returned when verification mode is requested without a stream.
var ErrNoStream = errors.New("verification mode requires a verification stream")

func (s Settings) validate() error {
	if s.Workers < 1 {
		return fmt.Errorf("worker count must be positive, got %d", s.Workers)
	}
	if s.Lookups < 1 {
		return fmt.Errorf("lookup count must be positive, got %d", s.Lookups)
	}
	if s.Chunk < 0 {
		return fmt.Errorf("chunk size must not be negative, got %d", s.Chunk)
	}
	if s.Mode == Verification && s.Stream == nil {
		return ErrNoStream
	}
	return nil
}

// chunkSize aims for sixteen claims per worker, between 1 and 4096 trials.
func (s Settings) chunkSize() int {
	if s.Chunk > 0 {
		return s.Chunk
	}
	c := s.Lookups / (s.Workers * 16)
	return max(1, min(c, 4096))
}
