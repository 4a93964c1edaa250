package rng

import (
	"sync"
	"time"
)

const (
	// Modulus is the Mersenne prime 2^31-1 of the minimal-standard generator.
	Modulus uint64 = 2147483647
	// Multiplier is the minimal-standard multiplier (7^5).
	Multiplier uint64 = 16807

	// VerificationSeed is the initial state of the shared verification stream.
	VerificationSeed uint64 = 1337
)

// Source is anything that yields uniform draws in [0,1).
type Source interface {
	Float64() float64
}

// ParkMiller is the minimal-standard multiplicative congruential generator.
// It is not safe for concurrent use; see Locked.
type ParkMiller struct {
	seed uint64
}

// NewParkMiller returns a generator whose next draw is derived from seed.
// A seed of zero (or any multiple of the modulus) would lock the generator at
// zero, so it is replaced by 1.
func NewParkMiller(seed uint64) *ParkMiller {
	seed %= Modulus
	if seed == 0 {
		seed = 1
	}
	return &ParkMiller{seed: seed}
}

// WorkerSeed is the private stream seed for a performance-mode worker.
func WorkerSeed(worker int) uint64 {
	return uint64(worker+1)*19 + 17
}

// Float64 advances the stream and returns the new state divided by the modulus.
func (p *ParkMiller) Float64() float64 {
	p.seed = (Multiplier * p.seed) % Modulus
	return float64(p.seed) / float64(Modulus)
}

// Seed returns the current internal state.
func (p *ParkMiller) Seed() uint64 { return p.seed }

// Clone returns an independent copy positioned at the same point of the stream.
func (p *ParkMiller) Clone() *ParkMiller {
	return &ParkMiller{seed: p.seed}
}

// Skip advances the stream by k draws without producing them.
func (p *ParkMiller) Skip(k uint64) {
	p.seed = (p.seed * powMod(Multiplier, k, Modulus)) % Modulus
}

// powMod computes base^exp mod m. All intermediates stay below 2^62.
func powMod(base, exp, m uint64) uint64 {
	result := uint64(1)
	base %= m
	for exp > 0 {
		if exp&1 == 1 {
			result = (result * base) % m
		}
		base = (base * base) % m
		exp >>= 1
	}
	return result
}

// Locked is a ParkMiller stream shared between goroutines.
type Locked struct {
	mu sync.Mutex
	pm ParkMiller
}

// NewLocked wraps a copy of p's current position.
func NewLocked(p *ParkMiller) *Locked {
	return &Locked{pm: ParkMiller{seed: p.seed}}
}

// Float64 draws a single value under the lock.
func (l *Locked) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pm.Float64()
}

// Pair draws two consecutive values in one critical section so that no other
// consumer can interleave between them.
func (l *Locked) Pair() (float64, float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a := l.pm.Float64()
	b := l.pm.Float64()
	return a, b
}

// SplitMix is a SplitMix64 source. It is not safe for concurrent use.
type SplitMix struct {
	state uint64
}

// NewSplitMix returns a source seeded with seed.
func NewSplitMix(seed uint64) *SplitMix {
	return &SplitMix{state: seed}
}

// NewTimeSeeded returns a SplitMix source seeded from the wall clock.
func NewTimeSeeded() *SplitMix {
	return NewSplitMix(uint64(time.Now().UnixNano()))
}

// Uint64 returns the next mixed 64-bit value.
func (s *SplitMix) Uint64() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z ^= z >> 30
	z *= 0xbf58476d1ce4e5b9
	z ^= z >> 27
	z *= 0x94d049bb133111eb
	z ^= z >> 31
	return z
}

// Float64 returns a uniform value in [0,1) built from the top 53 bits.
func (s *SplitMix) Float64() float64 {
	const inv53 = 1.0 / 9007199254740992.0
	return float64(s.Uint64()>>11) * inv53
}
