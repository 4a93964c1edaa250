// Package rng provides the random sources used by the benchmark: the
// minimal-standard Park-Miller generator that drives both the verification
// stream and the per-worker performance streams, a mutex-guarded variant for
// shared consumption, and a time-seeded SplitMix64 source for non-verifying
// data generation.
//
// The Park-Miller generator supports O(log k) skip-ahead, which lets any
// worker position itself at an arbitrary point of the shared verification
// stream without touching the draws in between.
package rng
