// Package app contains the core application logic. It resolves the problem
// from size presets, run files and flags, then drives setup, the timed
// lookup loop and the result sinks, decoupled from any specific entrypoint
// like a CLI or server.
package app
