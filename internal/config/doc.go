// Package config defines the format-agnostic model of a run file and the
// Loader interface that produces it.
//
// The `config.Model` only carries what a run file explicitly sets; the
// application layers it between the size preset defaults and the flags the
// user passed. Concrete loaders, such as for HCL, live in separate packages.
package config
