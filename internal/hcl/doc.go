// Package hcl provides the HCL implementation of the run file loader defined
// in the `config` package. It is responsible for file discovery, parsing, and
// evaluating material expressions into the format-agnostic model.
package hcl
