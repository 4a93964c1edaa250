// Package unionized builds the unionized energy grid and its double-indexing
// table.
//
// The union grid is every isotope's sample energies merged into one ascending
// sequence (duplicates kept). For each union point the index table stores, per
// isotope, the position of the nearest-below sample in that isotope's own grid,
// so a lookup performs a single binary search on the union grid instead of one
// per isotope.
//
// Both the build step and the lookup step keep every stored position inside
// [0, points-2]. That single invariant guarantees an upper neighbor for
// interpolation; the lookup engine re-applies the same clamp when it reads the
// table.
package unionized
