// Package sizing implements the sizing policy axis: capacity series,
// size-index lookup, and hash-to-position computation (spec §4.3).
package sizing

// Policy exposes the three operations the RC engine needs to grow and
// index its group array. Position must be surjective onto [0, Size(i))
// and distribute well enough that rehash roughly doubles capacity
// every growth (spec §4.3 invariant).
type Policy interface {
	// SizeIndex returns the smallest index i such that Size(i) >= n.
	SizeIndex(n uint64) int
	// Size returns the group count for index i.
	Size(i int) uint64
	// Position maps a long hash into [0, Size(i)).
	Position(h uint64, i int) uint64
}
