package sizing

import "math/bits"

// minPow2SizeIndex mirrors fxa_common.hpp's pow2_size::size_index
// floor of 2^5=32 groups: below that, overhead dominates and there
// is no benefit to a smaller table.
const minPow2SizeIndex = 5

func pow2SizeIndex(n uint64) int {
	if n <= 32 {
		return minPow2SizeIndex
	}
	return bits.Len64(n - 1)
}

// Pow2 is the power-of-two sizing policy: size is always 2^i, and
// position is taken from the TOP i bits of the hash (so growing the
// table by doubling only ever needs to look at one more high bit).
// Grounded on fxa_common.hpp's pow2_size.
type Pow2 struct{}

func (Pow2) SizeIndex(n uint64) int { return pow2SizeIndex(n) }
func (Pow2) Size(i int) uint64      { return uint64(1) << uint(i) }
func (Pow2) Position(h uint64, i int) uint64 {
	return h >> uint(64-i)
}

// LowPow2 is Pow2 but takes position from the BOTTOM i bits instead
// of the top. Grounded on fxa_common.hpp's low_pow2_size; cheaper
// (no shift) but more sensitive to hash functions with weak low-bit
// entropy, which is why RC's default prefers Pow2.
type LowPow2 struct{}

func (LowPow2) SizeIndex(n uint64) int { return pow2SizeIndex(n) }
func (LowPow2) Size(i int) uint64      { return uint64(1) << uint(i) }
func (LowPow2) Position(h uint64, i int) uint64 {
	return h & (uint64(1)<<uint(i) - 1)
}

// Pow2Fib is Pow2 with a Fibonacci-mix pre-step, recommended whenever
// the hash function itself is weak (e.g. identity hash over small
// integer keys) since the golden-ratio multiply avalanches entropy
// into the high bits Pow2.Position reads. Grounded on
// fxa_common.hpp's pow2_fib_size.
type Pow2Fib struct{}

func (Pow2Fib) SizeIndex(n uint64) int { return pow2SizeIndex(n) }
func (Pow2Fib) Size(i int) uint64      { return uint64(1) << uint(i) }
func (Pow2Fib) Position(h uint64, i int) uint64 {
	return Pow2{}.Position(h*fibonacciConstant64, i)
}
