package sizing

import (
	"math/bits"
	"sort"
)

// primes is the capacity series shared by the prime-family policies:
// each step grows capacity by roughly 2x while staying prime, which
// keeps Position well distributed for hashes with arithmetic
// structure in their low bits. Grounded on
// original_source/fxa_common.hpp's prime_size::sizes.
var primes = []uint64{
	13, 29, 53, 97, 193, 389, 769,
	1543, 3079, 6151, 12289, 24593,
	49157, 98317, 196613, 393241, 786433,
	1572869, 3145739, 6291469, 12582917, 25165843,
	50331653, 100663319, 201326611, 402653189, 805306457,
	1610612741, 3221225473,
}

// Prime is the modulo-by-prime sizing policy: position is hash%size.
// It never needs to mix its input hash, at the cost of a division per
// lookup. Grounded on fxa_common.hpp's prime_size.
type Prime struct{}

func (Prime) SizeIndex(n uint64) int {
	i := sort.Search(len(primes), func(i int) bool { return primes[i] >= n })
	if i == len(primes) {
		i--
	}
	return i
}

func (Prime) Size(i int) uint64 { return primes[i] }

func (Prime) Position(h uint64, i int) uint64 { return h % primes[i] }

// PrimeFastmod is Prime but computes position with Lemire's fastmod:
// a 128-bit multiply by a precomputed modular inverse instead of a
// hardware division. Grounded on fxa_common.hpp's prime_fmod_size;
// magic constants adopted from its inv_sizes32 table, valid for the
// same prime series (truncated to the 32-bit-size subset the source
// itself restricts fastmod to). The 64-bit hash is first folded to
// 32 bits (low half plus high half), so Position returns
// (uint32(h)+uint32(h>>32)) % Size(i), which equals h % Size(i) only
// for hashes below 2^32.
type PrimeFastmod struct{}

// invSizes32 are the inv_sizes32 magic numbers from fxa_common.hpp,
// one per entry of primes that fits fastmod_u32 (sizes under 2^32).
var invSizes32 = []uint64{
	1418980313362273202, 636094623231363849, 348051774975651918,
	190172619316593316, 95578984837873325, 47420935922132524,
	23987963684927896, 11955116055547344, 5991147799191151,
	2998982941588287, 1501077717772769, 750081082979285,
	375261795343686, 187625172388393, 93822606204624,
	46909513691883, 23456218233098, 11728086747027,
	5864041509391, 2932024948977, 1466014921160,
	733007198436, 366503839517, 183251896093,
	91625960335, 45812983922, 22906489714,
	11453246088, 5726623060,
}

func (PrimeFastmod) SizeIndex(n uint64) int { return Prime{}.SizeIndex(n) }
func (PrimeFastmod) Size(i int) uint64      { return Prime{}.Size(i) }

// fastmod32 returns a%d given m, the 64-bit floor((2^64-1)/d)+1.
func fastmod32(a uint32, m uint64, d uint32) uint64 {
	lowbits := m * uint64(a)
	hi, _ := bits.Mul64(lowbits, uint64(d))
	return hi
}

func (PrimeFastmod) Position(h uint64, i int) uint64 {
	if i >= len(invSizes32) {
		return Prime{}.Position(h, i)
	}
	folded := uint32(h) + uint32(h>>32)
	return fastmod32(folded, invSizes32[i], uint32(primes[i]))
}

// fastrange64 maps h uniformly into [0, n) via a single 64x64->128
// multiply-and-shift, avoiding the division entirely (at the cost of
// a slight, usually negligible, distribution bias). Grounded on
// fxa_common.hpp's fastrangesize, itself Lemire's fastrange.
func fastrange64(h, n uint64) uint64 {
	hi, _ := bits.Mul64(h, n)
	return hi
}

// PrimeFastrange is Prime but with Lemire's fastrange substituted for
// the modulo, avoiding both division and the fastmod magic-constant
// table. Grounded on fxa_common.hpp's prime_frng_size.
type PrimeFastrange struct{}

func (PrimeFastrange) SizeIndex(n uint64) int         { return Prime{}.SizeIndex(n) }
func (PrimeFastrange) Size(i int) uint64              { return Prime{}.Size(i) }
func (PrimeFastrange) Position(h uint64, i int) uint64 { return fastrange64(h, primes[i]) }

// fibonacciConstant64 is the 64-bit golden-ratio multiplier used to
// avalanche a hash before extracting position bits, so that
// low-entropy inputs (e.g. sequential integer keys) still spread
// across the table. Grounded on fxa_common.hpp's fibonacci_constant.
const fibonacciConstant64 = 11400714819323198485

// PrimeFastrangeFib is PrimeFastrange with a Fibonacci-mix pre-step.
// Grounded on fxa_common.hpp's prime_frng_fib_size.
type PrimeFastrangeFib struct{}

func (PrimeFastrangeFib) SizeIndex(n uint64) int { return Prime{}.SizeIndex(n) }
func (PrimeFastrangeFib) Size(i int) uint64      { return Prime{}.Size(i) }
func (PrimeFastrangeFib) Position(h uint64, i int) uint64 {
	return fastrange64(h*fibonacciConstant64, primes[i])
}
