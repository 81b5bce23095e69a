// Package probe implements the probe-sequence policy axis: given a
// starting group position, generate the sequence of group positions
// to examine next until a match or an available slot is found. Must
// be paired with a sizing policy that grows capacity the way the
// prober expects (spec §4.4).
package probe

// Sequence walks triangular-number steps starting at an initial
// position, matching the corresponding sizing.Policy's notion of
// capacity at each call to Next.
type Sequence interface {
	// Pos returns the current group position.
	Pos() uint64
	// Next advances to the next position in the sequence, given the
	// current group count (Size(i) of the active size index).
	Next(size uint64)
}

// Pow2 probes a group array whose size is always a power of two: the
// triangular step is masked by size-1 directly. Must be paired with
// sizing.Pow2 or sizing.LowPow2/Pow2Fib. Grounded on
// original_source/foa_unordered_rc.hpp's pow2_prober.
type Pow2 struct {
	pos  uint64
	step uint64
}

func NewPow2(pos uint64) *Pow2 { return &Pow2{pos: pos} }

func (p *Pow2) Pos() uint64 { return p.pos }

func (p *Pow2) Next(size uint64) {
	p.step++
	p.pos = (p.pos + p.step) & (size - 1)
}

// NonPow2 probes a group array of arbitrary size by walking the
// triangular sequence over the next power of two at or above size,
// discarding any position that lands past the real size. Used with
// sizing policies whose capacity is not itself a power of two (the
// prime family). Grounded on foa_unordered_rc.hpp's nonpow2_prober.
type NonPow2 struct {
	pos  uint64
	step uint64
}

func NewNonPow2(pos uint64) *NonPow2 { return &NonPow2{pos: pos} }

func (p *NonPow2) Pos() uint64 { return p.pos }

func (p *NonPow2) Next(size uint64) {
	ceil := bitCeil(size)
	for {
		p.step++
		p.pos = (p.pos + p.step) & (ceil - 1)
		if p.pos < size {
			return
		}
	}
}

// bitCeil returns the smallest power of two >= n (n > 0).
func bitCeil(n uint64) uint64 {
	if n <= 1 {
		return 1
	}
	p := uint64(1)
	for p < n {
		p <<= 1
	}
	return p
}
