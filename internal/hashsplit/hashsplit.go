// Package hashsplit implements the hash-split policy axis: deriving a
// long hash (fed to the sizing policy for the group-start position)
// and a short hash (the fingerprint stored in group metadata) from a
// single machine-word hash value.
package hashsplit

// Splitter is pure and cheap by contract (spec §4.2): both outputs
// should cost only a few cycles and distribute well when the input
// hash itself does.
type Splitter interface {
	Long(h uint64) uint64
	Short(h uint64) uint8
}

// Shift is shift-by-K: long = h>>k, short = h (masked by the caller's
// group layout down to its fingerprint width). Grounded on
// original_source/fxa_common.hpp's shift_hash<N>, the RC engine's own
// default (HashSplitPolicy=shift_hash<0>).
type Shift struct{ K uint }

func (s Shift) Long(h uint64) uint64 { return h >> s.K }
func (s Shift) Short(h uint64) uint8 { return uint8(h) }

// RShift is reverse-shift: long = h<<k, short = the top k bits of h.
// Grounded on fxa_common.hpp's rshift_hash<N>.
type RShift struct{ K uint }

func (s RShift) Long(h uint64) uint64 { return h << s.K }
func (s RShift) Short(h uint64) uint8 { return uint8(h >> (64 - s.K)) }

// ShiftMod keeps the shift-by-K long hash but takes the short hash
// modulo Mod (default 127), trading a cheap shift for a division to
// get a more evenly distributed fingerprint. Grounded on
// fxa_common.hpp's shift_mod_hash<N,Mod>.
type ShiftMod struct {
	K   uint
	Mod uint8
}

func NewShiftMod(k uint) ShiftMod { return ShiftMod{K: k, Mod: 127} }

func (s ShiftMod) Long(h uint64) uint64 { return h >> s.K }
func (s ShiftMod) Short(h uint64) uint8 {
	mod := s.Mod
	if mod == 0 {
		mod = 127
	}
	return uint8(h % uint64(mod))
}

// Avalanche is the xm-style avalanche split: the long hash is passed
// through untouched (the sizing policy is expected to mix it further),
// and the short hash is the top byte of a murmur-style
// xor-shift/multiply finalizer. Grounded on fxa_common.hpp's xm_hash.
type Avalanche struct{}

func (Avalanche) Long(h uint64) uint64 { return h }

func (Avalanche) Short(h uint64) uint8 {
	z := h
	z ^= z >> 23
	z *= 0xff51afd7ed558ccd
	return uint8(z >> 56)
}
