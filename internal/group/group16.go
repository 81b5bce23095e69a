package group

// Control byte values for the N=16 layout. Exact values as per the
// Abseil rationale the source code itself cites: empty/deleted/
// sentinel all have the high bit set so match_available is a single
// signed-style comparison, and empty/deleted/sentinel are pairwise
// distinct so a probe can tell "never touched" (empty) from
// "vacated by erase" (deleted) apart.
const (
	empty16    uint8 = 0x80 // 1000_0000, -128 as int8
	deleted16  uint8 = 0xFE // 1111_1110, -2 as int8
	sentinel16 uint8 = 0xFF // 1111_1111, -1 as int8
)

// Layout16 is the 16-slot group layout (spec §4.1, N=16 variant). The
// 16th control byte holds either a normal data slot or, for the last
// group in the table, the single global sentinel.
type Layout16 struct{}

func (Layout16) Width() int { return 16 }

// NewControl returns a fresh, all-empty control block. Every byte must
// start as empty16 (0x80), not Go's zero value, or a freshly allocated
// slot would look like an occupied fingerprint of 0.
func (Layout16) NewControl() [16]byte {
	var c [16]byte
	for i := range c {
		c[i] = empty16
	}
	return c
}

func (Layout16) Set(control *[16]byte, i int, fp uint8) {
	control[i] = fp & 0x7F
}

func (Layout16) Reset(control *[16]byte, i int) {
	control[i] = deleted16
}

func (Layout16) SetSentinel(control *[16]byte) {
	control[15] = sentinel16
}

func (Layout16) AdjustFingerprint(fp uint8) uint8 {
	return fp & 0x7F
}

func (Layout16) Match(control *[16]byte, fp uint8) uint16 {
	return matchByte(fp&0x7F, control)
}

func (Layout16) MatchAvailable(control *[16]byte) uint16 {
	// empty, deleted and sentinel all have the high bit set, and no
	// occupied byte does (fingerprints are masked to 7 bits), so a
	// high-bit test over all 16 bytes gives candidates for insertion
	// except the sentinel itself, which must never be overwritten.
	lo := loadLE64(control[0:8])
	hi := loadLE64(control[8:16])
	highBits := compressTopBits(lo&msbs) | compressTopBits(hi&msbs)<<8
	return highBits &^ matchByte(sentinel16, control)
}

func (Layout16) MatchOccupied(control *[16]byte) uint16 {
	return ^Layout16{}.MatchAvailable(control) & 0xFFFF
}

func (Layout16) MatchReallyOccupied(control *[16]byte) uint16 {
	return Layout16{}.MatchOccupied(control) &^ matchByte(sentinel16, control)
}

// IsNotOverflowed implements the "simple design" named in spec §4.1:
// a group was never overflowed for any fingerprint class iff it
// currently has at least one truly EMPTY slot (not merely available —
// deleted slots do not count, or a group vacated by erase would
// falsely appear never-overflowed and break the probe-terminating
// invariant after a later rehash-free insert/erase cycle).
func (Layout16) IsNotOverflowed(control *[16]byte, _ uint8) bool {
	return matchByte(empty16, control) != 0
}

// MarkOverflow is a no-op for Layout16: overflow state is implicit in
// whether any slot is still truly empty, per IsNotOverflowed above.
func (Layout16) MarkOverflow(*[16]byte, uint8) {}
