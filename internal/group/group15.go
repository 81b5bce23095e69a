package group

// Control byte values for the N=15 layout: 0x00 empty, 0x01 sentinel,
// 0x02..0xFF occupied fingerprint. This recovers a full byte minus two
// reserved values of fingerprint space (254 classes instead of 128),
// at the cost of one data slot and using control[15] for bookkeeping
// instead of a 16th data slot.
const (
	empty15    uint8 = 0x00
	sentinel15 uint8 = 0x01
)

// Layout15 is the 15-slot group layout (spec §4.1, N=15 variant). The
// 16th control byte holds the overflow indicator instead of a 16th
// data slot; data slots are masked to 0x7FFF throughout.
//
// classed selects which of the two acceptable overflow-tracking
// behaviours (spec §9 Open Questions) this layout uses:
//   - classed == false (default, matches the source's own #if 1
//     default branch): a single whole-group overflow flag.
//   - classed == true: an 8-bit bitmap indexed by fp&7, recovering
//     more precise per-fingerprint-class overflow tracking at the
//     cost of slightly more bookkeeping on every insert.
type Layout15 struct {
	classed bool
}

// NewLayout15 returns the N=15 layout with the simple whole-group
// overflow flag, matching the source's compiled-in default.
func NewLayout15() Layout15 { return Layout15{classed: false} }

// NewLayout15Classed returns the N=15 layout with the 8-bit
// fingerprint-classed overflow bitmap (the source's #if-0'd
// alternative).
func NewLayout15Classed() Layout15 { return Layout15{classed: true} }

func (Layout15) Width() int { return 15 }

// adjustHash remaps a raw fingerprint of 0 or 1 to 2, since those two
// values are reserved for empty/sentinel.
func adjustHash(fp uint8) uint8 {
	if fp < 2 {
		return 2
	}
	return fp
}

func (Layout15) AdjustFingerprint(fp uint8) uint8 {
	return adjustHash(fp)
}

func (Layout15) Set(control *[16]byte, i int, fp uint8) {
	control[i] = adjustHash(fp)
}

func (Layout15) Reset(control *[16]byte, i int) {
	control[i] = empty15
}

func (Layout15) SetSentinel(control *[16]byte) {
	control[14] = sentinel15
}

func (Layout15) Match(control *[16]byte, fp uint8) uint16 {
	return matchByte(adjustHash(fp), control) & dataMask(15)
}

func (l Layout15) MatchAvailable(control *[16]byte) uint16 {
	return matchByte(empty15, control) & dataMask(15)
}

func (l Layout15) MatchOccupied(control *[16]byte) uint16 {
	return ^l.MatchAvailable(control) & dataMask(15)
}

func (l Layout15) MatchReallyOccupied(control *[16]byte) uint16 {
	occ := l.MatchOccupied(control)
	if control[14] == sentinel15 {
		return occ &^ (1 << 14)
	}
	return occ
}

// overflowByte is the 16th control byte, holding either a single
// whole-group flag (non-zero == "not overflowed") or an 8-bit
// fingerprint-classed bitmap, depending on l.classed.
func (l Layout15) IsNotOverflowed(control *[16]byte, fp uint8) bool {
	if l.classed {
		return control[15]&(1<<(fp&7)) != 0
	}
	return control[15] != 0
}

func (l Layout15) MarkOverflow(control *[16]byte, fp uint8) {
	if l.classed {
		control[15] &^= 1 << (fp & 7)
		return
	}
	control[15] = 0
}

// NewControl returns a fresh, all-empty control block for a Layout15
// group. The zero value already matches empty15 (0x00) for all 15 data
// slots; only the overflow byte needs explicit initialisation to
// "never overflowed".
func (Layout15) NewControl() [16]byte {
	var c [16]byte
	c[15] = 0xFF
	return c
}
