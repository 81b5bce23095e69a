// Command asmgen generates an optional amd64 SSE2 fast path for
// internal/group's matchByte: a single PCMPEQB/PMOVMSKB pair instead
// of the portable two-half SWAR fallback. It is a code generator, run
// via go:generate (internal/group/match.go's directive), not a
// runtime dependency — nothing in this module currently calls the
// generated function, so match.go's SWAR implementation remains the
// one actually in use.
//
// Grounded on thepudds-swisstable/avo/asm.go, which prototypes the
// same PSHUFB-broadcast + PCMPEQB + PMOVMSKB sequence against a byte
// slice with a length guard. This version targets a fixed *[16]byte
// instead of a slice, so the length check the teacher's draft needed
// is unnecessary: a `*[16]byte` is always exactly 16 bytes wide.
package main

import (
	. "github.com/mmcloughlin/avo/build"
	"github.com/mmcloughlin/avo/operand"
)

func main() {
	TEXT("matchByte16Asm", NOSPLIT, "func(c uint8, control *[16]byte) uint16")
	Doc("matchByte16Asm returns a 16-bit mask with bit i set iff control[i] == c.")

	c := Load(Param("c"), GP32())
	ptr := Load(Param("control"), GP64())

	bcast, data := XMM(), XMM()
	result := GP32()

	PXOR(bcast, bcast)
	MOVD(c, data)
	// Broadcast byte 0 of data to all 16 lanes using an all-zero
	// shuffle-control register, then compare every lane against the
	// 16 control bytes in one instruction.
	PSHUFB(bcast, data)
	PCMPEQB(operand.Mem{Base: ptr}, data)
	PMOVMSKB(data, result)

	Store(result.As16(), ReturnIndex(0))
	RET()

	Generate()
}
