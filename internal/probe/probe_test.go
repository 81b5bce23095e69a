package probe

import "testing"

func TestPow2Sequence(t *testing.T) {
	p := NewPow2(5)
	const size = 16
	if p.Pos() != 5 {
		t.Fatalf("initial pos = %d, want 5", p.Pos())
	}
	seen := map[uint64]bool{5: true}
	for i := 0; i < 15; i++ {
		p.Next(size)
		if p.Pos() >= size {
			t.Fatalf("pos %d out of range [0,%d)", p.Pos(), size)
		}
		seen[p.Pos()] = true
	}
	if len(seen) != size {
		t.Errorf("triangular probe over a power-of-two table should visit every slot, got %d/%d", len(seen), size)
	}
}

func TestNonPow2StaysInRange(t *testing.T) {
	const size = 13
	p := NewNonPow2(4)
	for i := 0; i < 50; i++ {
		p.Next(size)
		if p.Pos() >= size {
			t.Fatalf("pos %d out of range [0,%d)", p.Pos(), size)
		}
	}
}

func TestBitCeil(t *testing.T) {
	cases := map[uint64]uint64{0: 1, 1: 1, 2: 2, 3: 4, 13: 16, 16: 16, 17: 32}
	for n, want := range cases {
		if got := bitCeil(n); got != want {
			t.Errorf("bitCeil(%d) = %d, want %d", n, got, want)
		}
	}
}
