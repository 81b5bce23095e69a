package rchash

import "testing"

// identityHash is a deliberately weak hash (the raw key value, a
// golden-ratio mix applied only by the Fibonacci sizing policies)
// used to force heavy collisions and exercise the overflow-tracking
// and probe-termination invariants under worst-case conditions.
func identityHash(k int) uint64 { return uint64(k) }

// TestProbeTerminatesAfterOverflow is P2: once a key's home group has
// ever displaced a key of the same fingerprint class, lookups must
// keep probing past it rather than stopping early, and conversely a
// group that reports "not overflowed" must mean the key is genuinely
// absent.
func TestProbeTerminatesAfterOverflow(t *testing.T) {
	// The capacity hint rounds up to the 32-group minimum, so 40 keys
	// never trigger a rehash; forcing every key into group 0 makes
	// that group (and the next one probed) overflow.
	m := New[int, int](8,
		WithHashFunc[int, int](identityHash),
		WithHashSplit[int, int](constSplit{}),
	)
	const n = 40
	for i := 0; i < n; i++ {
		m.Set(i, i*10)
	}
	for i := 0; i < n; i++ {
		v, ok := m.Get(i)
		if !ok || v != i*10 {
			t.Fatalf("Get(%d) = %v, %v, want %d, true", i, v, ok, i*10)
		}
	}
	if _, ok := m.Get(n + 1000); ok {
		t.Fatalf("Get of an absent key must still terminate and report false")
	}
}

// constSplit sends every hash to the same long-hash bucket (0) while
// keeping a usable short hash, forcing maximal group overflow.
type constSplit struct{}

func (constSplit) Long(uint64) uint64  { return 0 }
func (constSplit) Short(h uint64) uint8 { return uint8(h) }

// TestEraseInsertIdempotence is P3: erasing a key and inserting a
// different key afterwards must not resurrect the erased key, even
// when the new key reuses the freed slot.
func TestEraseInsertIdempotence(t *testing.T) {
	m := New[int, int](8, WithHashFunc[int, int](identityHash))
	for i := 0; i < 32; i++ {
		m.Set(i, i)
	}
	for i := 0; i < 32; i += 2 {
		if !m.Delete(i) {
			t.Fatalf("Delete(%d) should report true", i)
		}
	}
	for i := 0; i < 64; i++ {
		m.Set(i+1000, i)
	}
	for i := 0; i < 32; i += 2 {
		if _, ok := m.Get(i); ok {
			t.Fatalf("erased key %d reappeared after unrelated inserts", i)
		}
	}
	for i := 1; i < 32; i += 2 {
		if v, ok := m.Get(i); !ok || v != i {
			t.Fatalf("surviving key %d lost: got %v, %v", i, v, ok)
		}
	}
}

// TestRehashPreservesElements is P4: growing the table must preserve
// every live element and its value exactly.
func TestRehashPreservesElements(t *testing.T) {
	m := New[int, string](4)
	const n = 3000
	for i := 0; i < n; i++ {
		m.Set(i, "v")
		m.Set(i, string(rune('a'+i%26)))
	}
	for i := 0; i < n; i++ {
		want := string(rune('a' + i%26))
		got, ok := m.Get(i)
		if !ok || got != want {
			t.Fatalf("after rehash, Get(%d) = %q, %v, want %q, true", i, got, ok, want)
		}
	}
}

// TestLoadFactorBound is P5: Len never exceeds the configured load
// factor's implied capacity without triggering a rehash first; we
// check this indirectly by confirming lookups stay correct well past
// the capacity hint, i.e. rehash kept pace with insertion.
func TestLoadFactorBound(t *testing.T) {
	m := New[int, int](16, WithMaxLoadFactor[int, int](0.7))
	for i := 0; i < 10000; i++ {
		m.Set(i, i)
	}
	for i := 0; i < 10000; i++ {
		if v, ok := m.Get(i); !ok || v != i {
			t.Fatalf("Get(%d) = %v, %v, want %d, true", i, v, ok, i)
		}
	}
}

// TestSentinelNeverYieldedByRange is P7: the trailing sentinel slot
// that terminates internal iteration must never surface as a live
// key/value pair.
func TestSentinelNeverYieldedByRange(t *testing.T) {
	m := New[int, int](0)
	for i := 0; i < 500; i++ {
		m.Set(i, i)
	}
	count := 0
	m.Range(func(k, v int) bool {
		count++
		return true
	})
	if count != m.Len() {
		t.Fatalf("Range yielded %d entries, want exactly Len()=%d (sentinel must be excluded)", count, m.Len())
	}
}
