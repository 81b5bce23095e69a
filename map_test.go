package rchash

import (
	"testing"

	"github.com/dkeryan/rchash/internal/hashsplit"
)

func TestSetGetDelete(t *testing.T) {
	m := New[string, int](0)
	if _, ok := m.Get("a"); ok {
		t.Fatalf("empty map should not find \"a\"")
	}
	m.Set("a", 1)
	m.Set("b", 2)
	if v, ok := m.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = %v, %v, want 1, true", v, ok)
	}
	m.Set("a", 10)
	if v, ok := m.Get("a"); !ok || v != 10 {
		t.Fatalf("overwrite Get(a) = %v, %v, want 10, true", v, ok)
	}
	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}
	if !m.Delete("a") {
		t.Fatalf("Delete(a) should report true")
	}
	if _, ok := m.Get("a"); ok {
		t.Fatalf("Get(a) after delete should miss")
	}
	if m.Delete("a") {
		t.Fatalf("second Delete(a) should report false")
	}
	if m.Len() != 1 {
		t.Fatalf("Len() after delete = %d, want 1", m.Len())
	}
}

func TestGrowthTriggersRehash(t *testing.T) {
	m := New[int, int](0)
	const n = 5000
	for i := 0; i < n; i++ {
		m.Set(i, i*i)
	}
	if m.Len() != n {
		t.Fatalf("Len() = %d, want %d", m.Len(), n)
	}
	for i := 0; i < n; i++ {
		v, ok := m.Get(i)
		if !ok || v != i*i {
			t.Fatalf("Get(%d) = %v, %v, want %d, true", i, v, ok, i*i)
		}
	}
}

func TestRangeVisitsEveryLiveElement(t *testing.T) {
	m := New[int, int](0)
	want := map[int]int{}
	for i := 0; i < 200; i++ {
		m.Set(i, -i)
		want[i] = -i
	}
	m.Delete(5)
	delete(want, 5)

	got := map[int]int{}
	m.Range(func(k, v int) bool {
		got[k] = v
		return true
	})
	if len(got) != len(want) {
		t.Fatalf("Range visited %d keys, want %d", len(got), len(want))
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Range missed or mismatched key %d: got %d want %d", k, got[k], v)
		}
	}
}

func TestRangeEarlyStop(t *testing.T) {
	m := New[int, int](0)
	for i := 0; i < 50; i++ {
		m.Set(i, i)
	}
	count := 0
	m.Range(func(k, v int) bool {
		count++
		return count < 10
	})
	if count != 10 {
		t.Fatalf("Range stopped after %d calls, want exactly 10", count)
	}
}

func TestEraseThenReinsertReusesSlot(t *testing.T) {
	m := New[int, int](0)
	m.Set(1, 1)
	m.Set(2, 2)
	m.Delete(1)
	m.Set(3, 3)
	if v, ok := m.Get(3); !ok || v != 3 {
		t.Fatalf("Get(3) = %v, %v, want 3, true", v, ok)
	}
	if _, ok := m.Get(1); ok {
		t.Fatalf("Get(1) should still miss after reinsertion of an unrelated key")
	}
	if v, ok := m.Get(2); !ok || v != 2 {
		t.Fatalf("Get(2) = %v, %v, want 2, true", v, ok)
	}
}

func TestPolicyAxesAllRoundTrip(t *testing.T) {
	type variant struct {
		name string
		opts []Option[int, int]
	}
	variants := []variant{
		{"default", nil},
		{"width15", []Option[int, int]{WithGroupWidth15[int, int]()}},
		{"width15classed", []Option[int, int]{WithGroupWidth15Classed[int, int]()}},
		{"lowpow2", []Option[int, int]{WithLowPow2Sizing[int, int]()}},
		{"pow2fib", []Option[int, int]{WithPow2FibSizing[int, int]()}},
		{"prime", []Option[int, int]{WithPrimeSizing[int, int]()}},
		{"primefastmod", []Option[int, int]{WithPrimeFastmodSizing[int, int]()}},
		{"primefastrange", []Option[int, int]{WithPrimeFastrangeSizing[int, int]()}},
		{"primefastrangefib", []Option[int, int]{WithPrimeFastrangeFibSizing[int, int]()}},
		{"avalanche split", []Option[int, int]{WithHashSplit[int, int](hashsplit.Avalanche{})}},
	}
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			m := New[int, int](16, v.opts...)
			for i := 0; i < 2000; i++ {
				m.Set(i, i+1)
			}
			for i := 0; i < 2000; i++ {
				got, ok := m.Get(i)
				if !ok || got != i+1 {
					t.Fatalf("Get(%d) = %v, %v, want %d, true", i, got, ok, i+1)
				}
			}
			for i := 0; i < 2000; i += 3 {
				m.Delete(i)
			}
			for i := 0; i < 2000; i++ {
				_, ok := m.Get(i)
				want := i%3 != 0
				if ok != want {
					t.Fatalf("Get(%d) after delete ok=%v, want %v", i, ok, want)
				}
			}
		})
	}
}

func TestMaxLoadFactorOption(t *testing.T) {
	m := New[int, int](64, WithMaxLoadFactor[int, int](0.5))
	for i := 0; i < 1000; i++ {
		m.Set(i, i)
	}
	if m.Len() != 1000 {
		t.Fatalf("Len() = %d, want 1000", m.Len())
	}
}
