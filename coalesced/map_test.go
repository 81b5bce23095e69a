package coalesced

import "testing"

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
	if v, ok := m.Get("b"); !ok || v != 2 {
		t.Fatalf("Get(b) after unrelated delete = %v, %v, want 2, true", v, ok)
	}
}

func TestGrowthAndCollisionChains(t *testing.T) {
	for _, kind := range []NodeKind{Simple, HCached} {
		m := New[int, int](4, WithNodeKind[int, int](kind))
		const n = 4000
		for i := 0; i < n; i++ {
			m.Set(i, i*2)
		}
		if m.Len() != n {
			t.Fatalf("kind=%v: Len() = %d, want %d", kind, m.Len(), n)
		}
		for i := 0; i < n; i++ {
			v, ok := m.Get(i)
			if !ok || v != i*2 {
				t.Fatalf("kind=%v: Get(%d) = %v, %v, want %d, true", kind, i, v, ok, i*2)
			}
		}
		for i := 0; i < n; i += 3 {
			if !m.Delete(i) {
				t.Fatalf("kind=%v: Delete(%d) should report true", kind, i)
			}
		}
		for i := 0; i < n; i++ {
			_, ok := m.Get(i)
			want := i%3 != 0
			if ok != want {
				t.Fatalf("kind=%v: Get(%d) after delete ok=%v, want %v", kind, i, ok, want)
			}
		}
	}
}

func TestDeleteThenReinsertSameKey(t *testing.T) {
	m := New[int, int](8)
	for i := 0; i < 50; i++ {
		m.Set(i, i)
	}
	for i := 0; i < 50; i++ {
		m.Delete(i)
	}
	if m.Len() != 0 {
		t.Fatalf("Len() after deleting everything = %d, want 0", m.Len())
	}
	for i := 0; i < 50; i++ {
		m.Set(i, i+1)
	}
	for i := 0; i < 50; i++ {
		v, ok := m.Get(i)
		if !ok || v != i+1 {
			t.Fatalf("Get(%d) = %v, %v, want %d, true", i, v, ok, i+1)
		}
	}
}

func TestRangeVisitsEveryLiveElement(t *testing.T) {
	m := New[int, int](0)
	want := map[int]int{}
	for i := 0; i < 300; i++ {
		m.Set(i, i*10)
		want[i] = i * 10
	}
	m.Delete(7)
	delete(want, 7)

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
