package hopscotch

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

func TestGrowthWithHops(t *testing.T) {
	m := New[int, int](4)
	const n = 6000
	for i := 0; i < n; i++ {
		m.Set(i, i*3)
	}
	if m.Len() != n {
		t.Fatalf("Len() = %d, want %d", m.Len(), n)
	}
	for i := 0; i < n; i++ {
		v, ok := m.Get(i)
		if !ok || v != i*3 {
			t.Fatalf("Get(%d) = %v, %v, want %d, true", i, v, ok, i*3)
		}
	}
}

func TestDeleteAndReinsert(t *testing.T) {
	m := New[int, int](8)
	for i := 0; i < 500; i++ {
		m.Set(i, i)
	}
	for i := 0; i < 500; i += 2 {
		if !m.Delete(i) {
			t.Fatalf("Delete(%d) should report true", i)
		}
	}
	for i := 0; i < 500; i++ {
		_, ok := m.Get(i)
		want := i%2 != 0
		if ok != want {
			t.Fatalf("Get(%d) ok=%v, want %v", i, ok, want)
		}
	}
	for i := 0; i < 500; i += 2 {
		m.Set(i, i+1)
	}
	for i := 0; i < 500; i++ {
		want := i
		if i%2 == 0 {
			want = i + 1
		}
		v, ok := m.Get(i)
		if !ok || v != want {
			t.Fatalf("Get(%d) = %v, %v, want %d, true", i, v, ok, want)
		}
	}
}

func TestStatsReportsOccupancy(t *testing.T) {
	m := New[int, int](64)
	for i := 0; i < 40; i++ {
		m.Set(i, i)
	}
	s := m.Stats()
	if s.Size != 40 {
		t.Errorf("Stats.Size = %d, want 40", s.Size)
	}
	if s.Capacity <= 0 {
		t.Errorf("Stats.Capacity = %d, want > 0", s.Capacity)
	}
	total := 0
	for length, count := range s.BucketsByLength {
		total += length * count
	}
	if total != s.Size {
		t.Errorf("BucketsByLength total occupants = %d, want %d", total, s.Size)
	}
}

func TestRangeVisitsEveryLiveElement(t *testing.T) {
	m := New[int, int](0)
	want := map[int]int{}
	for i := 0; i < 300; i++ {
		m.Set(i, i*5)
		want[i] = i * 5
	}
	m.Delete(11)
	delete(want, 11)

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
