// Package hopscotch implements hopscotch hashing: every slot has a
// fixed-size neighborhood of N candidate home buckets; insertion
// "hops" displaced elements closer to their true home so any key is
// always found within its neighborhood without probing arbitrarily
// far across the table. Grounded on
// original_source/foa_unordered_hopscotch.hpp.
package hopscotch

import (
	"errors"

	"github.com/dkeryan/rchash/internal/sizing"
)

// neighborhood is N, the bounded hop distance: an element is always
// within [home, home+neighborhood) of its hash-determined home slot.
const neighborhood = 16

// ErrHopscotchFailed is the value Set panics with when a displacement
// chain cannot make room even after growing once: the internal
// insertion path reports failure with false, Set retries after a
// further forced rehash and panics only if that second attempt also
// fails, which does not happen for any sane load factor but is kept as
// a defensive bound rather than an infinite loop. rehash and
// findEmptySlot panic with it as well.
var ErrHopscotchFailed = errors.New("hopscotch: could not find a hop chain to an empty slot")

// control packs occupied (high bit) and a 7-bit short hash per slot,
// matching original_source's control::set_value.
type control uint8

func makeControl(hash uint64) control { return control(0x80 | (hash & 0x7F)) }
func (c control) occupied() bool      { return c != 0 }
func (c control) matches(hash uint64) bool {
	return c == makeControl(hash)
}

// nibbles is a two-values-per-byte packed array of hop offsets (0-15),
// grounded on the source's bucket_array: each occupied slot records
// how far it sits from its true home, which uncheckedInsert uses to
// decide which elements may hop forward and Stats uses to attribute
// slots to buckets.
type nibbles []byte

func newNibbles(n int) nibbles { return make(nibbles, (n+1)/2) }

func (b nibbles) get(i int) uint8 {
	v := b[i/2]
	if i%2 == 0 {
		return v & 0xF
	}
	return v >> 4
}

func (b nibbles) set(i int, v uint8) {
	if i%2 == 0 {
		b[i/2] = (b[i/2] &^ 0xF) | (v & 0xF)
	} else {
		b[i/2] = (b[i/2] &^ 0xF0) | (v << 4)
	}
}

// Stats summarizes neighborhood occupancy, reported on request rather
// than printed to stdout the way the source's optional status()
// method does. Grounded on foa_unordered_hopscotch.hpp:209-243.
type Stats struct {
	Size               int
	Capacity           int
	LoadFactor         float64
	BucketsByLength    [neighborhood + 1]int
	NonEmptyBuckets    int
	AvgNonEmptyBucket  float64
	Hops               int
	HopscotchBlocks    int
}

// Map is a hopscotch hash table keyed by any comparable type. The
// zero value is not usable; construct with New.
type Map[K comparable, V any] struct {
	hashFunc      func(K) uint64
	sizingPolicy  sizing.Policy
	maxLoadFactor float32

	sizeIndex int
	capacity  int
	controls  []control
	hops      nibbles
	elems     []kv[K, V]

	size int
	ml   int

	numHops            int
	numHopscotchBlocks int
}

type kv[K comparable, V any] struct {
	key   K
	value V
}

// Option configures a Map at construction time.
type Option[K comparable, V any] func(*Map[K, V])

// WithHashFunc overrides the hash function applied to keys.
func WithHashFunc[K comparable, V any](f func(K) uint64) Option[K, V] {
	return func(m *Map[K, V]) { m.hashFunc = f }
}

// WithMaxLoadFactor overrides the fraction of slots that may be
// filled before a rehash is triggered. Defaults to 0.875.
func WithMaxLoadFactor[K comparable, V any](f float32) Option[K, V] {
	return func(m *Map[K, V]) { m.maxLoadFactor = f }
}

// New constructs an empty Map sized to hold at least capacity
// elements without a rehash.
func New[K comparable, V any](capacity int, opts ...Option[K, V]) *Map[K, V] {
	m := &Map[K, V]{
		hashFunc:      defaultHash[K],
		sizingPolicy:  sizing.Prime{},
		maxLoadFactor: 0.875,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.sizeIndex = m.sizingPolicy.SizeIndex(uint64(capacity))
	m.allocate()
	return m
}

func (m *Map[K, V]) allocate() {
	capacity := int(m.sizingPolicy.Size(m.sizeIndex))
	m.capacity = capacity
	m.controls = make([]control, capacity)
	m.hops = newNibbles(capacity)
	m.elems = make([]kv[K, V], capacity)
	m.size = 0
	m.ml = int(m.maxLoadFactor * float32(capacity))
}

func (m *Map[K, V]) positionFor(hash uint64) int {
	return int(m.sizingPolicy.Position(hash>>7, m.sizeIndex))
}

func (m *Map[K, V]) plusWrap(n, d int) int {
	r := n + d
	for r >= m.capacity {
		r -= m.capacity
	}
	return r
}

func (m *Map[K, V]) minusWrap(n, d int) int {
	r := n - d
	if d > n {
		r += m.capacity
	}
	return r
}

// Len returns the number of elements currently stored.
func (m *Map[K, V]) Len() int { return m.size }

// Stats reports neighborhood-occupancy diagnostics.
func (m *Map[K, V]) Stats() Stats {
	s := Stats{Size: m.size, Capacity: m.capacity, Hops: m.numHops, HopscotchBlocks: m.numHopscotchBlocks}
	if m.capacity > 0 {
		s.LoadFactor = float64(m.size) / float64(m.capacity)
	}
	var nonEmptyLen int
	for pos := 0; pos < m.capacity; pos++ {
		length := 0
		for i := 0; i < neighborhood; i++ {
			n := m.plusWrap(pos, i)
			if m.controls[n].occupied() && int(m.hops.get(n)) == i {
				length++
			}
		}
		s.BucketsByLength[length]++
		if length > 0 {
			s.NonEmptyBuckets++
			nonEmptyLen += length
		}
	}
	if s.NonEmptyBuckets > 0 {
		s.AvgNonEmptyBucket = float64(nonEmptyLen) / float64(s.NonEmptyBuckets)
	}
	return s
}

func (m *Map[K, V]) findAt(key K, pos int, hash uint64) (int, bool) {
	if pos+neighborhood <= m.capacity {
		for n := 0; n < neighborhood; n++ {
			p := pos + n
			if m.controls[p].matches(hash) && m.elems[p].key == key {
				return p, true
			}
		}
		return 0, false
	}
	for n := 0; n < neighborhood; n++ {
		p := m.plusWrap(pos, n)
		if m.controls[p].matches(hash) && m.elems[p].key == key {
			return p, true
		}
	}
	return 0, false
}

// Get reports the value associated with key, if any.
func (m *Map[K, V]) Get(key K) (V, bool) {
	hash := m.hashFunc(key)
	pos := m.positionFor(hash)
	if p, ok := m.findAt(key, pos, hash); ok {
		return m.elems[p].value, true
	}
	var zero V
	return zero, false
}

// Set inserts or updates the value associated with key.
func (m *Map[K, V]) Set(key K, value V) {
	hash := m.hashFunc(key)
	pos := m.positionFor(hash)
	if p, ok := m.findAt(key, pos, hash); ok {
		m.elems[p].value = value
		return
	}

	if m.size+1 > m.ml || !m.uncheckedInsert(key, value, pos, hash) {
		m.rehash(m.ml + 1)
		pos = m.positionFor(hash)
		if !m.uncheckedInsert(key, value, pos, hash) {
			// Capacity just grew specifically to fit this insert; a
			// second failure means the hop chain is saturated even at
			// the new size, which max load factor < 1 should prevent.
			m.rehash(m.size + m.capacity)
			pos = m.positionFor(hash)
			if !m.uncheckedInsert(key, value, pos, hash) {
				panic(ErrHopscotchFailed)
			}
		}
	}
}

// uncheckedInsert finds an empty slot for key starting the linear
// scan at pos, then hops occupied elements closer to their own home
// until the empty slot lands within the neighborhood of pos.
func (m *Map[K, V]) uncheckedInsert(key K, value V, pos int, hash uint64) bool {
	dst := m.findEmptySlot(pos)

	for {
		n := m.minusWrap(dst, pos)
		if n < neighborhood {
			break
		}
		moved := false
		for i := neighborhood - 1; i >= 1; i-- {
			hop := m.minusWrap(dst, i)
			if int(m.hops.get(hop))+i < neighborhood {
				m.elems[dst] = m.elems[hop]
				m.controls[dst] = m.controls[hop]
				m.controls[hop] = 0
				m.hops.set(dst, m.hops.get(hop)+uint8(i))
				m.hops.set(hop, 0)
				dst = hop
				m.numHops++
				moved = true
				break
			}
		}
		if !moved {
			m.numHopscotchBlocks++
			return false
		}
	}

	m.elems[dst] = kv[K, V]{key: key, value: value}
	m.controls[dst] = makeControl(hash)
	m.hops.set(dst, uint8(m.minusWrap(dst, pos)))
	m.size++
	return true
}

func (m *Map[K, V]) findEmptySlot(pos int) int {
	for dst := pos; dst < m.capacity; dst++ {
		if !m.controls[dst].occupied() {
			return dst
		}
	}
	for dst := 0; dst < m.capacity; dst++ {
		if !m.controls[dst].occupied() {
			return dst
		}
	}
	// Unreachable under any maxLoadFactor < 1: Set always rehashes
	// before the table can be entirely full.
	panic(ErrHopscotchFailed)
}

// Delete removes key if present, reporting whether it was found.
func (m *Map[K, V]) Delete(key K) bool {
	hash := m.hashFunc(key)
	pos := m.positionFor(hash)
	p, ok := m.findAt(key, pos, hash)
	if !ok {
		return false
	}
	var zero kv[K, V]
	m.elems[p] = zero
	m.controls[p] = 0
	m.hops.set(p, 0)
	m.size--
	return true
}

// rehash grows the table to accommodate at least newSize elements and
// reinserts every live element.
func (m *Map[K, V]) rehash(newSize int) {
	target := uint64(float64(newSize)/float64(m.maxLoadFactor)) + 1
	newSizeIndex := m.sizingPolicy.SizeIndex(target)
	if newSizeIndex <= m.sizeIndex {
		newSizeIndex = m.sizeIndex + 1
	}

	oldControls, oldElems, oldCapacity := m.controls, m.elems, m.capacity
	m.sizeIndex = newSizeIndex
	m.allocate()

	for pos := 0; pos < oldCapacity; pos++ {
		if oldControls[pos].occupied() {
			e := oldElems[pos]
			hash := m.hashFunc(e.key)
			if !m.uncheckedInsert(e.key, e.value, m.positionFor(hash), hash) {
				panic(ErrHopscotchFailed)
			}
		}
	}
}

// Range calls f for each key/value pair in the map, in unspecified
// order, stopping early if f returns false.
func (m *Map[K, V]) Range(f func(key K, value V) bool) {
	for pos := 0; pos < m.capacity; pos++ {
		if m.controls[pos].occupied() {
			e := m.elems[pos]
			if !f(e.key, e.value) {
				return
			}
		}
	}
}
