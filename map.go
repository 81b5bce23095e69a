// Package rchash implements a reduced-collision (RC) open-addressing
// hash table: fixed-width groups of control bytes probed with
// triangular-number steps, a short fingerprint tested with a
// SIMD-within-a-register byte match, and a per-group overflow
// indicator that lets probing stop as soon as a key's home group
// reports it was never displaced past.
package rchash

import (
	"fmt"
	"math/bits"
)

// debug gates verbose step-by-step tracing of the probe sequence,
// mirroring the teacher's own compile-time debug idiom: flip this one
// constant to get insert/probe traces without touching call sites.
const debug = false

func dbgf(format string, args ...any) {
	if debug {
		fmt.Printf(format, args...)
	}
}

// kv is the element storage slot. Exported field names mirror the
// teacher's own KV, kept private here since Map is generic and the
// pair itself carries no independent API.
type kv[K comparable, V any] struct {
	key   K
	value V
}

// Map is a reduced-collision hash table keyed by any comparable type.
// The zero value is not usable; construct with New.
type Map[K comparable, V any] struct {
	cfg config[K, V]

	control    []byte      // groupCount*16 control bytes, 16 per group regardless of layout width
	elems      []kv[K, V]  // groupCount*16 element slots, parallel to control
	sizeIndex  int
	groupCount uint64

	size     int
	maxLoad  int

	gets                     int64
	getTopHashFalsePositives int64
	getExtraGroups           int64
}

// New constructs an empty Map sized to hold at least capacity
// elements without a rehash. capacity is a hint, not a guarantee if a
// growth-triggering Set later exceeds it.
func New[K comparable, V any](capacity int, opts ...Option[K, V]) *Map[K, V] {
	cfg := defaultConfig[K, V]()
	for _, opt := range opts {
		opt(&cfg)
	}

	width := cfg.layout.Width()
	n := uint64(capacity)/uint64(width) + 1
	sizeIndex := cfg.sizingPolicy.SizeIndex(n)

	m := &Map[K, V]{cfg: cfg, sizeIndex: sizeIndex}
	m.allocate()
	return m
}

// allocate (re)creates control/elems/groupCount for m.sizeIndex and
// recomputes maxLoad; it neither moves existing elements nor resets
// m.size (rehash does that itself).
func (m *Map[K, V]) allocate() {
	groupCount := m.cfg.sizingPolicy.Size(m.sizeIndex)
	m.groupCount = groupCount

	control := make([]byte, groupCount*16)
	empty := m.cfg.layout.NewControl()
	for g := uint64(0); g < groupCount; g++ {
		copy(control[g*16:g*16+16], empty[:])
	}
	m.cfg.layout.SetSentinel((*[16]byte)(control[(groupCount-1)*16:]))

	m.control = control
	m.elems = make([]kv[K, V], groupCount*16)
	m.maxLoad = m.computeMaxLoad()
}

func (m *Map[K, V]) computeMaxLoad() int {
	width := m.cfg.layout.Width()
	total := float64(m.groupCount) * float64(width)
	ml := int(float64(m.cfg.maxLoadFactor) * (total - 1))
	if ml < 0 {
		ml = 0
	}
	return ml
}

func (m *Map[K, V]) groupAt(pos uint64) *[16]byte {
	return (*[16]byte)(m.control[pos*16 : pos*16+16])
}

// Len returns the number of elements currently stored.
func (m *Map[K, V]) Len() int { return m.size }

// Get reports the value associated with key, if any.
func (m *Map[K, V]) Get(key K) (V, bool) {
	m.gets++

	hash := m.cfg.hashFunc(key)
	long := m.cfg.splitter.Long(hash)
	short := m.cfg.layout.AdjustFingerprint(m.cfg.splitter.Short(hash))
	pos := m.cfg.sizingPolicy.Position(long, m.sizeIndex)

	pb := m.cfg.newProber(pos)
	for {
		p := pb.Pos()
		grp := m.groupAt(p)
		dbgf("get: key=%v group=%d fp=%#x\n", key, p, short)
		if n, ok := m.findInGroup(key, p, grp, short); ok {
			return m.elems[p*16+uint64(n)].value, true
		}
		if m.cfg.layout.IsNotOverflowed(grp, short) {
			var zero V
			return zero, false
		}
		m.getExtraGroups++
		pb.Next(m.groupCount)
	}
}

// findInGroup scans group grp (located at pos) for key under
// fingerprint fp, returning the in-group slot index on a hit.
func (m *Map[K, V]) findInGroup(key K, pos uint64, grp *[16]byte, fp uint8) (int, bool) {
	mask := m.cfg.layout.Match(grp, fp)
	for mask != 0 {
		n := bits.TrailingZeros16(mask)
		if m.elems[pos*16+uint64(n)].key == key {
			return n, true
		}
		m.getTopHashFalsePositives++
		mask &^= 1 << uint(n)
	}
	return 0, false
}

// Set inserts or updates the value associated with key.
func (m *Map[K, V]) Set(key K, value V) {
	hash := m.cfg.hashFunc(key)
	long := m.cfg.splitter.Long(hash)
	short := m.cfg.layout.AdjustFingerprint(m.cfg.splitter.Short(hash))
	pos0 := m.cfg.sizingPolicy.Position(long, m.sizeIndex)

	pb := m.cfg.newProber(pos0)
	for {
		p := pb.Pos()
		grp := m.groupAt(p)
		if n, ok := m.findInGroup(key, p, grp, short); ok {
			m.elems[p*16+uint64(n)].value = value
			return
		}
		if m.cfg.layout.IsNotOverflowed(grp, short) {
			break
		}
		pb.Next(m.groupCount)
	}

	if m.size+1 > m.maxLoad {
		dbgf("set: growing, size=%d maxLoad=%d\n", m.size, m.maxLoad)
		m.rehash(m.size + 1)
		pos0 = m.cfg.sizingPolicy.Position(long, m.sizeIndex)
	}
	m.uncheckedInsert(key, value, pos0, short)
}

// uncheckedInsert places key/value at the first available slot found
// starting at pos0, marking every full group it passes over as
// overflowed for fp's class. Callers must already know key is absent.
func (m *Map[K, V]) uncheckedInsert(key K, value V, pos0 uint64, fp uint8) {
	pb := m.cfg.newProber(pos0)
	for {
		p := pb.Pos()
		grp := m.groupAt(p)
		mask := m.cfg.layout.MatchAvailable(grp)
		if mask != 0 {
			n := bits.TrailingZeros16(mask)
			m.elems[p*16+uint64(n)] = kv[K, V]{key: key, value: value}
			m.cfg.layout.Set(grp, n, fp)
			m.size++
			return
		}
		m.cfg.layout.MarkOverflow(grp, fp)
		pb.Next(m.groupCount)
	}
}

// Delete removes key if present, reporting whether it was found.
func (m *Map[K, V]) Delete(key K) bool {
	hash := m.cfg.hashFunc(key)
	long := m.cfg.splitter.Long(hash)
	short := m.cfg.layout.AdjustFingerprint(m.cfg.splitter.Short(hash))
	pos := m.cfg.sizingPolicy.Position(long, m.sizeIndex)

	pb := m.cfg.newProber(pos)
	for {
		p := pb.Pos()
		grp := m.groupAt(p)
		if n, ok := m.findInGroup(key, p, grp, short); ok {
			m.cfg.layout.Reset(grp, n)
			var zero kv[K, V]
			m.elems[p*16+uint64(n)] = zero
			m.size--
			return true
		}
		if m.cfg.layout.IsNotOverflowed(grp, short) {
			return false
		}
		pb.Next(m.groupCount)
	}
}

// rehash grows the table to accommodate at least newSize elements
// and reinserts every live element. Mirrors the teacher's resize
// path: a fresh backing array is built, then the old one is dropped.
func (m *Map[K, V]) rehash(newSize int) {
	target := uint64(float64(newSize)/float64(m.cfg.maxLoadFactor)) + 1
	newSizeIndex := m.cfg.sizingPolicy.SizeIndex(target)
	if newSizeIndex <= m.sizeIndex {
		newSizeIndex = m.sizeIndex + 1
	}

	oldControl, oldElems, oldGroupCount := m.control, m.elems, m.groupCount
	m.sizeIndex = newSizeIndex
	m.allocate()
	m.size = 0

	for g := uint64(0); g < oldGroupCount; g++ {
		grp := (*[16]byte)(oldControl[g*16 : g*16+16])
		mask := m.cfg.layout.MatchReallyOccupied(grp)
		for mask != 0 {
			n := bits.TrailingZeros16(mask)
			e := oldElems[g*16+uint64(n)]
			hash := m.cfg.hashFunc(e.key)
			long := m.cfg.splitter.Long(hash)
			short := m.cfg.layout.AdjustFingerprint(m.cfg.splitter.Short(hash))
			pos := m.cfg.sizingPolicy.Position(long, m.sizeIndex)
			m.uncheckedInsert(e.key, e.value, pos, short)
			mask &^= 1 << uint(n)
		}
	}
}

// iterator walks live (group, offset) slots in ascending order,
// grounded on the source's const_iterator::increment: rather than
// rescanning a group from bit 0, it masks off every bit at or before
// the current offset and rescans what remains of the current group
// before moving on to the next one.
type iterator[K comparable, V any] struct {
	m     *Map[K, V]
	group uint64
	n     int // offset of the current slot within group; -1 before the first next()
}

func (m *Map[K, V]) iter() iterator[K, V] {
	return iterator[K, V]{m: m, group: 0, n: -1}
}

// next advances to the next live slot, reporting whether one exists.
func (it *iterator[K, V]) next() bool {
	if it.n >= 0 {
		grp := it.m.groupAt(it.group)
		mask := it.m.cfg.layout.MatchReallyOccupied(grp) &^ (uint16(1)<<uint(it.n+1) - 1)
		if mask != 0 {
			it.n = bits.TrailingZeros16(mask)
			return true
		}
		it.group++
		it.n = -1
	}
	for it.group < it.m.groupCount {
		mask := it.m.cfg.layout.MatchReallyOccupied(it.m.groupAt(it.group))
		if mask != 0 {
			it.n = bits.TrailingZeros16(mask)
			return true
		}
		it.group++
	}
	return false
}

func (it *iterator[K, V]) keyValue() (K, V) {
	e := it.m.elems[it.group*16+uint64(it.n)]
	return e.key, e.value
}

// Range calls f for each key/value pair in the map, in unspecified
// order, stopping early if f returns false. Matches the semantics Go
// maps give range-over-map: a key deleted by f before Range reaches
// it will not be yielded, but the appearance of a key inserted by f
// is unspecified.
func (m *Map[K, V]) Range(f func(key K, value V) bool) {
	it := m.iter()
	for it.next() {
		k, v := it.keyValue()
		if !f(k, v) {
			return
		}
	}
}
