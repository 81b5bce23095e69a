package hopscotch

import (
	"math/bits"

	"github.com/dkeryan/rchash/internal/sizing"
)

// longMeta packs, per slot, a 1-bit occupied flag + 7-bit fingerprint
// (the "hash" field) and two 4-bit bucket-chain offsets ("first" and
// "next"), all in a single uint16. Grounded on
// original_source/foa_unordered_longhop.hpp's element<T>::metadata
// bit layout (width_hash=8, width_first=width_next=4, N=16).
type longMeta uint16

func (m longMeta) hashField() uint8 { return uint8(m >> 8) }
func (m *longMeta) setHashField(raw uint8) {
	*m = (*m &^ 0xFF00) | longMeta(raw)<<8
}

// setHash stores a fresh fingerprint, forcing the top bit on to mark
// the slot occupied (the source's set_hash ORs in the same bit
// unconditionally).
func (m *longMeta) setHash(hash uint64) { m.setHashField(uint8(hash&0x7F) | 0x80) }

func (m longMeta) match(hash uint64) bool {
	return m.hashField() == uint8(hash&0x7F)|0x80
}

func (m longMeta) occupied() bool { return m.hashField()&0x80 != 0 }

// reset clears only the hash field, leaving first/next untouched (as
// in the source). first belongs to the bucket whose home is this slot
// and stays live whatever the slot holds; an unoccupied slot's next is
// not read until it is next written.
func (m *longMeta) reset() { m.setHashField(0) }

func (m longMeta) first() uint8 { return uint8(m>>4) & 0xF }
func (m *longMeta) setFirst(n uint8) {
	*m = (*m &^ 0x00F0) | longMeta(n&0xF)<<4
}

func (m longMeta) next() uint8 { return uint8(m) & 0xF }
func (m *longMeta) setNext(n uint8) {
	*m = (*m &^ 0x000F) | longMeta(n&0xF)
}

// LongHopMap is the long-hop generalization of hopscotch hashing:
// rather than every slot holding a direct-addressed element, each
// home position holds a "first" offset into a singly-linked chain of
// elements, with both the chain pointers and the elements themselves
// packed into the same bounded N=16 neighborhood via the same
// hop-displacement technique as Map. This trades Map's larger
// fixed-size neighborhood scan on every lookup for a chain walk
// proportional to the bucket's actual length, at the cost of the
// extra first/next bookkeeping. Grounded on
// original_source/foa_unordered_longhop.hpp.
type LongHopMap[K comparable, V any] struct {
	hashFunc      func(K) uint64
	sizingPolicy  sizing.Policy
	maxLoadFactor float32

	sizeIndex int
	capacity  uint64
	metas     []longMeta
	elems     []kv[K, V]

	size int
	ml   int

	numHops            int
	numHopscotchBlocks int
}

// LongHopOption configures a LongHopMap at construction time.
type LongHopOption[K comparable, V any] func(*LongHopMap[K, V])

// WithLongHopHashFunc overrides the hash function applied to keys.
func WithLongHopHashFunc[K comparable, V any](f func(K) uint64) LongHopOption[K, V] {
	return func(m *LongHopMap[K, V]) { m.hashFunc = f }
}

// WithLongHopMaxLoadFactor overrides the fraction of slots that may
// be filled before a rehash is triggered. Defaults to 0.875.
func WithLongHopMaxLoadFactor[K comparable, V any](f float32) LongHopOption[K, V] {
	return func(m *LongHopMap[K, V]) { m.maxLoadFactor = f }
}

// NewLongHop constructs an empty LongHopMap sized to hold at least
// capacity elements without a rehash.
func NewLongHop[K comparable, V any](capacity int, opts ...LongHopOption[K, V]) *LongHopMap[K, V] {
	m := &LongHopMap[K, V]{
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

func (m *LongHopMap[K, V]) allocate() {
	capacity := m.sizingPolicy.Size(m.sizeIndex)
	m.capacity = capacity
	// one extra always-occupied sentinel slot past the addressable
	// range; it never holds data, and findEmptySlot and Range bound
	// their scans by m.capacity so they never step onto it.
	m.metas = make([]longMeta, capacity+1)
	m.elems = make([]kv[K, V], capacity+1)
	m.metas[capacity].setHash(0)
	m.size = 0
	m.ml = int(m.maxLoadFactor * float32(capacity))
}

// positionFor rotates the hash before extracting a position so the
// bits used to pick a home bucket don't overlap the low bits used as
// the stored fingerprint, matching the source's boost::core::rotl(hash,4).
func (m *LongHopMap[K, V]) positionFor(hash uint64) uint64 {
	return m.sizingPolicy.Position(bits.RotateLeft64(hash, 4), m.sizeIndex)
}

func (m *LongHopMap[K, V]) plusWrap(n, d uint64) uint64 {
	r := n + d
	if r >= m.capacity {
		r -= m.capacity
	}
	return r
}

func (m *LongHopMap[K, V]) minusWrap(n, d uint64) uint64 {
	r := n - d
	if d > n {
		r += m.capacity
	}
	return r
}

// Len returns the number of elements currently stored.
func (m *LongHopMap[K, V]) Len() int { return m.size }

func (m *LongHopMap[K, V]) find(key K, pos, hash uint64) (uint64, bool) {
	n := m.metas[pos].first()
	p := m.minusWrap(pos, 1)
	for n != 0 {
		p = m.plusWrap(p, uint64(n))
		if m.metas[p].match(hash) && m.elems[p].key == key {
			return p, true
		}
		n = m.metas[p].next()
	}
	return 0, false
}

// Get reports the value associated with key, if any.
func (m *LongHopMap[K, V]) Get(key K) (V, bool) {
	hash := m.hashFunc(key)
	pos := m.positionFor(hash)
	if p, ok := m.find(key, pos, hash); ok {
		return m.elems[p].value, true
	}
	var zero V
	return zero, false
}

// Set inserts or updates the value associated with key.
func (m *LongHopMap[K, V]) Set(key K, value V) {
	hash := m.hashFunc(key)
	pos := m.positionFor(hash)
	if p, ok := m.find(key, pos, hash); ok {
		m.elems[p].value = value
		return
	}

	if m.size+1 > m.ml || !m.uncheckedInsert(key, value, pos, hash) {
		m.rehash(m.ml + 1)
		pos = m.positionFor(hash)
		if !m.uncheckedInsert(key, value, pos, hash) {
			m.rehash(m.size + int(m.capacity))
			pos = m.positionFor(hash)
			if !m.uncheckedInsert(key, value, pos, hash) {
				panic(ErrHopscotchFailed)
			}
		}
	}
}

func (m *LongHopMap[K, V]) lastInBucket(pos uint64) uint64 {
	n := m.metas[pos].first()
	pos = m.minusWrap(pos, 1)
	for n != 0 {
		pos = m.plusWrap(pos, uint64(n))
		n = m.metas[pos].next()
	}
	return pos
}

func (m *LongHopMap[K, V]) findEmptySlot(pos uint64) uint64 {
	for pos < m.capacity && m.metas[pos].occupied() {
		pos++
	}
	if pos < m.capacity {
		return pos
	}
	pos = 0
	for m.metas[pos].occupied() {
		pos++
	}
	return pos
}

// uncheckedInsert finds a chain slot for key, hopping occupied chain
// nodes closer to their own bucket when the natural free slot lands
// outside the bounded neighborhood of the chain's tail, then links
// the new element in as the new tail. Faithful port of the source's
// unchecked_insert, with its goto continue_ rewritten as a moved flag.
func (m *LongHopMap[K, V]) uncheckedInsert(key K, value V, pos, hash uint64) bool {
	prev := m.lastInBucket(pos)
	dst := m.findEmptySlot(m.plusWrap(prev, 1))

	for {
		n := m.minusWrap(dst, prev)
		if n < neighborhood {
			m.elems[dst] = kv[K, V]{key: key, value: value}
			m.metas[dst].setHash(hash)
			if prev == m.minusWrap(pos, 1) {
				oldFirst := m.metas[pos].first()
				if oldFirst != 0 {
					m.metas[dst].setNext(oldFirst - uint8(n))
				} else {
					m.metas[dst].setNext(0)
				}
				m.metas[pos].setFirst(uint8(n))
			} else {
				oldNext := m.metas[prev].next()
				if oldNext != 0 {
					m.metas[dst].setNext(oldNext - uint8(n))
				} else {
					m.metas[dst].setNext(0)
				}
				m.metas[prev].setNext(uint8(n))
			}
			m.size++
			return true
		}

		moved := false
		for i := neighborhood - 1; i >= 1; i-- {
			mid := m.minusWrap(dst, uint64(i))

			if j := int(m.metas[mid].first()); i < neighborhood-1 && j != 0 && j-1 < i {
				hop := m.plusWrap(mid, uint64(j-1))
				k := int(m.metas[hop].next())
				if k == 0 || j-1+k > i {
					m.elems[dst] = m.elems[hop]
					m.metas[dst].setHashField(m.metas[hop].hashField())
					if k != 0 {
						m.metas[dst].setNext(uint8(j - 1 + k - i))
					} else {
						m.metas[dst].setNext(0)
					}
					m.metas[hop].reset()
					m.metas[mid].setFirst(uint8(i + 1))
					dst = hop
					moved = true
					break
				}
			}

			if j := int(m.metas[mid].next()); j != 0 && j < i {
				hop := m.plusWrap(mid, uint64(j))
				k := int(m.metas[hop].next())
				if k == 0 || j+k > i {
					m.elems[dst] = m.elems[hop]
					m.metas[dst].setHashField(m.metas[hop].hashField())
					if k != 0 {
						m.metas[dst].setNext(uint8(j + k - i))
					} else {
						m.metas[dst].setNext(0)
					}
					m.metas[hop].reset()
					m.metas[mid].setNext(uint8(i))
					dst = hop
					moved = true
					break
				}
			}
		}
		if !moved {
			m.numHopscotchBlocks++
			return false
		}
		m.numHops++
	}
}

// Delete removes key if present, reporting whether it was found.
func (m *LongHopMap[K, V]) Delete(key K) bool {
	hash := m.hashFunc(key)
	pos := m.positionFor(hash)

	n := m.metas[pos].first()
	p := m.minusWrap(pos, 1)
	prev := p
	found := false
	for n != 0 {
		p = m.plusWrap(p, uint64(n))
		if m.metas[p].match(hash) && m.elems[p].key == key {
			found = true
			break
		}
		n = m.metas[p].next()
		prev = p
	}
	if !found {
		return false
	}

	if prev == m.minusWrap(pos, 1) {
		m.eraseFirst(pos)
	} else {
		m.eraseNext(prev)
	}
	return true
}

func (m *LongHopMap[K, V]) eraseFirst(pos uint64) {
	pos0 := pos
	prev0 := m.minusWrap(pos, 1)
	pos = m.plusWrap(pos, uint64(m.metas[pos].first())-1)
	prev := m.moveToEndOfBucketAndErase(prev0, pos)
	if prev == prev0 {
		m.metas[pos0].setFirst(0)
	} else {
		m.metas[prev].setNext(0)
	}
}

func (m *LongHopMap[K, V]) eraseNext(prev uint64) {
	pos := m.plusWrap(prev, uint64(m.metas[prev].next()))
	prev = m.moveToEndOfBucketAndErase(prev, pos)
	m.metas[prev].setNext(0)
}

// moveToEndOfBucketAndErase slides the tail of a chain back by one
// link (swapping both value and fingerprint) until pos is the actual
// tail node, then clears it, so the erased logical element is always
// the physically last node in its chain.
func (m *LongHopMap[K, V]) moveToEndOfBucketAndErase(prev, pos uint64) uint64 {
	for m.metas[pos].next() != 0 {
		next := m.plusWrap(pos, uint64(m.metas[pos].next()))
		m.elems[pos], m.elems[next] = m.elems[next], m.elems[pos]
		hf := m.metas[pos].hashField()
		m.metas[pos].setHashField(m.metas[next].hashField())
		m.metas[next].setHashField(hf)
		prev = pos
		pos = next
	}
	var zero kv[K, V]
	m.elems[pos] = zero
	m.metas[pos].reset()
	m.size--
	return prev
}

// rehash grows the table to accommodate at least newSize elements and
// reinserts every live element. Unlike the source's transfer_bucket
// recursion (which moves chain nodes in place to preserve their
// physical layout), this collects live elements by a flat occupancy
// scan and reinserts them into a fresh table — simpler, and
// equivalent because every occupied slot holds exactly one live
// element regardless of its role in a chain.
func (m *LongHopMap[K, V]) rehash(newSize int) {
	target := uint64(float64(newSize)/float64(m.maxLoadFactor)) + 1
	newSizeIndex := m.sizingPolicy.SizeIndex(target)
	if newSizeIndex <= m.sizeIndex {
		newSizeIndex = m.sizeIndex + 1
	}

	oldMetas, oldElems, oldCapacity := m.metas, m.elems, m.capacity
	m.sizeIndex = newSizeIndex
	m.allocate()

	for pos := uint64(0); pos < oldCapacity; pos++ {
		if oldMetas[pos].occupied() {
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
func (m *LongHopMap[K, V]) Range(f func(key K, value V) bool) {
	for pos := uint64(0); pos < m.capacity; pos++ {
		if m.metas[pos].occupied() {
			e := m.elems[pos]
			if !f(e.key, e.value) {
				return
			}
		}
	}
}
