// Package coalesced implements VICH (Varied Insertion Coalesced
// Hashing): a closed-addressing hybrid where each hash bucket
// ("address" slot) is also a node that can chain into a reserved
// overflow region (the "cellar") on collision, instead of probing
// other address slots the way open addressing does. Grounded on
// original_source/foa_unordered_coalesced.hpp.
package coalesced

import (
	"github.com/dkeryan/rchash/internal/sizing"
)

// NodeKind selects how a node tests a candidate key for equality.
// Grounded on the source's simple_coalesced_set_nodes (plain key
// comparison) vs. hcached_coalesced_set_nodes (a cached hash checked
// before the key comparison, trading one extra stored word per node
// for fewer comparisons under heavy chains).
type NodeKind int

const (
	// Simple compares keys directly on every chain step.
	Simple NodeKind = iota
	// HCached checks a per-node cached hash before comparing keys.
	HCached
)

// addressFactor is the fraction of the backing array reserved as
// directly hash-addressed slots; the remainder is the cellar, a
// shared overflow region every address slot may chain into. Grounded
// on coalesced_set_node_array::address_factor.
const addressFactor = 0.86

type node[K comparable, V any] struct {
	key      K
	value    V
	hash     uint64
	occupied bool
	head     bool
	next     int32 // -1 == no next; index into Map.nodes otherwise
}

func (n *node[K, V]) isFree() bool { return !n.occupied && !n.head }

// Map is a VICH coalesced hash table keyed by any comparable type.
// The zero value is not usable; construct with New.
type Map[K comparable, V any] struct {
	nodes       []node[K, V]
	addressSize int
	free        int32 // head of the cellar free list, -1 if empty

	kind          NodeKind
	sizingPolicy  sizing.Policy
	hashFunc      func(K) uint64
	maxLoadFactor float32

	sizeIndex int
	size      int
	maxLoad   int
}

// Option configures a Map at construction time.
type Option[K comparable, V any] func(*Map[K, V])

// WithNodeKind selects Simple (default) or HCached nodes.
func WithNodeKind[K comparable, V any](k NodeKind) Option[K, V] {
	return func(m *Map[K, V]) { m.kind = k }
}

// WithHashFunc overrides the hash function applied to keys.
func WithHashFunc[K comparable, V any](f func(K) uint64) Option[K, V] {
	return func(m *Map[K, V]) { m.hashFunc = f }
}

// WithMaxLoadFactor overrides the fraction of the address region that
// may be filled before a rehash is triggered. Defaults to 1.0,
// matching the source's own mlf.
func WithMaxLoadFactor[K comparable, V any](f float32) Option[K, V] {
	return func(m *Map[K, V]) { m.maxLoadFactor = f }
}

// New constructs an empty Map sized to hold at least capacity
// elements without a rehash.
func New[K comparable, V any](capacity int, opts ...Option[K, V]) *Map[K, V] {
	m := &Map[K, V]{
		sizingPolicy:  sizing.Prime{},
		hashFunc:      defaultHash[K],
		maxLoadFactor: 1.0,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.sizeIndex = m.sizingPolicy.SizeIndex(uint64(capacity))
	m.allocate()
	return m
}

func (m *Map[K, V]) allocate() {
	addressSize := int(m.sizingPolicy.Size(m.sizeIndex))
	total := int(float64(addressSize)/addressFactor) + 1

	m.addressSize = addressSize
	m.nodes = make([]node[K, V], total)
	for i := range m.nodes {
		m.nodes[i].next = -1
	}
	m.free = -1
	m.size = 0
	m.maxLoad = int(m.maxLoadFactor * float32(addressSize))
}

func (m *Map[K, V]) position(hash uint64) int {
	return int(m.sizingPolicy.Position(hash, m.sizeIndex))
}

func (m *Map[K, V]) keyMatches(key K, hash uint64, idx int32) bool {
	n := &m.nodes[idx]
	if !n.occupied {
		return false
	}
	if m.kind == HCached && n.hash != hash {
		return false
	}
	return n.key == key
}

// Len returns the number of elements currently stored.
func (m *Map[K, V]) Len() int { return m.size }

// Get reports the value associated with key, if any.
func (m *Map[K, V]) Get(key K) (V, bool) {
	hash := m.hashFunc(key)
	p := int32(m.position(hash))
	for {
		if m.keyMatches(key, hash, p) {
			return m.nodes[p].value, true
		}
		next := m.nodes[p].next
		if next == -1 {
			var zero V
			return zero, false
		}
		p = next
	}
}

// findSlot walks the chain rooted at head looking for key. found is
// -1 if absent. insertAfter is the last node in the cellar visited
// along the way (the VICH insertion point for a brand-new overflow
// node), or head if the chain never entered the cellar. avail is the
// last encountered non-occupied node along the chain (most often
// head itself, on first use at this address), or -1.
func (m *Map[K, V]) findSlot(key K, hash uint64, head int32) (found, insertAfter, avail int32) {
	insertAfter = head
	avail = -1
	p := head
	for {
		if int(p) >= m.addressSize {
			insertAfter = p
		}
		n := &m.nodes[p]
		if !n.occupied {
			avail = p
		} else if m.kind != HCached || n.hash == hash {
			if n.key == key {
				return p, -1, -1
			}
		}
		if n.next == -1 {
			return -1, insertAfter, avail
		}
		p = n.next
	}
}

// Set inserts or updates the value associated with key.
func (m *Map[K, V]) Set(key K, value V) {
	hash := m.hashFunc(key)
	head := int32(m.position(hash))
	found, insertAfter, avail := m.findSlot(key, hash, head)
	if found != -1 {
		m.nodes[found].value = value
		return
	}

	if avail == -1 && m.size+1 > m.maxLoad {
		m.rehash(m.size + 1)
		head = int32(m.position(hash))
		insertAfter = head
		if !m.nodes[head].occupied {
			avail = head
		} else {
			avail = -1
		}
	}

	var target int32
	if avail != -1 {
		target = avail
		if m.nodes[target].isFree() {
			m.nodes[target].next = -1
		}
	} else {
		sizeIndex := m.sizeIndex
		target = m.newNode()
		if m.sizeIndex != sizeIndex {
			// newNode grew the table, so head and insertAfter no longer
			// describe key's chain; insert again into the new table.
			m.Set(key, value)
			return
		}
		m.nodes[target].next = m.nodes[insertAfter].next
		m.nodes[insertAfter].next = target
	}
	m.nodes[target].key = key
	m.nodes[target].value = value
	m.nodes[target].hash = hash
	m.nodes[target].occupied = true
	m.nodes[head].head = true
	m.size++
}

// newNode returns the index of a free cellar node, preferring the
// free list (released by Delete) and falling back to a linear scan
// from the end of the cellar, growing the table once more if the
// cellar is unexpectedly exhausted.
func (m *Map[K, V]) newNode() int32 {
	if m.free != -1 {
		idx := m.free
		m.free = m.nodes[idx].next
		return idx
	}
	for i := len(m.nodes) - 1; i >= m.addressSize; i-- {
		if m.nodes[i].isFree() {
			return int32(i)
		}
	}
	m.rehash(m.size + 1)
	return m.newNode()
}

// Delete removes key if present, reporting whether it was found.
func (m *Map[K, V]) Delete(key K) bool {
	hash := m.hashFunc(key)
	head := int32(m.position(hash))

	var prev int32 = -1
	p := head
	for {
		if m.keyMatches(key, hash, p) {
			break
		}
		if m.nodes[p].next == -1 {
			return false
		}
		prev = p
		p = m.nodes[p].next
	}

	if !m.nodes[p].head {
		if prev != -1 {
			m.nodes[prev].next = m.nodes[p].next
		}
		m.nodes[p] = node[K, V]{next: -1}
		if int(p) >= m.addressSize {
			m.nodes[p].next = m.free
			m.free = p
		}
	} else {
		m.nodes[p].occupied = false
		var zero V
		m.nodes[p].value = zero
	}
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

	old := m.nodes
	oldAddressSize := m.addressSize
	m.sizeIndex = newSizeIndex
	m.allocate()

	for i := 0; i < oldAddressSize; i++ {
		p := int32(i)
		for p != -1 {
			n := old[p]
			if n.occupied {
				m.Set(n.key, n.value)
			}
			p = n.next
		}
	}
}

// Range calls f for each key/value pair in the map, in unspecified
// order, stopping early if f returns false.
func (m *Map[K, V]) Range(f func(key K, value V) bool) {
	for i := range m.nodes {
		n := &m.nodes[i]
		if n.occupied {
			if !f(n.key, n.value) {
				return
			}
		}
	}
}
