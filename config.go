package rchash

import (
	"github.com/dkeryan/rchash/internal/group"
	"github.com/dkeryan/rchash/internal/hashsplit"
	"github.com/dkeryan/rchash/internal/probe"
	"github.com/dkeryan/rchash/internal/sizing"
)

// proberFactory builds a fresh probe.Sequence starting at pos. Kept
// as a factory rather than a single Sequence value since each lookup
// or insertion needs its own probe state.
type proberFactory func(pos uint64) probe.Sequence

// config collects every policy axis (spec DESIGN NOTES: "swap any
// single policy axis without touching the engine"). New builds one
// from the defaults plus any Option, then freezes it into the Map.
type config[K comparable, V any] struct {
	layout        group.Layout
	sizingPolicy  sizing.Policy
	newProber     proberFactory
	splitter      hashsplit.Splitter
	hashFunc      func(K) uint64
	maxLoadFactor float32
}

// Option configures a Map at construction time. Resolves the
// teacher's own "TODO: probably use functional opts" note.
type Option[K comparable, V any] func(*config[K, V])

func defaultConfig[K comparable, V any]() config[K, V] {
	return config[K, V]{
		layout:        group.Layout16{},
		sizingPolicy:  sizing.Pow2{},
		newProber:     func(pos uint64) probe.Sequence { return probe.NewPow2(pos) },
		splitter:      hashsplit.Shift{K: 0},
		hashFunc:      defaultHash[K],
		maxLoadFactor: 0.875,
	}
}

// WithGroupWidth16 selects the 16-slot group layout with the "simple
// design" overflow indicator (the default).
func WithGroupWidth16[K comparable, V any]() Option[K, V] {
	return func(c *config[K, V]) { c.layout = group.Layout16{} }
}

// WithGroupWidth15 selects the 15-slot group layout, trading one data
// slot per group for a dedicated overflow-tracking byte.
func WithGroupWidth15[K comparable, V any]() Option[K, V] {
	return func(c *config[K, V]) { c.layout = group.NewLayout15() }
}

// WithGroupWidth15Classed selects the 15-slot layout with the
// fingerprint-classed overflow bitmap instead of a single whole-group
// flag, reducing false continuations at the cost of an extra byte of
// bookkeeping logic (same storage).
func WithGroupWidth15Classed[K comparable, V any]() Option[K, V] {
	return func(c *config[K, V]) { c.layout = group.NewLayout15Classed() }
}

// WithPow2Sizing selects power-of-two group counts with top-bit
// position extraction. Must be paired with a pow2 prober, which this
// option also installs.
func WithPow2Sizing[K comparable, V any]() Option[K, V] {
	return func(c *config[K, V]) {
		c.sizingPolicy = sizing.Pow2{}
		c.newProber = func(pos uint64) probe.Sequence { return probe.NewPow2(pos) }
	}
}

// WithLowPow2Sizing selects power-of-two group counts with low-bit
// position extraction, paired with a pow2 prober.
func WithLowPow2Sizing[K comparable, V any]() Option[K, V] {
	return func(c *config[K, V]) {
		c.sizingPolicy = sizing.LowPow2{}
		c.newProber = func(pos uint64) probe.Sequence { return probe.NewPow2(pos) }
	}
}

// WithPow2FibSizing selects power-of-two group counts with a
// Fibonacci pre-mix, recommended when the hash function is weak.
func WithPow2FibSizing[K comparable, V any]() Option[K, V] {
	return func(c *config[K, V]) {
		c.sizingPolicy = sizing.Pow2Fib{}
		c.newProber = func(pos uint64) probe.Sequence { return probe.NewPow2(pos) }
	}
}

// WithPrimeSizing selects the modulo-prime capacity series, paired
// with the non-power-of-two prober.
func WithPrimeSizing[K comparable, V any]() Option[K, V] {
	return func(c *config[K, V]) {
		c.sizingPolicy = sizing.Prime{}
		c.newProber = func(pos uint64) probe.Sequence { return probe.NewNonPow2(pos) }
	}
}

// WithPrimeFastmodSizing selects the modulo-prime capacity series
// with Lemire fastmod position computation, paired with the
// non-power-of-two prober.
func WithPrimeFastmodSizing[K comparable, V any]() Option[K, V] {
	return func(c *config[K, V]) {
		c.sizingPolicy = sizing.PrimeFastmod{}
		c.newProber = func(pos uint64) probe.Sequence { return probe.NewNonPow2(pos) }
	}
}

// WithPrimeFastrangeSizing selects the modulo-prime capacity series
// with Lemire fastrange position computation (a multiply-high instead
// of a mod), paired with the non-power-of-two prober.
func WithPrimeFastrangeSizing[K comparable, V any]() Option[K, V] {
	return func(c *config[K, V]) {
		c.sizingPolicy = sizing.PrimeFastrange{}
		c.newProber = func(pos uint64) probe.Sequence { return probe.NewNonPow2(pos) }
	}
}

// WithPrimeFastrangeFibSizing selects the modulo-prime capacity series
// with fastrange position computation and a Fibonacci pre-mix of the
// long hash, paired with the non-power-of-two prober.
func WithPrimeFastrangeFibSizing[K comparable, V any]() Option[K, V] {
	return func(c *config[K, V]) {
		c.sizingPolicy = sizing.PrimeFastrangeFib{}
		c.newProber = func(pos uint64) probe.Sequence { return probe.NewNonPow2(pos) }
	}
}

// WithHashSplit overrides the policy splitting a raw hash into a long
// hash (fed to the sizing policy) and a short hash (the group
// fingerprint). Defaults to a plain shift-by-0.
func WithHashSplit[K comparable, V any](s hashsplit.Splitter) Option[K, V] {
	return func(c *config[K, V]) { c.splitter = s }
}

// WithHashFunc overrides the hash function applied to keys. Defaults
// to defaultHash, which hashes strings and the common integer kinds
// with runtime.memhash and any other key type through hash/maphash
// over a reflection-based encoding; callers with a performance-critical
// key type outside those fast paths should supply one grounded on the
// key's memory layout.
func WithHashFunc[K comparable, V any](f func(K) uint64) Option[K, V] {
	return func(c *config[K, V]) { c.hashFunc = f }
}

// WithMaxLoadFactor overrides the fraction of the table's slots
// (group count times group width, less the sentinel) that may be
// filled before a rehash is triggered. Defaults to 0.875.
func WithMaxLoadFactor[K comparable, V any](f float32) Option[K, V] {
	return func(c *config[K, V]) { c.maxLoadFactor = f }
}
