package hll

import (
	"math"
	"math/bits"

	"github.com/fernwood-labs/dhh/hashutil"
	"github.com/fernwood-labs/dhh/sketchtraits"
)

// HLL is a HyperLogLog cardinality sketch over items of type T.
//
// It maintains, alongside the register array, a running count of zero
// registers and a running sum of 2^-register (zInv) so that Cardinality is
// O(1) after every Insert. Merge cannot update these caches incrementally
// (the pointwise max over two registers is not expressible as a function of
// the two caches alone) and instead recomputes both from scratch.
type HLL[T comparable] struct {
	config           *Config
	indexHasher      hashutil.Builder // selects the register index
	levelHasher      hashutil.Builder // draws the leading-zero level
	registers        []uint8
	numZeroRegisters int
	zInv             float64
}

// New constructs an empty HLL sketch from config.
func New[T comparable](config *Config) *HLL[T] {
	return &HLL[T]{
		config:           config,
		indexHasher:      hashutil.NewBuilder(config.Seeds[0], config.Seeds[1]),
		levelHasher:      hashutil.NewBuilder(config.Seeds[2], config.Seeds[3]),
		registers:        make([]uint8, config.NumRegisters),
		numZeroRegisters: config.NumRegisters,
		zInv:             float64(config.NumRegisters),
	}
}

var _ sketchtraits.CardinalitySketch[int] = (*HLL[int])(nil)

// Insert adds item to the sketch.
func (h *HLL[T]) Insert(item T) {
	idx := hashutil.HashOne(h.indexHasher, item) & uint64(h.config.NumRegisters-1)
	level := uint8(bits.LeadingZeros64(hashutil.HashOne(h.levelHasher, item))) + 1
	h.insertAt(idx, level)
}

func (h *HLL[T]) insertAt(idx uint64, level uint8) {
	if h.registers[idx] < level {
		if h.registers[idx] == 0 {
			h.numZeroRegisters--
		}
		h.zInv -= math.Pow(2.0, -float64(h.registers[idx]))
		h.zInv += math.Pow(2.0, -float64(level))
		h.registers[idx] = level
	}
}

// Merge folds other into h. Both sketches must share an equal Config.
func (h *HLL[T]) Merge(other sketchtraits.CardinalitySketch[T]) error {
	o, ok := other.(*HLL[T])
	if !ok {
		return sketchtraits.ErrIncompatibleType
	}
	if !h.config.Equal(o.config) {
		return sketchtraits.ErrConfigMismatch
	}

	h.numZeroRegisters = 0
	h.zInv = 0

	for i := range h.registers {
		if o.registers[i] > h.registers[i] {
			h.registers[i] = o.registers[i]
		}
		if h.registers[i] == 0 {
			h.numZeroRegisters++
		}
		h.zInv += math.Pow(2.0, -float64(h.registers[i]))
	}

	return nil
}

// Clear resets the sketch to its newly-constructed state.
func (h *HLL[T]) Clear() {
	for i := range h.registers {
		h.registers[i] = 0
	}
	h.numZeroRegisters = h.config.NumRegisters
	h.zInv = float64(h.config.NumRegisters)
}

// Cardinality returns the estimated number of distinct items inserted.
func (h *HLL[T]) Cardinality() uint64 {
	m := float64(h.config.NumRegisters)
	estimate := m * m * h.config.Alpha / h.zInv

	if estimate <= 5*m/2 && h.numZeroRegisters > 0 {
		estimate = h.linearCounting()
	}

	return uint64(estimate)
}

// linearCounting applies small-range bias correction, used whenever the raw
// estimate falls in a range where zero registers still carry signal.
func (h *HLL[T]) linearCounting() float64 {
	m := float64(h.config.NumRegisters)
	return math.Round(m * math.Log(m/float64(h.numZeroRegisters)))
}
