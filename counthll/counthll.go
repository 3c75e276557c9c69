package counthll

import (
	"math"
	"math/bits"

	"github.com/fernwood-labs/dhh/hashutil"
	"github.com/fernwood-labs/dhh/sketchtraits"
)

// maxLevel bounds the register value domain used when building histograms
// for the maximum-likelihood estimator; levels cannot exceed 64 since they
// are derived from 64-bit hashes.
const maxLevel = 64

// PointwiseSketch is the shared depth x width register matrix underlying
// Count-HLL and its invertible overlays. Registers are laid out
// column-major (index = r + b*depth) so that all depth rows for a given
// column sit contiguously.
type PointwiseSketch[L comparable, T comparable] struct {
	config    *Config
	rowHasher hashutil.Builder // selects a row from (item, label)
	colHasher hashutil.Builder // selects a column from (row, label)
	zHasher   hashutil.Builder // draws the register level from (item, label)
	registers []uint8
}

// New constructs an empty PointwiseSketch from config.
func New[L comparable, T comparable](config *Config) *PointwiseSketch[L, T] {
	return &PointwiseSketch[L, T]{
		config:    config,
		rowHasher: hashutil.NewBuilder(config.Seeds[0], config.Seeds[1]),
		zHasher:   hashutil.NewBuilder(config.Seeds[2], config.Seeds[3]),
		colHasher: hashutil.NewBuilder(config.Seeds[4], config.Seeds[5]),
		registers: make([]uint8, config.Depth*config.Width),
	}
}

// row returns the row a (label, item) pair is assigned to. Hashing the pair
// rather than the item alone decorrelates which row different labels use
// for the same item value, so items shared across labels (e.g. nested
// ranges like 0..10*l) still smear across distinct rows instead of forcing
// every label onto the same row for their common items.
func (s *PointwiseSketch[L, T]) row(label L, item T) int {
	return int(hashutil.HashPair(s.rowHasher, item, label)) & (s.config.Depth - 1)
	// Depth is a power of two, so masking with Depth-1 is equivalent to %.
}

// column returns the column a label occupies within a given row.
func (s *PointwiseSketch[L, T]) column(row int, label L) int {
	h := hashutil.HashPair(s.colHasher, row, label)
	return int(h % uint64(s.config.Width))
}

// index returns the flat register index for (row, column).
func (s *PointwiseSketch[L, T]) index(row, col int) int {
	return row + (col << s.config.DepthLog2)
}

// level draws the register level contributed by a single (label, item)
// observation: one plus the number of trailing zero bits of a seeded hash
// of the pair, the same geometric draw HyperLogLog uses per insert. An
// all-zero hash would yield 65, past the histogram domain the estimators
// read, so the draw is clamped to maxLevel.
func (s *PointwiseSketch[L, T]) level(label L, item T) uint8 {
	h := hashutil.HashPair(s.zHasher, item, label)
	z := bits.TrailingZeros64(h) + 1
	if z > maxLevel {
		z = maxLevel
	}
	return uint8(z)
}

// Insert records that item belongs to the set associated with label.
func (s *PointwiseSketch[L, T]) Insert(label L, item T) {
	r := s.row(label, item)
	c := s.column(r, label)
	idx := s.index(r, c)
	z := s.level(label, item)
	if s.registers[idx] < z {
		s.registers[idx] = z
	}
}

// Merge takes the pointwise maximum of two sketches' registers. Unlike HLL,
// there is no derived cache to recompute: every register is independently
// correct after a pointwise max.
func (s *PointwiseSketch[L, T]) Merge(other *PointwiseSketch[L, T]) error {
	if !s.config.Equal(other.config) {
		return sketchtraits.ErrConfigMismatch
	}
	for i := range s.registers {
		if other.registers[i] > s.registers[i] {
			s.registers[i] = other.registers[i]
		}
	}
	return nil
}

// Clear resets every register to zero.
func (s *PointwiseSketch[L, T]) Clear() {
	for i := range s.registers {
		s.registers[i] = 0
	}
}

// labelRegisters returns the depth register values a label occupies, one
// per row, in row order.
func (s *PointwiseSketch[L, T]) labelRegisters(label L) []uint8 {
	out := make([]uint8, s.config.Depth)
	for r := 0; r < s.config.Depth; r++ {
		c := s.column(r, label)
		out[r] = s.registers[s.index(r, c)]
	}
	return out
}

// rowNeighborRegisters returns the register values of every column in row r
// other than col, used to build the background noise model for a label.
func (s *PointwiseSketch[L, T]) rowNeighborRegisters(r, col int) []uint8 {
	out := make([]uint8, 0, s.config.Width-1)
	for c := 0; c < s.config.Width; c++ {
		if c == col {
			continue
		}
		out = append(out, s.registers[s.index(r, c)])
	}
	return out
}

// signal builds the empirical distribution of the depth register values a
// label occupies.
func (s *PointwiseSketch[L, T]) signal(label L) *Distribution {
	counts := make([]float64, maxLevel+1)
	for _, v := range s.labelRegisters(label) {
		counts[v]++
	}
	return NewFromCounts(counts)
}

// background builds the empirical distribution of the registers a label's
// rows share with other labels, used to discount collision noise in the
// maximum-likelihood estimator.
func (s *PointwiseSketch[L, T]) background(label L) *Distribution {
	counts := make([]float64, maxLevel+1)
	for r := 0; r < s.config.Depth; r++ {
		c := s.column(r, label)
		for _, v := range s.rowNeighborRegisters(r, c) {
			counts[v]++
		}
	}
	return NewFromCounts(counts)
}

// Cardinality estimates the cardinality of the set associated with label,
// dispatching to the configured EstimationMethod.
func (s *PointwiseSketch[L, T]) Cardinality(label L) uint64 {
	switch s.config.Method {
	case Original:
		return s.cardinalityOriginal(label)
	default:
		return s.cardinalityMLE(label)
	}
}

// cardinalityOriginal applies the alpha-based HyperLogLog estimator to the
// depth registers a label occupies, treating them as an ordinary HLL
// register array of size Depth and ignoring cross-label interference.
func (s *PointwiseSketch[L, T]) cardinalityOriginal(label L) uint64 {
	regs := s.labelRegisters(label)
	d := float64(s.config.Depth)

	var zInv float64
	numZero := 0
	for _, v := range regs {
		zInv += pow2(-int(v))
		if v == 0 {
			numZero++
		}
	}

	estimate := d * d * alpha(s.config.Depth) / zInv
	if estimate <= 5*d/2 && numZero > 0 {
		estimate = d * math.Log(d/float64(numZero))
	}
	return uint64(estimate)
}
