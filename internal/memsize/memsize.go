// Package memsize estimates the memory footprint of a configured sketch
// from its Config alone (cell counts times primitive sizes), the Go
// analogue of the original benchmark harness's MemorySize trait
// (original_source/benchmarks/src/memory.rs). Estimates are informational
// only - never correctness-bearing - and intentionally approximate: they
// count registers, seeds, and label-sized slots, not Go's actual struct
// padding or map bucket overhead.
package memsize

import (
	"github.com/fernwood-labs/dhh/counthll"
	"github.com/fernwood-labs/dhh/hll"
	"github.com/fernwood-labs/dhh/spread"
	"github.com/fernwood-labs/dhh/sss"
	"github.com/fernwood-labs/dhh/ssss"
)

const (
	byteSize    = 1
	uint64Size  = 8
	float64Size = 8

	// LabelSize is a fixed proxy for the size of a label, mirroring the
	// original harness's use of size_of::<u32>() as a stand-in for an
	// arbitrary label type: this package estimates memory from Config
	// alone, which carries no information about the concrete label type a
	// caller will instantiate a sketch with.
	LabelSize = 4
)

// HLL estimates the byte footprint of an hll.HLL built from cfg: one byte
// per register plus its cached inverse-sum and zero-count floats and its
// seed words.
func HLL(cfg *hll.Config) uint64 {
	registers := uint64(cfg.NumRegisters) * byteSize
	caches := uint64(2 * float64Size)
	seeds := uint64(len(cfg.Seeds)) * uint64Size
	return registers + caches + seeds
}

// CountHLLArray estimates the byte footprint of a counthll.LabelArrayCountHLL
// built from cfg: the shared register matrix plus one owner-label-and-level
// cell per register.
func CountHLLArray(cfg *counthll.Config) uint64 {
	registers := uint64(cfg.Depth*cfg.Width) * byteSize
	cells := uint64(cfg.Depth*cfg.Width) * (LabelSize + byteSize)
	seeds := uint64(len(cfg.Seeds)) * uint64Size
	return registers + cells + seeds
}

// CountHLLSet estimates the byte footprint of a counthll.LabelSetCountHLL
// built from cfg with numLabels distinct labels inserted: the shared
// register matrix plus one label-sized entry per distinct label seen.
func CountHLLSet(cfg *counthll.Config, numLabels int) uint64 {
	registers := uint64(cfg.Depth*cfg.Width) * byteSize
	labels := uint64(numLabels) * LabelSize
	seeds := uint64(len(cfg.Seeds)) * uint64Size
	return registers + labels + seeds
}

// Spread estimates the byte footprint of a spread.SpreadSketch built from
// cfg: one bucket per (row, column) pair, each holding an owner label, a
// level byte, and a per-bucket HLL sub-sketch.
func Spread(cfg *spread.Config) uint64 {
	bucketSize := LabelSize + byteSize + HLL(cfg.CardinalitySketchConfig)
	return bucketSize * uint64(cfg.NumRows*cfg.NumCols)
}

// sssCounterSize returns the per-counter footprint of an sss counter under
// the given reset strategy: Recycle carries no offset field, Offset banks
// one extra uint64.
func sssCounterSize(strategy sss.ResetStrategy, cardinalityCfg *hll.Config) uint64 {
	base := HLL(cardinalityCfg)
	switch strategy {
	case sss.Offset:
		return uint64Size + base
	default:
		return base
	}
}

// SSS estimates the byte footprint of a full sss.SpaceSavingSets built from
// cfg: MaxNumCounters entries, each a label plus a counter of the
// configured reset strategy's size.
func SSS(cfg *sss.Config) uint64 {
	entry := sssCounterSize(cfg.ResetStrategy, cfg.CardinalitySketchConfig) + LabelSize
	return entry * uint64(cfg.MaxNumCounters)
}

// SSSS estimates the byte footprint of a full ssss.SamplingSpaceSavingSets
// built from cfg: MaxNumCounters entries, each a label plus an HLL
// sub-sketch, plus the sketch's own seeds and threshold word.
func SSSS(cfg *ssss.Config) uint64 {
	entry := (LabelSize + HLL(cfg.CardinalitySketchConfig)) * uint64(cfg.MaxNumCounters)
	overhead := uint64(len(cfg.Seeds))*uint64Size + uint64Size
	return entry + overhead
}

// EntriesForMegabytes returns the largest MaxNumCounters an SSS/SSSS-shaped
// sketch can use while staying within a memory budget of megabytes MB,
// given the per-entry byte cost (from sssCounterSize-style accounting)
// supplied by the caller. It mirrors the original harness's MaxCapacity
// trait, used by benchmarks to compare algorithms at matched memory rather
// than matched counter counts.
func EntriesForMegabytes(megabytes float64, perEntryBytes uint64) int {
	if perEntryBytes == 0 {
		return 0
	}
	const bytesPerMegabyte = 1 << 20
	return int(megabytes * bytesPerMegabyte / float64(perEntryBytes))
}
