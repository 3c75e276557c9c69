// Package loader provides the dataset sources that feed (label, item)
// pairs into the sketches in this module: a gzip-transparent CSV file
// reader for recorded traffic, and synthetic Uniform/Poisson/Zipf
// generators for benchmarking, matching the dataset loaders and generators
// of original_source/benchmarks/src/data.rs and data/synth.rs.
package loader

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Pair is a single (label, item) observation read from a dataset.
type Pair struct {
	Label string
	Item  string
}

// Source produces a stream of Pairs. Next returns io.EOF once the source is
// exhausted. ctx is checked on every call so a caller streaming a large
// file can cancel the read loop without the source needing its own
// goroutine.
type Source interface {
	Next(ctx context.Context) (Pair, error)
}

// GzipCSVSource reads (label, item) pairs from a two-column CSV file,
// transparently gzip-decompressing when the file begins with a gzip magic
// header. This lets the same loader handle both compressed archives and
// plain CSV fixtures used in tests without a separate flag.
type GzipCSVSource struct {
	file   *os.File
	gzr    *gzip.Reader
	reader *csv.Reader
}

// OpenGzipCSV opens the CSV (optionally gzip-compressed) file at path.
func OpenGzipCSV(path string) (*GzipCSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "loader: opening %s", path)
	}

	br := bufio.NewReader(f)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		f.Close()
		return nil, errors.Wrapf(err, "loader: sniffing %s", path)
	}

	var body io.Reader = br
	var gzr *gzip.Reader
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gzr, err = gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "loader: opening gzip stream in %s", path)
		}
		body = gzr
	}

	reader := csv.NewReader(body)
	reader.FieldsPerRecord = 2

	return &GzipCSVSource{file: f, gzr: gzr, reader: reader}, nil
}

// Next returns the next (label, item) record, or io.EOF at end of file.
func (s *GzipCSVSource) Next(ctx context.Context) (Pair, error) {
	if err := ctx.Err(); err != nil {
		return Pair{}, err
	}

	record, err := s.reader.Read()
	if err != nil {
		if err == io.EOF {
			return Pair{}, io.EOF
		}
		return Pair{}, errors.Wrap(err, "loader: reading CSV record")
	}

	return Pair{Label: record[0], Item: record[1]}, nil
}

// Close releases the underlying file and, if present, the gzip stream
// wrapping it.
func (s *GzipCSVSource) Close() error {
	if s.gzr != nil {
		_ = s.gzr.Close()
	}
	return s.file.Close()
}

// Synthetic generates a fixed number of (label, item) pairs from a
// parameterized label distribution, assigning each label's items
// sequentially so repeated draws of the same label never collide and the
// true per-label cardinality equals the number of times it was drawn.
type Synthetic struct {
	remaining int
	nextItem  map[string]int
	draw      func() string
}

func newSynthetic(n int, draw func() string) *Synthetic {
	return &Synthetic{remaining: n, nextItem: make(map[string]int), draw: draw}
}

// Next returns the next synthetic pair, or io.EOF once n pairs (the count
// given at construction) have been produced.
func (s *Synthetic) Next(ctx context.Context) (Pair, error) {
	if err := ctx.Err(); err != nil {
		return Pair{}, err
	}
	if s.remaining <= 0 {
		return Pair{}, io.EOF
	}
	s.remaining--

	label := s.draw()
	item := s.nextItem[label]
	s.nextItem[label] = item + 1

	return Pair{Label: label, Item: fmt.Sprintf("item-%d", item)}, nil
}

// Uniform returns a Synthetic source of n pairs whose label is drawn
// uniformly from numLabels label names.
func Uniform(n, numLabels int, rng *rand.Rand) *Synthetic {
	if numLabels <= 0 {
		numLabels = 1
	}
	return newSynthetic(n, func() string {
		return fmt.Sprintf("label-%d", rng.Intn(numLabels))
	})
}

// Poisson returns a Synthetic source of n pairs whose label is drawn from a
// Poisson(mean) distribution and clamped into [0, numLabels), so a handful
// of low-numbered labels receive most of the stream's items - the skew this
// module's heavy-hitter sketches are built to track. The seed is taken
// directly rather than a rand.Source because gonum's distributions draw
// from golang.org/x/exp/rand, not math/rand.
func Poisson(n, numLabels int, mean float64, seed uint64) *Synthetic {
	if numLabels <= 0 {
		numLabels = 1
	}
	dist := distuv.Poisson{Lambda: mean, Src: exprand.NewSource(seed)}
	return newSynthetic(n, func() string {
		label := int(dist.Rand())
		if label >= numLabels {
			label = numLabels - 1
		}
		if label < 0 {
			label = 0
		}
		return fmt.Sprintf("label-%d", label)
	})
}

// Zipf returns a Synthetic source of n pairs whose label follows a Zipf
// distribution with parameters s and v over numLabels labels, the standard
// heavy-tailed model for real traffic where a small number of labels
// dominate the stream.
func Zipf(n, numLabels int, s, v float64, rng *rand.Rand) *Synthetic {
	if numLabels <= 0 {
		numLabels = 1
	}
	z := rand.NewZipf(rng, s, v, uint64(numLabels-1))
	return newSynthetic(n, func() string {
		return fmt.Sprintf("label-%d", z.Uint64())
	})
}

// Overlap composites two sources by exhausting first, then second, the
// shape of the original benchmark harness's Overlap dataset for
// stress-testing Merge. Pairs pass through unchanged: whether items under a
// shared label are disjoint depends on the two sources (two Synthetic
// sources both number a label's items from item-0, so theirs coincide).
type Overlap struct {
	first, second Source
	firstDone     bool
}

// NewOverlap constructs an Overlap source over first and second.
func NewOverlap(first, second Source) *Overlap {
	return &Overlap{first: first, second: second}
}

// Next returns the next pair from first until it is exhausted, then from
// second.
func (o *Overlap) Next(ctx context.Context) (Pair, error) {
	if !o.firstDone {
		p, err := o.first.Next(ctx)
		if err == nil {
			return p, nil
		}
		if err != io.EOF {
			return Pair{}, err
		}
		o.firstDone = true
	}
	return o.second.Next(ctx)
}

// Drain reads every remaining pair from src and calls insert for each,
// stopping at the first error other than io.EOF or at ctx's cancellation.
// It is the shared loop used by the demo CLI and by tests exercising a
// loader source against a real sketch.
func Drain(ctx context.Context, src Source, insert func(label, item string)) error {
	for {
		pair, err := src.Next(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		insert(pair.Label, pair.Item)
	}
}
