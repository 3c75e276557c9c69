package sketchtraits

// Cached wraps a CardinalitySketch and keeps the most recently computed
// cardinality alongside it, so that Cardinality is a field read even when
// the inner sketch's estimate is expensive to compute. The cache is
// refreshed on every Insert and Merge; sketches that scan many counters
// looking for a minimum (sss, ssss) depend on this.
type Cached[T comparable] struct {
	sketch      CardinalitySketch[T]
	cardinality uint64
}

// NewCached wraps sketch in a Cached view.
func NewCached[T comparable](sketch CardinalitySketch[T]) *Cached[T] {
	return &Cached[T]{sketch: sketch}
}

var _ CardinalitySketch[int] = (*Cached[int])(nil)

// Insert adds item to the inner sketch and refreshes the cache.
func (c *Cached[T]) Insert(item T) {
	c.sketch.Insert(item)
	c.cardinality = c.sketch.Cardinality()
}

// Merge folds other into the inner sketch and refreshes the cache. Another
// Cached value merges by its inner sketch, so two wrapped sketches of the
// same underlying type remain mergeable.
func (c *Cached[T]) Merge(other CardinalitySketch[T]) error {
	if oc, ok := other.(*Cached[T]); ok {
		other = oc.sketch
	}
	if err := c.sketch.Merge(other); err != nil {
		return err
	}
	c.cardinality = c.sketch.Cardinality()
	return nil
}

// Clear resets the inner sketch and the cache.
func (c *Cached[T]) Clear() {
	c.sketch.Clear()
	c.cardinality = 0
}

// Cardinality returns the cached estimate.
func (c *Cached[T]) Cardinality() uint64 {
	return c.cardinality
}
