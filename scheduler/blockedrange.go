package scheduler

import (
	"fmt"
)

// A BlockedRange is a half-open interval [Low, High) that the scheduler
// subdivides by recursive halving until the pieces are no larger than Grain.
type BlockedRange struct {
	Low, High, Grain int
}

// NewBlockedRange returns the range [low, high) with the given grain size. A
// grain size <= 0 lets the scheduler choose one, see AutoGrain.
//
// NewBlockedRange panics if low < 0 or high < low.
func NewBlockedRange(low, high, grain int) BlockedRange {
	if (low < 0) || (high < low) {
		panic(fmt.Sprintf("invalid range: %v:%v", low, high))
	}
	return BlockedRange{low, high, grain}
}

// Len returns the number of indices in r.
func (r BlockedRange) Len() int {
	return r.High - r.Low
}

// Divisible reports whether r is larger than its grain size.
func (r BlockedRange) Divisible() bool {
	return r.Len() > max(r.Grain, 1)
}

// Halve splits r into two halves of (almost) equal size. The left half is
// never larger than the right half.
func (r BlockedRange) Halve() (left, right BlockedRange) {
	mid := r.Low + r.Len()/2
	return BlockedRange{r.Low, mid, r.Grain}, BlockedRange{mid, r.High, r.Grain}
}

// Leaves returns the subranges that recursive halving of r produces, in
// ascending order. This is the subdivision ParallelFor and ParallelReduce
// use, independent of which workers end up executing the pieces.
func (r BlockedRange) Leaves() []BlockedRange {
	if !r.Divisible() {
		return []BlockedRange{r}
	}
	left, right := r.Halve()
	return append(left.Leaves(), right.Leaves()...)
}

// AutoGrain returns a grain size that divides a range of size n into about
// four pieces per worker, so that idle workers find something to steal when
// the work per index is irregular.
func AutoGrain(n, workers int) int {
	if workers < 1 {
		workers = 1
	}
	if n <= 0 {
		return 1
	}
	return ((n - 1) / (4 * workers)) + 1
}
