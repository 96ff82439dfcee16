package parworker

import (
	"errors"
	"fmt"
)

// ErrClosed is returned when work is submitted to a scheduler that no longer
// accepts new tasks.
var ErrClosed = errors.New("parworker: scheduler closed")

// A Range is a half-open interval [Low, High) of indices into some externally
// owned sequence, with 0 <= Low <= High.
type Range struct {
	Low, High int
}

// NewRange returns the range [low, high).
//
// NewRange panics if low < 0 or high < low.
func NewRange(low, high int) Range {
	r := Range{low, high}
	if !r.Valid() {
		panic(fmt.Sprintf("invalid range: %v:%v", low, high))
	}
	return r
}

// Valid reports whether 0 <= r.Low <= r.High.
func (r Range) Valid() bool {
	return (r.Low >= 0) && (r.Low <= r.High)
}

// Len returns the number of indices in r.
func (r Range) Len() int {
	return r.High - r.Low
}

// Empty reports whether r contains no indices.
func (r Range) Empty() bool {
	return r.Low >= r.High
}

func (r Range) String() string {
	return fmt.Sprintf("[%v:%v)", r.Low, r.High)
}

type (
	// A Worker processes a subrange [low, high) of a larger range.
	//
	// Work may be invoked any number of times, from any goroutine, on
	// disjoint subranges, with no guaranteed order between invocations on
	// different subranges. It must accept an empty subrange (low == high)
	// as a no-op. Keeping side effects of different subranges disjoint is
	// the responsibility of the implementation.
	Worker interface {
		Work(low, high int) error
	}

	// A WorkerFunc is a function that can be used as a Worker.
	WorkerFunc func(low, high int) error

	// A ReduceWorker is a Worker that accumulates a partial result and can
	// take part in a parallel reduction.
	//
	// Split returns a new, independent instance with an empty accumulator
	// that will process a disjoint subrange concurrently with its source.
	// Split may be called while the source is running Work, so it must
	// only read state that Work does not modify.
	//
	// Join merges the result of a finished instance rhs, previously
	// obtained by Split from the receiver or from one of its descendants,
	// into the receiver. Every Split is matched by exactly one Join.
	//
	// W is the concrete type of the worker, typically a pointer type, so
	// that a type *T implements ReduceWorker[*T].
	ReduceWorker[W any] interface {
		Worker
		Split() W
		Join(rhs W)
	}
)

// Work calls f(low, high).
func (f WorkerFunc) Work(low, high int) error {
	return f(low, high)
}
