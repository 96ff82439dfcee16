// Package sequential provides sequential implementations of the functions
// provided by the parallel, threadpool, and workstealing packages. This is
// useful for testing and debugging.
//
// The range is divided exactly as package threadpool divides it, but the
// subranges are processed one after the other, in ascending order, on the
// calling goroutine.
package sequential

import (
	"github.com/exascience/parworker"
	"github.com/exascience/parworker/internal"
)

// For divides the range from low to high into one subrange per logical CPU
// and invokes w for each subrange in ascending order. See ForN.
func For(low, high int, w parworker.Worker) error {
	return ForN(low, high, internal.HardwareConcurrency(), w)
}

// ForN divides the range from low to high into n subranges and invokes
// w.Work for each of them in ascending order.
//
// ForN returns the left-most error value that is different from nil, after
// all subranges have been processed.
//
// ForN panics if low < 0 or high < low.
func ForN(low, high, n int, w parworker.Worker) (err error) {
	for _, r := range internal.SplitRange(low, high, n) {
		if nerr := w.Work(r.Low, r.High); err == nil {
			err = nerr
		}
	}
	return
}

// Reduce reduces the range from low to high with w, using one subrange per
// logical CPU. See ReduceN.
func Reduce[W parworker.ReduceWorker[W]](low, high int, w W) error {
	return ReduceN(low, high, internal.HardwareConcurrency(), w)
}

// ReduceN divides the range from low to high into n subranges, and for each
// of them in ascending order splits a new instance from w, invokes it, and
// joins it into w.
//
// ReduceN returns the left-most error value that is different from nil,
// after all subranges have been processed.
//
// ReduceN panics if low < 0 or high < low.
func ReduceN[W parworker.ReduceWorker[W]](low, high, n int, w W) (err error) {
	for _, r := range internal.SplitRange(low, high, n) {
		worker := w.Split()
		if nerr := worker.Work(r.Low, r.High); err == nil {
			err = nerr
		}
		w.Join(worker)
	}
	return
}
