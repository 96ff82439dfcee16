// Package parallel provides the two entry points of parworker, For and
// Reduce, and forwards them to the backend selected at build time.
//
// By default, work is executed by package workstealing. Building with the
// threadpool tag (go build -tags threadpool) selects package threadpool
// instead. Backend reports which one was compiled in.
//
// Both backends process every index of the range exactly once and join every
// split reduction instance exactly once. They do not necessarily produce the
// same result for reductions that are not associative, because they join
// partial results in different orders.
package parallel

import (
	"github.com/exascience/parworker"
)

// For invokes w over subranges that together cover the range from low to
// high exactly once, in parallel, and returns when all invocations have
// terminated.
//
// For returns the first error value that is different from nil. For panics if
// low < 0 or high < low, or if an invocation panics.
func For(low, high int, w parworker.Worker) error {
	return backendFor(low, high, w)
}

// Reduce reduces the range from low to high with w, in parallel, and returns
// when all split instances of w have been joined. w then holds the final
// result.
//
// Reduce returns the first error value that is different from nil. Reduce
// panics if low < 0 or high < low, or if an invocation panics.
func Reduce[W parworker.ReduceWorker[W]](low, high int, w W) error {
	return backendReduce(low, high, w)
}
