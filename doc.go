// Package parworker provides a small, backend-agnostic abstraction for
// executing a computation over an index range across the available hardware
// concurrency.
//
// A caller describes the work as a Worker, which is invoked over disjoint
// subranges of a half-open interval [low, high), or as a ReduceWorker, which
// additionally knows how to split off independent instances and join their
// partial results back. Two interchangeable backends execute that work:
//
// parworker/threadpool divides the range statically into one subrange per
// logical CPU and runs each subrange in its own goroutine, joining reduction
// results in completion order.
//
// parworker/workstealing hands the work to the work-stealing scheduler of
// parworker/scheduler, which subdivides the range dynamically by recursive
// halving and combines reduction results along a binary tree.
//
// parworker/parallel exposes For and Reduce and forwards to whichever backend
// was selected at build time (the threadpool build tag selects the thread-pool
// backend; the default build uses work stealing).
//
// parworker/sequential provides in-order implementations of For and Reduce,
// for testing and debugging purposes, and parworker/workertest provides
// helpers to check that workers honor the split/join protocol.
//
// Both backends are synchronous: For and Reduce return only after every
// subrange has been processed. Reductions must be associative to give the same
// result on both backends; non-associative operations, such as some
// floating-point accumulations, may differ by backend or concurrency degree.
package parworker
