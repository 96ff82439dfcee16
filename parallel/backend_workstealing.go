//go:build !threadpool

package parallel

import (
	"github.com/exascience/parworker"
	"github.com/exascience/parworker/workstealing"
)

// Backend names the backend For and Reduce forward to.
const Backend = "workstealing"

func backendFor(low, high int, w parworker.Worker) error {
	return workstealing.For(low, high, w)
}

func backendReduce[W parworker.ReduceWorker[W]](low, high int, w W) error {
	return workstealing.Reduce(low, high, w)
}
