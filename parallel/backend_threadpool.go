//go:build threadpool

package parallel

import (
	"github.com/exascience/parworker"
	"github.com/exascience/parworker/threadpool"
)

// Backend names the backend For and Reduce forward to.
const Backend = "threadpool"

func backendFor(low, high int, w parworker.Worker) error {
	return threadpool.For(low, high, w)
}

func backendReduce[W parworker.ReduceWorker[W]](low, high int, w W) error {
	return threadpool.Reduce(low, high, w)
}
