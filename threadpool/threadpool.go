// Package threadpool executes workers over an index range by dividing the
// range statically into one subrange per logical CPU and running each
// subrange in its own goroutine.
//
// Goroutines are created afresh for every call and have all terminated when
// the call returns; there is no persistent pool.
package threadpool

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/exascience/parworker"
	"github.com/exascience/parworker/internal"
)

func split(low, high, n int) []parworker.Range {
	if n <= 0 {
		return internal.Split(low, high)
	}
	return internal.SplitRange(low, high, n)
}

// For divides the range from low to high into one subrange per logical CPU
// and invokes w for each subrange in its own goroutine. See ForN.
func For(low, high int, w parworker.Worker) error {
	return ForN(low, high, 0, w)
}

// ForN divides the range from low to high into n subranges, as described for
// internal.SplitRange, and invokes w.Work for each of them in its own
// goroutine. If n <= 0, the number of logical CPUs is used.
//
// ForN returns only when all invocations have terminated, returning the
// first error value that is different from nil, in order of completion.
//
// ForN panics if low < 0 or high < low. If one or more invocations panic, the
// corresponding goroutines recover the panics, and ForN eventually panics
// with the first recovered panic value.
func ForN(low, high, n int, w parworker.Worker) error {
	var (
		g     errgroup.Group
		once  sync.Once
		first interface{}
	)
	for _, r := range split(low, high, n) {
		g.Go(func() error {
			o := internal.Capture(func() error {
				return w.Work(r.Low, r.High)
			})
			if o.Panic != nil {
				once.Do(func() { first = o.Panic })
			}
			return o.Err
		})
	}
	err := g.Wait()
	if first != nil {
		panic(first)
	}
	return err
}

// Reduce divides the range from low to high into one subrange per logical
// CPU and reduces it with w. See ReduceN.
func Reduce[W parworker.ReduceWorker[W]](low, high int, w W) error {
	return ReduceN(low, high, 0, w)
}

type completion[W any] struct {
	worker  W
	outcome internal.Outcome
}

// ReduceN divides the range from low to high into n subranges, obtains one
// new instance per subrange by calling w.Split, and invokes each instance for
// its subrange in its own goroutine. If n <= 0, the number of logical CPUs is
// used.
//
// As the goroutines terminate, their instances are joined into w, one at a
// time on the calling goroutine, in order of completion. w itself is never
// invoked. When ReduceN returns, all instances have been joined and w holds
// the final result.
//
// ReduceN returns the first error value that is different from nil, in order
// of completion. Instances whose invocation returned an error are still
// joined, so that every Split is matched by a Join.
//
// ReduceN panics if low < 0 or high < low. If one or more invocations panic,
// no further instances are joined, and ReduceN eventually panics with the
// first recovered panic value.
func ReduceN[W parworker.ReduceWorker[W]](low, high, n int, w W) error {
	ranges := split(low, high, n)
	workers := make([]W, len(ranges))
	for i := range workers {
		workers[i] = w.Split()
	}
	completed := make(chan completion[W], len(ranges))
	for i, r := range ranges {
		worker := workers[i]
		go func() {
			completed <- completion[W]{worker, internal.Capture(func() error {
				return worker.Work(r.Low, r.High)
			})}
		}()
	}
	var (
		err   error
		first interface{}
	)
	for range ranges {
		c := <-completed
		if c.outcome.Panic != nil {
			if first == nil {
				first = c.outcome.Panic
			}
			continue
		}
		if err == nil {
			err = c.outcome.Err
		}
		if first != nil {
			continue
		}
		if o := internal.Capture(func() error {
			w.Join(c.worker)
			return nil
		}); o.Panic != nil {
			first = o.Panic
		}
	}
	if first != nil {
		panic(first)
	}
	return err
}
