// Package workstealing executes workers over an index range on the
// work-stealing scheduler of package scheduler.
//
// Unlike package threadpool, the range is not divided into one subrange per
// logical CPU up front. The scheduler halves it recursively down to a grain
// size and lets idle workers steal pieces, and reductions are combined along
// the resulting binary tree instead of one by one.
package workstealing

import (
	"sync"

	"github.com/exascience/parworker"
	"github.com/exascience/parworker/config"
	"github.com/exascience/parworker/internal/logging"
	"github.com/exascience/parworker/scheduler"
)

var (
	defaultOnce      sync.Once
	defaultScheduler *scheduler.Scheduler
	defaultGrain     int
)

// Default returns the process-wide scheduler used by For and Reduce. It is
// created on first use from config.Load, that is, from the PARWORKER_*
// environment variables, and lives until the process exits.
func Default() *scheduler.Scheduler {
	defaultOnce.Do(func() {
		cfg, err := config.Load()
		log := logging.New(cfg.Log)
		if err != nil {
			log.Warn().Err(err).Msg("invalid scheduler configuration, using defaults")
			cfg = config.Config{}
		}
		defaultGrain = cfg.Grain
		defaultScheduler = scheduler.New(
			scheduler.WithWorkers(cfg.Workers),
			scheduler.WithLogger(log),
		)
	})
	return defaultScheduler
}

type forBody struct {
	worker parworker.Worker
}

func (b forBody) Run(low, high int) error {
	return b.worker.Work(low, high)
}

// reduceBody adapts a ReduceWorker to the split/join protocol of the
// scheduler. Bodies created by SplitBody own their worker, which is released
// as soon as it has been joined.
type reduceBody[W parworker.ReduceWorker[W]] struct {
	worker   W
	wasSplit bool
}

func (b *reduceBody[W]) Run(low, high int) error {
	return b.worker.Work(low, high)
}

func (b *reduceBody[W]) SplitBody() *reduceBody[W] {
	return &reduceBody[W]{worker: b.worker.Split(), wasSplit: true}
}

func (b *reduceBody[W]) JoinBody(rhs *reduceBody[W]) {
	b.worker.Join(rhs.worker)
	if rhs.wasSplit {
		var zero W
		rhs.worker = zero
	}
}

// For invokes w over [low, high) on the Default scheduler. See ForOn.
func For(low, high int, w parworker.Worker) error {
	s := Default()
	return ForOn(s, low, high, defaultGrain, w)
}

// ForOn invokes w.Work over subranges of [low, high) on s, halving the range
// recursively until subranges are no larger than grain. If grain <= 0, s
// chooses a grain size, see scheduler.AutoGrain.
//
// ForOn returns only when all invocations have terminated, returning the
// left-most error value that is different from nil, or parworker.ErrClosed
// if s has been closed.
//
// ForOn panics if low < 0 or high < low. If one or more invocations panic,
// ForOn eventually panics with the left-most recovered panic value.
func ForOn(s *scheduler.Scheduler, low, high, grain int, w parworker.Worker) error {
	return s.ParallelFor(scheduler.NewBlockedRange(low, high, grain), forBody{w})
}

// Reduce reduces [low, high) with w on the Default scheduler. See ReduceOn.
func Reduce[W parworker.ReduceWorker[W]](low, high int, w W) error {
	s := Default()
	return ReduceOn(s, low, high, defaultGrain, w)
}

// ReduceOn reduces [low, high) with w on s. Whenever s halves a subrange, the
// worker of that subrange is split, and the new worker processes the right
// half; once both halves are done, the new worker is joined into the one it
// was split from. When ReduceOn returns, w holds the final result.
//
// Because the order of joins follows the binary tree of subranges rather
// than completion order, the reduction must be associative to yield the same
// result as package threadpool.
//
// Errors and panics are handled as described for ForOn.
func ReduceOn[W parworker.ReduceWorker[W]](s *scheduler.Scheduler, low, high, grain int, w W) error {
	return scheduler.ParallelReduce(s, scheduler.NewBlockedRange(low, high, grain), &reduceBody[W]{worker: w})
}
