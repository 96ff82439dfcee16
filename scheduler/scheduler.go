// Package scheduler provides a work-stealing task scheduler that executes
// range computations on a persistent pool of worker goroutines.
//
// Each worker owns a deque of forked tasks. A worker that runs out of work
// steals the oldest task of another worker; work that is submitted from
// outside the pool waits in a shared FIFO injection queue. Ranges are
// subdivided by recursive halving (see BlockedRange), and reductions are
// combined along the resulting binary tree.
//
// Calls into a Scheduler block until all of their tasks have completed. Worker
// and body functions must not call back into the same Scheduler.
package scheduler

import (
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
	"github.com/rs/zerolog"

	"github.com/exascience/parworker"
	"github.com/exascience/parworker/internal"
)

// Number of unsuccessful attempts to find other work before a worker that
// waits for a stolen task blocks.
const maxSpins = 64

type task struct {
	fn    func(*worker)
	done  chan struct{}
	panic interface{}
}

func newTask(fn func(*worker)) *task {
	return &task{fn: fn, done: make(chan struct{})}
}

type worker struct {
	id    int
	s     *Scheduler
	deque deque
}

// A Scheduler is a pool of worker goroutines that execute forked tasks with
// work stealing.
//
// The zero Scheduler is not valid; use New.
type Scheduler struct {
	workers []*worker
	log     zerolog.Logger

	mu       sync.Mutex
	cond     *sync.Cond
	inject   *queue.Queue
	closed   bool
	injected atomic.Int32
	epoch    atomic.Uint64
	sleepers atomic.Int32

	executed atomic.Int64
	steals   atomic.Int64
	wg       sync.WaitGroup
}

type options struct {
	workers int
	logger  zerolog.Logger
}

// An Option configures a Scheduler.
type Option func(*options)

// WithWorkers sets the number of worker goroutines. If n <= 0, the number of
// logical CPUs is used.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithLogger sets the logger for lifecycle and steal events. By default,
// nothing is logged.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New starts a scheduler and its worker goroutines.
func New(opts ...Option) *Scheduler {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers <= 0 {
		o.workers = internal.HardwareConcurrency()
	}
	s := &Scheduler{
		workers: make([]*worker, o.workers),
		log:     o.logger.With().Str("component", "scheduler").Logger(),
		inject:  queue.New(),
	}
	s.cond = sync.NewCond(&s.mu)
	for i := range s.workers {
		s.workers[i] = &worker{id: i, s: s}
	}
	s.wg.Add(len(s.workers))
	for _, w := range s.workers {
		go w.loop()
	}
	s.log.Debug().Int("workers", len(s.workers)).Msg("scheduler started")
	return s
}

// NumWorkers returns the number of worker goroutines.
func (s *Scheduler) NumWorkers() int {
	return len(s.workers)
}

// Stats describes the activity of a scheduler.
type Stats struct {
	Workers  int
	Executed int64
	Steals   int64
}

// Stats returns the number of workers and the number of tasks executed and
// stolen so far.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Workers:  len(s.workers),
		Executed: s.executed.Load(),
		Steals:   s.steals.Load(),
	}
}

// Close stops accepting new work, waits until the workers have finished all
// pending work, and stops them. Subsequent calls return parworker.ErrClosed.
// Close is idempotent.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
	s.wg.Wait()
	stats := s.Stats()
	s.log.Debug().
		Int64("executed", stats.Executed).
		Int64("steals", stats.Steals).
		Msg("scheduler stopped")
}

// notify wakes up a sleeping worker, if any, after new work became
// available. Bumping the epoch before checking for sleepers guarantees that a
// worker that is about to go to sleep either sees the new epoch or is woken up.
func (s *Scheduler) notify() {
	s.epoch.Add(1)
	if s.sleepers.Load() > 0 {
		s.mu.Lock()
		s.cond.Signal()
		s.mu.Unlock()
	}
}

func (s *Scheduler) submit(t *task) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return parworker.ErrClosed
	}
	s.inject.Add(t)
	s.injected.Add(1)
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *Scheduler) takeInjected() *task {
	if s.injected.Load() == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inject.Length() == 0 {
		return nil
	}
	s.injected.Add(-1)
	return s.inject.Remove().(*task)
}

// run submits fn as a root task and blocks until it has completed. A panic in
// fn is rethrown on the calling goroutine.
func (s *Scheduler) run(fn func(*worker)) error {
	t := newTask(fn)
	if err := s.submit(t); err != nil {
		return err
	}
	<-t.done
	if t.panic != nil {
		panic(t.panic)
	}
	return nil
}

func (w *worker) loop() {
	s := w.s
	defer s.wg.Done()
	for {
		epoch := s.epoch.Load()
		if t := w.find(); t != nil {
			w.execute(t)
			continue
		}
		s.mu.Lock()
		if s.closed && (s.inject.Length() == 0) {
			s.mu.Unlock()
			return
		}
		s.sleepers.Add(1)
		for (s.epoch.Load() == epoch) && !s.closed {
			s.cond.Wait()
		}
		s.sleepers.Add(-1)
		s.mu.Unlock()
	}
}

func (w *worker) find() *task {
	if t := w.deque.pop(); t != nil {
		return t
	}
	if t := w.s.takeInjected(); t != nil {
		return t
	}
	return w.steal()
}

func (w *worker) steal() *task {
	workers := w.s.workers
	n := len(workers)
	if n == 1 {
		return nil
	}
	start := rand.IntN(n)
	for i := 0; i < n; i++ {
		victim := workers[(start+i)%n]
		if victim == w {
			continue
		}
		if t := victim.deque.steal(); t != nil {
			w.s.steals.Add(1)
			w.s.log.Trace().Int("thief", w.id).Int("victim", victim.id).Msg("stole task")
			return t
		}
	}
	return nil
}

func (w *worker) execute(t *task) {
	defer func() {
		t.panic = internal.WrapPanic(recover())
		close(t.done)
	}()
	w.s.executed.Add(1)
	t.fn(w)
}

// helpUntil executes other tasks until t has been completed by the worker
// that stole it.
func (w *worker) helpUntil(t *task) {
	for spins := 0; ; {
		select {
		case <-t.done:
			return
		default:
		}
		if u := w.deque.pop(); u != nil {
			w.execute(u)
			spins = 0
			continue
		}
		if u := w.steal(); u != nil {
			w.execute(u)
			spins = 0
			continue
		}
		if spins++; spins > maxSpins {
			<-t.done
			return
		}
		runtime.Gosched()
	}
}

// fork2 executes left on w and right on w or on a thief, and returns when both
// have terminated. If one or both panic, fork2 panics with the left-most
// panic value after both have terminated.
func (w *worker) fork2(left, right func(*worker)) {
	t := newTask(right)
	w.deque.push(t)
	w.s.notify()
	var p interface{}
	func() {
		defer func() {
			p = internal.WrapPanic(recover())
		}()
		left(w)
	}()
	if w.deque.popIf(t) {
		w.execute(t)
	} else {
		w.helpUntil(t)
	}
	if p != nil {
		panic(p)
	}
	if t.panic != nil {
		panic(t.panic)
	}
}

func (s *Scheduler) normalize(r BlockedRange) BlockedRange {
	r = NewBlockedRange(r.Low, r.High, r.Grain)
	if r.Grain <= 0 {
		r.Grain = AutoGrain(r.Len(), len(s.workers))
	}
	return r
}
