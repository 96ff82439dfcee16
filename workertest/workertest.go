// Package workertest provides utilities for testing Worker and ReduceWorker
// implementations and the backends that execute them.
//
// A Ledger records which indices of a range have been processed and how often
// instances have been split and joined. Contract violations, such as joining
// an instance twice or into an instance that is not its ancestor, are recorded
// rather than panicking, and reported by Check after the call under test has
// returned.
package workertest

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/exascience/parworker"
)

// A Ledger records the work performed over a range [Low, High).
//
// A Ledger is itself a Worker that does nothing except record the subranges
// it is invoked for.
type Ledger struct {
	whole       parworker.Range
	counts      []atomic.Int32
	invocations atomic.Int64
	empty       atomic.Int64

	mu         sync.Mutex
	splits     int
	joins      int
	violations []error
}

// NewLedger returns a ledger for the range from low to high.
func NewLedger(low, high int) *Ledger {
	whole := parworker.NewRange(low, high)
	return &Ledger{
		whole:  whole,
		counts: make([]atomic.Int32, whole.Len()),
	}
}

func (l *Ledger) violate(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.violations = append(l.violations, fmt.Errorf(format, args...))
}

// Work records an invocation over [low, high). Out-of-range invocations are
// reported by Check, not here, so Work always returns nil.
func (l *Ledger) Work(low, high int) error {
	l.record(low, high)
	return nil
}

func (l *Ledger) record(low, high int) {
	l.invocations.Add(1)
	if low == high {
		l.empty.Add(1)
		return
	}
	if (low < l.whole.Low) || (high > l.whole.High) || (high < low) {
		l.violate("invocation over %v outside of %v", parworker.Range{Low: low, High: high}, l.whole)
		return
	}
	for i := low; i < high; i++ {
		l.counts[i-l.whole.Low].Add(1)
	}
}

// Invocations returns the number of recorded invocations, including
// invocations over empty subranges.
func (l *Ledger) Invocations() int {
	return int(l.invocations.Load())
}

// EmptyInvocations returns the number of recorded invocations over empty
// subranges.
func (l *Ledger) EmptyInvocations() int {
	return int(l.empty.Load())
}

// Processed returns the sum of the lengths of all recorded subranges.
func (l *Ledger) Processed() (total int) {
	for i := range l.counts {
		total += int(l.counts[i].Load())
	}
	return
}

// Splits returns the number of recorded splits.
func (l *Ledger) Splits() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.splits
}

// Joins returns the number of recorded joins.
func (l *Ledger) Joins() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.joins
}

// Check returns an error describing every index that was not processed
// exactly once, any mismatch between splits and joins, and all recorded
// contract violations, or nil if there are none.
func (l *Ledger) Check() error {
	var errs []error
	for i := range l.counts {
		if n := l.counts[i].Load(); n != 1 {
			errs = append(errs, fmt.Errorf("index %v processed %v times", l.whole.Low+i, n))
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.splits != l.joins {
		errs = append(errs, fmt.Errorf("%v splits, but %v joins", l.splits, l.joins))
	}
	errs = append(errs, l.violations...)
	return errors.Join(errs...)
}

// Tracked wraps a ReduceWorker and records its use in a Ledger. A *Tracked[W]
// is itself a ReduceWorker and can be passed to any backend in place of the
// wrapped worker.
type Tracked[W parworker.ReduceWorker[W]] struct {
	Inner W

	ledger  *Ledger
	parent  *Tracked[W]
	running atomic.Int32
	joined  atomic.Bool
}

// Track wraps w for recording in ledger.
func Track[W parworker.ReduceWorker[W]](w W, ledger *Ledger) *Tracked[W] {
	return &Tracked[W]{Inner: w, ledger: ledger}
}

// Work records the invocation and forwards it to the wrapped worker.
func (t *Tracked[W]) Work(low, high int) error {
	if t.joined.Load() {
		t.ledger.violate("invocation over [%v:%v) after join", low, high)
	}
	t.running.Add(1)
	defer t.running.Add(-1)
	t.ledger.record(low, high)
	return t.Inner.Work(low, high)
}

// Split records the split and wraps the new instance.
func (t *Tracked[W]) Split() *Tracked[W] {
	t.ledger.mu.Lock()
	t.ledger.splits++
	t.ledger.mu.Unlock()
	return &Tracked[W]{Inner: t.Inner.Split(), ledger: t.ledger, parent: t}
}

func (t *Tracked[W]) isAncestorOf(rhs *Tracked[W]) bool {
	for p := rhs.parent; p != nil; p = p.parent {
		if p == t {
			return true
		}
	}
	return false
}

// Join records the join and forwards it to the wrapped worker.
func (t *Tracked[W]) Join(rhs *Tracked[W]) {
	l := t.ledger
	switch {
	case rhs.parent == nil:
		l.violate("join of an instance that was not obtained by Split")
	case !t.isAncestorOf(rhs):
		l.violate("join into an instance that is not an ancestor")
	case rhs.running.Load() != 0:
		l.violate("join of an instance that is still running")
	}
	if !rhs.joined.CompareAndSwap(false, true) {
		l.violate("instance joined more than once")
	}
	l.mu.Lock()
	l.joins++
	l.mu.Unlock()
	t.Inner.Join(rhs.Inner)
}
