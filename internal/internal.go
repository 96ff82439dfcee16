package internal

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/exascience/parworker"
)

// HardwareConcurrency returns the number of goroutines that can run
// simultaneously, as determined by runtime.GOMAXPROCS(0), and at least 1.
func HardwareConcurrency() int {
	if n := runtime.GOMAXPROCS(0); n > 1 {
		return n
	}
	return 1
}

// Split divides the range from low to high into HardwareConcurrency()
// subranges. See SplitRange.
func Split(low, high int) []parworker.Range {
	return SplitRange(low, high, HardwareConcurrency())
}

// SplitRange divides the range from low to high into exactly n subranges (at
// least 1) that are contiguous, non-overlapping, in ascending order, and
// together cover [low, high).
//
// Each subrange has size (high - low) / n, except for the last one, which
// additionally absorbs the remainder of the integer division. If high - low
// < n, all but the last subrange are empty.
//
// SplitRange panics if low < 0 or high < low.
func SplitRange(low, high, n int) []parworker.Range {
	whole := parworker.NewRange(low, high)
	if n < 1 {
		n = 1
	}
	chunk := whole.Len() / n
	ranges := make([]parworker.Range, n)
	next := low
	for i := range ranges {
		end := min(next+chunk, high)
		ranges[i] = parworker.Range{Low: next, High: end}
		next = end
	}
	ranges[n-1].High = high
	return ranges
}

type runtimeError struct{ error }

func (runtimeError) RuntimeError() {}

// WrapPanic adds stack trace information to a recovered panic.
func WrapPanic(p interface{}) interface{} {
	if p != nil {
		s := fmt.Sprintf("%v\n%s\nrethrown at", p, debug.Stack())
		if _, isError := p.(error); isError {
			r := errors.New(s)
			if _, isRuntimeError := p.(runtime.Error); isRuntimeError {
				return runtimeError{r}
			}
			return r
		}
		return s
	}
	return nil
}

// An Outcome records how an execution unit terminated: with an error value,
// with a recovered (and wrapped) panic, or with neither.
type Outcome struct {
	Err   error
	Panic interface{}
}

// Capture invokes f and records its error value or panic, so that the
// goroutine running f never terminates abnormally.
func Capture(f func() error) (o Outcome) {
	defer func() {
		o.Panic = WrapPanic(recover())
	}()
	o.Err = f()
	return
}

// Failed reports whether the unit returned an error or panicked.
func (o Outcome) Failed() bool {
	return (o.Err != nil) || (o.Panic != nil)
}
