package scheduler

// A Body processes a subrange [low, high) chosen by the scheduler.
type Body interface {
	Run(low, high int) error
}

// A ReduceBody is a Body that accumulates a partial result.
//
// SplitBody is called whenever the scheduler halves a range, and returns a
// new body that processes the right half. JoinBody is called once both
// halves have been processed, and merges the result of the right body into
// the receiver.
type ReduceBody[B any] interface {
	Body
	SplitBody() B
	JoinBody(rhs B)
}

// ParallelFor subdivides r by recursive halving and invokes body.Run for each
// resulting piece, in parallel, on the workers of s.
//
// ParallelFor returns only when all invocations have terminated, returning
// the left-most error value that is different from nil, or
// parworker.ErrClosed if s has been closed.
//
// ParallelFor panics if r.Low < 0 or r.High < r.Low. If one or more
// invocations panic, ParallelFor eventually panics with the left-most
// recovered panic value.
func (s *Scheduler) ParallelFor(r BlockedRange, body Body) (err error) {
	r = s.normalize(r)
	if rerr := s.run(func(w *worker) {
		err = forRange(w, r, body)
	}); rerr != nil {
		return rerr
	}
	return
}

func forRange(w *worker, r BlockedRange, body Body) error {
	if !r.Divisible() {
		return body.Run(r.Low, r.High)
	}
	left, right := r.Halve()
	var err0, err1 error
	w.fork2(
		func(w *worker) { err0 = forRange(w, left, body) },
		func(w *worker) { err1 = forRange(w, right, body) },
	)
	if err0 != nil {
		return err0
	}
	return err1
}

// ParallelReduce subdivides r by recursive halving and reduces it with body,
// in parallel, on the workers of s. Each halving calls SplitBody on the body
// of the range being halved, the left half continues with that body, and the
// right half with the new one. When both halves are done, the right body is
// joined into the left one. When ParallelReduce returns, body holds the final
// result.
//
// ParallelReduce returns the left-most error value that is different from
// nil, or parworker.ErrClosed if s has been closed.
//
// ParallelReduce panics if r.Low < 0 or r.High < r.Low. If one or more
// invocations panic, the bodies involved are not joined, and ParallelReduce
// eventually panics with the left-most recovered panic value.
func ParallelReduce[B ReduceBody[B]](s *Scheduler, r BlockedRange, body B) (err error) {
	r = s.normalize(r)
	if rerr := s.run(func(w *worker) {
		err = reduceRange(w, r, body)
	}); rerr != nil {
		return rerr
	}
	return
}

func reduceRange[B ReduceBody[B]](w *worker, r BlockedRange, body B) error {
	if !r.Divisible() {
		return body.Run(r.Low, r.High)
	}
	left, right := r.Halve()
	rhs := body.SplitBody()
	var err0, err1 error
	w.fork2(
		func(w *worker) { err0 = reduceRange(w, left, body) },
		func(w *worker) { err1 = reduceRange(w, right, rhs) },
	)
	body.JoinBody(rhs)
	if err0 != nil {
		return err0
	}
	return err1
}
