package workertest

import "sync/atomic"

// IndexSum is a ReduceWorker that adds up the indices it processes.
// Over [0, 100), the result is 4950.
type IndexSum struct {
	Total int
}

func (s *IndexSum) Work(low, high int) error {
	for i := low; i < high; i++ {
		s.Total += i
	}
	return nil
}

func (s *IndexSum) Split() *IndexSum {
	return &IndexSum{}
}

func (s *IndexSum) Join(rhs *IndexSum) {
	s.Total += rhs.Total
}

// Squares is a Worker that stores i*i at Buffer[i].
type Squares struct {
	Buffer []int
}

func (s Squares) Work(low, high int) error {
	for i := low; i < high; i++ {
		s.Buffer[i] = i * i
	}
	return nil
}

// Concat is a ReduceWorker that collects the subranges it processes in the
// order in which they are joined. It exposes the shape of the reduction.
type Concat struct {
	Parts [][2]int
}

func (c *Concat) Work(low, high int) error {
	if low < high {
		c.Parts = append(c.Parts, [2]int{low, high})
	}
	return nil
}

func (c *Concat) Split() *Concat {
	return &Concat{}
}

func (c *Concat) Join(rhs *Concat) {
	c.Parts = append(c.Parts, rhs.Parts...)
}

// Counter is a Worker that counts invocations, including empty ones.
type Counter struct {
	Calls, NonEmpty atomic.Int64
}

func (c *Counter) Work(low, high int) error {
	c.Calls.Add(1)
	if low < high {
		c.NonEmpty.Add(1)
	}
	return nil
}
