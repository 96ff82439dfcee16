package workstealing

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exascience/parworker"
	"github.com/exascience/parworker/scheduler"
	"github.com/exascience/parworker/workertest"
)

func withScheduler(t *testing.T, workers int) *scheduler.Scheduler {
	s := scheduler.New(scheduler.WithWorkers(workers))
	t.Cleanup(s.Close)
	return s
}

func TestForCoverage(t *testing.T) {
	for _, workers := range []int{1, 2, 5} {
		s := withScheduler(t, workers)
		for _, grain := range []int{0, 1, 10} {
			for _, r := range []parworker.Range{{Low: 0, High: 0}, {Low: 0, High: 1}, {Low: 0, High: 100}, {Low: 13, High: 1013}} {
				t.Run(fmt.Sprintf("%v/%v/%v", workers, grain, r), func(t *testing.T) {
					l := workertest.NewLedger(r.Low, r.High)
					require.NoError(t, ForOn(s, r.Low, r.High, grain, l))
					assert.NoError(t, l.Check())
					assert.Equal(t, r.Len(), l.Processed())
				})
			}
		}
	}
}

func TestForSquaresDefault(t *testing.T) {
	buffer := make([]int, 100)
	require.NoError(t, For(0, 100, workertest.Squares{Buffer: buffer}))
	for i, v := range buffer {
		assert.Equal(t, i*i, v)
	}
}

func TestForDegenerate(t *testing.T) {
	var c workertest.Counter
	require.NoError(t, ForOn(withScheduler(t, 3), 4, 4, 0, &c))
	assert.Zero(t, c.NonEmpty.Load())
}

func TestReduceSum(t *testing.T) {
	for _, workers := range []int{1, 2, 4, 8} {
		s := withScheduler(t, workers)
		for _, grain := range []int{0, 1, 7} {
			var sum workertest.IndexSum
			require.NoError(t, ReduceOn(s, 0, 100, grain, &sum))
			assert.Equal(t, 4950, sum.Total, "workers %v, grain %v", workers, grain)
		}
	}
	var sum workertest.IndexSum
	require.NoError(t, Reduce(0, 100, &sum))
	assert.Equal(t, 4950, sum.Total)
}

func TestReduceBalance(t *testing.T) {
	s := withScheduler(t, 4)
	for _, grain := range []int{1, 3, 16, 2000} {
		l := workertest.NewLedger(0, 1000)
		root := workertest.Track(&workertest.IndexSum{}, l)
		require.NoError(t, ReduceOn(s, 0, 1000, grain, root))
		assert.NoError(t, l.Check())
		leaves := scheduler.NewBlockedRange(0, 1000, grain).Leaves()
		assert.Equal(t, len(leaves)-1, l.Splits(), "one split per halving")
		assert.Equal(t, 499500, root.Inner.Total)
	}
}

func TestReduceFollowsTreeOrder(t *testing.T) {
	s := withScheduler(t, 4)
	var c workertest.Concat
	require.NoError(t, ReduceOn(s, 0, 16, 2, &c))
	var expected [][2]int
	for _, leaf := range scheduler.NewBlockedRange(0, 16, 2).Leaves() {
		expected = append(expected, [2]int{leaf.Low, leaf.High})
	}
	assert.Equal(t, expected, c.Parts)
}

func TestReleasesJoinedWorkers(t *testing.T) {
	root := &reduceBody[*workertest.IndexSum]{worker: &workertest.IndexSum{}}
	child := root.SplitBody()
	require.NoError(t, child.Run(0, 10))
	root.JoinBody(child)
	assert.Nil(t, child.worker)
	assert.Equal(t, 45, root.worker.Total)
	assert.False(t, root.wasSplit)
}

func TestErrorsAndClosedScheduler(t *testing.T) {
	s := scheduler.New(scheduler.WithWorkers(2))
	errOdd := errors.New("odd")
	err := ForOn(s, 0, 10, 1, parworker.WorkerFunc(func(low, high int) error {
		if low%2 == 1 {
			return fmt.Errorf("at %v: %w", low, errOdd)
		}
		return nil
	}))
	assert.ErrorIs(t, err, errOdd)
	assert.EqualError(t, err, "at 1: odd")

	s.Close()
	assert.ErrorIs(t, ForOn(s, 0, 10, 0, &workertest.Counter{}), parworker.ErrClosed)
	assert.ErrorIs(t, ReduceOn(s, 0, 10, 0, &workertest.IndexSum{}), parworker.ErrClosed)
}
