package internal

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exascience/parworker"
)

func checkCoverage(t *testing.T, low, high, n int, ranges []parworker.Range) {
	t.Helper()
	require.NotEmpty(t, ranges)
	assert.Equal(t, low, ranges[0].Low)
	assert.Equal(t, high, ranges[len(ranges)-1].High)
	total := 0
	for i, r := range ranges {
		assert.LessOrEqual(t, r.Low, r.High, "subrange %v", r)
		if i > 0 {
			assert.Equal(t, ranges[i-1].High, r.Low, "gap or overlap before %v", r)
		}
		total += r.Len()
	}
	assert.Equal(t, high-low, total)
}

func TestSplitRangeCoverage(t *testing.T) {
	for _, low := range []int{0, 1, 17} {
		for _, size := range []int{0, 1, 2, 3, 7, 100, 101, 1023} {
			for _, n := range []int{1, 2, 3, 4, 8, 16, 200} {
				high := low + size
				t.Run(fmt.Sprintf("%v:%v/%v", low, high, n), func(t *testing.T) {
					ranges := SplitRange(low, high, n)
					assert.Len(t, ranges, n)
					checkCoverage(t, low, high, n, ranges)
				})
			}
		}
	}
}

func TestSplitRangeRemainderGoesToLast(t *testing.T) {
	ranges := SplitRange(0, 10, 4)
	assert.Equal(t, []parworker.Range{{Low: 0, High: 2}, {Low: 2, High: 4}, {Low: 4, High: 6}, {Low: 6, High: 10}}, ranges)
}

func TestSplitRangeSingleThread(t *testing.T) {
	assert.Equal(t, []parworker.Range{{Low: 5, High: 105}}, SplitRange(5, 105, 1))
	assert.Equal(t, []parworker.Range{{Low: 5, High: 105}}, SplitRange(5, 105, 0))
}

func TestSplitRangeOversubscribed(t *testing.T) {
	ranges := SplitRange(0, 3, 8)
	empty := 0
	for _, r := range ranges {
		if r.Empty() {
			empty++
		}
	}
	assert.Equal(t, 7, empty)
	checkCoverage(t, 0, 3, 8, ranges)
}

func TestSplitRangeDegenerate(t *testing.T) {
	for _, r := range SplitRange(42, 42, 6) {
		assert.True(t, r.Empty())
	}
}

func TestSplitRangeInvalid(t *testing.T) {
	assert.PanicsWithValue(t, "invalid range: 5:4", func() { SplitRange(5, 4, 2) })
	assert.Panics(t, func() { SplitRange(-1, 4, 2) })
}

func TestSplitUsesHardwareConcurrency(t *testing.T) {
	assert.Len(t, Split(0, 1000), HardwareConcurrency())
	assert.GreaterOrEqual(t, HardwareConcurrency(), 1)
}

func TestCapture(t *testing.T) {
	errTest := errors.New("boom")
	o := Capture(func() error { return errTest })
	assert.ErrorIs(t, o.Err, errTest)
	assert.Nil(t, o.Panic)
	assert.True(t, o.Failed())

	o = Capture(func() error { panic("oops") })
	assert.Nil(t, o.Err)
	require.NotNil(t, o.Panic)
	assert.Contains(t, o.Panic.(string), "oops")

	o = Capture(func() error {
		var s []int
		_ = s[3]
		return nil
	})
	_, isRuntimeError := o.Panic.(interface{ RuntimeError() })
	assert.True(t, isRuntimeError)

	assert.False(t, Capture(func() error { return nil }).Failed())
}
