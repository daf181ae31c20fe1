package workerpool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMap_PreservesOrder(t *testing.T) {
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}
	pool := New(4, nil)

	results := Map(context.Background(), pool, items, func(_ context.Context, v int) int {
		// Later items finish first.
		time.Sleep(time.Duration(50-v) * 100 * time.Microsecond)
		return v * v
	})

	for i, r := range results {
		assert.Equal(t, i*i, r)
	}
}

func TestMap_BoundsConcurrency(t *testing.T) {
	var inFlight, peak int32
	items := make([]int, 20)
	pool := New(3, nil)

	Map(context.Background(), pool, items, func(_ context.Context, _ int) struct{} {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return struct{}{}
	})

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&peak), int32(1))
}

func TestMap_FailuresDoNotStopSiblings(t *testing.T) {
	type outcome struct {
		ok  bool
		err string
	}
	items := []string{"a", "bad", "c", "bad", "e"}
	var done int32
	pool := New(2, nil).WithProgress(func() { atomic.AddInt32(&done, 1) })

	results := Map(context.Background(), pool, items, func(_ context.Context, s string) outcome {
		if s == "bad" {
			return outcome{err: "corrupt"}
		}
		return outcome{ok: true}
	})

	assert.Equal(t, int32(len(items)), atomic.LoadInt32(&done))
	assert.True(t, results[0].ok)
	assert.Equal(t, "corrupt", results[1].err)
	assert.True(t, results[2].ok)
	assert.Equal(t, "corrupt", results[3].err)
	assert.True(t, results[4].ok)
}

func TestMap_EmptyAndSequential(t *testing.T) {
	assert.Empty(t, Map(context.Background(), New(4, nil), []int{}, func(_ context.Context, v int) int { return v }))

	pool := New(0, nil)
	assert.Equal(t, 1, pool.Workers())
	assert.Equal(t, []int{2, 4}, Map(context.Background(), pool, []int{1, 2}, func(_ context.Context, v int) int { return v * 2 }))
}
