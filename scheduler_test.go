package sagarun

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSchedulerAsapRunsImmediatelyWhenIdle(t *testing.T) {
	s := newScheduler()
	ran := false
	s.asap(func() { ran = true })
	require.True(t, ran)
}

func TestSchedulerQueuesWorkTriggeredDuringExec(t *testing.T) {
	s := newScheduler()
	var order []int

	s.asap(func() {
		s.asap(func() { order = append(order, 1) })
		s.asap(func() { order = append(order, 2) })
		order = append(order, 0)
	})

	require.Equal(t, []int{0, 1, 2}, order)
}

func TestSchedulerFlushDrainsWorkEnqueuedWhileDraining(t *testing.T) {
	s := newScheduler()
	var order []int

	s.asap(func() {
		s.asap(func() {
			order = append(order, 1)
			s.asap(func() { order = append(order, 2) })
		})
	})

	require.Equal(t, []int{1, 2}, order)
}

func TestSchedulerNestedAsapDuringExecIsQueuedNotReentrant(t *testing.T) {
	s := newScheduler()
	var active, maxActive, calls int

	var step func()
	step = func() {
		active++
		if active > maxActive {
			maxActive = active
		}
		if calls < 3 {
			calls++
			s.asap(step)
		}
		active--
	}

	s.asap(step)
	require.Equal(t, 1, maxActive, "asap called while locked must queue, never recurse synchronously")
	require.Equal(t, 3, calls)
}

func TestSchedulerAsapIsSafeForConcurrentCallers(t *testing.T) {
	s := newScheduler()
	var mu sync.Mutex
	active := 0
	raced := false

	var wg sync.WaitGroup
	const n = 200
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			s.asap(func() {
				mu.Lock()
				active++
				if active > 1 {
					raced = true
				}
				mu.Unlock()

				mu.Lock()
				active--
				mu.Unlock()
			})
		}()
	}
	wg.Wait()

	require.False(t, raced, "two asap callers must never run their fn concurrently")
}
