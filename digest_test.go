package sagarun

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func awaitDone(t *testing.T, task *Task) {
	t.Helper()
	require.Eventually(t, func() bool { return !task.IsRunning() }, time.Second, time.Millisecond)
}

func TestPutIntoBufferedChannelThenTakeFromDeliversItBack(t *testing.T) {
	ch := NewChannel(NewExpandingBuffer())

	main := Run(context.Background(), func(yield Yield) (any, error) {
		_, err := yield(PutInto(ch, "hello"))
		if err != nil {
			return nil, err
		}
		v, err := yield(TakeFrom(ch, nil))
		return v, err
	})

	awaitDone(t, main)
	require.Equal(t, StatusDone, main.Status())
	require.Equal(t, "hello", main.Result())
}

type noopStore struct{}

func (noopStore) Dispatch(any) {}
func (noopStore) GetState() any { return nil }

type pingAction struct{}

func (pingAction) ActionType() string { return "ping" }

func TestMiddlewareDispatchDeliversToAWaitingTaker(t *testing.T) {
	waiting := make(chan struct{})
	mw := NewMiddleware(noopStore{})

	main := mw.Run(context.Background(), func(yield Yield) (any, error) {
		close(waiting)
		v, err := yield(Take("ping"))
		return v, err
	})

	<-waiting
	// mw.Run drives the procedure on this goroutine until it suspends, so
	// the Take is already registered by the time Run returns; Dispatch is
	// safe to call immediately.
	mw.Dispatch(pingAction{})

	awaitDone(t, main)
	require.Equal(t, StatusDone, main.Status())
	require.Equal(t, pingAction{}, main.Result())
}

func TestForkRunsChildImmediatelyAndJoinWaitsForIt(t *testing.T) {
	main := Run(context.Background(), func(yield Yield) (any, error) {
		childResult := make(chan any, 1)
		childTask, err := yield(Fork(func(yield Yield) (any, error) {
			return "child-done", nil
		}))
		if err != nil {
			return nil, err
		}
		res, err := yield(Join(childTask.(*Task)))
		if err != nil {
			return nil, err
		}
		childResult <- res
		return <-childResult, nil
	})

	awaitDone(t, main)
	require.Equal(t, StatusDone, main.Status())
	require.Equal(t, "child-done", main.Result())
}

func TestForkFailureCascadesToParent(t *testing.T) {
	childErr := errors.New("child failed")
	reported := make(chan error, 1)

	main := Run(context.Background(), func(yield Yield) (any, error) {
		_, err := yield(Fork(func(yield Yield) (any, error) {
			return nil, childErr
		}))
		if err != nil {
			return nil, err
		}
		_, err = yield(Take("never"))
		return nil, err
	}, WithOnError(func(err error) { reported <- err }))

	awaitDone(t, main)
	require.Equal(t, StatusAborted, main.Status())
	require.ErrorIs(t, main.Err(), childErr)

	select {
	case err := <-reported:
		require.ErrorIs(t, err, childErr)
	case <-time.After(time.Second):
		t.Fatal("forked child's error was never reported through WithOnError")
	}
}

func TestForkFailureCancelsOtherRunningSiblings(t *testing.T) {
	childErr := errors.New("sibling failed")
	siblingCancelled := make(chan struct{})

	main := Run(context.Background(), func(yield Yield) (any, error) {
		_, err := yield(Fork(func(yield Yield) (any, error) {
			v, _ := yield(Take("never"))
			if IsCancellation(v) {
				close(siblingCancelled)
			}
			return nil, nil
		}))
		if err != nil {
			return nil, err
		}

		_, err = yield(Fork(func(yield Yield) (any, error) {
			return nil, childErr
		}))
		if err != nil {
			return nil, err
		}

		_, err = yield(Take("never"))
		return nil, err
	}))

	awaitDone(t, main)
	require.Equal(t, StatusAborted, main.Status())
	require.ErrorIs(t, main.Err(), childErr)

	select {
	case <-siblingCancelled:
	case <-time.After(time.Second):
		t.Fatal("still-running sibling was never cancelled when another sibling aborted")
	}
}

func TestAllResolvesOnceEveryChildSucceeds(t *testing.T) {
	main := Run(context.Background(), func(yield Yield) (any, error) {
		v, err := yield(All([]Effect{
			Call(func() (any, error) { return 1, nil }),
			Call(func() (any, error) { return 2, nil }),
		}))
		return v, err
	})

	awaitDone(t, main)
	require.Equal(t, StatusDone, main.Status())
	require.Equal(t, []any{1, 2}, main.Result())
}

func TestRaceResolvesWithWinnerOnlyInInputShape(t *testing.T) {
	main := Run(context.Background(), func(yield Yield) (any, error) {
		v, err := yield(Race(map[string]Effect{
			"fast": Call(func() (any, error) { return "fast-wins", nil }),
			"slow": Take("never"),
		}))
		return v, err
	})

	awaitDone(t, main)
	require.Equal(t, StatusDone, main.Status())
	result, ok := main.Result().(map[string]any)
	require.True(t, ok)
	require.Equal(t, "fast-wins", result["fast"])
	_, slowPresent := result["slow"]
	require.False(t, slowPresent)
}

func TestCancelledEffectReflectsTaskCancellation(t *testing.T) {
	started := make(chan struct{})
	observed := make(chan bool, 1)

	main := Run(context.Background(), func(yield Yield) (any, error) {
		close(started)
		v, _ := yield(Take("never"))
		if IsCancellation(v) {
			c, _ := yield(Cancelled())
			observed <- c.(bool)
			return nil, nil
		}
		return nil, nil
	})

	<-started
	main.Cancel()

	select {
	case c := <-observed:
		require.True(t, c)
	case <-time.After(time.Second):
		t.Fatal("cancelled procedure never observed Cancelled() as true")
	}
}
