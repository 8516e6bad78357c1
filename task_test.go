package sagarun

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTaskReachesDoneOnPlainReturn(t *testing.T) {
	main := Run(context.Background(), func(yield Yield) (any, error) {
		return 42, nil
	})

	require.Eventually(t, func() bool { return !main.IsRunning() }, time.Second, time.Millisecond)
	require.Equal(t, StatusDone, main.Status())
	require.Equal(t, 42, main.Result())
	require.NoError(t, main.Err())
}

func TestTaskReachesAbortedOnReturnedError(t *testing.T) {
	boom := require.New(t)
	main := Run(context.Background(), func(yield Yield) (any, error) {
		return nil, errInvalidCallable
	})

	boom.Eventually(func() bool { return !main.IsRunning() }, time.Second, time.Millisecond)
	boom.Equal(StatusAborted, main.Status())
	boom.True(main.IsAborted())
	boom.Error(main.Err())
}

func TestTaskCancelStopsARunningProcedure(t *testing.T) {
	started := make(chan struct{})
	main := Run(context.Background(), func(yield Yield) (any, error) {
		close(started)
		v, err := yield(Take("never-happens"))
		if IsCancellation(v) {
			return nil, nil
		}
		return nil, err
	})

	<-started
	main.Cancel()

	require.Eventually(t, func() bool { return !main.IsRunning() }, time.Second, time.Millisecond)
	require.True(t, main.IsCancelled())
	require.Equal(t, StatusCancelled, main.Status())
}

func TestContextCancellationCascadesToTask(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	main := Run(ctx, func(yield Yield) (any, error) {
		close(started)
		v, err := yield(Take("never-happens"))
		if IsCancellation(v) {
			return nil, nil
		}
		return nil, err
	})

	<-started
	cancel()

	require.Eventually(t, func() bool { return !main.IsRunning() }, time.Second, time.Millisecond)
	require.True(t, main.IsCancelled())
}

func TestTaskOnTerminalFiresImmediatelyIfAlreadyDone(t *testing.T) {
	main := Run(context.Background(), func(yield Yield) (any, error) {
		return "ok", nil
	})
	require.Eventually(t, func() bool { return !main.IsRunning() }, time.Second, time.Millisecond)

	fired := make(chan any, 1)
	main.onTerminal(func(result any, err error, cancelled bool) {
		fired <- result
	})

	select {
	case r := <-fired:
		require.Equal(t, "ok", r)
	case <-time.After(time.Second):
		t.Fatal("onTerminal callback never fired for an already-terminal task")
	}
}
