package sagarun

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestForkQueueCompletesOnceEveryMemberFinishes(t *testing.T) {
	main := newTask("main", nil)
	fq := newForkQueue(main)

	var completed bool
	var result any
	fq.onComplete = func(r any) {
		completed = true
		result = r
	}

	child := newTask("child", nil)
	fq.addTask(child)

	child.cont(nil, false)
	require.False(t, completed, "main hasn't finished yet")

	main.cont("done", false)
	require.True(t, completed)
	require.Equal(t, "done", result)
}

func TestForkQueueAbortsAndCancelsSiblingsOnFirstError(t *testing.T) {
	main := newTask("main", nil)
	fq := newForkQueue(main)

	sibling := newTask("sibling", nil)
	fq.addTask(sibling)

	failing := newTask("failing", nil)
	fq.addTask(failing)

	boom := errors.New("boom")
	var reportedErr error
	fq.onError = func(err error) { reportedErr = err }

	failing.cont(boom, true)

	require.ErrorIs(t, reportedErr, boom)
	require.True(t, fq.completed)
	// failing != fq.main, so this went through abortMain: sibling.Cancel()
	// and main.abortFrom(err) are both no-ops for tasks with no attached
	// proc (p == nil); what matters here is that the queue itself tore
	// down and stopped tracking every member.
	require.Empty(t, fq.members)
}

func TestForkQueueRemoveTaskDropsExactlyOneMember(t *testing.T) {
	main := newTask("main", nil)
	fq := newForkQueue(main)
	a := newTask("a", nil)
	b := newTask("b", nil)
	fq.addTask(a)
	fq.addTask(b)

	fq.removeTask(a)
	require.Len(t, fq.members, 2) // main + b
	require.NotContains(t, fq.members, a)
	require.Contains(t, fq.members, b)
}
