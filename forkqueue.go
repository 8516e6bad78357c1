package sagarun

// forkQueue tracks one procedure's main task (the driving goroutine itself)
// plus every forked child attached to it. The procedure is complete once
// every member has terminated; it is aborted the instant any member
// terminates with an error. If main itself is the one that failed, every
// other member is simply cancelled. If a forked sibling fails first, every
// other sibling is cancelled and main itself is aborted with the
// sibling's error (see abortMain) — not cancelled, since its own fork
// queue collapsing is what failed it, not an external request.
//
// forkQueue is only ever touched from the single goroutine driving this
// procedure's proc.next loop, so it needs no internal locking of its own —
// Task.Cancel calls reach it indirectly through the scheduler's asap queue.
type forkQueue struct {
	main      *Task
	members   []*Task
	completed bool

	result     any
	haveResult bool

	onAbort    func(remaining []*Task)
	onComplete func(result any)
	onError    func(err error)
}

func newForkQueue(main *Task) *forkQueue {
	fq := &forkQueue{main: main}
	fq.addTask(main)
	return fq
}

// addTask registers t as a member and installs its one-shot continuation.
func (fq *forkQueue) addTask(t *Task) {
	fq.members = append(fq.members, t)
	t.cont = func(res any, isErr bool) {
		fq.removeTask(t)

		if isErr {
			if fq.completed {
				// the queue already aborted and reported its error once.
				return
			}
			if fq.onAbort != nil {
				fq.onAbort(fq.remainingRunning())
			}
			err := res.(error)
			if t == fq.main {
				// main's own return failed: its own finishMain has already
				// classified it StatusAborted, so the other members just
				// need cancelling.
				fq.cancelAll()
			} else {
				// a sibling failed first: main is aborted with its error
				// rather than merely cancelled, since it never returned an
				// error of its own.
				fq.abortMain(err)
			}
			if fq.onError != nil {
				fq.onError(err)
			}
			return
		}

		if t == fq.main {
			fq.result = res
			fq.haveResult = true
		}

		if len(fq.members) == 0 && !fq.completed {
			fq.completed = true
			if fq.onComplete != nil {
				fq.onComplete(fq.result)
			}
		}
	}
}

func (fq *forkQueue) removeTask(t *Task) {
	for i, m := range fq.members {
		if m == t {
			fq.members = append(fq.members[:i], fq.members[i+1:]...)
			return
		}
	}
}

func (fq *forkQueue) remainingRunning() []*Task {
	out := make([]*Task, 0, len(fq.members))
	for _, m := range fq.members {
		if m.IsRunning() {
			out = append(out, m)
		}
	}
	return out
}

// cancelAll marks the queue completed and cancels every remaining member.
func (fq *forkQueue) cancelAll() {
	if fq.completed {
		return
	}
	fq.completed = true
	remaining := fq.members
	fq.members = nil
	for _, m := range remaining {
		m.Cancel()
	}
}

// abortMain marks the queue completed, cancels every remaining member
// other than main, and aborts main itself with err rather than cancelling
// it — a forked sibling failing is main's own fork queue collapsing, not
// an external cancellation, so main should see the sibling's error the
// same way it would see an error from its own return.
func (fq *forkQueue) abortMain(err error) {
	if fq.completed {
		return
	}
	fq.completed = true
	remaining := fq.members
	fq.members = nil
	for _, m := range remaining {
		if m == fq.main {
			continue
		}
		m.Cancel()
	}
	fq.main.abortFrom(err)
}
