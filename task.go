package sagarun

import (
	"runtime"
	"sync"

	"github.com/google/uuid"
)

// Status is where a Task sits in its state machine:
// running -> exactly one of done, aborted, cancelled.
type Status int32

const (
	StatusRunning Status = iota
	StatusDone
	StatusAborted
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusDone:
		return "done"
	case StatusAborted:
		return "aborted"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Meta carries diagnostic information about a Task: a caller-supplied name
// (from ForkNamed/SpawnNamed) and a source location captured with
// runtime.Caller rather than a build-time annotation step. The location is
// the place inside this package that created the task (the interpreter's
// dispatch code for forked tasks, Run or Middleware.Run for roots), not the
// user's own Fork/Spawn call site.
type Meta struct {
	Name string
	Loc  string
}

// Task is the externally observable handle on a running (or terminated)
// procedure. Its bookkeeping fields are guarded by mu
// because Cancel may be called from any goroutine, while the fields
// themselves are otherwise only ever touched from the single goroutine
// currently driving the cooperative scheduler.
type Task struct {
	ID   uuid.UUID
	Meta Meta

	mu        sync.Mutex
	status    Status
	result    any
	err       error
	cancelled bool

	// cont is installed by the owning forkQueue and invoked exactly once
	// when this task terminates.
	cont func(value any, isError bool)

	// joiners are callbacks registered by Join effects and by ToPromise,
	// each invoked exactly once when the task reaches a terminal status.
	joiners []func(result any, err error, cancelled bool)

	// p is the interpreter driving this task's procedure. nil once the
	// task has terminated and been detached.
	p *proc

	promise *taskAwaitable
}

func newTask(name string, p *proc) *Task {
	loc := ""
	if _, file, line, ok := runtime.Caller(2); ok {
		loc = trimLoc(file, line)
	}
	return &Task{
		ID:   uuid.New(),
		Meta: Meta{Name: name, Loc: loc},
		p:    p,
	}
}

// newShadowTask creates a Task that is never driven as the main task of its
// own proc and is never handed out through the public API. A forkQueue
// uses one to track the eventual settlement of something other than a
// single real task — see attachFork, which points its p at the real
// child's proc so cancelling the shadow cancels the child — without
// conflating that tracking with the real task's own cont field.
func newShadowTask(meta Meta) *Task {
	return &Task{ID: uuid.New(), Meta: meta}
}

func trimLoc(file string, line int) string {
	short := file
	for i := len(file) - 1; i >= 0; i-- {
		if file[i] == '/' {
			short = file[i+1:]
			break
		}
	}
	return short + ":" + itoa(line)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// IsRunning reports whether the task has not yet reached a terminal status.
func (t *Task) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status == StatusRunning
}

// IsCancelled reports whether the task's cancelled flag is set — true as
// soon as Cancel has been processed, even before the procedure's cleanup
// has finished running and the task has reached its terminal status.
func (t *Task) IsCancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// IsAborted reports whether the task terminated with an uncaught error.
func (t *Task) IsAborted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status == StatusAborted
}

// Status returns the task's current status.
func (t *Task) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Result returns the task's terminal result, valid once Status is
// StatusDone.
func (t *Task) Result() any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

// Err returns the task's terminal error, valid once Status is
// StatusAborted.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Cancel requests cancellation of the task. It is idempotent and safe to
// call from any goroutine; the actual cancellation runs on whichever
// goroutine is presently driving (or next drives) the cooperative
// scheduler for this task's tree.
func (t *Task) Cancel() {
	t.mu.Lock()
	p := t.p
	already := t.cancelled
	t.mu.Unlock()

	if p == nil || already {
		return
	}

	p.sched.asap(func() { p.cancel() })
}

// abortFrom forces the task's procedure to terminate with err, attributing
// the failure to a forked sibling rather than the task's own return. Like
// Cancel, it is idempotent and safe to call from any goroutine; unlike
// Cancel, the procedure goroutine is resumed with err itself rather than
// the TaskCancel sentinel, so it terminates StatusAborted instead of
// StatusCancelled.
func (t *Task) abortFrom(err error) {
	t.mu.Lock()
	p := t.p
	settled := t.cancelled || t.status != StatusRunning
	t.mu.Unlock()

	if p == nil || settled {
		return
	}

	p.sched.asap(func() { p.abortSibling(err) })
}

// ToPromise lazily allocates an Awaitable bound to this task's terminal
// status, so a Task can itself be yielded (or passed to Call) wherever an
// Awaitable is accepted.
func (t *Task) ToPromise() Awaitable {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.promise == nil {
		t.promise = &taskAwaitable{task: t}
	}
	return t.promise
}

// SetContext merges obj into this task's own context layer.
func (t *Task) SetContext(obj map[string]any) {
	if t.p != nil {
		t.p.taskCtx.merge(obj)
	}
}

// onTerminal registers cb to be invoked exactly once when the task reaches
// a terminal status — immediately, if it already has. Used by Join and by
// ToPromise.
func (t *Task) onTerminal(cb func(result any, err error, cancelled bool)) (cancel func()) {
	t.mu.Lock()
	if t.status != StatusRunning {
		result, err, cancelled := t.result, t.err, t.cancelled
		t.mu.Unlock()
		cb(result, err, cancelled)
		return func() {}
	}
	idx := len(t.joiners)
	t.joiners = append(t.joiners, cb)
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if idx < len(t.joiners) {
			t.joiners[idx] = nil
		}
	}
}

// finish transitions the task to a terminal status exactly once, notifies
// every joiner, and invokes cont if one is installed (it always is, once
// the task has been added to a forkQueue).
func (t *Task) finish(status Status, result any, err error) {
	t.mu.Lock()
	if t.status != StatusRunning {
		t.mu.Unlock()
		return
	}
	t.status = status
	t.result = result
	t.err = err
	if status == StatusCancelled {
		t.cancelled = true
	}
	cont := t.cont
	t.cont = nil
	joiners := t.joiners
	t.joiners = nil
	cancelled := t.cancelled
	t.p = nil
	t.mu.Unlock()

	for _, j := range joiners {
		if j != nil {
			j(result, err, cancelled)
		}
	}
	if cont != nil {
		cont(valueOrErr(result, err), err != nil)
	}
}

func valueOrErr(result any, err error) any {
	if err != nil {
		return err
	}
	return result
}

// markCancelling sets the cancelled flag without transitioning to a
// terminal status — the procedure's cleanup path may still run (and still
// yield effects) before the task actually finishes.
func (t *Task) markCancelling() {
	t.mu.Lock()
	t.cancelled = true
	t.mu.Unlock()
}
