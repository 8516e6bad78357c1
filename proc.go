package sagarun

import "runtime"

// ProcFunc is a procedure body: the runtime hands it a Yield closure and
// drives it to completion, suspending the underlying goroutine for the
// duration of every effect.
type ProcFunc func(yield Yield) (any, error)

// Yield suspends the calling procedure until the runtime resolves v, which
// may be an Effect, an Awaitable, or a nested ProcFunc (run as a child that
// is not attached to the fork queue; its result or error is returned here).
// It returns the resolved value, or an
// error if v rejected, was cancelled, or the effect itself failed.
type Yield func(v any) (any, error)

type yieldMsg struct {
	value    any
	finished bool
	result   any
	err      error
}

type resumeMsg struct {
	value any
	err   error
}

// proc is the interpreter driving exactly one procedure's goroutine. Every
// proc in a Run tree shares the same *scheduler, the same root Monitor and
// middleware chain, and a taskContext layered from its parent.
type proc struct {
	sched   *scheduler
	monitor Monitor
	middle  []EffectMiddleware
	gov     *governor

	taskCtx *taskContext
	main    *Task
	fq      *forkQueue
	std     *StdChannel

	parent *proc
	depth  int

	yieldCh  chan yieldMsg
	resumeCh chan resumeMsg

	pendingCancel func()
	running       bool

	// abortStack accumulates diagnostic frames for siblings cancelled as a
	// side effect of this proc's own abort, recorded by fq.onAbort. It is
	// spliced onto the AbortError's SagaStack in finishMain.
	abortStack []StackFrame
}

func newProc(parent *proc, main *Task, taskCtx *taskContext) *proc {
	p := &proc{
		taskCtx:  taskCtx,
		main:     main,
		yieldCh:  make(chan yieldMsg),
		resumeCh: make(chan resumeMsg),
		parent:   parent,
	}
	p.fq = newForkQueue(main)
	p.fq.onAbort = func(remaining []*Task) {
		for _, t := range remaining {
			if t == main {
				continue
			}
			p.abortStack = append(p.abortStack, StackFrame{
				Name:   t.Meta.Name,
				Loc:    t.Meta.Loc,
				Effect: "cancelled due to sibling error",
			})
		}
	}
	if parent != nil {
		p.sched = parent.sched
		p.monitor = parent.monitor
		p.middle = parent.middle
		p.gov = parent.gov
		p.std = parent.std
		p.depth = parent.depth + 1
	}
	main.p = p
	return p
}

func callerLoc(skip int) string {
	if _, file, line, ok := runtime.Caller(skip); ok {
		return trimLoc(file, line)
	}
	return ""
}

// start launches fn on a new goroutine and drives it until it either
// terminates or blocks on its first asynchronous effect.
func (p *proc) start(fn ProcFunc) {
	p.running = true
	go func() {
		defer func() {
			if r := recover(); r != nil {
				p.yieldCh <- yieldMsg{finished: true, err: panicToError(r)}
			}
		}()
		result, err := fn(p.yield)
		p.yieldCh <- yieldMsg{finished: true, result: result, err: err}
	}()
	p.drainLoop()
}

// yield is the Yield closure given to the procedure's ProcFunc.
func (p *proc) yield(v any) (any, error) {
	p.yieldCh <- yieldMsg{value: v}
	msg := <-p.resumeCh
	return msg.value, msg.err
}

// drainLoop waits for the procedure goroutine's next message and digests
// it. It returns as soon as the effect in flight is asynchronous; driving
// resumes later when some callback invokes p.resume.
func (p *proc) drainLoop() {
	for {
		msg := <-p.yieldCh
		if msg.finished {
			p.finishMain(msg.result, msg.err)
			return
		}

		next := p.digest(msg.value)
		if next == nil {
			return
		}
		p.resumeCh <- *next
	}
}

// resume injects (value, err) into the suspended procedure goroutine and
// continues driving it. It must only be called from within a
// scheduler-protected region (scheduler.asap), since it may synchronously
// run an arbitrary amount of further procedure code.
func (p *proc) resume(value any, err error) {
	if !p.running {
		return
	}
	p.resumeCh <- resumeMsg{value: value, err: err}
	p.drainLoop()
}

// finishMain is called once the procedure's top-level ProcFunc has
// returned or panicked; it feeds the result into this proc's forkQueue as
// the main task's termination.
func (p *proc) finishMain(result any, err error) {
	p.running = false
	status := StatusDone
	if p.main.IsCancelled() && err == nil {
		status = StatusCancelled
	} else if err != nil {
		status = StatusAborted
		ae := newAbortError(err, StackFrame{
			Name:   p.main.Meta.Name,
			Loc:    p.main.Meta.Loc,
			Effect: "return",
		})
		ae.Stack = append(ae.Stack, p.abortStack...)
		err = ae
	}
	p.main.finish(status, result, err)
}

// cancel is proc's half of Task.Cancel: it marks the main task cancelled,
// invokes whatever cancel hook is pending on the in-flight effect, and
// cancels every attached fork-queue member. The procedure goroutine itself
// is resumed with (TaskCancel, nil) so its own cleanup code (deferred
// finally-blocks expressed as ordinary Go code after the yield call) still
// runs; it is up to that code to return promptly.
func (p *proc) cancel() {
	if p.main.IsCancelled() {
		return
	}
	p.main.markCancelling()

	if p.pendingCancel != nil {
		hook := p.pendingCancel
		p.pendingCancel = nil
		hook()
	}

	for _, m := range p.fq.members {
		if m != p.main {
			m.Cancel()
		}
	}

	p.resume(TaskCancel, nil)
}

// abortSibling is proc's half of Task.abortFrom: a forked sibling attached
// to this proc's own fork queue failed first, so this procedure terminates
// aborted with the sibling's error rather than cancelled. Unlike cancel,
// it does not mark the main task cancelled and it resumes the procedure
// goroutine with (nil, err) instead of the TaskCancel sentinel — ordinary
// Go error handling in the procedure body (an `if err != nil { return nil,
// err }` after a yield call) carries err out as this task's own abort
// reason. Other fork-queue members are cancelled by the caller
// (forkQueue.abortMain), not here, since abortMain already walked them.
func (p *proc) abortSibling(err error) {
	if p.main.IsCancelled() || !p.running {
		return
	}

	if p.pendingCancel != nil {
		hook := p.pendingCancel
		p.pendingCancel = nil
		hook()
	}

	p.resume(nil, err)
}

func panicToError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &panicError{value: r}
}

type panicError struct{ value any }

func (e *panicError) Error() string { return "panic: " + anyToString(e.value) }

func anyToString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if stringer, ok := v.(interface{ String() string }); ok {
		return stringer.String()
	}
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return "unknown panic value"
}
