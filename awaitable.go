package sagarun

// Awaitable is anything Yield accepts directly (alongside Effect and
// ProcFunc): an external promise-like value with completion callbacks and
// an optional cancel hook. Cancel must be safe to call even
// when the awaitable has already settled or cannot itself be cancelled —
// implementations that can't cancel simply do nothing, rather than the
// runtime having to tolerate an absent, reflection-discovered method.
type Awaitable interface {
	Then(resolve func(any), reject func(error))
	Cancel()
}

// Canceller describes how to abort an in-flight CPS call. A nil Canceller
// is valid and means "this call cannot be cancelled."
type Canceller func()

// settledAwaitable is a minimal Awaitable used internally (e.g. by
// Task.ToPromise) and available to callers who just need to turn a plain
// value/error pair into something Yield-compatible.
type settledAwaitable struct {
	value any
	err   error
}

// Settled returns an Awaitable that resolves or rejects immediately with
// the given value/error.
func Settled(value any, err error) Awaitable {
	return &settledAwaitable{value: value, err: err}
}

func (s *settledAwaitable) Then(resolve func(any), reject func(error)) {
	if s.err != nil {
		reject(s.err)
		return
	}
	resolve(s.value)
}

func (s *settledAwaitable) Cancel() {}

// taskAwaitable is the lazily-allocated Awaitable behind Task.ToPromise: it
// settles exactly once, when the task reaches a terminal status.
type taskAwaitable struct {
	task *Task
}

func (p *taskAwaitable) Then(resolve func(any), reject func(error)) {
	p.task.onTerminal(func(result any, err error, cancelled bool) {
		switch {
		case cancelled:
			reject(ErrTaskCancelled)
		case err != nil:
			reject(err)
		default:
			resolve(result)
		}
	})
}

func (p *taskAwaitable) Cancel() { p.task.Cancel() }
