package sagarun

import "context"

// Run starts fn as a root saga against a fresh StdChannel and returns its
// Task handle immediately; fn runs cooperatively, driven by the same
// goroutine that triggers each of its effects, until it either suspends on
// an asynchronous effect or returns.
//
// Cancelling ctx cancels the root task exactly once, which cascades to
// every attached fork-queue member.
func Run(ctx context.Context, fn ProcFunc, opts ...Option) *Task {
	cfg := buildRunConfig(opts)
	sched := newScheduler()
	std := NewStdChannel(sched)
	return runProc(ctx, fn, "", std, sched, cfg)
}

// runProc is the shared construction path for Run and Middleware.Run.
func runProc(ctx context.Context, fn ProcFunc, name string, std *StdChannel, sched *scheduler, cfg runConfig) *Task {
	main := newTask(name, nil)
	taskCtx := newTaskContext(nil)

	p := newProc(nil, main, taskCtx)
	p.sched = sched
	p.std = std
	p.monitor = cfg.monitor
	p.middle = cfg.middle
	p.gov = newGovernor(cfg.maxConcur)
	main.p = p

	if cfg.onError != nil {
		p.fq.onError = func(err error) {
			cfg.logger.Error("saga aborted", ErrorField(err), String("task", main.ID.String()))
			cfg.onError(err)
		}
	} else {
		p.fq.onError = func(err error) {
			cfg.logger.Error("saga aborted", ErrorField(err), String("task", main.ID.String()))
		}
	}

	if ctx != nil {
		stop := context.AfterFunc(ctx, func() { main.Cancel() })
		main.onTerminal(func(any, error, bool) { stop() })
	}

	sched.asap(func() { p.start(fn) })
	return main
}
