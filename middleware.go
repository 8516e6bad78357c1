package sagarun

import "context"

// DispatchFunc is how the outside world feeds actions into a saga tree. It
// matches the shape of StdChannel.Dispatch so a Middleware's Store.Dispatch
// can be wired straight through to it.
type DispatchFunc func(action any)

// Store is the external state container a Middleware attaches to:
// something with a Dispatch entry point and a GetState accessor. The
// Middleware holds the Store but calls neither method; the Select effect
// reads state through the getState function it is given.
type Store interface {
	Dispatch(action any)
	GetState() any
}

// Middleware wires one or more root sagas to a Store: every action passed
// to Middleware.Dispatch is fed onto the sagas' shared StdChannel. Put
// effects the sagas perform are delivered on that channel only; they are
// not passed to Store.Dispatch, and actions sent to the Store directly do
// not reach the sagas.
type Middleware struct {
	store Store
	std   *StdChannel
	sched *scheduler
	cfg   runConfig

	roots []*Task
}

// EffectMiddleware observes or rewrites an effect before it reaches the
// interpreter. It must call next exactly once with the effect to actually
// run (typically the one it was given); failing to call next is a
// programmer error, detected in dev mode.
type EffectMiddleware func(effect Effect, next func(Effect))

// NewMiddleware constructs a Middleware bound to store, configured with
// the same Option values Run accepts.
func NewMiddleware(store Store, opts ...Option) *Middleware {
	mw := &Middleware{store: store, sched: newScheduler(), cfg: buildRunConfig(opts)}
	mw.std = NewStdChannel(mw.sched)
	return mw
}

// Run starts fn as a root saga on this Middleware's shared StdChannel:
// actions passed to Middleware.Dispatch and Put effects of its sibling
// roots are observable to it via Take/ActionChannel. Its Put effects are
// not passed to store.Dispatch.
func (mw *Middleware) Run(ctx context.Context, fn ProcFunc) *Task {
	t := runProc(ctx, fn, "", mw.std, mw.sched, mw.cfg)
	mw.roots = append(mw.roots, t)
	return t
}

// SetContext merges obj into the own context of every root saga already
// started through this Middleware's Run. Roots started afterwards do not
// see it.
func (mw *Middleware) SetContext(obj map[string]any) {
	for _, t := range mw.roots {
		t.SetContext(obj)
	}
}

// Dispatch feeds action into every saga attached to this Middleware.
func (mw *Middleware) Dispatch(action any) {
	mw.cfg.monitor.ActionDispatched(action)
	mw.std.Dispatch(action)
}
