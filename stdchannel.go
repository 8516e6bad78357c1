package sagarun

// StdChannel is the Multicast channel shared by every concurrently running
// procedure started from one Run call. Its
// Put defers delivery through the owning Scheduler unless the action
// originates from inside a procedure's own Put effect, which is already
// executing under the scheduler and may pass through synchronously.
type StdChannel struct {
	*Multicast
	scheduler *scheduler
}

// NewStdChannel creates a StdChannel whose external Put calls are deferred
// through sched.
func NewStdChannel(sched *scheduler) *StdChannel {
	return &StdChannel{Multicast: NewMulticast(), scheduler: sched}
}

// Dispatch is how external producers feed values into the channel: it is
// always deferred through the scheduler, ordering it after any effects the
// current synchronous call stack is still servicing.
func (s *StdChannel) Dispatch(action any) {
	s.scheduler.asap(func() {
		s.Multicast.put(action)
	})
}

// internalPut is used only by the Put effect handler: a put issued from
// inside a running procedure is already under the scheduler's protection,
// so it can be delivered synchronously without an extra asap hop.
func (s *StdChannel) internalPut(action any) {
	s.Multicast.put(action)
}

// Take delegates straight to the underlying Multicast; reads never need to
// be deferred, only writes from outside a running procedure.
func (s *StdChannel) Take(cb func(v any, isEnd bool), pattern any) (cancel func()) {
	return s.Multicast.take(pattern, cb)
}

func (s *StdChannel) take(pattern any, cb func(v any, isEnd bool)) (cancel func()) {
	return s.Multicast.take(pattern, cb)
}

// Put is Dispatch: it defers delivery through the scheduler.
func (s *StdChannel) Put(v any) { s.Dispatch(v) }

func (s *StdChannel) put(v any) {
	s.Dispatch(v)
}
