package sagarun

// Subscribe wires an external event source into an EventChannel. emit
// routes a value into the channel's inner buffer; emit(End) closes it. The
// returned unsubscribe function is called exactly once, whether by an
// explicit Close or by the subscription itself emitting End.
type Subscribe func(emit func(v any)) (unsubscribe func(), err error)

// EventChannel adapts an external subscription into a Channel, terminating
// on End.
type EventChannel struct {
	inner       *Channel
	unsubscribe func()
	closed      bool
}

// NewEventChannel calls subscribe with an emitter that forwards ordinary
// values into buffer and routes End into a single Close. subscribe must
// return a non-nil unsubscribe function.
func NewEventChannel(subscribe Subscribe, buffer Buffer) (*EventChannel, error) {
	ec := &EventChannel{inner: NewChannel(buffer)}

	unsub, err := subscribe(func(v any) {
		if v == End {
			ec.Close()
			return
		}
		ec.inner.put(v)
	})
	if err != nil {
		return nil, err
	}
	if unsub == nil {
		return nil, errEventChannelNoUnsubscribe
	}
	if ec.closed {
		// subscribe emitted End synchronously, before returning unsub: Close
		// already ran and found ec.unsubscribe still nil, so call it now
		// instead of stashing a callback nothing will ever invoke.
		unsub()
		return ec, nil
	}
	ec.unsubscribe = unsub
	return ec, nil
}

// Take delegates to the inner Channel.
func (ec *EventChannel) Take(cb func(v any, isEnd bool)) (cancel func()) {
	return ec.inner.Take(cb)
}

func (ec *EventChannel) take(_ any, cb func(v any, isEnd bool)) (cancel func()) {
	return ec.inner.take(nil, cb)
}

// Flush delegates to the inner Channel.
func (ec *EventChannel) Flush(cb func(vs []any)) { ec.inner.Flush(cb) }

func (ec *EventChannel) flush(cb func(vs []any)) { ec.inner.flush(cb) }

// Close unsubscribes (exactly once) and closes the inner channel.
func (ec *EventChannel) Close() {
	if ec.closed {
		return
	}
	ec.closed = true
	if ec.unsubscribe != nil {
		ec.unsubscribe()
	}
	ec.inner.Close()
}
