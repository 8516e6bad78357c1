package sagarun

// Taker is anything Take/TakeFrom can suspend on. pattern is ignored by
// single-consumer channels and interpreted by pattern-matching ones
// (Multicast, StdChannel).
type Taker interface {
	take(pattern any, cb func(v any, isEnd bool)) (cancel func())
}

// Putter is anything Put/PutInto can deliver into.
type Putter interface {
	put(v any)
}

// Flusher is anything Flush can drain.
type Flusher interface {
	flush(cb func(vs []any))
}

// channelTaker pairs a pending callback with a stable identity so a later
// cancel() closure can find and remove exactly this registration even
// though Go func values are not comparable with ==.
type channelTaker struct {
	cb func(v any, isEnd bool)
}

// Channel is the single-consumer, buffered rendezvous primitive. It is not
// safe for concurrent use by multiple goroutines at once; callers only
// ever reach it from the single goroutine currently driving the
// cooperative scheduler.
type Channel struct {
	closed bool
	buffer Buffer
	takers []*channelTaker
}

// NewChannel creates a Channel backed by buffer (NewNoneBuffer if nil).
func NewChannel(buffer Buffer) *Channel {
	if buffer == nil {
		buffer = NewNoneBuffer()
	}
	return &Channel{buffer: buffer}
}

// Put delivers v to the oldest waiting taker, or buffers it, or silently
// drops it if the channel is already closed.
func (c *Channel) Put(v any) { c.put(v) }

func (c *Channel) put(v any) {
	if c.closed {
		return
	}
	if len(c.takers) > 0 {
		t := c.takers[0]
		c.takers = c.takers[1:]
		t.cb(v, false)
		return
	}
	c.buffer.Put(v)
}

// Take resolves cb synchronously from the buffer or the End terminator when
// possible, else suspends cb as a taker and returns a cancel function that
// removes it. take satisfies the Taker interface.
func (c *Channel) Take(cb func(v any, isEnd bool)) (cancel func()) {
	return c.take(nil, cb)
}

func (c *Channel) take(_ any, cb func(v any, isEnd bool)) (cancel func()) {
	if v, ok := c.buffer.Take(); ok {
		cb(v, false)
		return func() {}
	}
	if c.closed {
		cb(End, true)
		return func() {}
	}
	t := &channelTaker{cb: cb}
	c.takers = append(c.takers, t)
	return func() {
		for i, existing := range c.takers {
			if existing == t {
				c.takers = append(c.takers[:i], c.takers[i+1:]...)
				return
			}
		}
	}
}

// Flush delivers the full buffered contents (possibly empty) to cb, or nil
// if the channel is closed and empty; the End sentinel itself is not
// delivered. flush satisfies the Flusher interface.
func (c *Channel) Flush(cb func(vs []any)) { c.flush(cb) }

func (c *Channel) flush(cb func(vs []any)) {
	if c.closed && c.buffer.IsEmpty() {
		cb(nil)
		return
	}
	cb(c.buffer.Flush())
}

// Close marks the channel closed and delivers End to every outstanding
// taker, leaving the taker queue empty — preserving the invariant that a
// closed channel never has pending takers.
func (c *Channel) Close() {
	if c.closed {
		return
	}
	c.closed = true
	pending := c.takers
	c.takers = nil
	for _, t := range pending {
		t.cb(End, true)
	}
}

// IsClosed reports whether Close has been called.
func (c *Channel) IsClosed() bool { return c.closed }
