package sagarun

// multicastTaker is one registered pattern-match subscription on a
// Multicast channel. deliver fires at most once; cancel detaches it.
type multicastTaker struct {
	match   func(any) bool
	deliver func(any)
	done    bool
}

// Multicast is the pattern-matching broadcast channel. There is no
// buffering: a Put that matches no waiting taker is simply
// lost. currentTakers/nextTakers implement the copy-on-write discipline
// that lets takers be registered or removed *during* a Put's dispatch loop
// without perturbing that loop's own iteration.
type Multicast struct {
	closed        bool
	currentTakers []*multicastTaker
	nextTakers    []*multicastTaker
}

// NewMulticast creates an empty, open Multicast channel.
func NewMulticast() *Multicast {
	m := &Multicast{}
	return m
}

// Put broadcasts v to every taker whose pattern matches, in registration
// order, each exactly once. Putting End closes the channel instead.
func (m *Multicast) Put(v any) { m.put(v) }

func (m *Multicast) put(v any) {
	if v == End {
		m.Close()
		return
	}
	if m.closed {
		return
	}
	m.currentTakers = m.nextTakers
	for _, t := range m.currentTakers {
		if t.done {
			continue
		}
		if t.match(v) {
			t.done = true
			t.deliver(v)
		}
	}
}

// Take registers cb under pattern; if the channel is already closed cb
// observes End synchronously instead. cancel detaches the registration
// (idempotent) so it never fires, whether or not a Put is presently
// iterating the snapshot that contained it.
func (m *Multicast) Take(cb func(v any, isEnd bool), pattern any) (cancel func()) {
	return m.take(pattern, cb)
}

func (m *Multicast) take(pattern any, cb func(v any, isEnd bool)) (cancel func()) {
	if m.closed {
		cb(End, true)
		return func() {}
	}

	match := compileMatcher(pattern)
	t := &multicastTaker{
		match:   match,
		deliver: func(v any) { cb(v, false) },
	}

	// Copy-on-write: if nextTakers currently aliases currentTakers (i.e. no
	// pending Put iteration owns a distinct slice yet), allocate a fresh
	// backing array before mutating so any in-flight Put iterating
	// currentTakers is unaffected.
	if sliceAliases(m.nextTakers, m.currentTakers) {
		fresh := make([]*multicastTaker, len(m.nextTakers), len(m.nextTakers)+1)
		copy(fresh, m.nextTakers)
		m.nextTakers = fresh
	}
	m.nextTakers = append(m.nextTakers, t)

	return func() {
		if t.done {
			return
		}
		t.done = true
		if sliceAliases(m.nextTakers, m.currentTakers) {
			fresh := make([]*multicastTaker, 0, len(m.nextTakers))
			for _, existing := range m.nextTakers {
				if existing != t {
					fresh = append(fresh, existing)
				}
			}
			m.nextTakers = fresh
			return
		}
		for i, existing := range m.nextTakers {
			if existing == t {
				m.nextTakers = append(m.nextTakers[:i], m.nextTakers[i+1:]...)
				return
			}
		}
	}
}

// Close broadcasts End to the current snapshot and clears nextTakers.
func (m *Multicast) Close() {
	if m.closed {
		return
	}
	m.closed = true
	snapshot := m.currentTakers
	if !sliceAliases(m.nextTakers, m.currentTakers) {
		// Any takers registered since the last Put but not yet part of a
		// dispatch also receive End — they will never be matched otherwise.
		snapshot = m.nextTakers
	}
	m.currentTakers = snapshot
	m.nextTakers = nil
	for _, t := range snapshot {
		if !t.done {
			t.done = true
			t.deliver(End)
		}
	}
}

// IsClosed reports whether Close (or Put(End)) has happened.
func (m *Multicast) IsClosed() bool { return m.closed }

// sliceAliases reports whether a and b share the same backing array and
// length, i.e. whether mutating one in place would be visible through the
// other. A nil/nil or empty/empty pair trivially aliases.
func sliceAliases(a, b []*multicastTaker) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return &a[0] == &b[0]
}
