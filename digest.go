package sagarun

// digest is the single entry point drainLoop calls with whatever the
// procedure goroutine yielded: an Effect, an Awaitable, or a nested
// ProcFunc. It returns nil when the thing in flight is
// asynchronous — some later callback will call p.resume — or a resumeMsg
// to inject immediately when it already has a value.
func (p *proc) digest(v any) *resumeMsg {
	switch val := v.(type) {
	case Effect:
		return p.digestEffect(val)
	case Awaitable:
		return p.digestAwaitable(val)
	case ProcFunc:
		return p.digestProcFunc(val, "")
	default:
		return &resumeMsg{err: ErrInvalidEffect}
	}
}

func (p *proc) digestAwaitable(aw Awaitable) *resumeMsg {
	settled := false
	p.pendingCancel = aw.Cancel
	aw.Then(
		func(v any) {
			if settled {
				return
			}
			settled = true
			p.pendingCancel = nil
			p.sched.asap(func() { p.resume(v, nil) })
		},
		func(err error) {
			if settled {
				return
			}
			settled = true
			p.pendingCancel = nil
			p.sched.asap(func() { p.resume(nil, err) })
		},
	)
	return nil
}

// digestProcFunc runs fn as a nested procedure sharing this task's fate:
// unlike Fork, its failure is reported back at the yield point rather than
// aborting the enclosing fork queue, so it is not attached as a member.
func (p *proc) digestProcFunc(fn ProcFunc, name string) *resumeMsg {
	child := p.forkChild(fn, name, false)
	child.onTerminal(func(result any, err error, cancelled bool) {
		p.sched.asap(func() {
			if cancelled {
				p.resume(nil, ErrTaskCancelled)
				return
			}
			p.resume(result, err)
		})
	})
	return nil
}

// forkChild starts fn as a genuinely new Task, recursing into its proc
// synchronously until it first suspends or terminates: the
// same goroutine driving p temporarily drives the child, then returns here
// once it blocks. attach controls whether the child becomes a member of
// p's own forkQueue (Fork does; Spawn and inline Call recursion don't).
func (p *proc) forkChild(fn ProcFunc, name string, attach bool) *Task {
	child := newTask(name, nil)
	childCtx := p.taskCtx.childOf()
	cp := newProc(p, child, childCtx)
	if attach {
		p.attachFork(cp, child)
	}

	if p.gov == nil {
		cp.start(fn)
		return child
	}

	// Bounded by a governor: the Task handle is returned immediately either
	// way, but its goroutine may not start running until a sibling
	// releases a slot.
	p.gov.schedule(func(release func()) {
		child.onTerminal(func(any, error, bool) { release() })
		cp.start(fn)
	})
	return child
}

// attachFork registers child as a member of p's own fork queue, but settles
// that membership only once cp's own fork queue fully drains — child's body
// returning is not enough if child itself forked attached grandchildren
// still running. A shadow task stands in for child in p.fq so that child's
// own cont (installed by cp.fq via newProc) is never overwritten: cp.fq's
// onComplete/onError fire exactly once, once child and everything it forked
// has terminated, and relay that outcome onto the shadow.
func (p *proc) attachFork(cp *proc, child *Task) {
	proxy := newShadowTask(child.Meta)
	proxy.p = cp // cancelling the shadow cancels child's proc
	p.fq.addTask(proxy)

	cp.fq.onComplete = func(result any) {
		proxy.finish(StatusDone, result, nil)
	}
	cp.fq.onError = func(err error) {
		proxy.finish(StatusAborted, nil, err)
	}
}

// applyMiddleware runs e through the configured EffectMiddleware chain in
// order. A middleware that never calls next is a programmer error: in dev
// mode it panics immediately rather than silently swallowing the effect.
func (p *proc) applyMiddleware(e Effect) Effect {
	result := e
	for _, mw := range p.middle {
		forwarded := false
		var next Effect
		mw(result, func(eff Effect) {
			forwarded = true
			next = eff
		})
		if !forwarded {
			if DevMode() {
				panic(ErrMiddlewareDidNotForward)
			}
			continue
		}
		result = next
	}
	return result
}

func (p *proc) digestEffect(e Effect) *resumeMsg {
	e = p.applyMiddleware(e)
	taskID := p.main.ID.String()
	p.monitor.EffectTriggered(e.Kind, taskID)

	resume := p.dispatch(e)
	if resume == nil {
		return nil
	}
	if resume.err != nil {
		p.monitor.EffectRejected(e.Kind, taskID)
	} else {
		p.monitor.EffectResolved(e.Kind, taskID)
	}
	return resume
}

func (p *proc) dispatch(e Effect) *resumeMsg {
	switch e.Kind {
	case KindTake:
		return p.handleTake(e)
	case KindPut:
		return p.handlePut(e)
	case KindCall:
		return p.handleCall(e)
	case KindCPS:
		return p.handleCPS(e)
	case KindFork:
		payload := e.payload.(forkPayload)
		return &resumeMsg{value: p.forkChild(payload.fn, payload.name, true)}
	case KindSpawn:
		payload := e.payload.(forkPayload)
		return &resumeMsg{value: p.forkChild(payload.fn, payload.name, false)}
	case KindJoin:
		return p.handleJoin(e)
	case KindCancel:
		return p.handleCancel(e)
	case KindSelect:
		return p.handleSelect(e)
	case KindAll:
		return p.handleAll(e)
	case KindRace:
		return p.handleRace(e)
	case KindActionChannel:
		return p.handleActionChannel(e)
	case KindFlush:
		return p.handleFlush(e)
	case KindCancelled:
		return &resumeMsg{value: p.main.IsCancelled()}
	case KindGetContext:
		v, _ := p.taskCtx.get(e.payload.(string))
		return &resumeMsg{value: v}
	case KindSetContext:
		p.taskCtx.merge(e.payload.(map[string]any))
		return &resumeMsg{}
	default:
		return &resumeMsg{err: ErrInvalidEffect}
	}
}

func (p *proc) handleTake(e Effect) *resumeMsg {
	payload := e.payload.(takePayload)
	ch := payload.channel
	if ch == nil {
		ch = p.std
	}

	resolved := false
	cancelFn := ch.take(payload.pattern, func(v any, isEnd bool) {
		if resolved {
			return
		}
		resolved = true
		p.pendingCancel = nil
		value := v
		if isEnd && !payload.maybe {
			value = End
		}
		p.sched.asap(func() { p.resume(value, nil) })
	})
	if !resolved {
		p.pendingCancel = cancelFn
	}
	return nil
}

func (p *proc) handlePut(e Effect) *resumeMsg {
	payload := e.payload.(putPayload)
	if payload.channel == nil {
		p.std.internalPut(payload.action)
	} else {
		payload.channel.put(payload.action)
	}
	return &resumeMsg{}
}

func (p *proc) handleCall(e Effect) *resumeMsg {
	payload := e.payload.(callPayload)
	res := invokeCallable(payload.fn, payload.args)
	if res.err != nil {
		return &resumeMsg{err: res.err}
	}
	switch v := res.value.(type) {
	case Awaitable:
		return p.digestAwaitable(v)
	case ProcFunc:
		return p.digestProcFunc(v, "")
	default:
		return &resumeMsg{value: res.value}
	}
}

func (p *proc) handleCPS(e Effect) *resumeMsg {
	payload := e.payload.(cpsPayload)
	resolved := false
	cancelFn := payload.fn(payload.args, func(err error, result any) {
		if resolved {
			return
		}
		resolved = true
		p.pendingCancel = nil
		p.sched.asap(func() { p.resume(result, err) })
	})
	if !resolved && cancelFn != nil {
		p.pendingCancel = func() { cancelFn() }
	}
	return nil
}

func (p *proc) handleJoin(e Effect) *resumeMsg {
	target := e.payload.(*Task)
	detach := target.onTerminal(func(result any, err error, cancelled bool) {
		p.pendingCancel = nil
		if cancelled {
			p.sched.asap(func() { p.resume(nil, ErrTaskCancelled) })
			return
		}
		p.sched.asap(func() { p.resume(result, err) })
	})
	p.pendingCancel = detach
	return nil
}

func (p *proc) handleCancel(e Effect) *resumeMsg {
	target := e.payload
	if target == SelfCancellation {
		target = p.main
	}
	if t, ok := target.(*Task); ok && t != nil {
		t.Cancel()
	}
	return &resumeMsg{}
}

func (p *proc) handleSelect(e Effect) (resume *resumeMsg) {
	payload := e.payload.(selectPayload)
	defer func() {
		if r := recover(); r != nil {
			resume = &resumeMsg{err: panicToError(r)}
		}
	}()
	state := payload.getState()
	return &resumeMsg{value: payload.selector(state, payload.args...)}
}

func wrapEffect(eff Effect) ProcFunc {
	return func(yield Yield) (any, error) { return yield(eff) }
}

func (p *proc) handleAll(e Effect) *resumeMsg {
	switch items := e.payload.(type) {
	case []Effect:
		if len(items) == 0 {
			return &resumeMsg{value: []any{}}
		}
		return p.allSlice(items)
	case map[string]Effect:
		if len(items) == 0 {
			return &resumeMsg{value: map[string]any{}}
		}
		return p.allMap(items)
	default:
		return &resumeMsg{err: ErrInvalidEffect}
	}
}

func (p *proc) allSlice(items []Effect) *resumeMsg {
	n := len(items)
	results := make([]any, n)
	children := make([]*Task, n)
	remaining := n
	settled := false

	finish := func(resume *resumeMsg) {
		if settled {
			return
		}
		settled = true
		p.pendingCancel = nil
		p.sched.asap(func() { p.resume(resume.value, resume.err) })
	}
	p.pendingCancel = func() {
		for _, c := range children {
			if c != nil {
				c.Cancel()
			}
		}
	}

	for i, eff := range items {
		i := i
		child := p.forkChild(wrapEffect(eff), "", false)
		children[i] = child
		child.onTerminal(func(result any, err error, cancelled bool) {
			if settled {
				return
			}
			if cancelled {
				finish(&resumeMsg{err: ErrTaskCancelled})
				return
			}
			if err != nil {
				for j, c := range children {
					if j != i && c != nil {
						c.Cancel()
					}
				}
				finish(&resumeMsg{err: err})
				return
			}
			results[i] = result
			remaining--
			if remaining == 0 {
				out := make([]any, n)
				copy(out, results)
				finish(&resumeMsg{value: out})
			}
		})
	}
	return nil
}

func (p *proc) allMap(items map[string]Effect) *resumeMsg {
	results := make(map[string]any, len(items))
	children := make(map[string]*Task, len(items))
	remaining := len(items)
	settled := false

	finish := func(resume *resumeMsg) {
		if settled {
			return
		}
		settled = true
		p.pendingCancel = nil
		p.sched.asap(func() { p.resume(resume.value, resume.err) })
	}
	p.pendingCancel = func() {
		for _, c := range children {
			if c != nil {
				c.Cancel()
			}
		}
	}

	for k, eff := range items {
		k := k
		child := p.forkChild(wrapEffect(eff), "", false)
		children[k] = child
		child.onTerminal(func(result any, err error, cancelled bool) {
			if settled {
				return
			}
			if cancelled {
				finish(&resumeMsg{err: ErrTaskCancelled})
				return
			}
			if err != nil {
				for j, c := range children {
					if j != k && c != nil {
						c.Cancel()
					}
				}
				finish(&resumeMsg{err: err})
				return
			}
			results[k] = result
			remaining--
			if remaining == 0 {
				out := make(map[string]any, len(results))
				for rk, rv := range results {
					out[rk] = rv
				}
				finish(&resumeMsg{value: out})
			}
		})
	}
	return nil
}

func (p *proc) handleRace(e Effect) *resumeMsg {
	switch items := e.payload.(type) {
	case []Effect:
		return p.raceSlice(items)
	case map[string]Effect:
		return p.raceMap(items)
	default:
		return &resumeMsg{err: ErrInvalidEffect}
	}
}

func (p *proc) raceSlice(items []Effect) *resumeMsg {
	n := len(items)
	children := make([]*Task, n)
	settled := false

	finish := func(idx int, value any, err error, cancelled bool) {
		if settled {
			return
		}
		settled = true
		p.pendingCancel = nil
		for j, c := range children {
			if j != idx && c != nil {
				c.Cancel()
			}
		}
		if cancelled {
			p.sched.asap(func() { p.resume(nil, ErrTaskCancelled) })
			return
		}
		if err != nil {
			p.sched.asap(func() { p.resume(nil, err) })
			return
		}
		out := make([]any, n)
		out[idx] = value
		p.sched.asap(func() { p.resume(out, nil) })
	}
	p.pendingCancel = func() {
		for _, c := range children {
			if c != nil {
				c.Cancel()
			}
		}
	}

	for i, eff := range items {
		if settled {
			break
		}
		i := i
		child := p.forkChild(wrapEffect(eff), "", false)
		children[i] = child
		child.onTerminal(func(result any, err error, cancelled bool) {
			finish(i, result, err, cancelled)
		})
	}
	return nil
}

func (p *proc) raceMap(items map[string]Effect) *resumeMsg {
	keys := make([]string, 0, len(items))
	children := make(map[string]*Task, len(items))
	settled := false

	finish := func(key string, value any, err error, cancelled bool) {
		if settled {
			return
		}
		settled = true
		p.pendingCancel = nil
		for k, c := range children {
			if k != key && c != nil {
				c.Cancel()
			}
		}
		if cancelled {
			p.sched.asap(func() { p.resume(nil, ErrTaskCancelled) })
			return
		}
		if err != nil {
			p.sched.asap(func() { p.resume(nil, err) })
			return
		}
		out := map[string]any{key: value}
		p.sched.asap(func() { p.resume(out, nil) })
	}
	p.pendingCancel = func() {
		for _, c := range children {
			if c != nil {
				c.Cancel()
			}
		}
	}

	for k, eff := range items {
		if settled {
			break
		}
		k := k
		child := p.forkChild(wrapEffect(eff), "", false)
		children[k] = child
		keys = append(keys, k)
		child.onTerminal(func(result any, err error, cancelled bool) {
			finish(k, result, err, cancelled)
		})
	}
	return nil
}

func (p *proc) handleActionChannel(e Effect) *resumeMsg {
	payload := e.payload.(actionChannelPayload)
	ch := NewChannel(payload.buffer)

	var register func()
	register = func() {
		p.std.take(payload.pattern, func(v any, isEnd bool) {
			if isEnd {
				ch.Close()
				return
			}
			ch.put(v)
			register()
		})
	}
	register()

	return &resumeMsg{value: ch}
}

func (p *proc) handleFlush(e Effect) *resumeMsg {
	var result []any
	e.payload.(Flusher).flush(func(vs []any) { result = vs })
	return &resumeMsg{value: result}
}
