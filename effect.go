package sagarun

import "sync/atomic"

// EffectKind discriminates the payload carried by an Effect. It is a closed
// enum: digestEffect switches over it exhaustively rather than relying on
// open interface dispatch.
type EffectKind int

const (
	KindTake EffectKind = iota
	KindPut
	KindCall
	KindCPS
	KindFork
	KindSpawn
	KindJoin
	KindCancel
	KindSelect
	KindAll
	KindRace
	KindActionChannel
	KindFlush
	KindCancelled
	KindGetContext
	KindSetContext
)

var effectIDs atomic.Uint64

// Effect is a tagged, immutable request for the runtime to perform some
// action on a procedure's behalf. Effects are only ever constructed through
// the package-level constructor functions below, so the Kind tag can be
// forged from library code but never confused with a raw Awaitable or a
// nested ProcFunc, which Yield also accepts directly.
type Effect struct {
	Kind    EffectKind
	id      uint64
	payload any
}

func newEffect(kind EffectKind, payload any) Effect {
	return Effect{Kind: kind, id: effectIDs.Add(1), payload: payload}
}

// takePayload is the payload of a Take effect.
type takePayload struct {
	channel Taker
	pattern any
	maybe   bool
}

// Take requests the next value matching pattern from the runtime's
// StdChannel. A take on a closed channel with no buffered value resumes the
// procedure with End as an ordinary value; it does not end the procedure.
func Take(pattern any) Effect {
	return newEffect(KindTake, takePayload{pattern: pattern})
}

// TakeFrom is Take against an explicit channel rather than the std channel.
func TakeFrom(channel Taker, pattern any) Effect {
	return newEffect(KindTake, takePayload{channel: channel, pattern: pattern})
}

// TakeMaybe is TakeFrom with the maybe flag set. On a closed, empty channel
// it behaves exactly like Take and TakeFrom: all three resume the procedure
// with End as an ordinary value.
func TakeMaybe(channel Taker, pattern any) Effect {
	return newEffect(KindTake, takePayload{channel: channel, pattern: pattern, maybe: true})
}

type putPayload struct {
	channel Putter
	action  any
}

// Put delivers action into channel (default: StdChannel).
func Put(action any) Effect {
	return newEffect(KindPut, putPayload{action: action})
}

// PutInto is Put against an explicit channel.
func PutInto(channel Putter, action any) Effect {
	return newEffect(KindPut, putPayload{channel: channel, action: action})
}

type callPayload struct {
	fn   any
	args []any
}

// Call invokes fn synchronously (capturing panics as errors). fn may have
// any of the signatures accepted by invokeCallable; if the result is an
// Awaitable the runtime awaits it, if it is a ProcFunc the runtime recurses
// into it as a nested procedure.
func Call(fn any, args ...any) Effect {
	return newEffect(KindCall, callPayload{fn: fn, args: args})
}

// NodeStyleCallback is the Node-style (err, result) callback CPS invokes fn
// with as its final argument.
type NodeStyleCallback func(err error, result any)

type cpsPayload struct {
	fn   func(args []any, cb NodeStyleCallback) Canceller
	args []any
}

// CPS invokes fn(args..., cb); fn must call cb exactly once and may return a
// Canceller describing how to abort the in-flight call.
func CPS(fn func(args []any, cb NodeStyleCallback) Canceller, args ...any) Effect {
	return newEffect(KindCPS, cpsPayload{fn: fn, args: args})
}

type forkPayload struct {
	fn   ProcFunc
	name string
}

// Fork starts fn as a child procedure attached to the current procedure's
// fork queue: the parent is not "complete" until the child terminates, and
// an error in the child aborts the parent.
func Fork(fn ProcFunc) Effect { return newEffect(KindFork, forkPayload{fn: fn}) }

// ForkNamed is Fork with an explicit Task.Meta.Name for diagnostics.
func ForkNamed(name string, fn ProcFunc) Effect {
	return newEffect(KindFork, forkPayload{fn: fn, name: name})
}

// Spawn starts fn as a detached child: it is unreachable from the spawning
// procedure's fork queue and its failure never aborts the spawner.
func Spawn(fn ProcFunc) Effect { return newEffect(KindSpawn, forkPayload{fn: fn}) }

// SpawnNamed is Spawn with an explicit Task.Meta.Name.
func SpawnNamed(name string, fn ProcFunc) Effect {
	return newEffect(KindSpawn, forkPayload{fn: fn, name: name})
}

// Join waits for target's terminal value; if target already terminated it
// resolves (or throws) immediately.
func Join(target *Task) Effect { return newEffect(KindJoin, target) }

// Cancel cancels target, or the issuing task itself when target is
// SelfCancellation.
func Cancel(target any) Effect { return newEffect(KindCancel, target) }

type selectPayload struct {
	selector func(state any, args ...any) any
	getState func() any
	args     []any
}

// Select invokes selector(getState(), args...) synchronously.
func Select(getState func() any, selector func(state any, args ...any) any, args ...any) Effect {
	return newEffect(KindSelect, selectPayload{selector: selector, getState: getState, args: args})
}

// All fans effects out and resolves once every member has succeeded,
// preserving the shape of effects: map[string]Effect -> map[string]any,
// []Effect -> []any. Both empty forms resolve synchronously.
func All(effects any) Effect { return newEffect(KindAll, effects) }

// Race fans effects out and resolves with the single-key result of whichever
// member completes first with a non-cancelled value; losers are cancelled.
func Race(effects any) Effect { return newEffect(KindRace, effects) }

type actionChannelPayload struct {
	pattern any
	buffer  Buffer
}

// ActionChannel creates a buffered single-consumer channel that mirrors
// every subsequent StdChannel input matching pattern until it observes End.
func ActionChannel(pattern any) Effect {
	return newEffect(KindActionChannel, actionChannelPayload{pattern: pattern, buffer: NewExpandingBuffer()})
}

// ActionChannelBuffered is ActionChannel with an explicit Buffer.
func ActionChannelBuffered(pattern any, buffer Buffer) Effect {
	return newEffect(KindActionChannel, actionChannelPayload{pattern: pattern, buffer: buffer})
}

// Flush drains ch's buffer without waiting for it to fill.
func Flush(ch Flusher) Effect { return newEffect(KindFlush, ch) }

// Cancelled reports whether the enclosing main task's cancelled flag is set.
func Cancelled() Effect { return newEffect(KindCancelled, nil) }

// GetContext reads a single key from the issuing task's context.
func GetContext(key string) Effect { return newEffect(KindGetContext, key) }

// SetContext merges obj into the issuing task's own context layer.
func SetContext(obj map[string]any) Effect { return newEffect(KindSetContext, obj) }
