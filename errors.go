package sagarun

import (
	"errors"
	"fmt"
)

// Namespace prefixes every sentinel error this package defines, following
// the convention of a package-scoped error namespace.
const Namespace = "sagarun"

var (
	// ErrInvalidEffect is a programmer error: an Effect carries a Kind this
	// version of the interpreter does not recognize.
	ErrInvalidEffect = errors.New(Namespace + ": invalid effect")

	// ErrDoubleResume is a programmer error: the driving goroutine tried to
	// resume an already-terminated Task.
	ErrDoubleResume = errors.New(Namespace + ": task resumed after termination")

	// ErrTaskCancelled is the rejection reason a Task's promise settles with
	// when the task was cancelled rather than completed or aborted.
	ErrTaskCancelled = errors.New(Namespace + ": task cancelled")

	// ErrClosedChannelPut is a programmer error surfaced only in dev mode: a
	// Put landed on a channel recorded as closed while still holding pending
	// takers, which should never happen.
	ErrClosedChannelPut = errors.New(Namespace + ": put on a closed channel with pending takers")

	// ErrMiddlewareDidNotForward is the programmer error raised when a user
	// EffectMiddleware returned without ever invoking next.
	ErrMiddlewareDidNotForward = errors.New(Namespace + ": effect middleware did not forward the effect")

	// ErrFixedBufferOverflow is a programmer error surfaced only in dev
	// mode: a Put landed on a fixed buffer that was already holding its
	// full capacity.
	ErrFixedBufferOverflow = errors.New(Namespace + ": put on a full fixed buffer")

	errEventChannelNoUnsubscribe = errors.New(Namespace + ": subscribe did not return an unsubscribe function")

	errInvalidCallable = errors.New(Namespace + ": invalid callable signature")
)

// StackFrame is one entry of a SagaStack: the procedure name (or source
// location, if unnamed) that was running, and the effect it was evaluating
// when the failure occurred.
type StackFrame struct {
	Name   string
	Loc    string
	Effect string
}

// SagaStack is a synthesized trace of nested procedure names and the
// failing effect, attached to an AbortError for diagnostics.
type SagaStack []StackFrame

func (s SagaStack) String() string {
	out := ""
	for i, f := range s {
		if i > 0 {
			out += " <- "
		}
		name := f.Name
		if name == "" {
			name = f.Loc
		}
		out += fmt.Sprintf("%s[%s]", name, f.Effect)
	}
	return out
}

// AbortError is what an uncaught procedure failure surfaces as once it
// bubbles out through the fork queue.
type AbortError struct {
	Err   error
	Stack SagaStack
}

func (e *AbortError) Error() string {
	if len(e.Stack) == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Stack.String())
}

func (e *AbortError) Unwrap() error { return e.Err }

// newAbortError wraps err with the saga stack captured at the point of
// failure, unless err is already an *AbortError, in which case frame is
// appended rather than minting a second wrapper — only the innermost
// abort should create the error; outer procedures just add their frame.
func newAbortError(err error, frame StackFrame) *AbortError {
	var existing *AbortError
	if errors.As(err, &existing) {
		existing.Stack = append(existing.Stack, frame)
		return existing
	}
	return &AbortError{Err: err, Stack: SagaStack{frame}}
}
