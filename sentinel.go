package sagarun

// Sentinels are compared by pointer identity only, never by value, so a
// procedure can distinguish them from any ordinary user data even when that
// data happens to have the same underlying Go type.

type endSentinel struct{}
type cancelSentinel struct{}
type selfCancelSentinel struct{}

// End terminates a channel. Every outstanding taker observes it exactly
// once; a take on a channel that is already closed observes it
// synchronously. Used as a value inside a channel, End is indistinguishable
// from the closed-channel terminator by design — both are this exact
// pointer.
var End = &endSentinel{}

// TaskCancel is delivered to a procedure's Yield call in place of a normal
// resume value when the owning Task has been cancelled. It is never an
// error: errors.Is and errors.As never match it.
var TaskCancel = &cancelSentinel{}

// SelfCancellation, passed to Cancel, means "cancel the task issuing this
// effect" rather than naming an explicit Task.
var SelfCancellation = &selfCancelSentinel{}

// IsCancellation reports whether v is the TaskCancel sentinel. It exists for
// callers who would rather not write "v == TaskCancel" at every call site.
func IsCancellation(v any) bool {
	return v == TaskCancel
}
