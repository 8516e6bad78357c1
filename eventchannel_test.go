package sagarun

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEventChannelForwardsEmittedValues(t *testing.T) {
	var emit func(v any)
	ec, err := NewEventChannel(func(e func(v any)) (func(), error) {
		emit = e
		return func() {}, nil
	}, NewExpandingBuffer())
	require.NoError(t, err)

	emit("a")
	emit("b")

	var got []any
	ec.Flush(func(vs []any) { got = vs })
	require.Equal(t, []any{"a", "b"}, got)
}

func TestEventChannelRequiresUnsubscribe(t *testing.T) {
	_, err := NewEventChannel(func(func(v any)) (func(), error) {
		return nil, nil
	}, NewExpandingBuffer())
	require.ErrorIs(t, err, errEventChannelNoUnsubscribe)
}

func TestEventChannelPropagatesSubscribeError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewEventChannel(func(func(v any)) (func(), error) {
		return nil, boom
	}, NewExpandingBuffer())
	require.ErrorIs(t, err, boom)
}

func TestEventChannelCallsUnsubscribeWhenEndEmittedDuringSubscribe(t *testing.T) {
	unsubscribed := false
	ec, err := NewEventChannel(func(emit func(v any)) (func(), error) {
		emit(End)
		return func() { unsubscribed = true }, nil
	}, NewExpandingBuffer())
	require.NoError(t, err)
	require.True(t, ec.inner.IsClosed())
	require.True(t, unsubscribed, "unsubscribe must still run when End is emitted before subscribe returns")
}

func TestEventChannelCloseUnsubscribesExactlyOnce(t *testing.T) {
	calls := 0
	ec, err := NewEventChannel(func(func(v any)) (func(), error) {
		return func() { calls++ }, nil
	}, NewExpandingBuffer())
	require.NoError(t, err)

	ec.Close()
	ec.Close()
	require.Equal(t, 1, calls)
}
