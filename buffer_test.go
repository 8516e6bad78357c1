package sagarun

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFixedBufferPanicsWhenFullInDevMode(t *testing.T) {
	b := NewFixedBuffer(2)
	b.Put(1)
	b.Put(2)

	require.PanicsWithValue(t, ErrFixedBufferOverflow, func() { b.Put(3) })

	v, ok := b.Take()
	require.True(t, ok)
	require.Equal(t, 1, v)

	v, ok = b.Take()
	require.True(t, ok)
	require.Equal(t, 2, v)

	_, ok = b.Take()
	require.False(t, ok)
}

func TestFixedBufferDropsWhenFullOutsideDevMode(t *testing.T) {
	SetDevMode(false)
	defer SetDevMode(true)

	b := NewFixedBuffer(2)
	b.Put(1)
	b.Put(2)
	b.Put(3)

	got := b.Flush()
	require.Equal(t, []any{1, 2}, got)
}

func TestDroppingBufferKeepsOldest(t *testing.T) {
	b := NewDroppingBuffer(2)
	b.Put(1)
	b.Put(2)
	b.Put(3)

	got := b.Flush()
	require.Equal(t, []any{1, 2}, got)
}

func TestSlidingBufferKeepsNewest(t *testing.T) {
	b := NewSlidingBuffer(2)
	b.Put(1)
	b.Put(2)
	b.Put(3)

	got := b.Flush()
	require.Equal(t, []any{2, 3}, got)
}

func TestExpandingBufferNeverDrops(t *testing.T) {
	b := NewExpandingBuffer()
	for i := 0; i < 100; i++ {
		b.Put(i)
	}
	require.Len(t, b.Flush(), 100)
}

func TestNoneBufferNeverRetains(t *testing.T) {
	b := NewNoneBuffer()
	b.Put(1)
	require.True(t, b.IsEmpty())
	_, ok := b.Take()
	require.False(t, ok)
}

func TestRingBufferFlushRecyclesBackingSlice(t *testing.T) {
	b := NewFixedBuffer(4)
	b.Put("a")
	b.Put("b")

	first := b.Flush()
	require.Equal(t, []any{"a", "b"}, first)

	b.Put("c")
	second := b.Flush()
	require.Equal(t, []any{"c"}, second)
}
