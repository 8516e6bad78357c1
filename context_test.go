package sagarun

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTaskContextChildInheritsParentKeys(t *testing.T) {
	parent := newTaskContext(nil)
	parent.merge(map[string]any{"a": 1})

	child := parent.childOf()
	v, ok := child.get("a")
	require.True(t, ok)
	require.Equal(t, 1, v)
}

func TestTaskContextChildWritesNeverEscapeToParent(t *testing.T) {
	parent := newTaskContext(nil)
	child := parent.childOf()
	child.merge(map[string]any{"b": 2})

	_, ok := parent.get("b")
	require.False(t, ok)

	v, ok := child.get("b")
	require.True(t, ok)
	require.Equal(t, 2, v)
}

func TestTaskContextChildOverridesParentKeyLocally(t *testing.T) {
	parent := newTaskContext(nil)
	parent.merge(map[string]any{"a": 1})
	child := parent.childOf()
	child.merge(map[string]any{"a": 2})

	v, _ := child.get("a")
	require.Equal(t, 2, v)

	v, _ = parent.get("a")
	require.Equal(t, 1, v)
}

func TestTaskContextMissingKeyReportsNotOK(t *testing.T) {
	tc := newTaskContext(nil)
	_, ok := tc.get("nope")
	require.False(t, ok)
}
