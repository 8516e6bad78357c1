package sagarun

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInvokeCallableDirectShapes(t *testing.T) {
	res := invokeCallable(func() (any, error) { return 1, nil }, nil)
	require.Equal(t, 1, res.value)
	require.NoError(t, res.err)

	boom := errors.New("boom")
	res = invokeCallable(func() (any, error) { return nil, boom }, nil)
	require.ErrorIs(t, res.err, boom)

	res = invokeCallable(func() any { return "plain" }, nil)
	require.Equal(t, "plain", res.value)

	called := false
	res = invokeCallable(func() { called = true }, nil)
	require.True(t, called)
	require.Nil(t, res.value)
	require.NoError(t, res.err)

	res = invokeCallable(func(args ...any) any { return len(args) }, []any{1, 2, 3})
	require.Equal(t, 3, res.value)
}

func TestInvokeCallableFallsBackToReflectionForTypedSignatures(t *testing.T) {
	add := func(a, b int) int { return a + b }
	res := invokeCallable(add, []any{2, 3})
	require.NoError(t, res.err)
	require.Equal(t, 5, res.value)
}

func TestInvokeCallableReflectionDetectsTrailingError(t *testing.T) {
	boom := errors.New("boom")
	fn := func(a int) (int, error) {
		if a < 0 {
			return 0, boom
		}
		return a * 2, nil
	}

	res := invokeCallable(fn, []any{4})
	require.NoError(t, res.err)
	require.Equal(t, 8, res.value)

	res = invokeCallable(fn, []any{-1})
	require.ErrorIs(t, res.err, boom)
}

func TestInvokeCallableRecoversPanics(t *testing.T) {
	res := invokeCallable(func() any { panic("kaboom") }, nil)
	require.Error(t, res.err)
	require.Contains(t, res.err.Error(), "kaboom")
}

func TestInvokeCallableRejectsNonFunc(t *testing.T) {
	res := invokeCallable(42, nil)
	require.ErrorIs(t, res.err, errInvalidCallable)
}
