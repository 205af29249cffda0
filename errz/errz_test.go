package errz

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueryError(t *testing.T) {
	err := TypeErrorf("number (1) and string (%q) cannot be added", "a")
	require.Equal(t, `type error: number (1) and string ("a") cannot be added`, err.Error())
	require.False(t, IsFatal(err))

	cause := errors.New("boom")
	wrapped := RuntimeErrorf("failed").WithCause(cause)
	require.ErrorIs(t, wrapped, cause)
}

func TestProgramErrorIs(t *testing.T) {
	err := NewProgramError(PopEmptyScope, "ret").At(7, "RET")
	require.ErrorIs(t, err, ErrPopEmptyScope)
	require.NotErrorIs(t, err, ErrPopEmptyStack)
	require.True(t, IsFatal(fmt.Errorf("wrapped: %w", err)))
	require.Equal(t,
		"program error: tried to pop a scope but there was no scope to pop (ret) at 7 RET",
		err.Error())
	require.Equal(t, -1, ErrPopEmptyScope.PC)
}

func TestRecover(t *testing.T) {
	require.NoError(t, Recover(nil))

	err := func() (err error) {
		defer func() { err = Recover(recover()) }()
		panic(ErrUnknownSlot)
	}()
	require.ErrorIs(t, err, ErrUnknownSlot)

	require.Panics(t, func() {
		_ = func() (err error) {
			defer func() { err = Recover(recover()) }()
			panic("not a program error")
		}()
	})
}
