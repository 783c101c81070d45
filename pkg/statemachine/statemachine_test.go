package statemachine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/statemachine"
)

const (
	stateIdle    = statemachine.State("idle")
	stateRunning = statemachine.State("running")
	stateDone    = statemachine.State("done")

	eventStart  = statemachine.Event("start")
	eventFinish = statemachine.Event("finish")
)

func newMachine(t *testing.T) *statemachine.Machine {
	t.Helper()
	m := statemachine.New(stateIdle)
	require.NoError(t, m.AddTransition(statemachine.Transition{
		From: stateIdle, To: stateRunning, Event: eventStart,
	}))
	require.NoError(t, m.AddTransition(statemachine.Transition{
		From: stateRunning, To: stateDone, Event: eventFinish,
	}))
	return m
}

func TestFire(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("walks transitions in order", func(t *testing.T) {
		t.Parallel()
		m := newMachine(t)

		require.NoError(t, m.Fire(ctx, eventStart, nil))
		assert.Equal(t, stateRunning, m.Current())

		require.NoError(t, m.Fire(ctx, eventFinish, nil))
		assert.Equal(t, stateDone, m.Current())
	})

	t.Run("unknown event", func(t *testing.T) {
		t.Parallel()
		m := newMachine(t)

		err := m.Fire(ctx, eventFinish, nil)
		assert.True(t, statemachine.IsNoTransitionError(err))
		assert.Equal(t, stateIdle, m.Current())
	})

	t.Run("action failure keeps source state", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")

		m := statemachine.New(stateIdle)
		require.NoError(t, m.AddTransition(statemachine.Transition{
			From: stateIdle, To: stateRunning, Event: eventStart,
			Actions: []statemachine.Action{
				func(ctx context.Context, from, to statemachine.State, data any) error {
					return boom
				},
			},
		}))

		err := m.Fire(ctx, eventStart, nil)
		require.ErrorIs(t, err, boom)
		assert.Equal(t, stateIdle, m.Current())
	})

	t.Run("guard rejection", func(t *testing.T) {
		t.Parallel()

		m := statemachine.New(stateIdle)
		require.NoError(t, m.AddTransition(statemachine.Transition{
			From: stateIdle, To: stateRunning, Event: eventStart,
			Guards: []statemachine.Guard{
				func(ctx context.Context, from statemachine.State, data any) bool {
					return data != nil
				},
			},
		}))

		err := m.Fire(ctx, eventStart, nil)
		assert.True(t, statemachine.IsRejectedError(err))
		assert.False(t, m.CanFire(ctx, eventStart, nil))
		assert.True(t, m.CanFire(ctx, eventStart, "payload"))
	})

	t.Run("duplicate transition registration", func(t *testing.T) {
		t.Parallel()
		m := newMachine(t)
		err := m.AddTransition(statemachine.Transition{
			From: stateIdle, To: stateDone, Event: eventStart,
		})
		require.Error(t, err)
	})

	t.Run("reset", func(t *testing.T) {
		t.Parallel()
		m := newMachine(t)
		require.NoError(t, m.Fire(ctx, eventStart, nil))
		m.Reset()
		assert.Equal(t, stateIdle, m.Current())
	})
}
