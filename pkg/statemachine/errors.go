package statemachine

import (
	"errors"
	"fmt"
)

// NoTransitionError indicates no transition exists for a state/event pair.
type NoTransitionError struct {
	From  State
	Event Event
}

func (e *NoTransitionError) Error() string {
	return fmt.Sprintf("statemachine: no transition from %q on %q", e.From, e.Event)
}

// RejectedError indicates a guard blocked the transition.
type RejectedError struct {
	From  State
	Event Event
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("statemachine: transition from %q on %q rejected by guard", e.From, e.Event)
}

func IsNoTransitionError(err error) bool {
	var e *NoTransitionError
	return errors.As(err, &e)
}

func IsRejectedError(err error) bool {
	var e *RejectedError
	return errors.As(err, &e)
}
