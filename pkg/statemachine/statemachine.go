// Package statemachine implements a small finite state machine used to
// drive multi-step workflows with side effects, such as tenant
// provisioning. Transitions carry actions; an action returning an error
// blocks the transition and leaves the machine in its source state, which
// lets callers run compensation logic before moving to a failure state.
package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// State is a named machine state.
type State string

// Event is a named trigger for a transition.
type Event string

// Action runs the side effect attached to a transition. An error prevents
// the state change.
type Action func(ctx context.Context, from, to State, data any) error

// Guard decides at runtime whether a transition may fire.
type Guard func(ctx context.Context, from State, data any) bool

// Transition connects two states through an event.
type Transition struct {
	From    State
	To      State
	Event   Event
	Guards  []Guard
	Actions []Action
}

// Machine is a finite state machine. Safe for concurrent use, though
// workflow instances are typically built per operation.
type Machine struct {
	mu          sync.Mutex
	initial     State
	current     State
	transitions map[State]map[Event]Transition
}

// New creates a machine in the given initial state.
func New(initial State) *Machine {
	return &Machine{
		initial:     initial,
		current:     initial,
		transitions: make(map[State]map[Event]Transition),
	}
}

// AddTransition registers a transition. Only one transition per
// (from, event) pair is allowed.
func (m *Machine) AddTransition(t Transition) error {
	if t.From == "" || t.To == "" || t.Event == "" {
		return fmt.Errorf("statemachine: transition requires from, to and event")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	byEvent, ok := m.transitions[t.From]
	if !ok {
		byEvent = make(map[Event]Transition)
		m.transitions[t.From] = byEvent
	}
	if _, exists := byEvent[t.Event]; exists {
		return fmt.Errorf("statemachine: duplicate transition from %q on %q", t.From, t.Event)
	}
	byEvent[t.Event] = t
	return nil
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Fire triggers event. Guards are evaluated first; actions run in order
// before the state changes. If any action fails the machine stays in the
// source state and the error is returned.
func (m *Machine) Fire(ctx context.Context, event Event, data any) error {
	m.mu.Lock()
	from := m.current
	t, ok := m.lookup(from, event)
	m.mu.Unlock()
	if !ok {
		return &NoTransitionError{From: from, Event: event}
	}

	for _, g := range t.Guards {
		if !g(ctx, from, data) {
			return &RejectedError{From: from, Event: event}
		}
	}
	for _, a := range t.Actions {
		if err := a(ctx, from, t.To, data); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another Fire may have moved the machine while actions ran; the
	// transition only commits if the source state still holds.
	if m.current != from {
		return &NoTransitionError{From: m.current, Event: event}
	}
	m.current = t.To
	return nil
}

// CanFire reports whether event has a guard-approved transition from the
// current state.
func (m *Machine) CanFire(ctx context.Context, event Event, data any) bool {
	m.mu.Lock()
	from := m.current
	t, ok := m.lookup(from, event)
	m.mu.Unlock()
	if !ok {
		return false
	}
	for _, g := range t.Guards {
		if !g(ctx, from, data) {
			return false
		}
	}
	return true
}

// Reset returns the machine to its initial state.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.initial
}

func (m *Machine) lookup(from State, event Event) (Transition, bool) {
	byEvent, ok := m.transitions[from]
	if !ok {
		return Transition{}, false
	}
	t, ok := byEvent[event]
	return t, ok
}
