// Package actor provides the pieces every simulated world entity is built
// from: a named state with a state-local timer, and waypoint traversal.
package actor

// Machine tracks the current state of an actor and how long it has been in it,
// measured in nominal frames.
type Machine[S comparable] struct {
	state S
	timer float64
}

// NewMachine returns a machine in the initial state with a zero timer.
func NewMachine[S comparable](initial S) Machine[S] {
	return Machine[S]{state: initial}
}

func (m *Machine[S]) State() S {
	return m.state
}

// Timer is the elapsed time in the current state.
func (m *Machine[S]) Timer() float64 {
	return m.timer
}

// Advance adds dt to the state timer.
func (m *Machine[S]) Advance(dt float64) {
	m.timer += dt
}

// Transition moves to next and reports whether the state changed. The timer
// is only reset on a real change.
func (m *Machine[S]) Transition(next S) bool {
	if next == m.state {
		return false
	}
	m.state = next
	m.timer = 0
	return true
}

// Is reports whether the machine is in any of the given states.
func (m *Machine[S]) Is(states ...S) bool {
	for _, s := range states {
		if s == m.state {
			return true
		}
	}
	return false
}

// Ramp advances a normalized progress value by rate*dt toward 1. It returns
// the new value and the part of dt left over once 1 was reached.
func Ramp(t, rate, dt float64) (float64, float64) {
	if rate <= 0 {
		return t, 0
	}
	need := (1 - t) / rate
	if need < 0 {
		need = 0
	}
	if dt < need {
		return t + rate*dt, 0
	}
	return 1, dt - need
}

// Countdown consumes dt against a remaining duration and returns the
// remaining duration and the part of dt that overran it.
func Countdown(remaining, dt float64) (float64, float64) {
	if dt < remaining {
		return remaining - dt, 0
	}
	return 0, dt - remaining
}
