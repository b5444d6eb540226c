package state

import (
	"stocktrack/bizerror"
)

var ErrIllegalTransition = &bizerror.ErrConflict{Code: "dataadmin.illegal_status_transition", Message: "illegal status transition"}

type StateMachineTraits interface {
	AvailableTransitions(fromState string, toState string) []Transition
}

// StateMachine is stateless, it only computes transitions between named states.
type StateMachine struct {
	States      []State      `json:"states"`
	Transitions []Transition `json:"transitions"`
}

type State struct {
	Name string `json:"name"`
}

type Transition struct {
	Name string `json:"name"`
	From State  `json:"from"`
	To   State  `json:"to"`
}

func NewStateMachine(states []State, transitions []Transition) *StateMachine {
	return &StateMachine{States: states, Transitions: transitions}
}

// AvailableTransitions matches states exactly, the empty name is a state of its own.
func (sm *StateMachine) AvailableTransitions(fromState string, toState string) []Transition {
	r := []Transition{}
	for _, transition := range sm.Transitions {
		if fromState == transition.From.Name && toState == transition.To.Name {
			r = append(r, transition)
		}
	}
	return r
}

// Transit returns the transition leading from fromState to toState, or ErrIllegalTransition.
func (sm *StateMachine) Transit(fromState string, toState string) (*Transition, error) {
	available := sm.AvailableTransitions(fromState, toState)
	if len(available) == 0 {
		return nil, ErrIllegalTransition
	}
	return &available[0], nil
}
