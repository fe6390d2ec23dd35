package models

import "fmt"

// ItemState tracks a work item through one Execute call.
type ItemState string

const (
	StatePending   ItemState = "pending"
	StateRunning   ItemState = "running"
	StateSucceeded ItemState = "succeeded"
	StateFailed    ItemState = "failed"
	StateSkipped   ItemState = "skipped"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s ItemState) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateSkipped
}

// CanTransition reports whether an item may move from one state to another.
//
//	pending -> running -> succeeded | failed
//	pending -> skipped
func CanTransition(from, to ItemState) bool {
	switch from {
	case StatePending:
		return to == StateRunning || to == StateSkipped
	case StateRunning:
		return to == StateSucceeded || to == StateFailed
	default:
		return false
	}
}

// ItemStates holds the state of every item of a run, indexed like the
// item list.
type ItemStates []ItemState

// NewItemStates returns n pending states.
func NewItemStates(n int) ItemStates {
	states := make(ItemStates, n)
	for i := range states {
		states[i] = StatePending
	}
	return states
}

// Set moves item i to state to, rejecting illegal transitions.
func (s ItemStates) Set(i int, to ItemState) error {
	if i < 0 || i >= len(s) {
		return fmt.Errorf("item index %d out of range [0,%d)", i, len(s))
	}
	from := s[i]
	if !CanTransition(from, to) {
		return fmt.Errorf("item %d: illegal transition %s -> %s", i, from, to)
	}
	s[i] = to
	return nil
}

// Count returns the number of items in state st.
func (s ItemStates) Count(st ItemState) int {
	n := 0
	for _, v := range s {
		if v == st {
			n++
		}
	}
	return n
}
