package pipeline

import "fmt"

// State is a pipeline state.
type State string

// Pipeline states in run order.
const (
	StateIdle                  State = "idle"
	StateResetting             State = "resetting"
	StateSeedingCategories     State = "seeding_categories"
	StateSeedingCustomizations State = "seeding_customizations"
	StateSeedingMenu           State = "seeding_menu"
	StateSeedingLinks          State = "seeding_links"
	StateVerifying             State = "verifying"
	StateDone                  State = "done"
	StateAborted               State = "aborted"
)

// forward lists the allowed non-abort transitions.
var forward = map[State][]State{
	StateIdle:                  {StateResetting},
	StateResetting:             {StateSeedingCategories},
	StateSeedingCategories:     {StateSeedingCustomizations},
	StateSeedingCustomizations: {StateSeedingMenu},
	StateSeedingMenu:           {StateSeedingLinks},
	StateSeedingLinks:          {StateVerifying, StateDone},
	StateVerifying:             {StateDone},
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted
}

// machine tracks one run's state and its history.
type machine struct {
	state   State
	history []State
}

func newMachine() *machine {
	return &machine{state: StateIdle, history: []State{StateIdle}}
}

// to moves to next. Aborted is reachable from every non-terminal state.
func (m *machine) to(next State) error {
	if m.state.Terminal() {
		return fmt.Errorf("transition %s -> %s: %s is terminal", m.state, next, m.state)
	}
	if next != StateAborted && !allowed(m.state, next) {
		return fmt.Errorf("transition %s -> %s is not allowed", m.state, next)
	}
	m.state = next
	m.history = append(m.history, next)
	return nil
}

func allowed(from, to State) bool {
	for _, s := range forward[from] {
		if s == to {
			return true
		}
	}
	return false
}
