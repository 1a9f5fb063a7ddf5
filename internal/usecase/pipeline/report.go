package pipeline

import "time"

// PhaseReport summarizes one phase.
type PhaseReport struct {
	Phase    State
	Deleted  int
	Created  int
	Duration time.Duration
	Err      error
}

// Report summarizes a run.
type Report struct {
	State       State
	FailedPhase State // empty unless State is StateAborted
	History     []State
	Phases      []PhaseReport
	Duration    time.Duration
}

// Created sums created documents over all phases.
func (r Report) Created() int {
	n := 0
	for _, p := range r.Phases {
		n += p.Created
	}
	return n
}

// Deleted sums deleted documents and files over all phases.
func (r Report) Deleted() int {
	n := 0
	for _, p := range r.Phases {
		n += p.Deleted
	}
	return n
}

// Phase returns the report of phase, if it ran.
func (r Report) Phase(phase State) (PhaseReport, bool) {
	for _, p := range r.Phases {
		if p.Phase == phase {
			return p, true
		}
	}
	return PhaseReport{}, false
}
