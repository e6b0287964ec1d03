package v1

import "time"

// ProcessState is the lifecycle state of a tracked launch.
type ProcessState string

const (
	ProcessStateStarting ProcessState = "Starting"
	ProcessStateRunning  ProcessState = "Running"
	ProcessStateStopping ProcessState = "Stopping"
	ProcessStateStopped  ProcessState = "Stopped"
	ProcessStateCrashed  ProcessState = "Crashed"
)

// legalTransitions lists the allowed next states for each state.
var legalTransitions = map[ProcessState][]ProcessState{
	ProcessStateStarting: {ProcessStateRunning, ProcessStateStopping, ProcessStateCrashed},
	ProcessStateRunning:  {ProcessStateStopping, ProcessStateStopped, ProcessStateCrashed},
	ProcessStateStopping: {ProcessStateStopped},
}

// CanTransitionTo reports whether moving from s to next is a legal transition.
func (s ProcessState) CanTransitionTo(next ProcessState) bool {
	for _, allowed := range legalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal returns true for states with no outgoing transitions.
func (s ProcessState) IsTerminal() bool {
	return s == ProcessStateStopped || s == ProcessStateCrashed
}

// IsValid returns true if s is one of the known states.
func (s ProcessState) IsValid() bool {
	switch s {
	case ProcessStateStarting, ProcessStateRunning, ProcessStateStopping, ProcessStateStopped, ProcessStateCrashed:
		return true
	}
	return false
}

// ProcessMetadata describes one tracked launch of a profile.
type ProcessMetadata struct {
	ID        string       `json:"id"`
	ProfileID string       `json:"profile_id"`
	StartTime time.Time    `json:"start_time"`
	State     ProcessState `json:"state"`
	PID       int          `json:"pid"`
}

// LaunchStatus answers is_profile_launching. Process is set only while launching.
type LaunchStatus struct {
	Launching bool             `json:"launching"`
	Process   *ProcessMetadata `json:"process,omitempty"`
}
