package process

import (
	"encoding/json"
	"fmt"
)

// State represents the scheduling state of a PCB
type State int

const (
	StateUnused State = iota
	StateReady
	StateRunning
	StateSleeping
	StateWaiting
	StateTerminated
)

var stateNames = [...]string{"unused", "ready", "running", "sleeping", "waiting", "terminated"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalJSON encodes the state by name.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a state name.
func (s *State) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for i, candidate := range stateNames {
		if candidate == name {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown process state %q", name)
}

// ExitReason tells why a process terminated.
type ExitReason string

const (
	ExitNormal     ExitReason = "exit"
	ExitArithmetic ExitReason = "arithmetic"
	ExitMemory     ExitReason = "memory"
)
