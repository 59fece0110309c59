package process

// Transition describes a PCB state change observed by the kernel.
type Transition struct {
	PID  ID       `json:"pid"`
	From State    `json:"from"`
	To   State    `json:"to"`
	Tick uint64   `json:"tick"`
	PCB  Snapshot `json:"pcb"`
}

// Terminated reports whether the transition ends the process.
func (t *Transition) Terminated() bool {
	return t.To == StateTerminated
}
