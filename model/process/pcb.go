package process

import (
	"github.com/Solero93/OperatingSystems1/hal"
)

// ID identifies a process; it equals the process table slot index.
type ID int

const (
	// None marks an empty link or the absence of a current process.
	None ID = -1
	// NoParent is the parent of the root process and of orphans the root can not adopt.
	NoParent ID = -1
)

// Valid reports whether id refers to a table slot.
func (id ID) Valid() bool {
	return id >= 0
}

// PCB is a process control block; one per table slot.
type PCB struct {
	ID      ID
	State   State
	Program string
	Context hal.Context
	Stack   hal.Stack
	Image   hal.Image

	SleepTicks     int
	SliceRemaining int
	RoundCount     int
	ParentID       ID
	ChildCount     int
	CPUTicks       int
	ExitReason     ExitReason

	// Link chains the PCB into at most one queue.
	Link ID

	result    int64
	hasResult bool
}

// Defer records a syscall result to be delivered once the process resumes.
func (p *PCB) Defer(value int64) {
	p.result = value
	p.hasResult = true
}

// TakeResult returns and clears a deferred syscall result.
func (p *PCB) TakeResult() (int64, bool) {
	if !p.hasResult {
		return 0, false
	}
	p.hasResult = false
	return p.result, true
}

// Reset returns the PCB to the Unused state, keeping its slot id.
func (p *PCB) Reset() {
	*p = PCB{ID: p.ID, State: StateUnused, ParentID: NoParent, Link: None}
}

// Live reports whether the slot holds a process that has not terminated.
func (p *PCB) Live() bool {
	return p.State != StateUnused && p.State != StateTerminated
}

// Snapshot returns a copy of the scheduling fields.
func (p *PCB) Snapshot() Snapshot {
	return Snapshot{
		ID:             p.ID,
		State:          p.State,
		Program:        p.Program,
		SleepTicks:     p.SleepTicks,
		SliceRemaining: p.SliceRemaining,
		RoundCount:     p.RoundCount,
		ParentID:       p.ParentID,
		ChildCount:     p.ChildCount,
		CPUTicks:       p.CPUTicks,
		ExitReason:     p.ExitReason,
	}
}

// Snapshot is a serialisable view of a PCB.
type Snapshot struct {
	ID             ID         `json:"id" yaml:"id"`
	State          State      `json:"state" yaml:"state"`
	Program        string     `json:"program" yaml:"program"`
	SleepTicks     int        `json:"sleepTicks" yaml:"sleepTicks"`
	SliceRemaining int        `json:"sliceRemaining" yaml:"sliceRemaining"`
	RoundCount     int        `json:"roundCount" yaml:"roundCount"`
	ParentID       ID         `json:"parentId" yaml:"parentId"`
	ChildCount     int        `json:"childCount" yaml:"childCount"`
	CPUTicks       int        `json:"cpuTicks" yaml:"cpuTicks"`
	ExitReason     ExitReason `json:"exitReason,omitempty" yaml:"exitReason,omitempty"`
}
