// Package accounting keeps a record of every terminated process.
package accounting

import (
	"strconv"
	"time"

	"github.com/Solero93/OperatingSystems1/model/process"
)

// Record summarises the life of one terminated process. Seq orders records
// by termination; slot ids are reused so they can not serve as keys.
type Record struct {
	Seq            int                `json:"seq" yaml:"seq"`
	BootID         string             `json:"bootId,omitempty" yaml:"bootId,omitempty"`
	PID            process.ID         `json:"pid" yaml:"pid"`
	Program        string             `json:"program" yaml:"program"`
	ParentID       process.ID         `json:"parentId" yaml:"parentId"`
	CPUTicks       int                `json:"cpuTicks" yaml:"cpuTicks"`
	RoundCount     int                `json:"roundCount" yaml:"roundCount"`
	ExitReason     process.ExitReason `json:"exitReason" yaml:"exitReason"`
	CreatedTick    uint64             `json:"createdTick" yaml:"createdTick"`
	TerminatedTick uint64             `json:"terminatedTick" yaml:"terminatedTick"`
	RecordedAt     time.Time          `json:"recordedAt" yaml:"recordedAt"`
}

// Key returns the store key of r.
func Key(r *Record) int {
	return r.Seq
}

// Field returns the filterable value of the named field.
func (r *Record) Field(name string) (string, bool) {
	switch name {
	case "Program":
		return r.Program, true
	case "ExitReason":
		return string(r.ExitReason), true
	case "PID":
		return strconv.Itoa(int(r.PID)), true
	case "BootID":
		return r.BootID, true
	}
	return "", false
}

// Elapsed returns the ticks between creation and termination.
func (r *Record) Elapsed() uint64 {
	if r.TerminatedTick < r.CreatedTick {
		return 0
	}
	return r.TerminatedTick - r.CreatedTick
}
