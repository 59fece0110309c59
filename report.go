package minikernel

import (
	"github.com/Solero93/OperatingSystems1/progress"
	"github.com/Solero93/OperatingSystems1/runtime/kernel"
	"github.com/Solero93/OperatingSystems1/service/dao/accounting"
	"github.com/Solero93/OperatingSystems1/service/dispatch"
	"github.com/pmezard/go-difflib/difflib"
)

// Report is the outcome of a run.
type Report struct {
	BootID        string               `json:"bootId" yaml:"bootId"`
	Ticks         int                  `json:"ticks" yaml:"ticks"`
	IdleTicks     int                  `json:"idleTicks" yaml:"idleTicks"`
	Halted        string               `json:"halted,omitempty" yaml:"halted,omitempty"`
	Output        string               `json:"output" yaml:"output"`
	Live          int                  `json:"live" yaml:"live"`
	Snapshot      *kernel.Snapshot     `json:"snapshot" yaml:"snapshot"`
	Records       []*accounting.Record `json:"records" yaml:"records"`
	Stats         dispatch.Stats       `json:"stats" yaml:"stats"`
	Progress      progress.Counters    `json:"progress" yaml:"progress"`
	DroppedEvents int                  `json:"droppedEvents,omitempty" yaml:"droppedEvents,omitempty"`
	DeadLettered  int                  `json:"deadLettered,omitempty" yaml:"deadLettered,omitempty"`
}

// Diff returns a unified diff of expected against the console output, or
// an empty string when they match.
func (r *Report) Diff(expected string) (string, error) {
	if r.Output == expected {
		return "", nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(r.Output),
		FromFile: "expected",
		ToFile:   "console",
		Context:  2,
	})
}
