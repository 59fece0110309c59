// Package table implements the fixed-capacity process table and the
// index-linked queues threaded through it.
package table

import (
	"github.com/Solero93/OperatingSystems1/model/process"
)

// Table is a fixed arena of PCBs indexed by process id.
type Table struct {
	slots []process.PCB
}

// New creates a table with capacity slots, all Unused.
func New(capacity int) *Table {
	ret := &Table{slots: make([]process.PCB, capacity)}
	for i := range ret.slots {
		ret.slots[i].ID = process.ID(i)
		ret.slots[i].Reset()
	}
	return ret
}

// Cap returns the number of slots.
func (t *Table) Cap() int {
	return len(t.slots)
}

// Get returns the PCB at id or nil when id is out of range.
func (t *Table) Get(id process.ID) *process.PCB {
	if id < 0 || int(id) >= len(t.slots) {
		return nil
	}
	return &t.slots[id]
}

// AllocateSlot returns the first slot that is Unused or holds a terminated
// process whose resources were already released. Reclaimed slots are reset.
func (t *Table) AllocateSlot() (process.ID, bool) {
	for i := range t.slots {
		pcb := &t.slots[i]
		switch {
		case pcb.State == process.StateUnused:
			return pcb.ID, true
		case reclaimable(pcb):
			pcb.Reset()
			return pcb.ID, true
		}
	}
	return process.None, false
}

func reclaimable(pcb *process.PCB) bool {
	return pcb.State == process.StateTerminated && pcb.Image == nil && pcb.Stack == nil
}

// Each visits every slot in id order.
func (t *Table) Each(fn func(pcb *process.PCB)) {
	for i := range t.slots {
		fn(&t.slots[i])
	}
}

// Live returns the number of processes that are neither Unused nor Terminated.
func (t *Table) Live() int {
	count := 0
	for i := range t.slots {
		if t.slots[i].Live() {
			count++
		}
	}
	return count
}
