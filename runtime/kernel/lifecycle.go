package kernel

import (
	"context"
	"fmt"

	"github.com/Solero93/OperatingSystems1/model/process"
)

// Create loads program into a free table slot and appends it to the ready
// queue. The running process, if any, becomes its parent.
func (k *Kernel) Create(ctx context.Context, program string) (process.ID, error) {
	restore := k.mask()
	defer restore()
	id, ok := k.table.AllocateSlot()
	if !ok {
		return process.None, ErrNoFreeSlot
	}
	image, entry, err := k.hw.CreateExecutionImage(program)
	if err != nil {
		return process.None, fmt.Errorf("%w: %q: %w", ErrImageCreationFailed, program, err)
	}
	stack := k.hw.AllocateStack(k.config.StackSize)
	pcb := k.table.Get(id)
	pcb.Reset()
	pcb.Program = program
	pcb.Image = image
	pcb.Stack = stack
	pcb.Context = k.hw.InitializeContext(image, stack, entry)
	pcb.SliceRemaining = k.config.Quantum
	pcb.State = process.StateReady
	if parent := k.currentPCB(); parent != nil {
		pcb.ParentID = parent.ID
		parent.ChildCount++
	}
	if !k.rootAssigned {
		k.root = id
		k.rootAssigned = true
	}
	k.ready.EnqueueTail(id)
	k.notify(ctx, pcb, process.StateUnused)
	k.logger.Info("process created", "pid", id, "program", program, "parent", pcb.ParentID)
	return id, nil
}

// TerminateCurrent ends the running process and switches to the next one.
// The memory image is released before any queue changes.
func (k *Kernel) TerminateCurrent(ctx context.Context, reason process.ExitReason) error {
	pcb := k.currentPCB()
	if pcb == nil {
		return ErrNoCurrentProcess
	}
	if err := k.hw.ReleaseMemoryImage(pcb.Image); err != nil {
		k.hw.FatalHalt(fmt.Sprintf("release image of process %d: %v", pcb.ID, err))
		return fmt.Errorf("%w: %w", ErrFatalKernelException, err)
	}
	pcb.Image = nil
	pcb.ExitReason = reason
	k.logger.Info("process terminated", "pid", pcb.ID, "reason", string(reason))
	return k.suspend(ctx, nil, process.StateTerminated)
}

// notifyParent drops the parent's live child count and wakes it once the
// count reaches zero while it waits.
func (k *Kernel) notifyParent(ctx context.Context, pcb *process.PCB) {
	parent := k.table.Get(pcb.ParentID)
	if parent == nil || !parent.Live() {
		return
	}
	parent.ChildCount--
	if parent.ChildCount <= 0 && parent.State == process.StateWaiting {
		k.wake(ctx, parent, k.waiting)
	}
}

// reparentChildren hands the live children of pcb to the root process. When
// the root itself terminates its children are left without a parent.
func (k *Kernel) reparentChildren(pcb *process.PCB) {
	root := k.table.Get(k.root)
	adopt := root != nil && root.Live() && root.ID != pcb.ID
	k.table.Each(func(child *process.PCB) {
		if child.ParentID != pcb.ID || !child.Live() {
			return
		}
		if !adopt {
			child.ParentID = process.NoParent
			return
		}
		child.ParentID = root.ID
		root.ChildCount++
		k.logger.Debug("orphan adopted", "pid", child.ID, "parent", root.ID)
	})
	pcb.ChildCount = 0
	if pcb.ID == k.root {
		k.root = process.None
	}
}
