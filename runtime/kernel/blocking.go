package kernel

import (
	"context"

	"github.com/Solero93/OperatingSystems1/model/process"
	"github.com/Solero93/OperatingSystems1/runtime/table"
)

// suspend takes the running process off the CPU. With a target queue the
// process enters it in state; a nil target terminates the process. Either
// way the next ready process is switched in.
func (k *Kernel) suspend(ctx context.Context, target *table.Queue, state process.State) error {
	restore := k.mask()
	pcb := k.currentPCB()
	if pcb == nil {
		restore()
		return ErrNoCurrentProcess
	}
	k.ready.Remove(pcb.ID)
	from := pcb.State
	if target == nil {
		pcb.State = process.StateTerminated
		k.notify(ctx, pcb, from)
		// the parent is told before the children move, so a root waiting on
		// its last child wakes even when it adopts that child's children
		k.notifyParent(ctx, pcb)
		k.reparentChildren(pcb)
		k.hw.ReleaseStack(pcb.Stack)
		pcb.Stack = nil
	} else {
		pcb.State = state
		target.EnqueueTail(pcb.ID)
		k.notify(ctx, pcb, from)
	}
	if err := k.switchFrom(ctx, pcb, target != nil, restore); err != nil {
		return err
	}
	if target == nil && k.current == pcb.ID {
		k.hw.FatalHalt("terminated process resumed")
		return ErrUnreachableResume
	}
	return nil
}

// wake moves pcb from source to the ready queue. A process with quantum left
// goes right behind the head; one that used it up gets a full quantum at the tail.
// A pcb missing from source is left untouched.
func (k *Kernel) wake(ctx context.Context, pcb *process.PCB, source *table.Queue) {
	restore := k.mask()
	defer restore()
	if !source.Remove(pcb.ID) {
		k.logger.Error("woken process not queued", "pid", pcb.ID, "queue", source.Name(), "state", pcb.State.String())
		return
	}
	from := pcb.State
	pcb.State = process.StateReady
	if pcb.SliceRemaining > 0 {
		k.ready.EnqueueSecond(pcb.ID)
	} else {
		pcb.SliceRemaining = k.config.Quantum
		k.ready.EnqueueTail(pcb.ID)
	}
	k.notify(ctx, pcb, from)
}

// SleepFor blocks the running process for ticks clock interrupts.
func (k *Kernel) SleepFor(ctx context.Context, ticks int) error {
	pcb := k.currentPCB()
	if pcb == nil {
		return ErrNoCurrentProcess
	}
	if ticks <= 0 {
		return nil
	}
	pcb.SleepTicks = ticks
	return k.suspend(ctx, k.sleeping, process.StateSleeping)
}

// WaitForChildren blocks the running process until its last live child
// terminates. It returns ErrNoChildren without blocking when none are live.
func (k *Kernel) WaitForChildren(ctx context.Context) error {
	pcb := k.currentPCB()
	if pcb == nil {
		return ErrNoCurrentProcess
	}
	if pcb.ChildCount <= 0 {
		return ErrNoChildren
	}
	return k.suspend(ctx, k.waiting, process.StateWaiting)
}

func (k *Kernel) ageSleepers(ctx context.Context) {
	k.sleeping.Visit(func(pcb *process.PCB) {
		pcb.SleepTicks--
		if pcb.SleepTicks <= 0 {
			k.wake(ctx, pcb, k.sleeping)
		}
	})
}
