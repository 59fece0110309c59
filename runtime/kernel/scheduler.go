package kernel

import (
	"context"
	"fmt"

	"github.com/Solero93/OperatingSystems1/model/process"
)

// PickNext returns the head of the ready queue, idling on the hardware until
// an interrupt makes some process ready. Selection is strict FIFO.
func (k *Kernel) PickNext(ctx context.Context) (*process.PCB, error) {
	for k.ready.Empty() {
		k.logger.Debug("no ready process, idle wait", "tick", k.ticks)
		if err := k.hw.IdleWait(ctx); err != nil {
			return nil, err
		}
	}
	return k.table.Get(k.ready.First()), nil
}

// Boot creates the root process and switches into it without saving a context.
func (k *Kernel) Boot(ctx context.Context) error {
	id, err := k.Create(ctx, k.config.RootProgram)
	if err != nil {
		k.hw.FatalHalt("initial process not found")
		return fmt.Errorf("boot %q: %w", k.config.RootProgram, err)
	}
	next, err := k.PickNext(ctx)
	if err != nil {
		return err
	}
	k.run(ctx, next)
	k.hw.SwitchContext(nil, &next.Context)
	if k.current != next.ID {
		k.hw.FatalHalt("kernel resumed after boot")
		return ErrUnreachableResume
	}
	k.logger.Info("booted", "root", id, "program", k.config.RootProgram)
	return nil
}

func (k *Kernel) run(ctx context.Context, pcb *process.PCB) {
	from := pcb.State
	pcb.State = process.StateRunning
	k.current = pcb.ID
	k.notify(ctx, pcb, from)
}

// switchFrom hands the CPU from prev, which already left the Running state,
// to the next ready process. Without save, prev's context is discarded.
func (k *Kernel) switchFrom(ctx context.Context, prev *process.PCB, save bool, restore func()) error {
	k.current = process.None
	next, err := k.PickNext(ctx)
	if err != nil {
		restore()
		return err
	}
	k.run(ctx, next)
	k.logger.Info("context switch", "from", prev.ID, "to", next.ID, "reason", prev.State.String())
	restore()
	if save {
		k.hw.SwitchContext(&prev.Context, &next.Context)
	} else {
		k.hw.SwitchContext(nil, &next.Context)
	}
	if value, ok := next.TakeResult(); ok {
		k.Complete(next.ID, value)
	}
	return nil
}
