package kernel

import (
	"context"

	"github.com/Solero93/OperatingSystems1/model/process"
)

// Clock services one clock tick: it charges the running process's quantum
// and ages the sleeping queue. An expired quantum only raises the software
// interrupt; the switch itself happens in Reschedule.
func (k *Kernel) Clock(ctx context.Context) error {
	restore := k.mask()
	defer restore()
	k.ticks++
	if pcb := k.currentPCB(); pcb != nil && pcb.State == process.StateRunning {
		pcb.CPUTicks++
		pcb.SliceRemaining--
		if pcb.SliceRemaining <= 0 {
			k.reschedulePending = true
			k.hw.RaiseSoftwareInterrupt()
		}
	}
	k.ageSleepers(ctx)
	return nil
}

// Reschedule runs the deferred preemption raised by Clock.
//
// A process alone at the head of the ready queue just gets a fresh quantum.
// Otherwise its round counter grows: below MaxRounds it rotates to the tail
// with half a quantum, at MaxRounds it is put to sleep for PenaltyTicks.
func (k *Kernel) Reschedule(ctx context.Context) error {
	if !k.reschedulePending {
		return nil
	}
	k.reschedulePending = false
	pcb := k.currentPCB()
	if pcb == nil {
		return nil
	}
	if k.ready.Next(pcb.ID) == process.None {
		pcb.SliceRemaining = k.config.Quantum
		return nil
	}
	pcb.RoundCount++
	if pcb.RoundCount >= k.config.MaxRounds {
		pcb.RoundCount = 0
		pcb.SleepTicks = k.config.PenaltyTicks()
		k.logger.Info("round limit reached", "pid", pcb.ID, "sleepTicks", pcb.SleepTicks)
		return k.suspend(ctx, k.sleeping, process.StateSleeping)
	}
	pcb.SliceRemaining = k.config.Quantum / 2
	return k.suspend(ctx, k.ready, process.StateReady)
}
