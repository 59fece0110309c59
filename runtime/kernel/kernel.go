// Package kernel owns the scheduler state: the process table, the ready,
// sleeping and waiting queues, the current process and the deferred
// reschedule flag. Every operation runs inside an interrupt handler; the
// hardware layer guarantees handlers never run concurrently, and queue
// mutations are additionally bracketed by raising the interrupt level.
package kernel

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Solero93/OperatingSystems1/hal"
	"github.com/Solero93/OperatingSystems1/model/process"
	"github.com/Solero93/OperatingSystems1/runtime/table"
)

// Config holds the scheduling constants.
type Config struct {
	MaxProcesses   int    `json:"maxProcesses" yaml:"maxProcesses"`
	Quantum        int    `json:"quantum" yaml:"quantum"`
	MaxRounds      int    `json:"maxRounds" yaml:"maxRounds"`
	StackSize      int    `json:"stackSize" yaml:"stackSize"`
	TicksPerSecond int    `json:"ticksPerSecond" yaml:"ticksPerSecond"`
	RootProgram    string `json:"rootProgram" yaml:"rootProgram"`
}

// DefaultConfig returns the stock kernel constants.
func DefaultConfig() Config {
	return Config{
		MaxProcesses:   10,
		Quantum:        10,
		MaxRounds:      3,
		StackSize:      32 * 1024,
		TicksPerSecond: 100,
		RootProgram:    "init",
	}
}

// Validate returns an error describing the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.MaxProcesses <= 0:
		return fmt.Errorf("kernel.maxProcesses must be > 0")
	case c.Quantum <= 0:
		return fmt.Errorf("kernel.quantum must be > 0")
	case c.MaxRounds <= 0:
		return fmt.Errorf("kernel.maxRounds must be > 0")
	case c.StackSize <= 0:
		return fmt.Errorf("kernel.stackSize must be > 0")
	case c.TicksPerSecond <= 0:
		return fmt.Errorf("kernel.ticksPerSecond must be > 0")
	case c.RootProgram == "":
		return fmt.Errorf("kernel.rootProgram is required")
	}
	return nil
}

// PenaltyTicks is the forced rest of a process that used MaxRounds quanta in a row.
func (c *Config) PenaltyTicks() int {
	return c.Quantum * 3 / 4
}

// Observer receives PCB state transitions.
type Observer interface {
	OnTransition(ctx context.Context, transition *process.Transition)
}

// Kernel is the single scheduler state of the system.
type Kernel struct {
	config   Config
	hw       hal.Hardware
	logger   *slog.Logger
	observer Observer

	table    *table.Table
	ready    *table.Queue
	sleeping *table.Queue
	waiting  *table.Queue

	current           process.ID
	root              process.ID
	rootAssigned      bool
	reschedulePending bool
	ticks             uint64
}

// Option configures a Kernel.
type Option func(k *Kernel)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(k *Kernel) {
		k.logger = logger
	}
}

// WithObserver sets the transition observer.
func WithObserver(observer Observer) Option {
	return func(k *Kernel) {
		k.observer = observer
	}
}

// New creates a kernel with an empty process table.
func New(hw hal.Hardware, config Config, options ...Option) (*Kernel, error) {
	if hw == nil {
		return nil, fmt.Errorf("hardware is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	ret := &Kernel{
		config:  config,
		hw:      hw,
		logger:  slog.Default(),
		current: process.None,
		root:    process.None,
	}
	for _, opt := range options {
		opt(ret)
	}
	ret.table = table.New(config.MaxProcesses)
	ret.ready = table.NewQueue("ready", ret.table)
	ret.sleeping = table.NewQueue("sleeping", ret.table)
	ret.waiting = table.NewQueue("waiting", ret.table)
	return ret, nil
}

// Config returns the kernel constants.
func (k *Kernel) Config() Config {
	return k.config
}

// Current returns the id of the running process or process.None.
func (k *Kernel) Current() process.ID {
	return k.current
}

// Root returns the id of the first process ever created, or process.None
// once it has terminated.
func (k *Kernel) Root() process.ID {
	return k.root
}

// Ticks returns the number of clock interrupts serviced.
func (k *Kernel) Ticks() uint64 {
	return k.ticks
}

// ReschedulePending reports whether a quantum expiry awaits the software interrupt.
func (k *Kernel) ReschedulePending() bool {
	return k.reschedulePending
}

// Process returns a snapshot of the PCB in slot id.
func (k *Kernel) Process(id process.ID) (process.Snapshot, bool) {
	pcb := k.table.Get(id)
	if pcb == nil || pcb.State == process.StateUnused {
		return process.Snapshot{}, false
	}
	return pcb.Snapshot(), true
}

// Live returns the number of processes that have not terminated.
func (k *Kernel) Live() int {
	return k.table.Live()
}

// Snapshot lists the queues in order, the way a ps-style dump shows them.
type Snapshot struct {
	Tick     uint64             `json:"tick"`
	Current  process.ID         `json:"current"`
	Ready    []process.Snapshot `json:"ready"`
	Sleeping []process.Snapshot `json:"sleeping"`
	Waiting  []process.Snapshot `json:"waiting"`
}

// Snapshot returns the queue contents.
func (k *Kernel) Snapshot() *Snapshot {
	return &Snapshot{
		Tick:     k.ticks,
		Current:  k.current,
		Ready:    k.snapshotOf(k.ready),
		Sleeping: k.snapshotOf(k.sleeping),
		Waiting:  k.snapshotOf(k.waiting),
	}
}

func (k *Kernel) snapshotOf(q *table.Queue) []process.Snapshot {
	ret := make([]process.Snapshot, 0, q.Len())
	q.Visit(func(pcb *process.PCB) {
		ret = append(ret, pcb.Snapshot())
	})
	return ret
}

func (k *Kernel) currentPCB() *process.PCB {
	if k.current == process.None {
		return nil
	}
	return k.table.Get(k.current)
}

// mask raises the interrupt level for a queue mutation and returns the restore func.
func (k *Kernel) mask() func() {
	prev := k.hw.SetInterruptLevel(hal.LevelDevice)
	return func() {
		k.hw.SetInterruptLevel(prev)
	}
}

func (k *Kernel) notify(ctx context.Context, pcb *process.PCB, from process.State) {
	k.logger.Debug("state change", "pid", pcb.ID, "from", from.String(), "to", pcb.State.String(), "tick", k.ticks)
	if k.observer == nil {
		return
	}
	k.observer.OnTransition(ctx, &process.Transition{
		PID:  pcb.ID,
		From: from,
		To:   pcb.State,
		Tick: k.ticks,
		PCB:  pcb.Snapshot(),
	})
}

// Complete hands a syscall result to the process that issued it. The running
// caller gets it in the return register; a caller that blocked inside the
// call receives it when it is switched back in.
func (k *Kernel) Complete(id process.ID, value int64) {
	pcb := k.table.Get(id)
	if pcb == nil {
		return
	}
	switch {
	case id == k.current:
		k.hw.WriteRegister(hal.RegReturn, value)
	case pcb.Live():
		pcb.Defer(value)
	}
}

// ParentOf returns the parent id of a live process.
func (k *Kernel) ParentOf(id process.ID) (process.ID, bool) {
	pcb := k.table.Get(id)
	if pcb == nil || !pcb.Live() {
		return process.NoParent, false
	}
	return pcb.ParentID, true
}
