// Package sim is a deterministic single CPU machine implementing hal.Hardware.
//
// User programs are assembled by package asm. The machine executes one
// instruction per clock tick and delivers the clock interrupt after every
// instruction, and while the kernel idles. Device interrupts are only raised
// at those two points, both at hal.LevelUser; the software interrupt stays
// pending until the level drops below hal.LevelSoftware.
package sim

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Solero93/OperatingSystems1/hal"
	"github.com/Solero93/OperatingSystems1/hal/sim/asm"
)

var (
	// ErrHalted is returned by Run after FatalHalt.
	ErrHalted = errors.New("sim: machine halted")
	// ErrNoHandler is returned when an interrupt has no registered handler.
	ErrNoHandler = errors.New("sim: no interrupt handler")
	// ErrNoContext is returned when Run finds no loaded execution context.
	ErrNoContext = errors.New("sim: no execution context loaded")
	// ErrImageReleased is returned when an image is released twice.
	ErrImageReleased = errors.New("sim: image already released")
)

// scratchRegister counts down the remaining ticks of a compute instruction.
const scratchRegister = hal.NumRegisters - 1

// Option configures a Machine.
type Option func(m *Machine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithConsole mirrors console output to w.
func WithConsole(w io.Writer) Option {
	return func(m *Machine) {
		m.mirror = w
	}
}

// WithPrograms registers assembled programs.
func WithPrograms(programs ...*asm.Program) Option {
	return func(m *Machine) {
		m.Register(programs...)
	}
}

// Machine is the simulated hardware. It is driven by a single goroutine.
type Machine struct {
	config   Config
	logger   *slog.Logger
	mirror   io.Writer
	programs map[string]*asm.Program
	handlers map[hal.InterruptKind]hal.Handler

	cpu             hal.Context
	level           hal.Level
	fromUser        bool
	softwarePending bool

	ticks      int
	idleTicks  int
	input      []byte
	port       byte
	console    bytes.Buffer
	images     int
	liveImages int
	liveStacks int
	halted     string
	poweredOff bool
}

// New creates a powered on machine at hal.LevelUser.
func New(config Config, options ...Option) (*Machine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	ret := &Machine{
		config:   config,
		logger:   slog.Default(),
		programs: map[string]*asm.Program{},
		handlers: map[hal.InterruptKind]hal.Handler{},
		level:    hal.LevelUser,
		input:    []byte(config.Input),
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret, nil
}

// Register adds programs to the executable registry, replacing same named ones.
func (m *Machine) Register(programs ...*asm.Program) {
	for _, program := range programs {
		m.programs[program.Name] = program
	}
}

// ProgramCount returns the number of registered programs.
func (m *Machine) ProgramCount() int { return len(m.programs) }

// Ticks returns the number of clock ticks so far.
func (m *Machine) Ticks() int { return m.ticks }

// IdleTicks returns the ticks spent in IdleWait.
func (m *Machine) IdleTicks() int { return m.idleTicks }

// Output returns everything written to the console.
func (m *Machine) Output() string { return m.console.String() }

// Level returns the current interrupt level.
func (m *Machine) Level() hal.Level { return m.level }

// LiveImages returns the number of memory images not yet released.
func (m *Machine) LiveImages() int { return m.liveImages }

// LiveStacks returns the number of stacks not yet released.
func (m *Machine) LiveStacks() int { return m.liveStacks }

// Halted returns the FatalHalt message.
func (m *Machine) Halted() (string, bool) {
	return m.halted, m.halted != ""
}

// PowerOff stops the machine at the next instruction boundary or idle wait.
func (m *Machine) PowerOff() {
	m.poweredOff = true
}

// Run executes the loaded context until the machine powers off, exhausts its
// tick budget or halts.
func (m *Machine) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if m.halted != "" {
			return fmt.Errorf("%w: %s", ErrHalted, m.halted)
		}
		if m.poweredOff || m.ticks >= m.config.MaxTicks {
			m.logger.Info("machine stopped", "ticks", m.ticks, "idleTicks", m.idleTicks, "poweredOff", m.poweredOff)
			return nil
		}
		err := m.step(ctx)
		switch {
		case err == nil, errors.Is(err, hal.ErrPoweredOff):
		case m.halted != "":
			return fmt.Errorf("%w: %s: %w", ErrHalted, m.halted, err)
		default:
			return err
		}
	}
}

// Interrupt runs the handler of kind. fromUser tells the handler whether user
// code was interrupted. A pending software interrupt is delivered once the
// level allows it.
func (m *Machine) Interrupt(ctx context.Context, kind hal.InterruptKind, fromUser bool) error {
	handler, ok := m.handlers[kind]
	if !ok {
		return fmt.Errorf("%w: %v", ErrNoHandler, kind)
	}
	prevLevel, prevUser := m.level, m.fromUser
	if level := levelOf(kind); level > m.level {
		m.level = level
	}
	m.fromUser = fromUser
	err := handler(ctx)
	m.level, m.fromUser = prevLevel, prevUser
	if err != nil {
		return err
	}
	if !m.softwarePending || m.level >= hal.LevelSoftware {
		return nil
	}
	m.softwarePending = false
	return m.Interrupt(ctx, hal.SoftwareInterrupt, fromUser)
}

func levelOf(kind hal.InterruptKind) hal.Level {
	switch kind {
	case hal.ClockInterrupt, hal.TerminalInterrupt:
		return hal.LevelDevice
	case hal.SoftwareInterrupt:
		return hal.LevelSoftware
	}
	return 0
}

func (m *Machine) loaded() *image {
	ret, _ := m.cpu.Image.(*image)
	return ret
}

// step executes one instruction of the loaded context, then ticks the clock.
func (m *Machine) step(ctx context.Context) error {
	img := m.loaded()
	if img == nil {
		return ErrNoContext
	}
	code := img.program.Code
	pc := int(m.cpu.PC)
	if pc < 0 || pc >= len(code) {
		if err := m.trap(ctx, hal.ServiceTerminateProcess, 0, 0); err != nil {
			return err
		}
		return m.tick(ctx, true)
	}
	instruction := code[pc]
	var err error
	switch instruction.Op {
	case asm.OpCompute:
		m.compute(instruction.Arg)
	case asm.OpWrite:
		err = m.trap(ctx, hal.ServiceWrite, instruction.Arg, instruction.Len)
	case asm.OpCreate:
		err = m.trap(ctx, hal.ServiceCreateProcess, instruction.Arg, 0)
	case asm.OpGetPID:
		err = m.trap(ctx, hal.ServiceGetPID, 0, 0)
	case asm.OpGetPPID:
		err = m.trap(ctx, hal.ServiceGetPPID, 0, 0)
	case asm.OpSleep:
		err = m.trap(ctx, hal.ServiceSleep, instruction.Arg, 0)
	case asm.OpWait:
		err = m.trap(ctx, hal.ServiceWaitChildren, 0, 0)
	case asm.OpExit:
		err = m.trap(ctx, hal.ServiceTerminateProcess, 0, 0)
	case asm.OpSyscall:
		err = m.trap(ctx, hal.Service(instruction.Arg), 0, 0)
	case asm.OpDivZero:
		m.cpu.PC++
		err = m.Interrupt(ctx, hal.ArithmeticException, true)
	case asm.OpFault:
		m.cpu.PC++
		err = m.Interrupt(ctx, hal.MemoryException, true)
	case asm.OpPrint:
		m.cpu.PC++
		m.ConsoleWrite([]byte(fmt.Sprintf("%d\n", m.cpu.Regs[hal.RegReturn])))
	default:
		m.cpu.PC++
		err = m.Interrupt(ctx, hal.MemoryException, true)
	}
	if err != nil {
		return err
	}
	return m.tick(ctx, true)
}

func (m *Machine) compute(n int64) {
	if n <= 0 {
		m.cpu.PC++
		return
	}
	if m.cpu.Regs[scratchRegister] <= 0 {
		m.cpu.Regs[scratchRegister] = n
	}
	m.cpu.Regs[scratchRegister]--
	if m.cpu.Regs[scratchRegister] == 0 {
		m.cpu.PC++
	}
}

// trap loads the syscall registers, moves past the instruction and enters the kernel.
func (m *Machine) trap(ctx context.Context, service hal.Service, arg1, arg2 int64) error {
	m.cpu.Regs[hal.RegService] = int64(service)
	m.cpu.Regs[hal.RegArg1] = arg1
	m.cpu.Regs[hal.RegArg2] = arg2
	m.cpu.PC++
	return m.Interrupt(ctx, hal.SyscallTrap, true)
}

func (m *Machine) tick(ctx context.Context, fromUser bool) error {
	m.ticks++
	if err := m.Interrupt(ctx, hal.ClockInterrupt, fromUser); err != nil {
		return err
	}
	if m.config.InputInterval <= 0 || len(m.input) == 0 || m.ticks%m.config.InputInterval != 0 {
		return nil
	}
	m.port = m.input[0]
	m.input = m.input[1:]
	return m.Interrupt(ctx, hal.TerminalInterrupt, fromUser)
}
