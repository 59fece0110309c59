package sim

import (
	"context"

	"github.com/Solero93/OperatingSystems1/hal"
)

// InitializeContext prepares a fresh register file at entry.
func (m *Machine) InitializeContext(image hal.Image, stack hal.Stack, entry hal.Address) hal.Context {
	return hal.Context{PC: entry, SP: hal.Address(stack.Size()), Image: image}
}

// SwitchContext saves the live registers into save, when given, and loads restore.
func (m *Machine) SwitchContext(save *hal.Context, restore *hal.Context) {
	if save != nil {
		*save = m.cpu
	}
	m.cpu = *restore
}

func (m *Machine) ReadRegister(n int) int64 {
	if n < 0 || n >= hal.NumRegisters {
		return 0
	}
	return m.cpu.Regs[n]
}

func (m *Machine) WriteRegister(n int, value int64) {
	if n < 0 || n >= hal.NumRegisters {
		return
	}
	m.cpu.Regs[n] = value
}

func (m *Machine) FromUserMode() bool {
	return m.fromUser
}

// IdleWait lowers the level to hal.LevelUser and lets one clock tick elapse.
func (m *Machine) IdleWait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.poweredOff || m.halted != "" || m.ticks >= m.config.MaxTicks {
		return hal.ErrPoweredOff
	}
	prev := m.level
	m.level = hal.LevelUser
	defer func() { m.level = prev }()
	m.idleTicks++
	return m.tick(ctx, false)
}

// FatalHalt latches the first halt message; Run stops at the next boundary.
func (m *Machine) FatalHalt(message string) {
	m.logger.Error("fatal halt", "message", message, "tick", m.ticks)
	if m.halted == "" {
		m.halted = message
	}
}

func (m *Machine) SetInterruptLevel(level hal.Level) hal.Level {
	prev := m.level
	m.level = level
	return prev
}

func (m *Machine) RegisterInterruptHandler(kind hal.InterruptKind, handler hal.Handler) {
	m.handlers[kind] = handler
}

func (m *Machine) RaiseSoftwareInterrupt() {
	m.softwarePending = true
}

func (m *Machine) ReadPort(port hal.Port) byte {
	if port != hal.TerminalPort {
		return 0
	}
	return m.port
}

func (m *Machine) ConsoleWrite(p []byte) {
	m.console.Write(p)
	if m.mirror != nil {
		_, _ = m.mirror.Write(p)
	}
}

var _ hal.Hardware = (*Machine)(nil)
