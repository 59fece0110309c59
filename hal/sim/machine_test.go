package sim

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/Solero93/OperatingSystems1/hal"
	"github.com/Solero93/OperatingSystems1/hal/sim/asm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
)

func newMachine(t *testing.T, config Config, programs ...*asm.Program) *Machine {
	t.Helper()
	m, err := New(config, WithPrograms(programs...), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	m.RegisterInterruptHandler(hal.ClockInterrupt, func(ctx context.Context) error { return nil })
	return m
}

func load(t *testing.T, m *Machine, program string) {
	t.Helper()
	img, entry, err := m.CreateExecutionImage(program)
	require.NoError(t, err)
	cpu := m.InitializeContext(img, m.AllocateStack(64), entry)
	m.SwitchContext(nil, &cpu)
}

func TestMachine_Trap(t *testing.T) {
	m := newMachine(t, Config{MaxTicks: 3}, asm.MustAssemble("p", "write \"hey\"\nexit"))
	var services []hal.Service
	var fromUser []bool
	m.RegisterInterruptHandler(hal.SyscallTrap, func(ctx context.Context) error {
		service := hal.Service(m.ReadRegister(hal.RegService))
		services = append(services, service)
		fromUser = append(fromUser, m.FromUserMode())
		if service == hal.ServiceWrite {
			data, err := m.ReadUserMemory(hal.Address(m.ReadRegister(hal.RegArg1)), int(m.ReadRegister(hal.RegArg2)))
			require.NoError(t, err)
			m.ConsoleWrite(data)
		}
		return nil
	})
	load(t, m, "p")

	require.NoError(t, m.Run(context.Background()))
	assert.Equal(t, []hal.Service{hal.ServiceWrite, hal.ServiceTerminateProcess, hal.ServiceTerminateProcess}, services)
	assert.Equal(t, []bool{true, true, true}, fromUser)
	assert.Equal(t, "hey", m.Output())
	assert.Equal(t, 3, m.Ticks())
}

func TestMachine_ComputeTakesOneTickPerUnit(t *testing.T) {
	m := newMachine(t, Config{MaxTicks: 10}, asm.MustAssemble("p", "compute 3\nexit"))
	exitTick := -1
	m.RegisterInterruptHandler(hal.SyscallTrap, func(ctx context.Context) error {
		exitTick = m.Ticks()
		m.PowerOff()
		return nil
	})
	load(t, m, "p")
	require.NoError(t, m.Run(context.Background()))
	assert.Equal(t, 3, exitTick)
}

func TestMachine_SoftwareInterruptAfterClock(t *testing.T) {
	m := newMachine(t, Config{MaxTicks: 2}, asm.MustAssemble("p", "compute 10"))
	var clockLevels, softwareLevels []hal.Level
	m.RegisterInterruptHandler(hal.ClockInterrupt, func(ctx context.Context) error {
		clockLevels = append(clockLevels, m.Level())
		m.RaiseSoftwareInterrupt()
		return nil
	})
	m.RegisterInterruptHandler(hal.SoftwareInterrupt, func(ctx context.Context) error {
		softwareLevels = append(softwareLevels, m.Level())
		return nil
	})
	load(t, m, "p")
	require.NoError(t, m.Run(context.Background()))
	assert.Equal(t, []hal.Level{hal.LevelDevice, hal.LevelDevice}, clockLevels)
	assert.Equal(t, []hal.Level{hal.LevelSoftware, hal.LevelSoftware}, softwareLevels)
	assert.Equal(t, hal.LevelUser, m.Level())
}

func TestMachine_SoftwareInterruptWaitsForLevel(t *testing.T) {
	m := newMachine(t, Config{MaxTicks: 2}, asm.MustAssemble("p", "getpid"))
	delivered := 0
	m.RegisterInterruptHandler(hal.SoftwareInterrupt, func(ctx context.Context) error {
		delivered++
		return nil
	})
	m.RegisterInterruptHandler(hal.SyscallTrap, func(ctx context.Context) error {
		m.SetInterruptLevel(hal.LevelSoftware)
		m.RaiseSoftwareInterrupt()
		return nil
	})
	load(t, m, "p")
	m.SetInterruptLevel(hal.LevelSoftware)
	require.NoError(t, m.Interrupt(context.Background(), hal.SyscallTrap, true))
	assert.Equal(t, 0, delivered)

	m.SetInterruptLevel(hal.LevelUser)
	require.NoError(t, m.Interrupt(context.Background(), hal.ClockInterrupt, true))
	assert.Equal(t, 1, delivered)
}

func TestMachine_IdleWait(t *testing.T) {
	m := newMachine(t, Config{MaxTicks: 2})
	var levels []hal.Level
	var fromUser []bool
	m.RegisterInterruptHandler(hal.ClockInterrupt, func(ctx context.Context) error {
		levels = append(levels, m.Level())
		fromUser = append(fromUser, m.FromUserMode())
		return nil
	})
	ctx := context.Background()
	m.SetInterruptLevel(hal.LevelDevice)
	require.NoError(t, m.IdleWait(ctx))
	require.NoError(t, m.IdleWait(ctx))
	assert.ErrorIs(t, m.IdleWait(ctx), hal.ErrPoweredOff)
	assert.Equal(t, 2, m.IdleTicks())
	assert.Equal(t, []hal.Level{hal.LevelDevice, hal.LevelDevice}, levels)
	assert.Equal(t, []bool{false, false}, fromUser)
	assert.Equal(t, hal.LevelDevice, m.Level())
}

func TestMachine_Terminal(t *testing.T) {
	m := newMachine(t, Config{MaxTicks: 5, Input: "ab", InputInterval: 2}, asm.MustAssemble("p", "compute 100"))
	var received []byte
	m.RegisterInterruptHandler(hal.TerminalInterrupt, func(ctx context.Context) error {
		received = append(received, m.ReadPort(hal.TerminalPort))
		return nil
	})
	load(t, m, "p")
	require.NoError(t, m.Run(context.Background()))
	assert.Equal(t, "ab", string(received))
	assert.Equal(t, byte(0), m.ReadPort(hal.Port(1)))
}

func TestMachine_Exceptions(t *testing.T) {
	m := newMachine(t, Config{MaxTicks: 2}, asm.MustAssemble("p", "div0\nfault"))
	var kinds []hal.InterruptKind
	for _, kind := range []hal.InterruptKind{hal.ArithmeticException, hal.MemoryException} {
		kind := kind
		m.RegisterInterruptHandler(kind, func(ctx context.Context) error {
			assert.True(t, m.FromUserMode())
			kinds = append(kinds, kind)
			return nil
		})
	}
	load(t, m, "p")
	require.NoError(t, m.Run(context.Background()))
	assert.Equal(t, []hal.InterruptKind{hal.ArithmeticException, hal.MemoryException}, kinds)
}

func TestMachine_FatalHalt(t *testing.T) {
	m := newMachine(t, Config{MaxTicks: 10}, asm.MustAssemble("p", "exit"))
	failure := errors.New("kernel fault")
	m.RegisterInterruptHandler(hal.SyscallTrap, func(ctx context.Context) error {
		m.FatalHalt("boom")
		m.FatalHalt("second")
		return failure
	})
	load(t, m, "p")
	err := m.Run(context.Background())
	assert.ErrorIs(t, err, ErrHalted)
	assert.ErrorIs(t, err, failure)
	message, ok := m.Halted()
	assert.True(t, ok)
	assert.Equal(t, "boom", message)
}

func TestMachine_MissingHandler(t *testing.T) {
	m := newMachine(t, Config{MaxTicks: 10}, asm.MustAssemble("p", "getpid"))
	load(t, m, "p")
	assert.ErrorIs(t, m.Run(context.Background()), ErrNoHandler)
}

func TestMachine_NoContext(t *testing.T) {
	m := newMachine(t, Config{MaxTicks: 10})
	assert.ErrorIs(t, m.Run(context.Background()), ErrNoContext)
}

func TestMachine_Memory(t *testing.T) {
	m := newMachine(t, DefaultConfig(), asm.MustAssemble("p", `create "worker"`))
	_, _, err := m.CreateExecutionImage("missing")
	assert.ErrorIs(t, err, hal.ErrProgramNotFound)

	load(t, m, "p")
	name, err := m.ReadUserString(0)
	require.NoError(t, err)
	assert.Equal(t, "worker", name)
	_, err = m.ReadUserString(100)
	assert.ErrorIs(t, err, hal.ErrBadAddress)
	_, err = m.ReadUserMemory(3, 10)
	assert.ErrorIs(t, err, hal.ErrBadAddress)

	img, _, err := m.CreateExecutionImage("p")
	require.NoError(t, err)
	assert.Equal(t, 2, m.LiveImages())
	require.NoError(t, m.ReleaseMemoryImage(img))
	assert.ErrorIs(t, m.ReleaseMemoryImage(img), ErrImageReleased)
	assert.Equal(t, 1, m.LiveImages())

	s := m.AllocateStack(128)
	assert.Equal(t, 128, s.Size())
	m.ReleaseStack(s)
	m.ReleaseStack(s)
	assert.Equal(t, 1, m.LiveStacks())
}

func TestMachine_ConsoleMirror(t *testing.T) {
	var mirror bytes.Buffer
	m, err := New(DefaultConfig(), WithConsole(&mirror))
	require.NoError(t, err)
	m.ConsoleWrite([]byte("hello"))
	assert.Equal(t, "hello", mirror.String())
	assert.Equal(t, "hello", m.Output())
}

func TestMachine_Load(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	baseURL := "mem://localhost/sim/programs"
	require.NoError(t, fs.Upload(ctx, baseURL+"/init.asm", file.DefaultFileOsMode, bytes.NewReader([]byte("create \"worker\"\nwait\n"))))
	require.NoError(t, fs.Upload(ctx, baseURL+"/worker.asm", file.DefaultFileOsMode, bytes.NewReader([]byte("compute 5\n"))))
	require.NoError(t, fs.Upload(ctx, baseURL+"/README.md", file.DefaultFileOsMode, bytes.NewReader([]byte("# programs"))))

	m := newMachine(t, DefaultConfig())
	count, err := m.Load(ctx, fs, baseURL)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	img, _, err := m.CreateExecutionImage("worker")
	require.NoError(t, err)
	assert.Equal(t, "worker", img.Program())

	require.NoError(t, fs.Upload(ctx, baseURL+"/broken.asm", file.DefaultFileOsMode, bytes.NewReader([]byte("jump"))))
	_, err = m.Load(ctx, fs, baseURL)
	assert.ErrorIs(t, err, asm.ErrSyntax)
}

func TestConfig_Validate(t *testing.T) {
	config := DefaultConfig()
	assert.NoError(t, config.Validate())
	config.MaxTicks = 0
	assert.Error(t, config.Validate())
	_, err := New(config)
	assert.Error(t, err)
}
