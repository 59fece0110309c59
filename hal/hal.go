// Package hal defines the hardware capabilities consumed by the kernel core.
//
// The kernel never touches registers, stacks or interrupt controllers
// directly; it asks an implementation of Hardware to do so. Implementations
// may be a real board support layer or the simulated machine in hal/sim.
package hal

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrPoweredOff is returned by IdleWait when the machine stops while the
	// kernel waits for an interrupt.
	ErrPoweredOff = errors.New("hal: machine powered off")

	// ErrProgramNotFound is returned when no executable exists for a program name.
	ErrProgramNotFound = errors.New("hal: program not found")

	// ErrBadAddress is returned when user memory outside the image is accessed.
	ErrBadAddress = errors.New("hal: bad user address")
)

// Address is an entry point or a user-space address.
type Address int64

// Image is an opaque handle to a process address space.
type Image interface {
	// Program returns the executable the image was built from.
	Program() string
}

// Stack is an opaque handle to an execution stack.
type Stack interface {
	Size() int
}

// NumRegisters is the size of the general purpose register file.
const NumRegisters = 8

// Register numbers used by the syscall convention.
const (
	RegService = 0 // service number on entry
	RegReturn  = 0 // result on exit
	RegArg1    = 1
	RegArg2    = 2
)

// Service is a syscall service number, the ABI shared by user programs and
// the kernel.
type Service int64

const (
	ServiceCreateProcess Service = iota
	ServiceTerminateProcess
	ServiceWrite
	ServiceGetPID
	ServiceSleep
	ServiceGetPPID
	ServiceWaitChildren
)

// NumServices is the size of the syscall table.
const NumServices = 7

var serviceNames = [...]string{"create", "terminate", "write", "getpid", "sleep", "getppid", "wait"}

func (s Service) String() string {
	if s < 0 || int(s) >= len(serviceNames) {
		return fmt.Sprintf("service(%d)", int64(s))
	}
	return serviceNames[s]
}

// Context is the saved processor state of a process.
type Context struct {
	PC    Address
	SP    Address
	Image Image
	Regs  [NumRegisters]int64
}

// Level is an interrupt masking level; a level masks every interrupt at or below it.
type Level int

const (
	LevelUser     Level = 1 // nothing masked
	LevelSoftware Level = 2 // software interrupts masked
	LevelDevice   Level = 3 // clock and terminal masked
)

// InterruptKind identifies one of the hardware event entry points.
type InterruptKind int

const (
	ArithmeticException InterruptKind = iota
	MemoryException
	ClockInterrupt
	TerminalInterrupt
	SyscallTrap
	SoftwareInterrupt
)

var interruptNames = [...]string{"arithmetic", "memory", "clock", "terminal", "syscall", "software"}

func (k InterruptKind) String() string {
	if k < 0 || int(k) >= len(interruptNames) {
		return "unknown"
	}
	return interruptNames[k]
}

// Kinds lists every interrupt kind in vector order.
func Kinds() []InterruptKind {
	return []InterruptKind{ArithmeticException, MemoryException, ClockInterrupt, TerminalInterrupt, SyscallTrap, SoftwareInterrupt}
}

// Port is an I/O port address.
type Port int

// TerminalPort is the data port of the terminal device.
const TerminalPort Port = 0x60

// Handler services one interrupt. A non-nil error stops the machine.
type Handler func(ctx context.Context) error

// Memory builds and releases process resources.
type Memory interface {
	CreateExecutionImage(program string) (Image, Address, error)
	ReleaseMemoryImage(image Image) error
	AllocateStack(size int) Stack
	ReleaseStack(stack Stack)
	ReadUserMemory(addr Address, n int) ([]byte, error)
	ReadUserString(addr Address) (string, error)
}

// Processor manipulates execution contexts and the live register file.
type Processor interface {
	InitializeContext(image Image, stack Stack, entry Address) Context
	// SwitchContext stores the live state into save (when non-nil) and loads restore.
	SwitchContext(save *Context, restore *Context)
	ReadRegister(n int) int64
	WriteRegister(n int, value int64)
	// FromUserMode reports whether the interrupt being serviced was raised in user mode.
	FromUserMode() bool
	// IdleWait drops to the lowest level and halts until an interrupt was serviced.
	IdleWait(ctx context.Context) error
	FatalHalt(message string)
}

// Interrupts programs the interrupt controller.
type Interrupts interface {
	SetInterruptLevel(level Level) Level
	RegisterInterruptHandler(kind InterruptKind, handler Handler)
	RaiseSoftwareInterrupt()
}

// Console performs low level device I/O.
type Console interface {
	ReadPort(port Port) byte
	ConsoleWrite(p []byte)
}

// Hardware is the full capability set the kernel needs.
type Hardware interface {
	Memory
	Processor
	Interrupts
	Console
}
