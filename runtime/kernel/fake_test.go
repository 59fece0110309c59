package kernel

import (
	"context"
	"fmt"

	"github.com/Solero93/OperatingSystems1/hal"
)

type fakeImage struct {
	program  string
	released bool
}

func (i *fakeImage) Program() string { return i.program }

type fakeStack struct {
	size     int
	released bool
}

func (s *fakeStack) Size() int { return s.size }

type switchRecord struct {
	saved    bool
	restored string
}

// fakeHardware records every capability call; IdleWait runs onIdle in place
// of a real interrupt.
type fakeHardware struct {
	programs map[string]bool
	level    hal.Level
	cpu      hal.Context

	switches       []switchRecord
	softwareRaised int
	idles          int
	idleBudget     int
	onIdle         func(ctx context.Context) error

	imagesReleased int
	stacksReleased int
	failRelease    bool
	halted         string
	console        []byte
}

func newFakeHardware(programs ...string) *fakeHardware {
	ret := &fakeHardware{programs: map[string]bool{}, level: hal.LevelUser, idleBudget: 1000}
	for _, program := range programs {
		ret.programs[program] = true
	}
	return ret
}

func (f *fakeHardware) CreateExecutionImage(program string) (hal.Image, hal.Address, error) {
	if !f.programs[program] {
		return nil, 0, hal.ErrProgramNotFound
	}
	return &fakeImage{program: program}, 0x100, nil
}

func (f *fakeHardware) ReleaseMemoryImage(image hal.Image) error {
	img, ok := image.(*fakeImage)
	if !ok || img.released || f.failRelease {
		return fmt.Errorf("bad image %v", image)
	}
	img.released = true
	f.imagesReleased++
	return nil
}

func (f *fakeHardware) AllocateStack(size int) hal.Stack {
	return &fakeStack{size: size}
}

func (f *fakeHardware) ReleaseStack(stack hal.Stack) {
	if s, ok := stack.(*fakeStack); ok && !s.released {
		s.released = true
		f.stacksReleased++
	}
}

func (f *fakeHardware) ReadUserMemory(addr hal.Address, n int) ([]byte, error) {
	return nil, hal.ErrBadAddress
}

func (f *fakeHardware) ReadUserString(addr hal.Address) (string, error) {
	return "", hal.ErrBadAddress
}

func (f *fakeHardware) InitializeContext(image hal.Image, stack hal.Stack, entry hal.Address) hal.Context {
	return hal.Context{PC: entry, SP: hal.Address(stack.Size()), Image: image}
}

func (f *fakeHardware) SwitchContext(save *hal.Context, restore *hal.Context) {
	if save != nil {
		*save = f.cpu
	}
	f.cpu = *restore
	f.switches = append(f.switches, switchRecord{saved: save != nil, restored: restore.Image.Program()})
}

func (f *fakeHardware) ReadRegister(n int) int64         { return f.cpu.Regs[n] }
func (f *fakeHardware) WriteRegister(n int, value int64) { f.cpu.Regs[n] = value }
func (f *fakeHardware) FromUserMode() bool               { return true }

func (f *fakeHardware) IdleWait(ctx context.Context) error {
	if f.idleBudget <= 0 {
		return hal.ErrPoweredOff
	}
	f.idleBudget--
	f.idles++
	prev := f.level
	f.level = hal.LevelUser
	defer func() { f.level = prev }()
	if f.onIdle != nil {
		return f.onIdle(ctx)
	}
	return nil
}

func (f *fakeHardware) FatalHalt(message string) { f.halted = message }

func (f *fakeHardware) SetInterruptLevel(level hal.Level) hal.Level {
	prev := f.level
	f.level = level
	return prev
}

func (f *fakeHardware) RegisterInterruptHandler(kind hal.InterruptKind, handler hal.Handler) {}
func (f *fakeHardware) RaiseSoftwareInterrupt()                                              { f.softwareRaised++ }
func (f *fakeHardware) ReadPort(port hal.Port) byte                                          { return 0 }
func (f *fakeHardware) ConsoleWrite(p []byte)                                                { f.console = append(f.console, p...) }

var _ hal.Hardware = (*fakeHardware)(nil)
