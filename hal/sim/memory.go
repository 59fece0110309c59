package sim

import (
	"bytes"
	"fmt"

	"github.com/Solero93/OperatingSystems1/hal"
	"github.com/Solero93/OperatingSystems1/hal/sim/asm"
)

type image struct {
	program  *asm.Program
	id       int
	released bool
}

func (i *image) Program() string { return i.program.Name }

type stack struct {
	size     int
	released bool
}

func (s *stack) Size() int { return s.size }

// CreateExecutionImage maps a registered program; its entry point is the first instruction.
func (m *Machine) CreateExecutionImage(program string) (hal.Image, hal.Address, error) {
	p, ok := m.programs[program]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %q", hal.ErrProgramNotFound, program)
	}
	m.images++
	m.liveImages++
	return &image{program: p, id: m.images}, 0, nil
}

// ReleaseMemoryImage unmaps an image created by this machine.
func (m *Machine) ReleaseMemoryImage(img hal.Image) error {
	target, ok := img.(*image)
	if !ok {
		return fmt.Errorf("sim: foreign image %T", img)
	}
	if target.released {
		return fmt.Errorf("%w: %s#%d", ErrImageReleased, target.Program(), target.id)
	}
	target.released = true
	m.liveImages--
	return nil
}

// AllocateStack returns a stack of size bytes.
func (m *Machine) AllocateStack(size int) hal.Stack {
	m.liveStacks++
	return &stack{size: size}
}

// ReleaseStack frees a stack; releasing twice is a no-op.
func (m *Machine) ReleaseStack(s hal.Stack) {
	target, ok := s.(*stack)
	if !ok || target.released {
		return
	}
	target.released = true
	m.liveStacks--
}

func (m *Machine) userData() []byte {
	if img := m.loaded(); img != nil {
		return img.program.Data
	}
	return nil
}

// ReadUserMemory copies n bytes at addr from the data segment of the loaded image.
func (m *Machine) ReadUserMemory(addr hal.Address, n int) ([]byte, error) {
	data := m.userData()
	if addr < 0 || n < 0 || int(addr)+n > len(data) {
		return nil, fmt.Errorf("%w: %d+%d", hal.ErrBadAddress, addr, n)
	}
	return append([]byte(nil), data[addr:int(addr)+n]...), nil
}

// ReadUserString reads a NUL terminated string at addr.
func (m *Machine) ReadUserString(addr hal.Address) (string, error) {
	data := m.userData()
	if addr < 0 || int(addr) >= len(data) {
		return "", fmt.Errorf("%w: %d", hal.ErrBadAddress, addr)
	}
	end := bytes.IndexByte(data[addr:], 0)
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated string at %d", hal.ErrBadAddress, addr)
	}
	return string(data[addr : int(addr)+end]), nil
}
