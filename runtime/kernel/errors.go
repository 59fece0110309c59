package kernel

import "errors"

var (
	// ErrNoFreeSlot is returned when the process table is full.
	ErrNoFreeSlot = errors.New("kernel: no free process slot")

	// ErrImageCreationFailed is returned when a program can not be loaded.
	ErrImageCreationFailed = errors.New("kernel: image creation failed")

	// ErrNoChildren is returned by WaitForChildren when nothing is outstanding.
	ErrNoChildren = errors.New("kernel: no children to wait for")

	// ErrNoCurrentProcess is returned by operations that act on the running process.
	ErrNoCurrentProcess = errors.New("kernel: no current process")

	// ErrFatalKernelException reports a fault raised while the kernel was executing.
	ErrFatalKernelException = errors.New("kernel: fatal kernel exception")

	// ErrUnreachableResume reports that control came back to code that must never resume.
	ErrUnreachableResume = errors.New("kernel: unreachable resume")
)
