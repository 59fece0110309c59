// Package dispatch routes the six hardware events to the kernel and runs the
// syscall table.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/Solero93/OperatingSystems1/hal"
	"github.com/Solero93/OperatingSystems1/model/process"
	"github.com/Solero93/OperatingSystems1/runtime/kernel"
	"github.com/Solero93/OperatingSystems1/tracing"
)

// ErrInvalidSyscallNumber is the result of a trap with an unknown service number.
var ErrInvalidSyscallNumber = errors.New("dispatch: invalid syscall number")

// ErrSleepTooLong is the result of a sleep whose tick count does not fit an int.
var ErrSleepTooLong = errors.New("dispatch: sleep too long")

// Result is the tagged outcome of a syscall: a value or a user error.
type Result struct {
	Value int64
	Err   error
}

// Ok returns a successful result.
func Ok(value int64) Result {
	return Result{Value: value}
}

// Fail returns a failed result.
func Fail(err error) Result {
	return Result{Err: err}
}

// Code returns the value stored in the return register; every error is -1.
func (r Result) Code() int64 {
	if r.Err != nil {
		return -1
	}
	return r.Value
}

// Handler runs one syscall. A returned error is a kernel failure and stops
// the machine; user errors travel in Result.
type Handler func(ctx context.Context) (Result, error)

// Stats counts the events serviced.
type Stats struct {
	Syscalls       map[hal.Service]int `json:"syscalls" yaml:"syscalls"`
	InvalidSyscall int                 `json:"invalidSyscall" yaml:"invalidSyscall"`
	Exceptions     int                 `json:"exceptions" yaml:"exceptions"`
	TerminalBytes  int                 `json:"terminalBytes" yaml:"terminalBytes"`
}

// Service is the interrupt and syscall dispatcher.
type Service struct {
	kernel *kernel.Kernel
	hw     hal.Hardware
	logger *slog.Logger
	traced bool
	table  map[hal.Service]Handler
	stats  Stats
}

// Option configures a Service.
type Option func(s *Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracing wraps every interrupt entry point in a span.
func WithTracing(enabled bool) Option {
	return func(s *Service) {
		s.traced = enabled
	}
}

// New creates a dispatcher for k running on hw.
func New(k *kernel.Kernel, hw hal.Hardware, options ...Option) *Service {
	ret := &Service{
		kernel: k,
		hw:     hw,
		logger: slog.Default(),
		stats:  Stats{Syscalls: map[hal.Service]int{}},
	}
	for _, opt := range options {
		opt(ret)
	}
	ret.table = map[hal.Service]Handler{
		hal.ServiceCreateProcess:    ret.createProcess,
		hal.ServiceTerminateProcess: ret.terminateProcess,
		hal.ServiceWrite:            ret.write,
		hal.ServiceGetPID:           ret.getPID,
		hal.ServiceSleep:            ret.sleep,
		hal.ServiceGetPPID:          ret.getPPID,
		hal.ServiceWaitChildren:     ret.waitChildren,
	}
	return ret
}

// Stats returns the event counters.
func (s *Service) Stats() Stats {
	ret := s.stats
	ret.Syscalls = make(map[hal.Service]int, len(s.stats.Syscalls))
	for service, count := range s.stats.Syscalls {
		ret.Syscalls[service] = count
	}
	return ret
}

// Install registers the six interrupt handlers with the hardware.
func (s *Service) Install() {
	handlers := map[hal.InterruptKind]hal.Handler{
		hal.ArithmeticException: s.ArithmeticException,
		hal.MemoryException:     s.MemoryException,
		hal.ClockInterrupt:      s.Clock,
		hal.TerminalInterrupt:   s.Terminal,
		hal.SyscallTrap:         s.Syscall,
		hal.SoftwareInterrupt:   s.Software,
	}
	for _, kind := range hal.Kinds() {
		s.hw.RegisterInterruptHandler(kind, s.instrument(kind, handlers[kind]))
	}
}

func (s *Service) instrument(kind hal.InterruptKind, handler hal.Handler) hal.Handler {
	if !s.traced {
		return handler
	}
	return func(ctx context.Context) (err error) {
		ctx, span := tracing.StartSpan(ctx, "interrupt."+kind.String(), "INTERNAL")
		span.WithAttributes(map[string]string{
			"pid":  strconv.Itoa(int(s.kernel.Current())),
			"tick": strconv.FormatUint(s.kernel.Ticks(), 10),
		})
		defer func() { tracing.EndSpan(span, err) }()
		return handler(ctx)
	}
}

// ArithmeticException terminates the faulting user process.
func (s *Service) ArithmeticException(ctx context.Context) error {
	return s.exception(ctx, hal.ArithmeticException, process.ExitArithmetic)
}

// MemoryException terminates the faulting user process.
func (s *Service) MemoryException(ctx context.Context) error {
	return s.exception(ctx, hal.MemoryException, process.ExitMemory)
}

func (s *Service) exception(ctx context.Context, kind hal.InterruptKind, reason process.ExitReason) error {
	s.stats.Exceptions++
	if !s.hw.FromUserMode() {
		s.hw.FatalHalt(fmt.Sprintf("%v exception in kernel mode", kind))
		return fmt.Errorf("%w: %v", kernel.ErrFatalKernelException, kind)
	}
	s.logger.Warn("exception", "kind", kind.String(), "pid", s.kernel.Current())
	return s.kernel.TerminateCurrent(ctx, reason)
}

// Clock services a clock tick.
func (s *Service) Clock(ctx context.Context) error {
	return s.kernel.Clock(ctx)
}

// Software runs the deferred reschedule.
func (s *Service) Software(ctx context.Context) error {
	return s.kernel.Reschedule(ctx)
}

// Terminal reads one byte from the terminal port and logs it.
func (s *Service) Terminal(ctx context.Context) error {
	b := s.hw.ReadPort(hal.TerminalPort)
	s.stats.TerminalBytes++
	s.logger.Info("terminal input", "char", strconv.QuoteRune(rune(b)))
	return nil
}

// Syscall runs the service named by the service register and writes its
// result back to the caller.
func (s *Service) Syscall(ctx context.Context) error {
	number := hal.Service(s.hw.ReadRegister(hal.RegService))
	caller := s.kernel.Current()
	handler, ok := s.table[number]
	if !ok {
		s.stats.InvalidSyscall++
		s.logger.Warn("invalid syscall", "number", int64(number), "pid", caller)
		s.kernel.Complete(caller, Fail(ErrInvalidSyscallNumber).Code())
		return nil
	}
	s.stats.Syscalls[number]++
	s.logger.Debug("syscall", "service", number.String(), "pid", caller)
	result, err := handler(ctx)
	if err != nil {
		return err
	}
	if result.Err != nil {
		s.logger.Debug("syscall failed", "service", number.String(), "pid", caller, "error", result.Err)
	}
	s.kernel.Complete(caller, result.Code())
	return nil
}

func (s *Service) createProcess(ctx context.Context) (Result, error) {
	name, err := s.hw.ReadUserString(hal.Address(s.hw.ReadRegister(hal.RegArg1)))
	if err != nil {
		return Fail(err), nil
	}
	id, err := s.kernel.Create(ctx, name)
	switch {
	case errors.Is(err, kernel.ErrNoFreeSlot), errors.Is(err, kernel.ErrImageCreationFailed):
		s.logger.Warn("create failed", "program", name, "error", err)
		return Fail(err), nil
	case err != nil:
		return Result{}, err
	}
	return Ok(int64(id)), nil
}

func (s *Service) terminateProcess(ctx context.Context) (Result, error) {
	if err := s.kernel.TerminateCurrent(ctx, process.ExitNormal); err != nil {
		return Result{}, err
	}
	return Ok(0), nil
}

func (s *Service) write(ctx context.Context) (Result, error) {
	data, err := s.hw.ReadUserMemory(hal.Address(s.hw.ReadRegister(hal.RegArg1)), int(s.hw.ReadRegister(hal.RegArg2)))
	if err != nil {
		return Fail(err), nil
	}
	s.hw.ConsoleWrite(data)
	return Ok(0), nil
}

func (s *Service) getPID(ctx context.Context) (Result, error) {
	return Ok(int64(s.kernel.Current())), nil
}

// sleep takes seconds and converts them to clock ticks.
func (s *Service) sleep(ctx context.Context) (Result, error) {
	seconds := s.hw.ReadRegister(hal.RegArg1)
	perSecond := int64(s.kernel.Config().TicksPerSecond)
	if seconds > int64(math.MaxInt)/perSecond {
		return Fail(ErrSleepTooLong), nil
	}
	if err := s.kernel.SleepFor(ctx, int(seconds*perSecond)); err != nil {
		return Result{}, err
	}
	return Ok(0), nil
}

func (s *Service) getPPID(ctx context.Context) (Result, error) {
	parent, _ := s.kernel.ParentOf(s.kernel.Current())
	return Ok(int64(parent)), nil
}

func (s *Service) waitChildren(ctx context.Context) (Result, error) {
	err := s.kernel.WaitForChildren(ctx)
	switch {
	case errors.Is(err, kernel.ErrNoChildren):
		return Fail(err), nil
	case err != nil:
		return Result{}, err
	}
	return Ok(0), nil
}
