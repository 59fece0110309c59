package minikernel

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Solero93/OperatingSystems1/hal/sim"
	"github.com/Solero93/OperatingSystems1/hal/sim/asm"
	"github.com/Solero93/OperatingSystems1/internal/clock"
	"github.com/Solero93/OperatingSystems1/internal/idgen"
	"github.com/Solero93/OperatingSystems1/model/process"
	"github.com/Solero93/OperatingSystems1/progress"
	"github.com/Solero93/OperatingSystems1/runtime/kernel"
	"github.com/Solero93/OperatingSystems1/service/dao"
	"github.com/Solero93/OperatingSystems1/service/dao/accounting"
	afsaccounting "github.com/Solero93/OperatingSystems1/service/dao/accounting/fs"
	"github.com/Solero93/OperatingSystems1/service/dao/accounting/memory"
	"github.com/Solero93/OperatingSystems1/service/dispatch"
	"github.com/Solero93/OperatingSystems1/service/event"
	mmemory "github.com/Solero93/OperatingSystems1/service/messaging/memory"
	"github.com/Solero93/OperatingSystems1/tracing"
	"github.com/viant/afs"
	_ "github.com/viant/afs/embed"
	"github.com/viant/afs/storage"
)

const (
	// ServiceName identifies traces and logs.
	ServiceName = "minikernel"
	// Version of the kernel.
	Version = "0.1.0"
)

// DefaultProgramsURL locates the embedded demo programs.
const DefaultProgramsURL = "embed:///programs"

// DefaultPrograms holds the demo workload: init starts workers, a sleeper,
// a faulting divider and a spawner that leaves an orphan behind.
//
//go:embed programs/*.asm
var DefaultPrograms embed.FS

// Service wires the kernel, the machine it runs on and the supporting services.
type Service struct {
	config            *Config
	logger            *slog.Logger
	console           io.Writer
	fs                afs.Service
	programs          []*asm.Program
	programsFsOptions []storage.Option
	traced            bool
	initErrors        []error
	onProgress        func(progress.Counters)

	bootID        string
	machine       *sim.Machine
	kernel        *kernel.Kernel
	dispatcher    *dispatch.Service
	events        *event.Service
	recorder      *accounting.Recorder
	progress      *progress.Progress
	accountingDAO dao.Service[int, accounting.Record]
	ownMachine    bool
	booted        bool
	closed        bool
}

// New builds the system; nothing runs until Boot or Run.
func New(options ...Option) (*Service, error) {
	ret := &Service{bootID: idgen.New()}
	for _, opt := range options {
		opt(ret)
	}
	if err := ret.init(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Service) init() error {
	if len(s.initErrors) > 0 {
		return errors.Join(s.initErrors...)
	}
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if err := s.config.Validate(); err != nil {
		return err
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("boot", s.bootID)
	if s.fs == nil {
		s.fs = afs.New()
	}
	if s.config.Tracing.Enabled && !s.traced {
		if err := tracing.Init(ServiceName, Version, s.config.Tracing.Output); err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
		s.traced = true
	}
	if s.machine == nil {
		machineOptions := []sim.Option{sim.WithLogger(s.logger), sim.WithPrograms(s.programs...)}
		if s.console != nil {
			machineOptions = append(machineOptions, sim.WithConsole(s.console))
		}
		machine, err := sim.New(s.config.Machine, machineOptions...)
		if err != nil {
			return err
		}
		s.machine = machine
		s.ownMachine = true
	} else {
		s.machine.Register(s.programs...)
	}
	if s.accountingDAO == nil {
		if err := s.ensureAccountingDAO(); err != nil {
			return err
		}
	}

	queueConfig := mmemory.DefaultConfig()
	queueConfig.QueueBuffer = s.config.Events.Buffer
	s.events = event.New(event.WithBootID(s.bootID), event.WithLogger(s.logger), event.WithQueueConfig(queueConfig))
	s.recorder = accounting.NewRecorder(s.accountingDAO, s.logger)
	s.events.Subscribe(s.recorder.Handle)
	s.progress = progress.New(s.bootID, clock.Now(), s.onProgress)
	s.events.Subscribe(func(e *event.Event[process.Transition]) error {
		s.progress.Update(progress.FromTransition(&e.Data))
		return nil
	})

	k, err := kernel.New(s.machine, s.config.Kernel, kernel.WithLogger(s.logger), kernel.WithObserver(s))
	if err != nil {
		return err
	}
	s.kernel = k
	s.dispatcher = dispatch.New(k, s.machine, dispatch.WithLogger(s.logger), dispatch.WithTracing(s.traced))
	s.dispatcher.Install()
	return nil
}

func (s *Service) ensureAccountingDAO() error {
	URL := s.config.Accounting.URL
	if URL == "" {
		s.accountingDAO = memory.New()
		return nil
	}
	store, err := afsaccounting.New(context.Background(), s.fs, URL, afsaccounting.WithLogger(s.logger), afsaccounting.WithBootID(s.bootID))
	if err != nil {
		return fmt.Errorf("failed to open accounting store: %w", err)
	}
	s.accountingDAO = store
	return nil
}

// OnTransition forwards kernel transitions to the event service and powers
// the machine off once no live process remains.
func (s *Service) OnTransition(ctx context.Context, transition *process.Transition) {
	s.events.OnTransition(ctx, transition)
	if transition.Terminated() && s.kernel.Live() == 0 {
		s.logger.Info("no live process left, powering off", "tick", transition.Tick)
		s.machine.PowerOff()
	}
}

// BootID returns the id tagging this run's events and records.
func (s *Service) BootID() string { return s.bootID }

// Kernel returns the kernel.
func (s *Service) Kernel() *kernel.Kernel { return s.kernel }

// Machine returns the machine the kernel runs on.
func (s *Service) Machine() *sim.Machine { return s.machine }

// Dispatcher returns the interrupt dispatcher.
func (s *Service) Dispatcher() *dispatch.Service { return s.dispatcher }

// Records lists this boot's accounting records of terminated processes ordered by termination.
func (s *Service) Records(ctx context.Context, parameters ...*dao.Parameter) ([]*accounting.Record, error) {
	parameters = append(parameters, dao.NewParameter("BootID", s.bootID))
	return s.recorder.Records(ctx, parameters...)
}

// Boot loads programs, starts event delivery and creates the root process.
func (s *Service) Boot(ctx context.Context) error {
	if s.booted {
		return fmt.Errorf("already booted")
	}
	s.booted = true
	if err := s.loadPrograms(ctx); err != nil {
		return err
	}
	s.events.Start()
	return s.kernel.Boot(ctx)
}

func (s *Service) loadPrograms(ctx context.Context) error {
	URL, options := s.config.Machine.Programs, s.programsFsOptions
	if URL == "" {
		if !s.ownMachine || s.machine.ProgramCount() > 0 {
			return nil
		}
		URL, options = DefaultProgramsURL, []storage.Option{&DefaultPrograms}
	}
	count, err := s.machine.Load(ctx, s.fs, URL, options...)
	if err != nil {
		return err
	}
	s.logger.Info("programs loaded", "url", URL, "count", count)
	return nil
}

// Run boots when needed, runs the machine until it stops and reports the
// outcome. The report is returned even when the run fails.
func (s *Service) Run(ctx context.Context) (*Report, error) {
	var runErr error
	if !s.booted {
		runErr = s.Boot(ctx)
	}
	if runErr == nil {
		runErr = s.machine.Run(ctx)
	}
	s.Close()
	report, err := s.report(ctx)
	if err != nil {
		return report, errors.Join(runErr, err)
	}
	return report, runErr
}

// Close stops event delivery after handing every pending event to its subscribers.
func (s *Service) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.events.Close()
}

func (s *Service) report(ctx context.Context) (*Report, error) {
	halted, _ := s.machine.Halted()
	ret := &Report{
		BootID:        s.bootID,
		Ticks:         s.machine.Ticks(),
		IdleTicks:     s.machine.IdleTicks(),
		Halted:        halted,
		Output:        s.machine.Output(),
		Snapshot:      s.kernel.Snapshot(),
		Live:          s.kernel.Live(),
		Stats:         s.dispatcher.Stats(),
		DroppedEvents: s.events.Dropped(),
		DeadLettered:  s.events.DeadLettered(),
		Progress:      s.progress.Snapshot(),
	}
	records, err := s.Records(ctx)
	if err != nil {
		return ret, fmt.Errorf("failed to list accounting records: %w", err)
	}
	ret.Records = records
	if ret.DeadLettered > 0 {
		return ret, fmt.Errorf("failed to handle %d transition event(s) after retries", ret.DeadLettered)
	}
	return ret, nil
}
