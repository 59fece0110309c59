package minikernel

import (
	"io"
	"log/slog"

	"github.com/Solero93/OperatingSystems1/hal/sim"
	"github.com/Solero93/OperatingSystems1/hal/sim/asm"
	"github.com/Solero93/OperatingSystems1/progress"
	"github.com/Solero93/OperatingSystems1/service/dao"
	"github.com/Solero93/OperatingSystems1/service/dao/accounting"
	"github.com/Solero93/OperatingSystems1/tracing"
	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option configures a Service.
type Option func(s *Service)

// WithConfig sets the configuration; nil keeps the defaults.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config != nil {
			s.config = config
		}
	}
}

// WithMachine runs the kernel on a caller built machine; machine settings
// from the configuration are then ignored.
func WithMachine(machine *sim.Machine) Option {
	return func(s *Service) {
		s.machine = machine
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithConsole mirrors console output to w.
func WithConsole(w io.Writer) Option {
	return func(s *Service) {
		s.console = w
	}
}

// WithPrograms registers assembled programs in addition to the configured location.
func WithPrograms(programs ...*asm.Program) Option {
	return func(s *Service) {
		s.programs = append(s.programs, programs...)
	}
}

// WithFs sets the storage service used for programs and accounting.
func WithFs(fs afs.Service) Option {
	return func(s *Service) {
		s.fs = fs
	}
}

// WithProgramsFsOptions passes storage options, e.g. an embed.FS, to the program loader.
func WithProgramsFsOptions(options ...storage.Option) Option {
	return func(s *Service) {
		s.programsFsOptions = options
	}
}

// WithAccountingDAO sets the accounting record store.
func WithAccountingDAO(dao dao.Service[int, accounting.Record]) Option {
	return func(s *Service) {
		s.accountingDAO = dao
	}
}

// WithTracing traces every interrupt entry point with the stdout exporter.
// An empty outputFile writes spans to stdout. Only the first initialisation
// in a process installs a provider.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		s.traced = true
		if err := tracing.Init(serviceName, serviceVersion, outputFile); err != nil {
			s.initErrors = append(s.initErrors, err)
		}
	}
}

// WithTracingExporter traces interrupt entry points with a custom exporter.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		s.traced = true
		if err := tracing.InitWithExporter(serviceName, serviceVersion, exporter); err != nil {
			s.initErrors = append(s.initErrors, err)
		}
	}
}

// WithProgressListener is called with updated process counters after every
// delivered transition.
func WithProgressListener(listener func(progress.Counters)) Option {
	return func(s *Service) {
		s.onProgress = listener
	}
}
