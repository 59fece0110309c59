package event

import (
	"log/slog"

	"github.com/Solero93/OperatingSystems1/service/messaging/memory"
)

type Option func(s *Service)

// WithQueueConfig sets the memory queue configuration
func WithQueueConfig(config memory.Config) Option {
	return func(s *Service) {
		s.queueConfig = config
	}
}

// WithBootID tags every event with the boot id
func WithBootID(bootID string) Option {
	return func(s *Service) {
		s.bootID = bootID
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}
