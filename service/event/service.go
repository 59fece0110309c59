// Package event carries process transitions from the kernel to asynchronous
// consumers over an in-memory queue.
package event

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"github.com/Solero93/OperatingSystems1/model/process"
	"github.com/Solero93/OperatingSystems1/service/messaging/memory"
)

// Service publishes kernel transitions as events and fans them out to subscribers.
type Service struct {
	bootID      string
	queueConfig memory.Config
	logger      *slog.Logger
	queue       *memory.Queue[Event[process.Transition]]
	publisher   *Publisher[process.Transition]
	listener    *Listener[process.Transition]
	handlers    []func(*Event[process.Transition]) error
	mux         sync.RWMutex
}

func New(opts ...Option) *Service {
	ret := &Service{
		queueConfig: memory.DefaultConfig(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	// publishing runs inside interrupt handlers and must never block
	ret.queueConfig.DropWhenFull = true
	ret.queue = memory.NewQueue[Event[process.Transition]](ret.queueConfig)
	ret.publisher = NewPublisher[process.Transition](ret.queue)
	ret.listener = NewListener[process.Transition](ret.publisher, ret.dispatch, ret.logger)
	return ret
}

// TypeOf classifies a transition.
func TypeOf(transition *process.Transition) string {
	switch {
	case transition.From == process.StateUnused:
		return TypeCreated
	case transition.Terminated():
		return TypeTerminated
	}
	return TypeStateChanged
}

// Subscribe adds a handler; handlers run on the listener goroutine in publish order.
// A handler error retries the event up to the queue's MaxRetries, then moves it
// to the dead letter queue. Handlers that already succeeded are not called again.
func (s *Service) Subscribe(handler func(*Event[process.Transition]) error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.handlers = append(s.handlers, handler)
}

func (s *Service) dispatch(event *Event[process.Transition]) error {
	s.mux.RLock()
	handlers := s.handlers
	s.mux.RUnlock()
	if event.Metadata == nil {
		event.Metadata = make(map[string]interface{})
	}
	var errs []error
	for i, handler := range handlers {
		key := deliveredKey + strconv.Itoa(i)
		if _, ok := event.Metadata[key]; ok {
			continue
		}
		if err := handler(event); err != nil {
			errs = append(errs, err)
			continue
		}
		event.Metadata[key] = true
	}
	return errors.Join(errs...)
}

// Start begins asynchronous delivery.
func (s *Service) Start() {
	s.listener.Start()
}

// Close stops asynchronous delivery and hands the remaining events to subscribers.
func (s *Service) Close() {
	s.listener.Stop()
	if count := s.listener.Drain(); count > 0 {
		s.logger.Debug("drained events", "count", count)
	}
}

// DeadLettered returns the number of events given up on after MaxRetries.
func (s *Service) DeadLettered() int {
	return s.queue.DLQSize()
}

// Dropped returns the number of transitions lost to a full queue.
func (s *Service) Dropped() int {
	return s.queue.Dropped()
}

// OnTransition publishes transition; a full queue drops it with a warning.
func (s *Service) OnTransition(ctx context.Context, transition *process.Transition) {
	event := NewEvent(&Context{
		BootID:    s.bootID,
		PID:       int(transition.PID),
		EventType: TypeOf(transition),
		Tick:      transition.Tick,
	}, *transition)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("transition event dropped", "pid", transition.PID, "error", err)
	}
}
