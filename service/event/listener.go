package event

import (
	"context"
	"log/slog"

	"github.com/Solero93/OperatingSystems1/service/messaging"
)

type Listener[T any] struct {
	publisher *Publisher[T]
	handler   func(*Event[T]) error
	logger    *slog.Logger
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewListener[T any](publisher *Publisher[T], handler func(*Event[T]) error, logger *slog.Logger) *Listener[T] {
	return &Listener[T]{
		publisher: publisher,
		handler:   handler,
		logger:    logger,
	}
}

// Stop cancels the consumer goroutine and waits for it to exit.
func (l *Listener[T]) Stop() {
	if l.cancel == nil {
		return
	}
	l.cancel()
	<-l.done
	l.cancel = nil
}

func (l *Listener[T]) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.done = make(chan struct{})
	go func() {
		defer close(l.done)
		for {
			msg, err := l.publisher.Consume(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Warn("error consuming event", "error", err)
				continue
			}
			l.handle(msg)
		}
	}()
}

// Drain hands every queued event to the handler without blocking. Retried
// events are handled again until they succeed or are dead-lettered.
func (l *Listener[T]) Drain() int {
	count := 0
	for {
		msg, ok := l.publisher.Poll()
		if !ok {
			return count
		}
		l.handle(msg)
		count++
	}
}

// handle acknowledges msg when the handler succeeds and rejects it otherwise.
func (l *Listener[T]) handle(msg messaging.Message[Event[T]]) {
	if err := l.handler(msg.T()); err != nil {
		l.logger.Warn("event handling failed", "error", err)
		if err = msg.Nack(err); err != nil {
			l.logger.Error("failed to nack event", "error", err)
		}
		return
	}
	if err := msg.Ack(); err != nil {
		l.logger.Error("failed to ack event", "error", err)
	}
}
