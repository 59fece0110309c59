package event

import (
	"context"

	"github.com/Solero93/OperatingSystems1/internal/clock"
	"github.com/Solero93/OperatingSystems1/service/messaging"
)

type Publisher[T any] struct {
	queue messaging.Queue[Event[T]]
}

func NewPublisher[T any](queue messaging.Queue[Event[T]]) *Publisher[T] {
	return &Publisher[T]{
		queue: queue,
	}
}

func (p *Publisher[T]) Publish(ctx context.Context, event *Event[T]) error {
	event.CreatedAt = clock.Now()
	return p.queue.Publish(ctx, event)
}

// Consume blocks for the next message. The caller settles it with Ack or Nack.
func (p *Publisher[T]) Consume(ctx context.Context) (messaging.Message[Event[T]], error) {
	return p.queue.Consume(ctx)
}

// Poll returns the next message without blocking. It reports false when the
// queue is empty or can not be polled.
func (p *Publisher[T]) Poll() (messaging.Message[Event[T]], bool) {
	poller, ok := p.queue.(messaging.Poller[Event[T]])
	if !ok {
		return nil, false
	}
	return poller.Poll()
}
