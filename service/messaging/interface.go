package messaging

import (
	"context"
	"errors"
)

// ErrQueueFull is returned by a non-blocking Publish on a full queue.
var ErrQueueFull = errors.New("messaging: queue full")

// Queue represents an abstract message queue for any payload type
type Queue[T any] interface {
	// Publish adds a new message with payload to the queue
	Publish(ctx context.Context, t *T) error

	// Consume retrieves a single message from the queue
	Consume(ctx context.Context) (Message[T], error)
}

// Poller is implemented by queues that can receive without blocking.
type Poller[T any] interface {
	// Poll returns the next message, or false when the queue is empty
	Poll() (Message[T], bool)
}

// Message represents a message retrieved from a queue
type Message[T any] interface {
	// T returns the payload of this message
	T() *T

	// Ack acknowledges successful processing of this message
	Ack() error

	// Nack indicates failure in processing this message
	Nack(err error) error
}
