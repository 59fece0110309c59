package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Solero93/OperatingSystems1/model/process"
	"github.com/Solero93/OperatingSystems1/service/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue(t *testing.T) {
	queue := NewQueue[process.Transition](DefaultConfig())
	ctx := context.Background()
	payload := process.Transition{PID: 3, From: process.StateReady, To: process.StateRunning, Tick: 12}

	require.NoError(t, queue.Publish(ctx, &payload))
	assert.Equal(t, 1, queue.Size())

	message, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, queue.Size())
	assert.Equal(t, payload, *message.T())
	assert.NotEmpty(t, message.(*Message[process.Transition]).ID())

	assert.NoError(t, message.Ack())
	assert.Error(t, message.Ack())
}

func TestQueue_Retries(t *testing.T) {
	config := DefaultConfig()
	config.MaxRetries = 2
	queue := NewQueue[process.Transition](config)
	ctx := context.Background()
	require.NoError(t, queue.Publish(ctx, &process.Transition{PID: 1}))

	for attempt := 0; attempt < 3; attempt++ {
		message, ok := queue.Poll()
		require.True(t, ok, "attempt %d", attempt)
		assert.NoError(t, message.Nack(nil))
	}
	_, ok := queue.Poll()
	assert.False(t, ok)
	assert.Equal(t, 1, queue.DLQSize())
}

func TestQueue_DropWhenFull(t *testing.T) {
	queue := NewQueue[process.Transition](Config{QueueBuffer: 2, DropWhenFull: true})
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		require.NoError(t, queue.Publish(ctx, &process.Transition{PID: process.ID(i)}))
	}
	err := queue.Publish(ctx, &process.Transition{PID: 9})
	assert.ErrorIs(t, err, messaging.ErrQueueFull)
	assert.Equal(t, 1, queue.Dropped())

	first, ok := queue.Poll()
	require.True(t, ok)
	assert.Equal(t, process.ID(0), first.T().PID)
}

func TestQueue_Concurrency(t *testing.T) {
	queue := NewQueue[process.Transition](DefaultConfig())
	ctx := context.Background()
	producers, perProducer := 8, 20

	var wg sync.WaitGroup
	wg.Add(producers)
	for i := 0; i < producers; i++ {
		go func(producer int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				assert.NoError(t, queue.Publish(ctx, &process.Transition{PID: process.ID(producer), Tick: uint64(j)}))
			}
		}(i)
	}

	consumed := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for consumed < producers*perProducer {
			message, err := queue.Consume(ctx)
			if !assert.NoError(t, err) {
				return
			}
			assert.NoError(t, message.Ack())
			consumed++
		}
	}()
	wg.Wait()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer timed out")
	}
	assert.Equal(t, producers*perProducer, consumed)
}

func TestQueue_ContextCancellation(t *testing.T) {
	queue := NewQueue[process.Transition](DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, queue.Publish(ctx, &process.Transition{}))

	timeout, cancelTimeout := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancelTimeout()
	_, err := queue.Consume(timeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
