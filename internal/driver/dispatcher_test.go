package driver

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droverproject/drover/pkg/api"
)

type recordingSender struct {
	mu    sync.Mutex
	calls []interface{}
	err   error
	block chan struct{}
}

func (s *recordingSender) Call(ctx context.Context, call interface{}) error {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
	return s.err
}

func (s *recordingSender) sent() []interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]interface{}{}, s.calls...)
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	sender := &recordingSender{}
	dispatcher := NewDispatcher(sender, 16, time.Second)
	dispatcher.Start(context.Background())

	for _, message := range []string{"first", "second", "third"} {
		require.NoError(t, dispatcher.Enqueue(Call{Type: "TEST", Message: message}))
	}
	dispatcher.Close()

	assert.Equal(t, []interface{}{"first", "second", "third"}, sender.sent())
}

func TestDispatcherQueueFull(t *testing.T) {
	block := make(chan struct{})
	sender := &recordingSender{block: block}
	dispatcher := NewDispatcher(sender, 1, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dispatcher.Start(ctx)

	// The sender blocks, so one call sits in flight and one fills the queue.
	// Everything past that is rejected immediately.
	require.NoError(t, dispatcher.Enqueue(Call{Type: "TEST", Message: 1}))
	var err error
	for i := 0; i < 10; i++ {
		err = dispatcher.Enqueue(Call{Type: "TEST", Message: i})
		if err != nil {
			break
		}
	}
	assert.Equal(t, api.ErrQueueFull, err)

	close(block)
	dispatcher.Close()
}

func TestDispatcherEnqueueAfterClose(t *testing.T) {
	sender := &recordingSender{}
	dispatcher := NewDispatcher(sender, 16, time.Second)
	dispatcher.Start(context.Background())
	dispatcher.Close()

	assert.Equal(t, api.ErrDriverStopped, dispatcher.Enqueue(Call{Type: "TEST"}))
}

func TestDispatcherCloseDrainsQueue(t *testing.T) {
	sender := &recordingSender{}
	dispatcher := NewDispatcher(sender, 16, time.Second)

	// Enqueue before the sender goroutine starts, then close immediately:
	// queued calls still go out.
	for i := 0; i < 5; i++ {
		require.NoError(t, dispatcher.Enqueue(Call{Type: "TEST", Message: i}))
	}
	dispatcher.Start(context.Background())
	dispatcher.Close()

	assert.Len(t, sender.sent(), 5)
}

func TestDispatcherSendFailureIsSwallowed(t *testing.T) {
	sender := &recordingSender{err: errors.New("connection refused")}
	dispatcher := NewDispatcher(sender, 16, time.Second)
	dispatcher.Start(context.Background())

	require.NoError(t, dispatcher.Enqueue(Call{Type: "TEST", Message: "doomed"}))
	dispatcher.Close()

	// The failure is logged, not surfaced; the dispatcher keeps going.
	assert.Len(t, sender.sent(), 1)
}
