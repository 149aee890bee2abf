package driver

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/droverproject/drover/pkg/api"
)

// Sender delivers one encoded call to the remote daemon. Implemented by
// httpapi.Client.
type Sender interface {
	Call(ctx context.Context, call interface{}) error
}

// Call is one outbound intent queued for dispatch. Type is the call type
// label, used for logging and metrics only.
type Call struct {
	Type    string
	Message interface{}
}

// Dispatcher serializes outbound calls from arbitrary caller goroutines onto
// the connection. The queue is bounded; enqueueing onto a full queue fails
// immediately with ErrQueueFull rather than blocking the caller. Calls are
// fire-and-forget: a send failure is logged and counted but never retried
// here, since every call in the protocol is best effort and observed
// asynchronously through later events.
type Dispatcher struct {
	sender      Sender
	queue       chan Call
	callTimeout time.Duration

	mu     sync.Mutex
	closed bool

	wg sync.WaitGroup
}

func NewDispatcher(sender Sender, queueSize int, callTimeout time.Duration) *Dispatcher {
	return &Dispatcher{
		sender:      sender,
		queue:       make(chan Call, queueSize),
		callTimeout: callTimeout,
	}
}

// Start launches the sender goroutine. The goroutine exits when ctx is
// cancelled (abort path, queued calls dropped) or the queue is closed and
// drained (stop path).
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case call, ok := <-d.queue:
				if !ok {
					return
				}
				d.send(ctx, call)
			}
		}
	}()
}

// Enqueue accepts a call onto the queue without blocking.
func (d *Dispatcher) Enqueue(call Call) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return api.ErrDriverStopped
	}
	select {
	case d.queue <- call:
		metricCallsEnqueued.WithLabelValues(call.Type).Inc()
		return nil
	default:
		metricQueueRejections.Inc()
		return api.ErrQueueFull
	}
}

// Close stops accepting calls and, once in-flight sends finish, stops the
// sender goroutine. Calls still queued are sent unless the context given to
// Start has been cancelled.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) send(ctx context.Context, call Call) {
	sendCtx := ctx
	if d.callTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, d.callTimeout)
		defer cancel()
	}
	if err := d.sender.Call(sendCtx, call.Message); err != nil {
		metricCallFailures.WithLabelValues(call.Type).Inc()
		log.WithError(err).Warnf("Failed to send %s call", call.Type)
	}
}
