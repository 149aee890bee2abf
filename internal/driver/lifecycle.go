// Package driver holds the machinery shared by the scheduler and executor
// drivers: the lifecycle state machine, the offer tracker, the status-update
// acknowledgement ledger and the outbound call dispatcher.
package driver

import (
	"sync"

	"github.com/droverproject/drover/pkg/api"
)

// Lifecycle is the state machine NOT_STARTED -> RUNNING -> {STOPPED,
// ABORTED} shared by all driver variants. Terminal states are reached
// exactly once; Join observers are released by closing the done channel.
type Lifecycle struct {
	mu     sync.Mutex
	status api.DriverStatus
	done   chan struct{}

	// Goroutine id of the event loop, recorded so Join can refuse to block
	// the goroutine that must make progress for Join to ever return.
	eventLoopGID uint64
}

func NewLifecycle() *Lifecycle {
	return &Lifecycle{done: make(chan struct{})}
}

func (l *Lifecycle) Status() api.DriverStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// Start moves NOT_STARTED to RUNNING. It is the only legal transition out of
// NOT_STARTED and fails if called twice.
func (l *Lifecycle) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.status {
	case api.DriverNotStarted:
		l.status = api.DriverRunning
		return nil
	case api.DriverRunning:
		return api.ErrDriverAlreadyStarted
	case api.DriverAborted:
		return api.ErrDriverAborted
	default:
		return api.ErrDriverStopped
	}
}

// Stop moves RUNNING to STOPPED and releases Join.
func (l *Lifecycle) Stop() error {
	return l.terminate(api.DriverStopped)
}

// Abort moves RUNNING to ABORTED and releases Join. After Abort every
// operational call fails fast and no further callbacks are delivered.
func (l *Lifecycle) Abort() error {
	return l.terminate(api.DriverAborted)
}

func (l *Lifecycle) terminate(to api.DriverStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.status {
	case api.DriverRunning:
		l.status = to
		close(l.done)
		return nil
	case api.DriverNotStarted:
		return api.ErrDriverNotStarted
	case api.DriverAborted:
		return api.ErrDriverAborted
	default:
		return api.ErrDriverStopped
	}
}

// Done is closed once a terminal state is reached.
func (l *Lifecycle) Done() <-chan struct{} {
	return l.done
}

// MarkEventLoop records the calling goroutine as the one delivering
// callbacks. Called once from the top of the event loop.
func (l *Lifecycle) MarkEventLoop() {
	gid := curGoroutineID()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.eventLoopGID = gid
}

// OnEventLoop reports whether the calling goroutine is the event loop.
func (l *Lifecycle) OnEventLoop() bool {
	l.mu.Lock()
	loopGID := l.eventLoopGID
	l.mu.Unlock()
	return loopGID != 0 && loopGID == curGoroutineID()
}

// Join blocks the calling goroutine until the driver reaches a terminal
// state and returns that state. Calling Join from inside a callback would
// deadlock (the event loop can never advance past the callback), so that
// case is detected and fails instead of hanging.
func (l *Lifecycle) Join() (api.DriverStatus, error) {
	l.mu.Lock()
	loopGID := l.eventLoopGID
	status := l.status
	l.mu.Unlock()

	if status == api.DriverNotStarted {
		return status, api.ErrDriverNotStarted
	}
	if loopGID != 0 && loopGID == curGoroutineID() {
		return status, &api.ErrContractViolation{
			Message: "Join called from the driver's event loop goroutine; this would deadlock",
		}
	}

	<-l.done
	return l.Status(), nil
}

// CheckOperational returns nil when operational calls (LaunchTasks, KillTask,
// ...) are currently legal, and the matching sentinel error otherwise.
func (l *Lifecycle) CheckOperational() error {
	switch l.Status() {
	case api.DriverRunning:
		return nil
	case api.DriverNotStarted:
		return api.ErrDriverNotStarted
	case api.DriverAborted:
		return api.ErrDriverAborted
	default:
		return api.ErrDriverStopped
	}
}
