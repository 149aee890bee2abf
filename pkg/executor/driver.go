package executor

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	retry "github.com/avast/retry-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/droverproject/drover/internal/common/util"
	"github.com/droverproject/drover/internal/driver"
	"github.com/droverproject/drover/internal/httpapi"
	"github.com/droverproject/drover/pkg/api"
)

const (
	defaultCallQueueSize = 64
	defaultCallTimeout   = 10 * time.Second
	defaultRetryInterval = 2 * time.Second
	maxRetryInterval     = 30 * time.Second
	subscribeAttempts    = 8
	subscribeBaseDelay   = 500 * time.Millisecond
)

// Config configures an executor driver. Agent, FrameworkID and ExecutorID
// are handed to the executor process by the agent that launched it.
type Config struct {
	// Agent is the base URL of the local agent, e.g. "http://localhost:5051".
	Agent string

	FrameworkID api.FrameworkID
	ExecutorID  api.ExecutorID

	// CallQueueSize bounds the outbound dispatch queue.
	CallQueueSize int

	// CallTimeout bounds each outbound HTTP call.
	CallTimeout time.Duration

	// RetryInterval is the base delay before an unacknowledged status update
	// is resent. The delay doubles per retry up to a cap; retries continue
	// until the agent acknowledges or the driver terminates.
	RetryInterval time.Duration
}

func (c *Config) applyDefaults() error {
	if c.Agent == "" {
		return errors.New("agent URL must be configured")
	}
	if c.FrameworkID.Value == "" || c.ExecutorID.Value == "" {
		return errors.New("framework id and executor id must be configured")
	}
	if c.CallQueueSize == 0 {
		c.CallQueueSize = defaultCallQueueSize
	}
	if c.CallTimeout == 0 {
		c.CallTimeout = defaultCallTimeout
	}
	if c.RetryInterval == 0 {
		c.RetryInterval = defaultRetryInterval
	}
	return nil
}

// Driver connects an Executor to its agent. One goroutine owns the
// subscription and delivers callbacks serially; SendStatusUpdate and
// SendFrameworkMessage may be called from any goroutine.
type Driver struct {
	executor Executor
	config   Config

	client     *httpapi.Client
	lifecycle  *driver.Lifecycle
	updateAcks *driver.AckLedger
	dispatcher *driver.Dispatcher
	clock      util.Clock

	cancel   context.CancelFunc
	loopDone chan struct{}

	mu         sync.Mutex
	registered bool
	// Tasks launched on this executor whose terminal update has not been
	// acknowledged yet. Resent on re-subscription so a restarted agent can
	// recover them.
	unackedTasks map[string]api.TaskInfo
}

func New(e Executor, config Config) (*Driver, error) {
	if err := config.applyDefaults(); err != nil {
		return nil, err
	}
	client := httpapi.NewClient(strings.TrimSuffix(config.Agent, "/") + "/api/v1/executor")
	clock := &util.DefaultClock{}
	return &Driver{
		executor:     e,
		config:       config,
		client:       client,
		lifecycle:    driver.NewLifecycle(),
		updateAcks:   driver.NewAckLedger(clock),
		dispatcher:   driver.NewDispatcher(client, config.CallQueueSize, config.CallTimeout),
		clock:        clock,
		loopDone:     make(chan struct{}),
		unackedTasks: map[string]api.TaskInfo{},
	}, nil
}

// Start begins connecting to the agent. It must be called before any other
// driver call and fails if called twice.
func (d *Driver) Start() error {
	if err := d.lifecycle.Start(); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.dispatcher.Start(ctx)
	go d.retryLoop(ctx)
	go d.eventLoop(ctx)
	return nil
}

// Stop ends the driver. Status updates still unacknowledged are abandoned;
// the agent reports TASK_LOST for tasks left without terminal updates. Once
// Stop returns no further callbacks are delivered, unless Stop was called
// from inside a callback, in which case the loop winds down right after that
// callback returns.
func (d *Driver) Stop() error {
	if err := d.lifecycle.Stop(); err != nil {
		return err
	}
	d.dispatcher.Close()
	d.cancel()
	d.awaitLoop()
	return nil
}

// Abort ends the driver immediately; queued calls are dropped and no further
// callbacks are delivered.
func (d *Driver) Abort() error {
	if err := d.lifecycle.Abort(); err != nil {
		return err
	}
	d.cancel()
	d.dispatcher.Close()
	d.awaitLoop()
	return nil
}

// awaitLoop blocks until the event loop exits. Waiting from the event loop
// itself (Stop inside the Shutdown callback is the usual case) would
// deadlock, so that caller returns immediately instead.
func (d *Driver) awaitLoop() {
	if !d.lifecycle.OnEventLoop() {
		<-d.loopDone
	}
}

// Join blocks until the driver is stopped or aborted and returns the
// terminal status. It must not be called from a callback: that is detected
// and fails rather than deadlocking.
func (d *Driver) Join() (api.DriverStatus, error) {
	return d.lifecycle.Join()
}

// Run starts the driver and joins it.
func (d *Driver) Run() (api.DriverStatus, error) {
	if err := d.Start(); err != nil {
		return d.lifecycle.Status(), err
	}
	return d.Join()
}

func (d *Driver) Status() api.DriverStatus {
	return d.lifecycle.Status()
}

// SendStatusUpdate sends a task status update to the scheduler via the
// agent. The update is assigned a uuid and retried with backoff until the
// agent acknowledges it or the driver terminates.
func (d *Driver) SendStatusUpdate(status api.TaskStatus) error {
	if err := d.lifecycle.CheckOperational(); err != nil {
		return err
	}
	if len(status.UUID) == 0 {
		status.UUID = []byte(uuid.New().String())
	}
	if status.Timestamp == 0 {
		status.Timestamp = float64(d.clock.Now().UnixNano()) / float64(time.Second)
	}
	if status.ExecutorID == nil {
		eid := d.config.ExecutorID
		status.ExecutorID = &eid
	}
	status.Source = "SOURCE_EXECUTOR"

	update := httpapi.Update{Status: status}
	key := driver.AckKey{ID: status.TaskID.Value, UUID: string(status.UUID)}
	if !d.updateAcks.Record(key, update) {
		return &api.ErrContractViolation{Message: "status update with this uuid was already sent"}
	}
	driver.GaugePendingAcks(d.updateAcks.Size())
	return d.enqueue(httpapi.CallUpdate, &httpapi.ExecutorCall{Update: &update})
}

// SendFrameworkMessage sends a message to the scheduler. Best effort, never
// retransmitted.
func (d *Driver) SendFrameworkMessage(data []byte) error {
	if err := d.lifecycle.CheckOperational(); err != nil {
		return err
	}
	return d.enqueue(httpapi.CallMessage, &httpapi.ExecutorCall{
		Message: &httpapi.ExecutorMessage{Data: data},
	})
}

func (d *Driver) enqueue(callType httpapi.CallType, call *httpapi.ExecutorCall) error {
	call.Type = callType
	call.FrameworkID = d.config.FrameworkID
	call.ExecutorID = d.config.ExecutorID
	return d.dispatcher.Enqueue(driver.Call{Type: string(callType), Message: call})
}

// retryLoop resends unacknowledged status updates. Each entry is retried
// once its backoff (base delay doubled per attempt, capped) has elapsed
// since the last send. The loop never delivers callbacks.
func (d *Driver) retryLoop(ctx context.Context) {
	ticker := time.NewTicker(d.config.RetryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := d.clock.Now()
			for _, entry := range d.updateAcks.Pending() {
				if now.Sub(entry.SentAt) < d.retryDelay(entry.RetryCount) {
					continue
				}
				update, ok := entry.Payload.(httpapi.Update)
				if !ok {
					continue
				}
				d.updateAcks.MarkRetried(entry.Key)
				if err := d.enqueue(httpapi.CallUpdate, &httpapi.ExecutorCall{Update: &update}); err != nil {
					log.WithError(err).Warnf("Failed to resend status update for task %s", update.Status.TaskID.Value)
				} else {
					log.Debugf("Resent unacknowledged status update for task %s (attempt %d)",
						update.Status.TaskID.Value, entry.RetryCount+1)
				}
			}
		}
	}
}

func (d *Driver) retryDelay(retryCount int) time.Duration {
	delay := d.config.RetryInterval
	for i := 0; i < retryCount && delay < maxRetryInterval; i++ {
		delay *= 2
	}
	if delay > maxRetryInterval {
		delay = maxRetryInterval
	}
	return delay
}

func (d *Driver) eventLoop(ctx context.Context) {
	defer close(d.loopDone)
	d.lifecycle.MarkEventLoop()

	for ctx.Err() == nil {
		stream, err := d.subscribe(ctx)
		if err != nil {
			continue
		}
		d.serveStream(ctx, stream)
		stream.Close()
		if ctx.Err() == nil && d.lifecycle.Status() == api.DriverRunning {
			d.handleDisconnect()
		}
	}
}

// subscribe registers (or re-registers) with the agent. Unacknowledged
// updates and tasks ride along so a restarted agent can resume where it
// left off.
func (d *Driver) subscribe(ctx context.Context) (*httpapi.Stream, error) {
	sub := &httpapi.ExecutorSubscribe{}
	for _, entry := range d.updateAcks.Pending() {
		if update, ok := entry.Payload.(httpapi.Update); ok {
			sub.UnacknowledgedUpdates = append(sub.UnacknowledgedUpdates, update)
		}
	}
	d.mu.Lock()
	for _, task := range d.unackedTasks {
		sub.UnacknowledgedTasks = append(sub.UnacknowledgedTasks, task)
	}
	d.mu.Unlock()

	call := &httpapi.ExecutorCall{
		Type:        httpapi.CallSubscribe,
		FrameworkID: d.config.FrameworkID,
		ExecutorID:  d.config.ExecutorID,
		Subscribe:   sub,
	}

	var stream *httpapi.Stream
	err := retry.Do(
		func() error {
			if ctx.Err() != nil {
				return retry.Unrecoverable(ctx.Err())
			}
			s, err := d.client.Subscribe(ctx, call)
			if err != nil {
				return err
			}
			stream = s
			return nil
		},
		retry.Attempts(subscribeAttempts),
		retry.Delay(subscribeBaseDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.WithError(err).Warnf("Subscribe attempt %d to agent %s failed", n+1, d.client.URL())
		}),
	)
	return stream, err
}

func (d *Driver) serveStream(ctx context.Context, stream *httpapi.Stream) {
	for {
		record, err := stream.Next()
		if err != nil {
			if ctx.Err() == nil && d.lifecycle.Status() == api.DriverRunning {
				log.WithError(err).Warn("Executor event stream closed")
			}
			return
		}
		var event httpapi.ExecutorEvent
		if err := json.Unmarshal(record, &event); err != nil {
			log.WithError(err).Error("Failed to decode executor event")
			continue
		}
		driver.CountEvent(string(event.Type))

		if d.lifecycle.Status() != api.DriverRunning {
			return
		}
		d.handleEvent(&event)
		if d.lifecycle.Status() != api.DriverRunning {
			return
		}
	}
}

func (d *Driver) handleEvent(event *httpapi.ExecutorEvent) {
	switch event.Type {
	case httpapi.EventSubscribed:
		if event.Subscribed != nil {
			d.handleSubscribed(event.Subscribed)
		}
	case httpapi.EventLaunch:
		if event.Launch != nil {
			d.trackTask(event.Launch.Task)
			d.executor.LaunchTask(d, event.Launch.Task)
		}
	case httpapi.EventLaunchGroup:
		if event.LaunchGroup != nil {
			for _, task := range event.LaunchGroup.TaskGroup.Tasks {
				d.trackTask(task)
			}
			d.executor.LaunchTaskGroup(d, event.LaunchGroup.TaskGroup.Tasks)
		}
	case httpapi.EventKill:
		if event.Kill != nil {
			d.executor.KillTask(d, event.Kill.TaskID)
		}
	case httpapi.EventAcknowledged:
		if event.Acknowledged != nil {
			d.handleAcknowledged(event.Acknowledged)
		}
	case httpapi.EventMessage:
		if event.Message != nil {
			d.executor.FrameworkMessage(d, event.Message.Data)
		}
	case httpapi.EventShutdown:
		d.executor.Shutdown(d)
	case httpapi.EventError:
		if event.Error != nil {
			// Contract: the driver is aborted before the error callback.
			d.lifecycle.Abort()
			d.cancel()
			d.executor.Error(d, event.Error.Message)
		}
	default:
		log.Debugf("Ignoring unknown executor event type %q", event.Type)
	}
}

func (d *Driver) handleSubscribed(ev *httpapi.ExecutorSubscribedEvent) {
	d.mu.Lock()
	first := !d.registered
	d.registered = true
	d.mu.Unlock()

	if first {
		log.Infof("Executor %s registered with agent at %s", d.config.ExecutorID.Value, d.client.URL())
		d.executor.Registered(d, ev.ExecutorInfo, ev.FrameworkInfo, ev.AgentInfo)
	} else {
		log.Infof("Executor %s re-registered with agent", d.config.ExecutorID.Value)
		driver.CountReconnect()
		d.executor.Reregistered(d, ev.AgentInfo)
	}
}

// handleAcknowledged settles one status update. Once a terminal update for a
// task is acknowledged the task itself no longer needs recovery on
// re-subscription.
func (d *Driver) handleAcknowledged(ev *httpapi.AcknowledgedEvent) {
	key := driver.AckKey{ID: ev.TaskID.Value, UUID: string(ev.UUID)}
	entries := d.updateAcks.Pending()
	d.updateAcks.Acknowledge(key)
	driver.GaugePendingAcks(d.updateAcks.Size())

	for _, entry := range entries {
		if entry.Key != key {
			continue
		}
		if update, ok := entry.Payload.(httpapi.Update); ok && update.Status.State.IsTerminal() {
			d.mu.Lock()
			delete(d.unackedTasks, ev.TaskID.Value)
			d.mu.Unlock()
		}
	}
}

func (d *Driver) trackTask(task api.TaskInfo) {
	d.mu.Lock()
	d.unackedTasks[task.TaskID.Value] = task
	d.mu.Unlock()
}

func (d *Driver) handleDisconnect() {
	d.executor.Disconnected(d)
}
