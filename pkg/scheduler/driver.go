package scheduler

import (
	"context"
	"encoding/json"
	"os"
	"os/user"
	"strings"
	"sync"
	"time"

	retry "github.com/avast/retry-go"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/droverproject/drover/internal/common/util"
	"github.com/droverproject/drover/internal/driver"
	"github.com/droverproject/drover/pkg/fidstore"
	"github.com/droverproject/drover/internal/httpapi"
	"github.com/droverproject/drover/pkg/api"
)

type connState int

const (
	connDisconnected connState = iota
	connRegistering
	connRegistered
)

const (
	defaultCallQueueSize  = 64
	defaultCallTimeout    = 10 * time.Second
	defaultHeartbeatGrace = 75 * time.Second
	subscribeAttempts     = 8
	subscribeBaseDelay    = 500 * time.Millisecond
)

// Config configures a scheduler driver.
type Config struct {
	// Master is the base URL of the master, e.g. "http://master:5050".
	Master string

	// Framework identifies this framework to the master. User and Hostname
	// default to the current user and host when empty.
	Framework api.FrameworkInfo

	// ExplicitAcknowledgements selects the acknowledgement mode for the life
	// of the driver. When false, returning from the StatusUpdate callback
	// acknowledges the update and calling AcknowledgeStatusUpdate is a fatal
	// contract violation that aborts the driver.
	ExplicitAcknowledgements bool

	// FrameworkIDStore persists the master-assigned framework id across
	// process restarts for failover. Defaults to an in-memory store, which
	// supports reconnection within one process only.
	FrameworkIDStore fidstore.Store

	// CallQueueSize bounds the outbound dispatch queue. Enqueueing onto a
	// full queue fails with ErrQueueFull; callers are never blocked.
	CallQueueSize int

	// CallTimeout bounds each outbound HTTP call.
	CallTimeout time.Duration

	// HeartbeatGrace is the longest silence tolerated on the event stream
	// before the connection is considered lost. Raised automatically when
	// the master advertises a heartbeat interval implying a longer grace.
	HeartbeatGrace time.Duration
}

func (c *Config) applyDefaults() error {
	if c.Master == "" {
		return errors.New("master URL must be configured")
	}
	if c.Framework.User == "" {
		if u, err := user.Current(); err == nil {
			c.Framework.User = u.Username
		} else {
			c.Framework.User = "unknown"
		}
	}
	if c.Framework.Hostname == "" {
		if host, err := os.Hostname(); err == nil {
			c.Framework.Hostname = host
		}
	}
	if c.FrameworkIDStore == nil {
		c.FrameworkIDStore = fidstore.NewInMemoryStore()
	}
	if c.CallQueueSize == 0 {
		c.CallQueueSize = defaultCallQueueSize
	}
	if c.CallTimeout == 0 {
		c.CallTimeout = defaultCallTimeout
	}
	if c.HeartbeatGrace == 0 {
		c.HeartbeatGrace = defaultHeartbeatGrace
	}
	return nil
}

// Driver connects a Scheduler to the master. One goroutine owns the
// subscription and delivers callbacks serially; outbound calls may be made
// from any goroutine, including from inside callbacks.
type Driver struct {
	scheduler Scheduler
	config    Config

	client        *httpapi.Client
	lifecycle     *driver.Lifecycle
	tracker       *driver.OfferTracker
	taskAcks      *driver.AckLedger
	operationAcks *driver.AckLedger
	dispatcher    *driver.Dispatcher
	idStore       fidstore.Store

	cancel   context.CancelFunc
	loopDone chan struct{}

	mu          sync.Mutex
	frameworkID *api.FrameworkID
	registered  bool
	conn        connState
}

// New builds a driver for the given scheduler. The driver does nothing until
// Start is called. A previously persisted framework id is picked up from the
// configured store so a restarted framework fails over to its running tasks.
func New(s Scheduler, config Config) (*Driver, error) {
	if err := config.applyDefaults(); err != nil {
		return nil, err
	}
	client := httpapi.NewClient(strings.TrimSuffix(config.Master, "/") + "/api/v1/scheduler")
	clock := &util.DefaultClock{}
	d := &Driver{
		scheduler:     s,
		config:        config,
		client:        client,
		lifecycle:     driver.NewLifecycle(),
		tracker:       driver.NewOfferTracker(),
		taskAcks:      driver.NewAckLedger(clock),
		operationAcks: driver.NewAckLedger(clock),
		dispatcher:    driver.NewDispatcher(client, config.CallQueueSize, config.CallTimeout),
		idStore:       config.FrameworkIDStore,
		loopDone:      make(chan struct{}),
	}
	id, err := d.idStore.Get()
	if err != nil {
		return nil, errors.Wrap(err, "reading persisted framework id")
	}
	if id != "" {
		d.frameworkID = &api.FrameworkID{Value: id}
	}
	return d, nil
}

// Start begins connecting to the master. It must be called before any other
// driver call and fails if called twice.
func (d *Driver) Start() error {
	if err := d.lifecycle.Start(); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.dispatcher.Start(ctx)
	go d.eventLoop(ctx)
	return nil
}

// Stop ends the driver. With failover false the framework is torn down: the
// master terminates all its executors and tasks, and the persisted framework
// id is discarded. With failover true tasks and executors keep running for
// the framework's failover timeout, awaiting a new driver subscribed under
// the same id.
func (d *Driver) Stop(failover bool) error {
	d.mu.Lock()
	fid := d.frameworkID
	d.mu.Unlock()

	if err := d.lifecycle.Stop(); err != nil {
		return err
	}

	var result *multierror.Error
	if !failover && fid != nil {
		teardown := &httpapi.SchedulerCall{Type: httpapi.CallTeardown, FrameworkID: fid}
		ctx, cancel := context.WithTimeout(context.Background(), d.config.CallTimeout)
		if err := d.client.Call(ctx, teardown); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "sending teardown"))
		}
		cancel()
		if err := d.idStore.Clear(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	d.dispatcher.Close()
	d.cancel()
	return result.ErrorOrNil()
}

// Abort ends the driver immediately: queued calls are dropped, further
// operational calls fail fast and no more callbacks are delivered. Distinct
// from Stop so that Join observers can tell failure from planned shutdown.
func (d *Driver) Abort() error {
	if err := d.lifecycle.Abort(); err != nil {
		return err
	}
	d.cancel()
	d.dispatcher.Close()
	return nil
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

// Status returns the current lifecycle state.
func (d *Driver) Status() api.DriverStatus {
	return d.lifecycle.Status()
}

// FrameworkID returns the master-assigned framework id, nil before first
// registration.
func (d *Driver) FrameworkID() *api.FrameworkID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frameworkID
}

// RequestResources asks the master for resources, optionally on specific
// agents. Anything granted arrives later via ResourceOffers.
func (d *Driver) RequestResources(requests []api.Request) error {
	return d.enqueue(httpapi.CallRequest, &httpapi.SchedulerCall{
		Request: &httpapi.Request{Requests: requests},
	})
}

// LaunchTasks launches tasks on the named offers. All offers must be held
// and reference the same agent; their resources are aggregated, and whatever
// the tasks leave unused is declined with the given filters. An empty task
// list declines the offers in full.
func (d *Driver) LaunchTasks(offerIDs []api.OfferID, tasks []api.TaskInfo, filters *api.Filters) error {
	if len(tasks) == 0 {
		return d.decline(offerIDs, filters)
	}
	if err := d.lifecycle.CheckOperational(); err != nil {
		return err
	}
	offers, err := d.tracker.Consume(offerIDs)
	if err != nil {
		return err
	}
	agentID := offers[0].AgentID
	// The caller keeps ownership of its TaskInfo values, so agent id
	// defaulting happens on a copy.
	launch := make([]api.TaskInfo, len(tasks))
	copy(launch, tasks)
	for i := range launch {
		if launch[i].AgentID.Value == "" {
			launch[i].AgentID = agentID
		} else if launch[i].AgentID != agentID {
			d.tracker.Add(offers)
			return &api.ErrContractViolation{
				Message: "task " + launch[i].TaskID.Value + " targets a different agent than the offers it launches on",
			}
		}
	}
	err = d.enqueue(httpapi.CallAccept, &httpapi.SchedulerCall{
		Accept: &httpapi.Accept{
			OfferIDs:   offerIDs,
			Operations: []api.Operation{api.LaunchOperation(launch)},
			Filters:    filters,
		},
	})
	if err != nil {
		d.tracker.Add(offers)
		return err
	}
	driver.GaugeOffers(d.tracker.Size())
	return nil
}

// AcceptOffers accepts the named offers and applies the given operations to
// their resources. The same-agent and single-use offer rules of LaunchTasks
// apply.
func (d *Driver) AcceptOffers(offerIDs []api.OfferID, operations []api.Operation, filters *api.Filters) error {
	if err := d.lifecycle.CheckOperational(); err != nil {
		return err
	}
	offers, err := d.tracker.Consume(offerIDs)
	if err != nil {
		return err
	}
	err = d.enqueue(httpapi.CallAccept, &httpapi.SchedulerCall{
		Accept: &httpapi.Accept{OfferIDs: offerIDs, Operations: operations, Filters: filters},
	})
	if err != nil {
		d.tracker.Add(offers)
		return err
	}
	driver.GaugeOffers(d.tracker.Size())
	return nil
}

// DeclineOffer declines a single offer in its entirety, applying the filters
// to its resources.
func (d *Driver) DeclineOffer(offerID api.OfferID, filters *api.Filters) error {
	return d.decline([]api.OfferID{offerID}, filters)
}

func (d *Driver) decline(offerIDs []api.OfferID, filters *api.Filters) error {
	if err := d.lifecycle.CheckOperational(); err != nil {
		return err
	}
	offers, err := d.tracker.ConsumeAny(offerIDs)
	if err != nil {
		return err
	}
	err = d.enqueue(httpapi.CallDecline, &httpapi.SchedulerCall{
		Decline: &httpapi.Decline{OfferIDs: offerIDs, Filters: filters},
	})
	if err != nil {
		d.tracker.Add(offers)
		return err
	}
	driver.GaugeOffers(d.tracker.Size())
	return nil
}

// AcceptInverseOffers accepts inverse offers, committing the framework to
// vacate the named resources before the advertised unavailability.
func (d *Driver) AcceptInverseOffers(offerIDs []api.OfferID, filters *api.Filters) error {
	if err := d.lifecycle.CheckOperational(); err != nil {
		return err
	}
	if _, err := d.tracker.ConsumeInverse(offerIDs); err != nil {
		return err
	}
	return d.enqueue(httpapi.CallAcceptInverseOffers, &httpapi.SchedulerCall{
		AcceptInverseOffers: &httpapi.AcceptInverseOffers{InverseOfferIDs: offerIDs, Filters: filters},
	})
}

// DeclineInverseOffer declines inverse offers, signalling that the resources
// may not be safely vacated in time.
func (d *Driver) DeclineInverseOffer(offerIDs []api.OfferID, filters *api.Filters) error {
	if err := d.lifecycle.CheckOperational(); err != nil {
		return err
	}
	if _, err := d.tracker.ConsumeInverse(offerIDs); err != nil {
		return err
	}
	return d.enqueue(httpapi.CallDeclineInverseOffers, &httpapi.SchedulerCall{
		DeclineInverseOffers: &httpapi.DeclineInverseOffers{InverseOfferIDs: offerIDs, Filters: filters},
	})
}

// KillTask asks the master to kill a task. Best effort: delivery is not
// guaranteed, and a scheduler that fails over while a kill is in flight must
// reissue it.
func (d *Driver) KillTask(taskID api.TaskID) error {
	return d.enqueue(httpapi.CallKill, &httpapi.SchedulerCall{
		Kill: &httpapi.Kill{TaskID: taskID},
	})
}

// ReviveOffers clears all filters previously applied by accepts and
// declines, resuming the full flow of offers.
func (d *Driver) ReviveOffers() error {
	return d.enqueue(httpapi.CallRevive, &httpapi.SchedulerCall{})
}

// SuppressOffers tells the master to stop sending offers until ReviveOffers.
func (d *Driver) SuppressOffers() error {
	return d.enqueue(httpapi.CallSuppress, &httpapi.SchedulerCall{})
}

// AcknowledgeStatusUpdate acknowledges one status update, identified exactly
// by its task id and uuid. Only legal on a driver constructed with explicit
// acknowledgements: under implicit mode this call is a fatal contract
// violation and aborts the driver. Acknowledging an update that is not
// pending (typically a duplicate acknowledgement) is an idempotent no-op.
func (d *Driver) AcknowledgeStatusUpdate(status api.TaskStatus) error {
	if err := d.lifecycle.CheckOperational(); err != nil {
		return err
	}
	if !d.config.ExplicitAcknowledgements {
		return d.fatal("AcknowledgeStatusUpdate called on a driver using implicit acknowledgements")
	}
	if len(status.UUID) == 0 {
		return &api.ErrContractViolation{Message: "status update carries no uuid to acknowledge"}
	}
	if status.AgentID == nil {
		return &api.ErrContractViolation{Message: "status update carries no agent id"}
	}
	key := driver.AckKey{ID: status.TaskID.Value, UUID: string(status.UUID)}
	if !d.taskAcks.Has(key) {
		log.Debugf("Ignoring acknowledgement for task %s: update is not pending", status.TaskID.Value)
		return nil
	}
	err := d.enqueue(httpapi.CallAcknowledge, &httpapi.SchedulerCall{
		Acknowledge: &httpapi.Acknowledge{AgentID: *status.AgentID, TaskID: status.TaskID, UUID: status.UUID},
	})
	if err != nil {
		return err
	}
	d.taskAcks.Acknowledge(key)
	driver.GaugePendingAcks(d.taskAcks.Size() + d.operationAcks.Size())
	return nil
}

// AcknowledgeOperationStatusUpdate acknowledges one operation status update.
// The same mode rules as AcknowledgeStatusUpdate apply.
func (d *Driver) AcknowledgeOperationStatusUpdate(status api.OperationStatus) error {
	if err := d.lifecycle.CheckOperational(); err != nil {
		return err
	}
	if !d.config.ExplicitAcknowledgements {
		return d.fatal("AcknowledgeOperationStatusUpdate called on a driver using implicit acknowledgements")
	}
	if status.OperationID == nil || len(status.UUID) == 0 {
		return &api.ErrContractViolation{Message: "operation status carries no operation id or uuid to acknowledge"}
	}
	key := driver.AckKey{ID: status.OperationID.Value, UUID: string(status.UUID)}
	if !d.operationAcks.Has(key) {
		log.Debugf("Ignoring acknowledgement for operation %s: update is not pending", status.OperationID.Value)
		return nil
	}
	err := d.enqueue(httpapi.CallAcknowledgeOperationStatus, &httpapi.SchedulerCall{
		AcknowledgeOperationStatus: &httpapi.AcknowledgeOperationStatus{
			AgentID:     status.AgentID,
			OperationID: *status.OperationID,
			UUID:        status.UUID,
		},
	})
	if err != nil {
		return err
	}
	d.operationAcks.Acknowledge(key)
	driver.GaugePendingAcks(d.taskAcks.Size() + d.operationAcks.Size())
	return nil
}

// SendFrameworkMessage sends a message to one of the framework's executors.
// Best effort, never retransmitted.
func (d *Driver) SendFrameworkMessage(executorID api.ExecutorID, agentID api.AgentID, data []byte) error {
	return d.enqueue(httpapi.CallMessage, &httpapi.SchedulerCall{
		Message: &httpapi.Message{AgentID: agentID, ExecutorID: executorID, Data: data},
	})
}

// ReconcileTasks asks the master for the latest status of the named tasks,
// delivered as ordinary status updates. An empty or nil list asks for every
// task the master knows about.
func (d *Driver) ReconcileTasks(taskIDs []api.TaskID) error {
	tasks := make([]httpapi.ReconcileTask, 0, len(taskIDs))
	for _, id := range taskIDs {
		tasks = append(tasks, httpapi.ReconcileTask{TaskID: id})
	}
	return d.enqueue(httpapi.CallReconcile, &httpapi.SchedulerCall{
		Reconcile: &httpapi.Reconcile{Tasks: tasks},
	})
}

func (d *Driver) enqueue(callType httpapi.CallType, call *httpapi.SchedulerCall) error {
	if err := d.lifecycle.CheckOperational(); err != nil {
		return err
	}
	d.mu.Lock()
	fid := d.frameworkID
	d.mu.Unlock()
	if fid == nil {
		return api.ErrDisconnected
	}
	call.Type = callType
	call.FrameworkID = fid
	return d.dispatcher.Enqueue(driver.Call{Type: string(callType), Message: call})
}

// fatal aborts the driver over a contract violation and notifies the error
// callback once the event loop has wound down, preserving serial callback
// delivery. Safe to call from inside a callback.
func (d *Driver) fatal(message string) error {
	if d.lifecycle.Abort() == nil {
		d.cancel()
		d.dispatcher.Close()
		if !d.lifecycle.OnEventLoop() {
			<-d.loopDone
		}
		d.scheduler.Error(d, message)
	}
	return &api.ErrContractViolation{Message: message, Fatal: true}
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

// subscribe registers (or re-registers) with the master, retrying with
// exponential backoff. The persisted framework id, when present, is attached
// so a failed-over framework reclaims its running tasks.
func (d *Driver) subscribe(ctx context.Context) (*httpapi.Stream, error) {
	d.mu.Lock()
	d.conn = connRegistering
	info := d.config.Framework
	info.ID = d.frameworkID
	call := &httpapi.SchedulerCall{
		Type:        httpapi.CallSubscribe,
		FrameworkID: d.frameworkID,
		Subscribe:   &httpapi.Subscribe{FrameworkInfo: info},
	}
	d.mu.Unlock()

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
			log.WithError(err).Warnf("Subscribe attempt %d to %s failed", n+1, d.client.URL())
		}),
	)
	return stream, err
}

func (d *Driver) serveStream(ctx context.Context, stream *httpapi.Stream) {
	grace := d.config.HeartbeatGrace
	// The watchdog closes the stream after prolonged silence, unblocking the
	// pending read. No callbacks fire from this goroutine.
	watchdog := time.AfterFunc(grace, func() { stream.Close() })
	defer watchdog.Stop()

	for {
		record, err := stream.Next()
		if err != nil {
			if ctx.Err() == nil && d.lifecycle.Status() == api.DriverRunning {
				log.WithError(err).Warn("Event stream closed")
			}
			return
		}
		watchdog.Reset(grace)

		var event httpapi.SchedulerEvent
		if err := json.Unmarshal(record, &event); err != nil {
			// Likely an event type newer than this client. Skip it.
			log.WithError(err).Error("Failed to decode event")
			continue
		}
		driver.CountEvent(string(event.Type))

		if event.Type == httpapi.EventSubscribed && event.Subscribed != nil {
			if interval := event.Subscribed.HeartbeatIntervalSeconds; interval > 0 {
				if g := time.Duration(5 * interval * float64(time.Second)); g > grace {
					grace = g
				}
			}
		}

		if d.lifecycle.Status() != api.DriverRunning {
			return
		}
		d.handleEvent(&event)
		if d.lifecycle.Status() != api.DriverRunning {
			return
		}
	}
}

func (d *Driver) handleEvent(event *httpapi.SchedulerEvent) {
	switch event.Type {
	case httpapi.EventSubscribed:
		if event.Subscribed != nil {
			d.handleSubscribed(event.Subscribed)
		}
	case httpapi.EventOffers:
		if event.Offers != nil {
			d.tracker.Add(event.Offers.Offers)
			driver.GaugeOffers(d.tracker.Size())
			d.scheduler.ResourceOffers(d, event.Offers.Offers)
		}
	case httpapi.EventInverseOffers:
		if event.InverseOffers != nil {
			d.tracker.AddInverse(event.InverseOffers.InverseOffers)
			d.scheduler.InverseOffers(d, event.InverseOffers.InverseOffers)
		}
	case httpapi.EventRescind:
		if event.Rescind != nil {
			d.tracker.Rescind(event.Rescind.OfferID)
			driver.GaugeOffers(d.tracker.Size())
			d.scheduler.OfferRescinded(d, event.Rescind.OfferID)
		}
	case httpapi.EventRescindInverseOffer:
		if event.RescindInverseOffer != nil {
			d.tracker.RescindInverse(event.RescindInverseOffer.InverseOfferID)
			d.scheduler.InverseOfferRescinded(d, event.RescindInverseOffer.InverseOfferID)
		}
	case httpapi.EventUpdate:
		if event.Update != nil {
			d.handleUpdate(event.Update.Status)
		}
	case httpapi.EventUpdateOperationStatus:
		if event.UpdateOperationStatus != nil {
			d.handleOperationUpdate(event.UpdateOperationStatus.Status)
		}
	case httpapi.EventMessage:
		if event.Message != nil {
			d.scheduler.FrameworkMessage(d, event.Message.ExecutorID, event.Message.AgentID, event.Message.Data)
		}
	case httpapi.EventFailure:
		if event.Failure != nil {
			d.handleFailure(event.Failure)
		}
	case httpapi.EventError:
		if event.Error != nil {
			// Contract: the driver is aborted before the error callback.
			d.lifecycle.Abort()
			d.cancel()
			d.scheduler.Error(d, event.Error.Message)
		}
	case httpapi.EventHeartbeat:
		d.scheduler.Heartbeat(d)
	default:
		log.Debugf("Ignoring unknown event type %q", event.Type)
	}
}

func (d *Driver) handleSubscribed(ev *httpapi.SubscribedEvent) {
	d.mu.Lock()
	first := !d.registered
	d.registered = true
	d.conn = connRegistered
	d.frameworkID = &ev.FrameworkID
	d.mu.Unlock()

	if err := d.idStore.Set(ev.FrameworkID.Value); err != nil {
		log.WithError(err).Warn("Failed to persist framework id; failover across restarts is at risk")
	}

	if first {
		log.Infof("Registered with master at %s as framework %s", d.client.URL(), ev.FrameworkID.Value)
		d.scheduler.Registered(d, ev.FrameworkID, ev.MasterInfo)
	} else {
		log.Infof("Re-registered with master as framework %s", ev.FrameworkID.Value)
		driver.CountReconnect()
		d.scheduler.Reregistered(d, ev.MasterInfo)
	}
}

func (d *Driver) handleUpdate(status api.TaskStatus) {
	if len(status.UUID) == 0 {
		// No acknowledgement owed, e.g. updates generated by the master
		// during reconciliation.
		d.scheduler.StatusUpdate(d, status)
		return
	}
	if d.config.ExplicitAcknowledgements {
		key := driver.AckKey{ID: status.TaskID.Value, UUID: string(status.UUID)}
		if !d.taskAcks.Record(key, status) {
			log.Debugf("Suppressing duplicate status update for task %s", status.TaskID.Value)
			return
		}
		driver.GaugePendingAcks(d.taskAcks.Size() + d.operationAcks.Size())
		d.scheduler.StatusUpdate(d, status)
		return
	}
	// Implicit mode: returning from the callback acknowledges receipt.
	d.scheduler.StatusUpdate(d, status)
	if status.AgentID == nil {
		return
	}
	err := d.enqueue(httpapi.CallAcknowledge, &httpapi.SchedulerCall{
		Acknowledge: &httpapi.Acknowledge{AgentID: *status.AgentID, TaskID: status.TaskID, UUID: status.UUID},
	})
	if err != nil {
		log.WithError(err).Warnf("Failed to acknowledge status update for task %s; the master will redeliver", status.TaskID.Value)
	}
}

func (d *Driver) handleOperationUpdate(status api.OperationStatus) {
	if len(status.UUID) > 0 && status.OperationID != nil {
		key := driver.AckKey{ID: status.OperationID.Value, UUID: string(status.UUID)}
		if !d.operationAcks.Record(key, status) {
			log.Debugf("Suppressing duplicate status update for operation %s", status.OperationID.Value)
			return
		}
		driver.GaugePendingAcks(d.taskAcks.Size() + d.operationAcks.Size())
	}
	d.scheduler.OperationStatusUpdate(d, status)
}

func (d *Driver) handleFailure(failure *httpapi.FailureEvent) {
	switch {
	case failure.ExecutorID != nil && failure.AgentID != nil:
		exitStatus := -1
		if failure.Status != nil {
			exitStatus = int(*failure.Status)
		}
		d.scheduler.ExecutorLost(d, *failure.ExecutorID, *failure.AgentID, exitStatus)
	case failure.AgentID != nil:
		d.scheduler.AgentLost(d, *failure.AgentID)
	}
}

// handleDisconnect runs on the event loop when the subscription drops while
// the driver is still running. Held offers are invalidated wholesale: no
// rescind will arrive for them and the master may have reallocated the
// resources already.
func (d *Driver) handleDisconnect() {
	d.mu.Lock()
	wasRegistered := d.conn == connRegistered
	d.conn = connDisconnected
	d.mu.Unlock()

	if n := d.tracker.InvalidateAll(); n > 0 {
		log.Infof("Invalidated %d offers on disconnect", n)
	}
	driver.GaugeOffers(0)
	if wasRegistered {
		d.scheduler.Disconnected(d)
	}
}
