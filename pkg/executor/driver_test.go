package executor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droverproject/drover/internal/httpapi"
	"github.com/droverproject/drover/pkg/api"
)

const testTimeout = 5 * time.Second

// fakeAgent is an in-process agent speaking the v1 executor API. It records
// every call, answers SUBSCRIBE with a SUBSCRIBED event and keeps the stream
// open until the test pushes events or drops the connection.
type fakeAgent struct {
	t      *testing.T
	server *httptest.Server

	mu    sync.Mutex
	calls []httpapi.ExecutorCall

	events     chan httpapi.ExecutorEvent
	disconnect chan struct{}
}

func newFakeAgent(t *testing.T) *fakeAgent {
	a := &fakeAgent{
		t:          t,
		events:     make(chan httpapi.ExecutorEvent, 16),
		disconnect: make(chan struct{}),
	}
	a.server = httptest.NewServer(http.HandlerFunc(a.handle))
	t.Cleanup(a.server.Close)
	return a
}

func (a *fakeAgent) handle(w http.ResponseWriter, r *http.Request) {
	var call httpapi.ExecutorCall
	if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a.mu.Lock()
	a.calls = append(a.calls, call)
	a.mu.Unlock()

	if call.Type != httpapi.CallSubscribe {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	w.Header().Set("Mesos-Stream-Id", "stream-1")
	w.WriteHeader(http.StatusOK)
	flusher := w.(http.Flusher)

	a.writeEvent(w, httpapi.ExecutorEvent{
		Type: httpapi.EventSubscribed,
		Subscribed: &httpapi.ExecutorSubscribedEvent{
			ExecutorInfo:  api.ExecutorInfo{ExecutorID: api.ExecutorID{Value: "exec-1"}},
			FrameworkInfo: api.FrameworkInfo{Name: "test-framework"},
			AgentInfo:     api.AgentInfo{Hostname: "localhost"},
		},
	})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-a.disconnect:
			return
		case event := <-a.events:
			a.writeEvent(w, event)
			flusher.Flush()
		}
	}
}

func (a *fakeAgent) writeEvent(w http.ResponseWriter, event httpapi.ExecutorEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		a.t.Errorf("marshalling event: %v", err)
		return
	}
	if err := httpapi.WriteRecord(w, payload); err != nil {
		a.t.Logf("writing event: %v", err)
	}
}

func (a *fakeAgent) push(event httpapi.ExecutorEvent) {
	a.events <- event
}

func (a *fakeAgent) dropConnection() {
	a.disconnect <- struct{}{}
}

func (a *fakeAgent) updates() []httpapi.Update {
	a.mu.Lock()
	defer a.mu.Unlock()
	var updates []httpapi.Update
	for _, call := range a.calls {
		if call.Type == httpapi.CallUpdate && call.Update != nil {
			updates = append(updates, *call.Update)
		}
	}
	return updates
}

func (a *fakeAgent) waitForUpdates(min int) []httpapi.Update {
	deadline := time.Now().Add(testTimeout)
	for time.Now().Before(deadline) {
		if updates := a.updates(); len(updates) >= min {
			return updates
		}
		time.Sleep(10 * time.Millisecond)
	}
	a.t.Fatalf("agent never received %d status updates", min)
	return nil
}

func (a *fakeAgent) subscribes() []httpapi.ExecutorCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	var subs []httpapi.ExecutorCall
	for _, call := range a.calls {
		if call.Type == httpapi.CallSubscribe {
			subs = append(subs, call)
		}
	}
	return subs
}

type testExecutor struct {
	NopExecutor
	registered   chan struct{}
	reregistered chan struct{}
	launched     chan api.TaskInfo
	killed       chan api.TaskID
	messages     chan []byte
	shutdown     chan struct{}
}

func newTestExecutor() *testExecutor {
	return &testExecutor{
		registered:   make(chan struct{}, 4),
		reregistered: make(chan struct{}, 4),
		launched:     make(chan api.TaskInfo, 4),
		killed:       make(chan api.TaskID, 4),
		messages:     make(chan []byte, 4),
		shutdown:     make(chan struct{}, 4),
	}
}

func (e *testExecutor) Registered(driver *Driver, executorInfo api.ExecutorInfo, frameworkInfo api.FrameworkInfo, agentInfo api.AgentInfo) {
	e.registered <- struct{}{}
}

func (e *testExecutor) Reregistered(driver *Driver, agentInfo api.AgentInfo) {
	e.reregistered <- struct{}{}
}

func (e *testExecutor) LaunchTask(driver *Driver, task api.TaskInfo) {
	e.launched <- task
}

func (e *testExecutor) KillTask(driver *Driver, taskID api.TaskID) {
	e.killed <- taskID
}

func (e *testExecutor) FrameworkMessage(driver *Driver, data []byte) {
	e.messages <- data
}

func (e *testExecutor) Shutdown(driver *Driver) {
	e.shutdown <- struct{}{}
}

func startDriver(t *testing.T, agent *fakeAgent, exec Executor) *Driver {
	d, err := New(exec, Config{
		Agent:         agent.server.URL,
		FrameworkID:   api.FrameworkID{Value: "fw-1"},
		ExecutorID:    api.ExecutorID{Value: "exec-1"},
		RetryInterval: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, d.Start())
	t.Cleanup(func() {
		if !d.Status().Terminal() {
			d.Stop()
		}
	})
	return d
}

func waitRegistered(t *testing.T, exec *testExecutor) {
	select {
	case <-exec.registered:
	case <-time.After(testTimeout):
		t.Fatal("executor never registered")
	}
}

func TestExecutorRunsTask(t *testing.T) {
	agent := newFakeAgent(t)
	exec := newTestExecutor()
	d := startDriver(t, agent, exec)
	waitRegistered(t, exec)

	agent.push(httpapi.ExecutorEvent{
		Type: httpapi.EventLaunch,
		Launch: &httpapi.LaunchEvent{Task: api.TaskInfo{
			Name:   "task-1",
			TaskID: api.TaskID{Value: "t1"},
		}},
	})

	select {
	case task := <-exec.launched:
		assert.Equal(t, "t1", task.TaskID.Value)
	case <-time.After(testTimeout):
		t.Fatal("LaunchTask never fired")
	}

	require.NoError(t, d.SendStatusUpdate(api.TaskStatus{
		TaskID: api.TaskID{Value: "t1"},
		State:  api.TaskRunning,
	}))

	updates := agent.waitForUpdates(1)
	status := updates[0].Status
	assert.Equal(t, api.TaskRunning, status.State)
	assert.NotEmpty(t, status.UUID, "the driver assigns a uuid")
	assert.NotZero(t, status.Timestamp, "the driver stamps the update")
	require.NotNil(t, status.ExecutorID)
	assert.Equal(t, "exec-1", status.ExecutorID.Value)
	assert.Equal(t, "SOURCE_EXECUTOR", status.Source)
}

func TestExecutorRetriesUntilAcknowledged(t *testing.T) {
	agent := newFakeAgent(t)
	exec := newTestExecutor()
	d := startDriver(t, agent, exec)
	waitRegistered(t, exec)

	require.NoError(t, d.SendStatusUpdate(api.TaskStatus{
		TaskID: api.TaskID{Value: "t1"},
		State:  api.TaskRunning,
	}))

	// Unacknowledged, the update is resent with backoff.
	updates := agent.waitForUpdates(2)
	uuid := updates[0].Status.UUID
	assert.Equal(t, uuid, updates[1].Status.UUID, "retries resend the same update")

	agent.push(httpapi.ExecutorEvent{
		Type:         httpapi.EventAcknowledged,
		Acknowledged: &httpapi.AcknowledgedEvent{TaskID: api.TaskID{Value: "t1"}, UUID: uuid},
	})

	// Give in-flight retries a moment to settle, then verify the resends
	// have stopped.
	time.Sleep(300 * time.Millisecond)
	settled := len(agent.updates())
	time.Sleep(500 * time.Millisecond)
	assert.Equal(t, settled, len(agent.updates()), "acknowledged update kept being resent")
}

func TestExecutorResubscribeCarriesUnacknowledgedState(t *testing.T) {
	agent := newFakeAgent(t)
	exec := newTestExecutor()
	d := startDriver(t, agent, exec)
	waitRegistered(t, exec)

	agent.push(httpapi.ExecutorEvent{
		Type:   httpapi.EventLaunch,
		Launch: &httpapi.LaunchEvent{Task: api.TaskInfo{TaskID: api.TaskID{Value: "t1"}}},
	})
	<-exec.launched

	require.NoError(t, d.SendStatusUpdate(api.TaskStatus{
		TaskID: api.TaskID{Value: "t1"},
		State:  api.TaskRunning,
	}))
	agent.waitForUpdates(1)

	agent.dropConnection()

	select {
	case <-exec.reregistered:
	case <-time.After(testTimeout):
		t.Fatal("executor never re-registered after the connection dropped")
	}

	subs := agent.subscribes()
	require.GreaterOrEqual(t, len(subs), 2)
	resub := subs[len(subs)-1]
	require.NotNil(t, resub.Subscribe)
	assert.Len(t, resub.Subscribe.UnacknowledgedUpdates, 1, "pending update rides along on re-subscription")
	assert.Len(t, resub.Subscribe.UnacknowledgedTasks, 1, "task without an acked terminal update rides along")
}

func TestExecutorShutdown(t *testing.T) {
	agent := newFakeAgent(t)
	exec := newTestExecutor()
	startDriver(t, agent, exec)
	waitRegistered(t, exec)

	agent.push(httpapi.ExecutorEvent{Type: httpapi.EventShutdown})

	select {
	case <-exec.shutdown:
	case <-time.After(testTimeout):
		t.Fatal("Shutdown never fired")
	}
}

// stoppingExecutor stops its own driver when the agent orders a shutdown,
// the usual way a real executor winds down.
type stoppingExecutor struct {
	NopExecutor
	stopped chan error
}

func (e *stoppingExecutor) Shutdown(driver *Driver) {
	e.stopped <- driver.Stop()
}

func TestExecutorStopFromShutdownCallback(t *testing.T) {
	agent := newFakeAgent(t)
	exec := &stoppingExecutor{stopped: make(chan error, 1)}
	d := startDriver(t, agent, exec)

	agent.push(httpapi.ExecutorEvent{Type: httpapi.EventShutdown})

	select {
	case err := <-exec.stopped:
		require.NoError(t, err)
	case <-time.After(testTimeout):
		t.Fatal("Stop from the Shutdown callback never returned")
	}

	status, err := d.Join()
	require.NoError(t, err)
	assert.Equal(t, api.DriverStopped, status)
}

func TestExecutorStopWaitsForEventLoop(t *testing.T) {
	agent := newFakeAgent(t)
	exec := newTestExecutor()
	d := startDriver(t, agent, exec)
	waitRegistered(t, exec)

	// Stop only returns once the event loop has exited, so no callback can
	// fire afterwards.
	require.NoError(t, d.Stop())
	assert.Equal(t, api.DriverStopped, d.Status())

	agent.push(httpapi.ExecutorEvent{Type: httpapi.EventShutdown})
	select {
	case <-exec.shutdown:
		t.Fatal("callback fired after Stop returned")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestExecutorFrameworkMessage(t *testing.T) {
	agent := newFakeAgent(t)
	exec := newTestExecutor()
	d := startDriver(t, agent, exec)
	waitRegistered(t, exec)

	agent.push(httpapi.ExecutorEvent{
		Type:    httpapi.EventMessage,
		Message: &httpapi.ExecutorMessageEvent{Data: []byte("ping")},
	})
	select {
	case data := <-exec.messages:
		assert.Equal(t, []byte("ping"), data)
	case <-time.After(testTimeout):
		t.Fatal("FrameworkMessage never fired")
	}

	require.NoError(t, d.SendFrameworkMessage([]byte("pong")))
	deadline := time.Now().Add(testTimeout)
	for time.Now().Before(deadline) {
		agent.mu.Lock()
		var found bool
		for _, call := range agent.calls {
			if call.Type == httpapi.CallMessage && call.Message != nil && string(call.Message.Data) == "pong" {
				found = true
			}
		}
		agent.mu.Unlock()
		if found {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("agent never received the framework message")
}

func TestExecutorConfigValidation(t *testing.T) {
	_, err := New(newTestExecutor(), Config{Agent: "http://localhost:5051"})
	assert.Error(t, err, "framework and executor ids are mandatory")

	_, err = New(newTestExecutor(), Config{
		FrameworkID: api.FrameworkID{Value: "fw-1"},
		ExecutorID:  api.ExecutorID{Value: "exec-1"},
	})
	assert.Error(t, err, "agent URL is mandatory")
}
