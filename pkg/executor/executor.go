// Package executor implements the executor-side driver for the agent's
// executor API: it maintains the subscription to the local agent, delivers
// launch/kill events to a user-supplied Executor and retries status updates
// until the agent acknowledges them.
package executor

import (
	log "github.com/sirupsen/logrus"

	"github.com/droverproject/drover/pkg/api"
)

// Executor receives events from the driver. Callbacks are delivered serially
// by a single goroutine: a callback always returns before the next fires.
// In particular no other callback is invoked until LaunchTask returns, so
// long-running work must be handed off rather than done inline.
//
// Embed NopExecutor to implement only the callbacks an executor cares about.
type Executor interface {
	// Registered fires once the driver has subscribed with the agent. The
	// scheduler can pass data to the executor through ExecutorInfo.Data.
	Registered(driver *Driver, executorInfo api.ExecutorInfo, frameworkInfo api.FrameworkInfo, agentInfo api.AgentInfo)

	// Reregistered fires when the driver re-subscribes with a restarted
	// agent.
	Reregistered(driver *Driver, agentInfo api.AgentInfo)

	// Disconnected fires when the session to the agent is lost, e.g. the
	// agent restarts for an upgrade.
	Disconnected(driver *Driver)

	// LaunchTask fires when the scheduler launches a task on this executor.
	LaunchTask(driver *Driver, task api.TaskInfo)

	// LaunchTaskGroup fires when the scheduler launches a task group.
	LaunchTaskGroup(driver *Driver, tasks []api.TaskInfo)

	// KillTask fires when a task run by this executor is killed. No status
	// update is sent on the executor's behalf: the executor must send a
	// terminal update (e.g. TASK_KILLED) itself via SendStatusUpdate.
	KillTask(driver *Driver, taskID api.TaskID)

	// FrameworkMessage fires when the scheduler sends a message. Best
	// effort, never retransmitted.
	FrameworkMessage(driver *Driver, data []byte)

	// Shutdown fires when the executor must terminate all running tasks.
	// Tasks without terminal updates when the executor exits are reported
	// TASK_LOST by the agent.
	Shutdown(driver *Driver)

	// Error fires on an unrecoverable error. The driver is aborted before
	// this callback is invoked.
	Error(driver *Driver, message string)
}

// NopExecutor implements Executor with no-op callbacks, except Error which
// logs the failure.
type NopExecutor struct{}

func (NopExecutor) Registered(*Driver, api.ExecutorInfo, api.FrameworkInfo, api.AgentInfo) {}
func (NopExecutor) Reregistered(*Driver, api.AgentInfo)                                    {}
func (NopExecutor) Disconnected(*Driver)                                                   {}
func (NopExecutor) LaunchTask(*Driver, api.TaskInfo)                                       {}
func (NopExecutor) LaunchTaskGroup(*Driver, []api.TaskInfo)                                {}
func (NopExecutor) KillTask(*Driver, api.TaskID)                                           {}
func (NopExecutor) FrameworkMessage(*Driver, []byte)                                       {}
func (NopExecutor) Shutdown(*Driver)                                                       {}

func (NopExecutor) Error(_ *Driver, message string) {
	log.Errorf("Executor driver error: %s", message)
}
