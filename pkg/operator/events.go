package operator

import (
	"context"
	"encoding/json"
	"time"

	retry "github.com/avast/retry-go"
	log "github.com/sirupsen/logrus"

	"github.com/droverproject/drover/internal/driver"
	"github.com/droverproject/drover/internal/httpapi"
	"github.com/droverproject/drover/pkg/api"
)

const (
	eventStreamGrace   = 75 * time.Second
	subscribeAttempts  = 8
	subscribeBaseDelay = 500 * time.Millisecond
)

// Master receives events from the master's operator subscription. Callbacks
// are delivered serially by the goroutine running Subscribe. All events are
// informational state-change notifications; none require acknowledgement.
//
// Embed NopMaster to implement only the callbacks of interest.
type Master interface {
	// TaskAdded fires when a task becomes known to the master: a new launch,
	// or an agent re-registering after a master failover.
	TaskAdded(task Task)

	// TaskUpdated fires when a task's state changes in the master. Agents
	// retry status updates, so not every retried update produces an event.
	TaskUpdated(frameworkID api.FrameworkID, status api.TaskStatus)

	// FrameworkAdded fires when a new framework registers.
	FrameworkAdded(framework Framework)

	// FrameworkUpdated fires when a framework re-registers after a
	// disconnection or master failover.
	FrameworkUpdated(framework Framework)

	// FrameworkRemoved fires when a framework is torn down or fails to
	// re-register within its failover timeout.
	FrameworkRemoved(frameworkInfo api.FrameworkInfo)

	// AgentAdded fires when an agent registers, or re-registers after a
	// master failover.
	AgentAdded(agent Agent)

	// AgentRemoved fires when an agent is removed, e.g. for maintenance. An
	// agent may come back after removal once the master forgets it.
	AgentRemoved(agentID api.AgentID)
}

// NopMaster implements Master with no-op callbacks.
type NopMaster struct{}

func (NopMaster) TaskAdded(Task)                              {}
func (NopMaster) TaskUpdated(api.FrameworkID, api.TaskStatus) {}
func (NopMaster) FrameworkAdded(Framework)                    {}
func (NopMaster) FrameworkUpdated(Framework)                  {}
func (NopMaster) FrameworkRemoved(api.FrameworkInfo)          {}
func (NopMaster) AgentAdded(Agent)                            {}
func (NopMaster) AgentRemoved(api.AgentID)                    {}

// Event is the envelope for operator subscription events.
type Event struct {
	Type string `json:"type"`

	Subscribed       *SubscribedEvent       `json:"subscribed,omitempty"`
	TaskAdded        *TaskAddedEvent        `json:"task_added,omitempty"`
	TaskUpdated      *TaskUpdatedEvent      `json:"task_updated,omitempty"`
	FrameworkAdded   *FrameworkEvent        `json:"framework_added,omitempty"`
	FrameworkUpdated *FrameworkEvent        `json:"framework_updated,omitempty"`
	FrameworkRemoved *FrameworkRemovedEvent `json:"framework_removed,omitempty"`
	AgentAdded       *AgentAddedEvent       `json:"agent_added,omitempty"`
	AgentRemoved     *AgentRemovedEvent     `json:"agent_removed,omitempty"`
}

type SubscribedEvent struct {
	GetState                 *GetStateResponse `json:"get_state,omitempty"`
	HeartbeatIntervalSeconds float64           `json:"heartbeat_interval_seconds,omitempty"`
}

type TaskAddedEvent struct {
	Task Task `json:"task"`
}

type TaskUpdatedEvent struct {
	FrameworkID api.FrameworkID `json:"framework_id"`
	Status      api.TaskStatus  `json:"status"`
	State       api.TaskState   `json:"state,omitempty"`
}

type FrameworkEvent struct {
	Framework Framework `json:"framework"`
}

type FrameworkRemovedEvent struct {
	FrameworkInfo api.FrameworkInfo `json:"framework_info"`
}

type AgentAddedEvent struct {
	Agent Agent `json:"agent"`
}

type AgentRemovedEvent struct {
	AgentID api.AgentID `json:"agent_id"`
}

// Subscribe opens the master's operator event stream and delivers events to
// handler until ctx is cancelled. The subscription is re-established with
// backoff after disconnects; on re-subscription the master replays current
// state as TaskAdded/FrameworkAdded/AgentAdded events. Subscribe blocks the
// calling goroutine; that goroutine is the one delivering callbacks.
func (m *MasterClient) Subscribe(ctx context.Context, handler Master) error {
	stream := httpapi.NewClient(m.c.url)

	for ctx.Err() == nil {
		s, err := subscribeStream(ctx, stream)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			continue
		}
		serveOperatorStream(ctx, s, handler)
		s.Close()
		if ctx.Err() == nil {
			driver.CountReconnect()
		}
	}
	return ctx.Err()
}

func subscribeStream(ctx context.Context, client *httpapi.Client) (*httpapi.Stream, error) {
	var stream *httpapi.Stream
	err := retry.Do(
		func() error {
			if ctx.Err() != nil {
				return retry.Unrecoverable(ctx.Err())
			}
			s, err := client.Subscribe(ctx, &Call{Type: "SUBSCRIBE"})
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
			log.WithError(err).Warnf("Operator subscribe attempt %d to %s failed", n+1, client.URL())
		}),
	)
	return stream, err
}

func serveOperatorStream(ctx context.Context, stream *httpapi.Stream, handler Master) {
	grace := eventStreamGrace
	watchdog := time.AfterFunc(grace, func() { stream.Close() })
	defer watchdog.Stop()

	for {
		record, err := stream.Next()
		if err != nil {
			if ctx.Err() == nil {
				log.WithError(err).Warn("Operator event stream closed")
			}
			return
		}
		watchdog.Reset(grace)

		var event Event
		if err := json.Unmarshal(record, &event); err != nil {
			log.WithError(err).Error("Failed to decode operator event")
			continue
		}
		driver.CountEvent(event.Type)

		switch event.Type {
		case "SUBSCRIBED":
			if event.Subscribed != nil {
				if interval := event.Subscribed.HeartbeatIntervalSeconds; interval > 0 {
					if g := time.Duration(5 * interval * float64(time.Second)); g > grace {
						grace = g
					}
				}
				replayState(event.Subscribed.GetState, handler)
			}
		case "TASK_ADDED":
			if event.TaskAdded != nil {
				handler.TaskAdded(event.TaskAdded.Task)
			}
		case "TASK_UPDATED":
			if event.TaskUpdated != nil {
				handler.TaskUpdated(event.TaskUpdated.FrameworkID, event.TaskUpdated.Status)
			}
		case "FRAMEWORK_ADDED":
			if event.FrameworkAdded != nil {
				handler.FrameworkAdded(event.FrameworkAdded.Framework)
			}
		case "FRAMEWORK_UPDATED":
			if event.FrameworkUpdated != nil {
				handler.FrameworkUpdated(event.FrameworkUpdated.Framework)
			}
		case "FRAMEWORK_REMOVED":
			if event.FrameworkRemoved != nil {
				handler.FrameworkRemoved(event.FrameworkRemoved.FrameworkInfo)
			}
		case "AGENT_ADDED":
			if event.AgentAdded != nil {
				handler.AgentAdded(event.AgentAdded.Agent)
			}
		case "AGENT_REMOVED":
			if event.AgentRemoved != nil {
				handler.AgentRemoved(event.AgentRemoved.AgentID)
			}
		case "HEARTBEAT":
		default:
			log.Debugf("Ignoring unknown operator event type %q", event.Type)
		}
	}
}

// replayState turns the state snapshot delivered on subscription into the
// same callbacks later incremental events use.
func replayState(state *GetStateResponse, handler Master) {
	if state == nil {
		return
	}
	if state.GetFrameworks != nil {
		for _, framework := range state.GetFrameworks.Frameworks {
			handler.FrameworkAdded(framework)
		}
	}
	if state.GetAgents != nil {
		for _, agent := range state.GetAgents.Agents {
			handler.AgentAdded(agent)
		}
	}
	if state.GetTasks != nil {
		for _, task := range state.GetTasks.Tasks {
			handler.TaskAdded(task)
		}
	}
}
