package httpapi

import (
	"github.com/droverproject/drover/pkg/api"
)

type EventType string

const (
	EventSubscribed            EventType = "SUBSCRIBED"
	EventOffers                EventType = "OFFERS"
	EventInverseOffers         EventType = "INVERSE_OFFERS"
	EventRescind               EventType = "RESCIND"
	EventRescindInverseOffer   EventType = "RESCIND_INVERSE_OFFER"
	EventUpdate                EventType = "UPDATE"
	EventUpdateOperationStatus EventType = "UPDATE_OPERATION_STATUS"
	EventMessage               EventType = "MESSAGE"
	EventFailure               EventType = "FAILURE"
	EventError                 EventType = "ERROR"
	EventHeartbeat             EventType = "HEARTBEAT"

	// Agent -> executor event types.
	EventLaunch       EventType = "LAUNCH"
	EventLaunchGroup  EventType = "LAUNCH_GROUP"
	EventKill         EventType = "KILL"
	EventAcknowledged EventType = "ACKNOWLEDGED"
	EventShutdown     EventType = "SHUTDOWN"
)

// SchedulerEvent is the envelope for every event the master delivers on a
// scheduler subscription stream. Exactly one payload field matching Type is
// set; HEARTBEAT carries no payload.
type SchedulerEvent struct {
	Type EventType `json:"type"`

	Subscribed            *SubscribedEvent            `json:"subscribed,omitempty"`
	Offers                *OffersEvent                `json:"offers,omitempty"`
	InverseOffers         *InverseOffersEvent         `json:"inverse_offers,omitempty"`
	Rescind               *RescindEvent               `json:"rescind,omitempty"`
	RescindInverseOffer   *RescindInverseOfferEvent   `json:"rescind_inverse_offer,omitempty"`
	Update                *UpdateEvent                `json:"update,omitempty"`
	UpdateOperationStatus *UpdateOperationStatusEvent `json:"update_operation_status,omitempty"`
	Message               *MessageEvent               `json:"message,omitempty"`
	Failure               *FailureEvent               `json:"failure,omitempty"`
	Error                 *ErrorEvent                 `json:"error,omitempty"`
}

type SubscribedEvent struct {
	FrameworkID              api.FrameworkID `json:"framework_id"`
	HeartbeatIntervalSeconds float64         `json:"heartbeat_interval_seconds,omitempty"`
	MasterInfo               *api.MasterInfo `json:"master_info,omitempty"`
}

type OffersEvent struct {
	Offers []api.Offer `json:"offers"`
}

type InverseOffersEvent struct {
	InverseOffers []api.InverseOffer `json:"inverse_offers"`
}

type RescindEvent struct {
	OfferID api.OfferID `json:"offer_id"`
}

type RescindInverseOfferEvent struct {
	InverseOfferID api.OfferID `json:"inverse_offer_id"`
}

type UpdateEvent struct {
	Status api.TaskStatus `json:"status"`
}

type UpdateOperationStatusEvent struct {
	Status api.OperationStatus `json:"status"`
}

type MessageEvent struct {
	AgentID    api.AgentID    `json:"agent_id"`
	ExecutorID api.ExecutorID `json:"executor_id"`
	Data       []byte         `json:"data"`
}

// FailureEvent signals a lost agent or executor. Delivery is best effort:
// a network partition between master and scheduler can drop it entirely, so
// it is a hint for rescheduling, never a correctness signal.
type FailureEvent struct {
	AgentID    *api.AgentID    `json:"agent_id,omitempty"`
	ExecutorID *api.ExecutorID `json:"executor_id,omitempty"`
	Status     *int32          `json:"status,omitempty"`
}

type ErrorEvent struct {
	Message string `json:"message"`
}

// ExecutorEvent is the envelope for events an agent delivers to a subscribed
// executor.
type ExecutorEvent struct {
	Type EventType `json:"type"`

	Subscribed   *ExecutorSubscribedEvent `json:"subscribed,omitempty"`
	Launch       *LaunchEvent             `json:"launch,omitempty"`
	LaunchGroup  *LaunchGroupEvent        `json:"launch_group,omitempty"`
	Kill         *KillEvent               `json:"kill,omitempty"`
	Acknowledged *AcknowledgedEvent       `json:"acknowledged,omitempty"`
	Message      *ExecutorMessageEvent    `json:"message,omitempty"`
	Error        *ErrorEvent              `json:"error,omitempty"`
}

type ExecutorSubscribedEvent struct {
	ExecutorInfo  api.ExecutorInfo  `json:"executor_info"`
	FrameworkInfo api.FrameworkInfo `json:"framework_info"`
	AgentInfo     api.AgentInfo     `json:"agent_info"`
}

type LaunchEvent struct {
	Task api.TaskInfo `json:"task"`
}

type LaunchGroupEvent struct {
	TaskGroup api.TaskGroupInfo `json:"task_group"`
}

type KillEvent struct {
	TaskID api.TaskID `json:"task_id"`
}

type AcknowledgedEvent struct {
	TaskID api.TaskID `json:"task_id"`
	UUID   []byte     `json:"uuid"`
}

type ExecutorMessageEvent struct {
	Data []byte `json:"data"`
}
