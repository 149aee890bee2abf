// Package httpapi implements the v1 HTTP API spoken between drivers and the
// master/agent daemons: JSON call envelopes POSTed to /api/v1 endpoints and
// RecordIO-framed JSON event streams returned from SUBSCRIBE calls.
package httpapi

import (
	"github.com/droverproject/drover/pkg/api"
)

type CallType string

const (
	CallSubscribe                  CallType = "SUBSCRIBE"
	CallTeardown                   CallType = "TEARDOWN"
	CallAccept                     CallType = "ACCEPT"
	CallDecline                    CallType = "DECLINE"
	CallAcceptInverseOffers        CallType = "ACCEPT_INVERSE_OFFERS"
	CallDeclineInverseOffers       CallType = "DECLINE_INVERSE_OFFERS"
	CallRevive                     CallType = "REVIVE"
	CallSuppress                   CallType = "SUPPRESS"
	CallKill                       CallType = "KILL"
	CallAcknowledge                CallType = "ACKNOWLEDGE"
	CallAcknowledgeOperationStatus CallType = "ACKNOWLEDGE_OPERATION_STATUS"
	CallReconcile                  CallType = "RECONCILE"
	CallMessage                    CallType = "MESSAGE"
	CallRequest                    CallType = "REQUEST"

	// Executor -> agent call types.
	CallUpdate CallType = "UPDATE"
)

// SchedulerCall is the envelope for every call a scheduler driver sends to
// the master. Exactly one payload field matching Type is set. FrameworkID is
// unset only on an initial SUBSCRIBE, before the master has assigned one.
type SchedulerCall struct {
	Type        CallType         `json:"type"`
	FrameworkID *api.FrameworkID `json:"framework_id,omitempty"`

	Subscribe                  *Subscribe                  `json:"subscribe,omitempty"`
	Accept                     *Accept                     `json:"accept,omitempty"`
	Decline                    *Decline                    `json:"decline,omitempty"`
	AcceptInverseOffers        *AcceptInverseOffers        `json:"accept_inverse_offers,omitempty"`
	DeclineInverseOffers       *DeclineInverseOffers       `json:"decline_inverse_offers,omitempty"`
	Kill                       *Kill                       `json:"kill,omitempty"`
	Acknowledge                *Acknowledge                `json:"acknowledge,omitempty"`
	AcknowledgeOperationStatus *AcknowledgeOperationStatus `json:"acknowledge_operation_status,omitempty"`
	Reconcile                  *Reconcile                  `json:"reconcile,omitempty"`
	Message                    *Message                    `json:"message,omitempty"`
	Request                    *Request                    `json:"request,omitempty"`
}

type Subscribe struct {
	FrameworkInfo api.FrameworkInfo `json:"framework_info"`
}

type Accept struct {
	OfferIDs   []api.OfferID   `json:"offer_ids"`
	Operations []api.Operation `json:"operations,omitempty"`
	Filters    *api.Filters    `json:"filters,omitempty"`
}

type Decline struct {
	OfferIDs []api.OfferID `json:"offer_ids"`
	Filters  *api.Filters  `json:"filters,omitempty"`
}

type AcceptInverseOffers struct {
	InverseOfferIDs []api.OfferID `json:"inverse_offer_ids"`
	Filters         *api.Filters  `json:"filters,omitempty"`
}

type DeclineInverseOffers struct {
	InverseOfferIDs []api.OfferID `json:"inverse_offer_ids"`
	Filters         *api.Filters  `json:"filters,omitempty"`
}

type Kill struct {
	TaskID  api.TaskID   `json:"task_id"`
	AgentID *api.AgentID `json:"agent_id,omitempty"`
}

type Acknowledge struct {
	AgentID api.AgentID `json:"agent_id"`
	TaskID  api.TaskID  `json:"task_id"`
	UUID    []byte      `json:"uuid"`
}

type AcknowledgeOperationStatus struct {
	AgentID     *api.AgentID    `json:"agent_id,omitempty"`
	OperationID api.OperationID `json:"operation_id"`
	UUID        []byte          `json:"uuid"`
}

// Reconcile asks the master for the latest status of the named tasks. An
// empty Tasks slice asks for the latest status of every task the master
// knows about.
type Reconcile struct {
	Tasks []ReconcileTask `json:"tasks"`
}

type ReconcileTask struct {
	TaskID  api.TaskID   `json:"task_id"`
	AgentID *api.AgentID `json:"agent_id,omitempty"`
}

type Message struct {
	AgentID    api.AgentID    `json:"agent_id"`
	ExecutorID api.ExecutorID `json:"executor_id"`
	Data       []byte         `json:"data"`
}

type Request struct {
	Requests []api.Request `json:"requests"`
}

// ExecutorCall is the envelope for calls an executor driver sends to its
// agent.
type ExecutorCall struct {
	Type        CallType        `json:"type"`
	FrameworkID api.FrameworkID `json:"framework_id"`
	ExecutorID  api.ExecutorID  `json:"executor_id"`

	Subscribe *ExecutorSubscribe `json:"subscribe,omitempty"`
	Update    *Update            `json:"update,omitempty"`
	Message   *ExecutorMessage   `json:"message,omitempty"`
}

// ExecutorSubscribe carries the executor's unacknowledged state so the agent
// can resume delivery after an executor or agent restart.
type ExecutorSubscribe struct {
	UnacknowledgedTasks   []api.TaskInfo `json:"unacknowledged_tasks,omitempty"`
	UnacknowledgedUpdates []Update       `json:"unacknowledged_updates,omitempty"`
}

type Update struct {
	Status api.TaskStatus `json:"status"`
}

type ExecutorMessage struct {
	Data []byte `json:"data"`
}
