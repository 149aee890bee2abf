// Package scheduler implements the framework-side driver for the master's
// scheduler API: it maintains the subscription, tracks offers, dispatches
// outbound calls and delivers events to a user-supplied Scheduler.
package scheduler

import (
	log "github.com/sirupsen/logrus"

	"github.com/droverproject/drover/pkg/api"
)

// Scheduler receives events from the driver. Callbacks are delivered
// serially by a single goroutine: a callback always returns before the next
// one fires. Callbacks may invoke driver calls, but must not call Join.
//
// Embed NopScheduler to implement only the callbacks a framework cares
// about.
type Scheduler interface {
	// Registered fires when the driver successfully subscribes for the first
	// time. The master assigns the framework id; the driver retains it for
	// failover.
	Registered(driver *Driver, frameworkID api.FrameworkID, masterInfo *api.MasterInfo)

	// Reregistered fires when the driver re-subscribes after a disconnect or
	// master failover. The framework id is unchanged.
	Reregistered(driver *Driver, masterInfo *api.MasterInfo)

	// Disconnected fires when the session to the master is lost. All offers
	// held at that point have been invalidated: the master cannot be assumed
	// to honor them across a connectivity gap.
	Disconnected(driver *Driver)

	// Heartbeat fires on each liveness heartbeat from the master.
	Heartbeat(driver *Driver)

	// ResourceOffers fires when the master offers resources. Each offer
	// holds resources from a single agent, and stays valid until used,
	// declined or rescinded.
	ResourceOffers(driver *Driver, offers []api.Offer)

	// InverseOffers fires when the master asks the framework to release
	// resources ahead of planned unavailability.
	InverseOffers(driver *Driver, offers []api.InverseOffer)

	// OfferRescinded fires when an offer stops being valid, e.g. its agent
	// was lost or the resources went to another framework.
	OfferRescinded(driver *Driver, offerID api.OfferID)

	InverseOfferRescinded(driver *Driver, offerID api.OfferID)

	// StatusUpdate fires when a task changes state. Under implicit
	// acknowledgements, returning from this callback acknowledges receipt.
	// Under explicit acknowledgements the framework must call
	// AcknowledgeStatusUpdate once the update is durably processed; the
	// master redelivers unacknowledged updates.
	StatusUpdate(driver *Driver, status api.TaskStatus)

	// OperationStatusUpdate fires for offer operations that set an operation
	// id. Receipt must always be acknowledged explicitly.
	OperationStatusUpdate(driver *Driver, status api.OperationStatus)

	// FrameworkMessage fires when an executor sends a message. Delivery is
	// best effort.
	FrameworkMessage(driver *Driver, executorID api.ExecutorID, agentID api.AgentID, data []byte)

	// AgentLost fires when an agent is determined unreachable. Not reliably
	// delivered; frameworks must reconcile rather than depend on it.
	AgentLost(driver *Driver, agentID api.AgentID)

	// ExecutorLost fires when an executor exits. Tasks it ran get TASK_LOST
	// updates generated for them. Not reliably delivered.
	ExecutorLost(driver *Driver, executorID api.ExecutorID, agentID api.AgentID, status int)

	// Error fires on an unrecoverable error. The driver is aborted before
	// this callback is invoked; it is a notification, not a recovery hook.
	Error(driver *Driver, message string)
}

// NopScheduler implements Scheduler with no-op callbacks, except Error which
// logs the failure. Embed it to pick the callbacks to implement.
type NopScheduler struct{}

func (NopScheduler) Registered(*Driver, api.FrameworkID, *api.MasterInfo)          {}
func (NopScheduler) Reregistered(*Driver, *api.MasterInfo)                         {}
func (NopScheduler) Disconnected(*Driver)                                          {}
func (NopScheduler) Heartbeat(*Driver)                                             {}
func (NopScheduler) ResourceOffers(*Driver, []api.Offer)                           {}
func (NopScheduler) InverseOffers(*Driver, []api.InverseOffer)                     {}
func (NopScheduler) OfferRescinded(*Driver, api.OfferID)                           {}
func (NopScheduler) InverseOfferRescinded(*Driver, api.OfferID)                    {}
func (NopScheduler) StatusUpdate(*Driver, api.TaskStatus)                          {}
func (NopScheduler) OperationStatusUpdate(*Driver, api.OperationStatus)            {}
func (NopScheduler) FrameworkMessage(*Driver, api.ExecutorID, api.AgentID, []byte) {}
func (NopScheduler) AgentLost(*Driver, api.AgentID)                                {}
func (NopScheduler) ExecutorLost(*Driver, api.ExecutorID, api.AgentID, int)        {}

func (NopScheduler) Error(_ *Driver, message string) {
	log.Errorf("Scheduler driver error: %s", message)
}
