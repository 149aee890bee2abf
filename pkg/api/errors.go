// Errors returned by driver operations. Callers are expected to test for
// these with errors.Is / errors.As; they are deterministic conditions, never
// silent no-ops.
//
// If multiple failures occur in one operation (e.g., while draining several
// components on stop), an error of type multierror.Error from
// github.com/hashicorp/go-multierror encapsulating the individual errors is
// returned instead.
package api

import (
	"errors"
	"fmt"
)

var (
	// ErrDriverNotStarted is returned by operational calls made before Start.
	ErrDriverNotStarted = errors.New("driver has not been started")

	// ErrDriverAlreadyStarted is returned by a second call to Start or Run.
	ErrDriverAlreadyStarted = errors.New("driver has already been started")

	// ErrDriverAborted is returned by any operational call made after Abort.
	// Aborted is terminal; a new driver must be constructed to continue.
	ErrDriverAborted = errors.New("driver has been aborted")

	// ErrDriverStopped is returned by operational calls made after Stop.
	ErrDriverStopped = errors.New("driver has been stopped")

	// ErrDisconnected is returned when a call requires a registered session
	// and the driver is not currently connected to the master.
	ErrDisconnected = errors.New("driver is not connected to the master")

	// ErrQueueFull is returned when the outbound call queue is at capacity.
	// The call was not enqueued; the caller may retry.
	ErrQueueFull = errors.New("outbound call queue is full")
)

// ErrOfferUnknown is returned when a call names an offer id that is not
// currently held by the offer tracker: it was never received, was rescinded,
// was invalidated by a disconnect, or was already consumed by a previous
// accept, launch or decline. The master is the source of truth for offers,
// so the call is rejected rather than forwarded.
type ErrOfferUnknown struct {
	OfferID string
}

func (err *ErrOfferUnknown) Error() string {
	return fmt.Sprintf("offer %q is unknown: never offered, rescinded, or already consumed", err.OfferID)
}

// ErrContractViolation is returned when a caller breaks the driver contract,
// e.g. calling AcknowledgeStatusUpdate on an implicit-ack driver, or passing
// offers from different agents to a single launch. Some violations are fatal
// and abort the driver; Fatal reports which.
type ErrContractViolation struct {
	Message string
	Fatal   bool
}

func (err *ErrContractViolation) Error() string {
	return fmt.Sprintf("driver contract violation: %s", err.Message)
}
