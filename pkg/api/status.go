package api

// DriverStatus is the lifecycle state of a driver. The only transitions are
// NOT_STARTED -> RUNNING via Start and RUNNING -> {STOPPED, ABORTED} via
// Stop and Abort; both terminal states release Join.
type DriverStatus int

const (
	DriverNotStarted DriverStatus = iota
	DriverRunning
	DriverStopped
	DriverAborted
)

func (s DriverStatus) String() string {
	switch s {
	case DriverNotStarted:
		return "NOT_STARTED"
	case DriverRunning:
		return "RUNNING"
	case DriverStopped:
		return "STOPPED"
	case DriverAborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no further transitions are possible.
func (s DriverStatus) Terminal() bool {
	return s == DriverStopped || s == DriverAborted
}
