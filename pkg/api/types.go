package api

// Identifier types are opaque values issued by the master or by frameworks.
// They are compared by value and never mutated once issued.

type FrameworkID struct {
	Value string `json:"value"`
}

type OfferID struct {
	Value string `json:"value"`
}

type AgentID struct {
	Value string `json:"value"`
}

type ExecutorID struct {
	Value string `json:"value"`
}

type TaskID struct {
	Value string `json:"value"`
}

type OperationID struct {
	Value string `json:"value"`
}

// MasterInfo describes the master a driver is connected to.
type MasterInfo struct {
	ID       string   `json:"id"`
	Hostname string   `json:"hostname,omitempty"`
	Port     uint32   `json:"port,omitempty"`
	Version  string   `json:"version,omitempty"`
	Address  *Address `json:"address,omitempty"`
}

type Address struct {
	Hostname string `json:"hostname,omitempty"`
	IP       string `json:"ip,omitempty"`
	Port     int32  `json:"port"`
}

// AgentInfo describes the agent an executor runs on.
type AgentInfo struct {
	ID         *AgentID    `json:"id,omitempty"`
	Hostname   string      `json:"hostname"`
	Port       int32       `json:"port,omitempty"`
	Attributes []Attribute `json:"attributes,omitempty"`
	Resources  []Resource  `json:"resources,omitempty"`
}

type Attribute struct {
	Name string  `json:"name"`
	Type string  `json:"type"`
	Text *Text   `json:"text,omitempty"`
	Scalar *Scalar `json:"scalar,omitempty"`
}

type Text struct {
	Value string `json:"value"`
}

type Scalar struct {
	Value float64 `json:"value"`
}

type ValueRange struct {
	Begin uint64 `json:"begin"`
	End   uint64 `json:"end"`
}

type Ranges struct {
	Range []ValueRange `json:"range"`
}

type Set struct {
	Item []string `json:"item"`
}

// Resource is a single named resource on one agent, e.g. cpus, mem, ports.
type Resource struct {
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Scalar *Scalar `json:"scalar,omitempty"`
	Ranges *Ranges `json:"ranges,omitempty"`
	Set    *Set    `json:"set,omitempty"`
	Role   string  `json:"role,omitempty"`
}

// ScalarResource builds a scalar resource, e.g. ScalarResource("cpus", 0.5).
func ScalarResource(name string, value float64) Resource {
	return Resource{Name: name, Type: "SCALAR", Scalar: &Scalar{Value: value}}
}

// Unavailability is a planned maintenance window on an agent.
type Unavailability struct {
	Start    TimeInfo      `json:"start"`
	Duration *DurationInfo `json:"duration,omitempty"`
}

type TimeInfo struct {
	Nanoseconds int64 `json:"nanoseconds"`
}

type DurationInfo struct {
	Nanoseconds int64 `json:"nanoseconds"`
}

// Offer is a time-bound grant of resources on a single agent. An offer is
// made to exactly one framework at a time and is valid until it is used,
// declined or rescinded.
type Offer struct {
	ID             OfferID         `json:"id"`
	FrameworkID    FrameworkID     `json:"framework_id"`
	AgentID        AgentID         `json:"agent_id"`
	Hostname       string          `json:"hostname"`
	Resources      []Resource      `json:"resources,omitempty"`
	Attributes     []Attribute     `json:"attributes,omitempty"`
	Unavailability *Unavailability `json:"unavailability,omitempty"`
}

// InverseOffer asks the framework to release resources on an agent ahead of
// planned unavailability. It shares the offer lifecycle but requests rather
// than grants.
type InverseOffer struct {
	ID             OfferID        `json:"id"`
	FrameworkID    FrameworkID    `json:"framework_id"`
	AgentID        *AgentID       `json:"agent_id,omitempty"`
	Resources      []Resource     `json:"resources,omitempty"`
	Unavailability Unavailability `json:"unavailability"`
}

// FrameworkInfo identifies a framework to the master. ID is empty on first
// registration and must carry the previously assigned id on failover.
type FrameworkInfo struct {
	User            string       `json:"user"`
	Name            string       `json:"name"`
	ID              *FrameworkID `json:"id,omitempty"`
	FailoverTimeout float64      `json:"failover_timeout,omitempty"`
	Checkpoint      bool         `json:"checkpoint,omitempty"`
	Role            string       `json:"role,omitempty"`
	Hostname        string       `json:"hostname,omitempty"`
	Principal       string       `json:"principal,omitempty"`
	WebUIURL        string       `json:"webui_url,omitempty"`
}

type CommandInfo struct {
	Value     string   `json:"value,omitempty"`
	Shell     *bool    `json:"shell,omitempty"`
	Arguments []string `json:"arguments,omitempty"`
	User      string   `json:"user,omitempty"`
}

type ExecutorInfo struct {
	ExecutorID  ExecutorID   `json:"executor_id"`
	FrameworkID *FrameworkID `json:"framework_id,omitempty"`
	Command     *CommandInfo `json:"command,omitempty"`
	Resources   []Resource   `json:"resources,omitempty"`
	Name        string       `json:"name,omitempty"`
	Data        []byte       `json:"data,omitempty"`
}

// TaskInfo describes a task to launch on an agent from offered resources.
type TaskInfo struct {
	Name      string        `json:"name"`
	TaskID    TaskID        `json:"task_id"`
	AgentID   AgentID       `json:"agent_id"`
	Resources []Resource    `json:"resources,omitempty"`
	Executor  *ExecutorInfo `json:"executor,omitempty"`
	Command   *CommandInfo  `json:"command,omitempty"`
	Data      []byte        `json:"data,omitempty"`
}

type TaskGroupInfo struct {
	Tasks []TaskInfo `json:"tasks"`
}

// TaskStatus reports the state of a task. UUID is set when the producer
// requires an explicit acknowledgement for this update; implicit-ack
// deliveries carry no uuid.
type TaskStatus struct {
	TaskID     TaskID      `json:"task_id"`
	State      TaskState   `json:"state"`
	Message    string      `json:"message,omitempty"`
	Source     string      `json:"source,omitempty"`
	Reason     string      `json:"reason,omitempty"`
	AgentID    *AgentID    `json:"agent_id,omitempty"`
	ExecutorID *ExecutorID `json:"executor_id,omitempty"`
	Timestamp  float64     `json:"timestamp,omitempty"`
	UUID       []byte      `json:"uuid,omitempty"`
	Data       []byte      `json:"data,omitempty"`
}

// OperationStatus reports the state of an offer operation (reserve, create
// volume, ...). Updates are only produced for operations that set an
// operation id, and those always require explicit acknowledgement.
type OperationStatus struct {
	OperationID *OperationID `json:"operation_id,omitempty"`
	State       string       `json:"state"`
	Message     string       `json:"message,omitempty"`
	AgentID     *AgentID     `json:"agent_id,omitempty"`
	UUID        []byte       `json:"uuid,omitempty"`
}

// Filters is applied to resources left unused by an accept or decline.
type Filters struct {
	RefuseSeconds *float64 `json:"refuse_seconds,omitempty"`
}

// Request asks the master for resources, optionally on specific agents.
type Request struct {
	AgentID   *AgentID   `json:"agent_id,omitempty"`
	Resources []Resource `json:"resources,omitempty"`
}

// Operation types accepted by AcceptOffers.
const (
	OperationLaunch      = "LAUNCH"
	OperationLaunchGroup = "LAUNCH_GROUP"
	OperationReserve     = "RESERVE"
	OperationUnreserve   = "UNRESERVE"
	OperationCreate      = "CREATE"
	OperationDestroy     = "DESTROY"
)

// Operation is a single offer operation performed on accepted resources.
type Operation struct {
	Type        string         `json:"type"`
	ID          *OperationID   `json:"id,omitempty"`
	Launch      *LaunchOp      `json:"launch,omitempty"`
	LaunchGroup *LaunchGroupOp `json:"launch_group,omitempty"`
	Reserve     *ReserveOp     `json:"reserve,omitempty"`
	Unreserve   *UnreserveOp   `json:"unreserve,omitempty"`
	Create      *CreateOp      `json:"create,omitempty"`
	Destroy     *DestroyOp     `json:"destroy,omitempty"`
}

type LaunchOp struct {
	TaskInfos []TaskInfo `json:"task_infos"`
}

type LaunchGroupOp struct {
	Executor  ExecutorInfo  `json:"executor"`
	TaskGroup TaskGroupInfo `json:"task_group"`
}

type ReserveOp struct {
	Resources []Resource `json:"resources"`
}

type UnreserveOp struct {
	Resources []Resource `json:"resources"`
}

type CreateOp struct {
	Volumes []Resource `json:"volumes"`
}

type DestroyOp struct {
	Volumes []Resource `json:"volumes"`
}

// LaunchOperation wraps tasks in a LAUNCH operation, the shape LaunchTasks
// submits under the covers.
func LaunchOperation(tasks []TaskInfo) Operation {
	return Operation{
		Type:   OperationLaunch,
		Launch: &LaunchOp{TaskInfos: tasks},
	}
}
