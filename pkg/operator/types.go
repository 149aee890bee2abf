// Package operator implements clients for the master and agent operator
// APIs: synchronous administrative request/response calls, plus the master's
// operator event subscription.
package operator

import (
	"github.com/droverproject/drover/pkg/api"
)

// Call is the envelope for operator API calls. Exactly one payload field
// matching Type is set; read-only calls carry no payload.
type Call struct {
	Type string `json:"type"`

	GetMetrics                *GetMetricsCall                `json:"get_metrics,omitempty"`
	SetLoggingLevel           *SetLoggingLevelCall           `json:"set_logging_level,omitempty"`
	ListFiles                 *ListFilesCall                 `json:"list_files,omitempty"`
	ReadFile                  *ReadFileCall                  `json:"read_file,omitempty"`
	UpdateWeights             *UpdateWeightsCall             `json:"update_weights,omitempty"`
	ReserveResources          *ReserveResourcesCall          `json:"reserve_resources,omitempty"`
	UnreserveResources        *UnreserveResourcesCall        `json:"unreserve_resources,omitempty"`
	CreateVolumes             *CreateVolumesCall             `json:"create_volumes,omitempty"`
	DestroyVolumes            *DestroyVolumesCall            `json:"destroy_volumes,omitempty"`
	UpdateMaintenanceSchedule *UpdateMaintenanceScheduleCall `json:"update_maintenance_schedule,omitempty"`
	StartMaintenance          *MachinesCall                  `json:"start_maintenance,omitempty"`
	StopMaintenance           *MachinesCall                  `json:"stop_maintenance,omitempty"`
	SetQuota                  *SetQuotaCall                  `json:"set_quota,omitempty"`
	RemoveQuota               *RemoveQuotaCall               `json:"remove_quota,omitempty"`
	MarkAgentGone             *MarkAgentGoneCall             `json:"mark_agent_gone,omitempty"`
	LaunchNestedContainer     *LaunchNestedContainerCall     `json:"launch_nested_container,omitempty"`
	WaitNestedContainer       *ContainerCall                 `json:"wait_nested_container,omitempty"`
	KillNestedContainer       *ContainerCall                 `json:"kill_nested_container,omitempty"`
	RemoveNestedContainer     *ContainerCall                 `json:"remove_nested_container,omitempty"`
	PruneImages               *PruneImagesCall               `json:"prune_images,omitempty"`
}

type GetMetricsCall struct {
	Timeout *api.DurationInfo `json:"timeout,omitempty"`
}

type SetLoggingLevelCall struct {
	Level    uint32           `json:"level"`
	Duration api.DurationInfo `json:"duration"`
}

type ListFilesCall struct {
	Path string `json:"path"`
}

type ReadFileCall struct {
	Path   string  `json:"path"`
	Offset uint64  `json:"offset"`
	Length *uint64 `json:"length,omitempty"`
}

type UpdateWeightsCall struct {
	WeightInfos []WeightInfo `json:"weight_infos"`
}

type ReserveResourcesCall struct {
	AgentID   api.AgentID    `json:"agent_id"`
	Resources []api.Resource `json:"resources"`
}

type UnreserveResourcesCall struct {
	AgentID   api.AgentID    `json:"agent_id"`
	Resources []api.Resource `json:"resources"`
}

type CreateVolumesCall struct {
	AgentID api.AgentID    `json:"agent_id"`
	Volumes []api.Resource `json:"volumes"`
}

type DestroyVolumesCall struct {
	AgentID api.AgentID    `json:"agent_id"`
	Volumes []api.Resource `json:"volumes"`
}

type UpdateMaintenanceScheduleCall struct {
	Schedule MaintenanceSchedule `json:"schedule"`
}

type MachinesCall struct {
	Machines []MachineID `json:"machines"`
}

type SetQuotaCall struct {
	QuotaRequest QuotaRequest `json:"quota_request"`
}

type RemoveQuotaCall struct {
	Role string `json:"role"`
}

type MarkAgentGoneCall struct {
	AgentID api.AgentID `json:"agent_id"`
}

type ContainerID struct {
	Value  string       `json:"value"`
	Parent *ContainerID `json:"parent,omitempty"`
}

type LaunchNestedContainerCall struct {
	ContainerID ContainerID      `json:"container_id"`
	Command     *api.CommandInfo `json:"command,omitempty"`
}

type ContainerCall struct {
	ContainerID ContainerID `json:"container_id"`
}

type PruneImagesCall struct {
	ExcludedImages []string `json:"excluded_images,omitempty"`
}

// Response is the envelope for operator API responses. The field matching
// the call's type is set.
type Response struct {
	Type string `json:"type"`

	GetHealth              *GetHealthResponse              `json:"get_health,omitempty"`
	GetFlags               *GetFlagsResponse               `json:"get_flags,omitempty"`
	GetVersion             *GetVersionResponse             `json:"get_version,omitempty"`
	GetMetrics             *GetMetricsResponse             `json:"get_metrics,omitempty"`
	GetLoggingLevel        *GetLoggingLevelResponse        `json:"get_logging_level,omitempty"`
	ListFiles              *ListFilesResponse              `json:"list_files,omitempty"`
	ReadFile               *ReadFileResponse               `json:"read_file,omitempty"`
	GetState               *GetStateResponse               `json:"get_state,omitempty"`
	GetFrameworks          *GetFrameworksResponse          `json:"get_frameworks,omitempty"`
	GetExecutors           *GetExecutorsResponse           `json:"get_executors,omitempty"`
	GetTasks               *GetTasksResponse               `json:"get_tasks,omitempty"`
	GetAgents              *GetAgentsResponse              `json:"get_agents,omitempty"`
	GetRoles               *GetRolesResponse               `json:"get_roles,omitempty"`
	GetWeights             *GetWeightsResponse             `json:"get_weights,omitempty"`
	GetMaster              *GetMasterResponse              `json:"get_master,omitempty"`
	GetMaintenanceStatus   *GetMaintenanceStatusResponse   `json:"get_maintenance_status,omitempty"`
	GetMaintenanceSchedule *GetMaintenanceScheduleResponse `json:"get_maintenance_schedule,omitempty"`
	GetQuota               *GetQuotaResponse               `json:"get_quota,omitempty"`
	GetContainers          *GetContainersResponse          `json:"get_containers,omitempty"`
	WaitNestedContainer    *WaitNestedContainerResponse    `json:"wait_nested_container,omitempty"`
}

type GetHealthResponse struct {
	Healthy bool `json:"healthy"`
}

type Flag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type GetFlagsResponse struct {
	Flags []Flag `json:"flags"`
}

type GetVersionResponse struct {
	VersionInfo VersionInfo `json:"version_info"`
}

type VersionInfo struct {
	Version   string  `json:"version"`
	GitSHA    string  `json:"git_sha,omitempty"`
	BuildTime float64 `json:"build_time,omitempty"`
	BuildUser string  `json:"build_user,omitempty"`
}

type Metric struct {
	Name  string   `json:"name"`
	Value *float64 `json:"value,omitempty"`
}

// GetMetricsResponse holds the metrics snapshot. When the call's timeout was
// exceeded the snapshot is partial: metrics that did not arrive in time are
// simply absent.
type GetMetricsResponse struct {
	Metrics []Metric `json:"metrics"`
}

type GetLoggingLevelResponse struct {
	Level uint32 `json:"level"`
}

type FileInfo struct {
	Path  string        `json:"path"`
	Nlink int32         `json:"nlink,omitempty"`
	Size  uint64        `json:"size,omitempty"`
	Mtime *api.TimeInfo `json:"mtime,omitempty"`
	Mode  uint32        `json:"mode,omitempty"`
	UID   string        `json:"uid,omitempty"`
	GID   string        `json:"gid,omitempty"`
}

type ListFilesResponse struct {
	FileInfos []FileInfo `json:"file_infos"`
}

type ReadFileResponse struct {
	Size uint64 `json:"size"`
	Data []byte `json:"data"`
}

type GetStateResponse struct {
	GetTasks      *GetTasksResponse      `json:"get_tasks,omitempty"`
	GetExecutors  *GetExecutorsResponse  `json:"get_executors,omitempty"`
	GetFrameworks *GetFrameworksResponse `json:"get_frameworks,omitempty"`
	GetAgents     *GetAgentsResponse     `json:"get_agents,omitempty"`
}

type Framework struct {
	FrameworkInfo  api.FrameworkInfo `json:"framework_info"`
	Active         bool              `json:"active,omitempty"`
	Connected      bool              `json:"connected,omitempty"`
	Recovered      bool              `json:"recovered,omitempty"`
	RegisteredTime *api.TimeInfo     `json:"registered_time,omitempty"`
}

type GetFrameworksResponse struct {
	Frameworks          []Framework `json:"frameworks,omitempty"`
	CompletedFrameworks []Framework `json:"completed_frameworks,omitempty"`
}

type ExecutorEntry struct {
	ExecutorInfo api.ExecutorInfo `json:"executor_info"`
	AgentID      *api.AgentID     `json:"agent_id,omitempty"`
}

type GetExecutorsResponse struct {
	Executors []ExecutorEntry `json:"executors,omitempty"`
}

type Task struct {
	Name        string           `json:"name"`
	TaskID      api.TaskID       `json:"task_id"`
	FrameworkID api.FrameworkID  `json:"framework_id"`
	AgentID     api.AgentID      `json:"agent_id"`
	State       api.TaskState    `json:"state"`
	Resources   []api.Resource   `json:"resources,omitempty"`
	Statuses    []api.TaskStatus `json:"statuses,omitempty"`
}

type GetTasksResponse struct {
	PendingTasks     []Task `json:"pending_tasks,omitempty"`
	Tasks            []Task `json:"tasks,omitempty"`
	UnreachableTasks []Task `json:"unreachable_tasks,omitempty"`
	CompletedTasks   []Task `json:"completed_tasks,omitempty"`
}

type Agent struct {
	AgentInfo      api.AgentInfo  `json:"agent_info"`
	Active         bool           `json:"active,omitempty"`
	Version        string         `json:"version,omitempty"`
	TotalResources []api.Resource `json:"total_resources,omitempty"`
}

type GetAgentsResponse struct {
	Agents []Agent `json:"agents,omitempty"`
}

type Role struct {
	Name      string         `json:"name"`
	Weight    float64        `json:"weight,omitempty"`
	Resources []api.Resource `json:"resources,omitempty"`
}

type GetRolesResponse struct {
	Roles []Role `json:"roles,omitempty"`
}

type WeightInfo struct {
	Role   string  `json:"role"`
	Weight float64 `json:"weight"`
}

type GetWeightsResponse struct {
	WeightInfos []WeightInfo `json:"weight_infos,omitempty"`
}

type GetMasterResponse struct {
	MasterInfo *api.MasterInfo `json:"master_info,omitempty"`
}

type MachineID struct {
	Hostname string `json:"hostname,omitempty"`
	IP       string `json:"ip,omitempty"`
}

type MaintenanceWindow struct {
	MachineIDs     []MachineID         `json:"machine_ids"`
	Unavailability *api.Unavailability `json:"unavailability,omitempty"`
}

type MaintenanceSchedule struct {
	Windows []MaintenanceWindow `json:"windows"`
}

type MachineStatus struct {
	ID   MachineID `json:"id"`
	Mode string    `json:"mode"`
}

type GetMaintenanceStatusResponse struct {
	Status struct {
		DrainingMachines []MachineStatus `json:"draining_machines,omitempty"`
		DownMachines     []MachineID     `json:"down_machines,omitempty"`
	} `json:"status"`
}

type GetMaintenanceScheduleResponse struct {
	Schedule MaintenanceSchedule `json:"schedule"`
}

type QuotaRequest struct {
	Role      string         `json:"role"`
	Guarantee []api.Resource `json:"guarantee,omitempty"`
	Force     bool           `json:"force,omitempty"`
}

type QuotaInfo struct {
	Role      string         `json:"role"`
	Guarantee []api.Resource `json:"guarantee,omitempty"`
}

type GetQuotaResponse struct {
	Status struct {
		Infos []QuotaInfo `json:"infos,omitempty"`
	} `json:"status"`
}

type Container struct {
	ContainerID  ContainerID      `json:"container_id"`
	FrameworkID  *api.FrameworkID `json:"framework_id,omitempty"`
	ExecutorID   *api.ExecutorID  `json:"executor_id,omitempty"`
	ExecutorName string           `json:"executor_name,omitempty"`
}

type GetContainersResponse struct {
	Containers []Container `json:"containers,omitempty"`
}

type WaitNestedContainerResponse struct {
	ExitStatus *int32 `json:"exit_status,omitempty"`
}
