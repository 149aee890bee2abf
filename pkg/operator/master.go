package operator

import (
	"context"

	"github.com/droverproject/drover/pkg/api"
)

// MasterClient talks to the master's operator API. It carries all daemon
// operations (health, flags, metrics, files, state queries) plus the
// master-only ones (agents, roles, weights, maintenance, quota,
// reservations, volumes).
type MasterClient struct {
	daemonClient
}

func NewMasterClient(config ClientConfig) *MasterClient {
	return &MasterClient{daemonClient{c: newClient(config.URL, config.RequestTimeout)}}
}

// GetAgents retrieves the agents known to the master.
func (m *MasterClient) GetAgents(ctx context.Context) (*GetAgentsResponse, error) {
	var resp Response
	if err := m.c.call(ctx, &Call{Type: "GET_AGENTS"}, &resp); err != nil {
		return nil, err
	}
	return resp.GetAgents, nil
}

// GetRoles retrieves the configured roles.
func (m *MasterClient) GetRoles(ctx context.Context) ([]Role, error) {
	var resp Response
	if err := m.c.call(ctx, &Call{Type: "GET_ROLES"}, &resp); err != nil {
		return nil, err
	}
	if resp.GetRoles == nil {
		return nil, nil
	}
	return resp.GetRoles.Roles, nil
}

// GetWeights retrieves role weights.
func (m *MasterClient) GetWeights(ctx context.Context) ([]WeightInfo, error) {
	var resp Response
	if err := m.c.call(ctx, &Call{Type: "GET_WEIGHTS"}, &resp); err != nil {
		return nil, err
	}
	if resp.GetWeights == nil {
		return nil, nil
	}
	return resp.GetWeights.WeightInfos, nil
}

// UpdateWeights updates weights for specific roles.
func (m *MasterClient) UpdateWeights(ctx context.Context, weights []WeightInfo) error {
	return m.c.call(ctx, &Call{Type: "UPDATE_WEIGHTS", UpdateWeights: &UpdateWeightsCall{WeightInfos: weights}}, nil)
}

// GetMaster retrieves information about the current leading master.
func (m *MasterClient) GetMaster(ctx context.Context) (*api.MasterInfo, error) {
	var resp Response
	if err := m.c.call(ctx, &Call{Type: "GET_MASTER"}, &resp); err != nil {
		return nil, err
	}
	if resp.GetMaster == nil {
		return nil, nil
	}
	return resp.GetMaster.MasterInfo, nil
}

// ReserveResources dynamically reserves resources on an agent.
func (m *MasterClient) ReserveResources(ctx context.Context, agentID api.AgentID, resources []api.Resource) error {
	return m.c.call(ctx, &Call{
		Type:             "RESERVE_RESOURCES",
		ReserveResources: &ReserveResourcesCall{AgentID: agentID, Resources: resources},
	}, nil)
}

// UnreserveResources releases a dynamic reservation on an agent.
func (m *MasterClient) UnreserveResources(ctx context.Context, agentID api.AgentID, resources []api.Resource) error {
	return m.c.call(ctx, &Call{
		Type:               "UNRESERVE_RESOURCES",
		UnreserveResources: &UnreserveResourcesCall{AgentID: agentID, Resources: resources},
	}, nil)
}

// CreateVolumes creates persistent volumes on reserved resources. The
// request is forwarded to the agent asynchronously and may still fail there;
// success here only means the master accepted it.
func (m *MasterClient) CreateVolumes(ctx context.Context, agentID api.AgentID, volumes []api.Resource) error {
	return m.c.call(ctx, &Call{
		Type:          "CREATE_VOLUMES",
		CreateVolumes: &CreateVolumesCall{AgentID: agentID, Volumes: volumes},
	}, nil)
}

// DestroyVolumes destroys persistent volumes; forwarded asynchronously like
// CreateVolumes.
func (m *MasterClient) DestroyVolumes(ctx context.Context, agentID api.AgentID, volumes []api.Resource) error {
	return m.c.call(ctx, &Call{
		Type:           "DESTROY_VOLUMES",
		DestroyVolumes: &DestroyVolumesCall{AgentID: agentID, Volumes: volumes},
	}, nil)
}

// GetMaintenanceStatus retrieves the cluster's maintenance status.
func (m *MasterClient) GetMaintenanceStatus(ctx context.Context) (*GetMaintenanceStatusResponse, error) {
	var resp Response
	if err := m.c.call(ctx, &Call{Type: "GET_MAINTENANCE_STATUS"}, &resp); err != nil {
		return nil, err
	}
	return resp.GetMaintenanceStatus, nil
}

// GetMaintenanceSchedule retrieves the cluster's maintenance schedule.
func (m *MasterClient) GetMaintenanceSchedule(ctx context.Context) (*MaintenanceSchedule, error) {
	var resp Response
	if err := m.c.call(ctx, &Call{Type: "GET_MAINTENANCE_SCHEDULE"}, &resp); err != nil {
		return nil, err
	}
	if resp.GetMaintenanceSchedule == nil {
		return nil, nil
	}
	return &resp.GetMaintenanceSchedule.Schedule, nil
}

// UpdateMaintenanceSchedule replaces the cluster's maintenance schedule.
func (m *MasterClient) UpdateMaintenanceSchedule(ctx context.Context, schedule MaintenanceSchedule) error {
	return m.c.call(ctx, &Call{
		Type:                      "UPDATE_MAINTENANCE_SCHEDULE",
		UpdateMaintenanceSchedule: &UpdateMaintenanceScheduleCall{Schedule: schedule},
	}, nil)
}

// StartMaintenance brings the named machines down for maintenance.
func (m *MasterClient) StartMaintenance(ctx context.Context, machines []MachineID) error {
	return m.c.call(ctx, &Call{Type: "START_MAINTENANCE", StartMaintenance: &MachinesCall{Machines: machines}}, nil)
}

// StopMaintenance brings the named machines back up.
func (m *MasterClient) StopMaintenance(ctx context.Context, machines []MachineID) error {
	return m.c.call(ctx, &Call{Type: "STOP_MAINTENANCE", StopMaintenance: &MachinesCall{Machines: machines}}, nil)
}

// GetQuota retrieves the configured quotas.
func (m *MasterClient) GetQuota(ctx context.Context) ([]QuotaInfo, error) {
	var resp Response
	if err := m.c.call(ctx, &Call{Type: "GET_QUOTA"}, &resp); err != nil {
		return nil, err
	}
	if resp.GetQuota == nil {
		return nil, nil
	}
	return resp.GetQuota.Status.Infos, nil
}

// SetQuota sets the resource quota for a role.
func (m *MasterClient) SetQuota(ctx context.Context, request QuotaRequest) error {
	return m.c.call(ctx, &Call{Type: "SET_QUOTA", SetQuota: &SetQuotaCall{QuotaRequest: request}}, nil)
}

// RemoveQuota removes the quota for a role.
func (m *MasterClient) RemoveQuota(ctx context.Context, role string) error {
	return m.c.call(ctx, &Call{Type: "REMOVE_QUOTA", RemoveQuota: &RemoveQuotaCall{Role: role}}, nil)
}

// MarkAgentGone asserts that an agent has failed permanently and is never
// coming back. The master shuts the agent down if it reappears and reports
// TASK_GONE_BY_OPERATOR for its tasks. Idempotent: repeating the call for an
// agent already marked gone succeeds.
func (m *MasterClient) MarkAgentGone(ctx context.Context, agentID api.AgentID) error {
	return m.c.call(ctx, &Call{Type: "MARK_AGENT_GONE", MarkAgentGone: &MarkAgentGoneCall{AgentID: agentID}}, nil)
}
