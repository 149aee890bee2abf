package operator

import (
	"context"
)

// AgentClient talks to one agent's operator API: the daemon operations plus
// container management. Container attach/input/output streaming is not
// implemented; those are the only streaming operator calls and this client
// is strictly request/response.
type AgentClient struct {
	daemonClient
}

func NewAgentClient(config ClientConfig) *AgentClient {
	return &AgentClient{daemonClient{c: newClient(config.URL, config.RequestTimeout)}}
}

// GetContainers retrieves the containers running on the agent.
func (a *AgentClient) GetContainers(ctx context.Context) ([]Container, error) {
	var resp Response
	if err := a.c.call(ctx, &Call{Type: "GET_CONTAINERS"}, &resp); err != nil {
		return nil, err
	}
	if resp.GetContainers == nil {
		return nil, nil
	}
	return resp.GetContainers.Containers, nil
}

// LaunchNestedContainer launches a container nested under an existing one.
func (a *AgentClient) LaunchNestedContainer(ctx context.Context, call LaunchNestedContainerCall) error {
	return a.c.call(ctx, &Call{Type: "LAUNCH_NESTED_CONTAINER", LaunchNestedContainer: &call}, nil)
}

// WaitNestedContainer blocks until a nested container terminates and returns
// its exit status when the agent reports one.
func (a *AgentClient) WaitNestedContainer(ctx context.Context, containerID ContainerID) (*int32, error) {
	var resp Response
	call := &Call{Type: "WAIT_NESTED_CONTAINER", WaitNestedContainer: &ContainerCall{ContainerID: containerID}}
	if err := a.c.call(ctx, call, &resp); err != nil {
		return nil, err
	}
	if resp.WaitNestedContainer == nil {
		return nil, nil
	}
	return resp.WaitNestedContainer.ExitStatus, nil
}

// KillNestedContainer initiates the destruction of a nested container.
func (a *AgentClient) KillNestedContainer(ctx context.Context, containerID ContainerID) error {
	return a.c.call(ctx, &Call{Type: "KILL_NESTED_CONTAINER", KillNestedContainer: &ContainerCall{ContainerID: containerID}}, nil)
}

// RemoveNestedContainer removes a terminated nested container and its
// artifacts.
func (a *AgentClient) RemoveNestedContainer(ctx context.Context, containerID ContainerID) error {
	return a.c.call(ctx, &Call{Type: "REMOVE_NESTED_CONTAINER", RemoveNestedContainer: &ContainerCall{ContainerID: containerID}}, nil)
}

// PruneImages garbage-collects unused container images, keeping any listed
// exclusions.
func (a *AgentClient) PruneImages(ctx context.Context, excludedImages []string) error {
	return a.c.call(ctx, &Call{Type: "PRUNE_IMAGES", PruneImages: &PruneImagesCall{ExcludedImages: excludedImages}}, nil)
}
