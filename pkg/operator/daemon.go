package operator

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/droverproject/drover/pkg/api"
)

// ClientConfig configures an operator client for one daemon.
type ClientConfig struct {
	// URL is the base URL of the daemon, e.g. "http://master:5050".
	URL string

	// RequestTimeout bounds each request. Defaults to 30s.
	RequestTimeout time.Duration
}

// daemonClient carries the operations common to the master and agent
// daemons.
type daemonClient struct {
	c *client
}

// GetHealth reports whether the daemon considers itself healthy.
func (d *daemonClient) GetHealth(ctx context.Context) (bool, error) {
	var resp Response
	if err := d.c.call(ctx, &Call{Type: "GET_HEALTH"}, &resp); err != nil {
		return false, err
	}
	if resp.GetHealth == nil {
		return false, errors.New("daemon returned no health payload")
	}
	return resp.GetHealth.Healthy, nil
}

// GetFlags retrieves the daemon's flag configuration.
func (d *daemonClient) GetFlags(ctx context.Context) ([]Flag, error) {
	var resp Response
	if err := d.c.call(ctx, &Call{Type: "GET_FLAGS"}, &resp); err != nil {
		return nil, err
	}
	if resp.GetFlags == nil {
		return nil, nil
	}
	return resp.GetFlags.Flags, nil
}

// GetVersion retrieves the daemon's version information.
func (d *daemonClient) GetVersion(ctx context.Context) (*VersionInfo, error) {
	var resp Response
	if err := d.c.call(ctx, &Call{Type: "GET_VERSION"}, &resp); err != nil {
		return nil, err
	}
	if resp.GetVersion == nil {
		return nil, errors.New("daemon returned no version payload")
	}
	return &resp.GetVersion.VersionInfo, nil
}

// GetMetrics snapshots the daemon's metrics. With a positive timeout the
// daemon bounds collection by it and may return a partial snapshot: metrics
// that did not report in time are absent, which is not an error.
func (d *daemonClient) GetMetrics(ctx context.Context, timeout time.Duration) ([]Metric, error) {
	call := &Call{Type: "GET_METRICS", GetMetrics: &GetMetricsCall{}}
	if timeout > 0 {
		call.GetMetrics.Timeout = &api.DurationInfo{Nanoseconds: timeout.Nanoseconds()}
	}
	var resp Response
	if err := d.c.call(ctx, call, &resp); err != nil {
		return nil, err
	}
	if resp.GetMetrics == nil {
		return nil, nil
	}
	return resp.GetMetrics.Metrics, nil
}

// GetLoggingLevel retrieves the daemon's logging verbosity level.
func (d *daemonClient) GetLoggingLevel(ctx context.Context) (uint32, error) {
	var resp Response
	if err := d.c.call(ctx, &Call{Type: "GET_LOGGING_LEVEL"}, &resp); err != nil {
		return 0, err
	}
	if resp.GetLoggingLevel == nil {
		return 0, errors.New("daemon returned no logging level payload")
	}
	return resp.GetLoggingLevel.Level, nil
}

// SetLoggingLevel raises the daemon's logging verbosity for the given
// duration, after which it reverts.
func (d *daemonClient) SetLoggingLevel(ctx context.Context, level uint32, duration time.Duration) error {
	return d.c.call(ctx, &Call{
		Type: "SET_LOGGING_LEVEL",
		SetLoggingLevel: &SetLoggingLevelCall{
			Level:    level,
			Duration: api.DurationInfo{Nanoseconds: duration.Nanoseconds()},
		},
	}, nil)
}

// ListFiles lists a directory in the daemon's virtual file system.
func (d *daemonClient) ListFiles(ctx context.Context, path string) ([]FileInfo, error) {
	var resp Response
	if err := d.c.call(ctx, &Call{Type: "LIST_FILES", ListFiles: &ListFilesCall{Path: path}}, &resp); err != nil {
		return nil, err
	}
	if resp.ListFiles == nil {
		return nil, nil
	}
	return resp.ListFiles.FileInfos, nil
}

// ReadFile reads up to length bytes of a file starting at offset. A nil
// length reads to the end.
func (d *daemonClient) ReadFile(ctx context.Context, path string, offset uint64, length *uint64) (*ReadFileResponse, error) {
	var resp Response
	call := &Call{Type: "READ_FILE", ReadFile: &ReadFileCall{Path: path, Offset: offset, Length: length}}
	if err := d.c.call(ctx, call, &resp); err != nil {
		return nil, err
	}
	if resp.ReadFile == nil {
		return nil, errors.New("daemon returned no file payload")
	}
	return resp.ReadFile, nil
}

// GetState retrieves the daemon's overall state.
func (d *daemonClient) GetState(ctx context.Context) (*GetStateResponse, error) {
	var resp Response
	if err := d.c.call(ctx, &Call{Type: "GET_STATE"}, &resp); err != nil {
		return nil, err
	}
	return resp.GetState, nil
}

// GetFrameworks retrieves the frameworks known to the daemon.
func (d *daemonClient) GetFrameworks(ctx context.Context) (*GetFrameworksResponse, error) {
	var resp Response
	if err := d.c.call(ctx, &Call{Type: "GET_FRAMEWORKS"}, &resp); err != nil {
		return nil, err
	}
	return resp.GetFrameworks, nil
}

// GetExecutors retrieves the executors known to the daemon.
func (d *daemonClient) GetExecutors(ctx context.Context) (*GetExecutorsResponse, error) {
	var resp Response
	if err := d.c.call(ctx, &Call{Type: "GET_EXECUTORS"}, &resp); err != nil {
		return nil, err
	}
	return resp.GetExecutors, nil
}

// GetTasks retrieves the tasks known to the daemon.
func (d *daemonClient) GetTasks(ctx context.Context) (*GetTasksResponse, error) {
	var resp Response
	if err := d.c.call(ctx, &Call{Type: "GET_TASKS"}, &resp); err != nil {
		return nil, err
	}
	return resp.GetTasks, nil
}
