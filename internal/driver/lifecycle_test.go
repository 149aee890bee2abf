package driver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droverproject/drover/pkg/api"
)

func TestLifecycleStartOnce(t *testing.T) {
	l := NewLifecycle()
	assert.Equal(t, api.DriverNotStarted, l.Status())

	assert.NoError(t, l.Start())
	assert.Equal(t, api.DriverRunning, l.Status())

	assert.Equal(t, api.ErrDriverAlreadyStarted, l.Start())
	assert.Equal(t, api.DriverRunning, l.Status())
}

func TestLifecycleStopBeforeStart(t *testing.T) {
	l := NewLifecycle()
	assert.Equal(t, api.ErrDriverNotStarted, l.Stop())
	assert.Equal(t, api.ErrDriverNotStarted, l.Abort())
}

func TestLifecycleStopIsTerminal(t *testing.T) {
	l := NewLifecycle()
	require.NoError(t, l.Start())
	require.NoError(t, l.Stop())

	assert.Equal(t, api.DriverStopped, l.Status())
	assert.Equal(t, api.ErrDriverStopped, l.Stop())
	assert.Equal(t, api.ErrDriverStopped, l.Abort())
	assert.Equal(t, api.ErrDriverStopped, l.Start())
}

func TestLifecycleAbortIsTerminal(t *testing.T) {
	l := NewLifecycle()
	require.NoError(t, l.Start())
	require.NoError(t, l.Abort())

	assert.Equal(t, api.DriverAborted, l.Status())
	assert.Equal(t, api.ErrDriverAborted, l.Abort())
	assert.Equal(t, api.ErrDriverAborted, l.Stop())
	assert.Equal(t, api.ErrDriverAborted, l.Start())
}

func TestLifecycleJoinReturnsTerminalState(t *testing.T) {
	l := NewLifecycle()
	require.NoError(t, l.Start())

	joined := make(chan api.DriverStatus)
	go func() {
		status, err := l.Join()
		assert.NoError(t, err)
		joined <- status
	}()

	require.NoError(t, l.Stop())
	select {
	case status := <-joined:
		assert.Equal(t, api.DriverStopped, status)
	case <-time.After(time.Second):
		t.Fatal("Join did not return after Stop")
	}
}

func TestLifecycleJoinBeforeStart(t *testing.T) {
	l := NewLifecycle()
	_, err := l.Join()
	assert.Equal(t, api.ErrDriverNotStarted, err)
}

func TestLifecycleJoinFromEventLoopFails(t *testing.T) {
	l := NewLifecycle()
	require.NoError(t, l.Start())

	result := make(chan error)
	go func() {
		l.MarkEventLoop()
		assert.True(t, l.OnEventLoop())
		_, err := l.Join()
		result <- err
	}()

	select {
	case err := <-result:
		var violation *api.ErrContractViolation
		assert.ErrorAs(t, err, &violation)
	case <-time.After(time.Second):
		t.Fatal("Join from the event loop goroutine blocked instead of failing")
	}
	assert.False(t, l.OnEventLoop())
}

func TestLifecycleCheckOperational(t *testing.T) {
	l := NewLifecycle()
	assert.Equal(t, api.ErrDriverNotStarted, l.CheckOperational())

	require.NoError(t, l.Start())
	assert.NoError(t, l.CheckOperational())

	require.NoError(t, l.Abort())
	assert.Equal(t, api.ErrDriverAborted, l.CheckOperational())
}
