package sysmanager

import (
	"errors"
	"testing"

	"github.com/cubecore/simfw/events"
	"github.com/cubecore/simfw/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPlatform struct {
	mock.Mock
}

func (m *mockPlatform) Sync() error {
	args := m.Called()
	return args.Error(0)
}

func (m *mockPlatform) Halt() error {
	args := m.Called()
	return args.Error(0)
}

func TestRunIterationNoOpOnNonShutdown(t *testing.T) {
	data := queue.Fetch[events.Event](queue.NewRegistry(), "sys-noop", 4)
	require.NoError(t, data.EnqueueBlocking(events.Event{Kind: events.KindSystem, System: &events.SystemEvent{Shutdown: false}}))

	plat := &mockPlatform{}
	p := New(events.NewListener(events.KindSystem, data, nil), plat, nil)

	require.NoError(t, p.RunIteration())
	plat.AssertNotCalled(t, "Sync")
	plat.AssertNotCalled(t, "Halt")
}

func TestRunIterationShutsDownOnShutdownTrue(t *testing.T) {
	data := queue.Fetch[events.Event](queue.NewRegistry(), "sys-shutdown", 4)
	require.NoError(t, data.EnqueueBlocking(events.Event{Kind: events.KindSystem, System: &events.SystemEvent{Shutdown: true}}))

	plat := &mockPlatform{}
	plat.On("Sync").Return(nil)
	plat.On("Halt").Return(nil)
	p := New(events.NewListener(events.KindSystem, data, nil), plat, nil)

	require.NoError(t, p.RunIteration())
	plat.AssertExpectations(t)
}

func TestRunIterationReportsHaltFailure(t *testing.T) {
	data := queue.Fetch[events.Event](queue.NewRegistry(), "sys-haltfail", 4)
	require.NoError(t, data.EnqueueBlocking(events.Event{Kind: events.KindSystem, System: &events.SystemEvent{Shutdown: true}}))

	plat := &mockPlatform{}
	plat.On("Sync").Return(nil)
	plat.On("Halt").Return(errors.New("reboot refused"))
	p := New(events.NewListener(events.KindSystem, data, nil), plat, nil)

	err := p.RunIteration()
	assert.Error(t, err)
}

func TestRunIterationContinuesAfterSyncFailure(t *testing.T) {
	data := queue.Fetch[events.Event](queue.NewRegistry(), "sys-syncfail", 4)
	require.NoError(t, data.EnqueueBlocking(events.Event{Kind: events.KindSystem, System: &events.SystemEvent{Shutdown: true}}))

	plat := &mockPlatform{}
	plat.On("Sync").Return(errors.New("sync failed"))
	plat.On("Halt").Return(nil)
	p := New(events.NewListener(events.KindSystem, data, nil), plat, nil)

	require.NoError(t, p.RunIteration())
	plat.AssertExpectations(t)
}
