package compute

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/imamik/onpremctl/internal/provisioning"
	"github.com/imamik/onpremctl/internal/task"
	testutil "github.com/imamik/onpremctl/internal/testing"
	"github.com/imamik/onpremctl/internal/util/retry"
)

func fastPoll() Option {
	return WithPollOptions(retry.WithInitialDelay(time.Millisecond), retry.WithMaxDelay(5*time.Millisecond))
}

func fixedName(name string) Option {
	return WithNameFunc(func() string { return name })
}

func newContext(d *task.Descriptor, strict bool) (*provisioning.Context, *testutil.RecordingObserver) {
	observer := testutil.NewRecordingObserver()
	ctx := provisioning.NewContext(context.Background(), &provisioning.Request{
		LocalClusterName: "my-cluster",
		Task:             d,
		Strict:           strict,
	}, observer, nil)
	return ctx, observer
}

func TestProvisioner_Phase(t *testing.T) {
	p := NewProvisioner(testutil.NewFakeLauncher("10.0.0.5"))
	assert.Equal(t, "compute", p.Name())
	assert.Equal(t, provisioning.StageProvisioning, p.Stage())
}

func TestProvision_ScenarioA(t *testing.T) {
	launcher := testutil.NewFakeLauncher("10.0.0.5")
	d := task.ForRestrictedUser("aws", "test", "/home/me/.ssh/sky-key.pub", "/user-key")
	ctx, observer := newContext(d, false)

	p := NewProvisioner(launcher, fastPoll())
	require.NoError(t, p.Provision(ctx))

	require.NotNil(t, ctx.State.Handle)
	assert.Equal(t, "10.0.0.5", ctx.State.Handle.HeadAddress)
	assert.Equal(t, ctx.State.NodeName, ctx.State.Handle.Name)
	assert.Regexp(t, `^onprem-cluster-[0-9a-f]{6}$`, ctx.State.NodeName)

	submitted := launcher.Task(ctx.State.NodeName)
	require.NotNil(t, submitted)
	assert.Equal(t, "aws", submitted.Resources.Cloud)
	assert.Equal(t, "/home/me/.ssh/sky-key.pub", submitted.FileMounts["/user-key"])
	assert.Contains(t, submitted.Setup, "adduser --disabled-password --gecos '' test")

	assert.Len(t, observer.EventsOfType(provisioning.EventResourceCreated), 1)
}

func TestProvisionTask_RemovesTaskFile(t *testing.T) {
	var taskFile string
	launcher := &testutil.MockLauncher{}
	launcher.On("Launch", mock.Anything, "onprem-cluster-abc123", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) {
			taskFile = args.String(2)
			_, err := os.Stat(taskFile)
			assert.NoError(t, err, "task file must exist during launch")
		}).
		Return(nil)
	launcher.On("LookupHandle", mock.Anything, "onprem-cluster-abc123").
		Return(&provisioning.ClusterHandle{Name: "onprem-cluster-abc123", HeadAddress: "192.0.2.10"}, nil)

	p := NewProvisioner(launcher, fastPoll(), fixedName("onprem-cluster-abc123"))
	handle, err := p.ProvisionTask(context.Background(), task.ForRestrictedUser("hcloud", "test", "/k.pub", "/user-key"))
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.10", handle.HeadAddress)

	_, err = os.Stat(taskFile)
	assert.True(t, errors.Is(err, os.ErrNotExist), "task file must be removed after launch")
	launcher.AssertExpectations(t)
}

func TestProvisionTask_HandleAppearsLate(t *testing.T) {
	launcher := testutil.NewFakeLauncher("10.0.0.5")
	launcher.HiddenLookups = 3

	p := NewProvisioner(launcher, fastPoll(), fixedName("onprem-cluster-aaaaaa"))
	handle, err := p.ProvisionTask(context.Background(), task.ForRestrictedUser("aws", "test", "/k.pub", "/user-key"))
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", handle.HeadAddress)
	assert.Equal(t, 4, launcher.Lookups("onprem-cluster-aaaaaa"))
}

func TestProvisionTask_Errors(t *testing.T) {
	valid := task.ForRestrictedUser("aws", "test", "/k.pub", "/user-key")

	tests := []struct {
		name       string
		descriptor *task.Descriptor
		setup      func(*testutil.MockLauncher)
		wantReason provisioning.Reason
	}{
		{
			name:       "nil descriptor",
			descriptor: nil,
			setup:      func(*testutil.MockLauncher) {},
			wantReason: provisioning.ReasonInvalidTask,
		},
		{
			name:       "missing platform",
			descriptor: &task.Descriptor{Setup: "true"},
			setup:      func(*testutil.MockLauncher) {},
			wantReason: provisioning.ReasonInvalidTask,
		},
		{
			name:       "launch fails",
			descriptor: valid,
			setup: func(m *testutil.MockLauncher) {
				m.On("Launch", mock.Anything, "n", mock.Anything).Return(errors.New("quota exceeded"))
			},
			wantReason: provisioning.ReasonLaunchFailed,
		},
		{
			name:       "handle never appears",
			descriptor: valid,
			setup: func(m *testutil.MockLauncher) {
				m.On("Launch", mock.Anything, "n", mock.Anything).Return(nil)
				m.On("LookupHandle", mock.Anything, "n").Return(nil, nil)
			},
			wantReason: provisioning.ReasonHandleNotFound,
		},
		{
			name:       "lookup keeps failing",
			descriptor: valid,
			setup: func(m *testutil.MockLauncher) {
				m.On("Launch", mock.Anything, "n", mock.Anything).Return(nil)
				m.On("LookupHandle", mock.Anything, "n").Return(nil, errors.New("api unavailable"))
			},
			wantReason: provisioning.ReasonHandleNotFound,
		},
		{
			name:       "empty head address",
			descriptor: valid,
			setup: func(m *testutil.MockLauncher) {
				m.On("Launch", mock.Anything, "n", mock.Anything).Return(nil)
				m.On("LookupHandle", mock.Anything, "n").Return(&provisioning.ClusterHandle{Name: "n"}, nil)
			},
			wantReason: provisioning.ReasonInvalidAddress,
		},
		{
			name:       "malformed head address",
			descriptor: valid,
			setup: func(m *testutil.MockLauncher) {
				m.On("Launch", mock.Anything, "n", mock.Anything).Return(nil)
				m.On("LookupHandle", mock.Anything, "n").Return(&provisioning.ClusterHandle{Name: "n", HeadAddress: "not an address"}, nil)
			},
			wantReason: provisioning.ReasonInvalidAddress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			launcher := &testutil.MockLauncher{}
			tt.setup(launcher)

			p := NewProvisioner(launcher, fastPoll(), fixedName("n"), WithLookupTimeout(20*time.Millisecond))
			handle, err := p.ProvisionTask(context.Background(), tt.descriptor)
			require.Error(t, err)
			assert.Nil(t, handle)

			var pe *provisioning.ProvisionError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.wantReason, pe.Reason)
			assert.Equal(t, "n", pe.NodeName)
			launcher.AssertExpectations(t)
		})
	}
}

func TestProvisionTask_LastLookupErrorReported(t *testing.T) {
	launcher := &testutil.MockLauncher{}
	launcher.On("Launch", mock.Anything, "n", mock.Anything).Return(nil)
	launcher.On("LookupHandle", mock.Anything, "n").Return(nil, errors.New("api unavailable"))

	p := NewProvisioner(launcher, fastPoll(), fixedName("n"), WithLookupTimeout(10*time.Millisecond))
	_, err := p.ProvisionTask(context.Background(), task.ForRestrictedUser("aws", "test", "/k.pub", "/user-key"))
	require.Error(t, err)
	assert.ErrorIs(t, err, retry.ErrTimeout)
	assert.Contains(t, err.Error(), "api unavailable")
}

func TestProvision_RecordsNodeNameBeforeLaunchFails(t *testing.T) {
	launcher := testutil.NewFakeLauncher("10.0.0.5")
	launcher.LaunchErr = errors.New("boom")
	ctx, _ := newContext(task.ForRestrictedUser("aws", "test", "/k.pub", "/user-key"), true)

	p := NewProvisioner(launcher, fastPoll(), fixedName("onprem-cluster-000001"))
	err := p.Provision(ctx)
	require.Error(t, err)
	assert.Equal(t, "onprem-cluster-000001", ctx.State.NodeName)
	assert.Nil(t, ctx.State.Handle)
}

func TestCompensate(t *testing.T) {
	t.Run("terminates launched node", func(t *testing.T) {
		launcher := testutil.NewFakeLauncher("10.0.0.5")
		ctx, observer := newContext(task.ForRestrictedUser("aws", "test", "/k.pub", "/user-key"), true)
		p := NewProvisioner(launcher, fastPoll())
		require.NoError(t, p.Provision(ctx))

		require.NoError(t, p.Compensate(ctx))
		assert.Equal(t, []string{ctx.State.NodeName}, launcher.Terminated())
		assert.Empty(t, launcher.Nodes())
		assert.Len(t, observer.EventsOfType(provisioning.EventResourceDeleted), 1)
	})

	t.Run("nothing launched", func(t *testing.T) {
		launcher := &testutil.MockLauncher{}
		ctx, _ := newContext(nil, true)
		require.NoError(t, NewProvisioner(launcher).Compensate(ctx))
		launcher.AssertNotCalled(t, "Terminate", mock.Anything, mock.Anything)
	})

	t.Run("terminate error", func(t *testing.T) {
		launcher := &testutil.MockLauncher{}
		launcher.On("Terminate", mock.Anything, "n").Return(errors.New("forbidden"))
		ctx, _ := newContext(nil, true)
		ctx.State.NodeName = "n"

		err := NewProvisioner(launcher).Compensate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to terminate node n")
	})
}

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		address string
		valid   bool
	}{
		{"10.0.0.5", true},
		{"2001:db8::1", true},
		{"node-1.example.com", true},
		{"localhost", true},
		{"", false},
		{"not an address", false},
		{"-bad.example.com", false},
		{"a..b", false},
	}
	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			err := ValidateAddress(tt.address)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
