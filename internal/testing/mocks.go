package testing

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/imamik/onpremctl/internal/provisioning"
)

// MockLauncher is a mock implementation of provisioning.Launcher.
type MockLauncher struct {
	mock.Mock
}

// Launch records the call and returns the configured error.
func (m *MockLauncher) Launch(ctx context.Context, name, taskFile string) error {
	args := m.Called(ctx, name, taskFile)
	return args.Error(0)
}

// LookupHandle records the call and returns the configured handle.
func (m *MockLauncher) LookupHandle(ctx context.Context, name string) (*provisioning.ClusterHandle, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provisioning.ClusterHandle), args.Error(1)
}

// Terminate records the call and returns the configured error.
func (m *MockLauncher) Terminate(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// MockRemoteRunner is a mock implementation of provisioning.RemoteRunner.
type MockRemoteRunner struct {
	mock.Mock
}

// RunPrivileged records the call and returns the configured result.
func (m *MockRemoteRunner) RunPrivileged(ctx context.Context, address string, cred provisioning.AdminCredential, script string) (int, string, error) {
	args := m.Called(ctx, address, cred, script)
	return args.Int(0), args.String(1), args.Error(2)
}
