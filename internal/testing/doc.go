// Package testing provides test doubles shared by the provisioning packages.
//
//   - MockLauncher, MockRemoteRunner: testify mocks for strict call expectations
//   - FakeLauncher: in-memory launcher inventory that rejects duplicate names
//   - RecordingObserver: an Observer that keeps every message and event
//
// Usage:
//
//	launcher := testing.NewFakeLauncher("10.0.0.5")
//	runner := &testing.MockRemoteRunner{}
//	runner.On("RunPrivileged", mock.Anything, "10.0.0.5", admin, mock.Anything).Return(0, "", nil)
package testing
