package provisioning

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvisionError(t *testing.T) {
	t.Parallel()
	cause := errors.New("quota exceeded")
	err := &ProvisionError{Reason: ReasonLaunchFailed, NodeName: "onprem-cluster-abc123", Err: cause}

	assert.Equal(t, "provision failed (LaunchFailed) for node onprem-cluster-abc123: quota exceeded", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestBridgeError_DeployFailedCarriesOutputVerbatim(t *testing.T) {
	t.Parallel()
	err := &BridgeError{Reason: ReasonDeployFailed, Address: "10.0.0.5", ExitCode: 1, Detail: "permission denied\n"}

	assert.Equal(t, "bridge failed (DeployFailed) for node 10.0.0.5 (exit status 1): permission denied", err.Error())
	assert.Equal(t, "permission denied\n", err.Detail)
}

func TestRegisterError(t *testing.T) {
	t.Parallel()
	err := &RegisterError{Reason: ReasonAlreadyRegistered, Name: "my-cluster", Path: "/h/local/my-cluster.yml"}

	assert.Equal(t, "register failed (AlreadyRegistered) for cluster my-cluster at /h/local/my-cluster.yml", err.Error())
}

func TestReasonOf(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want Reason
		ok   bool
	}{
		{"provision", &ProvisionError{Reason: ReasonHandleNotFound}, ReasonHandleNotFound, true},
		{"bridge wrapped", fmt.Errorf("outer: %w", &BridgeError{Reason: ReasonUnreachable}), ReasonUnreachable, true},
		{"register in pipeline", &PipelineError{Err: &RegisterError{Reason: ReasonWriteFailed}}, ReasonWriteFailed, true},
		{"plain", errors.New("boom"), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ReasonOf(tt.err)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
