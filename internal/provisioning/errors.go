package provisioning

import (
	"errors"
	"fmt"
	"strings"
)

// Reason classifies a stage failure.
type Reason string

const (
	// ReasonInvalidTask: the task descriptor could not be validated or serialized.
	ReasonInvalidTask Reason = "InvalidTask"
	// ReasonLaunchFailed: the launcher returned an error.
	ReasonLaunchFailed Reason = "LaunchFailed"
	// ReasonHandleNotFound: the launcher inventory had no handle for the node.
	ReasonHandleNotFound Reason = "HandleNotFound"
	// ReasonInvalidAddress: the handle's head address is empty or malformed.
	ReasonInvalidAddress Reason = "InvalidAddress"

	// ReasonUnreachable: the node could not be reached as the admin identity.
	ReasonUnreachable Reason = "Unreachable"
	// ReasonDeployFailed: the privileged setup exited non-zero.
	ReasonDeployFailed Reason = "DeployFailed"

	// ReasonAlreadyRegistered: a local descriptor already exists for the name.
	ReasonAlreadyRegistered Reason = "AlreadyRegistered"
	// ReasonWriteFailed: the local descriptor could not be written.
	ReasonWriteFailed Reason = "WriteFailed"
)

// ProvisionError reports a launch or handle-lookup failure.
type ProvisionError struct {
	Reason   Reason
	NodeName string
	Detail   string
	Err      error
}

func (e *ProvisionError) Error() string {
	return formatError("provision", e.Reason, "node "+e.NodeName, e.Detail, e.Err)
}

func (e *ProvisionError) Unwrap() error { return e.Err }

// BridgeError reports a failure of the privileged remote setup. Detail holds
// the remote output verbatim.
type BridgeError struct {
	Reason   Reason
	Address  string
	ExitCode int
	Detail   string
	Err      error
}

func (e *BridgeError) Error() string {
	target := "node " + e.Address
	if e.Reason == ReasonDeployFailed {
		target = fmt.Sprintf("%s (exit status %d)", target, e.ExitCode)
	}
	return formatError("bridge", e.Reason, target, e.Detail, e.Err)
}

func (e *BridgeError) Unwrap() error { return e.Err }

// RegisterError reports a pre-existing or unwritable local descriptor.
type RegisterError struct {
	Reason Reason
	Name   string
	Path   string
	Err    error
}

func (e *RegisterError) Error() string {
	return formatError("register", e.Reason, fmt.Sprintf("cluster %s at %s", e.Name, e.Path), "", e.Err)
}

func (e *RegisterError) Unwrap() error { return e.Err }

// PipelineError reports the stage at which a run failed. Compensation holds
// the errors from strict-mode cleanup, if any ran.
type PipelineError struct {
	Stage        Stage
	Phase        string
	Err          error
	Compensation error
}

func (e *PipelineError) Error() string {
	msg := fmt.Sprintf("%s phase failed: %v", e.Phase, e.Err)
	if e.Compensation != nil {
		msg += fmt.Sprintf("; cleanup incomplete: %v", e.Compensation)
	}
	return msg
}

func (e *PipelineError) Unwrap() error { return e.Err }

// ReasonOf returns the Reason carried by the first stage error in err's chain.
func ReasonOf(err error) (Reason, bool) {
	var pe *ProvisionError
	if errors.As(err, &pe) {
		return pe.Reason, true
	}
	var be *BridgeError
	if errors.As(err, &be) {
		return be.Reason, true
	}
	var re *RegisterError
	if errors.As(err, &re) {
		return re.Reason, true
	}
	return "", false
}

func formatError(stage string, reason Reason, target, detail string, err error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed (%s) for %s", stage, reason, target)
	if detail != "" {
		fmt.Fprintf(&b, ": %s", strings.TrimRight(detail, "\n"))
	}
	if err != nil {
		fmt.Fprintf(&b, ": %v", err)
	}
	return b.String()
}
