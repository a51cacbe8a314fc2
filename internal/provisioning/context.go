package provisioning

import (
	"context"

	"github.com/imamik/onpremctl/internal/localconfig"
	"github.com/imamik/onpremctl/internal/task"
)

// Request is the immutable input of a bootstrap run.
type Request struct {
	// LocalClusterName is the friendly name the cluster is registered under.
	LocalClusterName string

	// Task is the descriptor submitted to the launcher.
	Task *task.Descriptor

	// Admin is the privileged identity used only while bridging.
	Admin AdminCredential

	// RestrictedUser is the account created on the node.
	RestrictedUser string

	// RestrictedKeyPath is the private key recorded for RestrictedUser.
	RestrictedKeyPath string

	// PublicKeyPath is the local public key staged on the node.
	PublicKeyPath string

	// KeyMountPath is where the public key is staged on the node.
	KeyMountPath string

	// Strict enables compensation of completed phases on failure.
	Strict bool
}

// State holds the shared results of provisioning phases.
// It is progressively populated as each phase completes and is passed
// to subsequent phases that need earlier results.
type State struct {
	Stage Stage

	// Compute results
	NodeName string
	Handle   *ClusterHandle

	// Access results
	Credential *RestrictedCredential

	// Registration results
	LocalConfig     *localconfig.ClusterConfig
	LocalConfigPath string
}

// NewState creates an idle provisioning state.
func NewState() *State {
	return &State{Stage: StageIdle}
}

// Context wraps all dependencies and state needed for a provisioning phase.
type Context struct {
	context.Context
	Request  *Request
	State    *State
	Observer Observer
	Metrics  *Metrics
}

// NewContext creates a new provisioning context.
func NewContext(ctx context.Context, req *Request, observer Observer, metrics *Metrics) *Context {
	if observer == nil {
		observer = NewLogrObserver(DiscardLogger())
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Context{
		Context:  ctx,
		Request:  req,
		State:    NewState(),
		Observer: observer,
		Metrics:  metrics,
	}
}
