package provisioning

import "context"

// Launcher creates nodes from task descriptor files and looks them up in its
// own inventory.
type Launcher interface {
	// Launch creates a node named name from the task descriptor at taskFile
	// and blocks until the launcher reports it running. Duplicate names are
	// rejected by the launcher.
	Launch(ctx context.Context, name, taskFile string) error

	// LookupHandle returns the handle for name, or nil and no error when the
	// inventory has no such node (yet).
	LookupHandle(ctx context.Context, name string) (*ClusterHandle, error)

	// Terminate removes the node named name. Used only to compensate a
	// failed run in strict mode.
	Terminate(ctx context.Context, name string) error
}

// RemoteRunner executes a script on a node as the admin identity.
//
// A non-zero exit status is reported through exitCode with a nil error;
// err is reserved for failures to reach the node or run the script at all.
type RemoteRunner interface {
	RunPrivileged(ctx context.Context, address string, cred AdminCredential, script string) (exitCode int, output string, err error)
}

// Phase defines the interface for a provisioning phase.
type Phase interface {
	// Name returns the human-readable name of this phase.
	Name() string

	// Stage returns the pipeline stage this phase represents.
	Stage() Stage

	// Provision executes the provisioning logic for this phase.
	Provision(ctx *Context) error
}

// Compensator is implemented by phases whose side effect can be undone.
// RunPhases calls Compensate in strict mode for every phase that completed
// before a later phase failed.
type Compensator interface {
	Compensate(ctx *Context) error
}
