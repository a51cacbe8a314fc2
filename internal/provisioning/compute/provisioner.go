package compute

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/imamik/onpremctl/internal/provisioning"
	"github.com/imamik/onpremctl/internal/task"
	"github.com/imamik/onpremctl/internal/util/naming"
	"github.com/imamik/onpremctl/internal/util/retry"
)

const phase = "compute"

// DefaultLookupTimeout bounds the handle poll when no option overrides it.
const DefaultLookupTimeout = 2 * time.Minute

var hostnameLabel = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)

// Provisioner launches a single node and resolves its handle.
type Provisioner struct {
	launcher      provisioning.Launcher
	lookupTimeout time.Duration
	pollOpts      []retry.Option
	nameFunc      func() string
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithLookupTimeout bounds how long LookupHandle is polled after launch.
func WithLookupTimeout(d time.Duration) Option {
	return func(p *Provisioner) {
		p.lookupTimeout = d
	}
}

// WithPollOptions sets the backoff used between lookups.
func WithPollOptions(opts ...retry.Option) Option {
	return func(p *Provisioner) {
		p.pollOpts = opts
	}
}

// WithNameFunc overrides node name generation.
func WithNameFunc(fn func() string) Option {
	return func(p *Provisioner) {
		p.nameFunc = fn
	}
}

// NewProvisioner creates a compute provisioner backed by launcher.
func NewProvisioner(launcher provisioning.Launcher, opts ...Option) *Provisioner {
	p := &Provisioner{
		launcher:      launcher,
		lookupTimeout: DefaultLookupTimeout,
		pollOpts: []retry.Option{
			retry.WithInitialDelay(time.Second),
			retry.WithMaxDelay(10 * time.Second),
		},
		nameFunc: naming.NodeName,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return phase
}

// Stage implements the provisioning.Phase interface.
func (p *Provisioner) Stage() provisioning.Stage {
	return provisioning.StageProvisioning
}

// Provision implements the provisioning.Phase interface.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	handle, err := p.launch(ctx, ctx.Request.Task, ctx.Observer, func(name string) {
		ctx.State.NodeName = name
	})
	if err != nil {
		return err
	}
	ctx.State.Handle = handle
	return nil
}

// Compensate implements the provisioning.Compensator interface by
// terminating the launched node.
func (p *Provisioner) Compensate(ctx *provisioning.Context) error {
	if ctx.State.NodeName == "" {
		return nil
	}
	ctx.Observer.Printf("[%s] Terminating node %s...", phase, ctx.State.NodeName)
	if err := p.launcher.Terminate(ctx, ctx.State.NodeName); err != nil {
		return fmt.Errorf("failed to terminate node %s: %w", ctx.State.NodeName, err)
	}
	provisioning.LogResourceDeleted(ctx.Observer, phase, "node", ctx.State.NodeName)
	return nil
}

// ProvisionTask launches a node from d outside of a pipeline run.
func (p *Provisioner) ProvisionTask(ctx context.Context, d *task.Descriptor) (*provisioning.ClusterHandle, error) {
	return p.launch(ctx, d, provisioning.NewLogrObserver(provisioning.DiscardLogger()), nil)
}

func (p *Provisioner) launch(ctx context.Context, d *task.Descriptor, observer provisioning.Observer, named func(string)) (*provisioning.ClusterHandle, error) {
	name := p.nameFunc()

	if d == nil {
		return nil, &provisioning.ProvisionError{Reason: provisioning.ReasonInvalidTask, NodeName: name, Detail: "no task descriptor"}
	}
	if err := d.Validate(); err != nil {
		return nil, &provisioning.ProvisionError{Reason: provisioning.ReasonInvalidTask, NodeName: name, Err: err}
	}

	taskFile, cleanup, err := task.WriteTemp(d)
	if err != nil {
		return nil, &provisioning.ProvisionError{Reason: provisioning.ReasonInvalidTask, NodeName: name, Err: err}
	}

	provisioning.LogResourceCreating(observer, phase, "node", name)
	observer.Printf("[%s] Launching %s on %s...", phase, name, d.Resources.Cloud)
	if named != nil {
		named(name)
	}
	err = p.launcher.Launch(ctx, name, taskFile)
	cleanup()
	if err != nil {
		return nil, &provisioning.ProvisionError{Reason: provisioning.ReasonLaunchFailed, NodeName: name, Err: err}
	}

	handle, err := p.waitForHandle(ctx, name)
	if err != nil {
		return nil, err
	}

	provisioning.LogResourceCreated(observer, phase, "node", name, handle.ID)
	observer.Printf("[%s] Node %s is up at %s", phase, name, handle.HeadAddress)
	return handle, nil
}

// waitForHandle polls the launcher inventory until name has a handle. A
// handle with an unusable address ends the poll immediately.
func (p *Provisioner) waitForHandle(ctx context.Context, name string) (*provisioning.ClusterHandle, error) {
	var (
		handle  *provisioning.ClusterHandle
		lastErr error
	)

	err := retry.Poll(ctx, p.lookupTimeout, func(ctx context.Context) (bool, error) {
		h, err := p.launcher.LookupHandle(ctx, name)
		if err != nil {
			lastErr = err
			return false, nil
		}
		if h == nil {
			return false, nil
		}
		handle = h
		return true, nil
	}, p.pollOpts...)

	if err != nil {
		if lastErr != nil && errors.Is(err, retry.ErrTimeout) {
			err = fmt.Errorf("%w (last lookup error: %v)", err, lastErr)
		}
		return nil, &provisioning.ProvisionError{
			Reason:   provisioning.ReasonHandleNotFound,
			NodeName: name,
			Detail:   "launcher has no handle for the node",
			Err:      err,
		}
	}

	if err := ValidateAddress(handle.HeadAddress); err != nil {
		return nil, &provisioning.ProvisionError{Reason: provisioning.ReasonInvalidAddress, NodeName: name, Err: err}
	}
	if handle.Name == "" {
		handle.Name = name
	}
	return handle, nil
}

// ValidateAddress checks that address is an IP or a DNS hostname.
func ValidateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("head address is empty")
	}
	if net.ParseIP(address) != nil {
		return nil
	}
	if len(address) > 253 {
		return fmt.Errorf("head address %q is too long", address)
	}
	for _, label := range strings.Split(strings.TrimSuffix(address, "."), ".") {
		if !hostnameLabel.MatchString(label) {
			return fmt.Errorf("head address %q is not an IP address or hostname", address)
		}
	}
	return nil
}
