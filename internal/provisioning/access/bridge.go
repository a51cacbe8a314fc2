package access

import (
	"context"
	"fmt"
	"strings"

	"al.essio.dev/pkg/shellescape"

	"github.com/imamik/onpremctl/internal/provisioning"
	"github.com/imamik/onpremctl/internal/task"
)

const phase = "access"

// AuthorizedKey names the key pair the restricted user is given. StagedPath
// is where the launcher placed the public key on the node; PrivateKeyPath is
// the local counterpart recorded in the returned credential.
type AuthorizedKey struct {
	StagedPath     string
	PrivateKeyPath string
}

// Bridge creates the restricted account on a node.
type Bridge struct {
	runner   provisioning.RemoteRunner
	observer provisioning.Observer
}

// NewBridge creates a bridge that reaches nodes through runner.
func NewBridge(runner provisioning.RemoteRunner) *Bridge {
	return &Bridge{
		runner:   runner,
		observer: provisioning.NewLogrObserver(provisioning.DiscardLogger()),
	}
}

// Name implements the provisioning.Phase interface.
func (b *Bridge) Name() string {
	return phase
}

// Stage implements the provisioning.Phase interface.
func (b *Bridge) Stage() provisioning.Stage {
	return provisioning.StageBridging
}

// Provision implements the provisioning.Phase interface.
func (b *Bridge) Provision(ctx *provisioning.Context) error {
	if ctx.State.Handle == nil {
		return fmt.Errorf("no cluster handle: compute phase has not run")
	}
	req := ctx.Request

	deployment := provisioning.DeploymentDescriptor{
		Address:          ctx.State.Handle.HeadAddress,
		LocalClusterName: req.LocalClusterName,
		Admin:            req.Admin,
	}
	logDeployment(ctx.Observer, deployment)

	cred, err := b.bootstrap(ctx, ctx.Observer, deployment.Address, req.Admin, req.RestrictedUser, AuthorizedKey{
		StagedPath:     req.KeyMountPath,
		PrivateKeyPath: req.RestrictedKeyPath,
	})
	if err != nil {
		return err
	}
	ctx.State.Credential = cred
	return nil
}

// Compensate implements the provisioning.Compensator interface by removing
// the restricted user again.
func (b *Bridge) Compensate(ctx *provisioning.Context) error {
	if ctx.State.Credential == nil || ctx.State.Handle == nil {
		return nil
	}
	ctx.Observer.Printf("[%s] Removing user %s from %s...", phase, ctx.State.Credential.User, ctx.State.Handle.HeadAddress)
	if err := b.Revoke(ctx, ctx.State.Handle.HeadAddress, ctx.Request.Admin, ctx.State.Credential.User); err != nil {
		return err
	}
	provisioning.LogResourceDeleted(ctx.Observer, phase, "user", ctx.State.Credential.User)
	return nil
}

// Bootstrap creates restrictedUser on the node at address, authorizes the
// staged public key for it, and returns the credential later callers use.
func (b *Bridge) Bootstrap(ctx context.Context, address string, admin provisioning.AdminCredential, restrictedUser string, key AuthorizedKey) (*provisioning.RestrictedCredential, error) {
	return b.bootstrap(ctx, b.observer, address, admin, restrictedUser, key)
}

func (b *Bridge) bootstrap(ctx context.Context, observer provisioning.Observer, address string, admin provisioning.AdminCredential, restrictedUser string, key AuthorizedKey) (*provisioning.RestrictedCredential, error) {
	if restrictedUser == "" || restrictedUser == admin.User {
		return nil, &provisioning.BridgeError{
			Reason:  provisioning.ReasonDeployFailed,
			Address: address,
			Detail:  fmt.Sprintf("restricted user %q must be set and differ from the admin user", restrictedUser),
		}
	}

	provisioning.LogResourceCreating(observer, phase, "user", restrictedUser)
	observer.Printf("[%s] Creating user %s on %s as %s...", phase, restrictedUser, address, admin.User)

	exitCode, output, err := b.runner.RunPrivileged(ctx, address, admin, BootstrapScript(restrictedUser, key.StagedPath))
	if err != nil {
		return nil, &provisioning.BridgeError{Reason: provisioning.ReasonUnreachable, Address: address, Detail: output, Err: err}
	}
	if exitCode != 0 {
		return nil, &provisioning.BridgeError{Reason: provisioning.ReasonDeployFailed, Address: address, ExitCode: exitCode, Detail: output}
	}

	provisioning.LogResourceCreated(observer, phase, "user", restrictedUser, address)
	return &provisioning.RestrictedCredential{User: restrictedUser, PrivateKeyPath: key.PrivateKeyPath}, nil
}

// Revoke removes restrictedUser and its home directory from the node.
func (b *Bridge) Revoke(ctx context.Context, address string, admin provisioning.AdminCredential, restrictedUser string) error {
	exitCode, output, err := b.runner.RunPrivileged(ctx, address, admin, "set -eu\n"+task.RemoveUserScript(restrictedUser))
	if err != nil {
		return &provisioning.BridgeError{Reason: provisioning.ReasonUnreachable, Address: address, Detail: output, Err: err}
	}
	if exitCode != 0 {
		return &provisioning.BridgeError{Reason: provisioning.ReasonDeployFailed, Address: address, ExitCode: exitCode, Detail: output}
	}
	return nil
}

// BootstrapScript returns the privileged script run on the node. It waits
// for cloud-init so the staged key is in place, then creates the user.
func BootstrapScript(restrictedUser, stagedKeyPath string) string {
	k := shellescape.Quote(stagedKeyPath)

	var b strings.Builder
	b.WriteString("set -eu\n")
	b.WriteString("if command -v cloud-init >/dev/null 2>&1; then sudo cloud-init status --wait >/dev/null || true; fi\n")
	fmt.Fprintf(&b, "test -s %s || { echo 'public key not staged at' %s >&2; exit 1; }\n", k, k)
	b.WriteString(task.RestrictedUserScript(restrictedUser, stagedKeyPath))
	return b.String()
}

func logDeployment(observer provisioning.Observer, d provisioning.DeploymentDescriptor) {
	observer.WithFields(map[string]string{
		"address":    d.Address,
		"cluster":    d.LocalClusterName,
		"admin_user": d.Admin.User,
		"admin_key":  d.Admin.PrivateKeyPath,
	}).Printf("[%s] Deploying to %s", phase, d.Address)
}
