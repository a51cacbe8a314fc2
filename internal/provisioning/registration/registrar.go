package registration

import (
	"context"
	"errors"
	"fmt"

	"github.com/imamik/onpremctl/internal/localconfig"
	"github.com/imamik/onpremctl/internal/provisioning"
)

const phase = "registration"

// Store is the part of localconfig.Store the registrar needs.
type Store interface {
	Path(name string) string
	Exists(name string) (bool, error)
	Create(cfg *localconfig.ClusterConfig) (string, error)
}

// Registrar writes local cluster descriptors. It does not implement
// provisioning.Compensator: a written descriptor is never removed.
type Registrar struct {
	store Store
}

// NewRegistrar creates a registrar writing to store.
func NewRegistrar(store Store) *Registrar {
	return &Registrar{store: store}
}

// Name implements the provisioning.Phase interface.
func (r *Registrar) Name() string {
	return phase
}

// Stage implements the provisioning.Phase interface.
func (r *Registrar) Stage() provisioning.Stage {
	return provisioning.StageRegistering
}

// Provision implements the provisioning.Phase interface.
func (r *Registrar) Provision(ctx *provisioning.Context) error {
	if ctx.State.Handle == nil || ctx.State.Credential == nil {
		return fmt.Errorf("no cluster handle or credential: earlier phases have not run")
	}
	name := ctx.Request.LocalClusterName

	ctx.Observer.Printf("[%s] Registering %s at %s...", phase, name, r.store.Path(name))
	cfg, path, err := r.register(name, ctx.State.Handle.HeadAddress, *ctx.State.Credential)
	if err != nil {
		return err
	}

	provisioning.LogResourceCreated(ctx.Observer, phase, "local cluster", name, path)
	ctx.State.LocalConfig = cfg
	ctx.State.LocalConfigPath = path
	return nil
}

// Register writes the descriptor binding name to headAddress and cred.
//
// An existing descriptor is never overwritten; the call fails with
// ReasonAlreadyRegistered and leaves it untouched.
func (r *Registrar) Register(_ context.Context, name, headAddress string, cred provisioning.RestrictedCredential) (*localconfig.ClusterConfig, error) {
	cfg, _, err := r.register(name, headAddress, cred)
	return cfg, err
}

func (r *Registrar) register(name, headAddress string, cred provisioning.RestrictedCredential) (*localconfig.ClusterConfig, string, error) {
	path := r.store.Path(name)

	exists, err := r.store.Exists(name)
	if err != nil {
		return nil, "", &provisioning.RegisterError{Reason: provisioning.ReasonWriteFailed, Name: name, Path: path, Err: err}
	}
	if exists {
		return nil, "", &provisioning.RegisterError{Reason: provisioning.ReasonAlreadyRegistered, Name: name, Path: path}
	}

	cfg := &localconfig.ClusterConfig{
		Cluster: localconfig.Cluster{
			IPs:  []string{headAddress},
			Name: name,
		},
		Auth: localconfig.Auth{
			SSHUser:       cred.User,
			SSHPrivateKey: cred.PrivateKeyPath,
		},
	}

	written, err := r.store.Create(cfg)
	if err != nil {
		reason := provisioning.ReasonWriteFailed
		if errors.Is(err, localconfig.ErrAlreadyExists) {
			reason = provisioning.ReasonAlreadyRegistered
		}
		return nil, "", &provisioning.RegisterError{Reason: reason, Name: name, Path: path, Err: err}
	}
	return cfg, written, nil
}
