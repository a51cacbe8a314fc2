// Package handlers implements the business logic behind the CLI commands.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/imamik/onpremctl/internal/config"
	"github.com/imamik/onpremctl/internal/localconfig"
	"github.com/imamik/onpremctl/internal/platform"
	"github.com/imamik/onpremctl/internal/platform/ssh"
	"github.com/imamik/onpremctl/internal/provisioning"
	"github.com/imamik/onpremctl/internal/provisioning/access"
	"github.com/imamik/onpremctl/internal/provisioning/compute"
	"github.com/imamik/onpremctl/internal/provisioning/registration"
	"github.com/imamik/onpremctl/internal/task"
	"github.com/imamik/onpremctl/internal/util/keygen"
	"github.com/imamik/onpremctl/internal/util/retry"
)

// LaunchOptions holds the launch command flags.
type LaunchOptions struct {
	LocalClusterName string
	ConfigPath       string
	Strict           bool
	MetricsFile      string
	Verbosity        int
}

// Factory function variables for launch - can be replaced in tests.
var (
	loadConfig   = config.Load
	loadTimeouts = config.LoadTimeouts
	newSources   = platform.NewSources
	ensureKeys   = keygen.EnsureKeyPair
	newLauncher  = platform.NewLauncher

	newRemoteRunner = func(t *config.Timeouts) provisioning.RemoteRunner {
		return ssh.NewRunner(t.SSHDial, t.SSHMaxRetries)
	}

	newStore = func(home string) registration.Store {
		return localconfig.NewStore(home)
	}

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr

	isInteractiveTTY = func() bool {
		return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}
)

// Launch handles the launch command.
//
// It provisions a node, bridges credentials to a restricted account and
// registers the result as a local cluster. Stages run strictly in order and
// the first failure ends the run.
func Launch(ctx context.Context, opts LaunchOptions) error {
	if err := config.ValidateClusterName(opts.LocalClusterName); err != nil {
		return err
	}

	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	timeouts := loadTimeouts()

	created, err := ensureKeys(cfg.Keys.PrivateKey, cfg.Keys.PublicKey, "onpremctl")
	if err != nil {
		return fmt.Errorf("failed to prepare ssh key pair: %w", err)
	}
	if created {
		fmt.Fprintf(stderr, "Generated SSH key pair %s\n", cfg.Keys.PrivateKey)
	}

	descriptor := task.ForRestrictedUser(cfg.Platform, cfg.RestrictedUser, cfg.Keys.PublicKey, cfg.KeyMountPath)

	launcher, err := newLauncher(ctx, descriptor.Resources.Cloud, cfg, newSources(cfg.S3))
	if err != nil {
		return fmt.Errorf("failed to create launcher: %w", err)
	}

	req := &provisioning.Request{
		LocalClusterName:  opts.LocalClusterName,
		Task:              descriptor,
		Admin:             provisioning.AdminCredential{User: cfg.AdminUser, PrivateKeyPath: cfg.Keys.PrivateKey},
		RestrictedUser:    cfg.RestrictedUser,
		RestrictedKeyPath: cfg.RestrictedKey(),
		PublicKeyPath:     cfg.Keys.PublicKey,
		KeyMountPath:      cfg.KeyMountPath,
		Strict:            opts.Strict,
	}

	observer := provisioning.NewLogrObserver(provisioning.NewConsoleLogger(stderr, opts.Verbosity))
	metrics := provisioning.NewMetrics()
	pCtx := provisioning.NewContext(ctx, req, observer, metrics)

	phases := []provisioning.Phase{
		compute.NewProvisioner(launcher,
			compute.WithLookupTimeout(timeouts.HandleLookup),
			compute.WithPollOptions(
				retry.WithInitialDelay(timeouts.RetryInitialDelay),
				retry.WithMaxDelay(10*time.Second),
			),
		),
		access.NewBridge(newRemoteRunner(timeouts)),
		registration.NewRegistrar(newStore(cfg.Home)),
	}

	runErr := provisioning.RunPhases(pCtx, phases)

	if opts.MetricsFile != "" {
		if err := metrics.WriteTextfile(opts.MetricsFile); err != nil {
			observer.Printf("Warning: failed to write metrics file: %v", err)
		}
	}

	if runErr != nil {
		if pCtx.State.NodeName != "" && (!opts.Strict || compensationFailed(runErr)) {
			fmt.Fprint(stderr, renderCleanupHint(pCtx.State.NodeName, cfg.Platform))
		}
		return fmt.Errorf("bootstrap failed: %w", runErr)
	}

	fmt.Fprint(stdout, renderSummary(summaryFromState(opts.LocalClusterName, pCtx.State), isInteractiveTTY()))
	return nil
}

func compensationFailed(err error) bool {
	var pe *provisioning.PipelineError
	return errors.As(err, &pe) && pe.Compensation != nil
}

func summaryFromState(name string, state *provisioning.State) *launchSummary {
	s := &launchSummary{
		ClusterName:    name,
		DescriptorPath: state.LocalConfigPath,
	}
	if state.Handle != nil {
		s.HeadAddress = state.Handle.HeadAddress
		s.NodeName = state.Handle.Name
	}
	if state.Credential != nil {
		s.User = state.Credential.User
		s.PrivateKeyPath = state.Credential.PrivateKeyPath
	}
	return s
}
