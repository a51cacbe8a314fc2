package hcloud

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/onpremctl/internal/cloudinit"
	"github.com/imamik/onpremctl/internal/config"
	"github.com/imamik/onpremctl/internal/provisioning"
	"github.com/imamik/onpremctl/internal/task"
	"github.com/imamik/onpremctl/internal/util/naming"
	"github.com/imamik/onpremctl/internal/util/retry"
)

// Launch implements provisioning.Launcher.
func (l *Launcher) Launch(ctx context.Context, name, taskFile string) error {
	d, err := task.Load(taskFile)
	if err != nil {
		return err
	}
	if d.Resources.Cloud != config.PlatformHCloud {
		return fmt.Errorf("task targets %q, not %s", d.Resources.Cloud, config.PlatformHCloud)
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeouts.ServerCreate)
	defer cancel()

	existing, _, err := l.client.Server.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check for existing server: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("server %s already exists", name)
	}

	userData, err := cloudinit.Render(ctx, d, l.sources)
	if err != nil {
		return err
	}

	labels := naming.Labels(name)
	key, err := l.ensureSSHKey(ctx, naming.SSHKey(name), labels)
	if err != nil {
		return err
	}

	opts := hcloud.ServerCreateOpts{
		Name:       name,
		ServerType: &hcloud.ServerType{Name: l.settings.ServerType},
		Image:      &hcloud.Image{Name: l.settings.Image},
		SSHKeys:    []*hcloud.SSHKey{key},
		Labels:     labels,
		UserData:   userData,
	}
	if l.settings.Location != "" {
		opts.Location = &hcloud.Location{Name: l.settings.Location}
	}

	_, err = l.createServerWithRetry(ctx, opts)
	return err
}

// createServerWithRetry creates a server with exponential backoff retry logic
// and waits for the create action to finish.
func (l *Launcher) createServerWithRetry(ctx context.Context, opts hcloud.ServerCreateOpts) (hcloud.ServerCreateResult, error) {
	var result hcloud.ServerCreateResult

	err := retry.WithExponentialBackoff(ctx, func() error {
		res, _, err := l.client.Server.Create(ctx, opts)
		if err != nil {
			if isInvalidParameter(err) || IsUniquenessError(err) {
				return retry.Fatal(err)
			}
			return err
		}
		result = res
		return nil
	}, retry.WithMaxRetries(l.timeouts.RetryMaxAttempts), retry.WithInitialDelay(l.timeouts.RetryInitialDelay))

	if err != nil {
		return result, fmt.Errorf("failed to create server: %w", err)
	}

	if err := l.client.Action.WaitFor(ctx, result.Action); err != nil {
		return result, fmt.Errorf("failed to wait for server creation: %w", err)
	}

	return result, nil
}

// LookupHandle implements provisioning.Launcher. A server without a public
// IPv4 address yields a handle with an empty head address.
func (l *Launcher) LookupHandle(ctx context.Context, name string) (*provisioning.ClusterHandle, error) {
	server, _, err := l.client.Server.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get server: %w", err)
	}
	if server == nil {
		return nil, nil
	}

	return &provisioning.ClusterHandle{
		Name:        server.Name,
		ID:          strconv.FormatInt(server.ID, 10),
		Platform:    config.PlatformHCloud,
		HeadAddress: ServerIPv4(server),
	}, nil
}

// Terminate implements provisioning.Launcher by deleting the server and its
// SSH key. Both deletions succeed if the resource is already gone.
func (l *Launcher) Terminate(ctx context.Context, name string) error {
	err := (&DeleteOperation[*hcloud.Server]{
		Name:         name,
		ResourceType: "server",
		Get:          l.client.Server.Get,
		Delete: func(ctx context.Context, server *hcloud.Server) (*hcloud.Response, error) {
			result, resp, err := l.client.Server.DeleteWithResult(ctx, server)
			if err != nil {
				return resp, err
			}
			return resp, l.client.Action.WaitFor(ctx, result.Action)
		},
	}).Execute(ctx, l)
	if err != nil {
		return err
	}
	return l.deleteSSHKey(ctx, naming.SSHKey(name))
}

// ServerIPv4 returns the server's public IPv4 address, or "" if it has none.
func ServerIPv4(server *hcloud.Server) string {
	if server == nil || server.PublicNet.IPv4.IsUnspecified() || server.PublicNet.IPv4.IP == nil {
		return ""
	}
	return server.PublicNet.IPv4.IP.String()
}
