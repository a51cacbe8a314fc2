package hcloud

import (
	"context"
	"fmt"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// ensureSSHKey returns the SSH key named name, registering the admin public
// key under that name if it does not exist yet.
func (l *Launcher) ensureSSHKey(ctx context.Context, name string, labels map[string]string) (*hcloud.SSHKey, error) {
	key, _, err := l.client.SSHKey.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get ssh key: %w", err)
	}
	if key != nil {
		return key, nil
	}

	key, _, err = l.client.SSHKey.Create(ctx, hcloud.SSHKeyCreateOpts{
		Name:      name,
		PublicKey: l.adminPublicKey,
		Labels:    labels,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ssh key: %w", err)
	}
	return key, nil
}

// deleteSSHKey deletes the SSH key with the given name.
func (l *Launcher) deleteSSHKey(ctx context.Context, name string) error {
	return (&DeleteOperation[*hcloud.SSHKey]{
		Name:         name,
		ResourceType: "ssh key",
		Get:          l.client.SSHKey.Get,
		Delete:       l.client.SSHKey.Delete,
	}).Execute(ctx, l)
}
