package hcloud

import (
	"context"
	"fmt"
	"reflect"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/onpremctl/internal/util/retry"
)

// DeleteOperation encapsulates deletion logic for any hcloud resource.
//
// Usage example:
//
//	err := (&DeleteOperation[*hcloud.SSHKey]{
//	    Name:         name,
//	    ResourceType: "ssh key",
//	    Get:          l.client.SSHKey.Get,
//	    Delete:       l.client.SSHKey.Delete,
//	}).Execute(ctx, l)
type DeleteOperation[T any] struct {
	Name         string
	ResourceType string

	// Get retrieves the resource by name
	Get func(ctx context.Context, name string) (T, *hcloud.Response, error)

	// Delete removes the resource
	Delete func(ctx context.Context, resource T) (*hcloud.Response, error)
}

// Execute performs the delete operation with retry logic and timeout handling.
// The operation is idempotent - it succeeds if the resource doesn't exist.
// Locked resources are retried with exponential backoff.
func (op *DeleteOperation[T]) Execute(ctx context.Context, l *Launcher) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeouts.Delete)
	defer cancel()

	err := retry.WithExponentialBackoff(ctx, func() error {
		resource, _, err := op.Get(ctx, op.Name)
		if err != nil {
			return retry.Fatal(fmt.Errorf("failed to get %s: %w", op.ResourceType, err))
		}

		if reflect.ValueOf(resource).IsNil() {
			return nil
		}

		_, err = op.Delete(ctx, resource)
		if err != nil {
			if isResourceLocked(err) {
				return err
			}
			return retry.Fatal(err)
		}
		return nil
	},
		retry.WithMaxRetries(l.timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(l.timeouts.RetryInitialDelay))
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", op.ResourceType, op.Name, err)
	}
	return nil
}
