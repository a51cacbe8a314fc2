// Package platform selects the launcher and file mount sources for a run.
//
// Subpackages implement provisioning.Launcher per cloud (hcloud, aws), read
// s3:// mount sources (s3) and reach nodes over SSH (ssh).
package platform

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/imamik/onpremctl/internal/cloudinit"
	"github.com/imamik/onpremctl/internal/config"
	"github.com/imamik/onpremctl/internal/platform/aws"
	"github.com/imamik/onpremctl/internal/platform/hcloud"
	"github.com/imamik/onpremctl/internal/platform/s3"
	"github.com/imamik/onpremctl/internal/provisioning"
)

// NewLauncher returns the launcher for name, configured from cfg. The admin
// public key is read from cfg.Keys.PublicKey.
func NewLauncher(ctx context.Context, name string, cfg *config.Config, sources cloudinit.SourceReader) (provisioning.Launcher, error) {
	// #nosec G304
	data, err := os.ReadFile(cfg.Keys.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read admin public key: %w", err)
	}
	adminKey := strings.TrimSpace(string(data))
	timeouts := config.LoadTimeouts()

	switch name {
	case config.PlatformHCloud:
		if cfg.HCloud.Token == "" {
			return nil, fmt.Errorf("%s is required for platform %s", config.HCloudTokenEnvVar, name)
		}
		return hcloud.NewLauncher(cfg.HCloud, adminKey,
			hcloud.WithTimeouts(timeouts),
			hcloud.WithSources(sources),
		), nil
	case config.PlatformAWS:
		launcher, err := aws.NewLauncher(ctx, cfg.AWS, adminKey,
			aws.WithTimeouts(timeouts),
			aws.WithSources(sources),
		)
		if err != nil {
			return nil, err
		}
		return launcher, nil
	default:
		return nil, fmt.Errorf("no launcher for platform %q", name)
	}
}

// NewSources returns the mount source readers: local files, plus s3:// URLs
// through an S3 client created on first use.
func NewSources(cfg config.S3Config) cloudinit.Sources {
	return cloudinit.Sources{
		s3.Scheme: &lazyS3{cfg: cfg},
	}
}

// lazyS3 defers loading AWS configuration until an s3:// source is read.
type lazyS3 struct {
	cfg    config.S3Config
	once   sync.Once
	client *s3.Client
	err    error
}

// ReadSource implements cloudinit.SourceReader.
func (l *lazyS3) ReadSource(ctx context.Context, source string) ([]byte, error) {
	l.once.Do(func() {
		l.client, l.err = s3.NewClient(ctx, l.cfg)
	})
	if l.err != nil {
		return nil, l.err
	}
	return l.client.ReadSource(ctx, source)
}
