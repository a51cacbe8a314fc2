package hcloud

import (
	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/onpremctl/internal/cloudinit"
	"github.com/imamik/onpremctl/internal/config"
)

// Launcher implements provisioning.Launcher using the Hetzner Cloud API.
type Launcher struct {
	client         *hcloud.Client
	timeouts       *config.Timeouts
	settings       config.HCloudConfig
	adminPublicKey string
	sources        cloudinit.SourceReader
}

// LauncherOption configures a Launcher.
type LauncherOption func(*Launcher)

// WithTimeouts sets custom timeouts for the launcher.
func WithTimeouts(t *config.Timeouts) LauncherOption {
	return func(l *Launcher) {
		l.timeouts = t
	}
}

// WithHCloudClient sets a custom hcloud client (useful for testing).
func WithHCloudClient(hc *hcloud.Client) LauncherOption {
	return func(l *Launcher) {
		l.client = hc
	}
}

// WithSources sets the reader used for file mount sources.
func WithSources(sources cloudinit.SourceReader) LauncherOption {
	return func(l *Launcher) {
		l.sources = sources
	}
}

// NewLauncher creates a launcher for settings. adminPublicKey is the
// authorized_keys line installed for the image's admin user.
func NewLauncher(settings config.HCloudConfig, adminPublicKey string, opts ...LauncherOption) *Launcher {
	l := &Launcher{
		client:         hcloud.NewClient(hcloud.WithToken(settings.Token), hcloud.WithApplication("onpremctl", "")),
		timeouts:       config.LoadTimeouts(),
		settings:       settings,
		adminPublicKey: adminPublicKey,
		sources:        cloudinit.Sources{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// HCloudClient returns the underlying hcloud.Client.
func (l *Launcher) HCloudClient() *hcloud.Client {
	return l.client
}
