package platform

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/onpremctl/internal/config"
	"github.com/imamik/onpremctl/internal/platform/aws"
	"github.com/imamik/onpremctl/internal/platform/hcloud"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	pub := filepath.Join(t.TempDir(), "sky-key.pub")
	require.NoError(t, os.WriteFile(pub, []byte("ssh-ed25519 AAAA admin\n"), 0o600))

	cfg := &config.Config{Home: t.TempDir(), Keys: config.KeysConfig{PublicKey: pub, PrivateKey: "/k"}}
	cfg.ApplyDefaults()
	return cfg
}

func TestNewLauncher(t *testing.T) {
	cfg := testConfig(t)
	cfg.HCloud.Token = "token"
	sources := NewSources(cfg.S3)

	l, err := NewLauncher(context.Background(), config.PlatformHCloud, cfg, sources)
	require.NoError(t, err)
	assert.IsType(t, &hcloud.Launcher{}, l)

	l, err = NewLauncher(context.Background(), config.PlatformAWS, cfg, sources)
	require.NoError(t, err)
	assert.IsType(t, &aws.Launcher{}, l)
}

func TestNewLauncher_Errors(t *testing.T) {
	t.Run("unknown platform", func(t *testing.T) {
		_, err := NewLauncher(context.Background(), "gcp", testConfig(t), NewSources(config.S3Config{}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), `no launcher for platform "gcp"`)
	})

	t.Run("missing hcloud token", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.HCloud.Token = ""
		_, err := NewLauncher(context.Background(), config.PlatformHCloud, cfg, NewSources(cfg.S3))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HCLOUD_TOKEN")
	})

	t.Run("missing public key", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Keys.PublicKey = filepath.Join(t.TempDir(), "missing.pub")
		_, err := NewLauncher(context.Background(), config.PlatformAWS, cfg, NewSources(cfg.S3))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read admin public key")
	})
}

func TestNewSources_LocalFallback(t *testing.T) {
	file := filepath.Join(t.TempDir(), "key.pub")
	require.NoError(t, os.WriteFile(file, []byte("local"), 0o600))

	data, err := NewSources(config.S3Config{}).ReadSource(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, "local", string(data))
}
