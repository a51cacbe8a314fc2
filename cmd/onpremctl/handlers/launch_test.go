package handlers

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/imamik/onpremctl/internal/cloudinit"
	"github.com/imamik/onpremctl/internal/config"
	"github.com/imamik/onpremctl/internal/localconfig"
	"github.com/imamik/onpremctl/internal/provisioning"
	"github.com/imamik/onpremctl/internal/provisioning/registration"
	testutil "github.com/imamik/onpremctl/internal/testing"
)

type launchEnv struct {
	cfg      *config.Config
	launcher provisioning.Launcher
	runner   *testutil.MockRemoteRunner
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
}

// setupLaunch swaps the handler factories for in-memory fakes and restores
// them when the test ends.
func setupLaunch(t *testing.T, launcher provisioning.Launcher) *launchEnv {
	t.Helper()

	origLoad := loadConfig
	origTimeouts := loadTimeouts
	origSources := newSources
	origKeys := ensureKeys
	origLauncher := newLauncher
	origRunner := newRemoteRunner
	origStore := newStore
	origStdout, origStderr := stdout, stderr
	origTTY := isInteractiveTTY
	t.Cleanup(func() {
		loadConfig = origLoad
		loadTimeouts = origTimeouts
		newSources = origSources
		ensureKeys = origKeys
		newLauncher = origLauncher
		newRemoteRunner = origRunner
		newStore = origStore
		stdout, stderr = origStdout, origStderr
		isInteractiveTTY = origTTY
	})

	dir := t.TempDir()
	pub := filepath.Join(dir, "sky-key.pub")
	require.NoError(t, os.WriteFile(pub, []byte("ssh-ed25519 AAAA test\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sky-key"), []byte("private\n"), 0o600))

	env := &launchEnv{
		cfg: &config.Config{
			Platform:       "fake",
			AdminUser:      "root",
			RestrictedUser: "test",
			KeyMountPath:   "/user-key",
			Home:           filepath.Join(dir, "home"),
			Keys: config.KeysConfig{
				PublicKey:  pub,
				PrivateKey: filepath.Join(dir, "sky-key"),
			},
		},
		launcher: launcher,
		runner:   &testutil.MockRemoteRunner{},
		stdout:   &bytes.Buffer{},
		stderr:   &bytes.Buffer{},
	}

	loadConfig = func(string) (*config.Config, error) { return env.cfg, nil }
	loadTimeouts = func() *config.Timeouts {
		return &config.Timeouts{
			HandleLookup:      time.Second,
			RetryInitialDelay: time.Millisecond,
			SSHDial:           time.Second,
			SSHMaxRetries:     1,
		}
	}
	newSources = func(config.S3Config) cloudinit.Sources { return cloudinit.Sources{} }
	newLauncher = func(_ context.Context, _ string, _ *config.Config, _ cloudinit.SourceReader) (provisioning.Launcher, error) {
		return env.launcher, nil
	}
	newRemoteRunner = func(*config.Timeouts) provisioning.RemoteRunner { return env.runner }
	stdout, stderr = env.stdout, env.stderr
	isInteractiveTTY = func() bool { return false }

	return env
}

func (e *launchEnv) store() *localconfig.Store {
	return localconfig.NewStore(e.cfg.Home)
}

func TestLaunch_Success(t *testing.T) {
	fake := testutil.NewFakeLauncher("203.0.113.10")
	env := setupLaunch(t, fake)
	admin := provisioning.AdminCredential{User: "root", PrivateKeyPath: env.cfg.Keys.PrivateKey}
	env.runner.On("RunPrivileged", mock.Anything, "203.0.113.10", admin, mock.Anything).Return(0, "", nil).Once()

	err := Launch(context.Background(), LaunchOptions{LocalClusterName: "my-cluster"})
	require.NoError(t, err)
	env.runner.AssertExpectations(t)

	nodes := fake.Nodes()
	require.Len(t, nodes, 1)
	submitted := fake.Task(nodes[0])
	require.NotNil(t, submitted)
	assert.Equal(t, "fake", submitted.Resources.Cloud)
	assert.Equal(t, env.cfg.Keys.PublicKey, submitted.FileMounts["/user-key"])

	stored, err := env.store().Load("my-cluster")
	require.NoError(t, err)
	assert.Equal(t, []string{"203.0.113.10"}, stored.Cluster.IPs)
	assert.Equal(t, "my-cluster", stored.Cluster.Name)
	assert.Equal(t, "test", stored.Auth.SSHUser)
	assert.Equal(t, env.cfg.Keys.PrivateKey, stored.Auth.SSHPrivateKey)

	out := env.stdout.String()
	assert.Contains(t, out, "Local cluster my-cluster is now ready for use!")
	assert.Contains(t, out, "ssh -i "+env.cfg.Keys.PrivateKey+" test@203.0.113.10 -- [CMD]")
	assert.Contains(t, out, env.store().Path("my-cluster"))
}

func TestLaunch_GeneratesMissingKeys(t *testing.T) {
	fake := testutil.NewFakeLauncher("203.0.113.10")
	env := setupLaunch(t, fake)
	dir := t.TempDir()
	env.cfg.Keys.PrivateKey = filepath.Join(dir, "sky-key")
	env.cfg.Keys.PublicKey = filepath.Join(dir, "sky-key.pub")
	env.runner.On("RunPrivileged", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(0, "", nil)

	require.NoError(t, Launch(context.Background(), LaunchOptions{LocalClusterName: "my-cluster"}))

	assert.FileExists(t, env.cfg.Keys.PrivateKey)
	assert.FileExists(t, env.cfg.Keys.PublicKey)
	assert.Contains(t, env.stderr.String(), "Generated SSH key pair")
}

func TestLaunch_InvalidName(t *testing.T) {
	env := setupLaunch(t, testutil.NewFakeLauncher("203.0.113.10"))

	err := Launch(context.Background(), LaunchOptions{LocalClusterName: "../escape"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path separators")
	env.runner.AssertNotCalled(t, "RunPrivileged", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLaunch_ConfigError(t *testing.T) {
	setupLaunch(t, testutil.NewFakeLauncher("203.0.113.10"))
	loadConfig = func(string) (*config.Config, error) { return nil, errors.New("bad yaml") }

	err := Launch(context.Background(), LaunchOptions{LocalClusterName: "my-cluster"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config: bad yaml")
}

func TestLaunch_LauncherError(t *testing.T) {
	setupLaunch(t, nil)
	newLauncher = func(context.Context, string, *config.Config, cloudinit.SourceReader) (provisioning.Launcher, error) {
		return nil, errors.New(`no launcher for platform "fake"`)
	}

	err := Launch(context.Background(), LaunchOptions{LocalClusterName: "my-cluster"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create launcher")
}

func TestLaunch_BridgeFailureLeavesNode(t *testing.T) {
	fake := testutil.NewFakeLauncher("203.0.113.10")
	env := setupLaunch(t, fake)
	env.runner.On("RunPrivileged", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(1, "adduser: permission denied\n", nil).Once()

	err := Launch(context.Background(), LaunchOptions{LocalClusterName: "my-cluster"})
	require.Error(t, err)

	reason, ok := provisioning.ReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, provisioning.ReasonDeployFailed, reason)
	assert.Contains(t, err.Error(), "bootstrap failed")
	assert.Contains(t, err.Error(), "adduser: permission denied")

	// Default mode keeps the node and tells the user about it.
	require.Len(t, fake.Nodes(), 1)
	assert.Empty(t, fake.Terminated())
	assert.Contains(t, env.stderr.String(), "Node "+fake.Nodes()[0]+" may still be running on fake")

	exists, err := env.store().Exists("my-cluster")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Empty(t, env.stdout.String())
}

func TestLaunch_AlreadyRegistered(t *testing.T) {
	fake := testutil.NewFakeLauncher("203.0.113.10")
	env := setupLaunch(t, fake)
	env.runner.On("RunPrivileged", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(0, "", nil)

	existing := &localconfig.ClusterConfig{
		Cluster: localconfig.Cluster{IPs: []string{"198.51.100.7"}, Name: "my-cluster"},
		Auth:    localconfig.Auth{SSHUser: "test", SSHPrivateKey: "/old/key"},
	}
	path, err := env.store().Create(existing)
	require.NoError(t, err)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	err = Launch(context.Background(), LaunchOptions{LocalClusterName: "my-cluster"})
	require.Error(t, err)

	reason, ok := provisioning.ReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, provisioning.ReasonAlreadyRegistered, reason)

	var pe *provisioning.PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, provisioning.StageRegistering, pe.Stage)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

// orderedLauncher records Terminate calls into a shared log.
type orderedLauncher struct {
	*testutil.FakeLauncher
	mu  *sync.Mutex
	log *[]string
}

func (l *orderedLauncher) Terminate(ctx context.Context, name string) error {
	l.mu.Lock()
	*l.log = append(*l.log, "terminate")
	l.mu.Unlock()
	return l.FakeLauncher.Terminate(ctx, name)
}

func TestLaunch_StrictCompensatesInReverse(t *testing.T) {
	var (
		mu    sync.Mutex
		order []string
	)
	fake := testutil.NewFakeLauncher("203.0.113.10")
	env := setupLaunch(t, &orderedLauncher{FakeLauncher: fake, mu: &mu, log: &order})

	env.runner.On("RunPrivileged", mock.Anything, mock.Anything, mock.Anything, mock.MatchedBy(func(s string) bool {
		return strings.Contains(s, "adduser")
	})).Return(0, "", nil).Once()
	env.runner.On("RunPrivileged", mock.Anything, mock.Anything, mock.Anything, mock.MatchedBy(func(s string) bool {
		return strings.Contains(s, "deluser")
	})).Run(func(mock.Arguments) {
		mu.Lock()
		order = append(order, "revoke")
		mu.Unlock()
	}).Return(0, "", nil).Once()

	// Force stage 3 to fail.
	_, err := env.store().Create(&localconfig.ClusterConfig{Cluster: localconfig.Cluster{Name: "my-cluster"}})
	require.NoError(t, err)

	err = Launch(context.Background(), LaunchOptions{LocalClusterName: "my-cluster", Strict: true})
	require.Error(t, err)

	var pe *provisioning.PipelineError
	require.True(t, errors.As(err, &pe))
	assert.NoError(t, pe.Compensation)

	env.runner.AssertExpectations(t)
	assert.Equal(t, []string{"revoke", "terminate"}, order)
	assert.Empty(t, fake.Nodes())
	assert.NotContains(t, env.stderr.String(), "may still be running")
}

func TestLaunch_MetricsFile(t *testing.T) {
	env := setupLaunch(t, testutil.NewFakeLauncher("203.0.113.10"))
	env.runner.On("RunPrivileged", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(0, "", nil)

	metricsFile := filepath.Join(t.TempDir(), "onpremctl.prom")
	err := Launch(context.Background(), LaunchOptions{LocalClusterName: "my-cluster", MetricsFile: metricsFile})
	require.NoError(t, err)

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `onpremctl_pipeline_runs_total{result="success",stage="ready"} 1`)
	assert.Contains(t, string(data), "onpremctl_pipeline_phase_duration_seconds")
}

func TestLaunch_UsesConfiguredStore(t *testing.T) {
	env := setupLaunch(t, testutil.NewFakeLauncher("203.0.113.10"))
	env.runner.On("RunPrivileged", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(0, "", nil)

	var gotHome string
	newStore = func(home string) registration.Store {
		gotHome = home
		return localconfig.NewStore(home)
	}

	require.NoError(t, Launch(context.Background(), LaunchOptions{LocalClusterName: "my-cluster"}))
	assert.Equal(t, env.cfg.Home, gotHome)
}
