package localconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrAlreadyExists is returned by Create when a descriptor is already stored
// under the requested name.
var ErrAlreadyExists = errors.New("local cluster descriptor already exists")

// ErrNotFound is returned by Load when no descriptor exists.
var ErrNotFound = errors.New("local cluster descriptor not found")

// ClusterConfig is the persisted local cluster descriptor.
type ClusterConfig struct {
	Cluster Cluster `yaml:"cluster"`
	Auth    Auth    `yaml:"auth"`
}

// Cluster lists the node addresses of a local cluster.
type Cluster struct {
	IPs  []string `yaml:"ips"`
	Name string   `yaml:"name"`
}

// Auth is the SSH identity used for every later access to the cluster.
type Auth struct {
	SSHUser       string `yaml:"ssh_user"`
	SSHPrivateKey string `yaml:"ssh_private_key"`
}

// Store reads and creates descriptors under a directory.
type Store struct {
	dir string
}

// NewStore returns a store rooted at <home>/local.
func NewStore(home string) *Store {
	return &Store{dir: filepath.Join(home, "local")}
}

// Dir returns the directory holding descriptors.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the descriptor path for name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+".yml")
}

// Exists reports whether a descriptor is stored for name.
func (s *Store) Exists(name string) (bool, error) {
	_, err := os.Lstat(s.Path(name))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to stat %s: %w", s.Path(name), err)
	}
}

// Load reads the descriptor stored for name.
func (s *Store) Load(name string) (*ClusterConfig, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to read local cluster descriptor: %w", err)
	}

	var cfg ClusterConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse local cluster descriptor %s: %w", s.Path(name), err)
	}
	return &cfg, nil
}

// Create stores cfg under cfg.Cluster.Name and returns its path.
//
// The descriptor is written to a temporary file in the same directory,
// synced, then hard-linked into place. Linking fails if the target exists,
// so a concurrent or repeated Create returns ErrAlreadyExists and leaves the
// stored file untouched.
func (s *Store) Create(cfg *ClusterConfig) (string, error) {
	name := cfg.Cluster.Name
	if name == "" {
		return "", fmt.Errorf("local cluster descriptor has no cluster name")
	}
	target := s.Path(name)

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal local cluster descriptor: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", s.dir, err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary descriptor: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write temporary descriptor: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to sync temporary descriptor: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temporary descriptor: %w", err)
	}

	if err := os.Link(tmp.Name(), target); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrAlreadyExists, target)
		}
		return "", fmt.Errorf("failed to move descriptor into place: %w", err)
	}

	return target, nil
}
