package task

import (
	"fmt"
	"os"
	"path"
	"sort"

	"gopkg.in/yaml.v3"
)

// Descriptor is the declarative spec a launcher turns into a node.
type Descriptor struct {
	Resources Resources `yaml:"resources"`

	// FileMounts maps a path on the node to a local source (file path or
	// s3://bucket/key URL) copied there at creation.
	FileMounts map[string]string `yaml:"file_mounts,omitempty"`

	// Setup is a shell script executed once when the node is created.
	Setup string `yaml:"setup,omitempty"`
}

// Resources selects where the node runs.
type Resources struct {
	Cloud string `yaml:"cloud"`
}

// ForRestrictedUser builds the descriptor that stages publicKeyPath at
// keyMountPath on the node and creates user with that key authorized.
func ForRestrictedUser(platform, user, publicKeyPath, keyMountPath string) *Descriptor {
	return &Descriptor{
		Resources: Resources{Cloud: platform},
		FileMounts: map[string]string{
			keyMountPath: publicKeyPath,
		},
		Setup: RestrictedUserScript(user, keyMountPath),
	}
}

// Validate checks that the descriptor can be launched.
func (d *Descriptor) Validate() error {
	if d.Resources.Cloud == "" {
		return fmt.Errorf("resources.cloud is required")
	}
	for remote, local := range d.FileMounts {
		if !path.IsAbs(remote) {
			return fmt.Errorf("file mount target %q must be an absolute path", remote)
		}
		if local == "" {
			return fmt.Errorf("file mount %q has no source", remote)
		}
	}
	return nil
}

// MountTargets returns the file mount targets in sorted order.
func (d *Descriptor) MountTargets() []string {
	targets := make([]string, 0, len(d.FileMounts))
	for remote := range d.FileMounts {
		targets = append(targets, remote)
	}
	sort.Strings(targets)
	return targets
}

// Marshal encodes the descriptor as YAML.
func (d *Descriptor) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task descriptor: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a YAML task descriptor.
func Unmarshal(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task descriptor: %w", err)
	}
	return &d, nil
}

// Load reads a task descriptor file.
func Load(file string) (*Descriptor, error) {
	// #nosec G304
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read task descriptor: %w", err)
	}
	return Unmarshal(data)
}

// WriteTemp writes the descriptor to a new temporary YAML file. The returned
// cleanup removes it.
func WriteTemp(d *Descriptor) (file string, cleanup func(), err error) {
	data, err := d.Marshal()
	if err != nil {
		return "", nil, err
	}

	f, err := os.CreateTemp("", "onpremctl-task-*.yaml")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create task file: %w", err)
	}
	cleanup = func() { _ = os.Remove(f.Name()) }

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to write task file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to close task file: %w", err)
	}

	return f.Name(), cleanup, nil
}
