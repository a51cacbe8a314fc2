// Package cloudinit renders a task descriptor into cloud-config user data.
//
// File mounts become write_files entries with their content inlined, and the
// setup script is written to disk and run once through runcmd. Both hcloud
// and EC2 nodes consume the result as user data on first boot.
package cloudinit

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/imamik/onpremctl/internal/config"
	"github.com/imamik/onpremctl/internal/task"
)

const (
	header = "#cloud-config\n"

	// SetupScriptPath is where the setup script is written on the node.
	SetupScriptPath = "/var/lib/onpremctl/setup.sh"
)

// UserData is the subset of cloud-config used for bootstrapping.
type UserData struct {
	WriteFiles []WriteFile `yaml:"write_files,omitempty"`
	RunCmd     [][]string  `yaml:"runcmd,omitempty"`
}

// WriteFile is a cloud-config write_files entry.
type WriteFile struct {
	Path        string `yaml:"path"`
	Content     string `yaml:"content"`
	Encoding    string `yaml:"encoding,omitempty"`
	Permissions string `yaml:"permissions,omitempty"`
	Owner       string `yaml:"owner,omitempty"`
}

// SourceReader fetches the content of a file mount source.
type SourceReader interface {
	ReadSource(ctx context.Context, source string) ([]byte, error)
}

// Sources dispatches a source to a reader by URL scheme ("s3://...").
// Sources without a registered scheme are read from the local filesystem.
type Sources map[string]SourceReader

// ReadSource implements SourceReader.
func (s Sources) ReadSource(ctx context.Context, source string) ([]byte, error) {
	if scheme, _, ok := strings.Cut(source, "://"); ok {
		reader, found := s[scheme]
		if !found {
			return nil, fmt.Errorf("unsupported file mount source scheme %q", scheme)
		}
		return reader.ReadSource(ctx, source)
	}
	return LocalFiles{}.ReadSource(ctx, source)
}

// LocalFiles reads sources from the local filesystem, expanding "~/".
type LocalFiles struct{}

// ReadSource implements SourceReader.
func (LocalFiles) ReadSource(_ context.Context, source string) ([]byte, error) {
	// #nosec G304
	data, err := os.ReadFile(config.ExpandPath(source))
	if err != nil {
		return nil, fmt.Errorf("failed to read file mount source %s: %w", source, err)
	}
	return data, nil
}

// Build converts a descriptor into UserData, reading every mount source.
func Build(ctx context.Context, d *task.Descriptor, sources SourceReader) (*UserData, error) {
	ud := &UserData{}

	for _, target := range d.MountTargets() {
		content, err := sources.ReadSource(ctx, d.FileMounts[target])
		if err != nil {
			return nil, err
		}
		ud.WriteFiles = append(ud.WriteFiles, WriteFile{
			Path:        target,
			Content:     base64.StdEncoding.EncodeToString(content),
			Encoding:    "b64",
			Permissions: "0644",
			Owner:       "root:root",
		})
	}

	if strings.TrimSpace(d.Setup) != "" {
		ud.WriteFiles = append(ud.WriteFiles, WriteFile{
			Path:        SetupScriptPath,
			Content:     "#!/bin/bash\nset -eu\n" + d.Setup,
			Permissions: "0700",
			Owner:       "root:root",
		})
		ud.RunCmd = append(ud.RunCmd, []string{"bash", SetupScriptPath})
	}

	return ud, nil
}

// Render returns the cloud-config document for d.
func Render(ctx context.Context, d *task.Descriptor, sources SourceReader) (string, error) {
	ud, err := Build(ctx, d, sources)
	if err != nil {
		return "", err
	}
	return ud.Render()
}

// Render encodes the user data with its "#cloud-config" header.
func (u *UserData) Render() (string, error) {
	data, err := yaml.Marshal(u)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cloud-config: %w", err)
	}
	return header + string(data), nil
}
