package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Config is the complete onpremctl configuration.
type Config struct {
	// Platform is the default launch platform when a task descriptor
	// does not name one.
	Platform string `mapstructure:"platform" yaml:"platform"`

	// AdminUser is the privileged login used only while bridging
	// credentials. Defaults per platform.
	AdminUser string `mapstructure:"admin_user" yaml:"admin_user"`

	// RestrictedUser is the account created on the node for all later access.
	RestrictedUser string `mapstructure:"restricted_user" yaml:"restricted_user"`

	// KeyMountPath is where the public key is staged on the node.
	KeyMountPath string `mapstructure:"key_mount_path" yaml:"key_mount_path"`

	// Home is the onpremctl state directory holding local cluster descriptors.
	Home string `mapstructure:"home" yaml:"home"`

	Keys   KeysConfig   `mapstructure:"keys" yaml:"keys"`
	HCloud HCloudConfig `mapstructure:"hcloud" yaml:"hcloud"`
	AWS    AWSConfig    `mapstructure:"aws" yaml:"aws"`
	S3     S3Config     `mapstructure:"s3" yaml:"s3"`
}

// KeysConfig locates the caller's SSH key pair.
type KeysConfig struct {
	PublicKey  string `mapstructure:"public_key" yaml:"public_key"`
	PrivateKey string `mapstructure:"private_key" yaml:"private_key"`

	// RestrictedPrivateKey is the key recorded for the restricted account.
	// Empty means the admin private key is reused.
	RestrictedPrivateKey string `mapstructure:"restricted_private_key" yaml:"restricted_private_key"`
}

// HCloudConfig configures servers launched on Hetzner Cloud.
type HCloudConfig struct {
	Token      string `mapstructure:"-" yaml:"-"`
	ServerType string `mapstructure:"server_type" yaml:"server_type"`
	Image      string `mapstructure:"image" yaml:"image"`
	Location   string `mapstructure:"location" yaml:"location"`
}

// AWSConfig configures instances launched on EC2. Credentials come from the
// standard AWS environment and shared config files.
type AWSConfig struct {
	Region       string `mapstructure:"region" yaml:"region"`
	Profile      string `mapstructure:"profile" yaml:"profile"`
	InstanceType string `mapstructure:"instance_type" yaml:"instance_type"`
	ImageID      string `mapstructure:"image_id" yaml:"image_id"`
	KeyName      string `mapstructure:"key_name" yaml:"key_name"`
	SubnetID     string `mapstructure:"subnet_id" yaml:"subnet_id"`
}

// S3Config configures where s3:// file mount sources are read from. An empty
// endpoint means AWS S3; set it for S3-compatible stores. Static keys come
// from ONPREMCTL_S3_ACCESS_KEY and ONPREMCTL_S3_SECRET_KEY; without them the
// standard AWS credential chain is used.
type S3Config struct {
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	Region    string `mapstructure:"region" yaml:"region"`
	PathStyle bool   `mapstructure:"path_style" yaml:"path_style"`
	AccessKey string `mapstructure:"-" yaml:"-"`
	SecretKey string `mapstructure:"-" yaml:"-"`
}

// Default returns a Config with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields and expands "~/" in paths.
func (c *Config) ApplyDefaults() {
	if c.Platform == "" {
		c.Platform = PlatformHCloud
	}
	if c.AdminUser == "" {
		c.AdminUser = defaultAdminUsers[c.Platform]
	}
	if c.RestrictedUser == "" {
		c.RestrictedUser = DefaultRestrictedUser
	}
	if c.KeyMountPath == "" {
		c.KeyMountPath = DefaultKeyMountPath
	}
	if c.Home == "" {
		c.Home = HomeDir()
	}
	if c.Keys.PublicKey == "" {
		c.Keys.PublicKey = DefaultPublicKey
	}
	if c.Keys.PrivateKey == "" {
		c.Keys.PrivateKey = DefaultPrivateKey
	}
	if c.HCloud.Token == "" {
		c.HCloud.Token = os.Getenv(HCloudTokenEnvVar)
	}
	if c.HCloud.ServerType == "" {
		c.HCloud.ServerType = DefaultHCloudServerType
	}
	if c.HCloud.Image == "" {
		c.HCloud.Image = DefaultHCloudImage
	}
	if c.HCloud.Location == "" {
		c.HCloud.Location = DefaultHCloudLocation
	}
	if c.AWS.Region == "" {
		c.AWS.Region = DefaultAWSRegion
	}
	if c.AWS.InstanceType == "" {
		c.AWS.InstanceType = DefaultAWSInstanceType
	}
	if c.S3.Region == "" {
		c.S3.Region = c.AWS.Region
	}
	if c.S3.AccessKey == "" {
		c.S3.AccessKey = os.Getenv(S3AccessKeyEnvVar)
	}
	if c.S3.SecretKey == "" {
		c.S3.SecretKey = os.Getenv(S3SecretKeyEnvVar)
	}

	c.Home = ExpandPath(c.Home)
	c.Keys.PublicKey = ExpandPath(c.Keys.PublicKey)
	c.Keys.PrivateKey = ExpandPath(c.Keys.PrivateKey)
	c.Keys.RestrictedPrivateKey = ExpandPath(c.Keys.RestrictedPrivateKey)
}

// RestrictedKey returns the private key path recorded for the restricted account.
func (c *Config) RestrictedKey() string {
	if c.Keys.RestrictedPrivateKey != "" {
		return c.Keys.RestrictedPrivateKey
	}
	return c.Keys.PrivateKey
}

// HomeDir returns the onpremctl state directory.
func HomeDir() string {
	if dir := os.Getenv(HomeEnvVar); dir != "" {
		return ExpandPath(dir)
	}
	return ExpandPath("~/" + defaultHomeDir)
}

// DefaultPath returns the path of the default config file.
func DefaultPath() string {
	return filepath.Join(HomeDir(), defaultConfigFile)
}

// ExpandPath replaces a leading "~" with the user's home directory.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
