package config

// Supported launch platforms, matched against a task descriptor's
// resources.cloud field.
const (
	PlatformHCloud = "hcloud"
	PlatformAWS    = "aws"
)

// Default values applied by ApplyDefaults.
const (
	DefaultRestrictedUser = "test"
	DefaultKeyMountPath   = "/user-key"
	DefaultPublicKey      = "~/.ssh/sky-key.pub"
	DefaultPrivateKey     = "~/.ssh/sky-key"

	DefaultHCloudServerType = "cx22"
	DefaultHCloudImage      = "ubuntu-24.04"
	DefaultHCloudLocation   = "nbg1"

	DefaultAWSRegion       = "us-east-1"
	DefaultAWSInstanceType = "t3.medium"

	// HomeEnvVar overrides the onpremctl state directory (default ~/.onpremctl).
	HomeEnvVar = "ONPREMCTL_HOME"

	// HCloudTokenEnvVar holds the Hetzner Cloud API token.
	HCloudTokenEnvVar = "HCLOUD_TOKEN" //nolint:gosec // env var name, not a credential

	// S3AccessKeyEnvVar and S3SecretKeyEnvVar hold static keys for s3:// sources.
	S3AccessKeyEnvVar = "ONPREMCTL_S3_ACCESS_KEY" //nolint:gosec // env var name, not a credential
	S3SecretKeyEnvVar = "ONPREMCTL_S3_SECRET_KEY" //nolint:gosec // env var name, not a credential

	defaultHomeDir    = ".onpremctl"
	defaultConfigFile = "config.yaml"
)

// defaultAdminUsers is the privileged login on each platform's stock image.
var defaultAdminUsers = map[string]string{
	PlatformHCloud: "root",
	PlatformAWS:    "ubuntu",
}
