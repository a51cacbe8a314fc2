// Package config defines the onpremctl configuration model.
//
// A [Config] selects the launch platform, the admin and restricted
// identities used while bootstrapping a node, and the SSH key pair those
// identities share. It is read from an optional YAML file and completed
// with defaults and environment variables (API tokens, timeouts).
package config
