// Package hcloud launches bootstrap nodes on Hetzner Cloud.
//
// Launcher implements provisioning.Launcher. A launch registers the admin
// public key as an SSH key resource, renders the task descriptor into
// cloud-init user data and creates a server labelled with the node name.
// The server name is the node name, so LookupHandle and Terminate address
// it directly.
//
// # Retry and Timeout Configuration
//
// API calls that fail with locked or unavailable resources are retried with
// exponential backoff. Invalid parameters are reported immediately.
//
//   - ONPREMCTL_TIMEOUT_SERVER_CREATE: Launch timeout (default: 10m)
//   - ONPREMCTL_TIMEOUT_DELETE: Terminate timeout (default: 5m)
//   - ONPREMCTL_RETRY_MAX_ATTEMPTS: Maximum retry attempts (default: 5)
//   - ONPREMCTL_RETRY_INITIAL_DELAY: Initial retry delay (default: 1s)
package hcloud
