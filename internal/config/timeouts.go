package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timeout values.
// These values can be customized via environment variables.
type Timeouts struct {
	ServerCreate      time.Duration // Launch call, until the node is running
	HandleLookup      time.Duration // Polling the launcher inventory for the new node
	Delete            time.Duration // Terminating a node in strict mode
	SSHDial           time.Duration // Single SSH connection attempt
	SSHMaxRetries     int           // SSH connection attempts while the node boots
	RetryMaxAttempts  int           // Cloud API retry attempts
	RetryInitialDelay time.Duration // Initial delay between retries
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - ONPREMCTL_TIMEOUT_SERVER_CREATE (default: 10m)
//   - ONPREMCTL_TIMEOUT_HANDLE_LOOKUP (default: 2m)
//   - ONPREMCTL_TIMEOUT_DELETE (default: 5m)
//   - ONPREMCTL_TIMEOUT_SSH_DIAL (default: 10s)
//   - ONPREMCTL_SSH_MAX_RETRIES (default: 30)
//   - ONPREMCTL_RETRY_MAX_ATTEMPTS (default: 5)
//   - ONPREMCTL_RETRY_INITIAL_DELAY (default: 1s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		ServerCreate:      parseDuration("ONPREMCTL_TIMEOUT_SERVER_CREATE", 10*time.Minute),
		HandleLookup:      parseDuration("ONPREMCTL_TIMEOUT_HANDLE_LOOKUP", 2*time.Minute),
		Delete:            parseDuration("ONPREMCTL_TIMEOUT_DELETE", 5*time.Minute),
		SSHDial:           parseDuration("ONPREMCTL_TIMEOUT_SSH_DIAL", 10*time.Second),
		SSHMaxRetries:     parseInt("ONPREMCTL_SSH_MAX_RETRIES", 30),
		RetryMaxAttempts:  parseInt("ONPREMCTL_RETRY_MAX_ATTEMPTS", 5),
		RetryInitialDelay: parseDuration("ONPREMCTL_RETRY_INITIAL_DELAY", 1*time.Second),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
