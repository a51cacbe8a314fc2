package ssh

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/imamik/onpremctl/internal/provisioning"
)

// Runner implements provisioning.RemoteRunner over SSH.
type Runner struct {
	DialTimeout time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
}

// NewRunner creates a runner with the given dial settings. Zero values fall
// back to the client defaults.
func NewRunner(dialTimeout time.Duration, maxRetries int) *Runner {
	return &Runner{DialTimeout: dialTimeout, MaxRetries: maxRetries}
}

// RunPrivileged implements provisioning.RemoteRunner. address may carry a
// port ("host:port"); otherwise port 22 is used.
func (r *Runner) RunPrivileged(ctx context.Context, address string, cred provisioning.AdminCredential, script string) (int, string, error) {
	host, port, err := splitAddress(address)
	if err != nil {
		return 0, "", err
	}

	// #nosec G304
	key, err := os.ReadFile(cred.PrivateKeyPath)
	if err != nil {
		return 0, "", fmt.Errorf("failed to read admin private key: %w", err)
	}

	client, err := NewClient(&Config{
		Host:        host,
		Port:        port,
		User:        cred.User,
		PrivateKey:  key,
		DialTimeout: r.DialTimeout,
		MaxRetries:  r.MaxRetries,
		RetryDelay:  r.RetryDelay,
	})
	if err != nil {
		return 0, "", err
	}
	return client.Run(ctx, script)
}

func splitAddress(address string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		// bare host or IPv6 literal without port
		return address, defaultPort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port in address %q", address)
	}
	return host, port, nil
}
