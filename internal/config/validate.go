package config

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidPlatforms lists the platforms a launcher exists for.
var ValidPlatforms = map[string]bool{
	PlatformHCloud: true,
	PlatformAWS:    true,
}

// posixUserPattern matches portable POSIX login names (useradd's NAME_REGEX).
var posixUserPattern = regexp.MustCompile(`^[a-z_][a-z0-9_-]{0,31}$`)

// Validate checks the configuration for common errors.
func (c *Config) Validate() error {
	if !ValidPlatforms[c.Platform] {
		return fmt.Errorf("unsupported platform %q (supported: %s, %s)", c.Platform, PlatformHCloud, PlatformAWS)
	}

	if err := ValidateUser("admin_user", c.AdminUser); err != nil {
		return err
	}
	if err := ValidateUser("restricted_user", c.RestrictedUser); err != nil {
		return err
	}
	if c.AdminUser == c.RestrictedUser {
		return fmt.Errorf("restricted_user must differ from admin_user %q", c.AdminUser)
	}

	if !strings.HasPrefix(c.KeyMountPath, "/") {
		return fmt.Errorf("key_mount_path must be absolute, got %q", c.KeyMountPath)
	}
	if c.Keys.PublicKey == "" || c.Keys.PrivateKey == "" {
		return fmt.Errorf("keys.public_key and keys.private_key are required")
	}

	return nil
}

// ValidateUser checks that name is a usable POSIX account name.
func ValidateUser(field, name string) error {
	if name == "" {
		return fmt.Errorf("%s is required", field)
	}
	if !posixUserPattern.MatchString(name) {
		return fmt.Errorf("%s %q is not a valid account name", field, name)
	}
	return nil
}

// ValidateClusterName checks a local cluster name. Names become file names
// in the local store, so path separators and dot-prefixed names are rejected.
func ValidateClusterName(name string) error {
	if name == "" {
		return fmt.Errorf("local cluster name is required")
	}
	if strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("local cluster name %q must not contain path separators or start with '.'", name)
	}
	return nil
}
