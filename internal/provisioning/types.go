package provisioning

import "fmt"

// ClusterHandle identifies a node in the launcher's inventory.
type ClusterHandle struct {
	// Name is the generated node name the launcher knows the node by.
	Name string
	// ID is the platform-specific resource identifier.
	ID string
	// Platform is the launcher that owns the node.
	Platform string
	// HeadAddress is the node's primary reachable address.
	HeadAddress string
}

// AdminCredential is the privileged identity used only while bridging.
type AdminCredential struct {
	User           string
	PrivateKeyPath string
}

// String implements fmt.Stringer.
func (c AdminCredential) String() string {
	return fmt.Sprintf("admin %s (key %s)", c.User, c.PrivateKeyPath)
}

// RestrictedCredential is the unprivileged identity recorded for all later
// access to the node.
type RestrictedCredential struct {
	User           string
	PrivateKeyPath string
}

// String implements fmt.Stringer.
func (c RestrictedCredential) String() string {
	return fmt.Sprintf("restricted %s (key %s)", c.User, c.PrivateKeyPath)
}

// DeploymentDescriptor describes a privileged deployment onto a node.
type DeploymentDescriptor struct {
	Address          string
	LocalClusterName string
	Admin            AdminCredential
}
