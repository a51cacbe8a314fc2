package naming

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	// NodePrefix is the prefix of every node launched for an on-prem cluster.
	NodePrefix = "onprem-cluster"

	suffixLength = 6

	// NodeLabel is the label/tag key carrying the generated node name.
	NodeLabel = "onpremctl.io/node"

	// ManagedByLabel marks resources created by onpremctl.
	ManagedByLabel = "onpremctl.io/managed-by"
)

// NodeName returns a fresh node name such as "onprem-cluster-3fa2c1".
func NodeName() string {
	return fmt.Sprintf("%s-%s", NodePrefix, Suffix())
}

// Suffix returns the first six hex characters of a random UUID.
func Suffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLength]
}

// SSHKey returns the name of the admin SSH key resource registered for a node.
func SSHKey(node string) string {
	return fmt.Sprintf("%s-admin", node)
}

// Labels returns the labels attached to a launched node.
func Labels(node string) map[string]string {
	return map[string]string{
		NodeLabel:      node,
		ManagedByLabel: "onpremctl",
	}
}
