// Package compute launches the node a bootstrap run works on.
//
// The Provisioner generates a node name, submits the task descriptor to a
// provisioning.Launcher and polls the launcher inventory until the node's
// handle carries a usable head address.
package compute
