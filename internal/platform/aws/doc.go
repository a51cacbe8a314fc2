// Package aws launches bootstrap nodes on Amazon EC2.
//
// Launcher implements provisioning.Launcher. Instances are tagged with the
// node name so LookupHandle and Terminate find them through
// DescribeInstances filters. Unless a key pair name is configured, the admin
// public key is imported as a per-node key pair and removed on Terminate.
package aws
