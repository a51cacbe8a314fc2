// Package task defines the task descriptor submitted to a launcher and the
// shell sequence that creates the restricted account on a node.
//
// A descriptor is serialized as YAML with three top-level keys:
//
//	resources:
//	  cloud: hcloud
//	file_mounts:
//	  /user-key: ~/.ssh/sky-key.pub
//	setup: |
//	  ...
//
// The setup script runs once, when the node is created.
package task
