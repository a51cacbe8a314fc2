// Package registration records a bootstrapped node as a local cluster.
package registration
