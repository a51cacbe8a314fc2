// Package keygen generates SSH key pairs.
//
// EnsureKeyPair creates the caller's key pair on first use so the public
// half can be staged on new nodes and the private half recorded in local
// cluster descriptors.
package keygen
