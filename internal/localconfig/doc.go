// Package localconfig persists local cluster descriptors.
//
// A descriptor binds a friendly cluster name to node addresses and the SSH
// identity used to reach them. Descriptors live at <home>/local/<name>.yml
// and are created exactly once; [Store.Create] never replaces an existing
// file.
package localconfig
