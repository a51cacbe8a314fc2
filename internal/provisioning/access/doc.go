// Package access bridges the admin identity a node is launched with to the
// restricted identity every later caller uses.
//
// The Bridge runs one privileged script on the node that creates the
// restricted account and authorizes the public key staged by the launcher.
// It never retries and never connects as the restricted user.
package access
