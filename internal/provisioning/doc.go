// Package provisioning provides the shared types, interfaces and pipeline for
// bootstrapping an on-prem cluster on a freshly launched node.
//
// # Subpackages
//
//   - compute: launch the node and resolve its head address
//   - access: create the restricted account using the admin identity
//   - registration: write the local cluster descriptor
//
// # Core Types
//
// Context carries the request, the accumulated State and the Observer.
// Phase is one pipeline stage with Name() and Provision(); phases that can
// undo their side effect also implement Compensator. RunPhases executes
// phases strictly in order and stops at the first failure.
package provisioning
