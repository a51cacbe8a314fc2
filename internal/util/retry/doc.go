// Package retry provides exponential backoff for transient failures and a
// bounded poll for conditions that become true eventually.
//
// [WithExponentialBackoff] is used when dialing freshly launched nodes over
// SSH and when calling cloud APIs. [Poll] waits for the launcher inventory to
// report a handle for a node that was just created.
package retry
