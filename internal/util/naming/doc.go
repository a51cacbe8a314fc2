// Package naming provides the names given to provisioned nodes and the
// labels that let a launcher find them again.
//
// Node names follow {prefix}-{6 hex chars}. The suffix only has to keep
// concurrently active clusters apart; the launcher rejects true duplicates.
package naming
