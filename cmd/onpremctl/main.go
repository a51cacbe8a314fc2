// Package main is the entry point for the onpremctl CLI.
//
// onpremctl launches a single cloud node, creates a restricted account on it
// and registers it locally as an on-premises cluster, so later tooling can
// reach it by name without ever holding the node's admin identity.
//
// For detailed usage information, run:
//
//	onpremctl --help
package main

import (
	"fmt"
	"os"

	"github.com/imamik/onpremctl/cmd/onpremctl/commands"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
