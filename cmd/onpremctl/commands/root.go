// Package commands defines the CLI command structure and flag bindings.
//
// Command execution is delegated to handler functions in the handlers
// package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the onpremctl CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "onpremctl",
		Short:         "Bootstrap cloud nodes as locally registered on-prem clusters",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(Launch())
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}
