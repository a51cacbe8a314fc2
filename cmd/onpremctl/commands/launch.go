package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/onpremctl/cmd/onpremctl/handlers"
)

// Launch returns the launch command.
func Launch() *cobra.Command {
	opts := handlers.LaunchOptions{}
	var verbose bool

	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Launch a node and register it as a local cluster",
		Long: `Launch creates a node, sets up a restricted account on it and writes a
local cluster descriptor for it.

The run has three stages:
  1. Provision: launch a node from a generated task and resolve its address
  2. Bridge: as the admin user, create the restricted user and authorize
     the staged public key
  3. Register: write <home>/local/<name>.yml with the restricted credential

A failing stage stops the run. By default nothing is cleaned up and the
node name is printed for manual removal. With --strict the node and the
restricted user are removed again.

Example:
  onpremctl launch -n my-cluster
  onpremctl launch -n my-cluster --config ~/.onpremctl/config.yaml --strict`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if verbose {
				opts.Verbosity = 1
			}
			return handlers.Launch(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.LocalClusterName, "local-cluster-name", "n", "", "Name to register the cluster under (required)")
	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file (default: ~/.onpremctl/config.yaml)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Remove the node and restricted user again if a later stage fails")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write run metrics in Prometheus textfile format to this path")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show debug output")
	_ = cmd.MarkFlagRequired("local-cluster-name")

	return cmd
}
