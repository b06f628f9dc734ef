package main

import (
	"os"

	"github.com/spf13/cobra"

	// Register connector implementations.
	_ "github.com/hejijunhao/octo2sent/internal/connector/octopus"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "octo2sent",
		Short: "Ship Octopus Deploy events to Azure Monitor Logs",
		Long: "octo2sent pulls events from the Octopus Deploy API for a lookback window\n" +
			"and uploads them to an Azure Monitor Data Collection Rule stream.",
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd(), newServeCmd())
	return root
}
