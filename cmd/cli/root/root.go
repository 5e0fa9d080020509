package root

import (
	"github.com/spf13/cobra"
)

// Exported RootCmd
var RootCmd = &cobra.Command{
	Use:           "inspect",
	Short:         "Remote inspection CLI",
	Long:          "Command line interface for the remote inspection API. Set INSPECT_API_URL to point at a non-local server.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// GetRoot returns the RootCmd.
func GetRoot() *cobra.Command {
	return RootCmd
}
