package cmd

import (
	"fmt"

	"github.com/sarchlab/cohfabric/coherence"
	"github.com/spf13/cobra"
)

// Version is set at link time.
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and the compiled protocol.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "cohfabric %s (%s)\n",
			Version, coherence.CompiledProtocol)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
