package cmd

import (
	"fmt"

	"github.com/sarchlab/cohfabric/mem"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a configuration without building the fabric.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		name, c, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if err := c.Validate(); err != nil {
			return err
		}

		total, err := mem.TotalSize(c.MemRanges)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(),
			"%s: %d cores, %d accelerators, %d L2 slices, %d directories, "+
				"%d DMAs, %s memory\n",
			name, c.NumCPUs, len(c.Accelerators), c.NumL2Slices,
			c.NumDirectories, c.NumDMAs,
			mem.FormatSize(total))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	addTopologyFlags(checkCmd)
}
