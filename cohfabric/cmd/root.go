// Package cmd provides the command-line interface for cohfabric.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cohfabric",
	Short: "cohfabric builds directory-coherence fabrics.",
	Long: `cohfabric lays out the controllers, sequencers, clusters and ` +
		`network endpoints of a directory-coherence fabric. It can check a ` +
		`configuration, record the fabric to a database and serve it for ` +
		`inspection.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "",
		"YAML file that configures the fabric")
	rootCmd.PersistentFlags().StringSlice("env", []string{".env"},
		".env files to load before reading COHFABRIC_ variables")
	rootCmd.PersistentFlags().String("name", "Ruby", "name of the fabric")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
