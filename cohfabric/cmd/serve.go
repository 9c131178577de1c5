package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sarchlab/cohfabric/monitoring"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Build a fabric and serve it over HTTP.",
	Long: "`serve` builds the fabric and keeps a monitoring server running " +
		"until interrupted.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		port, _ := cmd.Flags().GetInt("port")
		name, _ := cmd.Flags().GetString("name")

		monitor := monitoring.NewMonitor()
		if port != 0 {
			monitor = monitor.WithPortNumber(port)
		}

		r, err := buildFabric(cmd, monitor.TrackBuild(name))
		if err != nil {
			return err
		}

		monitor.RegisterFabric(r)

		url, err := monitor.StartServer()
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Serving %s at %s\n", r.Name, url)

		if open, _ := cmd.Flags().GetBool("open"); open {
			if err := monitor.OpenInBrowser(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Cannot open browser: %v\n", err)
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(),
			os.Interrupt, syscall.SIGTERM)
		defer stop()

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(), 5*time.Second)
		defer cancel()

		return monitor.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addTopologyFlags(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0,
		"port of the monitoring server, random if not set")
	serveCmd.Flags().Bool("open", false, "open the server in a browser")
}
