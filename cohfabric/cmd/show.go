package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/sarchlab/cohfabric/datarecording"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [file.sqlite3]",
	Short: "Print a recorded fabric.",
	Long: "`show` reads a fabric recorded by `build --record` and prints " +
		"its controllers. `--ports` prints the network endpoints instead.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reader, err := datarecording.NewReader(args[0])
		if err != nil {
			return err
		}
		defer reader.Close()

		datarecording.MapFabricTables(reader)

		if ports, _ := cmd.Flags().GetBool("ports"); ports {
			return showPorts(cmd, reader)
		}

		return showControllers(cmd, reader)
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().String("kind", "", "only show controllers of this kind")
	showCmd.Flags().Bool("ports", false, "show ports and endpoints")
}

func showControllers(
	cmd *cobra.Command,
	reader datarecording.DataReader,
) error {
	params := datarecording.QueryParams{OrderBy: "Version"}
	if kind, _ := cmd.Flags().GetString("kind"); kind != "" {
		params.Where = "Kind = ?"
		params.Args = []any{kind}
	}

	rows, total, err := reader.Query(cmd.Context(),
		datarecording.ControllerTable, params)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tNAME\tKIND\tCLOCK\tSEQUENCER")

	for _, row := range rows {
		c := row.(*datarecording.ControllerEntry)
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			c.Version, c.Name, c.Kind, c.ClockDomain, c.Sequencer)
	}

	w.Flush()
	fmt.Fprintf(cmd.OutOrStdout(), "%d controllers\n", total)

	return nil
}

func showPorts(cmd *cobra.Command, reader datarecording.DataReader) error {
	rows, _, err := reader.Query(cmd.Context(), datarecording.PortTable,
		datarecording.QueryParams{OrderBy: "OwnerVersion, Port"})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "OWNER\tPORT\tCLASS\tROLE\tENDPOINT\tVNET")

	for _, row := range rows {
		p := row.(*datarecording.PortEntry)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n",
			p.Owner, p.Port, p.Class, p.Role, p.EndpointID, p.VNet)
	}

	return w.Flush()
}
