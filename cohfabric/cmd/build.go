package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/sarchlab/cohfabric/coherence/topology"
	"github.com/sarchlab/cohfabric/datarecording"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a fabric and print its controllers.",
	Long: "`build` lays out a fabric from the configuration and prints " +
		"every controller. `--record file.sqlite3` also saves the fabric.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		record, _ := cmd.Flags().GetString("record")
		base := strings.TrimSuffix(record, ".sqlite3")

		if record != "" {
			if err := recordMustNotExist(base + ".sqlite3"); err != nil {
				return err
			}
		}

		r, err := buildFabric(cmd)
		if err != nil {
			return err
		}

		printFabric(cmd.OutOrStdout(), r)

		if record != "" {
			datarecording.RecordFabric(datarecording.New(base), r)
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded to %s.sqlite3\n", base)
		}

		if ch, _ := cmd.Flags().GetBool("clickhouse"); ch {
			opts := datarecording.ClickHouseOptionsFromEnv()

			rec, err := datarecording.NewClickHouse(opts)
			if err != nil {
				return err
			}

			datarecording.RecordFabric(rec, r)
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded to ClickHouse at %s\n",
				opts.Addr)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
	addTopologyFlags(buildCmd)
	buildCmd.Flags().String("record", "",
		"SQLite file to record the fabric into")
	buildCmd.Flags().Bool("clickhouse", false,
		"also record the fabric to the ClickHouse server given by the "+
			"COHFABRIC_CLICKHOUSE_ variables")
}

func recordMustNotExist(path string) error {
	_, err := os.Stat(path)

	switch {
	case err == nil:
		return fmt.Errorf("%s already exists", path)
	case errors.Is(err, fs.ErrNotExist):
		return nil
	default:
		return err
	}
}

func printFabric(out io.Writer, r *topology.Result) {
	p := r.Partitioner
	fmt.Fprintf(out, "%s: %d controllers, %dB lines, %d dir bits, "+
		"%d L2 bits, fabric clock %s\n",
		r.Name, r.Domain.Len(), p.CacheLineSize(), p.DirBits, p.L2Bits,
		r.FabricClock.Freq())

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tNAME\tKIND\tTBES\tSEQUENCER")

	for _, c := range r.Domain.Controllers() {
		seq := "-"
		if s := c.Sequencer(); s != nil {
			seq = s.Name()
		}

		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
			c.Version(), c.Name(), c.Kind(), c.TBEs().Capacity(), seq)
	}

	w.Flush()
}
