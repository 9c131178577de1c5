package cmd

import (
	"log"

	"github.com/sarchlab/cohfabric/coherence/topology"
	"github.com/sarchlab/cohfabric/config"
	"github.com/sarchlab/cohfabric/sim"
	"github.com/spf13/cobra"
)

func addTopologyFlags(cmd *cobra.Command) {
	cmd.Flags().Int("cpus", 0, "number of cores")
	cmd.Flags().Int("l2-slices", 0, "number of L2 slices")
	cmd.Flags().Int("dirs", 0, "number of directories")
	cmd.Flags().Int("dmas", 0, "number of DMA controllers")
	cmd.Flags().Bool("full-system", false, "add the IO controller")
	cmd.Flags().BoolP("verbose", "v", false, "log every build step")
	cmd.Flags().Bool("ports", false, "with --verbose, also log ports")
	cmd.Flags().Bool("trace", false, "log every raw hook invocation")
}

// loadConfig resolves the configuration file and the environment, then
// applies the command-line flags on top.
func loadConfig(cmd *cobra.Command) (string, topology.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	envFiles, _ := flags.GetStringSlice("env")
	name, _ := flags.GetString("name")

	c, err := config.Load(path, name, envFiles...)
	if err != nil {
		return name, c, err
	}

	overrides := []struct {
		flag string
		dst  *int
	}{
		{"cpus", &c.NumCPUs},
		{"l2-slices", &c.NumL2Slices},
		{"dirs", &c.NumDirectories},
		{"dmas", &c.NumDMAs},
	}

	for _, o := range overrides {
		if flags.Changed(o.flag) {
			*o.dst, _ = flags.GetInt(o.flag)
		}
	}

	if flags.Changed("full-system") {
		c.FullSystem, _ = flags.GetBool("full-system")
	}

	return name, c, nil
}

func buildFabric(
	cmd *cobra.Command,
	hooks ...sim.Hook,
) (*topology.Result, error) {
	name, c, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	b := topology.MakeBuilder().WithConfig(c)

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		h := topology.NewLogHook(log.New(cmd.ErrOrStderr(), "", 0))
		h.Ports, _ = cmd.Flags().GetBool("ports")
		b = b.WithHook(h)
	}

	if trace, _ := cmd.Flags().GetBool("trace"); trace {
		b = b.WithHook(sim.NewLogHook(log.New(cmd.ErrOrStderr(), "", 0)))
	}

	for _, h := range hooks {
		b = b.WithHook(h)
	}

	return b.Build(name)
}
