package config_test

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/cohfabric/coherence"
	"github.com/sarchlab/cohfabric/coherence/topology"
	"github.com/sarchlab/cohfabric/config"
	"github.com/sarchlab/cohfabric/mem"
	"github.com/sarchlab/cohfabric/noc"
	"github.com/sarchlab/cohfabric/sim"
)

const sample = `
num_cpus: 4
cpu_freqs: ["3GHz"]
num_l2_slices: 2
num_directories: 2
l1d:
  size: 32kB
  assoc: 4
l2:
  size: 4MB
probe_filter:
  enabled: true
  base_size: 2MB
memory:
  - size: 1GB
fabric_freq: 1GHz
accelerators:
  - cache_size: 16kB
    freq: 800MHz
    slice: 1
virtual_networks:
  forward: 3
`

func setEnv(key, value string) {
	Expect(os.Setenv(key, value)).To(Succeed())
	DeferCleanup(os.Unsetenv, key)
}

var _ = Describe("Config", func() {
	It("should start from the defaults", func() {
		c, err := (&config.File{}).Resolve("Ruby")

		Expect(err).NotTo(HaveOccurred())

		d := topology.DefaultConfig()
		Expect(c.NumCPUs).To(Equal(d.NumCPUs))
		Expect(c.L2).To(Equal(d.L2))
		Expect(c.MemRanges).To(Equal(d.MemRanges))
		Expect(c.FabricClock).To(BeNil())
	})

	It("should override the defaults with a file", func() {
		f, err := config.Parse([]byte(sample))
		Expect(err).NotTo(HaveOccurred())

		c, err := f.Resolve("Ruby")
		Expect(err).NotTo(HaveOccurred())

		Expect(c.NumCPUs).To(Equal(4))
		Expect(c.CPUClocks).To(HaveLen(1))
		Expect(c.CPUClocks[0].Name()).To(Equal("Ruby.CPUClockDomain"))
		Expect(c.CPUClocks[0].Freq()).To(Equal(3 * sim.GHz))
		Expect(c.L1D.Size).To(Equal(32 * mem.KB))
		Expect(c.L1D.Assoc).To(Equal(4))
		Expect(c.L1D.Latency).To(Equal(topology.DefaultConfig().L1D.Latency))
		Expect(c.L2.Size).To(Equal(4 * mem.MB))
		Expect(c.ProbeFilter.Enabled).To(BeTrue())
		Expect(c.ProbeFilter.BaseSize).To(Equal(2 * mem.MB))
		Expect(c.MemRanges).To(Equal([]mem.AddressRange{{Size: mem.GB}}))
		Expect(c.FabricClock.Name()).To(Equal("Ruby.ClockDomain"))
		Expect(c.Accelerators).To(HaveLen(1))
		Expect(c.Accelerators[0].Slice).To(Equal(1))
		Expect(c.Accelerators[0].ClockDomain.Name()).
			To(Equal("Ruby.AccelClockDomain[0]"))
		Expect(c.VirtualNetworks).To(Equal(map[noc.MessageClass]int{
			noc.Forward: 3,
		}))
	})

	It("should build a fabric from a resolved file", func() {
		f, err := config.Parse([]byte(sample))
		Expect(err).NotTo(HaveOccurred())

		c, err := f.Resolve("Ruby")
		Expect(err).NotTo(HaveOccurred())

		r, err := topology.MakeBuilder().WithConfig(c).Build("Ruby")
		Expect(err).NotTo(HaveOccurred())
		Expect(r.CPUSequencers).To(HaveLen(4))
		Expect(r.AccelSequencers).To(HaveLen(1))
	})

	It("should reject unknown keys", func() {
		_, err := config.Parse([]byte("num_cores: 4\n"))

		Expect(errors.Is(err, coherence.ErrConfiguration)).To(BeTrue())
	})

	It("should accept an empty file", func() {
		f, err := config.Parse(nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(f.NumCPUs).To(BeNil())
	})

	DescribeTable("should reject bad values",
		func(doc, field string) {
			f, err := config.Parse([]byte(doc))
			Expect(err).NotTo(HaveOccurred())

			_, err = f.Resolve("Ruby")

			var cfgErr *coherence.ConfigurationError
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
			Expect(cfgErr.Field).To(Equal(field))
		},
		Entry("size", "l2:\n  size: lots\n", "l2.size"),
		Entry("frequency", "fabric_freq: fast\n", "fabric_freq"),
		Entry("zero frequency", "fabric_freq: 0GHz\n", "fabric_freq"),
		Entry("message class", "virtual_networks:\n  snoop: 3\n",
			"virtual_networks"),
		Entry("memory", "memory:\n  - start: 1GB\n", "memory.size"),
	)

	It("should reject a bad fabric name", func() {
		_, err := (&config.File{}).Resolve("")

		Expect(errors.Is(err, coherence.ErrConfiguration)).To(BeTrue())
	})

	Context("environment", func() {
		It("should override the file", func() {
			setEnv("COHFABRIC_NUM_CPUS", "8")
			setEnv("COHFABRIC_MEM_SIZE", "2GB")
			setEnv("COHFABRIC_FULL_SYSTEM", "true")

			f, err := config.Parse([]byte(sample))
			Expect(err).NotTo(HaveOccurred())
			Expect(f.ApplyEnv()).To(Succeed())

			c, err := f.Resolve("Ruby")
			Expect(err).NotTo(HaveOccurred())
			Expect(c.NumCPUs).To(Equal(8))
			Expect(c.FullSystem).To(BeTrue())
			Expect(mem.TotalSize(c.MemRanges)).To(Equal(2 * mem.GB))
		})

		It("should reject malformed integers", func() {
			setEnv("COHFABRIC_NUM_DMAS", "two")

			err := (&config.File{}).ApplyEnv()

			var cfgErr *coherence.ConfigurationError
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
			Expect(cfgErr.Field).To(Equal("COHFABRIC_NUM_DMAS"))
		})

		It("should read .env files", func() {
			dir := GinkgoT().TempDir()
			envFile := filepath.Join(dir, ".env")
			Expect(os.WriteFile(envFile,
				[]byte("COHFABRIC_NUM_L2_SLICES=4\n"), 0o600)).To(Succeed())
			DeferCleanup(os.Unsetenv, "COHFABRIC_NUM_L2_SLICES")

			c, err := config.Load("", "Ruby", envFile)

			Expect(err).NotTo(HaveOccurred())
			Expect(c.NumL2Slices).To(Equal(4))
		})

		It("should ignore missing .env files", func() {
			_, err := config.Load("", "Ruby", "/does/not/exist/.env")

			Expect(err).NotTo(HaveOccurred())
		})
	})

	It("should load a file from disk", func() {
		path := filepath.Join(GinkgoT().TempDir(), "fabric.yaml")
		Expect(os.WriteFile(path, []byte(sample), 0o600)).To(Succeed())

		c, err := config.Load(path, "Ruby")

		Expect(err).NotTo(HaveOccurred())
		Expect(c.NumDirectories).To(Equal(2))
	})
})
