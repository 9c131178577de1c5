package topology_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/cohfabric/coherence"
	"github.com/sarchlab/cohfabric/coherence/topology"
	"github.com/sarchlab/cohfabric/sim"
)

var _ = Describe("Config", func() {
	var c topology.Config

	BeforeEach(func() {
		c = topology.DefaultConfig()
		c.FabricClock = sim.NewClockDomain("Ruby.ClockDomain", 2*sim.GHz)
	})

	It("should accept the defaults once a clock is set", func() {
		Expect(c.Validate()).To(Succeed())

		c.FabricClock = nil
		Expect(errors.Is(c.Validate(), coherence.ErrConfiguration)).
			To(BeTrue())
	})

	It("should check the number of core clocks", func() {
		c.NumCPUs = 4
		cpuClock := sim.NewClockDomain("Cpu.ClockDomain", 3*sim.GHz)

		c.CPUClocks = []*sim.ClockDomain{cpuClock}
		Expect(c.Validate()).To(Succeed())

		c.CPUClocks = []*sim.ClockDomain{cpuClock, cpuClock}
		Expect(c.Validate()).NotTo(Succeed())

		c.CPUClocks = []*sim.ClockDomain{cpuClock, cpuClock, nil, cpuClock}
		Expect(c.Validate()).NotTo(Succeed())
	})

	It("should only require DMA settings when DMAs exist", func() {
		c.DMAOutstanding = 0
		Expect(c.Validate()).To(Succeed())

		c.NumDMAs = 1
		Expect(c.Validate()).NotTo(Succeed())
	})

	It("should check the probe filter size once it is enabled", func() {
		c.ProbeFilter.BaseSize = 3 << 20
		Expect(c.Validate()).To(Succeed())

		c.ProbeFilter.Enabled = true
		Expect(errors.Is(c.Validate(), coherence.ErrConfiguration)).
			To(BeTrue())
	})

	It("should check the probe filter cache once it is enabled", func() {
		c.DirectoryCache.Assoc = 3
		Expect(c.Validate()).To(Succeed())

		c.ProbeFilter.Enabled = true
		Expect(errors.Is(c.Validate(), coherence.ErrConfiguration)).
			To(BeTrue())
	})

	It("should check the memory controller clock divider", func() {
		c.MemCtrlClockDivider = 0
		Expect(c.Validate()).NotTo(Succeed())
	})
})
