package controller_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/cohfabric/coherence"
	"github.com/sarchlab/cohfabric/coherence/controller"
	"github.com/sarchlab/cohfabric/mem"
	"github.com/sarchlab/cohfabric/sim"
)

var _ = Describe("Specs", func() {
	clock := sim.NewClockDomain("Cpu", 1*sim.GHz)

	It("should compute the number of sets", func() {
		c := controller.CacheSpec{Size: 32 * mem.KB, Assoc: 2, Banks: 1}

		Expect(c.NumSets(64)).To(Equal(256))
		Expect(c.Validate("l1i", 64)).To(Succeed())
	})

	DescribeTable("rejecting bad cache geometry",
		func(c controller.CacheSpec) {
			err := c.Validate("cache", 64)
			Expect(errors.Is(err, coherence.ErrConfiguration)).To(BeTrue())
		},
		Entry("zero size", controller.CacheSpec{Assoc: 1, Banks: 1}),
		Entry("zero assoc",
			controller.CacheSpec{Size: 1 * mem.KB, Banks: 1}),
		Entry("zero banks",
			controller.CacheSpec{Size: 1 * mem.KB, Assoc: 1}),
		Entry("negative latency", controller.CacheSpec{
			Size: 1 * mem.KB, Assoc: 1, Banks: 1, Latency: -1}),
		Entry("partial set", controller.CacheSpec{
			Size: 1*mem.KB + 64, Assoc: 2, Banks: 1}),
		Entry("sets not power of two", controller.CacheSpec{
			Size: 3 * mem.KB, Assoc: 1, Banks: 1}),
	)

	It("should accept the defaults", func() {
		Expect(controller.DefaultL1Spec(clock).Validate(64)).To(Succeed())
		Expect(controller.DefaultL2Spec(clock).Validate(64)).To(Succeed())
		Expect(controller.DefaultDMASpec(clock).Validate()).To(Succeed())
	})

	It("should require a clock domain", func() {
		err := controller.DefaultL1Spec(nil).Validate(64)
		Expect(errors.Is(err, coherence.ErrConfiguration)).To(BeTrue())
	})

	It("should require TBEs and outstanding slots", func() {
		spec := controller.DefaultDMASpec(clock)
		spec.MaxOutstanding = 0
		Expect(spec.Validate()).NotTo(Succeed())

		l2 := controller.DefaultL2Spec(clock)
		l2.NumTBEs = 0
		Expect(l2.Validate(64)).NotTo(Succeed())
	})

	It("should require directory memory to be whole lines", func() {
		spec := controller.DirectorySpec{
			MemorySize: 100,
			ProbeFilterCache: controller.CacheSpec{
				Size: 1 * mem.MB, Assoc: 4, Banks: 1,
			},
			NumTBEs:             1,
			TransitionsPerCycle: 1,
			ClockDomain:         clock,
		}

		err := spec.Validate(64)
		Expect(errors.Is(err, coherence.ErrConfiguration)).To(BeTrue())
	})
})
