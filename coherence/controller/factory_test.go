package controller_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/cohfabric/coherence"
	"github.com/sarchlab/cohfabric/coherence/controller"
	"github.com/sarchlab/cohfabric/mem"
	"github.com/sarchlab/cohfabric/noc"
	"github.com/sarchlab/cohfabric/sim"
)

type agent string

func (a agent) Name() string { return string(a) }

var _ = Describe("Factory", func() {
	var (
		clock   *sim.ClockDomain
		factory *controller.Factory
		dirSpec controller.DirectorySpec
	)

	BeforeEach(func() {
		clock = sim.NewClockDomain("Ruby", 2*sim.GHz)

		var err error
		factory, err = controller.NewFactory("Ruby",
			coherence.MOESICMPDirectory, 64)
		Expect(err).NotTo(HaveOccurred())

		dirSpec = controller.DirectorySpec{
			MemorySize: 512 * mem.MB,
			ProbeFilterCache: controller.CacheSpec{
				Size: 1 * mem.MB, Assoc: 4, Banks: 1,
			},
			NumTBEs:             64,
			TransitionsPerCycle: 4,
			ClockDomain:         clock,
		}
	})

	It("should refuse a protocol that is not compiled in", func() {
		f, err := controller.NewFactory("Ruby", "MI_example", 64)

		Expect(f).To(BeNil())
		Expect(errors.Is(err, coherence.ErrConfiguration)).To(BeTrue())
	})

	It("should refuse a bad line size", func() {
		_, err := controller.NewFactory("Ruby",
			coherence.MOESICMPDirectory, 96)

		Expect(errors.Is(err, coherence.ErrConfiguration)).To(BeTrue())
	})

	It("should assign dense versions in kind order", func() {
		l1a, err := factory.CreateL1(0, controller.DefaultL1Spec(clock))
		Expect(err).NotTo(HaveOccurred())
		l1b, _ := factory.CreateL1(1, controller.DefaultL1Spec(clock))
		acc, _ := factory.CreateAccelL1(0, controller.DefaultL1Spec(clock))
		l2, _ := factory.CreateL2(controller.DefaultL2Spec(clock))
		dir, _ := factory.CreateDirectory(dirSpec)
		dma, _ := factory.CreateDMA(controller.DefaultDMASpec(clock))
		io, err := factory.CreateIO(controller.DefaultDMASpec(clock))
		Expect(err).NotTo(HaveOccurred())

		ctrls := []controller.Controller{l1a, l1b, acc, l2, dir, dma, io}
		for i, c := range ctrls {
			Expect(c.Version()).To(Equal(i))
		}

		Expect(factory.NumCreated()).To(Equal(7))
		Expect(acc.Accelerator).To(BeTrue())
		Expect(acc.KindIndex()).To(Equal(0))
		Expect(acc.Name()).To(Equal("Ruby.AccelL1Cntrl[0]"))
		Expect(l1b.Name()).To(Equal("Ruby.L1Cntrl[1]"))
		Expect(dir.Name()).To(Equal("Ruby.DirCntrl[0]"))
		Expect(io.Name()).To(Equal("Ruby.IOCntrl"))
		Expect(io.Kind()).To(Equal(controller.KindIO))
	})

	It("should refuse to go back to an earlier kind", func() {
		_, err := factory.CreateL2(controller.DefaultL2Spec(clock))
		Expect(err).NotTo(HaveOccurred())

		_, err = factory.CreateL1(0, controller.DefaultL1Spec(clock))

		Expect(errors.Is(err, coherence.ErrStructuralWiring)).To(BeTrue())
		Expect(factory.NumCreated()).To(Equal(1))
	})

	It("should require cores in index order", func() {
		_, err := factory.CreateL1(1, controller.DefaultL1Spec(clock))
		Expect(errors.Is(err, coherence.ErrStructuralWiring)).To(BeTrue())
	})

	It("should allow only one IO controller", func() {
		_, err := factory.CreateIO(controller.DefaultDMASpec(clock))
		Expect(err).NotTo(HaveOccurred())

		_, err = factory.CreateIO(controller.DefaultDMASpec(clock))
		Expect(errors.Is(err, coherence.ErrStructuralWiring)).To(BeTrue())
	})

	It("should not consume a version when the spec is invalid", func() {
		spec := controller.DefaultL1Spec(clock)
		spec.DCache.Assoc = 3

		_, err := factory.CreateL1(0, spec)

		Expect(errors.Is(err, coherence.ErrConfiguration)).To(BeTrue())
		Expect(factory.NumCreated()).To(Equal(0))
	})

	It("should declare the ports of each kind", func() {
		l1, _ := factory.CreateL1(0, controller.DefaultL1Spec(clock))
		l2, _ := factory.CreateL2(controller.DefaultL2Spec(clock))
		dir, _ := factory.CreateDirectory(dirSpec)
		dma, _ := factory.CreateDMA(controller.DefaultDMASpec(clock))

		Expect(l1.Ports()).To(HaveLen(4))
		Expect(l2.Ports()).To(HaveLen(6))
		Expect(dir.Ports()).To(HaveLen(4))
		Expect(dma.Ports()).To(HaveLen(3))

		Expect(l1.Port("RequestFromL1Cache").Direction()).
			To(Equal(noc.Outbound))
		Expect(l1.Port("ResponseToL1Cache").Direction()).
			To(Equal(noc.Inbound))
		Expect(dir.Port("ForwardFromDir").Class()).To(Equal(noc.Forward))
		Expect(dir.Port("RequestToDir").Owner()).To(BeIdenticalTo(dir))
		Expect(dma.Port("NoSuchPort")).To(BeNil())
	})

	It("should never put a forward port on an L1 outbound path", func() {
		l1, _ := factory.CreateL1(0, controller.DefaultL1Spec(clock))

		for _, p := range l1.Ports() {
			if p.Class() == noc.Forward {
				Expect(p.Direction()).To(Equal(noc.Inbound))
			}
		}
	})

	It("should invoke hooks on creation", func() {
		versions := []int{}
		factory.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			Expect(ctx.Pos).To(BeIdenticalTo(
				controller.HookPosControllerCreated))
			versions = append(versions, ctx.Detail.(int))
		}))

		factory.CreateL1(0, controller.DefaultL1Spec(clock))
		factory.CreateL2(controller.DefaultL2Spec(clock))

		Expect(versions).To(Equal([]int{0, 1}))
	})

	It("should size the TBE table from the spec", func() {
		spec := controller.DefaultL2Spec(clock)
		spec.NumTBEs = 5

		l2, _ := factory.CreateL2(spec)

		Expect(l2.TBEs().Capacity()).To(Equal(5))
		Expect(l2.TransitionsPerCycle()).To(Equal(4))
		Expect(l2.ClockDomain()).To(BeIdenticalTo(clock))
	})

	Context("sequencer attachment", func() {
		It("should accept one sequencer on an L1", func() {
			l1, _ := factory.CreateL1(0, controller.DefaultL1Spec(clock))

			Expect(l1.AttachSequencer(agent("Ruby.Sequencer[0]"))).
				To(Succeed())
			Expect(l1.Sequencer().Name()).To(Equal("Ruby.Sequencer[0]"))

			err := l1.AttachSequencer(agent("Ruby.Sequencer[1]"))
			Expect(errors.Is(err, coherence.ErrStructuralWiring)).
				To(BeTrue())
		})

		It("should refuse sequencers on directories", func() {
			dir, _ := factory.CreateDirectory(dirSpec)

			err := dir.AttachSequencer(agent("Ruby.Sequencer[0]"))

			Expect(errors.Is(err, coherence.ErrStructuralWiring)).
				To(BeTrue())
			Expect(dir.Sequencer()).To(BeNil())
		})
	})
})
