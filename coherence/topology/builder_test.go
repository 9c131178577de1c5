package topology_test

import (
	"bytes"
	"errors"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/cohfabric/coherence"
	"github.com/sarchlab/cohfabric/coherence/controller"
	"github.com/sarchlab/cohfabric/coherence/topology"
	"github.com/sarchlab/cohfabric/mem"
	"github.com/sarchlab/cohfabric/noc"
	"github.com/sarchlab/cohfabric/sim"
)

type eventRecorder struct {
	created []controller.Controller
	states  []topology.State
}

func (r *eventRecorder) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case controller.HookPosControllerCreated:
		r.created = append(r.created, ctx.Item.(controller.Controller))
	case topology.HookPosStateChanged:
		r.states = append(r.states, ctx.Detail.(topology.State))
	}
}

func names(ctrls []controller.Controller) []string {
	n := make([]string, len(ctrls))
	for i, c := range ctrls {
		n[i] = c.Name()
	}

	return n
}

var _ = Describe("Builder", func() {
	var (
		recorder *eventRecorder
		builder  topology.Builder
	)

	BeforeEach(func() {
		recorder = &eventRecorder{}
		builder = topology.MakeBuilder().WithHook(recorder)
	})

	Context("four cores, one L2, one directory", func() {
		var r *topology.Result

		BeforeEach(func() {
			var err error
			r, err = builder.
				WithNumCPUs(4).
				WithNumL2Slices(1).
				WithNumDirectories(1).
				WithCacheLineSize(64).
				Build("Ruby")
			Expect(err).NotTo(HaveOccurred())
		})

		It("should create the controllers in version order", func() {
			Expect(names(r.Domain.Controllers())).To(Equal([]string{
				"Ruby.L1Cntrl[0]",
				"Ruby.L1Cntrl[1]",
				"Ruby.L1Cntrl[2]",
				"Ruby.L1Cntrl[3]",
				"Ruby.L2Cntrl[0]",
				"Ruby.DirCntrl[0]",
			}))

			for i, c := range r.Domain.Controllers() {
				Expect(c.Version()).To(Equal(i))
				Expect(r.Domain.Controller(i)).To(BeIdenticalTo(c))
			}

			Expect(r.Domain.L2s[0].Version()).To(Equal(4))
			Expect(r.DirControllers[0].Version()).To(Equal(5))
			Expect(r.DMAControllers).To(BeEmpty())
			Expect(r.Domain.Controller(6)).To(BeNil())
		})

		It("should return one sequencer per core", func() {
			Expect(r.CPUSequencers).To(HaveLen(4))
			Expect(r.AccelSequencers).To(BeEmpty())

			for i, seq := range r.CPUSequencers {
				Expect(seq.Version()).To(Equal(i))
				Expect(seq.Controller()).
					To(BeIdenticalTo(r.Domain.CoreL1s[i]))
			}
		})

		It("should cluster the L1s under the shared controllers", func() {
			top := r.TopCluster

			Expect(names(top.Controllers())).To(Equal([]string{
				"Ruby.L2Cntrl[0]", "Ruby.DirCntrl[0]",
			}))
			Expect(top.Subclusters()).To(HaveLen(1))
			Expect(names(top.Subclusters()[0].Controllers())).To(Equal(
				[]string{
					"Ruby.L1Cntrl[0]", "Ruby.L1Cntrl[1]",
					"Ruby.L1Cntrl[2]", "Ruby.L1Cntrl[3]",
				}))
			Expect(top.AllControllers()).To(HaveLen(6))
		})

		It("should connect every port", func() {
			for _, c := range r.Domain.Controllers() {
				for _, p := range c.Ports() {
					Expect(p.IsConnected()).To(BeTrue(), p.FullName())
				}
			}

			Expect(r.Network.Validate()).To(Succeed())
			Expect(r.Network.Slave().Len()).To(Equal(4*2 + 3 + 2))
			Expect(r.Network.Master().Len()).To(Equal(4*2 + 3 + 2))
		})

		It("should keep message classes on distinct virtual networks",
			func() {
				seen := map[int]noc.MessageClass{}
				for _, ep := range r.Network.Endpoints() {
					if c, found := seen[ep.VNet]; found {
						Expect(c).To(Equal(ep.Class))
					}
					seen[ep.VNet] = ep.Class
				}
				Expect(seen).To(HaveLen(3))
			})

		It("should list destinations by version", func() {
			Expect(r.Network.DestinationList(noc.Request)).
				To(Equal([]int{4, 5}))
			Expect(r.Network.DestinationList(noc.Forward)).
				To(Equal([]int{0, 1, 2, 3, 4}))
			Expect(r.Network.DestinationList(noc.Response)).
				To(Equal([]int{0, 1, 2, 3, 4, 5}))
		})

		It("should go through every state once", func() {
			Expect(recorder.states).To(Equal([]topology.State{
				topology.StateControllersCreated,
				topology.StateSequencersBound,
				topology.StateClustered,
				topology.StateWired,
				topology.StateDone,
			}))
		})

		It("should derive the memory controller clock", func() {
			Expect(r.FabricClock.Freq()).To(Equal(2 * sim.GHz))
			Expect(r.MemCtrlClock.Parent()).To(BeIdenticalTo(r.FabricClock))
			Expect(r.MemCtrlClock.Divider()).
				To(Equal(topology.DefaultMemCtrlClockDivider))
		})
	})

	It("should place accelerators, DMAs and the IO controller", func() {
		r, err := builder.
			WithNumCPUs(2).
			WithAccelerators(topology.AcceleratorConfig{
				CacheSize: 16 * mem.KB,
			}).
			WithNumDMAs(2).
			WithFullSystem(true).
			Build("Ruby")
		Expect(err).NotTo(HaveOccurred())

		Expect(names(r.Domain.Controllers())).To(Equal([]string{
			"Ruby.L1Cntrl[0]",
			"Ruby.L1Cntrl[1]",
			"Ruby.AccelL1Cntrl[0]",
			"Ruby.L2Cntrl[0]",
			"Ruby.DirCntrl[0]",
			"Ruby.DMACntrl[0]",
			"Ruby.DMACntrl[1]",
			"Ruby.IOCntrl",
		}))

		io := r.Domain.IO
		Expect(io.Version()).To(Equal(7))
		Expect(io.Sequencer()).To(BeNil())
		Expect(r.TopCluster.Controllers()).To(ContainElement(
			controller.Controller(io)))

		Expect(r.AccelSequencers).To(HaveLen(1))
		Expect(r.AccelSequencers[0].Version()).To(Equal(2))
		Expect(r.AccelSequencers[0].DCache().Size).To(Equal(16 * mem.KB))
		Expect(r.DMASequencers).To(HaveLen(2))
		Expect(r.DMASequencers[1].SlavePort()).To(Equal("DMAPort[1]"))
		Expect(r.DMAControllers[1].Sequencer()).
			To(BeIdenticalTo(r.DMASequencers[1]))
	})

	It("should spread cores over L2 slices", func() {
		r, err := builder.
			WithNumCPUs(4).
			WithNumL2Slices(2).
			WithAccelerators(topology.AcceleratorConfig{
				CacheSize: 32 * mem.KB, Slice: 1,
			}).
			Build("Ruby")
		Expect(err).NotTo(HaveOccurred())

		subs := r.TopCluster.Subclusters()
		Expect(subs).To(HaveLen(2))
		Expect(names(subs[0].Controllers())).To(Equal([]string{
			"Ruby.L1Cntrl[0]", "Ruby.L1Cntrl[1]",
		}))
		Expect(names(subs[1].Controllers())).To(Equal([]string{
			"Ruby.L1Cntrl[2]", "Ruby.L1Cntrl[3]", "Ruby.AccelL1Cntrl[0]",
		}))
		Expect(r.Domain.CoreL1s[3].L2SelectNumBits).To(Equal(1))
	})

	It("should thread the address bits into the caches", func() {
		r, err := builder.
			WithNumDirectories(4).
			WithNumL2Slices(2).
			Build("Ruby")
		Expect(err).NotTo(HaveOccurred())

		Expect(r.Partitioner.DirBits).To(Equal(2))
		Expect(r.Domain.CoreL1s[0].DCache.StartIndexBit).To(Equal(6))
		Expect(r.Domain.L2s[0].Cache.StartIndexBit).To(Equal(8))

		dir := r.DirControllers[3]
		Expect(dir.MemorySize).To(Equal(128 * mem.MB))
		Expect(dir.ProbeFilter.Enabled).To(BeFalse())
		Expect(dir.ProbeFilter.Size).To(Equal(2 * mem.MB))
		Expect(dir.ProbeFilter.Bits).To(Equal(21))
		Expect(dir.ProbeFilter.StartBit).To(Equal(8))
		Expect(dir.ProbeFilterCache.Size).To(Equal(2 * mem.MB))
	})

	It("should build with a disabled probe filter of any size", func() {
		c := topology.DefaultConfig()
		c.ProbeFilter.BaseSize = 3 * mem.MB
		c.DirectoryCache.Assoc = 3

		r, err := builder.WithConfig(c).Build("Ruby")
		Expect(err).NotTo(HaveOccurred())

		dir := r.DirControllers[0]
		Expect(dir.ProbeFilter.Enabled).To(BeFalse())
		Expect(dir.ProbeFilter.Size).To(Equal(6 * mem.MB))
		Expect(dir.ProbeFilter.Bits).To(Equal(22))
		Expect(dir.ProbeFilterCache.Size).To(Equal(6 * mem.MB))
	})

	DescribeTable("configuration errors before any controller exists",
		func(b func(topology.Builder) topology.Builder) {
			r, err := b(builder).Build("Ruby")

			Expect(r).To(BeNil())
			Expect(errors.Is(err, coherence.ErrConfiguration)).To(BeTrue())
			Expect(recorder.created).To(BeEmpty())
			Expect(recorder.states).To(BeEmpty())
		},
		Entry("protocol mismatch", func(b topology.Builder) topology.Builder {
			return b.WithProtocol("MESI_Two_Level")
		}),
		Entry("three directories", func(b topology.Builder) topology.Builder {
			return b.WithNumDirectories(3)
		}),
		Entry("three L2 slices", func(b topology.Builder) topology.Builder {
			return b.WithNumL2Slices(3)
		}),
		Entry("line size", func(b topology.Builder) topology.Builder {
			return b.WithCacheLineSize(48)
		}),
		Entry("uneven memory", func(b topology.Builder) topology.Builder {
			return b.WithNumDirectories(2).
				WithMemRanges(mem.AddressRange{Size: 64*mem.MB + 1})
		}),
		Entry("overlapping memory", func(b topology.Builder) topology.Builder {
			return b.WithMemRanges(
				mem.AddressRange{Start: 0, Size: 64 * mem.MB},
				mem.AddressRange{Start: 32 * mem.MB, Size: 64 * mem.MB})
		}),
		Entry("memory past the address space",
			func(b topology.Builder) topology.Builder {
				return b.WithMemRanges(
					mem.AddressRange{Start: 0, Size: 1 << 63},
					mem.AddressRange{Start: 1 << 63, Size: 1 << 63})
			}),
		Entry("no agents", func(b topology.Builder) topology.Builder {
			return b.WithNumCPUs(0)
		}),
		Entry("accelerator on a missing slice",
			func(b topology.Builder) topology.Builder {
				return b.WithAccelerators(topology.AcceleratorConfig{
					CacheSize: 32 * mem.KB, Slice: 1,
				})
			}),
	)

	It("should refuse shared virtual networks", func() {
		c := topology.DefaultConfig()
		c.VirtualNetworks = map[noc.MessageClass]int{noc.Forward: 0}

		_, err := builder.WithConfig(c).Build("Ruby")

		Expect(errors.Is(err, coherence.ErrConfiguration)).To(BeTrue())
		Expect(recorder.created).To(BeEmpty())
	})

	It("should refuse a bad fabric name", func() {
		_, err := builder.Build("ruby_system")

		Expect(errors.Is(err, coherence.ErrConfiguration)).To(BeTrue())
	})

	It("should panic in MustBuild", func() {
		Expect(func() {
			builder.WithNumDirectories(3).MustBuild("Ruby")
		}).To(Panic())
	})

	It("should build the same fabric twice from one builder", func() {
		a := builder.WithNumCPUs(2).MustBuild("Ruby")
		b := builder.WithNumCPUs(2).MustBuild("Ruby")

		Expect(names(a.Domain.Controllers())).
			To(Equal(names(b.Domain.Controllers())))
		Expect(a.Domain.Controller(0)).NotTo(BeIdenticalTo(
			b.Domain.Controller(0)))
	})

	It("should log the build", func() {
		buf := new(bytes.Buffer)
		logHook := topology.NewLogHook(log.New(buf, "", 0))
		logHook.Ports = true

		builder.WithHook(logHook).MustBuild("Ruby")

		out := buf.String()
		Expect(out).To(ContainSubstring(
			"Ruby.L1Cntrl[0]: L1 controller, version 0"))
		Expect(out).To(ContainSubstring(
			"Ruby.Sequencer[0]: bound to Ruby.L1Cntrl[0]"))
		Expect(out).To(ContainSubstring(
			"Ruby.DirCntrl[0].RequestToDir: Master endpoint"))
		Expect(out).To(ContainSubstring("Ruby: Done"))
	})
})
