package datarecording

import (
	"github.com/sarchlab/cohfabric/coherence"
	"github.com/sarchlab/cohfabric/coherence/cluster"
	"github.com/sarchlab/cohfabric/coherence/controller"
	"github.com/sarchlab/cohfabric/coherence/topology"
)

// Table names of a recorded fabric.
const (
	FabricTable     = "fabric"
	ControllerTable = "controllers"
	PortTable       = "ports"
	ClusterTable    = "clusters"
)

// FabricEntry is the single row describing the fabric as a whole.
type FabricEntry struct {
	Name           string
	Protocol       string
	CacheLineSize  uint64
	BlockSizeBits  int
	DirBits        int
	L2Bits         int
	NumControllers int
	FabricFreq     float64
	MemCtrlFreq    float64
}

// ControllerEntry is one controller.
type ControllerEntry struct {
	Version             int
	Name                string
	Kind                string
	KindIndex           int
	NumTBEs             int
	TransitionsPerCycle int
	ClockDomain         string
	Freq                float64
	Sequencer           string
}

// PortEntry is one port and the endpoint it is attached to.
type PortEntry struct {
	Owner        string
	OwnerVersion int
	Port         string
	Class        string
	Direction    string
	Role         string
	EndpointID   int
	VNet         int
}

// ClusterEntry is one membership of a cluster.
type ClusterEntry struct {
	Cluster   string
	Depth     int
	Position  int
	Member    string
	IsCluster bool
}

// RecordFabric writes a built fabric into the recorder and flushes it.
func RecordFabric(rec DataRecorder, r *topology.Result) {
	rec.CreateTable(FabricTable, FabricEntry{})
	rec.CreateTable(ControllerTable, ControllerEntry{})
	rec.CreateTable(PortTable, PortEntry{})
	rec.CreateTable(ClusterTable, ClusterEntry{})

	rec.InsertData(FabricTable, FabricEntry{
		Name:           r.Name,
		Protocol:       coherence.CompiledProtocol,
		CacheLineSize:  r.Partitioner.CacheLineSize(),
		BlockSizeBits:  r.Partitioner.BlockSizeBits,
		DirBits:        r.Partitioner.DirBits,
		L2Bits:         r.Partitioner.L2Bits,
		NumControllers: r.Domain.Len(),
		FabricFreq:     float64(r.FabricClock.Freq()),
		MemCtrlFreq:    float64(r.MemCtrlClock.Freq()),
	})

	for _, c := range r.Domain.Controllers() {
		rec.InsertData(ControllerTable, controllerEntry(c))

		for _, p := range c.Ports() {
			entry := PortEntry{
				Owner:        c.Name(),
				OwnerVersion: c.Version(),
				Port:         p.Name(),
				Class:        p.Class().String(),
				Direction:    p.Direction().String(),
				EndpointID:   -1,
				VNet:         -1,
			}

			if ep := p.Endpoint(); ep != nil {
				entry.Role = ep.Role.String()
				entry.EndpointID = ep.ID
				entry.VNet = ep.VNet
			}

			rec.InsertData(PortTable, entry)
		}
	}

	recordClusters(rec, r.TopCluster)

	rec.Flush()
}

func controllerEntry(c controller.Controller) ControllerEntry {
	e := ControllerEntry{
		Version:             c.Version(),
		Name:                c.Name(),
		Kind:                c.Kind().String(),
		KindIndex:           c.KindIndex(),
		NumTBEs:             c.TBEs().Capacity(),
		TransitionsPerCycle: c.TransitionsPerCycle(),
	}

	if clk := c.ClockDomain(); clk != nil {
		e.ClockDomain = clk.Name()
		e.Freq = float64(clk.Freq())
	}

	if seq := c.Sequencer(); seq != nil {
		e.Sequencer = seq.Name()
	}

	return e
}

func recordClusters(rec DataRecorder, top *cluster.Cluster) {
	parents := []*cluster.Cluster{top}
	positions := []int{0}

	top.Walk(func(depth int, ctrl controller.Controller, sub *cluster.Cluster) {
		parents = parents[:depth+1]
		positions = positions[:depth+1]

		entry := ClusterEntry{
			Cluster:  parents[depth].Name(),
			Depth:    depth,
			Position: positions[depth],
		}
		positions[depth]++

		if sub != nil {
			entry.Member = sub.Name()
			entry.IsCluster = true
			parents = append(parents, sub)
			positions = append(positions, 0)
		} else {
			entry.Member = ctrl.Name()
		}

		rec.InsertData(ClusterTable, entry)
	})
}

// MapFabricTables prepares a reader to read a recorded fabric.
func MapFabricTables(r DataReader) {
	r.MapTable(FabricTable, FabricEntry{})
	r.MapTable(ControllerTable, ControllerEntry{})
	r.MapTable(PortTable, PortEntry{})
	r.MapTable(ClusterTable, ClusterEntry{})
}
