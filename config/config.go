// Package config reads fabric configurations from YAML files and the
// environment.
package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/sarchlab/cohfabric/coherence"
	"github.com/sarchlab/cohfabric/coherence/controller"
	"github.com/sarchlab/cohfabric/coherence/topology"
	"github.com/sarchlab/cohfabric/mem"
	"github.com/sarchlab/cohfabric/noc"
	"github.com/sarchlab/cohfabric/sim"
	"gopkg.in/yaml.v3"
)

// Cache is the YAML form of a cache geometry. Unset fields keep the default.
type Cache struct {
	Size           string `yaml:"size,omitempty"`
	Assoc          *int   `yaml:"assoc,omitempty"`
	Banks          *int   `yaml:"banks,omitempty"`
	Latency        *int   `yaml:"latency,omitempty"`
	TagLatency     *int   `yaml:"tag_latency,omitempty"`
	DataLatency    *int   `yaml:"data_latency,omitempty"`
	ResourceStalls *bool  `yaml:"resource_stalls,omitempty"`
}

// ProbeFilter is the YAML form of the probe filter sizing.
type ProbeFilter struct {
	Enabled    *bool  `yaml:"enabled,omitempty"`
	BaseSize   string `yaml:"base_size,omitempty"`
	Multiplier *int   `yaml:"multiplier,omitempty"`
}

// Accelerator is the YAML form of an accelerator.
type Accelerator struct {
	CacheSize string `yaml:"cache_size"`
	Freq      string `yaml:"freq,omitempty"`
	Slice     int    `yaml:"slice,omitempty"`
}

// MemRange is the YAML form of a memory range.
type MemRange struct {
	Start string `yaml:"start,omitempty"`
	Size  string `yaml:"size"`
}

// File is the content of a fabric configuration file. Every field is
// optional.
type File struct {
	Protocol      string `yaml:"protocol,omitempty"`
	CacheLineSize string `yaml:"cache_line_size,omitempty"`
	FullSystem    *bool  `yaml:"full_system,omitempty"`

	NumCPUs      *int          `yaml:"num_cpus,omitempty"`
	CPUFreqs     []string      `yaml:"cpu_freqs,omitempty"`
	Accelerators []Accelerator `yaml:"accelerators,omitempty"`

	L1I           *Cache `yaml:"l1i,omitempty"`
	L1D           *Cache `yaml:"l1d,omitempty"`
	L1TBEs        *int   `yaml:"l1_tbes,omitempty"`
	SendEvictions *bool  `yaml:"send_evictions,omitempty"`
	EnableCounter *bool  `yaml:"enable_counter,omitempty"`

	NumL2Slices *int   `yaml:"num_l2_slices,omitempty"`
	L2          *Cache `yaml:"l2,omitempty"`
	L2TBEs      *int   `yaml:"l2_tbes,omitempty"`

	NumDirectories *int         `yaml:"num_directories,omitempty"`
	ProbeFilter    *ProbeFilter `yaml:"probe_filter,omitempty"`
	DirectoryCache *Cache       `yaml:"directory_cache,omitempty"`
	DirectoryTBEs  *int         `yaml:"directory_tbes,omitempty"`

	NumDMAs        *int `yaml:"num_dmas,omitempty"`
	DMAOutstanding *int `yaml:"dma_outstanding,omitempty"`

	TransitionsPerCycle *int       `yaml:"transitions_per_cycle,omitempty"`
	Memory              []MemRange `yaml:"memory,omitempty"`

	FabricFreq          string         `yaml:"fabric_freq,omitempty"`
	MemCtrlClockDivider *int           `yaml:"mem_ctrl_clock_divider,omitempty"`
	VirtualNetworks     map[string]int `yaml:"virtual_networks,omitempty"`
}

// Parse decodes a configuration. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	f := &File{}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	err := dec.Decode(f)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, coherence.NewConfigurationError("file", "%v", err)
	}

	return f, nil
}

// ReadFile reads and decodes a configuration file.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

// Load reads the configuration file at path, applies the environment and
// resolves the result for the fabric with the given name. An empty path
// starts from the defaults.
func Load(path, name string, envFiles ...string) (topology.Config, error) {
	f := &File{}

	if path != "" {
		var err error

		f, err = ReadFile(path)
		if err != nil {
			return topology.Config{}, err
		}
	}

	if err := f.ApplyEnv(envFiles...); err != nil {
		return topology.Config{}, err
	}

	return f.Resolve(name)
}

// Marshal encodes the configuration as YAML.
func (f *File) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}

// Resolve turns the file into a topology configuration, starting from
// topology.DefaultConfig. Clock domains are named after the fabric.
func (f *File) Resolve(name string) (topology.Config, error) {
	if err := sim.ValidateName(name); err != nil {
		return topology.Config{}, coherence.NewConfigurationError("name",
			"%v", err)
	}

	c := topology.DefaultConfig()
	r := resolver{name: name}

	if f.Protocol != "" {
		c.Protocol = f.Protocol
	}

	r.size("cache_line_size", f.CacheLineSize, &c.CacheLineSize)
	setBool(f.FullSystem, &c.FullSystem)
	setInt(f.NumCPUs, &c.NumCPUs)
	r.cpuClocks(f.CPUFreqs, &c)
	r.accelerators(f.Accelerators, &c)

	r.cache("l1i", f.L1I, &c.L1I)
	r.cache("l1d", f.L1D, &c.L1D)
	setInt(f.L1TBEs, &c.L1TBEs)
	setBool(f.SendEvictions, &c.SendEvictions)
	setBool(f.EnableCounter, &c.EnableCounter)

	setInt(f.NumL2Slices, &c.NumL2Slices)
	r.cache("l2", f.L2, &c.L2)
	setInt(f.L2TBEs, &c.L2TBEs)

	setInt(f.NumDirectories, &c.NumDirectories)
	r.probeFilter(f.ProbeFilter, &c)
	r.cache("directory_cache", f.DirectoryCache, &c.DirectoryCache)
	setInt(f.DirectoryTBEs, &c.DirectoryTBEs)

	setInt(f.NumDMAs, &c.NumDMAs)
	setInt(f.DMAOutstanding, &c.DMAOutstanding)
	setInt(f.TransitionsPerCycle, &c.TransitionsPerCycle)
	r.memory(f.Memory, &c)

	if f.FabricFreq != "" {
		c.FabricClock = r.clock("fabric_freq", f.FabricFreq,
			sim.BuildName(name, "ClockDomain"))
	}

	setInt(f.MemCtrlClockDivider, &c.MemCtrlClockDivider)
	r.virtualNetworks(f.VirtualNetworks, &c)

	if r.err != nil {
		return topology.Config{}, r.err
	}

	return c, nil
}

func setInt(v *int, dst *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(v *bool, dst *bool) {
	if v != nil {
		*dst = *v
	}
}

// resolver keeps the first error so that Resolve reads straight through.
type resolver struct {
	name string
	err  error
}

func (r *resolver) fail(field, format string, args ...any) {
	if r.err == nil {
		r.err = coherence.NewConfigurationError(field, format, args...)
	}
}

func (r *resolver) size(field, s string, dst *uint64) {
	if s == "" {
		return
	}

	v, err := mem.ParseSize(s)
	if err != nil {
		r.fail(field, "%v", err)
		return
	}

	*dst = v
}

func (r *resolver) clock(field, s, name string) *sim.ClockDomain {
	freq, err := sim.ParseFreq(s)
	if err != nil {
		r.fail(field, "%v", err)
		return nil
	}

	if freq <= 0 {
		r.fail(field, "%s is not a positive frequency", s)
		return nil
	}

	return sim.NewClockDomain(name, freq)
}

func (r *resolver) cache(field string, in *Cache, dst *controller.CacheSpec) {
	if in == nil {
		return
	}

	r.size(field+".size", in.Size, &dst.Size)
	setInt(in.Assoc, &dst.Assoc)
	setInt(in.Banks, &dst.Banks)
	setInt(in.Latency, &dst.Latency)
	setInt(in.TagLatency, &dst.TagLatency)
	setInt(in.DataLatency, &dst.DataLatency)
	setBool(in.ResourceStalls, &dst.ResourceStalls)
}

func (r *resolver) cpuClocks(freqs []string, c *topology.Config) {
	if len(freqs) == 0 {
		return
	}

	c.CPUClocks = nil

	if len(freqs) == 1 {
		c.CPUClocks = append(c.CPUClocks, r.clock("cpu_freqs", freqs[0],
			sim.BuildName(r.name, "CPUClockDomain")))

		return
	}

	for i, s := range freqs {
		c.CPUClocks = append(c.CPUClocks, r.clock("cpu_freqs", s,
			sim.BuildNameWithIndex(r.name, "CPUClockDomain", i)))
	}
}

func (r *resolver) accelerators(in []Accelerator, c *topology.Config) {
	if len(in) == 0 {
		return
	}

	c.Accelerators = nil

	for i, a := range in {
		accel := topology.AcceleratorConfig{Slice: a.Slice}
		r.size("accelerators.cache_size", a.CacheSize, &accel.CacheSize)

		if a.Freq != "" {
			accel.ClockDomain = r.clock("accelerators.freq", a.Freq,
				sim.BuildNameWithIndex(r.name, "AccelClockDomain", i))
		}

		c.Accelerators = append(c.Accelerators, accel)
	}
}

func (r *resolver) probeFilter(in *ProbeFilter, c *topology.Config) {
	if in == nil {
		return
	}

	setBool(in.Enabled, &c.ProbeFilter.Enabled)
	r.size("probe_filter.base_size", in.BaseSize, &c.ProbeFilter.BaseSize)
	setInt(in.Multiplier, &c.ProbeFilter.Multiplier)
}

func (r *resolver) memory(in []MemRange, c *topology.Config) {
	if len(in) == 0 {
		return
	}

	c.MemRanges = nil

	for _, m := range in {
		var rng mem.AddressRange

		r.size("memory.start", m.Start, &rng.Start)
		r.size("memory.size", m.Size, &rng.Size)

		if rng.Size == 0 {
			r.fail("memory.size", "memory ranges must have a size")
		}

		c.MemRanges = append(c.MemRanges, rng)
	}
}

func (r *resolver) virtualNetworks(in map[string]int, c *topology.Config) {
	if len(in) == 0 {
		return
	}

	c.VirtualNetworks = make(map[noc.MessageClass]int)

	for name, vnet := range in {
		class, ok := messageClass(name)
		if !ok {
			r.fail("virtual_networks", "unknown message class %q", name)
			continue
		}

		c.VirtualNetworks[class] = vnet
	}
}

func messageClass(name string) (noc.MessageClass, bool) {
	for _, c := range noc.MessageClasses {
		if strings.EqualFold(c.String(), name) {
			return c, true
		}
	}

	return 0, false
}
