// Package monitoring serves a built fabric over HTTP so that it can be
// inspected while the process is alive.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strings"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/sarchlab/cohfabric/coherence/cluster"
	"github.com/sarchlab/cohfabric/coherence/controller"
	"github.com/sarchlab/cohfabric/coherence/topology"
	"github.com/sarchlab/cohfabric/noc"
	"github.com/sarchlab/cohfabric/sim"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// Monitor serves the fabrics registered with it.
type Monitor struct {
	portNumber  int
	idGenerator sim.IDGenerator

	lock     sync.Mutex
	fabrics  []*topology.Result
	progress []*BuildProgress
	server   *http.Server
	url      string
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{idGenerator: sim.NewParallelIDGenerator()}
}

// WithPortNumber sets the port number of the monitor. Port numbers below 1000
// are replaced by a random port.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is not allowed for the monitoring server, "+
				"using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterFabric makes a built fabric available for inspection.
func (m *Monitor) RegisterFabric(r *topology.Result) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.fabrics = append(m.fabrics, r)
}

// TrackBuild returns a hook that follows the build of the named fabric.
func (m *Monitor) TrackBuild(name string) *BuildProgress {
	p := &BuildProgress{
		ProgressView: ProgressView{
			ID:        m.idGenerator.Generate(),
			Name:      name,
			StartTime: time.Now(),
			State:     topology.StateIdle.String(),
		},
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	m.progress = append(m.progress, p)

	return p
}

// Router returns the HTTP routes of the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/fabrics", m.listFabrics)
	r.HandleFunc("/api/fabric/{fabric}/controllers", m.listControllers)
	r.HandleFunc("/api/fabric/{fabric}/controller/{name}",
		m.controllerDetails)
	r.HandleFunc("/api/fabric/{fabric}/field/{json}", m.fieldValue)
	r.HandleFunc("/api/fabric/{fabric}/clusters", m.clusterTree)
	r.HandleFunc("/api/fabric/{fabric}/endpoints", m.listEndpoints)
	r.HandleFunc("/api/fabric/{fabric}/destinations/{class}",
		m.destinations)
	r.HandleFunc("/api/fabric/{fabric}/address/{addr}", m.homeOf)
	r.HandleFunc("/api/progress", m.listProgress)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	return r
}

// StartServer starts serving in the background and returns the URL of the
// server.
func (m *Monitor) StartServer() (string, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", m.portNumber))
	if err != nil {
		return "", err
	}

	m.lock.Lock()
	m.server = &http.Server{
		Handler:           m.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	m.url = fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	server := m.server
	m.lock.Unlock()

	fmt.Fprintf(os.Stderr, "Monitoring fabrics with %s\n", m.url)

	go func() {
		if err := server.Serve(listener); err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "Monitoring server stopped: %v\n", err)
		}
	}()

	return m.url, nil
}

// OpenInBrowser opens the fabric list of a started server.
func (m *Monitor) OpenInBrowser() error {
	m.lock.Lock()
	url := m.url
	m.lock.Unlock()

	if url == "" {
		return fmt.Errorf("the monitoring server is not started")
	}

	return browser.OpenURL(url + "/api/fabrics")
}

// Shutdown stops the server.
func (m *Monitor) Shutdown(ctx context.Context) error {
	m.lock.Lock()
	server := m.server
	m.lock.Unlock()

	if server == nil {
		return nil
	}

	return server.Shutdown(ctx)
}

// write encodes v as CBOR when the client accepts it and as JSON otherwise.
func write(w http.ResponseWriter, r *http.Request, v any) {
	if strings.Contains(r.Header.Get("Accept"), "application/cbor") {
		data, err := cbor.Marshal(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/cbor")
		_, _ = w.Write(data)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type fabricRsp struct {
	Name          string  `json:"name"`
	Controllers   int     `json:"controllers"`
	CacheLineSize uint64  `json:"cache_line_size"`
	DirBits       int     `json:"dir_bits"`
	L2Bits        int     `json:"l2_bits"`
	FabricFreq    float64 `json:"fabric_freq"`
}

func (m *Monitor) listFabrics(w http.ResponseWriter, r *http.Request) {
	m.lock.Lock()
	defer m.lock.Unlock()

	rsp := make([]fabricRsp, 0, len(m.fabrics))
	for _, f := range m.fabrics {
		rsp = append(rsp, fabricRsp{
			Name:          f.Name,
			Controllers:   f.Domain.Len(),
			CacheLineSize: f.Partitioner.CacheLineSize(),
			DirBits:       f.Partitioner.DirBits,
			L2Bits:        f.Partitioner.L2Bits,
			FabricFreq:    float64(f.FabricClock.Freq()),
		})
	}

	write(w, r, rsp)
}

func (m *Monitor) findFabricOr404(
	w http.ResponseWriter,
	r *http.Request,
) *topology.Result {
	name := mux.Vars(r)["fabric"]

	m.lock.Lock()
	defer m.lock.Unlock()

	for _, f := range m.fabrics {
		if f.Name == name {
			return f
		}
	}

	http.Error(w, "Fabric not found", http.StatusNotFound)

	return nil
}

func (m *Monitor) findControllerOr404(
	w http.ResponseWriter,
	f *topology.Result,
	name string,
) controller.Controller {
	c := f.Domain.ControllerByName(name)
	if c == nil {
		http.Error(w, "Controller not found", http.StatusNotFound)
	}

	return c
}

type controllerRsp struct {
	Version   int    `json:"version"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	TBEsInUse int    `json:"tbes_in_use"`
	TBEs      int    `json:"tbes"`
	Sequencer string `json:"sequencer,omitempty"`
}

func (m *Monitor) listControllers(w http.ResponseWriter, r *http.Request) {
	f := m.findFabricOr404(w, r)
	if f == nil {
		return
	}

	rsp := []controllerRsp{}
	for _, c := range f.Domain.Controllers() {
		entry := controllerRsp{
			Version:   c.Version(),
			Name:      c.Name(),
			Kind:      c.Kind().String(),
			TBEsInUse: c.TBEs().Outstanding(),
			TBEs:      c.TBEs().Capacity(),
		}

		if seq := c.Sequencer(); seq != nil {
			entry.Sequencer = seq.Name()
		}

		rsp = append(rsp, entry)
	}

	write(w, r, rsp)
}

func (m *Monitor) controllerDetails(w http.ResponseWriter, r *http.Request) {
	f := m.findFabricOr404(w, r)
	if f == nil {
		return
	}

	c := m.findControllerOr404(w, f, mux.Vars(r)["name"])
	if c == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(c)
	serializer.SetMaxDepth(1)

	if err := serializer.Serialize(w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type fieldReq struct {
	CompName  string `json:"comp_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) fieldValue(w http.ResponseWriter, r *http.Request) {
	f := m.findFabricOr404(w, r)
	if f == nil {
		return
	}

	req := fieldReq{}
	if err := json.Unmarshal([]byte(mux.Vars(r)["json"]), &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c := m.findControllerOr404(w, f, req.CompName)
	if c == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(c)
	serializer.SetMaxDepth(1)

	err := serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := serializer.Serialize(w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type clusterRsp struct {
	Name        string        `json:"name"`
	Controllers []string      `json:"controllers"`
	Clusters    []*clusterRsp `json:"clusters,omitempty"`
}

func clusterTreeOf(c *cluster.Cluster) *clusterRsp {
	rsp := &clusterRsp{Name: c.Name(), Controllers: []string{}}

	for _, ctrl := range c.Controllers() {
		rsp.Controllers = append(rsp.Controllers, ctrl.Name())
	}

	for _, sub := range c.Subclusters() {
		rsp.Clusters = append(rsp.Clusters, clusterTreeOf(sub))
	}

	return rsp
}

func (m *Monitor) clusterTree(w http.ResponseWriter, r *http.Request) {
	f := m.findFabricOr404(w, r)
	if f == nil {
		return
	}

	write(w, r, clusterTreeOf(f.TopCluster))
}

type endpointRsp struct {
	Role  string `json:"role"`
	ID    int    `json:"id"`
	VNet  int    `json:"vnet"`
	Class string `json:"class"`
	Port  string `json:"port"`
}

func (m *Monitor) listEndpoints(w http.ResponseWriter, r *http.Request) {
	f := m.findFabricOr404(w, r)
	if f == nil {
		return
	}

	rsp := []endpointRsp{}
	for _, ep := range f.Network.Endpoints() {
		rsp = append(rsp, endpointRsp{
			Role:  ep.Role.String(),
			ID:    ep.ID,
			VNet:  ep.VNet,
			Class: ep.Class.String(),
			Port:  ep.Port.FullName(),
		})
	}

	write(w, r, rsp)
}

func (m *Monitor) destinations(w http.ResponseWriter, r *http.Request) {
	f := m.findFabricOr404(w, r)
	if f == nil {
		return
	}

	name := mux.Vars(r)["class"]
	for _, c := range noc.MessageClasses {
		if strings.EqualFold(c.String(), name) {
			write(w, r, f.Network.DestinationList(c))
			return
		}
	}

	http.Error(w, "Unknown message class "+name, http.StatusBadRequest)
}

type homeRsp struct {
	Address   string `json:"address"`
	Line      string `json:"line"`
	Directory string `json:"directory"`
	L2        string `json:"l2"`
}

func (m *Monitor) homeOf(w http.ResponseWriter, r *http.Request) {
	f := m.findFabricOr404(w, r)
	if f == nil {
		return
	}

	var addr uint64
	if _, err := fmt.Sscan(mux.Vars(r)["addr"], &addr); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p := f.Partitioner
	write(w, r, homeRsp{
		Address:   fmt.Sprintf("0x%x", addr),
		Line:      fmt.Sprintf("0x%x", p.LineAddress(addr)),
		Directory: f.DirControllers[p.DirectoryIndex(addr)].Name(),
		L2:        f.Domain.L2s[p.L2Index(addr)].Name(),
	})
}

func (m *Monitor) listProgress(w http.ResponseWriter, r *http.Request) {
	m.lock.Lock()
	defer m.lock.Unlock()

	rsp := make([]ProgressView, 0, len(m.progress))
	for _, p := range m.progress {
		rsp = append(rsp, p.Snapshot())
	}

	write(w, r, rsp)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, r *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	memInfo, err := proc.MemoryInfo()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	write(w, r, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memInfo.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, r *http.Request) {
	buf := bytes.NewBuffer(nil)

	if err := pprof.StartCPUProfile(buf); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(time.Second)
	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	write(w, r, prof)
}
