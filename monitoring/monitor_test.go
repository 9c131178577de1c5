package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/fxamacker/cbor/v2"
	"github.com/gorilla/mux"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/cohfabric/coherence/topology"
)

var _ = Describe("Monitor", func() {
	var (
		monitor  *Monitor
		router   *mux.Router
		progress *BuildProgress
	)

	get := func(url string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, url, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		return rec
	}

	BeforeEach(func() {
		monitor = NewMonitor()
		progress = monitor.TrackBuild("Ruby")

		r, err := topology.MakeBuilder().
			WithNumCPUs(2).
			WithNumDirectories(2).
			WithHook(progress).
			Build("Ruby")
		Expect(err).NotTo(HaveOccurred())

		monitor.RegisterFabric(r)
		router = monitor.Router()
	})

	It("should list fabrics", func() {
		rec := get("/api/fabrics")

		Expect(rec.Code).To(Equal(http.StatusOK))

		var rsp []fabricRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp).To(HaveLen(1))
		Expect(rsp[0].Name).To(Equal("Ruby"))
		Expect(rsp[0].Controllers).To(Equal(5))
		Expect(rsp[0].DirBits).To(Equal(1))
	})

	It("should encode CBOR when asked", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/fabrics", nil)
		req.Header.Set("Accept", "application/cbor")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		Expect(rec.Header().Get("Content-Type")).To(Equal("application/cbor"))

		var rsp []fabricRsp
		Expect(cbor.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp).To(HaveLen(1))
		Expect(rsp[0].Name).To(Equal("Ruby"))
	})

	It("should return 404 for an unknown fabric", func() {
		rec := get("/api/fabric/Other/controllers")

		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("should list controllers in version order", func() {
		rec := get("/api/fabric/Ruby/controllers")

		var rsp []controllerRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp).To(HaveLen(5))

		for i, c := range rsp {
			Expect(c.Version).To(Equal(i))
		}

		Expect(rsp[0].Name).To(Equal("Ruby.L1Cntrl[0]"))
		Expect(rsp[0].Sequencer).To(Equal("Ruby.Sequencer[0]"))
		Expect(rsp[0].TBEs).To(Equal(16))
		Expect(rsp[2].Name).To(Equal("Ruby.L2Cntrl[0]"))
		Expect(rsp[2].Sequencer).To(BeEmpty())
	})

	It("should serialize a controller", func() {
		rec := get("/api/fabric/Ruby/controller/Ruby.L1Cntrl[1]")

		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("should return 404 for an unknown controller", func() {
		rec := get("/api/fabric/Ruby/controller/Ruby.L1Cntrl[7]")

		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("should reject a malformed field request", func() {
		rec := get("/api/fabric/Ruby/field/notjson")

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("should return the cluster tree", func() {
		rec := get("/api/fabric/Ruby/clusters")

		var rsp clusterRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.Name).To(Equal("Ruby.TopCluster"))
		Expect(rsp.Controllers).To(Equal([]string{
			"Ruby.L2Cntrl[0]", "Ruby.DirCntrl[0]", "Ruby.DirCntrl[1]",
		}))
		Expect(rsp.Clusters).To(HaveLen(1))
		Expect(rsp.Clusters[0].Controllers).To(Equal([]string{
			"Ruby.L1Cntrl[0]", "Ruby.L1Cntrl[1]",
		}))
	})

	It("should list endpoints", func() {
		rec := get("/api/fabric/Ruby/endpoints")

		var rsp []endpointRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp).To(HaveLen(4*2 + 6 + 4*2))
	})

	It("should return destination lists", func() {
		rec := get("/api/fabric/Ruby/destinations/request")

		var rsp []int
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp).To(ConsistOf(2, 3, 4))
	})

	It("should reject an unknown message class", func() {
		rec := get("/api/fabric/Ruby/destinations/snoop")

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("should find the home of an address", func() {
		rec := get("/api/fabric/Ruby/address/100")

		var rsp homeRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.Line).To(Equal("0x40"))
		Expect(rsp.Directory).To(Equal("Ruby.DirCntrl[1]"))
		Expect(rsp.L2).To(Equal("Ruby.L2Cntrl[0]"))
	})

	It("should report build progress", func() {
		rec := get("/api/progress")

		var rsp []map[string]any
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp).To(HaveLen(1))
		Expect(rsp[0]["name"]).To(Equal("Ruby"))
		Expect(rsp[0]["controllers"]).To(BeNumerically("==", 5))
		Expect(rsp[0]["sequencers"]).To(BeNumerically("==", 2))
		Expect(rsp[0]["done"]).To(BeTrue())

		view := progress.Snapshot()
		Expect(view.State).To(Equal(topology.StateDone.String()))
		Expect(view.Ports).To(BeNumerically(">", 0))
	})

	It("should report resources", func() {
		rec := get("/api/resource")

		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("should replace privileged ports", func() {
		monitor.WithPortNumber(80)

		Expect(monitor.portNumber).To(Equal(0))
	})
})
