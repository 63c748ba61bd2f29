// Package monitoring turns a paging simulation into a web server that allows
// external tools to inspect and drive it.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/rs/xid"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/pagingsim/mem/vm"
	"github.com/sarchlab/pagingsim/mem/vm/accesssim"
	"github.com/sarchlab/pagingsim/mem/vm/mmu"
	"github.com/sarchlab/pagingsim/mem/vm/replacement"
	"github.com/sarchlab/pagingsim/sim/hooking"
)

// A Component is anything the monitor can list and serialize.
type Component interface {
	Name() string
}

// Monitor exposes an MMU and the simulator that drives it over HTTP.
type Monitor struct {
	mmu        *mmu.Comp
	simulator  *accesssim.Simulator
	counter    *hooking.OutcomeCounter
	components []Component
	portNumber int

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterMMU sets the MMU to monitor. The MMU and its TLB become
// components, and an outcome counter is hooked to the MMU.
func (m *Monitor) RegisterMMU(c *mmu.Comp) {
	m.mmu = c
	m.RegisterComponent(c)

	if c.TLB() != nil {
		m.RegisterComponent(c.TLB())
	}

	m.counter = hooking.NewOutcomeCounter()
	c.AcceptHook(m.counter)
}

// RegisterSimulator sets the simulator that serves steps and accesses.
func (m *Monitor) RegisterSimulator(s *accesssim.Simulator) {
	m.simulator = s
	m.RegisterComponent(s)
}

// RegisterComponent register a component to be monitored.
func (m *Monitor) RegisterComponent(c Component) {
	m.components = append(m.components, c)
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Replay ticks the simulator every interval until its generator is exhausted
// or ctx is done. A progress bar tracks the replay while it runs.
func (m *Monitor) Replay(
	ctx context.Context,
	interval time.Duration,
	total uint64,
) {
	bar := m.CreateProgressBar(m.simulator.Name(), total)
	defer m.CompleteProgressBar(bar)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for ctx.Err() == nil {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		_, ok, err := m.simulator.Tick()

		switch {
		case !ok:
			return
		case errors.Is(err, vm.ErrInvalidPage):
			bar.IncrementFailed(1)
		case err != nil:
			log.Printf("Replay stopped: %v", err)
			return
		default:
			bar.IncrementFinished(1)
		}
	}
}

// Router returns the handler of all the monitoring endpoints.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/processes", m.listProcesses).Methods("GET")
	r.HandleFunc("/api/page_table/{pid}", m.pageTable).Methods("GET")
	r.HandleFunc("/api/frames", m.listFrames).Methods("GET")
	r.HandleFunc("/api/residents", m.listResidents).Methods("GET")
	r.HandleFunc("/api/tlb", m.listTLBEntries).Methods("GET")
	r.HandleFunc("/api/stats", m.stats).Methods("GET")
	r.HandleFunc("/api/step", m.step).Methods("POST")
	r.HandleFunc("/api/access", m.access).Methods("POST")
	r.HandleFunc("/api/reset", m.reset).Methods("POST")
	r.HandleFunc("/api/policy/{kind}", m.setPolicy).Methods("POST")
	r.HandleFunc("/api/frames/{n}", m.setFrames).Methods("POST")
	r.HandleFunc("/api/clear_referenced", m.clearReferenced).Methods("POST")
	r.HandleFunc("/api/check", m.checkInvariants).Methods("GET")
	r.HandleFunc("/api/list_components", m.listComponents)
	r.HandleFunc("/api/component/{name}", m.listComponentDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	return r
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() string {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	r := m.Router()

	go func() {
		err = http.Serve(listener, r)
		dieOnErr(err)
	}()

	return url
}

func (m *Monitor) listProcesses(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, m.mmu.Processes())
}

func (m *Monitor) pageTable(w http.ResponseWriter, r *http.Request) {
	pid, err := strconv.ParseUint(mux.Vars(r)["pid"], 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	pages, err := m.mmu.SnapshotPageTable(vm.PID(pid))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	writeJSON(w, pages)
}

func (m *Monitor) listFrames(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, m.mmu.SnapshotFrames())
}

func (m *Monitor) listResidents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, m.mmu.Residents())
}

func (m *Monitor) listTLBEntries(w http.ResponseWriter, _ *http.Request) {
	t := m.mmu.TLB()
	if t == nil {
		writeJSON(w, []struct{}{})
		return
	}

	writeJSON(w, t.Entries())
}

type statsRsp struct {
	accesssim.Stats

	HitRate     float64                `json:"hit_rate"`
	FaultRate   float64                `json:"fault_rate"`
	Policy      string                 `json:"policy"`
	Frames      int                    `json:"frames"`
	PerProcess  []hooking.ProcessCount `json:"per_process"`
	Description []string               `json:"description"`
}

func (m *Monitor) stats(w http.ResponseWriter, _ *http.Request) {
	stats := m.simulator.Stats()

	rsp := statsRsp{
		Stats:      stats,
		HitRate:    stats.HitRate(),
		FaultRate:  stats.FaultRate(),
		Policy:     m.mmu.PolicyKind().String(),
		Frames:     m.mmu.FrameCapacity(),
		PerProcess: m.counter.Counts(),
	}

	for _, r := range stats.History {
		rsp.Description = append(rsp.Description, r.String())
	}

	writeJSON(w, rsp)
}

type accessRsp struct {
	Done    bool            `json:"done"`
	Result  vm.AccessResult `json:"result"`
	Message string          `json:"message"`
	Error   string          `json:"error,omitempty"`
}

func (m *Monitor) step(w http.ResponseWriter, _ *http.Request) {
	result, ok, err := m.simulator.Tick()
	if !ok {
		writeJSON(w, accessRsp{Done: true})
		return
	}

	m.writeAccess(w, result, err)
}

func (m *Monitor) access(w http.ResponseWriter, r *http.Request) {
	req := accesssim.Request{}

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := m.simulator.Step(req)
	m.writeAccess(w, result, err)
}

func (m *Monitor) writeAccess(
	w http.ResponseWriter,
	result vm.AccessResult,
	err error,
) {
	rsp := accessRsp{Result: result, Message: result.String()}

	switch {
	case err == nil:
	case errors.Is(err, vm.ErrInvalidPage):
		rsp.Error = err.Error()
	case errors.Is(err, vm.ErrUnknownProcess):
		writeError(w, http.StatusNotFound, err)
		return
	default:
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, rsp)
}

func (m *Monitor) reset(w http.ResponseWriter, _ *http.Request) {
	m.simulator.Reset()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) setPolicy(w http.ResponseWriter, r *http.Request) {
	kind, err := replacement.ParseKind(mux.Vars(r)["kind"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	m.mmu.SetReplacementPolicy(kind)
	writeJSON(w, m.mmu.Residents())
}

func (m *Monitor) setFrames(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(mux.Vars(r)["n"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	err = m.mmu.SetFrameCapacity(n)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, m.mmu.SnapshotFrames())
}

func (m *Monitor) clearReferenced(w http.ResponseWriter, _ *http.Request) {
	m.mmu.ClearReferencedBits()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) checkInvariants(w http.ResponseWriter, _ *http.Request) {
	err := m.mmu.CheckInvariants()
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) listComponents(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(m.components))
	for _, c := range m.components {
		names = append(names, c.Name())
	}

	writeJSON(w, names)
}

func (m *Monitor) listComponentDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	component := m.findComponentOr404(w, name)
	if component == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(component)
	serializer.SetMaxDepth(1)

	serialize(w, component, serializer)
}

type fieldReq struct {
	CompName  string `json:"comp_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	jsonString := mux.Vars(r)["json"]
	req := fieldReq{}

	err := json.Unmarshal([]byte(jsonString), &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	component := m.findComponentOr404(w, req.CompName)
	if component == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(component)
	serializer.SetMaxDepth(1)

	err = serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	serialize(w, component, serializer)
}

// serialize holds the lock of the component, if it has one, while the
// serializer reads its fields. The response is written after the lock is
// released.
func serialize(
	w http.ResponseWriter,
	component Component,
	serializer goseth.Serializer,
) {
	buf := bytes.NewBuffer(nil)

	if locker, ok := component.(sync.Locker); ok {
		locker.Lock()
		err := serializer.Serialize(buf)
		locker.Unlock()
		dieOnErr(err)
	} else {
		dieOnErr(serializer.Serialize(buf))
	}

	_, err := w.Write(buf.Bytes())
	dieOnErr(err)
}

func (m *Monitor) findComponentOr404(
	w http.ResponseWriter,
	name string,
) Component {
	for _, c := range m.components {
		if c.Name() == name {
			return c
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Component not found"))
	dieOnErr(err)

	return nil
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	writeJSON(w, m.progressBars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.WriteHeader(status)
	fmt.Fprintf(w, "Error: %s", err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
