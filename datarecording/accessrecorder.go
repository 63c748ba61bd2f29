package datarecording

import (
	"os"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sarchlab/pagingsim/mem/vm"
	"github.com/sarchlab/pagingsim/sim/hooking"
)

// The tables written by an AccessRecorder.
const (
	RunInfoTable  = "run_info"
	AccessTable   = "access"
	EvictionTable = "eviction"
	ConfigTable   = "config"
)

// RunInfo is a property of a simulation run.
type RunInfo struct {
	RunID    string
	Property string
	Value    string
}

// AccessEntry is a row of the access table.
type AccessEntry struct {
	RunID      string
	Seq        uint64
	PID        uint32
	VAddr      uint64
	VPN        uint64
	Offset     uint64
	Kind       string
	Outcome    string
	Reason     string
	Translated bool
	Frame      uint64
	PAddr      uint64
	Evicted    bool
	VictimPID  uint32
	VictimVPN  uint64
}

// EvictionEntry is a row of the eviction table. Seq is the sequence number
// of the access that caused the eviction.
type EvictionEntry struct {
	RunID      string
	Seq        uint64
	PID        uint32
	VPN        uint64
	Frame      uint64
	Referenced bool
	Modified   bool
}

// ConfigEntry is a row of the config table.
type ConfigEntry struct {
	RunID  string
	Seq    uint64
	Change string
}

const timeLayout = "2006-01-02 15:04:05.000000000"

// AccessRecorder is a hook that records the accesses, the evictions and the
// configuration changes of an MMU.
type AccessRecorder struct {
	recorder DataRecorder
	runID    string
	lastSeq  uint64
}

// NewAccessRecorder creates the tables of a run in the recorder. Every run
// gets a unique ID, so several runs can share a database.
func NewAccessRecorder(recorder DataRecorder) *AccessRecorder {
	r := &AccessRecorder{
		recorder: recorder,
		runID:    xid.New().String(),
	}

	tables := make(map[string]bool)
	for _, t := range recorder.ListTables() {
		tables[t] = true
	}

	samples := []struct {
		name  string
		entry any
	}{
		{RunInfoTable, RunInfo{}},
		{AccessTable, AccessEntry{}},
		{EvictionTable, EvictionEntry{}},
		{ConfigTable, ConfigEntry{}},
	}

	for _, s := range samples {
		if !tables[s.name] {
			recorder.CreateTable(s.name, s.entry)
		}
	}

	return r
}

// NewAccessReader opens a SQLite database written by an AccessRecorder, with
// all its tables mapped.
func NewAccessReader(dbFilename string) DataReader {
	r := NewReader(dbFilename)
	r.MapTable(RunInfoTable, RunInfo{})
	r.MapTable(AccessTable, AccessEntry{})
	r.MapTable(EvictionTable, EvictionEntry{})
	r.MapTable(ConfigTable, ConfigEntry{})

	return r
}

// RunID returns the ID of the run that the recorder records.
func (r *AccessRecorder) RunID() string {
	return r.runID
}

// Start records the start time and the command line of the run.
func (r *AccessRecorder) Start(scenarioName string) {
	r.insertInfo("Start Time", time.Now().Format(timeLayout))
	r.insertInfo("Command", strings.Join(os.Args, " "))
	r.insertInfo("Scenario", scenarioName)
}

// End records the end time of the run and flushes the recorder.
func (r *AccessRecorder) End() {
	r.insertInfo("End Time", time.Now().Format(timeLayout))
	r.recorder.Flush()
}

func (r *AccessRecorder) insertInfo(property, value string) {
	r.recorder.InsertData(RunInfoTable, RunInfo{
		RunID:    r.runID,
		Property: property,
		Value:    value,
	})
}

// Func records the item of the hook context.
func (r *AccessRecorder) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case hooking.HookPosAccess:
		result := ctx.Item.(vm.AccessResult)
		r.lastSeq = result.Seq
		r.recorder.InsertData(AccessTable, r.accessEntry(result))
	case hooking.HookPosEvict:
		page := ctx.Item.(vm.Page)

		seq, ok := ctx.Detail.(uint64)
		if !ok {
			seq = r.lastSeq
		}

		r.recorder.InsertData(EvictionTable, EvictionEntry{
			RunID:      r.runID,
			Seq:        seq,
			PID:        uint32(page.PID),
			VPN:        page.VPN,
			Frame:      page.Frame,
			Referenced: page.Referenced,
			Modified:   page.Modified,
		})
	case hooking.HookPosConfig:
		r.recorder.InsertData(ConfigTable, ConfigEntry{
			RunID:  r.runID,
			Seq:    r.lastSeq,
			Change: ctx.Item.(string),
		})
	}
}

func (r *AccessRecorder) accessEntry(result vm.AccessResult) AccessEntry {
	e := AccessEntry{
		RunID:      r.runID,
		Seq:        result.Seq,
		PID:        uint32(result.PID),
		VAddr:      result.VAddr,
		VPN:        result.VPN,
		Offset:     result.Offset,
		Kind:       result.Kind.String(),
		Outcome:    result.Outcome.String(),
		Reason:     result.Reason.String(),
		Translated: result.Translated,
		Frame:      result.Frame,
		PAddr:      result.PAddr,
		Evicted:    result.Evicted,
	}

	if result.Evicted {
		e.VictimPID = uint32(result.Victim.PID)
		e.VictimVPN = result.Victim.VPN
	}

	return e
}
