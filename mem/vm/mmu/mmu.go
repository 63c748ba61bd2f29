// Package mmu provides the memory management unit that owns the page tables
// of all the processes, the physical frames and the replacement state.
package mmu

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sarchlab/pagingsim/mem/vm"
	"github.com/sarchlab/pagingsim/mem/vm/addresstranslator"
	"github.com/sarchlab/pagingsim/mem/vm/frame"
	"github.com/sarchlab/pagingsim/mem/vm/replacement"
	"github.com/sarchlab/pagingsim/mem/vm/tlb"
	"github.com/sarchlab/pagingsim/sim/hooking"
)

// Scope decides which resident pages a fault may take its victim from.
type Scope int

// A list of all scopes.
const (
	// ScopeGlobal uses one replacement policy over all frames.
	ScopeGlobal Scope = iota

	// ScopeLocal gives every process its own replacement policy. A fault
	// evicts one of the faulting process's own pages, or, if the process has
	// none, a page of the process holding the most frames.
	ScopeLocal
)

func (s Scope) String() string {
	switch s {
	case ScopeGlobal:
		return "global"
	case ScopeLocal:
		return "local"
	default:
		return fmt.Sprintf("Scope(%d)", int(s))
	}
}

// ParseScope converts "global" or "local" into a Scope.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(s) {
	case "global", "":
		return ScopeGlobal, nil
	case "local":
		return ScopeLocal, nil
	default:
		return ScopeGlobal, fmt.Errorf("unknown replacement scope %q", s)
	}
}

// ProcessInfo summarizes a registered process.
type ProcessInfo struct {
	PID      vm.PID `json:"pid"`
	NumPages uint64 `json:"num_pages"`
	PageSize uint64 `json:"page_size"`
	Resident int    `json:"resident"`
}

type process struct {
	table  vm.PageTable
	policy replacement.Policy
}

// Comp is the default mmu implementation.
//
// All the operations are serialized by a single lock, so fault handling
// always runs as one critical section over the page tables, the frame
// allocator, the replacement policies and the TLB. Hooks run while the lock
// is held and must not call back into the MMU.
type Comp struct {
	hooking.HookableBase
	sync.Mutex

	name string

	frames       frame.Allocator
	translator   *addresstranslator.Comp
	tlb          *tlb.Comp
	faultHandler *FaultHandler

	policyKind   replacement.Kind
	scope        Scope
	globalPolicy replacement.Policy
	processes    map[vm.PID]*process

	seq uint64
}

// Name returns the name of the MMU.
func (c *Comp) Name() string {
	return c.name
}

// TLB returns the TLB of the MMU, or nil if translations are not cached.
func (c *Comp) TLB() *tlb.Comp {
	return c.tlb
}

// RegisterProcess creates the page table of a process. All pages start
// invalid.
func (c *Comp) RegisterProcess(pid vm.PID, numPages, pageSize uint64) error {
	c.Lock()
	defer c.Unlock()

	if _, found := c.processes[pid]; found {
		return fmt.Errorf("process %d: %w", pid, vm.ErrProcessExists)
	}

	table, err := vm.NewPageTable(pid, numPages, pageSize)
	if err != nil {
		return err
	}

	p := &process{table: table}
	if c.scope == ScopeLocal {
		p.policy = replacement.New(c.policyKind)
	}

	c.processes[pid] = p

	c.invokeConfigHook(fmt.Sprintf(
		"register process %d with %d pages of %d bytes",
		pid, numPages, pageSize))

	return nil
}

// DeregisterProcess destroys the page table of a process and returns all its
// frames. An error means the page tables and the allocator disagree. Some
// frames may already be freed and the process stays registered, so the MMU
// must not be used afterwards.
func (c *Comp) DeregisterProcess(pid vm.PID) error {
	c.Lock()
	defer c.Unlock()

	p, found := c.processes[pid]
	if !found {
		return fmt.Errorf("process %d: %w", pid, vm.ErrUnknownProcess)
	}

	for _, page := range p.table.Entries() {
		if !page.Valid {
			continue
		}

		if _, err := c.faultHandler.release(pid, page.VPN, page.Frame); err != nil {
			return err
		}

		c.policyOf(pid).Remove(pid, page.VPN)
	}

	if c.tlb != nil {
		c.tlb.Flush(pid)
	}

	delete(c.processes, pid)

	c.invokeConfigHook(fmt.Sprintf("deregister process %d", pid))

	return nil
}

// Access translates the virtual address of a process, serving a page fault
// if the page is not resident. An address beyond the pages of the process
// produces a fault result with the reason FaultNoSuchPage, together with an
// error wrapping vm.ErrInvalidPage.
func (c *Comp) Access(
	pid vm.PID,
	vAddr uint64,
	kind vm.AccessKind,
) (vm.AccessResult, error) {
	c.Lock()
	defer c.Unlock()

	result := vm.AccessResult{PID: pid, VAddr: vAddr, Kind: kind}

	p, found := c.processes[pid]
	if !found {
		return result, fmt.Errorf("process %d: %w", pid, vm.ErrUnknownProcess)
	}

	c.seq++
	result.Seq = c.seq

	t, err := c.translator.Translate(p.table, vAddr, kind)
	if err != nil {
		return result, err
	}

	result.VPN = t.VPN
	result.Offset = t.Offset
	result.Outcome = t.Outcome
	result.Reason = t.Reason
	result.Translated = t.Translated
	result.Frame = t.Frame
	result.PAddr = t.PAddr

	switch {
	case t.Reason == vm.FaultNoSuchPage:
		c.invokeAccessHook(result)

		return result, fmt.Errorf(
			"process %d address 0x%x (page %d of %d): %w",
			pid, vAddr, t.VPN, p.table.NumPages(), vm.ErrInvalidPage)
	case t.Reason == vm.FaultNotResident:
		if err := c.serveFault(p, kind, &result); err != nil {
			return result, err
		}
	default:
		c.policyOf(pid).OnAccess(pid, t.VPN)
	}

	c.invokeAccessHook(result)

	return result, nil
}

func (c *Comp) serveFault(
	p *process,
	kind vm.AccessKind,
	result *vm.AccessResult,
) error {
	pid := p.table.PID()

	f, victim, evicted, err := c.faultHandler.HandleFault(pid, result.VPN)
	if err != nil {
		return err
	}

	if err := p.table.MarkReferenced(result.VPN); err != nil {
		return err
	}

	if kind == vm.AccessWrite {
		if err := p.table.MarkModified(result.VPN); err != nil {
			return err
		}
	}

	if c.tlb != nil {
		c.tlb.Insert(pid, result.VPN, f)
	}

	result.Translated = true
	result.Frame = f
	result.PAddr = f*p.table.PageSize() + result.Offset
	result.Evicted = evicted
	result.Victim = victim

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    hooking.HookPosFault,
		Item:   *result,
	})

	return nil
}

// Preload makes a page resident without accessing it. It is used to set up
// the initial state of a simulation.
func (c *Comp) Preload(pid vm.PID, vpn uint64) (uint64, error) {
	c.Lock()
	defer c.Unlock()

	p, found := c.processes[pid]
	if !found {
		return 0, fmt.Errorf("process %d: %w", pid, vm.ErrUnknownProcess)
	}

	page, err := p.table.Lookup(vpn)
	if err != nil {
		return 0, err
	}

	if page.Valid {
		return 0, fmt.Errorf("process %d page %d: %w",
			pid, vpn, vm.ErrPageAlreadyValid)
	}

	f, _, _, err := c.faultHandler.HandleFault(pid, vpn)

	return f, err
}

// SetReplacementPolicy replaces the replacement policy. The new policy
// starts with the currently resident pages, loaded in frame order.
func (c *Comp) SetReplacementPolicy(kind replacement.Kind) {
	c.Lock()
	defer c.Unlock()

	c.policyKind = kind
	c.resetPolicies()

	c.invokeConfigHook("replacement policy " + kind.String())
}

// PolicyKind returns the replacement policy in use.
func (c *Comp) PolicyKind() replacement.Kind {
	c.Lock()
	defer c.Unlock()

	return c.policyKind
}

// Scope returns the replacement scope.
func (c *Comp) Scope() Scope {
	return c.scope
}

func (c *Comp) resetPolicies() {
	if c.scope == ScopeGlobal {
		c.globalPolicy = replacement.New(c.policyKind)
	} else {
		for _, p := range c.processes {
			p.policy = replacement.New(c.policyKind)
		}
	}

	for _, f := range c.frames.Frames() {
		if f.Occupied {
			c.policyOf(f.PID).OnLoad(f.PID, f.VPN, f.Number)
		}
	}
}

// SetFrameCapacity changes the number of frames. When shrinking, the pages
// that occupy the removed frames lose their frames.
func (c *Comp) SetFrameCapacity(n int) error {
	c.Lock()
	defer c.Unlock()

	if n <= 0 {
		return fmt.Errorf("frame capacity %d: %w", n, vm.ErrNoFrameCapacity)
	}

	for _, f := range c.frames.Frames() {
		if f.Number < uint64(n) || !f.Occupied {
			continue
		}

		before, err := c.faultHandler.release(f.PID, f.VPN, f.Number)
		if err != nil {
			return err
		}

		c.policyOf(f.PID).Remove(f.PID, f.VPN)
		c.invokeEvictHook(before)
	}

	c.frames.Resize(n)

	c.invokeConfigHook(fmt.Sprintf("frame capacity %d", n))

	return nil
}

// FrameCapacity returns the number of frames.
func (c *Comp) FrameCapacity() int {
	return c.frames.Capacity()
}

// ClearReferencedBits clears the referenced bit of every page, as an
// operating system does periodically.
func (c *Comp) ClearReferencedBits() {
	c.Lock()
	defer c.Unlock()

	for _, p := range c.processes {
		p.table.ClearReferenced()
	}
}

// SnapshotPageTable returns the pages of a process ordered by page number.
func (c *Comp) SnapshotPageTable(pid vm.PID) ([]vm.Page, error) {
	c.Lock()
	defer c.Unlock()

	p, found := c.processes[pid]
	if !found {
		return nil, fmt.Errorf("process %d: %w", pid, vm.ErrUnknownProcess)
	}

	return p.table.Entries(), nil
}

// SnapshotFrames returns all the frames ordered by frame number.
func (c *Comp) SnapshotFrames() []frame.Frame {
	c.Lock()
	defer c.Unlock()

	return c.frames.Frames()
}

// Residents lists the resident pages in the order the replacement policy
// would evict them. With a local scope the lists of the processes are
// concatenated in PID order.
func (c *Comp) Residents() []replacement.Resident {
	c.Lock()
	defer c.Unlock()

	if c.scope == ScopeGlobal {
		return c.globalPolicy.Residents()
	}

	var residents []replacement.Resident
	for _, pid := range c.sortedPIDs() {
		residents = append(residents, c.processes[pid].policy.Residents()...)
	}

	return residents
}

// Processes lists the registered processes ordered by PID.
func (c *Comp) Processes() []ProcessInfo {
	c.Lock()
	defer c.Unlock()

	infos := make([]ProcessInfo, 0, len(c.processes))
	for _, pid := range c.sortedPIDs() {
		t := c.processes[pid].table

		resident := 0
		for _, page := range t.Entries() {
			if page.Valid {
				resident++
			}
		}

		infos = append(infos, ProcessInfo{
			PID:      pid,
			NumPages: t.NumPages(),
			PageSize: t.PageSize(),
			Resident: resident,
		})
	}

	return infos
}

func (c *Comp) sortedPIDs() []vm.PID {
	pids := make([]vm.PID, 0, len(c.processes))
	for pid := range c.processes {
		pids = append(pids, pid)
	}

	sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })

	return pids
}

func (c *Comp) tableOf(pid vm.PID) (vm.PageTable, bool) {
	p, found := c.processes[pid]
	if !found {
		return nil, false
	}

	return p.table, true
}

func (c *Comp) policyOf(pid vm.PID) replacement.Policy {
	if c.scope == ScopeGlobal {
		return c.globalPolicy
	}

	p, found := c.processes[pid]
	if !found {
		panic(fmt.Sprintf("no policy for unknown process %d", pid))
	}

	return p.policy
}

func (c *Comp) victimPolicyFor(pid vm.PID) replacement.Policy {
	own := c.policyOf(pid)
	if c.scope == ScopeGlobal || len(own.Residents()) > 0 {
		return own
	}

	var (
		largest     replacement.Policy
		largestSize int
	)

	for _, other := range c.sortedPIDs() {
		p := c.processes[other].policy

		size := len(p.Residents())
		if size > largestSize {
			largest = p
			largestSize = size
		}
	}

	if largest == nil {
		return own
	}

	return largest
}

func (c *Comp) invokeAccessHook(result vm.AccessResult) {
	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    hooking.HookPosAccess,
		Item:   result,
	})
}

// invokeEvictHook reports an evicted page. The detail is the sequence number
// of the access being served, or of the last access when the eviction comes
// from a reconfiguration.
func (c *Comp) invokeEvictHook(before vm.Page) {
	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    hooking.HookPosEvict,
		Item:   before,
		Detail: c.seq,
	})
}

func (c *Comp) invokeConfigHook(what string) {
	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    hooking.HookPosConfig,
		Item:   what,
	})
}
