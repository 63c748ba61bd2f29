// Package tlb provides a set-associative translation lookaside buffer that
// caches the frames of recently translated pages.
package tlb

import (
	"sync"

	"github.com/sarchlab/pagingsim/mem/vm"
	"github.com/sarchlab/pagingsim/mem/vm/tlb/internal"
)

// An Entry is a valid translation held by the TLB.
type Entry struct {
	Set   int
	Way   int
	PID   vm.PID
	VPN   uint64
	Frame uint64
}

// Comp is a TLB that maintains some page information.
type Comp struct {
	sync.Mutex

	name    string
	numSets int
	numWays int

	Sets []internal.Set
}

// Name returns the name of the TLB.
func (c *Comp) Name() string {
	return c.name
}

// NumEntries returns the number of translations the TLB can hold.
func (c *Comp) NumEntries() int {
	return c.numSets * c.numWays
}

// Reset sets all the entries in the TLB to be invalid.
func (c *Comp) Reset() {
	c.Lock()
	defer c.Unlock()

	c.reset()
}

func (c *Comp) reset() {
	c.Sets = make([]internal.Set, c.numSets)
	for i := 0; i < c.numSets; i++ {
		c.Sets[i] = internal.NewSet(c.numWays)
	}
}

func (c *Comp) setOf(vpn uint64) internal.Set {
	return c.Sets[vpn%uint64(c.numSets)]
}

// Lookup returns the cached frame of a page. A hit makes the entry the most
// recently used one of its set.
func (c *Comp) Lookup(pid vm.PID, vpn uint64) (frame uint64, hit bool) {
	c.Lock()
	defer c.Unlock()

	set := c.setOf(vpn)

	wayID, block, found := set.Lookup(pid, vpn)
	if !found {
		return 0, false
	}

	set.Visit(wayID)

	return block.Frame, true
}

// Insert caches the translation of a page, replacing the least recently used
// entry of its set if needed.
func (c *Comp) Insert(pid vm.PID, vpn, frame uint64) {
	c.Lock()
	defer c.Unlock()

	set := c.setOf(vpn)
	block := internal.Block{PID: pid, VPN: vpn, Frame: frame, Valid: true}

	if wayID, _, found := set.Lookup(pid, vpn); found {
		set.Update(wayID, block)
		set.Visit(wayID)

		return
	}

	wayID, ok := set.Evict()
	if !ok {
		return
	}

	set.Update(wayID, block)
	set.Visit(wayID)
}

// Invalidate removes the translation of a page. It returns false if the page
// was not cached.
func (c *Comp) Invalidate(pid vm.PID, vpn uint64) bool {
	c.Lock()
	defer c.Unlock()

	return c.setOf(vpn).Invalidate(pid, vpn)
}

// Flush removes all the translations of a process and returns how many were
// removed.
func (c *Comp) Flush(pid vm.PID) int {
	c.Lock()
	defer c.Unlock()

	n := 0
	for _, set := range c.Sets {
		n += set.Flush(pid)
	}

	return n
}

// Entries lists the valid translations, ordered by set and way.
func (c *Comp) Entries() []Entry {
	c.Lock()
	defer c.Unlock()

	var entries []Entry

	for setID, set := range c.Sets {
		for wayID, b := range set.Blocks() {
			if !b.Valid {
				continue
			}

			entries = append(entries, Entry{
				Set:   setID,
				Way:   wayID,
				PID:   b.PID,
				VPN:   b.VPN,
				Frame: b.Frame,
			})
		}
	}

	return entries
}
