package hooking

import (
	"sort"
	"sync"

	"github.com/sarchlab/pagingsim/mem/vm"
)

// ProcessCount holds the access counters of one process.
type ProcessCount struct {
	PID       vm.PID `json:"pid"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Faults    uint64 `json:"faults"`
	Evictions uint64 `json:"evictions"`
}

// OutcomeCounter counts the outcome of accesses per process. Evictions are
// counted against the process that lost the page.
type OutcomeCounter struct {
	lock   sync.Mutex
	counts map[vm.PID]*ProcessCount
}

// NewOutcomeCounter creates a new OutcomeCounter
func NewOutcomeCounter() *OutcomeCounter {
	return &OutcomeCounter{
		counts: make(map[vm.PID]*ProcessCount),
	}
}

// Func counts the access or the eviction.
func (c *OutcomeCounter) Func(ctx HookCtx) {
	c.lock.Lock()
	defer c.lock.Unlock()

	switch ctx.Pos {
	case HookPosAccess:
		r, ok := ctx.Item.(vm.AccessResult)
		if !ok {
			return
		}

		count := c.countOf(r.PID)
		switch r.Outcome {
		case vm.OutcomeHit:
			count.Hits++
		case vm.OutcomeMiss:
			count.Misses++
		case vm.OutcomeFault:
			count.Faults++
		}
	case HookPosEvict:
		p, ok := ctx.Item.(vm.Page)
		if !ok {
			return
		}

		c.countOf(p.PID).Evictions++
	}
}

func (c *OutcomeCounter) countOf(pid vm.PID) *ProcessCount {
	count, found := c.counts[pid]
	if !found {
		count = &ProcessCount{PID: pid}
		c.counts[pid] = count
	}

	return count
}

// Counts returns the counters of all the processes seen, ordered by PID.
func (c *OutcomeCounter) Counts() []ProcessCount {
	c.lock.Lock()
	defer c.lock.Unlock()

	counts := make([]ProcessCount, 0, len(c.counts))
	for _, count := range c.counts {
		counts = append(counts, *count)
	}

	sort.Slice(counts, func(i, j int) bool {
		return counts[i].PID < counts[j].PID
	})

	return counts
}
