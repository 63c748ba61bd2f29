package mmu

import (
	"fmt"

	"github.com/sarchlab/pagingsim/mem/vm"
	"github.com/sarchlab/pagingsim/mem/vm/replacement"
)

// CheckInvariants verifies that the page tables, the frame allocator, the
// replacement state and the TLB all agree. It returns an error wrapping
// vm.ErrDuplicateFrameBinding describing the first disagreement found.
func (c *Comp) CheckInvariants() error {
	c.Lock()
	defer c.Unlock()

	if err := c.checkPagesAgainstFrames(); err != nil {
		return err
	}

	if err := c.checkFramesAgainstPages(); err != nil {
		return err
	}

	if err := c.checkPolicies(); err != nil {
		return err
	}

	return c.checkTLB()
}

func (c *Comp) checkPagesAgainstFrames() error {
	boundBy := make(map[uint64]vm.Page)

	for _, pid := range c.sortedPIDs() {
		for _, page := range c.processes[pid].table.Entries() {
			if !page.Valid {
				continue
			}

			if other, taken := boundBy[page.Frame]; taken {
				return fmt.Errorf(
					"frame %d mapped by process %d page %d and "+
						"process %d page %d: %w",
					page.Frame, other.PID, other.VPN, page.PID, page.VPN,
					vm.ErrDuplicateFrameBinding)
			}

			boundBy[page.Frame] = page

			occPID, occVPN, occupied := c.frames.OccupantOf(page.Frame)
			if !occupied || occPID != page.PID || occVPN != page.VPN {
				return fmt.Errorf(
					"process %d page %d maps frame %d the allocator "+
						"does not assign to it: %w",
					page.PID, page.VPN, page.Frame,
					vm.ErrDuplicateFrameBinding)
			}
		}
	}

	return nil
}

func (c *Comp) checkFramesAgainstPages() error {
	for _, f := range c.frames.Frames() {
		if !f.Occupied {
			continue
		}

		p, found := c.processes[f.PID]
		if !found {
			return fmt.Errorf("frame %d held by unknown process %d: %w",
				f.Number, f.PID, vm.ErrDuplicateFrameBinding)
		}

		page, err := p.table.Lookup(f.VPN)
		if err != nil {
			return fmt.Errorf("frame %d: %v: %w",
				f.Number, err, vm.ErrDuplicateFrameBinding)
		}

		if !page.Valid || page.Frame != f.Number {
			return fmt.Errorf(
				"frame %d held by process %d page %d, "+
					"which does not map it: %w",
				f.Number, f.PID, f.VPN, vm.ErrDuplicateFrameBinding)
		}
	}

	return nil
}

func (c *Comp) checkPolicies() error {
	policies := []replacement.Policy{c.globalPolicy}
	if c.scope == ScopeLocal {
		policies = policies[:0]
		for _, pid := range c.sortedPIDs() {
			policies = append(policies, c.processes[pid].policy)
		}
	}

	tracked := 0

	for _, policy := range policies {
		for _, r := range policy.Residents() {
			tracked++

			occPID, occVPN, occupied := c.frames.OccupantOf(r.Frame)
			if !occupied || occPID != r.PID || occVPN != r.VPN {
				return fmt.Errorf(
					"%s policy tracks process %d page %d in frame %d, "+
						"which it does not occupy: %w",
					policy.Kind(), r.PID, r.VPN, r.Frame,
					vm.ErrDuplicateFrameBinding)
			}
		}
	}

	occupied := c.frames.Capacity() - c.frames.NumFree()
	if tracked != occupied {
		return fmt.Errorf(
			"replacement state tracks %d pages, %d frames are occupied: %w",
			tracked, occupied, vm.ErrDuplicateFrameBinding)
	}

	return nil
}

func (c *Comp) checkTLB() error {
	if c.tlb == nil {
		return nil
	}

	for _, e := range c.tlb.Entries() {
		p, found := c.processes[e.PID]
		if !found {
			return fmt.Errorf(
				"tlb caches page %d of unknown process %d: %w",
				e.VPN, e.PID, vm.ErrDuplicateFrameBinding)
		}

		page, err := p.table.Lookup(e.VPN)
		if err != nil || !page.Valid || page.Frame != e.Frame {
			return fmt.Errorf(
				"tlb maps process %d page %d to frame %d, "+
					"the page table does not: %w",
				e.PID, e.VPN, e.Frame, vm.ErrDuplicateFrameBinding)
		}
	}

	return nil
}
