package mmu

import (
	"fmt"

	"github.com/sarchlab/pagingsim/mem/vm"
	"github.com/sarchlab/pagingsim/mem/vm/frame"
	"github.com/sarchlab/pagingsim/mem/vm/tlb"
)

// A FaultHandler makes a page resident, reclaiming a frame from a victim if
// no frame is free.
//
// Frames are always bound in the allocator before the page table entry goes
// valid, and page table entries are always invalidated before their frame is
// freed. Evicted pages are dropped: there is no backing store, so a modified
// victim is not written back anywhere.
type FaultHandler struct {
	frames    frame.Allocator
	tlb       *tlb.Comp
	residency residency
	onEvict   func(before vm.Page)
}

// HandleFault binds a frame to the page and installs it. It returns the
// frame, and the victim page if one had to be evicted.
func (h *FaultHandler) HandleFault(
	pid vm.PID,
	vpn uint64,
) (f uint64, victim vm.Page, evicted bool, err error) {
	if h.frames.Capacity() == 0 {
		return 0, vm.Page{}, false, vm.ErrNoFrameCapacity
	}

	table, found := h.residency.tableOf(pid)
	if !found {
		return 0, vm.Page{}, false,
			fmt.Errorf("process %d: %w", pid, vm.ErrUnknownProcess)
	}

	if bound, found := h.frames.FrameOf(pid, vpn); found {
		return 0, vm.Page{}, false, fmt.Errorf(
			"process %d page %d already holds frame %d: %w",
			pid, vpn, bound, vm.ErrDuplicateFrameBinding)
	}

	f, ok := h.frames.Allocate(pid, vpn)
	if !ok {
		victim, err = h.evict(pid)
		if err != nil {
			return 0, vm.Page{}, false, err
		}

		evicted = true

		f, ok = h.frames.Allocate(pid, vpn)
		if !ok {
			return 0, victim, evicted, fmt.Errorf(
				"frame %d freed by eviction is not free: %w",
				victim.Frame, vm.ErrDuplicateFrameBinding)
		}
	}

	if err := table.Install(vpn, f); err != nil {
		if freeErr := h.frames.Free(f); freeErr != nil {
			return 0, victim, evicted, freeErr
		}

		return 0, victim, evicted,
			fmt.Errorf("%v: %w", err, vm.ErrDuplicateFrameBinding)
	}

	h.residency.policyOf(pid).OnLoad(pid, vpn, f)

	return f, victim, evicted, nil
}

func (h *FaultHandler) evict(pid vm.PID) (vm.Page, error) {
	v, ok := h.residency.victimPolicyFor(pid).SelectVictim()
	if !ok {
		return vm.Page{}, vm.ErrNoFrameCapacity
	}

	occPID, occVPN, occupied := h.frames.OccupantOf(v.Frame)
	if !occupied || occPID != v.PID || occVPN != v.VPN {
		return vm.Page{}, fmt.Errorf(
			"victim process %d page %d does not occupy frame %d: %w",
			v.PID, v.VPN, v.Frame, vm.ErrDuplicateFrameBinding)
	}

	before, err := h.release(v.PID, v.VPN, v.Frame)
	if err != nil {
		return before, err
	}

	if h.onEvict != nil {
		h.onEvict(before)
	}

	return before, nil
}

// release invalidates the page, shoots down its translation and frees its
// frame, in this order.
func (h *FaultHandler) release(
	pid vm.PID,
	vpn uint64,
	f uint64,
) (vm.Page, error) {
	table, found := h.residency.tableOf(pid)
	if !found {
		return vm.Page{}, fmt.Errorf("frame %d held by unknown process %d: %w",
			f, pid, vm.ErrDuplicateFrameBinding)
	}

	before, err := table.Invalidate(vpn)
	if err != nil {
		return vm.Page{}, fmt.Errorf("%v: %w", err, vm.ErrDuplicateFrameBinding)
	}

	if before.Frame != f {
		return before, fmt.Errorf(
			"process %d page %d maps frame %d, allocator says %d: %w",
			pid, vpn, before.Frame, f, vm.ErrDuplicateFrameBinding)
	}

	if h.tlb != nil {
		h.tlb.Invalidate(pid, vpn)
	}

	if err := h.frames.Free(f); err != nil {
		return before, err
	}

	return before, nil
}
