// Package addresstranslator translates virtual addresses into physical
// addresses using the page table of a process and an optional TLB.
package addresstranslator

import (
	"errors"

	"github.com/sarchlab/pagingsim/mem/vm"
	"github.com/sarchlab/pagingsim/mem/vm/tlb"
)

// A Translation is the result of translating one virtual address.
type Translation struct {
	VPN    uint64
	Offset uint64

	Outcome vm.Outcome
	Reason  vm.FaultReason

	Translated bool
	Frame      uint64
	PAddr      uint64
}

// Decompose splits a virtual address into its page number and offset.
func Decompose(vAddr, pageSize uint64) (vpn, offset uint64) {
	return vAddr / pageSize, vAddr % pageSize
}

// Comp is an AddressTranslator.
type Comp struct {
	name string
	tlb  *tlb.Comp
}

// Name returns the name of the translator.
func (c *Comp) Name() string {
	return c.name
}

// TLB returns the TLB that the translator consults. It is nil if the
// translator works without a TLB.
func (c *Comp) TLB() *tlb.Comp {
	return c.tlb
}

// Translate looks up the page that holds vAddr. A resident page is marked as
// referenced, and as modified if the access writes. Without a TLB every
// resident lookup is a hit.
func (c *Comp) Translate(
	table vm.PageTable,
	vAddr uint64,
	kind vm.AccessKind,
) (Translation, error) {
	pageSize := table.PageSize()
	vpn, offset := Decompose(vAddr, pageSize)
	t := Translation{VPN: vpn, Offset: offset}

	page, err := table.Lookup(vpn)
	if errors.Is(err, vm.ErrInvalidPage) {
		t.Outcome = vm.OutcomeFault
		t.Reason = vm.FaultNoSuchPage

		return t, nil
	} else if err != nil {
		return t, err
	}

	if !page.Valid {
		t.Outcome = vm.OutcomeFault
		t.Reason = vm.FaultNotResident

		return t, nil
	}

	if err := c.markAccessed(table, vpn, kind); err != nil {
		return t, err
	}

	t.Outcome = c.lookupTLB(table.PID(), page)
	t.Translated = true
	t.Frame = page.Frame
	t.PAddr = page.Frame*pageSize + offset

	return t, nil
}

func (c *Comp) markAccessed(
	table vm.PageTable,
	vpn uint64,
	kind vm.AccessKind,
) error {
	if err := table.MarkReferenced(vpn); err != nil {
		return err
	}

	if kind == vm.AccessWrite {
		return table.MarkModified(vpn)
	}

	return nil
}

func (c *Comp) lookupTLB(pid vm.PID, page vm.Page) vm.Outcome {
	if c.tlb == nil {
		return vm.OutcomeHit
	}

	frame, hit := c.tlb.Lookup(pid, page.VPN)
	if hit && frame == page.Frame {
		return vm.OutcomeHit
	}

	c.tlb.Insert(pid, page.VPN, page.Frame)

	return vm.OutcomeMiss
}
