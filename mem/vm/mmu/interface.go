package mmu

import (
	"github.com/sarchlab/pagingsim/mem/vm"
	"github.com/sarchlab/pagingsim/mem/vm/replacement"
)

// residency gives the fault handler access to the page tables and the
// replacement state it has to keep consistent with the frame allocator.
type residency interface {
	tableOf(pid vm.PID) (vm.PageTable, bool)

	// policyOf returns the policy that tracks the pages of the process.
	policyOf(pid vm.PID) replacement.Policy

	// victimPolicyFor returns the policy that a fault of the process takes
	// its victim from.
	victimPolicyFor(pid vm.PID) replacement.Policy
}
