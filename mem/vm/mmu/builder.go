package mmu

import (
	"fmt"

	"github.com/sarchlab/pagingsim/mem/vm"
	"github.com/sarchlab/pagingsim/mem/vm/addresstranslator"
	"github.com/sarchlab/pagingsim/mem/vm/frame"
	"github.com/sarchlab/pagingsim/mem/vm/replacement"
	"github.com/sarchlab/pagingsim/mem/vm/tlb"
)

// A Builder can build MMU component
type Builder struct {
	numFrames  int
	policyKind replacement.Kind
	scope      Scope
	tlbSets    int
	tlbWays    int
}

// MakeBuilder creates a new builder
func MakeBuilder() Builder {
	return Builder{
		numFrames:  16,
		policyKind: replacement.FIFO,
		scope:      ScopeGlobal,
	}
}

// WithFrameCapacity sets the number of physical frames.
func (b Builder) WithFrameCapacity(n int) Builder {
	b.numFrames = n
	return b
}

// WithReplacementPolicy sets the policy that selects victims.
func (b Builder) WithReplacementPolicy(kind replacement.Kind) Builder {
	b.policyKind = kind
	return b
}

// WithScope sets whether victims are selected among all resident pages or
// among the pages of the faulting process.
func (b Builder) WithScope(scope Scope) Builder {
	b.scope = scope
	return b
}

// WithTLB adds a TLB with the given geometry. Without a TLB, every
// translation of a resident page is a hit.
func (b Builder) WithTLB(numSets, numWays int) Builder {
	b.tlbSets = numSets
	b.tlbWays = numWays

	return b
}

// Validate checks if the configuration can build an MMU.
func (b Builder) Validate() error {
	if b.numFrames <= 0 {
		return fmt.Errorf("mmu: %d frames: %w",
			b.numFrames, vm.ErrNoFrameCapacity)
	}

	switch b.policyKind {
	case replacement.FIFO, replacement.LRU, replacement.Clock:
	default:
		return fmt.Errorf("mmu: unknown replacement policy %s", b.policyKind)
	}

	switch b.scope {
	case ScopeGlobal, ScopeLocal:
	default:
		return fmt.Errorf("mmu: unknown replacement scope %s", b.scope)
	}

	if b.hasTLB() {
		return b.tlbBuilder().Validate()
	}

	return nil
}

// Build returns a newly created MMU component
func (b Builder) Build(name string) *Comp {
	if err := b.Validate(); err != nil {
		panic(err)
	}

	mmu := &Comp{
		name:       name,
		frames:     frame.NewAllocator(b.numFrames),
		policyKind: b.policyKind,
		scope:      b.scope,
		processes:  make(map[vm.PID]*process),
	}

	if b.hasTLB() {
		mmu.tlb = b.tlbBuilder().Build(name + ".TLB")
	}

	mmu.translator = addresstranslator.MakeBuilder().
		WithTLB(mmu.tlb).
		Build(name + ".AddressTranslator")

	if b.scope == ScopeGlobal {
		mmu.globalPolicy = replacement.New(b.policyKind)
	}

	mmu.faultHandler = &FaultHandler{
		frames:    mmu.frames,
		tlb:       mmu.tlb,
		residency: mmu,
		onEvict:   mmu.invokeEvictHook,
	}

	return mmu
}

func (b Builder) hasTLB() bool {
	return b.tlbSets != 0 || b.tlbWays != 0
}

func (b Builder) tlbBuilder() tlb.Builder {
	return tlb.MakeBuilder().
		WithNumSets(b.tlbSets).
		WithNumWays(b.tlbWays)
}
