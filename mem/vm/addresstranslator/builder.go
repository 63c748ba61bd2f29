package addresstranslator

import "github.com/sarchlab/pagingsim/mem/vm/tlb"

// A Builder can create address translators
type Builder struct {
	tlb *tlb.Comp
}

// MakeBuilder creates a new builder
func MakeBuilder() Builder {
	return Builder{}
}

// WithTLB sets the TLB that caches translations. Without a TLB, every
// successful translation counts as a hit.
func (b Builder) WithTLB(t *tlb.Comp) Builder {
	b.tlb = t
	return b
}

// Build returns a new AddressTranslator
func (b Builder) Build(name string) *Comp {
	return &Comp{
		name: name,
		tlb:  b.tlb,
	}
}
