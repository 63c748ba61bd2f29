package tlb

import "fmt"

// A Builder can build TLBs
type Builder struct {
	numSets int
	numWays int
}

// MakeBuilder returns a Builder
func MakeBuilder() Builder {
	return Builder{
		numSets: 1,
		numWays: 32,
	}
}

// WithNumSets sets the number of sets in a TLB. Use 1 for fully associated
// TLBs.
func (b Builder) WithNumSets(n int) Builder {
	b.numSets = n
	return b
}

// WithNumWays sets the number of ways in a TLB.
func (b Builder) WithNumWays(n int) Builder {
	b.numWays = n
	return b
}

// Validate checks the geometry of the TLB.
func (b Builder) Validate() error {
	if b.numSets <= 0 {
		return fmt.Errorf("tlb: number of sets must be > 0, got %d", b.numSets)
	}

	if b.numWays <= 0 {
		return fmt.Errorf("tlb: number of ways must be > 0, got %d", b.numWays)
	}

	return nil
}

// Build creates a new TLB
func (b Builder) Build(name string) *Comp {
	if err := b.Validate(); err != nil {
		panic(err)
	}

	c := &Comp{
		name:    name,
		numSets: b.numSets,
		numWays: b.numWays,
	}
	c.reset()

	return c
}
