package accesssim

import "fmt"

// A Builder can build simulators.
type Builder struct {
	accessor        Accessor
	generator       Generator
	historyCapacity int
}

// MakeBuilder creates a new builder that keeps the 20 most recent results.
func MakeBuilder() Builder {
	return Builder{
		historyCapacity: 20,
	}
}

// WithAccessor sets the component that serves the accesses.
func (b Builder) WithAccessor(a Accessor) Builder {
	b.accessor = a
	return b
}

// WithGenerator sets where Tick takes its requests from.
func (b Builder) WithGenerator(g Generator) Builder {
	b.generator = g
	return b
}

// WithHistoryCapacity sets how many recent results the statistics keep.
func (b Builder) WithHistoryCapacity(n int) Builder {
	b.historyCapacity = n
	return b
}

// Validate checks if the simulator can be built.
func (b Builder) Validate() error {
	if b.accessor == nil {
		return fmt.Errorf("accesssim: accessor is not set")
	}

	if b.historyCapacity <= 0 {
		return fmt.Errorf("accesssim: history capacity must be > 0, got %d",
			b.historyCapacity)
	}

	return nil
}

// Build creates a simulator.
func (b Builder) Build(name string) *Simulator {
	if err := b.Validate(); err != nil {
		panic(err)
	}

	return &Simulator{
		name:            name,
		accessor:        b.accessor,
		generator:       b.generator,
		historyCapacity: b.historyCapacity,
	}
}
