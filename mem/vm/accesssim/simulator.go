// Package accesssim drives sequences of memory accesses through an MMU and
// keeps the statistics of their outcomes.
package accesssim

import (
	"errors"
	"sync"

	"github.com/sarchlab/pagingsim/mem/vm"
)

// An Accessor translates the accesses of processes. The MMU is an Accessor.
type Accessor interface {
	Access(pid vm.PID, vAddr uint64, kind vm.AccessKind) (vm.AccessResult, error)
}

// A Request asks a process to access a virtual address.
type Request struct {
	PID   vm.PID        `json:"pid" yaml:"pid"`
	VAddr uint64        `json:"vaddr" yaml:"vaddr"`
	Kind  vm.AccessKind `json:"kind" yaml:"kind"`
}

// Stats counts the outcomes of the accesses and remembers the most recent
// ones.
type Stats struct {
	Hits    uint64            `json:"hits"`
	Misses  uint64            `json:"misses"`
	Faults  uint64            `json:"faults"`
	History []vm.AccessResult `json:"history"`
}

// Total returns the number of accesses counted.
func (s Stats) Total() uint64 {
	return s.Hits + s.Misses + s.Faults
}

// HitRate returns the fraction of accesses that hit the TLB.
func (s Stats) HitRate() float64 {
	if s.Total() == 0 {
		return 0
	}

	return float64(s.Hits) / float64(s.Total())
}

// FaultRate returns the fraction of accesses that faulted.
func (s Stats) FaultRate() float64 {
	if s.Total() == 0 {
		return 0
	}

	return float64(s.Faults) / float64(s.Total())
}

// Simulator feeds requests to an Accessor, either one by one or from a
// Generator, one request per Tick.
type Simulator struct {
	sync.Mutex

	name            string
	accessor        Accessor
	generator       Generator
	historyCapacity int

	stats Stats
}

// Name returns the name of the simulator.
func (s *Simulator) Name() string {
	return s.name
}

// Step performs one access. An access to a page that does not exist is
// counted as a fault and its error is returned.
func (s *Simulator) Step(req Request) (vm.AccessResult, error) {
	s.Lock()
	defer s.Unlock()

	return s.step(req)
}

func (s *Simulator) step(req Request) (vm.AccessResult, error) {
	result, err := s.accessor.Access(req.PID, req.VAddr, req.Kind)
	if err != nil && !errors.Is(err, vm.ErrInvalidPage) {
		return result, err
	}

	s.record(result)

	return result, err
}

func (s *Simulator) record(result vm.AccessResult) {
	switch result.Outcome {
	case vm.OutcomeHit:
		s.stats.Hits++
	case vm.OutcomeMiss:
		s.stats.Misses++
	case vm.OutcomeFault:
		s.stats.Faults++
	}

	s.stats.History = append(s.stats.History, result)
	if len(s.stats.History) > s.historyCapacity {
		s.stats.History = s.stats.History[1:]
	}
}

// Run performs the requests in order. It stops at the first error and
// returns the results produced so far, including the failing one.
func (s *Simulator) Run(reqs []Request) ([]vm.AccessResult, error) {
	s.Lock()
	defer s.Unlock()

	results := make([]vm.AccessResult, 0, len(reqs))
	for _, req := range reqs {
		result, err := s.step(req)
		results = append(results, result)

		if err != nil {
			return results, err
		}
	}

	return results, nil
}

// Tick performs the next request of the generator. The bool return value is
// false if there is no generator or it has no request left.
func (s *Simulator) Tick() (vm.AccessResult, bool, error) {
	s.Lock()
	defer s.Unlock()

	if s.generator == nil {
		return vm.AccessResult{}, false, nil
	}

	req, ok := s.generator.Next()
	if !ok {
		return vm.AccessResult{}, false, nil
	}

	result, err := s.step(req)

	return result, true, err
}

// Stats returns a copy of the statistics.
func (s *Simulator) Stats() Stats {
	s.Lock()
	defer s.Unlock()

	stats := s.stats
	stats.History = append([]vm.AccessResult(nil), s.stats.History...)

	return stats
}

// Reset clears the statistics and rewinds the generator. It leaves the
// state of the MMU untouched.
func (s *Simulator) Reset() {
	s.Lock()
	defer s.Unlock()

	s.stats = Stats{}

	if s.generator != nil {
		s.generator.Reset()
	}
}
