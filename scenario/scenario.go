// Package scenario loads simulation setups from YAML files and builds the
// MMU and the access simulator they describe.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/pagingsim/mem/vm"
	"github.com/sarchlab/pagingsim/mem/vm/accesssim"
	"github.com/sarchlab/pagingsim/mem/vm/mmu"
	"github.com/sarchlab/pagingsim/mem/vm/replacement"
)

// A Scenario describes the memory system, its processes and the accesses to
// perform. At most one of Accesses, ReferenceString and Random can be set.
type Scenario struct {
	Name    string     `yaml:"name"`
	Frames  int        `yaml:"frames"`
	Policy  string     `yaml:"policy"`
	Scope   string     `yaml:"scope"`
	TLB     *TLBConfig `yaml:"tlb"`
	History int        `yaml:"history"`

	Processes []Process `yaml:"processes"`

	Accesses        []accesssim.Request    `yaml:"accesses"`
	ReferenceString *ReferenceStringConfig `yaml:"reference_string"`
	Random          *RandomConfig          `yaml:"random"`
}

// TLBConfig sets the geometry of the TLB.
type TLBConfig struct {
	Sets int `yaml:"sets"`
	Ways int `yaml:"ways"`
}

// A Process is registered with the MMU before the simulation starts. The
// pages listed in Resident are preloaded in order.
type Process struct {
	PID      vm.PID   `yaml:"pid"`
	Pages    uint64   `yaml:"pages"`
	PageSize uint64   `yaml:"page_size"`
	Resident []uint64 `yaml:"resident"`
}

// ReferenceStringConfig makes one process read a sequence of pages. If Pages
// is empty, RandomLength pages are drawn from [0, NumPages) using Seed.
type ReferenceStringConfig struct {
	PID          vm.PID   `yaml:"pid"`
	Pages        []uint64 `yaml:"pages"`
	RandomLength int      `yaml:"random_length"`
	NumPages     uint64   `yaml:"num_pages"`
	Seed         int64    `yaml:"seed"`
}

// RandomConfig generates random accesses by the listed processes. The
// addresses are drawn from the smallest address space among them.
type RandomConfig struct {
	Seed          int64    `yaml:"seed"`
	PIDs          []vm.PID `yaml:"pids"`
	Count         int      `yaml:"count"`
	WriteFraction float64  `yaml:"write_fraction"`
}

// Default returns the page replacement exercise of drawing 20 references
// over pages 0 to 9 and serving them with 5 frames.
func Default() *Scenario {
	return &Scenario{
		Name:    "default",
		Frames:  5,
		Policy:  "fifo",
		Scope:   "global",
		History: 20,
		Processes: []Process{
			{PID: 1, Pages: 10, PageSize: 4096},
		},
		ReferenceString: &ReferenceStringConfig{
			PID:          1,
			RandomLength: 20,
			NumPages:     10,
			Seed:         1,
		},
	}
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return s, nil
}

// Parse decodes a scenario. Fields that are not set keep the values of
// Default, except for the processes and the accesses.
func Parse(data []byte) (*Scenario, error) {
	s := Default()
	s.Name = ""
	s.Processes = nil
	s.ReferenceString = nil

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

// Validate checks that the scenario is consistent.
func (s *Scenario) Validate() error {
	if _, err := s.mmuBuilder(); err != nil {
		return err
	}

	if s.History <= 0 {
		return fmt.Errorf("history must be > 0, got %d", s.History)
	}

	pids := make(map[vm.PID]Process)
	for _, p := range s.Processes {
		if _, dup := pids[p.PID]; dup {
			return fmt.Errorf("process %d: %w", p.PID, vm.ErrProcessExists)
		}

		if p.PageSize == 0 {
			return fmt.Errorf("process %d: %w", p.PID, vm.ErrInvalidPageSize)
		}

		pids[p.PID] = p
	}

	numSources := 0
	if len(s.Accesses) > 0 {
		numSources++
	}

	if s.ReferenceString != nil {
		numSources++

		if err := s.ReferenceString.validate(pids); err != nil {
			return err
		}
	}

	if s.Random != nil {
		numSources++

		if err := s.Random.validate(pids); err != nil {
			return err
		}
	}

	if numSources > 1 {
		return errors.New(
			"only one of accesses, reference_string and random can be set")
	}

	return nil
}

func (c *ReferenceStringConfig) validate(pids map[vm.PID]Process) error {
	if _, found := pids[c.PID]; !found {
		return fmt.Errorf("reference string: process %d: %w",
			c.PID, vm.ErrUnknownProcess)
	}

	if len(c.Pages) == 0 && (c.RandomLength <= 0 || c.NumPages == 0) {
		return errors.New(
			"reference string: set pages, or random_length and num_pages")
	}

	return nil
}

func (c *RandomConfig) validate(pids map[vm.PID]Process) error {
	if len(c.PIDs) == 0 {
		return errors.New("random: no process listed")
	}

	for _, pid := range c.PIDs {
		if _, found := pids[pid]; !found {
			return fmt.Errorf("random: process %d: %w",
				pid, vm.ErrUnknownProcess)
		}
	}

	if c.WriteFraction < 0 || c.WriteFraction > 1 {
		return fmt.Errorf("random: write fraction %f is not in [0, 1]",
			c.WriteFraction)
	}

	return nil
}

func (s *Scenario) mmuBuilder() (mmu.Builder, error) {
	kind, err := replacement.ParseKind(s.Policy)
	if err != nil {
		return mmu.Builder{}, err
	}

	scope, err := mmu.ParseScope(s.Scope)
	if err != nil {
		return mmu.Builder{}, err
	}

	b := mmu.MakeBuilder().
		WithFrameCapacity(s.Frames).
		WithReplacementPolicy(kind).
		WithScope(scope)

	if s.TLB != nil {
		b = b.WithTLB(s.TLB.Sets, s.TLB.Ways)
	}

	return b, b.Validate()
}

// Build creates the MMU, registers the processes, preloads their resident
// pages, and creates a simulator whose generator produces the accesses of
// the scenario.
func (s *Scenario) Build() (*mmu.Comp, *accesssim.Simulator, error) {
	if err := s.Validate(); err != nil {
		return nil, nil, err
	}

	b, _ := s.mmuBuilder()
	m := b.Build("MMU")

	for _, p := range s.Processes {
		if err := m.RegisterProcess(p.PID, p.Pages, p.PageSize); err != nil {
			return nil, nil, err
		}

		for _, vpn := range p.Resident {
			if _, err := m.Preload(p.PID, vpn); err != nil {
				return nil, nil, err
			}
		}
	}

	sim := accesssim.MakeBuilder().
		WithAccessor(m).
		WithGenerator(s.generator()).
		WithHistoryCapacity(s.History).
		Build("Simulator")

	return m, sim, nil
}

// ReferencePages returns the pages of the reference string, drawing them if
// the scenario asks for a random one. It returns nil if the scenario has no
// reference string.
func (s *Scenario) ReferencePages() []uint64 {
	c := s.ReferenceString
	if c == nil {
		return nil
	}

	if len(c.Pages) > 0 {
		return c.Pages
	}

	return accesssim.RandomReferenceString(c.Seed, c.RandomLength, c.NumPages)
}

// NumAccesses returns the number of requests the scenario performs. The
// bool is false if a random stream has no count and never ends.
func (s *Scenario) NumAccesses() (int, bool) {
	switch {
	case len(s.Accesses) > 0:
		return len(s.Accesses), true
	case s.ReferenceString != nil:
		return len(s.ReferencePages()), true
	case s.Random != nil:
		return s.Random.Count, s.Random.Count > 0
	default:
		return 0, true
	}
}

func (s *Scenario) generator() accesssim.Generator {
	switch {
	case len(s.Accesses) > 0:
		return accesssim.NewScript(s.Accesses)
	case s.ReferenceString != nil:
		p := s.process(s.ReferenceString.PID)

		return accesssim.NewReferenceString(
			p.PID, p.PageSize, s.ReferencePages())
	case s.Random != nil:
		return s.randomGenerator()
	default:
		return nil
	}
}

func (s *Scenario) randomGenerator() *accesssim.RandomGenerator {
	smallest := s.process(s.Random.PIDs[0])
	for _, pid := range s.Random.PIDs[1:] {
		p := s.process(pid)
		if p.Pages*p.PageSize < smallest.Pages*smallest.PageSize {
			smallest = p
		}
	}

	return &accesssim.RandomGenerator{
		Seed:          s.Random.Seed,
		PIDs:          s.Random.PIDs,
		NumPages:      smallest.Pages,
		PageSize:      smallest.PageSize,
		WriteFraction: s.Random.WriteFraction,
		Count:         s.Random.Count,
	}
}

func (s *Scenario) process(pid vm.PID) Process {
	for _, p := range s.Processes {
		if p.PID == pid {
			return p
		}
	}

	panic(fmt.Sprintf("process %d is not in the scenario", pid))
}
