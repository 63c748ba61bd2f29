package accesssim

import (
	"math/rand"

	"github.com/sarchlab/pagingsim/mem/vm"
)

// A Generator produces the requests that a Simulator performs on Tick.
type Generator interface {
	// Next returns the next request. The bool return value is false if the
	// generator is exhausted.
	Next() (Request, bool)

	// Reset rewinds the generator to its first request.
	Reset()
}

// A Script replays a fixed list of requests.
type Script struct {
	reqs []Request
	next int
}

// NewScript creates a generator that replays reqs.
func NewScript(reqs []Request) *Script {
	return &Script{reqs: reqs}
}

// Next returns the next scripted request.
func (s *Script) Next() (Request, bool) {
	if s.next >= len(s.reqs) {
		return Request{}, false
	}

	req := s.reqs[s.next]
	s.next++

	return req, true
}

// Reset rewinds the script.
func (s *Script) Reset() {
	s.next = 0
}

// A ReferenceString makes one process read a sequence of pages, accessing
// the first byte of each page.
type ReferenceString struct {
	pid      vm.PID
	pageSize uint64
	pages    []uint64
	next     int
}

// NewReferenceString creates a generator that reads the given pages.
func NewReferenceString(
	pid vm.PID,
	pageSize uint64,
	pages []uint64,
) *ReferenceString {
	return &ReferenceString{
		pid:      pid,
		pageSize: pageSize,
		pages:    pages,
	}
}

// Pages returns the page numbers of the reference string.
func (r *ReferenceString) Pages() []uint64 {
	return r.pages
}

// Next returns a read of the next page.
func (r *ReferenceString) Next() (Request, bool) {
	if r.next >= len(r.pages) {
		return Request{}, false
	}

	req := Request{
		PID:   r.pid,
		VAddr: r.pages[r.next] * r.pageSize,
		Kind:  vm.AccessRead,
	}
	r.next++

	return req, true
}

// Reset rewinds the reference string.
func (r *ReferenceString) Reset() {
	r.next = 0
}

// RandomReferenceString draws length page numbers from [0, numPages).
func RandomReferenceString(seed int64, length int, numPages uint64) []uint64 {
	rng := rand.New(rand.NewSource(seed))

	pages := make([]uint64, length)
	for i := range pages {
		pages[i] = uint64(rng.Int63n(int64(numPages)))
	}

	return pages
}

// A RandomGenerator produces a fixed number of random accesses. The same
// seed always produces the same requests.
type RandomGenerator struct {
	Seed int64

	// PIDs are the processes that issue accesses. A process is picked
	// uniformly for each request.
	PIDs []vm.PID

	// NumPages and PageSize bound the addresses to [0, NumPages*PageSize).
	NumPages uint64
	PageSize uint64

	// WriteFraction is the probability of an access to be a write.
	WriteFraction float64

	// Count is the number of requests. Zero means unlimited.
	Count int

	rng       *rand.Rand
	generated int
}

// Next draws a random request.
func (g *RandomGenerator) Next() (Request, bool) {
	if len(g.PIDs) == 0 || g.NumPages == 0 || g.PageSize == 0 {
		return Request{}, false
	}

	if g.Count > 0 && g.generated >= g.Count {
		return Request{}, false
	}

	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(g.Seed))
	}

	req := Request{
		PID:   g.PIDs[g.rng.Intn(len(g.PIDs))],
		VAddr: uint64(g.rng.Int63n(int64(g.NumPages * g.PageSize))),
		Kind:  vm.AccessRead,
	}

	if g.rng.Float64() < g.WriteFraction {
		req.Kind = vm.AccessWrite
	}

	g.generated++

	return req, true
}

// Reset reseeds the generator.
func (g *RandomGenerator) Reset() {
	g.rng = nil
	g.generated = 0
}
