// Package replacement provides the page-replacement policies that choose a
// victim when there is no free frame left.
package replacement

import (
	"fmt"
	"strings"

	"github.com/sarchlab/pagingsim/mem/vm"
)

// Kind names a replacement policy.
type Kind int

// A list of all supported policies.
const (
	FIFO Kind = iota
	LRU
	Clock
)

func (k Kind) String() string {
	switch k {
	case FIFO:
		return "FIFO"
	case LRU:
		return "LRU"
	case Clock:
		return "Clock"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind converts a policy name into a Kind. Names are case-insensitive.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "fifo":
		return FIFO, nil
	case "lru":
		return LRU, nil
	case "clock":
		return Clock, nil
	default:
		return FIFO, fmt.Errorf("unknown replacement policy %q", s)
	}
}

// A Resident is a page that currently occupies a frame.
type Resident struct {
	PID   vm.PID
	VPN   uint64
	Frame uint64
}

// A Policy orders the resident pages and picks the next victim.
type Policy interface {
	Kind() Kind

	// OnAccess is called every time a resident page is referenced.
	OnAccess(pid vm.PID, vpn uint64)

	// OnLoad is called when a page becomes resident.
	OnLoad(pid vm.PID, vpn uint64, frame uint64)

	// SelectVictim removes and returns the page to evict. The bool return
	// value is false if there is no resident page.
	SelectVictim() (Resident, bool)

	// Remove forgets a page that stopped being resident without being
	// selected as a victim.
	Remove(pid vm.PID, vpn uint64)

	// Residents lists the resident pages, the next victim first.
	Residents() []Resident
}

// New creates an empty policy of the given kind.
func New(kind Kind) Policy {
	switch kind {
	case FIFO:
		return &fifoPolicy{residentList: newResidentList()}
	case LRU:
		return &lruPolicy{residentList: newResidentList()}
	case Clock:
		return newClockPolicy()
	default:
		panic(fmt.Sprintf("unknown replacement policy %d", int(kind)))
	}
}

type pageKey struct {
	pid vm.PID
	vpn uint64
}
