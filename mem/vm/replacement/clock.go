package replacement

import (
	"sort"

	"github.com/sarchlab/pagingsim/mem/vm"
)

type clockSlot struct {
	resident   Resident
	referenced bool
}

// clockPolicy arranges the resident frames in a ring ordered by frame
// number. The hand gives a second chance to every frame whose reference bit
// is set.
type clockPolicy struct {
	ring   []uint64
	slots  map[uint64]*clockSlot
	frames map[pageKey]uint64
	hand   uint64
}

func newClockPolicy() *clockPolicy {
	return &clockPolicy{
		slots:  make(map[uint64]*clockSlot),
		frames: make(map[pageKey]uint64),
	}
}

func (p *clockPolicy) Kind() Kind {
	return Clock
}

func (p *clockPolicy) OnAccess(pid vm.PID, vpn uint64) {
	frame, found := p.frames[pageKey{pid: pid, vpn: vpn}]
	if !found {
		return
	}

	p.slots[frame].referenced = true
}

func (p *clockPolicy) OnLoad(pid vm.PID, vpn uint64, frame uint64) {
	p.Remove(pid, vpn)

	if old, found := p.slots[frame]; found {
		p.Remove(old.resident.PID, old.resident.VPN)
	}

	p.slots[frame] = &clockSlot{
		resident:   Resident{PID: pid, VPN: vpn, Frame: frame},
		referenced: true,
	}
	p.frames[pageKey{pid: pid, vpn: vpn}] = frame

	i := sort.Search(len(p.ring), func(i int) bool { return p.ring[i] >= frame })
	p.ring = append(p.ring, 0)
	copy(p.ring[i+1:], p.ring[i:])
	p.ring[i] = frame
}

func (p *clockPolicy) SelectVictim() (Resident, bool) {
	if len(p.ring) == 0 {
		return Resident{}, false
	}

	i := p.handIndex()
	for {
		slot := p.slots[p.ring[i]]
		if !slot.referenced {
			victim := slot.resident
			p.hand = victim.Frame + 1
			p.Remove(victim.PID, victim.VPN)

			return victim, true
		}

		slot.referenced = false
		i = (i + 1) % len(p.ring)
	}
}

func (p *clockPolicy) Remove(pid vm.PID, vpn uint64) {
	key := pageKey{pid: pid, vpn: vpn}

	frame, found := p.frames[key]
	if !found {
		return
	}

	delete(p.frames, key)
	delete(p.slots, frame)

	i := sort.Search(len(p.ring), func(i int) bool { return p.ring[i] >= frame })
	p.ring = append(p.ring[:i], p.ring[i+1:]...)
}

func (p *clockPolicy) Residents() []Resident {
	residents := make([]Resident, 0, len(p.ring))
	if len(p.ring) == 0 {
		return residents
	}

	start := p.handIndex()
	for n := 0; n < len(p.ring); n++ {
		frame := p.ring[(start+n)%len(p.ring)]
		residents = append(residents, p.slots[frame].resident)
	}

	return residents
}

// ReferenceBit reports the reference bit of the frame that holds the page.
func (p *clockPolicy) ReferenceBit(pid vm.PID, vpn uint64) (set, found bool) {
	frame, found := p.frames[pageKey{pid: pid, vpn: vpn}]
	if !found {
		return false, false
	}

	return p.slots[frame].referenced, true
}

// handIndex returns the position in the ring of the first resident frame at
// or after the hand, wrapping around.
func (p *clockPolicy) handIndex() int {
	i := sort.Search(len(p.ring), func(i int) bool { return p.ring[i] >= p.hand })
	if i == len(p.ring) {
		return 0
	}

	return i
}
