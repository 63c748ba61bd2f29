package replacement

import "github.com/sarchlab/pagingsim/mem/vm"

// lruPolicy evicts the page that was referenced the longest time ago. The
// front of the list is the least recently used page.
type lruPolicy struct {
	residentList
}

func (p *lruPolicy) Kind() Kind {
	return LRU
}

func (p *lruPolicy) OnAccess(pid vm.PID, vpn uint64) {
	p.moveToBack(pid, vpn)
}

func (p *lruPolicy) OnLoad(pid vm.PID, vpn uint64, frame uint64) {
	p.pushBack(Resident{PID: pid, VPN: vpn, Frame: frame})
}

func (p *lruPolicy) SelectVictim() (Resident, bool) {
	return p.popFront()
}
