package replacement

import "github.com/sarchlab/pagingsim/mem/vm"

// fifoPolicy evicts the page that was loaded the earliest.
type fifoPolicy struct {
	residentList
}

func (p *fifoPolicy) Kind() Kind {
	return FIFO
}

func (p *fifoPolicy) OnAccess(vm.PID, uint64) {}

func (p *fifoPolicy) OnLoad(pid vm.PID, vpn uint64, frame uint64) {
	p.pushBack(Resident{PID: pid, VPN: vpn, Frame: frame})
}

func (p *fifoPolicy) SelectVictim() (Resident, bool) {
	return p.popFront()
}
