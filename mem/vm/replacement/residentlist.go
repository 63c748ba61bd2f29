package replacement

import (
	"container/list"

	"github.com/sarchlab/pagingsim/mem/vm"
)

// residentList keeps residents in a doubly linked list, indexed by page for
// constant-time reordering.
type residentList struct {
	entries      *list.List
	entriesTable map[pageKey]*list.Element
}

func newResidentList() residentList {
	return residentList{
		entries:      list.New(),
		entriesTable: make(map[pageKey]*list.Element),
	}
}

func (l *residentList) pushBack(r Resident) {
	key := pageKey{pid: r.PID, vpn: r.VPN}
	if elem, found := l.entriesTable[key]; found {
		l.entries.Remove(elem)
	}

	l.entriesTable[key] = l.entries.PushBack(r)
}

func (l *residentList) moveToBack(pid vm.PID, vpn uint64) {
	elem, found := l.entriesTable[pageKey{pid: pid, vpn: vpn}]
	if !found {
		return
	}

	l.entries.MoveToBack(elem)
}

func (l *residentList) popFront() (Resident, bool) {
	elem := l.entries.Front()
	if elem == nil {
		return Resident{}, false
	}

	r := l.entries.Remove(elem).(Resident)
	delete(l.entriesTable, pageKey{pid: r.PID, vpn: r.VPN})

	return r, true
}

func (l *residentList) Remove(pid vm.PID, vpn uint64) {
	key := pageKey{pid: pid, vpn: vpn}

	elem, found := l.entriesTable[key]
	if !found {
		return
	}

	l.entries.Remove(elem)
	delete(l.entriesTable, key)
}

func (l *residentList) Residents() []Resident {
	residents := make([]Resident, 0, l.entries.Len())
	for e := l.entries.Front(); e != nil; e = e.Next() {
		residents = append(residents, e.Value.(Resident))
	}

	return residents
}
