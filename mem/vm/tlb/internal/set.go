// Package internal provides the definition required for defining TLB.
package internal

import (
	"sort"

	"github.com/sarchlab/pagingsim/mem/vm"
)

// A Block is one way of a set. It caches the frame of a single page.
type Block struct {
	PID   vm.PID
	VPN   uint64
	Frame uint64
	Valid bool
}

// A Set holds a certain number of blocks.
type Set interface {
	Lookup(pid vm.PID, vpn uint64) (wayID int, block Block, found bool)
	Update(wayID int, block Block)
	Evict() (wayID int, ok bool)
	Visit(wayID int)
	Invalidate(pid vm.PID, vpn uint64) bool
	Flush(pid vm.PID) int
	Blocks() []Block
}

// NewSet creates a new TLB set.
func NewSet(numWays int) Set {
	s := &setImpl{}
	s.blocks = make([]*block, numWays)
	s.visitList = make([]*block, 0, numWays)
	s.wayIDs = make(map[pageKey]int)

	for i := range s.blocks {
		b := &block{}
		s.blocks[i] = b
		b.wayID = i
		s.Visit(i)
	}

	return s
}

type pageKey struct {
	pid vm.PID
	vpn uint64
}

type block struct {
	Block
	wayID     int
	lastVisit uint64
}

type setImpl struct {
	blocks     []*block
	wayIDs     map[pageKey]int
	visitList  []*block
	visitCount uint64
}

func (s *setImpl) Lookup(pid vm.PID, vpn uint64) (
	wayID int,
	b Block,
	found bool,
) {
	wayID, ok := s.wayIDs[pageKey{pid: pid, vpn: vpn}]
	if !ok {
		return 0, Block{}, false
	}

	return wayID, s.blocks[wayID].Block, true
}

func (s *setImpl) Update(wayID int, b Block) {
	blk := s.blocks[wayID]
	if blk.Valid {
		delete(s.wayIDs, pageKey{pid: blk.PID, vpn: blk.VPN})
	}

	blk.Block = b
	if b.Valid {
		s.wayIDs[pageKey{pid: b.PID, vpn: b.VPN}] = wayID
	}
}

// Evict picks the way to refill. Invalid ways go first, then the least
// recently visited one. The way is removed from the visit list until it is
// visited again.
func (s *setImpl) Evict() (wayID int, ok bool) {
	if len(s.visitList) == 0 {
		return 0, false
	}

	victim := 0
	for i, b := range s.visitList {
		if !b.Valid {
			victim = i
			break
		}
	}

	wayID = s.visitList[victim].wayID
	s.visitList = append(s.visitList[:victim], s.visitList[victim+1:]...)

	return wayID, true
}

// Visit moves the way to the most recently used end of the visit list.
func (s *setImpl) Visit(wayID int) {
	blk := s.blocks[wayID]

	for i, b := range s.visitList {
		if b.wayID == wayID {
			s.visitList = append(s.visitList[:i], s.visitList[i+1:]...)
			break
		}
	}

	s.visitCount++
	blk.lastVisit = s.visitCount

	index := sort.Search(len(s.visitList), func(i int) bool {
		return s.visitList[i].lastVisit > blk.lastVisit
	})
	s.visitList = append(s.visitList, nil)
	copy(s.visitList[index+1:], s.visitList[index:])
	s.visitList[index] = blk
}

func (s *setImpl) Invalidate(pid vm.PID, vpn uint64) bool {
	wayID, found := s.wayIDs[pageKey{pid: pid, vpn: vpn}]
	if !found {
		return false
	}

	s.Update(wayID, Block{})

	return true
}

func (s *setImpl) Flush(pid vm.PID) int {
	n := 0

	for _, b := range s.blocks {
		if b.Valid && b.PID == pid {
			s.Update(b.wayID, Block{})
			n++
		}
	}

	return n
}

func (s *setImpl) Blocks() []Block {
	blocks := make([]Block, len(s.blocks))
	for i, b := range s.blocks {
		blocks[i] = b.Block
	}

	return blocks
}
