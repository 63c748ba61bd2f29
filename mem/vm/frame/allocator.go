// Package frame keeps track of the physical frames and who occupies them.
package frame

import (
	"fmt"
	"sync"

	"github.com/sarchlab/pagingsim/mem/vm"
)

// A Frame is a fixed-size unit of physical memory. A frame is either free or
// occupied by exactly one page of one process.
type Frame struct {
	Number   uint64
	Occupied bool
	PID      vm.PID
	VPN      uint64
}

// An Allocator is the single source of truth for frame occupancy.
type Allocator interface {
	Capacity() int
	NumFree() int

	// Allocate binds the lowest-numbered free frame to the page. The bool
	// return value is false if no frame is free.
	Allocate(pid vm.PID, vpn uint64) (uint64, bool)
	Free(frame uint64) error
	OccupantOf(frame uint64) (pid vm.PID, vpn uint64, occupied bool)
	FrameOf(pid vm.PID, vpn uint64) (uint64, bool)
	Frames() []Frame

	// Resize changes the number of frames. Occupied frames that fall outside
	// of the new capacity are released and returned.
	Resize(capacity int) []Frame
}

// NewAllocator creates an allocator with the given number of frames.
func NewAllocator(capacity int) Allocator {
	a := &allocatorImpl{
		owners: make(map[owner]uint64),
	}
	a.Resize(capacity)

	return a
}

type owner struct {
	pid vm.PID
	vpn uint64
}

type allocatorImpl struct {
	sync.Mutex
	frames  []Frame
	owners  map[owner]uint64
	numFree int
}

func (a *allocatorImpl) Capacity() int {
	a.Lock()
	defer a.Unlock()

	return len(a.frames)
}

func (a *allocatorImpl) NumFree() int {
	a.Lock()
	defer a.Unlock()

	return a.numFree
}

func (a *allocatorImpl) Allocate(pid vm.PID, vpn uint64) (uint64, bool) {
	a.Lock()
	defer a.Unlock()

	if a.numFree == 0 {
		return 0, false
	}

	o := owner{pid: pid, vpn: vpn}
	if f, found := a.owners[o]; found {
		panic(fmt.Sprintf("process %d page %d already owns frame %d",
			pid, vpn, f))
	}

	for i := range a.frames {
		f := &a.frames[i]
		if f.Occupied {
			continue
		}

		f.Occupied = true
		f.PID = pid
		f.VPN = vpn
		a.owners[o] = f.Number
		a.numFree--

		return f.Number, true
	}

	panic("free frame count is inconsistent")
}

func (a *allocatorImpl) Free(frame uint64) error {
	a.Lock()
	defer a.Unlock()

	if frame >= uint64(len(a.frames)) {
		return fmt.Errorf("frame %d of %d: %w",
			frame, len(a.frames), vm.ErrDuplicateFrameBinding)
	}

	f := &a.frames[frame]
	if !f.Occupied {
		return fmt.Errorf("frame %d is already free: %w",
			frame, vm.ErrDuplicateFrameBinding)
	}

	delete(a.owners, owner{pid: f.PID, vpn: f.VPN})
	*f = Frame{Number: frame}
	a.numFree++

	return nil
}

func (a *allocatorImpl) OccupantOf(frame uint64) (vm.PID, uint64, bool) {
	a.Lock()
	defer a.Unlock()

	if frame >= uint64(len(a.frames)) {
		return 0, 0, false
	}

	f := a.frames[frame]

	return f.PID, f.VPN, f.Occupied
}

func (a *allocatorImpl) FrameOf(pid vm.PID, vpn uint64) (uint64, bool) {
	a.Lock()
	defer a.Unlock()

	f, found := a.owners[owner{pid: pid, vpn: vpn}]

	return f, found
}

func (a *allocatorImpl) Frames() []Frame {
	a.Lock()
	defer a.Unlock()

	frames := make([]Frame, len(a.frames))
	copy(frames, a.frames)

	return frames
}

func (a *allocatorImpl) Resize(capacity int) []Frame {
	a.Lock()
	defer a.Unlock()

	if capacity < 0 {
		capacity = 0
	}

	var dropped []Frame

	if capacity < len(a.frames) {
		for _, f := range a.frames[capacity:] {
			if f.Occupied {
				dropped = append(dropped, f)
				delete(a.owners, owner{pid: f.PID, vpn: f.VPN})
			} else {
				a.numFree--
			}
		}

		a.frames = a.frames[:capacity]

		return dropped
	}

	for n := len(a.frames); n < capacity; n++ {
		a.frames = append(a.frames, Frame{Number: uint64(n)})
		a.numFree++
	}

	return nil
}
