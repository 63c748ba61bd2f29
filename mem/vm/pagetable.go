package vm

import (
	"container/list"
	"fmt"
	"sync"
)

// PID stands for Process ID.
type PID uint32

// A Page is an entry in a page table, maintaining the information about how
// to translate a virtual page to a physical frame.
type Page struct {
	PID        PID
	VPN        uint64
	Frame      uint64
	Valid      bool
	Referenced bool
	Modified   bool
}

// FrameNumber returns the frame the page is bound to. The bool return value
// is false if the page is not resident.
func (p Page) FrameNumber() (uint64, bool) {
	if !p.Valid {
		return 0, false
	}

	return p.Frame, true
}

// A PageTable holds the pages of a single process.
type PageTable interface {
	PID() PID
	NumPages() uint64
	PageSize() uint64

	Lookup(vpn uint64) (Page, error)
	MarkReferenced(vpn uint64) error
	MarkModified(vpn uint64) error
	Install(vpn, frame uint64) error
	Invalidate(vpn uint64) (Page, error)
	ClearReferenced()

	// Entries returns a copy of all the pages, ordered by VPN.
	Entries() []Page
}

// NewPageTable creates a page table with numPages invalid entries.
func NewPageTable(pid PID, numPages, pageSize uint64) (PageTable, error) {
	if pageSize == 0 {
		return nil, fmt.Errorf("process %d: %w", pid, ErrInvalidPageSize)
	}

	t := &pageTableImpl{
		pid:          pid,
		numPages:     numPages,
		pageSize:     pageSize,
		entries:      list.New(),
		entriesTable: make(map[uint64]*list.Element, numPages),
	}

	for vpn := uint64(0); vpn < numPages; vpn++ {
		elem := t.entries.PushBack(Page{PID: pid, VPN: vpn})
		t.entriesTable[vpn] = elem
	}

	return t, nil
}

// pageTableImpl keeps the pages in a list for ordered snapshots and indexes
// them by VPN for constant-time lookups.
type pageTableImpl struct {
	sync.Mutex
	pid          PID
	numPages     uint64
	pageSize     uint64
	entries      *list.List
	entriesTable map[uint64]*list.Element
}

func (t *pageTableImpl) PID() PID {
	return t.pid
}

func (t *pageTableImpl) NumPages() uint64 {
	return t.numPages
}

func (t *pageTableImpl) PageSize() uint64 {
	return t.pageSize
}

func (t *pageTableImpl) Lookup(vpn uint64) (Page, error) {
	t.Lock()
	defer t.Unlock()

	elem, err := t.mustFind(vpn)
	if err != nil {
		return Page{}, err
	}

	return elem.Value.(Page), nil
}

func (t *pageTableImpl) MarkReferenced(vpn uint64) error {
	return t.modify(vpn, func(p *Page) error {
		p.Referenced = true
		return nil
	})
}

func (t *pageTableImpl) MarkModified(vpn uint64) error {
	return t.modify(vpn, func(p *Page) error {
		p.Modified = true
		return nil
	})
}

// Install binds the page to a frame. The page must not be valid already; the
// caller has to evict first.
func (t *pageTableImpl) Install(vpn, frame uint64) error {
	return t.modify(vpn, func(p *Page) error {
		if p.Valid {
			return fmt.Errorf("process %d page %d: %w",
				t.pid, vpn, ErrPageAlreadyValid)
		}

		p.Valid = true
		p.Frame = frame
		p.Referenced = false
		p.Modified = false

		return nil
	})
}

// Invalidate unbinds the page from its frame and returns the page as it was
// right before being invalidated.
func (t *pageTableImpl) Invalidate(vpn uint64) (Page, error) {
	var before Page

	err := t.modify(vpn, func(p *Page) error {
		if !p.Valid {
			return fmt.Errorf("process %d page %d: %w",
				t.pid, vpn, ErrPageNotValid)
		}

		before = *p
		p.Valid = false
		p.Frame = 0

		return nil
	})

	return before, err
}

func (t *pageTableImpl) ClearReferenced() {
	t.Lock()
	defer t.Unlock()

	for e := t.entries.Front(); e != nil; e = e.Next() {
		p := e.Value.(Page)
		p.Referenced = false
		e.Value = p
	}
}

func (t *pageTableImpl) Entries() []Page {
	t.Lock()
	defer t.Unlock()

	pages := make([]Page, 0, t.entries.Len())
	for e := t.entries.Front(); e != nil; e = e.Next() {
		pages = append(pages, e.Value.(Page))
	}

	return pages
}

func (t *pageTableImpl) modify(vpn uint64, f func(p *Page) error) error {
	t.Lock()
	defer t.Unlock()

	elem, err := t.mustFind(vpn)
	if err != nil {
		return err
	}

	page := elem.Value.(Page)
	if err := f(&page); err != nil {
		return err
	}

	elem.Value = page

	return nil
}

func (t *pageTableImpl) mustFind(vpn uint64) (*list.Element, error) {
	elem, found := t.entriesTable[vpn]
	if !found {
		return nil, fmt.Errorf("process %d page %d of %d: %w",
			t.pid, vpn, t.numPages, ErrInvalidPage)
	}

	return elem, nil
}
