package storage

import (
	"errors"

	"github.com/kagedb/bptreeidx/internal/bx"
)

// ErrNoSpace is returned by InsertTuple when a page has no room left for a
// tuple of the requested size.
var ErrNoSpace = errors.New("storage: page has no free space for tuple")

// ErrBadSlot is returned when reading a slot that was never written, or
// that was deleted.
var ErrBadSlot = errors.New("storage: slot is empty or deleted")

const slotSize = 6 // offset uint16 + length uint16 + flags uint16

const (
	slotFlagNone    = 0
	slotFlagDeleted = 1
)

// Page is an opaque fixed-size byte buffer, identified by a PageId, holding
// either heap tuples (slotted layout: header, then a line-pointer array
// growing up, then tuple data growing down) or a B+Tree node (a fixed-offset
// typed view laid directly over Buf — see internal/btree/pagecast.go).
//
// +------------------+ 0
// | flags | pageID    |
// | pdLower | pdUpper |
// +------------------+ <-- pdLower
// |  Slot array       |
// +------------------+
// |   free space       |
// +------------------+ <-- pdUpper
// |  Tuple data (down) |
// +------------------+ PageSize
type Page struct {
	Buf []byte
}

// NewPage allocates a fresh, zeroed page buffer for pageID.
func NewPage(pageID PageId) *Page {
	p := &Page{Buf: make([]byte, PageSize)}
	p.Reset(pageID)
	return p
}

// Reset reinitializes the page in place, discarding any prior contents.
// Used for brand-new allocations and for stamping pages that load as
// uninitialized.
func (p *Page) Reset(pageID PageId) {
	for i := range p.Buf {
		p.Buf[i] = 0
	}
	bx.PutU16(p.Buf[0:2], 0)               // flags
	bx.PutU32(p.Buf[2:6], pageID)          // page id
	bx.PutU16(p.Buf[6:8], HeaderSize)      // pd_lower
	bx.PutU16(p.Buf[8:10], uint16(PageSize)) // pd_upper
}

// PageID returns the page id stamped in the header.
func (p *Page) PageID() PageId {
	return bx.U32(p.Buf[2:6])
}

func (p *Page) lower() int     { return int(bx.U16(p.Buf[6:8])) }
func (p *Page) setLower(v int) { bx.PutU16(p.Buf[6:8], uint16(v)) }
func (p *Page) upper() int     { return int(bx.U16(p.Buf[8:10])) }
func (p *Page) setUpper(v int) { bx.PutU16(p.Buf[8:10], uint16(v)) }

// NumSlots returns how many slots have been appended to this page.
func (p *Page) NumSlots() int {
	return (p.lower() - HeaderSize) / slotSize
}

func (p *Page) slotOff(i int) int { return HeaderSize + i*slotSize }

func (p *Page) getSlot(i int) (offset, length, flags int) {
	o := p.slotOff(i)
	return int(bx.U16(p.Buf[o : o+2])),
		int(bx.U16(p.Buf[o+2 : o+4])),
		int(bx.U16(p.Buf[o+4 : o+6]))
}

func (p *Page) putSlot(i, offset, length, flags int) {
	o := p.slotOff(i)
	bx.PutU16(p.Buf[o:o+2], uint16(offset))
	bx.PutU16(p.Buf[o+2:o+4], uint16(length))
	bx.PutU16(p.Buf[o+4:o+6], uint16(flags))
}

// InsertTuple appends tup at the end of the free-space gap and allocates a
// new slot pointing at it. Returns ErrNoSpace if the page cannot fit it.
func (p *Page) InsertTuple(tup []byte) (slot int, err error) {
	need := len(tup) + slotSize
	if p.upper()-p.lower() < need {
		return 0, ErrNoSpace
	}
	u := p.upper() - len(tup)
	copy(p.Buf[u:], tup)
	p.setUpper(u)

	i := p.NumSlots()
	p.putSlot(i, u, len(tup), slotFlagNone)
	p.setLower(p.lower() + slotSize)
	return i, nil
}

// ReadTuple returns the bytes stored at slot, or ErrBadSlot if the slot is
// out of range, never written, or deleted.
func (p *Page) ReadTuple(slot int) ([]byte, error) {
	if slot < 0 || slot >= p.NumSlots() {
		return nil, ErrBadSlot
	}
	offset, length, flags := p.getSlot(slot)
	if flags == slotFlagDeleted || length == 0 {
		return nil, ErrBadSlot
	}
	return p.Buf[offset : offset+length], nil
}

// UpdateTuple overwrites the tuple at slot. If the new value no longer fits
// in the original space, it is relocated into fresh free space.
func (p *Page) UpdateTuple(slot int, newTuple []byte) error {
	offset, length, flags := p.getSlot(slot)
	if flags == slotFlagDeleted || length == 0 {
		return ErrBadSlot
	}
	if len(newTuple) <= length {
		copy(p.Buf[offset:], newTuple)
		p.putSlot(slot, offset, len(newTuple), slotFlagNone)
		return nil
	}
	need := len(newTuple)
	if p.upper()-p.lower() < need {
		return ErrNoSpace
	}
	u := p.upper() - need
	copy(p.Buf[u:], newTuple)
	p.setUpper(u)
	p.putSlot(slot, u, need, slotFlagNone)
	return nil
}

// DeleteTuple marks slot as deleted; the slot index itself is never reused.
func (p *Page) DeleteTuple(slot int) error {
	if slot < 0 || slot >= p.NumSlots() {
		return ErrBadSlot
	}
	offset, length, _ := p.getSlot(slot)
	p.putSlot(slot, offset, length, slotFlagDeleted)
	return nil
}

// IsUninitialized reports whether Reset has never stamped this buffer.
func (p *Page) IsUninitialized() bool {
	return bx.U16(p.Buf[6:8]) == 0
}
