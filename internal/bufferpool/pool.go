package bufferpool

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/kagedb/bptreeidx/internal/clockx"
	"github.com/kagedb/bptreeidx/internal/storage"
)

var (
	logDebugPrefix  = "bufferpool: "
	DefaultCapacity = 128

	// ErrNoFreeFrame is returned when no unpinned frame is available for replacement.
	ErrNoFreeFrame = errors.New("bufferpool: no free frame available (all pinned)")

	// ErrPagePinned is returned when FlushFile finds a page still pinned.
	ErrPagePinned = errors.New("bufferpool: page is pinned")

	// ErrNotPinned is returned by UnpinPage for a page this pool never pinned.
	ErrNotPinned = errors.New("bufferpool: page is not currently pinned")
)

// Frame holds one cached page and its bookkeeping.
type Frame struct {
	PageID storage.PageId
	Page   *storage.Page
	Dirty  bool
	Pin    int32
}

var _ Manager = (*Pool)(nil)

// Pool is a fixed-size buffer pool bound to one FileSet, replacing frames
// via CLOCK (second-chance) when full.
type Pool struct {
	sm *storage.StorageManager
	fs storage.FileSet

	mu        sync.Mutex
	frames    []*Frame
	pageTable map[storage.PageId]int
	capacity  int
	clock     *clockx.Clock

	// nextPageID is the pool's own allocation cursor. It cannot be derived
	// by re-scanning fs on every call: a freshly allocated page stays
	// resident (and possibly dirty) in its frame until eviction or
	// FlushFile, so the on-disk extent lags behind what has actually been
	// handed out. It is seeded once, lazily, from the on-disk page count.
	nextPageID     storage.PageId
	nextPageIDInit bool
}

// NewPool creates a buffer pool of the given capacity over fs. capacity <=
// 0 falls back to 16 frames (not DefaultCapacity).
func NewPool(sm *storage.StorageManager, fs storage.FileSet, capacity int) *Pool {
	if capacity <= 0 {
		capacity = 16
	}
	return &Pool{
		sm:        sm,
		fs:        fs,
		frames:    make([]*Frame, capacity),
		pageTable: make(map[storage.PageId]int),
		capacity:  capacity,
		clock:     clockx.New(capacity),
	}
}

// ReadPage pins and returns pageID, loading it from disk on a cache miss.
func (p *Pool) ReadPage(fs storage.FileSet, pageID storage.PageId) (*storage.Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	slog.Debug(logDebugPrefix+"ReadPage", "pageID", pageID)

	if idx, ok := p.pageTable[pageID]; ok {
		f := p.frames[idx]
		if f == nil {
			slog.Error(logDebugPrefix+"pageTable points to nil frame", "pageID", pageID, "frameIdx", idx)
			delete(p.pageTable, pageID)
		} else {
			f.Pin++
			p.clock.Touch(idx)
			p.clock.SetEvictable(idx, false)
			return f.Page, nil
		}
	}

	idx, err := p.frameForLocked(fs, pageID)
	if err != nil {
		return nil, err
	}
	return p.frames[idx].Page, nil
}

// AllocatePage reserves a fresh PageId from the pool's own allocation
// cursor and pins it in a frame, without reading anything from disk.
func (p *Pool) AllocatePage(fs storage.FileSet) (*storage.Page, storage.PageId, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.nextPageIDInit {
		count, err := p.sm.CountPages(fs)
		if err != nil {
			return nil, 0, err
		}
		if count == 0 {
			count = 1 // PageId 0 is reserved as "none"
		}
		p.nextPageID = count
		p.nextPageIDInit = true
	}
	pageID := p.nextPageID
	p.nextPageID++
	page := storage.NewPage(pageID)

	idx, err := p.evictSlotLocked()
	if err != nil {
		return nil, 0, err
	}

	f := &Frame{PageID: pageID, Page: page, Dirty: true, Pin: 1}
	p.frames[idx] = f
	p.pageTable[pageID] = idx
	p.clock.Touch(idx)
	p.clock.SetEvictable(idx, false)

	slog.Debug(logDebugPrefix+"AllocatePage", "pageID", pageID, "frameIdx", idx)
	return page, pageID, nil
}

// frameForLocked finds a frame for pageID, loading it from disk into a
// free or evicted slot. Caller must hold p.mu.
func (p *Pool) frameForLocked(fs storage.FileSet, pageID storage.PageId) (int, error) {
	idx, err := p.evictSlotLocked()
	if err != nil {
		return -1, err
	}

	page, err := p.sm.LoadPage(fs, pageID)
	if err != nil {
		return -1, err
	}

	f := &Frame{PageID: pageID, Page: page, Dirty: false, Pin: 1}
	p.frames[idx] = f
	p.pageTable[pageID] = idx
	p.clock.Touch(idx)
	p.clock.SetEvictable(idx, false)

	slog.Debug(logDebugPrefix+"loaded page into frame", "pageID", pageID, "frameIdx", idx)
	return idx, nil
}

// evictSlotLocked returns an index ready to receive a new page: a free
// slot if one exists, otherwise a CLOCK victim flushed if dirty. Caller
// must hold p.mu.
func (p *Pool) evictSlotLocked() (int, error) {
	for i, f := range p.frames {
		if f == nil {
			return i, nil
		}
	}

	victimIdx, ok := p.clock.Evict()
	if !ok {
		slog.Debug(logDebugPrefix + "CLOCK could not find a victim (all pinned or busy)")
		return -1, ErrNoFreeFrame
	}

	victim := p.frames[victimIdx]
	if victim.Dirty {
		slog.Debug(logDebugPrefix+"flushing dirty victim page", "victimPageID", victim.PageID)
		if err := p.sm.SavePage(p.fs, victim.PageID, victim.Page); err != nil {
			return -1, err
		}
	}

	delete(p.pageTable, victim.PageID)
	p.frames[victimIdx] = nil
	return victimIdx, nil
}

// UnpinPage releases one pin on pageID, optionally marking it dirty. Once
// the pin count reaches zero, the frame becomes eligible for CLOCK
// eviction.
func (p *Pool) UnpinPage(fs storage.FileSet, pageID storage.PageId, dirty bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.pageTable[pageID]
	if !ok {
		return ErrNotPinned
	}
	f := p.frames[idx]
	if f == nil || f.Pin <= 0 {
		return ErrNotPinned
	}

	if dirty {
		f.Dirty = true
	}
	f.Pin--
	if f.Pin == 0 {
		p.clock.SetEvictable(idx, true)
	}

	slog.Debug(logDebugPrefix+"UnpinPage", "pageID", pageID, "dirty", f.Dirty, "newPin", f.Pin)
	return nil
}

// FlushFile writes every dirty frame back to disk. It fails without
// writing anything if any frame is still pinned.
func (p *Pool) FlushFile(fs storage.FileSet) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, f := range p.frames {
		if f != nil && f.Pin > 0 {
			return ErrPagePinned
		}
	}

	slog.Debug(logDebugPrefix + "FlushFile started")
	for _, f := range p.frames {
		if f == nil || !f.Dirty {
			continue
		}
		if err := p.sm.SavePage(p.fs, f.PageID, f.Page); err != nil {
			return err
		}
		f.Dirty = false
	}
	slog.Debug(logDebugPrefix + "FlushFile completed")
	return nil
}
