package heap

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/kagedb/bptreeidx/internal/bufferpool"
	"github.com/kagedb/bptreeidx/internal/record"
	"github.com/kagedb/bptreeidx/internal/storage"
)

var ErrTableClosed = errors.New("heap: table is closed")

// ErrEndOfFile is raised by Scanner.ScanNext once every row has been
// visited, matching the relation-scan contract the index's bulk-load path
// consumes.
var ErrEndOfFile = errors.New("heap: end of file")

// Table is a heap file: an unordered, append-mostly sequence of fixed-
// schema rows addressed by TID, backed by a buffer pool over a FileSet.
type Table struct {
	Name      string
	Schema    record.Schema
	SM        *storage.StorageManager
	FS        storage.FileSet
	BP        bufferpool.Manager
	PageCount storage.PageId

	// pageCountHook is a best-effort callback invoked when PageCount
	// changes, so a collaborator (e.g. the index's meta page) can persist
	// it alongside its own state.
	pageCountHook func(pageCount storage.PageId) error

	closed atomic.Bool
}

func NewTable(
	name string,
	schema record.Schema,
	sm *storage.StorageManager,
	fs storage.FileSet,
	bp bufferpool.Manager,
	pageCount storage.PageId,
) *Table {
	return &Table{
		Name:      name,
		Schema:    schema,
		SM:        sm,
		FS:        fs,
		BP:        bp,
		PageCount: pageCount,
	}
}

func (t *Table) SetPageCountHook(fn func(pageCount storage.PageId) error) {
	t.pageCountHook = fn
}

// Insert encodes values and appends them to the last page with room,
// allocating a new page when it doesn't fit.
func (t *Table) Insert(values []any) (TID, error) {
	if err := t.ensureOpen(); err != nil {
		return TID{}, err
	}

	oldPageCount := t.PageCount

	var pageID storage.PageId
	if t.PageCount == 0 {
		pageID = 0
		t.PageCount = 1
	} else {
		pageID = t.PageCount - 1
	}

	tuple, err := record.EncodeRow(t.Schema, values)
	if err != nil {
		return TID{}, err
	}

	for {
		p, err := t.BP.ReadPage(t.FS, pageID)
		if err != nil {
			return TID{}, err
		}

		slot, err := p.InsertTuple(tuple)
		if errors.Is(err, storage.ErrNoSpace) {
			_ = t.BP.UnpinPage(t.FS, pageID, false)
			pageID = t.PageCount
			t.PageCount++
			continue
		}
		if err != nil {
			_ = t.BP.UnpinPage(t.FS, pageID, false)
			return TID{}, err
		}

		if err := t.BP.UnpinPage(t.FS, pageID, true); err != nil {
			return TID{}, err
		}

		if t.PageCount != oldPageCount && t.pageCountHook != nil {
			if err := t.pageCountHook(t.PageCount); err != nil {
				slog.Warn("heap: pagecount hook failed", "table", t.Name, "pageCount", t.PageCount, "err", err)
			}
		}

		return TID{PageID: pageID, Slot: uint16(slot)}, nil
	}
}

// Get reads a single row by TID.
func (t *Table) Get(id TID) ([]any, error) {
	if err := t.ensureOpen(); err != nil {
		return nil, err
	}

	p, err := t.BP.ReadPage(t.FS, id.PageID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = t.BP.UnpinPage(t.FS, id.PageID, false) }()

	raw, err := p.ReadTuple(int(id.Slot))
	if err != nil {
		return nil, err
	}
	return record.DecodeRow(t.Schema, raw)
}

// Delete marks the row at id as deleted; its slot index is never reused.
func (t *Table) Delete(id TID) error {
	if err := t.ensureOpen(); err != nil {
		return err
	}

	p, err := t.BP.ReadPage(t.FS, id.PageID)
	if err != nil {
		return err
	}

	dirty := false
	defer func() { _ = t.BP.UnpinPage(t.FS, id.PageID, dirty) }()

	if err := p.DeleteTuple(int(id.Slot)); err != nil {
		return err
	}
	dirty = true
	return nil
}

// Scan visits every live row in page/slot order, skipping deleted slots.
func (t *Table) Scan(fn func(id TID, row []any) error) error {
	if err := t.ensureOpen(); err != nil {
		return err
	}

	for pageID := storage.PageId(0); pageID < t.PageCount; pageID++ {
		p, err := t.BP.ReadPage(t.FS, pageID)
		if err != nil {
			return err
		}

		for slot := 0; slot < p.NumSlots(); slot++ {
			raw, err := p.ReadTuple(slot)
			if errors.Is(err, storage.ErrBadSlot) {
				continue
			}
			if err != nil {
				_ = t.BP.UnpinPage(t.FS, pageID, false)
				return err
			}

			row, err := record.DecodeRow(t.Schema, raw)
			if err != nil {
				_ = t.BP.UnpinPage(t.FS, pageID, false)
				return err
			}
			id := TID{PageID: pageID, Slot: uint16(slot)}

			if err := fn(id, row); err != nil {
				_ = t.BP.UnpinPage(t.FS, pageID, false)
				return err
			}
		}

		_ = t.BP.UnpinPage(t.FS, pageID, false)
	}
	return nil
}

// NewScanner returns a stateful cursor exposing the scanNext/getRecord
// relation-scan contract the B+Tree bulk-load path consumes, rather than
// Scan's callback style.
func (t *Table) NewScanner() *Scanner {
	return &Scanner{t: t, pageID: 0, slot: -1}
}

// Scanner is a single forward cursor over a Table's live rows.
type Scanner struct {
	t      *Table
	pageID storage.PageId
	slot   int
	raw    []byte
}

// ScanNext advances to the next live row and writes its TID into id. It
// returns ErrEndOfFile once the table is exhausted.
func (s *Scanner) ScanNext(id *TID) error {
	for {
		if s.pageID >= s.t.PageCount {
			return ErrEndOfFile
		}

		p, err := s.t.BP.ReadPage(s.t.FS, s.pageID)
		if err != nil {
			return err
		}

		s.slot++
		if s.slot >= p.NumSlots() {
			_ = s.t.BP.UnpinPage(s.t.FS, s.pageID, false)
			s.pageID++
			s.slot = -1
			continue
		}

		raw, err := p.ReadTuple(s.slot)
		_ = s.t.BP.UnpinPage(s.t.FS, s.pageID, false)
		if errors.Is(err, storage.ErrBadSlot) {
			continue
		}
		if err != nil {
			return err
		}

		s.raw = raw
		*id = TID{PageID: s.pageID, Slot: uint16(s.slot)}
		return nil
	}
}

// GetRecord returns the raw encoded bytes of the row last visited by
// ScanNext.
func (s *Scanner) GetRecord() ([]byte, error) {
	if s.raw == nil {
		return nil, errors.New("heap: GetRecord called before ScanNext")
	}
	return s.raw, nil
}

func (t *Table) Close() error {
	if t == nil {
		return nil
	}
	if t.closed.Swap(true) {
		return nil
	}
	if t.BP != nil {
		return t.BP.FlushFile(t.FS)
	}
	return nil
}

func (t *Table) ensureOpen() error {
	if t == nil {
		return ErrTableClosed
	}
	if t.closed.Load() {
		return ErrTableClosed
	}
	return nil
}
