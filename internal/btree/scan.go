package btree

import (
	"log/slog"

	"github.com/kagedb/bptreeidx/internal/storage"
)

// ScanOp is a comparison operator accepted by StartScan.
type ScanOp int

const (
	GT ScanOp = iota
	GTE
	LT
	LTE
)

// scanState holds the one active range scan this index permits at a time:
// the currently pinned leaf, a cursor within it, and the comparison
// predicates. While active and not done, curLeaf is the one page this
// index keeps pinned between public calls.
type scanState struct {
	active bool
	done   bool

	lowVal, highVal KeyType
	lowOp, highOp   ScanOp

	curLeafPageID storage.PageId
	curLeaf       LeafNode
	nextEntry     int
}

// StartScan validates the operator/range combination, descends to the leaf
// covering lowVal, and positions the cursor at the first entry satisfying
// the low predicate (following the sibling chain if necessary). Any prior
// scan must already have been ended with EndScan.
func (idx *Index) StartScan(lowVal KeyType, lowOp ScanOp, highVal KeyType, highOp ScanOp) error {
	if err := idx.ensureOpen(); err != nil {
		return err
	}
	if idx.scan != nil && idx.scan.active {
		return ErrScanNotInitialized // a scan is already active; caller must EndScan first
	}
	if lowOp != GT && lowOp != GTE {
		return ErrBadOpcodes
	}
	if highOp != LT && highOp != LTE {
		return ErrBadOpcodes
	}
	if lowVal > highVal {
		return ErrBadScanRange
	}

	path, err := idx.descendRecordingPath(lowVal)
	if err != nil {
		return err
	}
	leafPageID := path[len(path)-1]

	s := &scanState{
		active: true,
		lowVal: lowVal, lowOp: lowOp,
		highVal: highVal, highOp: highOp,
	}

	for {
		p, err := idx.BP.ReadPage(idx.FS, leafPageID)
		if err != nil {
			return err
		}
		leaf := newLeafNode(p)
		num := leaf.View.NumKeys()

		i := 0
		for i < num {
			k := leaf.View.Key(i)
			if (lowOp == GTE && k >= lowVal) || (lowOp == GT && k > lowVal) {
				break
			}
			i++
		}

		if i < num {
			s.curLeafPageID = leafPageID
			s.curLeaf = leaf
			s.nextEntry = i
			idx.scan = s
			slog.Debug("btree.scan.start", "pageID", leafPageID, "entry", i)
			return nil
		}

		sib := leaf.View.RightSibPageNo()
		if err := idx.BP.UnpinPage(idx.FS, leafPageID, false); err != nil {
			return err
		}
		if sib == storage.NoPage {
			s.done = true
			s.curLeafPageID = storage.NoPage
			idx.scan = s
			return nil
		}
		leafPageID = sib
	}
}

// ScanNext emits the next matching rid, advancing the cursor. Returns
// ErrScanCompleted (sticky) once the high bound is passed or the leaf
// chain is exhausted.
func (idx *Index) ScanNext(out *RID) error {
	if err := idx.ensureOpen(); err != nil {
		return err
	}
	s := idx.scan
	if s == nil || !s.active {
		return ErrScanNotInitialized
	}
	if s.done {
		return ErrScanCompleted
	}

	key := s.curLeaf.View.Key(s.nextEntry)
	if (s.highOp == LT && key >= s.highVal) || (s.highOp == LTE && key > s.highVal) {
		s.done = true
		return ErrScanCompleted
	}

	*out = s.curLeaf.View.RID(s.nextEntry)

	num := s.curLeaf.View.NumKeys()
	if s.nextEntry+1 >= num {
		sib := s.curLeaf.View.RightSibPageNo()
		if err := idx.BP.UnpinPage(idx.FS, s.curLeafPageID, false); err != nil {
			return err
		}
		if sib == storage.NoPage {
			s.done = true
			s.curLeafPageID = storage.NoPage
		} else {
			p, err := idx.BP.ReadPage(idx.FS, sib)
			if err != nil {
				return err
			}
			s.curLeafPageID = sib
			s.curLeaf = newLeafNode(p)
			s.nextEntry = 0
		}
	} else {
		s.nextEntry++
	}

	slog.Debug("btree.scan.next", "key", key, "rid", *out)
	return nil
}

// EndScan releases the pinned leaf (if any) and clears cursor state.
// Calling it twice without an intervening StartScan fails.
func (idx *Index) EndScan() error {
	if err := idx.ensureOpen(); err != nil {
		return err
	}
	s := idx.scan
	if s == nil || !s.active {
		return ErrScanNotInitialized
	}
	idx.scan = nil
	if s.curLeafPageID == storage.NoPage {
		return nil
	}
	return idx.BP.UnpinPage(idx.FS, s.curLeafPageID, false)
}
