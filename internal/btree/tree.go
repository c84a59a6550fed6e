package btree

import (
	"log/slog"
	"sync/atomic"

	"github.com/kagedb/bptreeidx/internal/bufferpool"
	"github.com/kagedb/bptreeidx/internal/storage"
)

// Index is the disk-backed B+Tree engine: it owns the root page number,
// drives descent, orchestrates splits that propagate from leaf toward
// root, and replaces the root when a split propagates past the top.
//
// Constraints:
//   - Exactly one attribute is indexed, a signed 32-bit integer.
//   - Root level 0 means the root is itself a leaf; level N>=1 means the
//     root is an internal node N levels above the leaves.
type Index struct {
	SM *storage.StorageManager
	FS storage.FileSet
	BP bufferpool.Manager

	RelationName   string
	AttrByteOffset int
	AttrType       AttrType
	IndexName      string

	Root      storage.PageId
	rootLevel int

	scan *scanState

	closed atomic.Bool
}

// allocPage allocates a fresh page for this index, resetting it so no
// stale content leaks through.
func (idx *Index) allocPage() (storage.PageId, *storage.Page, error) {
	p, pid, err := idx.BP.AllocatePage(idx.FS)
	if err != nil {
		return 0, nil, err
	}
	p.Reset(pid)
	slog.Debug("btree.allocPage", "pageID", pid)
	return pid, p, nil
}

// InsertEntry inserts (key, rid) into the tree, descending to the covering
// leaf, splitting and propagating as needed. Duplicate key/rid pairs are
// accepted as distinct entries.
func (idx *Index) InsertEntry(key KeyType, rid RID) error {
	if err := idx.ensureOpen(); err != nil {
		return err
	}

	slog.Debug("btree.InsertEntry.start", "key", key, "root", idx.Root, "rootLevel", idx.rootLevel)

	path, err := idx.descendRecordingPath(key)
	if err != nil {
		return err
	}
	leafPageID := path[len(path)-1]
	ancestors := path[:len(path)-1]

	upKey, rightChild, split, err := idx.insertIntoLeaf(leafPageID, key, rid)
	if err != nil {
		return err
	}
	if !split {
		return nil
	}

	return idx.propagate(ancestors, upKey, rightChild)
}

// GetEntry performs a point lookup for key, returning the first matching
// rid. Returns ErrNoSuchKeyFound if no entry with that key exists.
func (idx *Index) GetEntry(key KeyType) (RID, error) {
	if err := idx.ensureOpen(); err != nil {
		return RID{}, err
	}

	path, err := idx.descendRecordingPath(key)
	if err != nil {
		return RID{}, err
	}
	leafPageID := path[len(path)-1]

	p, err := idx.BP.ReadPage(idx.FS, leafPageID)
	if err != nil {
		return RID{}, err
	}
	leaf := newLeafNode(p)
	num := leaf.View.NumKeys()
	for i := 0; i < num; i++ {
		if leaf.View.Key(i) == key {
			rid := leaf.View.RID(i)
			if err := idx.BP.UnpinPage(idx.FS, leafPageID, false); err != nil {
				return RID{}, err
			}
			return rid, nil
		}
	}
	if err := idx.BP.UnpinPage(idx.FS, leafPageID, false); err != nil {
		return RID{}, err
	}
	return RID{}, ErrNoSuchKeyFound
}

// descendRecordingPath walks from the root to the leaf covering key,
// recording every visited PageId (root first, leaf last), and unpinning
// each internal page immediately after choosing its child. The leaf
// itself is left for the caller to pin and handle.
func (idx *Index) descendRecordingPath(key KeyType) ([]storage.PageId, error) {
	path := make([]storage.PageId, 0, idx.rootLevel+1)
	pageID := idx.Root
	level := idx.rootLevel

	for level > 0 {
		path = append(path, pageID)
		p, err := idx.BP.ReadPage(idx.FS, pageID)
		if err != nil {
			return nil, err
		}
		node := newInternalNode(p)
		if node.View.Level() != level {
			_ = idx.BP.UnpinPage(idx.FS, pageID, false)
			return nil, ErrInvalidLevel
		}
		childID := node.child(key)
		if err := idx.BP.UnpinPage(idx.FS, pageID, false); err != nil {
			return nil, err
		}
		pageID = childID
		level--
	}
	path = append(path, pageID)
	return path, nil
}

// insertIntoLeaf pins leafPageID, inserts (key, rid) in order, splitting
// the leaf first if it is full. Returns the split's separator key and
// sibling PageId when a split occurred.
func (idx *Index) insertIntoLeaf(leafPageID storage.PageId, key KeyType, rid RID) (upKey KeyType, rightChild storage.PageId, split bool, err error) {
	p, err := idx.BP.ReadPage(idx.FS, leafPageID)
	if err != nil {
		return 0, 0, false, err
	}
	leaf := newLeafNode(p)

	if !leaf.Full() {
		if err := leaf.insertSorted(key, rid); err != nil {
			_ = idx.BP.UnpinPage(idx.FS, leafPageID, false)
			return 0, 0, false, err
		}
		return 0, 0, false, idx.BP.UnpinPage(idx.FS, leafPageID, true)
	}

	sibPageID, sibPage, err := idx.allocPage()
	if err != nil {
		_ = idx.BP.UnpinPage(idx.FS, leafPageID, false)
		return 0, 0, false, err
	}
	sib, sibMin := leaf.split(sibPage)

	if key < sibMin {
		err = leaf.insertSorted(key, rid)
	} else {
		err = sib.insertSorted(key, rid)
	}
	if err != nil {
		_ = idx.BP.UnpinPage(idx.FS, leafPageID, false)
		_ = idx.BP.UnpinPage(idx.FS, sibPageID, false)
		return 0, 0, false, err
	}

	if err := idx.BP.UnpinPage(idx.FS, leafPageID, true); err != nil {
		return 0, 0, false, err
	}
	if err := idx.BP.UnpinPage(idx.FS, sibPageID, true); err != nil {
		return 0, 0, false, err
	}

	slog.Debug("btree.leaf.split.propagate", "upKey", sibMin, "rightChild", sibPageID)
	return sibMin, sibPageID, true, nil
}

// propagate walks ancestors from the leaf's parent upward, re-pinning each
// by its recorded PageId, inserting the pending (upKey, rightChild) pair
// or splitting again and continuing. If the loop exhausts the recorded
// path, a new root is allocated one level above the old one.
func (idx *Index) propagate(ancestors []storage.PageId, upKey KeyType, rightChild storage.PageId) error {
	for i := len(ancestors) - 1; i >= 0; i-- {
		pageID := ancestors[i]
		p, err := idx.BP.ReadPage(idx.FS, pageID)
		if err != nil {
			return err
		}
		node := newInternalNode(p)

		if !node.Full() {
			if err := node.insertSorted(upKey, rightChild); err != nil {
				_ = idx.BP.UnpinPage(idx.FS, pageID, false)
				return err
			}
			return idx.BP.UnpinPage(idx.FS, pageID, true)
		}

		sibPageID, sibPage, err := idx.allocPage()
		if err != nil {
			_ = idx.BP.UnpinPage(idx.FS, pageID, false)
			return err
		}
		_, median := node.split(sibPage, upKey, rightChild)

		if err := idx.BP.UnpinPage(idx.FS, pageID, true); err != nil {
			return err
		}
		if err := idx.BP.UnpinPage(idx.FS, sibPageID, true); err != nil {
			return err
		}

		upKey, rightChild = median, sibPageID
	}

	return idx.replaceRoot(upKey, rightChild)
}

// replaceRoot allocates a new internal root one level above the old one,
// with keys[0] = upKey, children[0] = the old root, children[1] = the
// newly split-off sibling, and persists the new root to the meta page.
func (idx *Index) replaceRoot(upKey KeyType, rightChild storage.PageId) error {
	newLevel := idx.rootLevel + 1
	rootPageID, rootPage, err := idx.allocPage()
	if err != nil {
		return err
	}
	root := newInternalNode(rootPage)
	root.View.Reset(newLevel)
	root.View.SetChild(0, idx.Root)
	root.View.SetKey(0, upKey)
	root.View.SetChild(1, rightChild)

	if err := idx.BP.UnpinPage(idx.FS, rootPageID, true); err != nil {
		return err
	}

	idx.Root = rootPageID
	idx.rootLevel = newLevel

	slog.Debug("btree.root.replace", "newRoot", rootPageID, "newLevel", newLevel)
	return idx.writeRoot(rootPageID, newLevel)
}

func (idx *Index) ensureOpen() error {
	if idx == nil || idx.closed.Load() {
		return ErrIndexClosed
	}
	return nil
}

// GetRootPageId returns the current root PageId.
func (idx *Index) GetRootPageId() storage.PageId { return idx.Root }

// GetHeaderPageId returns the meta page's PageId. It is always MetaPageID,
// since every index keeps its meta page at the same fixed location.
func (idx *Index) GetHeaderPageId() storage.PageId { return MetaPageID }

// GetRelationName returns the relation name this index was built for.
func (idx *Index) GetRelationName() string { return idx.RelationName }
