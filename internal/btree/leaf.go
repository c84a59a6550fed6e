package btree

import (
	"fmt"
	"log/slog"

	"github.com/kagedb/bptreeidx/internal/storage"
)

// LeafNode wraps a LeafView with the ordered-insert and split operations
// from the node-operations layer. All N_LEAF key/rid slots live at fixed
// offsets; there is no per-entry tuple and no in-memory sort, since the
// array is kept ascending on every write.
type LeafNode struct {
	View LeafView
}

func newLeafNode(p *storage.Page) LeafNode {
	return LeafNode{View: LeafView{Page: p}}
}

// Full reports whether the leaf has no free (sentinel) slot.
func (n LeafNode) Full() bool {
	return n.View.NumKeys() >= N_LEAF
}

// insertSorted finds the smallest i with keys[i] == sentinel or keys[i] >
// key, shifts the tail right by one, and writes (key, rid) at i. Precondition:
// at least one sentinel slot (the caller must split first otherwise).
func (n LeafNode) insertSorted(key KeyType, rid RID) error {
	v := n.View
	num := v.NumKeys()
	if num >= N_LEAF {
		return ErrNodeFull
	}

	i := 0
	for i < num && v.Key(i) <= key {
		i++
	}
	for j := num; j > i; j-- {
		v.SetKey(j, v.Key(j-1))
		v.SetRID(j, v.RID(j-1))
	}
	v.SetKey(i, key)
	v.SetRID(i, rid)

	slog.Debug("btree.leaf.insert", "pageID", v.Page.PageID(), "key", key, "slot", i)
	return nil
}

// split moves the upper half (slots N_LEAF/2..N_LEAF-1) of a full leaf into
// a freshly allocated sibling, links the two via rightSibPageNo, and returns
// the pushed-up separator key (sib's first key).
func (n LeafNode) split(sibPage *storage.Page) (sib LeafNode, upKey KeyType) {
	sib = newLeafNode(sibPage)
	sib.View.Reset()

	mid := N_LEAF / 2
	for i := mid; i < N_LEAF; i++ {
		sib.View.SetKey(i-mid, n.View.Key(i))
		sib.View.SetRID(i-mid, n.View.RID(i))
		n.View.SetKey(i, sentinelKey)
	}

	sib.View.SetRightSibPageNo(n.View.RightSibPageNo())
	n.View.SetRightSibPageNo(sib.View.Page.PageID())

	upKey = sib.View.Key(0)
	slog.Debug("btree.leaf.split",
		"leftPageID", n.View.Page.PageID(),
		"rightPageID", sib.View.Page.PageID(),
		"upKey", upKey,
	)
	return sib, upKey
}

// DebugDump prints a human-readable representation of the leaf's used
// slots in ascending order, for manual inspection during development. It
// is not part of the public Index surface.
func (n LeafNode) DebugDump() string {
	s := fmt.Sprintf("LeafNode(page=%d, sib=%d){", n.View.Page.PageID(), n.View.RightSibPageNo())
	for i := 0; i < n.View.NumKeys(); i++ {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf(" %d->%+v", n.View.Key(i), n.View.RID(i))
	}
	return s + " }"
}
