package btree

import (
	"fmt"
	"log/slog"

	"github.com/kagedb/bptreeidx/internal/storage"
)

// InternalNode wraps an InternalView with the descent, ordered-insert and
// split operations from the node-operations layer. keys[i] is the smallest
// key reachable through children[i+1]; children[0..NumKeys()] are the
// populated child pointers.
type InternalNode struct {
	View InternalView
}

func newInternalNode(p *storage.Page) InternalNode {
	return InternalNode{View: InternalView{Page: p}}
}

// Full reports whether the node has no free (sentinel) key slot.
func (n InternalNode) Full() bool {
	return n.View.NumKeys() >= N_INT
}

// childIndex returns the index i such that descent for key should follow
// children[i]: the smallest i with keys[i] > key, or NumKeys() (the
// rightmost populated child) if no such i exists. Keys equal to key fall
// through to the right subtree, per the fixed (arbitrary) tie-break.
func (n InternalNode) childIndex(key KeyType) int {
	v := n.View
	num := v.NumKeys()
	for i := 0; i < num; i++ {
		if v.Key(i) > key {
			return i
		}
	}
	return num
}

// child returns the PageId descent should follow for key.
func (n InternalNode) child(key KeyType) storage.PageId {
	return n.View.Child(n.childIndex(key))
}

// insertSorted places (upKey, rightChild) into the node: finds the smallest
// i with keys[i] == sentinel or keys[i] > upKey, shifts keys[i..] and
// children[i+1..] right by one, then writes keys[i] = upKey,
// children[i+1] = rightChild. The left child at i is left unchanged.
// Precondition: at least one sentinel key slot.
func (n InternalNode) insertSorted(upKey KeyType, rightChild storage.PageId) error {
	v := n.View
	num := v.NumKeys()
	if num >= N_INT {
		return ErrNodeFull
	}

	i := 0
	for i < num && v.Key(i) <= upKey {
		i++
	}
	for j := num; j > i; j-- {
		v.SetKey(j, v.Key(j-1))
	}
	for j := num + 1; j > i+1; j-- {
		v.SetChild(j, v.Child(j-1))
	}
	v.SetKey(i, upKey)
	v.SetChild(i+1, rightChild)

	slog.Debug("btree.internal.insert", "pageID", v.Page.PageID(), "upKey", upKey, "slot", i)
	return nil
}

// split partitions a full node's N_INT existing keys plus (upKey,
// rightChild) into a lower half retained in node, a pushed-up median key,
// and an upper half moved into a freshly allocated sibling at the same
// level. sib.children[0] takes the child pointer that logically sits
// between the two halves.
func (n InternalNode) split(sibPage *storage.Page, upKey KeyType, rightChild storage.PageId) (sib InternalNode, medianKey KeyType) {
	type kc struct {
		key   KeyType
		child storage.PageId
	}

	// Combined logical sequence: N_INT existing (key, rightward-child) pairs
	// plus (upKey, rightChild), sorted by key, with children[0] carried
	// along as the implicit leftmost pointer.
	leftmost := n.View.Child(0)
	combined := make([]kc, 0, N_INT+1)
	inserted := false
	for i := 0; i < N_INT; i++ {
		k := n.View.Key(i)
		c := n.View.Child(i + 1)
		if !inserted && upKey < k {
			combined = append(combined, kc{upKey, rightChild})
			inserted = true
		}
		combined = append(combined, kc{k, c})
	}
	if !inserted {
		combined = append(combined, kc{upKey, rightChild})
	}

	medianPos := N_INT / 2
	medianKey = combined[medianPos].key

	sib = newInternalNode(sibPage)
	sib.View.Reset(n.View.Level())

	// node keeps children[0..medianPos] (leftmost plus every child strictly
	// below the median); sib gets the median's child as its own leftmost,
	// plus everything after.
	n.View.Reset(n.View.Level())
	n.View.SetChild(0, leftmost)
	for i := 0; i < medianPos; i++ {
		n.View.SetKey(i, combined[i].key)
		n.View.SetChild(i+1, combined[i].child)
	}

	sib.View.SetChild(0, combined[medianPos].child)
	for i := medianPos + 1; i < len(combined); i++ {
		j := i - medianPos - 1
		sib.View.SetKey(j, combined[i].key)
		sib.View.SetChild(j+1, combined[i].child)
	}

	slog.Debug("btree.internal.split",
		"leftPageID", n.View.Page.PageID(),
		"rightPageID", sib.View.Page.PageID(),
		"medianKey", medianKey,
	)
	return sib, medianKey
}

// DebugDump prints a human-readable representation of the node's level,
// separator keys, and child PageIds, for manual inspection during
// development. It is not part of the public Index surface.
func (n InternalNode) DebugDump() string {
	s := fmt.Sprintf("InternalNode(page=%d, level=%d){ child=%d", n.View.Page.PageID(), n.View.Level(), n.View.Child(0))
	for i := 0; i < n.View.NumKeys(); i++ {
		s += fmt.Sprintf(", key=%d, child=%d", n.View.Key(i), n.View.Child(i+1))
	}
	return s + " }"
}
