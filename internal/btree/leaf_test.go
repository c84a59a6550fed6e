package btree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kagedb/bptreeidx/internal/storage"
)

func TestLeafNode_InsertSorted_KeepsAscendingOrder(t *testing.T) {
	p := storage.NewPage(1)
	leaf := newLeafNode(p)
	leaf.View.Reset()

	for _, k := range []KeyType{5, 2, 8, 1, 9, 3, 7, 4, 6} {
		require.NoError(t, leaf.insertSorted(k, RID{PageID: 1, Slot: uint16(k)}))
	}

	num := leaf.View.NumKeys()
	require.Equal(t, 9, num)
	for i := 1; i < num; i++ {
		require.Less(t, leaf.View.Key(i-1), leaf.View.Key(i))
	}
}

func TestLeafNode_InsertSorted_NodeFullWithNoSentinel(t *testing.T) {
	p := storage.NewPage(1)
	leaf := newLeafNode(p)
	leaf.View.Reset()

	for i := 0; i < N_LEAF; i++ {
		require.NoError(t, leaf.insertSorted(KeyType(i), RID{PageID: 1, Slot: uint16(i)}))
	}
	require.True(t, leaf.Full())
	require.ErrorIs(t, leaf.insertSorted(KeyType(N_LEAF), RID{}), ErrNodeFull)
}

func TestLeafNode_Split_MovesUpperHalfAndLinksSibling(t *testing.T) {
	left := storage.NewPage(1)
	leaf := newLeafNode(left)
	leaf.View.Reset()
	leaf.View.SetRightSibPageNo(99)

	for i := 0; i < N_LEAF; i++ {
		require.NoError(t, leaf.insertSorted(KeyType(i), RID{PageID: 1, Slot: uint16(i)}))
	}

	rightPage := storage.NewPage(2)
	sib, upKey := leaf.split(rightPage)

	require.Equal(t, N_LEAF/2, leaf.View.NumKeys())
	require.Equal(t, N_LEAF-N_LEAF/2, sib.View.NumKeys())
	require.Equal(t, KeyType(N_LEAF/2), upKey)
	require.Equal(t, storage.PageId(2), leaf.View.RightSibPageNo())
	require.Equal(t, storage.PageId(99), sib.View.RightSibPageNo())

	for i := 0; i < leaf.View.NumKeys(); i++ {
		require.Less(t, leaf.View.Key(i), upKey)
	}
	for i := 0; i < sib.View.NumKeys(); i++ {
		require.GreaterOrEqual(t, sib.View.Key(i), upKey)
	}
}
