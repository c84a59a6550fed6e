package btree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kagedb/bptreeidx/internal/bufferpool"
	"github.com/kagedb/bptreeidx/internal/storage"
)

// emptyScan is a RelationScan that yields no records; used to build an
// index by direct InsertEntry calls instead of bulk load.
type emptyScan struct{}

func (emptyScan) ScanNext(rid *RID) error    { return ErrEndOfFile }
func (emptyScan) GetRecord() ([]byte, error) { return nil, nil }

func newTestIndex(t *testing.T, capacity int) (*Index, storage.LocalFileSet) {
	t.Helper()

	dir := t.TempDir()
	sm := storage.NewStorageManager()
	fs := storage.LocalFileSet{Dir: dir, Base: "idx"}
	bp := bufferpool.NewPool(sm, fs, capacity)

	idx, err := OpenOrCreate(sm, fs, bp, "users", 4, AttrInt32, emptyScan{})
	require.NoError(t, err)
	return idx, fs
}

func TestIndex_Create_StartsAsLeafRoot(t *testing.T) {
	idx, _ := newTestIndex(t, 32)
	require.Equal(t, 0, idx.rootLevel)
	require.Equal(t, storage.PageId(2), idx.Root)
	require.NoError(t, idx.Close())
}

func TestIndex_InsertEntry_FillsLeafWithoutSplitting(t *testing.T) {
	idx, _ := newTestIndex(t, 32)
	defer func() { _ = idx.Close() }()

	for i := 0; i < N_LEAF; i++ {
		require.NoError(t, idx.InsertEntry(KeyType(i), RID{PageID: 1, Slot: uint16(i)}))
	}
	require.Equal(t, 0, idx.rootLevel, "root should still be the single leaf")
}

func TestIndex_InsertEntry_TriggersLeafSplitAndRootPromotion(t *testing.T) {
	idx, _ := newTestIndex(t, 64)
	defer func() { _ = idx.Close() }()

	for i := 0; i <= N_LEAF; i++ {
		require.NoError(t, idx.InsertEntry(KeyType(i), RID{PageID: 1, Slot: uint16(i)}))
	}
	require.Equal(t, 1, idx.rootLevel, "root must have been promoted to an internal node")
}

func TestIndex_InsertEntry_OutOfOrderKeysStillScanSorted(t *testing.T) {
	idx, _ := newTestIndex(t, 64)
	defer func() { _ = idx.Close() }()

	keys := []KeyType{5, 2, 8, 1, 9, 3, 7, 4, 6}
	for _, k := range keys {
		require.NoError(t, idx.InsertEntry(k, RID{PageID: 1, Slot: uint16(k)}))
	}

	require.NoError(t, idx.StartScan(1, GTE, 9, LTE))
	var got []KeyType
	for {
		var rid RID
		err := idx.ScanNext(&rid)
		if err == ErrScanCompleted {
			break
		}
		require.NoError(t, err)
		got = append(got, KeyType(rid.Slot))
	}
	require.NoError(t, idx.EndScan())
	require.Equal(t, []KeyType{1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestIndex_Close_Reopen_PreservesRoot(t *testing.T) {
	dir := t.TempDir()
	sm := storage.NewStorageManager()
	fs := storage.LocalFileSet{Dir: dir, Base: "idx"}
	bp := bufferpool.NewPool(sm, fs, 64)

	idx, err := OpenOrCreate(sm, fs, bp, "users", 4, AttrInt32, emptyScan{})
	require.NoError(t, err)
	for i := 0; i <= N_LEAF; i++ {
		require.NoError(t, idx.InsertEntry(KeyType(i), RID{PageID: 1, Slot: uint16(i)}))
	}
	require.NoError(t, idx.Close())

	bp2 := bufferpool.NewPool(sm, fs, 64)
	reopened, err := OpenOrCreate(sm, fs, bp2, "users", 4, AttrInt32, emptyScan{})
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	require.Equal(t, idx.Root, reopened.Root)
	require.Equal(t, idx.rootLevel, reopened.rootLevel)

	require.NoError(t, reopened.StartScan(0, GTE, KeyType(N_LEAF), LTE))
	count := 0
	for {
		var rid RID
		err := reopened.ScanNext(&rid)
		if err == ErrScanCompleted {
			break
		}
		require.NoError(t, err)
		count++
	}
	require.NoError(t, reopened.EndScan())
	require.Equal(t, N_LEAF+1, count)
}

func TestIndex_OpenExisting_BadIndexInfoMismatch(t *testing.T) {
	dir := t.TempDir()
	sm := storage.NewStorageManager()
	fs := storage.LocalFileSet{Dir: dir, Base: "idx"}
	bp := bufferpool.NewPool(sm, fs, 16)

	idx, err := OpenOrCreate(sm, fs, bp, "users", 4, AttrInt32, emptyScan{})
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	bp2 := bufferpool.NewPool(sm, fs, 16)
	_, err = OpenOrCreate(sm, fs, bp2, "orders", 4, AttrInt32, emptyScan{})
	require.ErrorIs(t, err, ErrBadIndexInfo)
}

func TestIndex_GetEntry_FindsInsertedKey(t *testing.T) {
	idx, _ := newTestIndex(t, 32)
	defer func() { _ = idx.Close() }()

	for i := 0; i <= N_LEAF; i++ {
		require.NoError(t, idx.InsertEntry(KeyType(i), RID{PageID: 1, Slot: uint16(i)}))
	}
	require.Equal(t, 1, idx.rootLevel)

	rid, err := idx.GetEntry(KeyType(N_LEAF))
	require.NoError(t, err)
	require.Equal(t, RID{PageID: 1, Slot: uint16(N_LEAF)}, rid)
}

func TestIndex_GetEntry_MissingKeyReturnsErrNoSuchKeyFound(t *testing.T) {
	idx, _ := newTestIndex(t, 32)
	defer func() { _ = idx.Close() }()

	require.NoError(t, idx.InsertEntry(5, RID{PageID: 1, Slot: 5}))

	_, err := idx.GetEntry(999)
	require.ErrorIs(t, err, ErrNoSuchKeyFound)
}
