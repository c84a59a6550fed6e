package btree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kagedb/bptreeidx/internal/bufferpool"
	"github.com/kagedb/bptreeidx/internal/bx"
	"github.com/kagedb/bptreeidx/internal/storage"
)

// fakeRelationScan yields n records, each a 4-byte buffer holding its index
// as a little-endian int32 at offset 0, with a synthetic RID.
type fakeRelationScan struct {
	n   int
	cur int
}

func (s *fakeRelationScan) ScanNext(rid *RID) error {
	if s.cur >= s.n {
		return ErrEndOfFile
	}
	*rid = RID{PageID: 1, Slot: uint16(s.cur)}
	s.cur++
	return nil
}

func (s *fakeRelationScan) GetRecord() ([]byte, error) {
	buf := make([]byte, 4)
	bx.PutU32(buf, uint32(s.cur-1))
	return buf, nil
}

func TestOpenOrCreate_BulkLoadsFromRelationScan(t *testing.T) {
	dir := t.TempDir()
	sm := storage.NewStorageManager()
	fs := storage.LocalFileSet{Dir: dir, Base: "idx"}
	bp := bufferpool.NewPool(sm, fs, 64)

	idx, err := OpenOrCreate(sm, fs, bp, "users", 0, AttrInt32, &fakeRelationScan{n: 500})
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	require.NoError(t, idx.StartScan(0, GTE, 499, LTE))
	count := 0
	for {
		var rid RID
		err := idx.ScanNext(&rid)
		if err == ErrScanCompleted {
			break
		}
		require.NoError(t, err)
		count++
	}
	require.NoError(t, idx.EndScan())
	require.Equal(t, 500, count)
}

func TestIndex_IndexNameIsRelationDotOffset(t *testing.T) {
	idx, _ := newTestIndex(t, 16)
	defer func() { _ = idx.Close() }()
	require.Equal(t, "users.4", idx.IndexName)
}

func TestIndex_InsertEntry_AfterClose(t *testing.T) {
	idx, _ := newTestIndex(t, 16)
	require.NoError(t, idx.Close())
	require.ErrorIs(t, idx.InsertEntry(1, RID{}), ErrIndexClosed)
}
