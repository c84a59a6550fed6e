package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestFS(t *testing.T) LocalFileSet {
	t.Helper()
	return LocalFileSet{Dir: t.TempDir(), Base: "segment"}
}

func TestStorageManager_LoadPage_UninitializedIsZeroed(t *testing.T) {
	fs := newTestFS(t)
	sm := NewStorageManager()

	pg, err := sm.LoadPage(fs, 0)
	require.NoError(t, err)
	require.NotNil(t, pg)
	require.IsType(t, &Page{}, pg)
	require.Equal(t, PageId(0), pg.PageID())
	require.Equal(t, HeaderSize, pg.lower())
}

func TestStorageManager_SaveThenLoad_RoundTrip(t *testing.T) {
	fs := newTestFS(t)
	sm := NewStorageManager()

	p := NewPage(3)
	_, err := p.InsertTuple([]byte("hello"))
	require.NoError(t, err)

	require.NoError(t, sm.SavePage(fs, 3, p))

	reloaded, err := sm.LoadPage(fs, 3)
	require.NoError(t, err)
	tup, err := reloaded.ReadTuple(0)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), tup)
}

func TestStorageManager_AllocatePage_IsSequential(t *testing.T) {
	fs := newTestFS(t)
	sm := NewStorageManager()

	id0, p0, err := sm.AllocatePage(fs)
	require.NoError(t, err)
	require.Equal(t, PageId(0), id0)
	require.NoError(t, sm.SavePage(fs, id0, p0))

	id1, p1, err := sm.AllocatePage(fs)
	require.NoError(t, err)
	require.Equal(t, PageId(1), id1)
	require.NoError(t, sm.SavePage(fs, id1, p1))

	count, err := sm.CountPages(fs)
	require.NoError(t, err)
	require.Equal(t, uint32(2), count)
}
