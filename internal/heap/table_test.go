package heap

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kagedb/bptreeidx/internal/bufferpool"
	"github.com/kagedb/bptreeidx/internal/record"
	"github.com/kagedb/bptreeidx/internal/storage"
)

func newTestTable(t *testing.T, base string) (*Table, *storage.StorageManager, storage.LocalFileSet) {
	t.Helper()

	dir := t.TempDir()

	sm := storage.NewStorageManager()
	fs := storage.LocalFileSet{Dir: dir, Base: base}
	bp := bufferpool.NewPool(sm, fs, bufferpool.DefaultCapacity)

	schema := record.Schema{
		Cols: []record.Column{
			{Name: "id", Type: record.ColInt64, Nullable: false},
			{Name: "name", Type: record.ColText, Nullable: false},
			{Name: "active", Type: record.ColBool, Nullable: false},
		},
	}

	tbl := NewTable(base, schema, sm, fs, bp, 0)
	return tbl, sm, fs
}

func TestTable_InsertAndScan_Persisted(t *testing.T) {
	tbl, sm, fs := newTestTable(t, "users")

	const numRows = 10
	type rowData struct {
		id     int64
		name   string
		active bool
	}
	expected := make(map[int64]rowData)

	for i := 1; i <= numRows; i++ {
		r := rowData{id: int64(i), name: fmt.Sprintf("user-%d", i), active: i%2 == 0}
		_, err := tbl.Insert([]any{r.id, r.name, r.active})
		require.NoError(t, err)
		expected[r.id] = r
	}

	require.NoError(t, tbl.BP.FlushFile(fs))

	pageCount, err := sm.CountPages(fs)
	require.NoError(t, err)
	require.Greater(t, pageCount, storage.PageId(0))

	bp2 := bufferpool.NewPool(sm, fs, bufferpool.DefaultCapacity)
	tbl2 := NewTable("users", tbl.Schema, sm, fs, bp2, pageCount)

	got := make(map[int64]rowData)
	err = tbl2.Scan(func(id TID, row []any) error {
		got[row[0].(int64)] = rowData{
			id:     row[0].(int64),
			name:   row[1].(string),
			active: row[2].(bool),
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, expected, got)
}

func TestTable_DeleteAndScan(t *testing.T) {
	tbl, sm, fs := newTestTable(t, "users_delete")

	var tid3 TID
	for i := 1; i <= 5; i++ {
		tid, err := tbl.Insert([]any{int64(i), fmt.Sprintf("user-%d", i), i%2 == 0})
		require.NoError(t, err)
		if i == 3 {
			tid3 = tid
		}
	}

	require.NoError(t, tbl.Delete(tid3))
	require.NoError(t, tbl.BP.FlushFile(fs))

	pageCount, err := sm.CountPages(fs)
	require.NoError(t, err)

	bp2 := bufferpool.NewPool(sm, fs, bufferpool.DefaultCapacity)
	tbl2 := NewTable("users_delete", tbl.Schema, sm, fs, bp2, pageCount)

	found := make(map[int64]bool)
	err = tbl2.Scan(func(id TID, row []any) error {
		found[row[0].(int64)] = true
		return nil
	})
	require.NoError(t, err)

	require.False(t, found[3], "id=3 should have been deleted")
	require.True(t, found[1])
	require.True(t, found[2])
	require.True(t, found[4])
	require.True(t, found[5])
	require.Len(t, found, 4)
}

func TestTable_Scanner_MatchesCallbackScan(t *testing.T) {
	tbl, _, _ := newTestTable(t, "users_scanner")

	const numRows = 7
	for i := 1; i <= numRows; i++ {
		_, err := tbl.Insert([]any{int64(i), fmt.Sprintf("user-%d", i), true})
		require.NoError(t, err)
	}

	sc := tbl.NewScanner()
	count := 0
	var ids []TID
	for {
		var id TID
		err := sc.ScanNext(&id)
		if err == ErrEndOfFile {
			break
		}
		require.NoError(t, err)
		raw, err := sc.GetRecord()
		require.NoError(t, err)
		row, err := record.DecodeRow(tbl.Schema, raw)
		require.NoError(t, err)
		require.Equal(t, int64(count+1), row[0].(int64))
		ids = append(ids, id)
		count++
	}
	require.Equal(t, numRows, count)
	require.Len(t, ids, numRows)

	// Scanner is exhausted: further calls keep raising ErrEndOfFile.
	var id TID
	require.ErrorIs(t, sc.ScanNext(&id), ErrEndOfFile)
}
