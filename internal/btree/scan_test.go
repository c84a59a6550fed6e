package btree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIndex_StartScan_BadOpcodesRejected(t *testing.T) {
	idx, _ := newTestIndex(t, 32)
	defer func() { _ = idx.Close() }()

	require.ErrorIs(t, idx.StartScan(0, LT, 10, LTE), ErrBadOpcodes)
	require.ErrorIs(t, idx.StartScan(0, GTE, 10, GT), ErrBadOpcodes)
}

func TestIndex_StartScan_BadRangeRejected(t *testing.T) {
	idx, _ := newTestIndex(t, 32)
	defer func() { _ = idx.Close() }()

	require.ErrorIs(t, idx.StartScan(10, GTE, 0, LTE), ErrBadScanRange)
}

func TestIndex_ScanNext_BeforeStartScan(t *testing.T) {
	idx, _ := newTestIndex(t, 32)
	defer func() { _ = idx.Close() }()

	var rid RID
	require.ErrorIs(t, idx.ScanNext(&rid), ErrScanNotInitialized)
}

func TestIndex_EndScan_WithoutStartScan(t *testing.T) {
	idx, _ := newTestIndex(t, 32)
	defer func() { _ = idx.Close() }()

	require.ErrorIs(t, idx.EndScan(), ErrScanNotInitialized)
}

func TestIndex_Scan_EmptySingletonRange_CompletesImmediately(t *testing.T) {
	idx, _ := newTestIndex(t, 32)
	defer func() { _ = idx.Close() }()

	for i := 0; i < 50; i++ {
		require.NoError(t, idx.InsertEntry(KeyType(i), RID{PageID: 1, Slot: uint16(i)}))
	}

	require.NoError(t, idx.StartScan(42, GT, 42, LT))
	var rid RID
	require.ErrorIs(t, idx.ScanNext(&rid), ErrScanCompleted)
	require.ErrorIs(t, idx.ScanNext(&rid), ErrScanCompleted, "scan-completed must be sticky")
	require.NoError(t, idx.EndScan())
}

func TestIndex_Scan_SingletonRange_ReturnsExactMatch(t *testing.T) {
	idx, _ := newTestIndex(t, 32)
	defer func() { _ = idx.Close() }()

	for i := 0; i < 50; i++ {
		require.NoError(t, idx.InsertEntry(KeyType(i), RID{PageID: 1, Slot: uint16(i)}))
	}

	require.NoError(t, idx.StartScan(42, GTE, 42, LTE))
	var rid RID
	require.NoError(t, idx.ScanNext(&rid))
	require.Equal(t, uint16(42), rid.Slot)
	require.ErrorIs(t, idx.ScanNext(&rid), ErrScanCompleted)
	require.NoError(t, idx.EndScan())
}

func TestIndex_Scan_SpansMultipleLeaves(t *testing.T) {
	idx, _ := newTestIndex(t, 128)
	defer func() { _ = idx.Close() }()

	const n = 9999
	for i := 0; i <= n; i++ {
		require.NoError(t, idx.InsertEntry(KeyType(i), RID{PageID: 1, Slot: uint16(i % 65536)}))
	}
	require.Greater(t, idx.rootLevel, 0, "10000 keys must have split beyond one leaf")

	require.NoError(t, idx.StartScan(2500, GTE, 7500, LT))
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
	require.Equal(t, 5000, count)
}
