package btree

import "errors"

var (
	// ErrBadOpcodes is raised when StartScan is given an operator outside
	// {GT, GTE} for the low bound or {LT, LTE} for the high bound.
	ErrBadOpcodes = errors.New("btree: bad scan opcodes")

	// ErrBadScanRange is raised when lowVal > highVal.
	ErrBadScanRange = errors.New("btree: low bound greater than high bound")

	// ErrScanNotInitialized is raised by ScanNext or EndScan before StartScan.
	ErrScanNotInitialized = errors.New("btree: scan not initialized")

	// ErrScanCompleted is the terminal signal once a scan has passed its
	// high bound. It is sticky: subsequent ScanNext calls keep raising it.
	ErrScanCompleted = errors.New("btree: scan completed")

	// ErrNoSuchKeyFound is raised by point lookups where the key is absent.
	ErrNoSuchKeyFound = errors.New("btree: no such key found")

	// ErrBadIndexInfo is raised when a persisted meta page disagrees with
	// the relation name / attribute offset supplied to the constructor.
	ErrBadIndexInfo = errors.New("btree: persisted index info mismatch")

	// ErrIndexClosed guards every public method after Close.
	ErrIndexClosed = errors.New("btree: index is closed")

	// ErrInvalidLevel is an internal consistency check: during descent, an
	// internal page's stored level differs from the level the descent
	// expects it to hold.
	ErrInvalidLevel = errors.New("btree: invalid node level")

	// ErrNodeFull is returned internally when an ordered insert is
	// attempted against a node with no free slot; callers must split first.
	ErrNodeFull = errors.New("btree: node has no free slot")

	// ErrEndOfFile is the relation-scan exhaustion signal bulk load expects
	// from a RelationScan implementation; it ends bulk load normally and is
	// never surfaced to the caller of OpenOrCreate.
	ErrEndOfFile = errors.New("btree: end of file")
)
