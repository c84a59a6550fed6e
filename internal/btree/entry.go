package btree

import "github.com/kagedb/bptreeidx/internal/storage"

// KeyType is the single indexed attribute type: a fixed-width signed
// 32-bit integer.
type KeyType = int32

// sentinelKey marks an unused tail slot in a node's key array. Valid keys
// are assumed non-negative, matching the convention of the system this
// index is modeled on.
const sentinelKey KeyType = -1

// RID is the opaque row identity this index stores verbatim and never
// dereferences: a (PageId, slot) pair in the underlying heap relation.
type RID struct {
	PageID storage.PageId
	Slot   uint16
}

const ridSize = 4 + 2 // PageId uint32 + Slot uint16
