package btree

import "github.com/kagedb/bptreeidx/internal/storage"

// nodeHeaderOffset is where node-specific fields begin. Bytes
// [0:storage.HeaderSize] remain the page's generic header (flags/pageID),
// left untouched since node pages never go through the slotted-tuple path.
const nodeHeaderOffset = storage.HeaderSize

const (
	keySize   = 4 // int32
	childSize = 4 // storage.PageId (uint32)
)

// N_LEAF is the maximum number of (key, rid) pairs a leaf node holds.
// N_INT is the maximum number of separator keys an internal node holds
// (it therefore has up to N_INT+1 children).
var (
	N_LEAF = leafCapacity()
	N_INT  = internalCapacity()
)

func leafCapacity() int {
	free := storage.PageSize - leafArraysOffset
	entry := keySize + ridSize
	if free <= 0 || entry <= 0 {
		return 0
	}
	return free / entry
}

func internalCapacity() int {
	free := storage.PageSize - internalArraysOffset - childSize // reserve the +1'th child
	if free <= 0 {
		return 0
	}
	return free / (keySize + childSize)
}
