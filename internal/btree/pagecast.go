package btree

import (
	"github.com/kagedb/bptreeidx/internal/bx"
	"github.com/kagedb/bptreeidx/internal/storage"
)

// Every node kind gets a concrete, bounds-checked view over a page's raw
// bytes with explicit field offsets. Which kind a given PageId holds is
// never stored on the page itself: the root is known from the meta page,
// and a child's kind follows from its parent's level.

// --- Meta view ---

const (
	metaNameMaxLen      = 64
	metaNameLenOff      = nodeHeaderOffset
	metaNameOff         = metaNameLenOff + 2
	metaAttrTypeOff     = metaNameOff + metaNameMaxLen
	metaAttrOffsetOff   = metaAttrTypeOff + 1
	metaRootPageNoOff = metaAttrOffsetOff + 4
	// metaRootLevelOff is not one of the four named meta fields in the data
	// model; it exists because node pages carry no type tag (per the
	// page-cast design note), so after a reopen the engine needs some way
	// to know whether the recovered root is a leaf or an internal node
	// without a parent to read a level field from. 0 means the root is a
	// leaf; N>=1 means an internal node at that level.
	metaRootLevelOff = metaRootPageNoOff + 4
)

// AttrType enumerates the single attribute type this index supports.
type AttrType uint8

const (
	AttrInt32 AttrType = iota
)

// MetaView overlays the one per-index meta page: relation name, attribute
// type/offset, and the current root PageId.
type MetaView struct {
	Page *storage.Page
}

func (m MetaView) RelationName() string {
	n := int(bx.U16(m.Page.Buf[metaNameLenOff : metaNameLenOff+2]))
	if n > metaNameMaxLen {
		n = metaNameMaxLen
	}
	return string(m.Page.Buf[metaNameOff : metaNameOff+n])
}

func (m MetaView) SetRelationName(name string) {
	if len(name) > metaNameMaxLen {
		name = name[:metaNameMaxLen]
	}
	bx.PutU16(m.Page.Buf[metaNameLenOff:metaNameLenOff+2], uint16(len(name)))
	dst := m.Page.Buf[metaNameOff : metaNameOff+metaNameMaxLen]
	for i := range dst {
		dst[i] = 0
	}
	copy(dst, name)
}

func (m MetaView) AttrType() AttrType { return AttrType(m.Page.Buf[metaAttrTypeOff]) }
func (m MetaView) SetAttrType(t AttrType) { m.Page.Buf[metaAttrTypeOff] = byte(t) }

func (m MetaView) AttrByteOffset() int {
	return int(bx.U32(m.Page.Buf[metaAttrOffsetOff : metaAttrOffsetOff+4]))
}

func (m MetaView) SetAttrByteOffset(off int) {
	bx.PutU32(m.Page.Buf[metaAttrOffsetOff:metaAttrOffsetOff+4], uint32(off))
}

func (m MetaView) RootPageNo() storage.PageId {
	return bx.U32(m.Page.Buf[metaRootPageNoOff : metaRootPageNoOff+4])
}

func (m MetaView) SetRootPageNo(id storage.PageId) {
	bx.PutU32(m.Page.Buf[metaRootPageNoOff:metaRootPageNoOff+4], id)
}

func (m MetaView) RootLevel() int {
	return int(bx.U16(m.Page.Buf[metaRootLevelOff : metaRootLevelOff+2]))
}

func (m MetaView) SetRootLevel(level int) {
	bx.PutU16(m.Page.Buf[metaRootLevelOff:metaRootLevelOff+2], uint16(level))
}

// --- Internal node view ---

const (
	internalLevelOff   = nodeHeaderOffset
	internalArraysOffset = internalLevelOff + 2
)

// InternalView overlays an internal node: a level tag, up to N_INT
// separator keys, and up to N_INT+1 child PageIds.
type InternalView struct {
	Page *storage.Page
}

func (v InternalView) keysOff() int     { return internalArraysOffset }
func (v InternalView) childrenOff() int { return internalArraysOffset + N_INT*keySize }

func (v InternalView) Level() int {
	return int(bx.U16(v.Page.Buf[internalLevelOff : internalLevelOff+2]))
}

func (v InternalView) SetLevel(l int) {
	bx.PutU16(v.Page.Buf[internalLevelOff:internalLevelOff+2], uint16(l))
}

func (v InternalView) Key(i int) KeyType {
	off := v.keysOff() + i*keySize
	return int32(bx.U32(v.Page.Buf[off : off+keySize]))
}

func (v InternalView) SetKey(i int, k KeyType) {
	off := v.keysOff() + i*keySize
	bx.PutU32(v.Page.Buf[off:off+keySize], uint32(k))
}

func (v InternalView) Child(i int) storage.PageId {
	off := v.childrenOff() + i*childSize
	return bx.U32(v.Page.Buf[off : off+childSize])
}

func (v InternalView) SetChild(i int, id storage.PageId) {
	off := v.childrenOff() + i*childSize
	bx.PutU32(v.Page.Buf[off:off+childSize], id)
}

// NumKeys returns the index of the first sentinel key, i.e. how many
// separator keys are in use. children[0..NumKeys()] are then meaningful.
func (v InternalView) NumKeys() int {
	for i := 0; i < N_INT; i++ {
		if v.Key(i) == sentinelKey {
			return i
		}
	}
	return N_INT
}

// Reset stamps an empty internal node at the given level, sentinel-filling
// every key slot.
func (v InternalView) Reset(level int) {
	v.SetLevel(level)
	for i := 0; i < N_INT; i++ {
		v.SetKey(i, sentinelKey)
	}
}

// --- Leaf node view ---

const (
	leafRightSibOff  = nodeHeaderOffset
	leafArraysOffset = leafRightSibOff + 4
)

// LeafView overlays a leaf node: a right-sibling PageId, up to N_LEAF
// ascending (key, rid) pairs.
type LeafView struct {
	Page *storage.Page
}

func (v LeafView) keysOff() int { return leafArraysOffset }
func (v LeafView) ridsOff() int { return leafArraysOffset + N_LEAF*keySize }

func (v LeafView) RightSibPageNo() storage.PageId {
	return bx.U32(v.Page.Buf[leafRightSibOff : leafRightSibOff+4])
}

func (v LeafView) SetRightSibPageNo(id storage.PageId) {
	bx.PutU32(v.Page.Buf[leafRightSibOff:leafRightSibOff+4], id)
}

func (v LeafView) Key(i int) KeyType {
	off := v.keysOff() + i*keySize
	return int32(bx.U32(v.Page.Buf[off : off+keySize]))
}

func (v LeafView) SetKey(i int, k KeyType) {
	off := v.keysOff() + i*keySize
	bx.PutU32(v.Page.Buf[off:off+keySize], uint32(k))
}

func (v LeafView) RID(i int) RID {
	off := v.ridsOff() + i*ridSize
	return RID{
		PageID: bx.U32(v.Page.Buf[off : off+4]),
		Slot:   bx.U16(v.Page.Buf[off+4 : off+6]),
	}
}

func (v LeafView) SetRID(i int, r RID) {
	off := v.ridsOff() + i*ridSize
	bx.PutU32(v.Page.Buf[off:off+4], r.PageID)
	bx.PutU16(v.Page.Buf[off+4:off+6], r.Slot)
}

// NumKeys returns the index of the first sentinel key, i.e. how many
// (key, rid) pairs are in use.
func (v LeafView) NumKeys() int {
	for i := 0; i < N_LEAF; i++ {
		if v.Key(i) == sentinelKey {
			return i
		}
	}
	return N_LEAF
}

// Reset stamps an empty leaf with no right sibling, sentinel-filling every
// key slot.
func (v LeafView) Reset() {
	v.SetRightSibPageNo(storage.NoPage)
	for i := 0; i < N_LEAF; i++ {
		v.SetKey(i, sentinelKey)
	}
}
