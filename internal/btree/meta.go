package btree

import "github.com/kagedb/bptreeidx/internal/storage"

// MetaPageID is the well-known PageId of the single meta page every index
// allocates first.
const MetaPageID storage.PageId = 1

// metaSnapshot holds the meta page's fields copied into plain memory, so
// callers never hold a MetaView (and the raw page buffer it wraps) past the
// page's unpin.
type metaSnapshot struct {
	relationName   string
	attrByteOffset int
	rootPageNo     storage.PageId
	rootLevel      int
}

// loadMeta pins the meta page, copies out its fields, and unpins clean
// before returning.
func (idx *Index) loadMeta() (metaSnapshot, error) {
	p, err := idx.BP.ReadPage(idx.FS, MetaPageID)
	if err != nil {
		return metaSnapshot{}, err
	}
	v := MetaView{Page: p}
	snap := metaSnapshot{
		relationName:   v.RelationName(),
		attrByteOffset: v.AttrByteOffset(),
		rootPageNo:     v.RootPageNo(),
		rootLevel:      v.RootLevel(),
	}
	if err := idx.BP.UnpinPage(idx.FS, MetaPageID, false); err != nil {
		return metaSnapshot{}, err
	}
	return snap, nil
}

// writeRoot persists a new root PageId and level to the meta page.
func (idx *Index) writeRoot(root storage.PageId, level int) error {
	p, err := idx.BP.ReadPage(idx.FS, MetaPageID)
	if err != nil {
		return err
	}
	v := MetaView{Page: p}
	v.SetRootPageNo(root)
	v.SetRootLevel(level)
	return idx.BP.UnpinPage(idx.FS, MetaPageID, true)
}
