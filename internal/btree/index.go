package btree

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/kagedb/bptreeidx/internal/bufferpool"
	"github.com/kagedb/bptreeidx/internal/bx"
	"github.com/kagedb/bptreeidx/internal/storage"
)

// decodeAttrInt32 reinterprets the 4 bytes at off in rec as the indexed
// attribute, per the "records are decoded by casting the byte buffer at
// attrByteOffset to the attribute type" contract.
func decodeAttrInt32(rec []byte, off int) (KeyType, error) {
	if off < 0 || off+4 > len(rec) {
		return 0, fmt.Errorf("btree: attribute offset %d out of range for record of %d bytes", off, len(rec))
	}
	return int32(bx.U32(rec[off : off+4])), nil
}

// RelationScan is the narrow collaborator OpenOrCreate's bulk-load path
// consumes: successive records from a heap relation, without this package
// ever importing the heap package directly. ScanNext raises ErrEndOfFile
// when exhausted.
type RelationScan interface {
	ScanNext(rid *RID) error
	GetRecord() ([]byte, error)
}

// OpenOrCreate constructs the index named "<relationName>.<attrByteOffset>"
// over fs. If fs already holds index pages, the meta page is read and the
// caller-supplied relation name and attribute offset are checked against
// it. Otherwise a brand-new index is created and bulk-loaded by draining
// scan to exhaustion.
func OpenOrCreate(
	sm *storage.StorageManager,
	fs storage.FileSet,
	bp bufferpool.Manager,
	relationName string,
	attrByteOffset int,
	attrType AttrType,
	scan RelationScan,
) (*Index, error) {
	idx := &Index{
		SM:             sm,
		FS:             fs,
		BP:             bp,
		RelationName:   relationName,
		AttrByteOffset: attrByteOffset,
		AttrType:       attrType,
		IndexName:      fmt.Sprintf("%s.%d", relationName, attrByteOffset),
	}

	if fileSetExists(fs) {
		if err := idx.openExisting(); err != nil {
			return nil, err
		}
		slog.Debug("btree.Open", "index", idx.IndexName, "root", idx.Root, "rootLevel", idx.rootLevel)
		return idx, nil
	}

	if err := idx.createNew(scan); err != nil {
		return nil, err
	}
	slog.Debug("btree.Create", "index", idx.IndexName, "root", idx.Root, "rootLevel", idx.rootLevel)
	return idx, nil
}

func fileSetExists(fs storage.FileSet) bool {
	lfs, ok := fs.(storage.LocalFileSet)
	return ok && lfs.Exists()
}

// openExisting reads the meta page to recover the root and checks it
// against the caller-supplied relation name and attribute offset.
func (idx *Index) openExisting() error {
	m, err := idx.loadMeta()
	if err != nil {
		return err
	}
	if m.relationName != idx.RelationName || m.attrByteOffset != idx.AttrByteOffset {
		return ErrBadIndexInfo
	}
	idx.Root = m.rootPageNo
	idx.rootLevel = m.rootLevel
	return nil
}

// createNew allocates the meta page and an initial leaf root, persists
// meta, then bulk-loads the relation by calling InsertEntry for every
// record, so the first split and root promotion take the ordinary path.
func (idx *Index) createNew(scan RelationScan) error {
	metaPageID, metaPage, err := idx.allocPage()
	if err != nil {
		return err
	}
	if metaPageID != MetaPageID {
		return fmt.Errorf("btree: expected meta page id %d, got %d", MetaPageID, metaPageID)
	}

	rootPageID, rootPage, err := idx.allocPage()
	if err != nil {
		_ = idx.BP.UnpinPage(idx.FS, metaPageID, false)
		return err
	}
	newLeafNode(rootPage).View.Reset()
	idx.Root = rootPageID
	idx.rootLevel = 0

	mv := MetaView{Page: metaPage}
	mv.SetRelationName(idx.RelationName)
	mv.SetAttrType(idx.AttrType)
	mv.SetAttrByteOffset(idx.AttrByteOffset)
	mv.SetRootPageNo(rootPageID)
	mv.SetRootLevel(0)

	if err := idx.BP.UnpinPage(idx.FS, metaPageID, true); err != nil {
		return err
	}
	if err := idx.BP.UnpinPage(idx.FS, rootPageID, true); err != nil {
		return err
	}

	return idx.bulkLoad(scan)
}

// bulkLoad drains scan, inserting every record's key through InsertEntry,
// which also handles the first split and root promotion.
func (idx *Index) bulkLoad(scan RelationScan) error {
	count := 0
	for {
		var rid RID
		if err := scan.ScanNext(&rid); err != nil {
			if errors.Is(err, ErrEndOfFile) {
				break
			}
			return err
		}
		rec, err := scan.GetRecord()
		if err != nil {
			return err
		}
		key, err := decodeAttrInt32(rec, idx.AttrByteOffset)
		if err != nil {
			return err
		}
		if err := idx.InsertEntry(key, rid); err != nil {
			return err
		}
		count++
	}
	slog.Debug("btree.bulkLoad.done", "index", idx.IndexName, "inserted", count)
	return nil
}

// Close flushes the file through the buffer manager and marks the index
// unusable. The meta page's rootPageNo already reflects the final root,
// since it is written on every root replacement.
func (idx *Index) Close() error {
	if idx == nil {
		return nil
	}
	if idx.closed.Swap(true) {
		return nil
	}
	if idx.scan != nil && idx.scan.active && idx.scan.curLeafPageID != storage.NoPage {
		_ = idx.BP.UnpinPage(idx.FS, idx.scan.curLeafPageID, false)
	}
	idx.scan = nil
	if idx.BP == nil {
		return nil
	}
	return idx.BP.FlushFile(idx.FS)
}
