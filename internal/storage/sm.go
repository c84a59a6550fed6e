package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileSet is the narrow file contract the storage manager consumes: a
// segmented backing store addressed by segment number.
type FileSet interface {
	OpenSegment(segNo int32) (*os.File, error)
}

var _ FileSet = (*LocalFileSet)(nil)

// LocalFileSet represents a local directory + base file name.
// Segments are stored as: Base, Base.1, Base.2, ...
type LocalFileSet struct {
	Dir  string
	Base string
}

func (lfs LocalFileSet) OpenSegment(segNo int32) (*os.File, error) {
	name := lfs.Base
	if segNo > 0 {
		name = fmt.Sprintf("%s.%d", lfs.Base, segNo)
	}
	path := filepath.Join(lfs.Dir, name)
	if err := os.MkdirAll(lfs.Dir, FileMode0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_RDWR|os.O_CREATE, FileMode0644)
}

// Exists reports whether the first segment of lfs has already been
// written to (non-empty). Used by the index lifecycle to decide between
// opening an existing index and creating a new one.
func (lfs LocalFileSet) Exists() bool {
	info, err := os.Stat(filepath.Join(lfs.Dir, lfs.Base))
	return err == nil && info.Size() > 0
}

// StorageManager maps a logical PageId -> (segment, offset) and performs
// the actual page-sized reads/writes. It never interprets page contents.
type StorageManager struct{}

func NewStorageManager() *StorageManager {
	return &StorageManager{}
}

func (sm *StorageManager) pagesPerSegment() int {
	return SegmentSize / PageSize
}

func (sm *StorageManager) locate(pageID PageId) (segNo int32, offset int64) {
	pps := int64(sm.pagesPerSegment())
	segNo = int32(int64(pageID) / pps)
	pageInSeg := int64(pageID) % pps
	offset = pageInSeg * PageSize
	return segNo, offset
}

// ReadPage reads exactly one page (PageSize bytes) into dst. If the
// underlying segment is smaller than offset+PageSize, the remainder is
// zero-filled: pages past EOF are treated as implicitly allocated but
// never written.
func (sm *StorageManager) ReadPage(fs FileSet, pageID PageId, dst []byte) error {
	if len(dst) != PageSize {
		return ErrBadPageSize
	}
	segNo, off := sm.locate(pageID)
	f, err := fs.OpenSegment(segNo)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := f.ReadAt(dst, off)
	if err != nil && err != io.EOF {
		return err
	}
	for i := n; i < PageSize; i++ {
		dst[i] = 0
	}
	return nil
}

// WritePage writes exactly one page (PageSize bytes) from src to disk at
// the location computed from pageID.
func (sm *StorageManager) WritePage(fs FileSet, pageID PageId, src []byte) error {
	if len(src) != PageSize {
		return ErrBadPageSize
	}
	segNo, off := sm.locate(pageID)
	f, err := fs.OpenSegment(segNo)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := f.WriteAt(src, off)
	if err != nil {
		return err
	}
	if n != PageSize {
		return io.ErrShortWrite
	}
	return nil
}

// LoadPage reads a page into memory. A page whose on-disk bytes are all
// zero (never written, or read past EOF) is treated as uninitialized and
// stamped with pageID so callers always see a well-formed header.
func (sm *StorageManager) LoadPage(fs FileSet, pageID PageId) (*Page, error) {
	buf := make([]byte, PageSize)
	if err := sm.ReadPage(fs, pageID, buf); err != nil {
		return nil, err
	}
	p := &Page{Buf: buf}
	if p.IsUninitialized() {
		p.Reset(pageID)
	}
	return p, nil
}

// SavePage writes the in-memory Page back to disk.
func (sm *StorageManager) SavePage(fs FileSet, pageID PageId, p *Page) error {
	if len(p.Buf) != PageSize {
		return ErrBadPageSize
	}
	return sm.WritePage(fs, pageID, p.Buf)
}

// CountPages computes total pages currently backing fs by scanning
// segments in order, stopping at the first one that is not full.
// StorageManager.AllocatePage derives the next PageId from it;
// bufferpool.Pool only uses it to seed its own allocation cursor.
func (sm *StorageManager) CountPages(fs FileSet) (uint32, error) {
	var total uint32

	for segNo := int32(0); ; segNo++ {
		f, err := fs.OpenSegment(segNo)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				break
			}
			return 0, err
		}

		info, statErr := f.Stat()
		_ = f.Close()
		if statErr != nil {
			return 0, statErr
		}

		size := info.Size()
		total += uint32(size / int64(PageSize))
		if size < SegmentSize {
			break // a segment short of full is the last one
		}
	}

	return total, nil
}

// AllocatePage reserves the next PageId beyond the current end of fs and
// returns a freshly zeroed, stamped Page for it. Nothing is written to
// disk until the caller's page is flushed — an allocated-but-never-dirtied
// page simply never materializes on disk, matching the "sparse tail" read
// behavior of ReadPage.
func (sm *StorageManager) AllocatePage(fs FileSet) (PageId, *Page, error) {
	count, err := sm.CountPages(fs)
	if err != nil {
		return 0, nil, err
	}
	id := PageId(count)
	return id, NewPage(id), nil
}
