package bufferpool

import "github.com/kagedb/bptreeidx/internal/storage"

// Manager is the buffer-manager contract the index, the heap relation, and
// the CLI harness all consume: pin-counted page access backed by CLOCK
// replacement. ReadPage and AllocatePage both pin; UnpinPage releases one
// pin and optionally marks the page dirty; FlushFile writes every dirty
// page back and fails if any page is still pinned.
type Manager interface {
	ReadPage(fs storage.FileSet, pageID storage.PageId) (*storage.Page, error)
	AllocatePage(fs storage.FileSet) (*storage.Page, storage.PageId, error)
	UnpinPage(fs storage.FileSet, pageID storage.PageId, dirty bool) error
	FlushFile(fs storage.FileSet) error
}
