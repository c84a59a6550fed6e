package heap

import "github.com/kagedb/bptreeidx/internal/storage"

// TID (Tuple ID) identifies a row's location inside a heap file: the page
// it lives on and its slot within that page.
type TID struct {
	PageID storage.PageId
	Slot   uint16
}
