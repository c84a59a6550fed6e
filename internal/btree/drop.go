package btree

import "github.com/kagedb/bptreeidx/internal/storage"

// DropIndex removes every page segment backing an index. Works for
// LocalFileSet only. Idempotent: dropping an already-absent index
// succeeds. The caller is responsible for closing any open Index over lfs
// first; DropIndex does not touch the buffer pool.
func DropIndex(lfs storage.LocalFileSet) error {
	return storage.RemoveAllSegments(lfs)
}
