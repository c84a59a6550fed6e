// Package heapscan adapts a heap.Scanner to the btree.RelationScan
// contract, keeping internal/btree free of any import on internal/heap so
// the index package never knows how rows are stored.
package heapscan

import (
	"errors"

	"github.com/kagedb/bptreeidx/internal/btree"
	"github.com/kagedb/bptreeidx/internal/heap"
)

// Adapter wraps a *heap.Scanner so it satisfies btree.RelationScan.
type Adapter struct {
	s *heap.Scanner
}

// New wraps s for use as the bulk-load source of btree.OpenOrCreate.
func New(s *heap.Scanner) *Adapter {
	return &Adapter{s: s}
}

func (a *Adapter) ScanNext(rid *btree.RID) error {
	var tid heap.TID
	if err := a.s.ScanNext(&tid); err != nil {
		if errors.Is(err, heap.ErrEndOfFile) {
			return btree.ErrEndOfFile
		}
		return err
	}
	*rid = btree.RID{PageID: tid.PageID, Slot: tid.Slot}
	return nil
}

func (a *Adapter) GetRecord() ([]byte, error) {
	return a.s.GetRecord()
}
