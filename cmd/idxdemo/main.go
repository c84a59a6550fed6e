// Command idxdemo is a manual-test-style walkthrough: it builds a heap
// relation, indexes one of its columns with the B+Tree package, and runs a
// point lookup and a range scan through the index.
package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"

	"github.com/kagedb/bptreeidx/internal/btree"
	"github.com/kagedb/bptreeidx/internal/bufferpool"
	"github.com/kagedb/bptreeidx/internal/config"
	"github.com/kagedb/bptreeidx/internal/heap"
	"github.com/kagedb/bptreeidx/internal/heapscan"
	"github.com/kagedb/bptreeidx/internal/record"
	"github.com/kagedb/bptreeidx/internal/storage"
)

func main() {
	cfgPath := flag.String("config", "", "path to a YAML config (optional, falls back to built-in defaults)")
	flag.Parse()

	cfg := defaultConfig()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		cfg = loaded
	}

	sm := storage.NewStorageManager()

	heapFS := storage.LocalFileSet{
		Dir:  cfg.Storage.Dir,
		Base: cfg.Storage.HeapBase,
	}
	heapBP := bufferpool.NewPool(sm, heapFS, cfg.Storage.BufferCapacity)

	schema := record.Schema{
		Cols: []record.Column{
			{Name: "id", Type: record.ColInt32, Nullable: false},
			{Name: "name", Type: record.ColText, Nullable: false},
			{Name: "active", Type: record.ColBool, Nullable: false},
		},
	}

	tbl := heap.NewTable(cfg.Index.RelationName, schema, sm, heapFS, heapBP, 0)
	defer func() { _ = tbl.Close() }()

	for i := 1; i <= 10; i++ {
		if _, err := tbl.Insert([]any{int32(i), fmt.Sprintf("user-%d", i), i%2 == 0}); err != nil {
			log.Fatalf("Insert: %v", err)
		}
	}
	if err := tbl.BP.FlushFile(heapFS); err != nil {
		log.Fatalf("flush heap: %v", err)
	}

	idxFS := storage.LocalFileSet{
		Dir:  filepath.Join(cfg.Storage.Dir, "indexes"),
		Base: cfg.Storage.IndexBase,
	}
	idxBP := bufferpool.NewPool(sm, idxFS, cfg.Storage.IndexBufferCap)

	idx, err := btree.OpenOrCreate(sm, idxFS, idxBP, cfg.Index.RelationName, cfg.Index.AttrByteOffset, btree.AttrInt32, heapscan.New(tbl.NewScanner()))
	if err != nil {
		log.Fatalf("OpenOrCreate: %v", err)
	}
	defer func() { _ = idx.Close() }()

	fmt.Println("point lookup id=7 via index:")
	printMatches(idx, tbl, 7, 7)

	fmt.Println("range scan 3 <= id < 8 via index:")
	printMatches(idx, tbl, 3, 8)
}

func printMatches(idx *btree.Index, tbl *heap.Table, lo, hi btree.KeyType) {
	hiOp := btree.LTE
	if hi != lo {
		hiOp = btree.LT
	}
	if err := idx.StartScan(lo, btree.GTE, hi, hiOp); err != nil {
		log.Fatalf("StartScan: %v", err)
	}
	for {
		var rid btree.RID
		err := idx.ScanNext(&rid)
		if err == btree.ErrScanCompleted {
			break
		}
		if err != nil {
			log.Fatalf("ScanNext: %v", err)
		}
		row, err := tbl.Get(heap.TID{PageID: rid.PageID, Slot: rid.Slot})
		if err != nil {
			log.Fatalf("Get: %v", err)
		}
		fmt.Printf("  rid=%+v row=%v\n", rid, row)
	}
	if err := idx.EndScan(); err != nil {
		log.Fatalf("EndScan: %v", err)
	}
}

func defaultConfig() *config.BPTreeConfig {
	cfg := &config.BPTreeConfig{}
	cfg.Storage.Dir = filepath.Join("data", "idxdemo")
	cfg.Storage.HeapBase = "users"
	cfg.Storage.IndexBase = "users_id_idx"
	cfg.Storage.BufferCapacity = bufferpool.DefaultCapacity
	cfg.Storage.IndexBufferCap = bufferpool.DefaultCapacity
	cfg.Index.RelationName = "users"
	cfg.Index.AttrByteOffset = 1 // past the 1-byte null bitmap for a 3-column row
	return cfg
}
