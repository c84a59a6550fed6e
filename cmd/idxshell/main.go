// Command idxshell is a readline-driven REPL over a B+Tree index, in the
// idiom of a readline SQL client shell: a history file, meta-commands,
// and a small line-oriented grammar, minus any SQL executor since the
// index package has none to talk to.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/kagedb/bptreeidx/internal/btree"
	"github.com/kagedb/bptreeidx/internal/bufferpool"
	"github.com/kagedb/bptreeidx/internal/heap"
	"github.com/kagedb/bptreeidx/internal/heapscan"
	"github.com/kagedb/bptreeidx/internal/record"
	"github.com/kagedb/bptreeidx/internal/storage"
)

// ---- History (own file, same shape as the SQL client's) ----

type History struct {
	path  string
	lines []string
}

func NewHistory(path string) *History {
	return &History{path: path}
}

func (h *History) Load(max int) error {
	if h.path == "" {
		return nil
	}
	f, err := os.Open(h.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" {
			continue
		}
		h.lines = append(h.lines, s)
		if max > 0 && len(h.lines) > max {
			h.lines = h.lines[len(h.lines)-max:]
		}
	}
	return sc.Err()
}

func (h *History) Append(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || h.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(h.path), storage.FileMode0755); err != nil {
		return err
	}
	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, storage.FileMode0644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if _, err := fmt.Fprintln(f, line); err != nil {
		return err
	}
	h.lines = append(h.lines, line)
	return nil
}

func (h *History) Print(last int) {
	if last <= 0 || last > len(h.lines) {
		last = len(h.lines)
	}
	start := len(h.lines) - last
	if start < 0 {
		start = 0
	}
	for i := start; i < len(h.lines); i++ {
		fmt.Printf("%5d  %s\n", i+1, h.lines[i])
	}
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".bptreeidx_history"
	}
	return filepath.Join(home, ".bptreeidx_history")
}

// ---- shell ----

type shell struct {
	idx *btree.Index
	tbl *heap.Table
}

func (s *shell) run(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	switch fields[0] {
	case "insert":
		s.cmdInsert(fields[1:])
	case "get":
		s.cmdGet(fields[1:])
	case "scan":
		s.cmdScan(fields[1:])
	default:
		fmt.Printf("unknown command: %s (try \\help)\n", fields[0])
	}
}

func (s *shell) cmdInsert(args []string) {
	if len(args) != 2 {
		fmt.Println("usage: insert <id> <name>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		fmt.Printf("bad id: %v\n", err)
		return
	}
	tid, err := s.tbl.Insert([]any{int32(id), args[1], true})
	if err != nil {
		fmt.Printf("insert: %v\n", err)
		return
	}
	if err := s.idx.InsertEntry(int32(id), btree.RID{PageID: tid.PageID, Slot: tid.Slot}); err != nil {
		fmt.Printf("index insert: %v\n", err)
		return
	}
	fmt.Printf("OK tid=%+v\n", tid)
}

func (s *shell) cmdGet(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: get <id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		fmt.Printf("bad id: %v\n", err)
		return
	}
	rid, err := s.idx.GetEntry(int32(id))
	if err == btree.ErrNoSuchKeyFound {
		fmt.Println("(no match)")
		return
	}
	if err != nil {
		fmt.Printf("get: %v\n", err)
		return
	}
	row, err := s.tbl.Get(heap.TID{PageID: rid.PageID, Slot: rid.Slot})
	if err != nil {
		fmt.Printf("get: %v\n", err)
		return
	}
	fmt.Printf("  %v\n", row)
}

func (s *shell) cmdScan(args []string) {
	if len(args) != 2 {
		fmt.Println("usage: scan <lo> <hi>  (inclusive range)")
		return
	}
	lo, err1 := strconv.ParseInt(args[0], 10, 32)
	hi, err2 := strconv.ParseInt(args[1], 10, 32)
	if err1 != nil || err2 != nil {
		fmt.Println("bad range bounds")
		return
	}
	s.printRange(int32(lo), btree.GTE, int32(hi), btree.LTE)
}

func (s *shell) printRange(lo btree.KeyType, loOp btree.ScanOp, hi btree.KeyType, hiOp btree.ScanOp) {
	if err := s.idx.StartScan(lo, loOp, hi, hiOp); err != nil {
		fmt.Printf("scan: %v\n", err)
		return
	}
	n := 0
	for {
		var rid btree.RID
		err := s.idx.ScanNext(&rid)
		if err == btree.ErrScanCompleted {
			break
		}
		if err != nil {
			fmt.Printf("scan: %v\n", err)
			break
		}
		row, err := s.tbl.Get(heap.TID{PageID: rid.PageID, Slot: rid.Slot})
		if err != nil {
			fmt.Printf("get: %v\n", err)
			continue
		}
		fmt.Printf("  %v\n", row)
		n++
	}
	_ = s.idx.EndScan()
	fmt.Printf("(%d rows)\n", n)
}

func isMetaCommand(line string) bool {
	line = strings.TrimSpace(line)
	return strings.HasPrefix(line, "\\") || line == "quit" || line == "exit"
}

func main() {
	var (
		dataDir   = flag.String("data", filepath.Join("data", "idxshell"), "data directory")
		relation  = flag.String("relation", "users", "relation name")
		attrOff   = flag.Int("attr-offset", 1, "byte offset of the indexed int32 column")
		histPath  = flag.String("history", defaultHistoryPath(), "history file path")
		histMax   = flag.Int("history-max", 2000, "max history lines loaded into memory")
	)
	flag.Parse()

	sm := storage.NewStorageManager()
	heapFS := storage.LocalFileSet{Dir: *dataDir, Base: *relation}
	heapBP := bufferpool.NewPool(sm, heapFS, bufferpool.DefaultCapacity)

	schema := record.Schema{
		Cols: []record.Column{
			{Name: "id", Type: record.ColInt32, Nullable: false},
			{Name: "name", Type: record.ColText, Nullable: false},
			{Name: "active", Type: record.ColBool, Nullable: false},
		},
	}
	tbl := heap.NewTable(*relation, schema, sm, heapFS, heapBP, 0)
	defer func() { _ = tbl.Close() }()

	idxFS := storage.LocalFileSet{Dir: filepath.Join(*dataDir, "indexes"), Base: *relation + "_id_idx"}
	idxBP := bufferpool.NewPool(sm, idxFS, bufferpool.DefaultCapacity)
	idx, err := btree.OpenOrCreate(sm, idxFS, idxBP, *relation, *attrOff, btree.AttrInt32, heapscan.New(tbl.NewScanner()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "OpenOrCreate: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = idx.Close() }()

	s := &shell{idx: idx, tbl: tbl}

	h := NewHistory(*histPath)
	_ = h.Load(*histMax)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "bptreeidx> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = rl.Close() }()

	for _, line := range h.lines {
		_ = rl.SaveHistory(line)
	}

	fmt.Println("type \\help for help")

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			fmt.Println("^C")
			continue
		}
		if err != nil {
			fmt.Println()
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if isMetaCommand(line) {
			switch line {
			case "\\q", "quit", "exit":
				return
			case "\\help":
				fmt.Println(`meta commands:
  \q | quit | exit        quit
  \history                 print history
  \drop                    close and delete the index, then exit
  \help                    show help

commands:
  insert <id> <name>       insert a row and index it
  get <id>                 point lookup by indexed column
  scan <lo> <hi>           inclusive range scan by indexed column`)
			case "\\history":
				h.Print(50)
			case "\\drop":
				if err := idx.Close(); err != nil {
					fmt.Printf("close: %v\n", err)
				}
				if err := btree.DropIndex(idxFS); err != nil {
					fmt.Printf("drop: %v\n", err)
				} else {
					fmt.Println("index dropped")
				}
				return
			default:
				fmt.Printf("unknown command: %s\n", line)
			}
			continue
		}

		_ = h.Append(line)
		_ = rl.SaveHistory(line)
		s.run(line)
	}
}
