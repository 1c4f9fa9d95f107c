package datacheck

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/travelmapping/siteupdate-go/internal/model"
	"github.com/travelmapping/siteupdate-go/internal/perr"
)

// Entry is one datacheck log row: (route root, up to 3 waypoint labels,
// code, info, false-positive flag).
type Entry struct {
	Route *model.Route
	Label1, Label2, Label3 string
	Code Code
	Info string
	FP   bool
}

func (e *Entry) root() string {
	if e.Route == nil {
		return ""
	}
	return e.Route.Root
}

// sortKey matches the C++ original's (root;label1;label2;label3;code;info)
// lexicographic ordering used before writing datacheck.log.
func (e *Entry) sortKey() string {
	return strings.Join([]string{e.root(), e.Label1, e.Label2, e.Label3, string(e.Code), e.Info}, ";")
}

// fpRecord is one row parsed from datacheckfps.csv.
type fpRecord struct {
	root, label1, label2, label3, info string
	code                               Code
	matched                            bool
}

func (r *fpRecord) matchesEntry(e *Entry) bool {
	return r.root == e.root() && r.label1 == e.Label1 && r.label2 == e.Label2 &&
		r.label3 == e.Label3 && r.code == e.Code
}

// Engine accumulates datacheck entries across every loader worker and
// performs FP suppression after all checks have run.
type Engine struct {
	mu      sync.Mutex
	entries []*Entry
	fps     []*fpRecord
}

// NewEngine returns an empty Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Add records a new datacheck entry. Thread-safe; entries may be
// generated in any order (§5).
func (e *Engine) Add(route *model.Route, label1, label2, label3 string, code Code, info string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries = append(e.entries, &Entry{
		Route: route, Label1: label1, Label2: label2, Label3: label3,
		Code: code, Info: info,
	})
}

// Entries returns a snapshot of every recorded entry, sorted per §5's
// ordering guarantee.
func (e *Engine) Entries() []*Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Entry, len(e.entries))
	copy(out, e.entries)
	sort.Slice(out, func(i, j int) bool { return out[i].sortKey() < out[j].sortKey() })
	return out
}

// ReadFPs loads datacheckfps.csv (6 semicolon-delimited fields per row,
// header first). Loading an FP entry for an always-error code is a
// fatal error recorded in errs.
func (e *Engine) ReadFPs(path string, errs *perr.ErrorList) {
	f, err := os.Open(path)
	if err != nil {
		errs.Add("datacheckfps: %v", err)
		return
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if lineNo == 1 {
			continue // header
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, ";")
		if len(fields) != 6 {
			errs.Add("datacheckfps.csv line %d: expected 6 fields, got %d", lineNo, len(fields))
			continue
		}
		code := Code(fields[4])
		if AlwaysError(code) {
			errs.Add("datacheckfps.csv line %d: code %s cannot be suppressed as a false positive", lineNo, code)
			continue
		}
		e.mu.Lock()
		e.fps = append(e.fps, &fpRecord{
			root: fields[0], label1: fields[1], label2: fields[2], label3: fields[3],
			code: code, info: fields[5],
		})
		e.mu.Unlock()
	}
}

// MarkFPs sorts entries, matches each against the FP list (up to the
// info field), and marks matched entries FP. Returns the near-match FPs
// (same key, different info) and the unmatched FPs, for the
// nearmatchfps.log / unmatchedfps.log outputs.
func (e *Engine) MarkFPs() (nearMatches []*fpRecord, unmatched []*fpRecord) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sort.Slice(e.entries, func(i, j int) bool { return e.entries[i].sortKey() < e.entries[j].sortKey() })

	for _, entry := range e.entries {
		for _, fp := range e.fps {
			if !fp.matchesEntry(entry) {
				continue
			}
			fp.matched = true
			if fp.info == entry.Info {
				entry.FP = true
			} else {
				nearMatches = append(nearMatches, fp)
			}
		}
	}
	for _, fp := range e.fps {
		if !fp.matched {
			unmatched = append(unmatched, fp)
		}
	}
	return
}

// WriteLog writes every non-FP entry to path in CSV-paste-ready form.
func (e *Engine) WriteLog(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	for _, entry := range e.Entries() {
		if entry.FP {
			continue
		}
		fmt.Fprintf(w, "%s;%s;%s;%s;%s;%s\n", entry.root(), entry.Label1, entry.Label2, entry.Label3, entry.Code, entry.Info)
	}
	return nil
}

// WriteNearMatchFPs writes the near-match FP records (FPs whose info
// field changed since the FP list was written).
func WriteNearMatchFPs(path string, recs []*fpRecord) error {
	return writeFPRecords(path, recs)
}

// WriteUnmatchedFPs writes FP records that matched no current error.
func WriteUnmatchedFPs(path string, recs []*fpRecord) error {
	return writeFPRecords(path, recs)
}

func writeFPRecords(path string, recs []*fpRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()
	for _, r := range recs {
		fmt.Fprintf(w, "%s;%s;%s;%s;%s;%s\n", r.root, r.label1, r.label2, r.label3, r.code, r.info)
	}
	return nil
}
