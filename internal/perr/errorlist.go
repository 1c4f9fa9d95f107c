// Package perr collects fatal parse/load errors across the pipeline.
//
// It mirrors the C++ original's ErrorList: an append-only, mutex-guarded
// list of messages. Components accumulate into it instead of returning
// early, so a single run surfaces every fatal problem at once; the gate
// before SQL/graph emission aborts the run if the list is non-empty.
package perr

import (
	"fmt"
	"sort"
	"sync"
)

// ErrorList is a thread-safe collection of fatal error strings.
type ErrorList struct {
	mu   sync.Mutex
	errs []string
}

// New returns an empty ErrorList.
func New() *ErrorList {
	return &ErrorList{}
}

// Add appends a formatted message. Safe for concurrent use.
func (e *ErrorList) Add(format string, args ...interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errs = append(e.errs, fmt.Sprintf(format, args...))
}

// AddErr appends err.Error() if err is non-nil.
func (e *ErrorList) AddErr(err error) {
	if err == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errs = append(e.errs, err.Error())
}

// Empty reports whether no errors have been recorded.
func (e *ErrorList) Empty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.errs) == 0
}

// Len returns the number of recorded errors.
func (e *ErrorList) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.errs)
}

// All returns a sorted copy of every recorded message.
func (e *ErrorList) All() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.errs))
	copy(out, e.errs)
	sort.Strings(out)
	return out
}

// Error implements the error interface, joining all messages with newlines.
// Callers typically check Empty() first; Error() is for the final abort path.
func (e *ErrorList) Error() string {
	all := e.All()
	out := ""
	for i, s := range all {
		if i > 0 {
			out += "\n"
		}
		out += s
	}
	return out
}
