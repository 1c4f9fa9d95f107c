package traveler

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/travelmapping/siteupdate-go/internal/model"
)

// Usage tracks which waypoint labels and alt route names .list
// matching actually exercised, supplementing spec §4.H with the four
// integrity logs recovered from original_source's
// functions/route_and_label_logs.cpp: pointsinuse.log,
// unusedaltlabels.log, listnamesinuse.log, unusedaltroutenames.log.
type Usage struct {
	mu                  sync.Mutex
	labelsInUse         map[*model.Route]map[string]bool
	unusedAltLabels     map[*model.Route]map[string]bool
	listNamesInUse      map[*model.HighwaySystem]map[string]bool
	unusedAltRouteNames map[*model.HighwaySystem]map[string]bool
}

// NewUsage seeds the "unused" sets from the corpus: every route's alt
// labels start out unused, and every route's alt route names start out
// as unused entries on its owning system, until a .list line exercises
// them.
func NewUsage(routes []*model.Route) *Usage {
	u := &Usage{
		labelsInUse:         make(map[*model.Route]map[string]bool),
		unusedAltLabels:     make(map[*model.Route]map[string]bool),
		listNamesInUse:      make(map[*model.HighwaySystem]map[string]bool),
		unusedAltRouteNames: make(map[*model.HighwaySystem]map[string]bool),
	}
	for _, r := range routes {
		ual := make(map[string]bool)
		for _, w := range r.Waypoints {
			for _, alt := range w.AltLabels {
				ual[strings.ToUpper(strings.TrimLeft(alt, "+*"))] = true
			}
		}
		u.unusedAltLabels[r] = ual

		if _, ok := u.unusedAltRouteNames[r.System]; !ok {
			u.unusedAltRouteNames[r.System] = make(map[string]bool)
		}
		for _, alt := range r.AltRouteNames {
			u.unusedAltRouteNames[r.System][strings.ToLower(r.Region+" "+alt)] = true
		}
	}
	return u
}

func (u *Usage) markLabelInUse(r *model.Route, label string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	m, ok := u.labelsInUse[r]
	if !ok {
		m = make(map[string]bool)
		u.labelsInUse[r] = m
	}
	m[strings.ToUpper(label)] = true
	if ual, ok := u.unusedAltLabels[r]; ok {
		delete(ual, strings.ToUpper(label))
	}
}

func (u *Usage) markListNameInUse(sys *model.HighwaySystem, lookup string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	m, ok := u.listNamesInUse[sys]
	if !ok {
		m = make(map[string]bool)
		u.listNamesInUse[sys] = m
	}
	m[lookup] = true
	if uarn, ok := u.unusedAltRouteNames[sys]; ok {
		delete(uarn, lookup)
	}
}

// WritePointsInUse writes pointsinuse.log: one line per route that had
// any label matched, "<root>(<pointcount>): LABEL1 LABEL2 ...".
func (u *Usage) WritePointsInUse(path string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return writeSorted(path, func(w *bufio.Writer) {
		roots := make([]*model.Route, 0, len(u.labelsInUse))
		for r := range u.labelsInUse {
			roots = append(roots, r)
		}
		sort.Slice(roots, func(i, j int) bool { return roots[i].Root < roots[j].Root })
		for _, r := range roots {
			labels := sortedKeys(u.labelsInUse[r])
			fmt.Fprintf(w, "%s(%d):", r.Root, len(r.Waypoints))
			for _, l := range labels {
				fmt.Fprint(w, " "+l)
			}
			fmt.Fprintln(w)
		}
	})
}

// WriteUnusedAltLabels writes unusedaltlabels.log, sorted by root, with
// a trailing "Total: N" line.
func (u *Usage) WriteUnusedAltLabels(path string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	type entry struct {
		root string
		line string
	}
	var entries []entry
	total := 0
	for r, set := range u.unusedAltLabels {
		if len(set) == 0 {
			continue
		}
		total += len(set)
		labels := sortedKeys(set)
		line := fmt.Sprintf("%s(%d):", r.Root, len(set))
		for _, l := range labels {
			line += " " + l
		}
		entries = append(entries, entry{r.Root, line})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].line < entries[j].line })
	return writeSorted(path, func(w *bufio.Writer) {
		for _, e := range entries {
			fmt.Fprintln(w, e.line)
		}
		fmt.Fprintf(w, "Total: %d\n", total)
	})
}

// WriteListNamesInUse writes listnamesinuse.log, one line per system.
func (u *Usage) WriteListNamesInUse(path string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return writeSorted(path, func(w *bufio.Writer) {
		systems := make([]*model.HighwaySystem, 0, len(u.listNamesInUse))
		for h := range u.listNamesInUse {
			systems = append(systems, h)
		}
		sort.Slice(systems, func(i, j int) bool { return systems[i].Code < systems[j].Code })
		for _, h := range systems {
			names := sortedKeys(u.listNamesInUse[h])
			fmt.Fprintf(w, "%s(%d):", h.Code, len(h.Routes))
			for _, n := range names {
				fmt.Fprintf(w, " %q", n)
			}
			fmt.Fprintln(w)
		}
	})
}

// WriteUnusedAltRouteNames writes unusedaltroutenames.log, with a
// trailing "Total: N" line.
func (u *Usage) WriteUnusedAltRouteNames(path string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	total := 0
	systems := make([]*model.HighwaySystem, 0, len(u.unusedAltRouteNames))
	for h := range u.unusedAltRouteNames {
		systems = append(systems, h)
	}
	sort.Slice(systems, func(i, j int) bool { return systems[i].Code < systems[j].Code })
	return writeSorted(path, func(w *bufio.Writer) {
		for _, h := range systems {
			set := u.unusedAltRouteNames[h]
			if len(set) == 0 {
				continue
			}
			total += len(set)
			names := sortedKeys(set)
			fmt.Fprintf(w, "%s(%d):", h.Code, len(set))
			for _, n := range names {
				fmt.Fprintf(w, " %q", n)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "Total: %d\n", total)
	})
}

// WriteFlippedRoutes writes flippedroutes.log: one root per line for
// every route whose Reversed flag ended up set.
func WriteFlippedRoutes(path string, routes []*model.Route) error {
	return writeSorted(path, func(w *bufio.Writer) {
		var roots []string
		for _, r := range routes {
			if r.Reversed {
				roots = append(roots, r.Root)
			}
		}
		sort.Strings(roots)
		for _, root := range roots {
			fmt.Fprintln(w, root)
		}
	})
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func writeSorted(path string, body func(w *bufio.Writer)) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()
	body(w)
	return nil
}
