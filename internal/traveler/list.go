// Package traveler parses .list files (spec §4.H) — one four-field
// line per clinched stretch, "region route_name start_waypoint
// end_waypoint" — against the loaded route corpus, matching labels
// case-insensitively and ignoring a leading '+'/'*', and records every
// match on the shared model.TravelerList / model.Segment clincher sets.
// Grounded on original_source's TravelerList/TravelerList.cpp.
package traveler

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/travelmapping/siteupdate-go/internal/model"
)

const maxNameBytes = 48

// RouteIndex maps "region route_name" (lowercased) to the chopped
// route it names, the way Route.ListEntryName's inverse is built once
// for the whole corpus before any .list file is parsed.
type RouteIndex map[string]*model.Route

// BuildRouteIndex indexes every route (devel included; Load reports
// devel matches as ignored) by lower-cased
// "region routename[banner]" tokens, plus every alt route name, the
// way the original builds its route_hash.
func BuildRouteIndex(routes []*model.Route) RouteIndex {
	idx := make(RouteIndex)
	for _, r := range routes {
		key := strings.ToLower(r.Region + " " + r.Name + r.Banner)
		idx[key] = r
		for _, alt := range r.AltRouteNames {
			idx[strings.ToLower(r.Region+" "+alt)] = r
		}
	}
	return idx
}

// Outcome is what one .list parse produced, for the userlog writer.
type Outcome struct {
	GoodLines     int
	BadLines      []string // trimmed original text of every unmatched/malformed line
	Deprecations  []string // "deprecated route name X -> canonical Y" notes
	IgnoredDevel  []string // lines ignored because the matched route's system is devel
	Augmentations []string // one line per concurrency-augmentation credit
}

// normalizeLabel lower-cases and strips a leading '+' or '*'.
func normalizeLabel(label string) string {
	label = strings.ToLower(label)
	return strings.TrimLeft(label, "+*")
}

// Load parses one .list file's contents for traveler name (already
// stripped of the ".list" suffix by the caller), updating tl and every
// matched segment's clincher set, and returns a summary for userlog.
// usage may be nil if the integrity logs are not being produced.
func Load(name string, r []byte, idx RouteIndex, tl *model.TravelerList, usage *Usage) Outcome {
	var out Outcome
	lines := strings.Split(strings.ReplaceAll(string(r), "\r\n", "\n"), "\n")
	for _, raw := range lines {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) != 4 {
			if len(fields) < 5 || !strings.HasPrefix(fields[4], "#") {
				out.BadLines = append(out.BadLines, trimmed)
				continue
			}
			fields = fields[:4]
		}

		key := strings.ToLower(fields[0] + " " + fields[1])
		route, found := idx[key]
		if !found {
			out.BadLines = append(out.BadLines, trimmed)
			continue
		}
		if usage != nil {
			usage.markListNameInUse(route.System, key)
		}
		for _, alt := range route.AltRouteNames {
			if strings.ToLower(fields[1]) == strings.ToLower(alt) {
				out.Deprecations = append(out.Deprecations,
					fmt.Sprintf("deprecated route name %s -> canonical name %s in line %s", fields[1], route.ListEntryName(), trimmed))
				break
			}
		}
		if route.System.Level == model.LevelDevel {
			out.IgnoredDevel = append(out.IgnoredDevel, trimmed)
			continue
		}

		start, end := normalizeLabel(fields[2]), normalizeLabel(fields[3])
		var idxs []int
		for i, w := range route.Waypoints {
			if matchesLabel(w.Label, start, end) || matchesAltLabel(w.AltLabels, start, end) {
				idxs = append(idxs, i)
			}
		}
		if len(idxs) != 2 {
			out.BadLines = append(out.BadLines, trimmed)
			continue
		}
		if usage != nil {
			usage.markLabelInUse(route, start)
			usage.markLabelInUse(route, end)
		}

		lo, hi := idxs[0], idxs[1]
		if lo > hi {
			lo, hi = hi, lo
		}
		for pos := lo; pos < hi; pos++ {
			tl.MarkClinched(route.Segments[pos])
		}
		out.GoodLines++
	}
	out.Augmentations = augmentConcurrencies(tl)
	return out
}

// augmentConcurrencies implements spec §4.H's concurrency augmentation:
// once a .list file's own lines are fully processed, every other
// active-or-preview member of a clinched segment's concurrency group is
// credited too, since physically driving one member means driving all
// of them. Operates on a snapshot of the segments clinched so far, so
// newly-credited segments (already members of the same group) are not
// re-walked.
func augmentConcurrencies(tl *model.TravelerList) []string {
	var lines []string
	for _, s := range tl.ClinchedSegments() {
		if s.Concurrent == nil {
			continue
		}
		for _, other := range s.Concurrent.Snapshot() {
			if other == s || !other.Route.System.ActiveOrPreview() || tl.HasClinched(other) {
				continue
			}
			tl.MarkClinched(other)
			lines = append(lines, fmt.Sprintf("Concurrency augmentation: crediting %s via %s", segStr(other), segStr(s)))
		}
	}
	return lines
}

// segStr mirrors the original's HighwaySegment::str() narration used by
// concurrency.Detect's log; duplicated here (rather than exported from
// internal/concurrency) since it's a one-line formatting helper, not a
// shared algorithm.
func segStr(s *model.Segment) string {
	return fmt.Sprintf("%s %s_%s", s.Route.Root, s.W1.Label, s.W2.Label)
}

func matchesLabel(label, start, end string) bool {
	l := normalizeLabel(label)
	return l == start || l == end
}

func matchesAltLabel(alts []string, start, end string) bool {
	for _, a := range alts {
		l := normalizeLabel(a)
		if l == start || l == end {
			return true
		}
	}
	return false
}

// LoadFile reads path and runs Load against it under tl.Name, the
// traveler name the caller already set.
func LoadFile(path string, idx RouteIndex, tl *model.TravelerList, usage *Usage) (Outcome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Outcome{}, err
	}
	return Load(tl.Name, data, idx, tl, usage), nil
}

// WriteUserLog writes logDir/users/<name>.log summarizing one
// traveler's parse outcome, the way TravelerList's constructor does
// inline with the log ofstream it opens per user.
func WriteUserLog(logDir, name string, out Outcome) error {
	f, err := os.Create(logDir + "/users/" + name + ".log")
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	for _, d := range out.Deprecations {
		fmt.Fprintln(w, "Note: "+d)
	}
	for _, l := range out.IgnoredDevel {
		fmt.Fprintln(w, "Ignoring line matching highway in system in development: "+l)
	}
	for _, l := range out.BadLines {
		fmt.Fprintln(w, "Unmatched or malformed line: "+l)
	}
	for _, a := range out.Augmentations {
		fmt.Fprintln(w, a)
	}
	fmt.Fprintf(w, "Processed %d good lines.\n", out.GoodLines)
	return nil
}
