// Package nmp reports near-miss points: waypoints on different routes
// that sit within tolerance of each other but were never colocated
// (spec §4.G), recovered from original_source's Waypoint::nmplogs and
// the siteupdate.cpp driver around it.
package nmp

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/travelmapping/siteupdate-go/internal/model"
	"github.com/travelmapping/siteupdate-go/internal/workpool"
)

const exactOffsetTolerance = 0.0000015

func rootAtLabel(w *model.Waypoint) string {
	root := ""
	if w.Route != nil {
		root = w.Route.Root
	}
	return root + "@" + w.Label
}

func waypointStr(w *model.Waypoint) string {
	root := ""
	if w.Route != nil {
		root = w.Route.Root
	}
	return root + " " + w.Label
}

// formatCoord matches the C++ original's "%.15g" plus a forced trailing
// ".0" for whole numbers, so tm-master.nmp stays byte-compatible with
// consumers expecting the Python-era format.
func formatCoord(v float64) string {
	s := strconv.FormatFloat(v, 'g', 15, 64)
	hasDot := false
	for _, c := range s {
		if c == '.' || c == 'e' || c == 'E' {
			hasDot = true
			break
		}
	}
	if !hasDot {
		s += ".0"
	}
	return s
}

// Report is the outcome of one run: the sorted nearmisspoints.log lines,
// the tm-master.nmp pair lines, and whichever nmpfps.log entries were
// never matched against an actual near-miss (nmpfpsunmatched.log).
type Report struct {
	LogLines   []string
	NMPLines   []string
	Unmatched  []string
}

// Build walks every waypoint with a non-empty NearMiss list (populated
// by the quadtree at load time) and produces the three logs described
// above. fps is the set of exact nearmisspoints.log lines read back
// from a prior run's nmpfps.log, used to mark known false positives;
// pass nil if there is none.
func Build(waypoints []*model.Waypoint, fps []string) Report {
	fpSet := make(map[string]bool, len(fps))
	for _, line := range fps {
		fpSet[line] = true
	}
	matched := make(map[string]bool, len(fps))

	var rep Report
	for _, w := range waypoints {
		res, ok := nearMissFor(w, fpSet)
		if !ok {
			continue
		}
		if res.matchedFP != "" {
			matched[res.matchedFP] = true
		}
		rep.LogLines = append(rep.LogLines, res.logLine)
		rep.NMPLines = append(rep.NMPLines, res.pairLines...)
	}

	rep.Unmatched = unmatchedFPs(fps, matched)
	sort.Strings(rep.LogLines)
	sort.Strings(rep.Unmatched)
	return rep
}

// BuildParallel is Build fanned out across numWorkers goroutines
// sharing one cursor into waypoints (§4.M/§4.G): each waypoint's
// near-miss line only reads its own NearMiss slice, so waypoints
// process concurrently; the FP-match bookkeeping is folded in
// afterward from the per-worker results rather than shared live.
func BuildParallel(ctx context.Context, waypoints []*model.Waypoint, fps []string, numWorkers int) Report {
	fpSet := make(map[string]bool, len(fps))
	for _, line := range fps {
		fpSet[line] = true
	}

	results, _ := workpool.RunCollect(ctx, waypoints, numWorkers, func(_ context.Context, w *model.Waypoint) ([]nearMissResult, error) {
		res, ok := nearMissFor(w, fpSet)
		if !ok {
			return nil, nil
		}
		return []nearMissResult{res}, nil
	})

	var rep Report
	matched := make(map[string]bool, len(fps))
	for _, res := range results {
		if res.matchedFP != "" {
			matched[res.matchedFP] = true
		}
		rep.LogLines = append(rep.LogLines, res.logLine)
		rep.NMPLines = append(rep.NMPLines, res.pairLines...)
	}

	rep.Unmatched = unmatchedFPs(fps, matched)
	sort.Strings(rep.LogLines)
	sort.Strings(rep.Unmatched)
	return rep
}

type nearMissResult struct {
	logLine   string
	pairLines []string
	matchedFP string
}

// nearMissFor builds w's nearmisspoints.log line and tm-master.nmp pair
// lines against its precomputed NearMiss set. ok is false for a
// waypoint with no near misses at all.
func nearMissFor(w *model.Waypoint, fpSet map[string]bool) (res nearMissResult, ok bool) {
	if len(w.NearMiss) == 0 {
		return res, false
	}
	others := append([]*model.Waypoint(nil), w.NearMiss...)
	sort.Slice(others, func(i, j int) bool { return rootAtLabel(others[i]) < rootAtLabel(others[j]) })

	looksIntentional := false
	line := waypointStr(w) + " NMP"
	var pairLines []string
	for _, other := range others {
		if math.Abs(w.Point.Lat-other.Point.Lat) < exactOffsetTolerance &&
			math.Abs(w.Point.Lng-other.Point.Lng) < exactOffsetTolerance {
			looksIntentional = true
		}
		line += " " + waypointStr(other)

		if rootAtLabel(w) < rootAtLabel(other) {
			pairLines = append(pairLines,
				fmt.Sprintf("%s %s %s", rootAtLabel(w), formatCoord(w.Point.Lat), formatCoord(w.Point.Lng)),
				fmt.Sprintf("%s %s %s", rootAtLabel(other), formatCoord(other.Point.Lat), formatCoord(other.Point.Lng)),
			)
		}
	}

	extra := ""
	matchedFP := ""
	if fpSet[line] {
		line += " [MARKED FP]"
		extra += "FP"
		matchedFP = line[:len(line)-len(" [MARKED FP]")]
	}
	if looksIntentional {
		line += " [LOOKS INTENTIONAL]"
		extra += "LI"
	}
	if extra != "" {
		extra = " " + extra
	}
	for i, pl := range pairLines {
		pairLines[i] = pl + extra
	}
	return nearMissResult{logLine: line, pairLines: pairLines, matchedFP: matchedFP}, true
}

// unmatchedFPs returns every fps entry that no waypoint's computed
// near-miss line matched, for nmpfpsunmatched.log.
func unmatchedFPs(fps []string, matched map[string]bool) []string {
	var out []string
	for _, line := range fps {
		if !matched[line] {
			out = append(out, line)
		}
	}
	return out
}

// WriteNearMissPoints writes nearmisspoints.log.
func WriteNearMissPoints(path string, rep Report) error {
	return writeLines(path, rep.LogLines)
}

// WriteTMMaster writes tm-master.nmp.
func WriteTMMaster(path string, rep Report) error {
	return writeLines(path, rep.NMPLines)
}

// WriteUnmatchedFPs writes nmpfpsunmatched.log.
func WriteUnmatchedFPs(path string, rep Report) error {
	return writeLines(path, rep.Unmatched)
}

func writeLines(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	return nil
}

// ReadFPList reads nmpfps.log: one "NMP" log line per entry, as earlier
// produced by WriteNearMissPoints, blank lines ignored.
func ReadFPList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line != "" {
			out = append(out, line)
		}
	}
	return out, sc.Err()
}
