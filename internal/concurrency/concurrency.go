// Package concurrency implements the shared-pavement detector of spec
// §4.F: two segments on different routes that run over the same
// physical road are linked into one ConcurrentGroup so mileage and
// traveler-clinch bookkeeping can treat them as equivalent.
package concurrency

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/travelmapping/siteupdate-go/internal/model"
)

// segStr mirrors the C++ original's HighwaySegment::str() used in the
// concurrencies.log narration: "root label1_label2".
func segStr(s *model.Segment) string {
	return fmt.Sprintf("%s %s%s%s", s.Route.Root, s.W1.Label, "_", s.W2.Label)
}

// Detect walks every route's segment list, and for each segment whose
// endpoints are both colocated with waypoints on some other route, asks
// whether that other route has an adjacent segment joining the same two
// colocated waypoints. If so the two segments are unified into (or
// added to) a ConcurrentGroup. logPath receives one line per new group
// and per extension, in discovery order.
func Detect(systems []*model.HighwaySystem, logPath string) error {
	f, err := os.Create(logPath)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	for _, h := range systems {
		for _, r := range h.Routes {
			for _, s := range r.Segments {
				detectOne(s, r, w)
			}
		}
	}
	return nil
}

func detectOne(s *model.Segment, r *model.Route, w *bufio.Writer) {
	if s.W1.Colocated == nil || s.W2.Colocated == nil {
		return
	}
	for _, w1 := range s.W1.Colocated.Snapshot() {
		if w1.Route == r {
			continue
		}
		for _, w2 := range s.W2.Colocated.Snapshot() {
			if w1.Route != w2.Route {
				continue
			}
			other := w1.Route.FindSegmentByWaypoints(w1, w2)
			if other == nil {
				continue
			}
			linkSegments(s, other, w)
		}
	}
}

// linkSegments unifies s and other into the same ConcurrentGroup,
// handling all four combinations of prior group membership: neither has
// one (create), exactly one has one (extend that group with the other
// segment), both have the same group (no-op), or both already belong to
// two different groups discovered independently by earlier detectOne
// calls (merge the two groups into one rather than overwriting either
// segment's back-pointer and leaving its old group stale).
func linkSegments(s, other *model.Segment, w *bufio.Writer) {
	switch {
	case s.Concurrent == nil && other.Concurrent == nil:
		g := model.NewConcurrentGroup(s, other)
		fmt.Fprintf(w, "New concurrency [%s][%s] (%d)\n", segStr(s), segStr(other), g.Size())

	case s.Concurrent == nil:
		other.Concurrent.Extend(s)
		logExtension(w, other.Concurrent)

	case other.Concurrent == nil:
		s.Concurrent.Extend(other)
		logExtension(w, s.Concurrent)

	case s.Concurrent == other.Concurrent:
		return

	default:
		s.Concurrent.Merge(other.Concurrent)
		logExtension(w, s.Concurrent)
	}
}

func logExtension(w *bufio.Writer, g *model.ConcurrentGroup) {
	members := g.Snapshot()
	labels := make([]string, len(members))
	for i, m := range members {
		labels[i] = "[" + segStr(m) + "]"
	}
	fmt.Fprintf(w, "Extended concurrency %s (%d)\n", strings.Join(labels, ""), len(members))
}

// CheckSplitRegion is the optional sanity pass recovered from
// original_source/functions/concurrency_detection.cpp: for every system
// that is a candidate for the region split named by splitRegion, every
// segment of a route whose region code starts with splitRegion is
// checked for a concurrency partner and, if one exists, for an even
// member count (since a single route pavement-sharing a split boundary
// is expected to concur with its mirror on both sides). Findings are
// written to logDir/<systemCode>-concurrencies.log.
func CheckSplitRegion(systems []*model.HighwaySystem, splitRegion, logDir string) error {
	if splitRegion == "" {
		return nil
	}
	for _, h := range systems {
		path := logDir + "/" + h.Code + "-concurrencies.log"
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		w := bufio.NewWriter(f)

		for _, r := range h.Routes {
			if !strings.HasPrefix(r.Region, splitRegion) {
				continue
			}
			for _, s := range r.Segments {
				if s.Concurrent == nil {
					fmt.Fprintf(w, "%s has no concurrencies\n", segStr(s))
					continue
				}
				members := s.Concurrent.Snapshot()
				if len(members)%2 != 0 {
					fmt.Fprintf(w, "Odd number of concurrencies:\n")
					for _, m := range members {
						fmt.Fprintf(w, "\t%s\n", segStr(m))
					}
				}
			}
		}
		w.Flush()
		f.Close()
	}
	return nil
}
