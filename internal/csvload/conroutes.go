package csvload

import (
	"github.com/travelmapping/siteupdate-go/internal/datacheck"
	"github.com/travelmapping/siteupdate-go/internal/model"
)

// conBeg/conEnd return a connected route's reversal-aware first/last
// waypoint, mirroring ConnectedRoute.cpp's con_beg()/con_end().
func conBeg(cr *model.ConnectedRoute) *model.Waypoint {
	if len(cr.Routes) == 0 {
		return nil
	}
	r := cr.Routes[0]
	if len(r.Waypoints) == 0 {
		return nil
	}
	if r.Reversed {
		return r.Waypoints[len(r.Waypoints)-1]
	}
	return r.Waypoints[0]
}

func conEnd(cr *model.ConnectedRoute) *model.Waypoint {
	if len(cr.Routes) == 0 {
		return nil
	}
	r := cr.Routes[len(cr.Routes)-1]
	if len(r.Waypoints) == 0 {
		return nil
	}
	if r.Reversed {
		return r.Waypoints[0]
	}
	return r.Waypoints[len(r.Waypoints)-1]
}

// raiseCombineConRoutes flags a pair of connected routes, in the same
// system but different regions, whose shared designation (route number
// and banner) only differs because they were split at a region
// boundary: one connected route's endpoint is colocated with another
// connected route's endpoint, and the two share a name/banner, so they
// could be combined into one connected route spanning both regions.
// Grounded on ConnectedRoute/datacheck.cpp's combine_con_routes(); the
// index-based i<j ordering below stands in for the original's "this <
// cr2" pointer comparison, which exists purely to report each matching
// pair once rather than twice.
func raiseCombineConRoutes(connected []*model.ConnectedRoute, dc *datacheck.Engine) {
	index := make(map[*model.ConnectedRoute]int, len(connected))
	for i, cr := range connected {
		index[cr] = i
	}

	for i, cr := range connected {
		for _, w := range [2]*model.Waypoint{conBeg(cr), conEnd(cr)} {
			if w == nil || w.Colocated == nil {
				continue
			}
			for _, p := range w.Colocated.Snapshot() {
				if p == w {
					continue
				}
				cr2 := p.Route.Connected
				j, ok := index[cr2]
				if !ok || i >= j {
					continue
				}
				if w.Route.Region == p.Route.Region || w.Route.System != p.Route.System {
					continue
				}
				if p != conBeg(cr2) && p != conEnd(cr2) {
					continue
				}
				if w.Route.Name == p.Route.Name && w.Route.Banner == p.Route.Banner {
					dc.Add(w.Route, w.Label, "", "", datacheck.CombineConRoutes, p.Route.Root+"@"+p.Label)
				}
			}
		}
	}
}

// raiseMultiRegionOverlap flags a connected route whose member regions
// are not a contiguous run (it leaves a region and later comes back to
// it), which signals that two disjoint concurrent stretches accidentally
// share one designation. Datacheck.h documents only MULTI_REGION_
// OVERLAP's info shape ("concurrent route") with no surviving
// implementation body in original_source, so this reads the check as a
// region-contiguity scan over each connected route's member list rather
// than a port.
func raiseMultiRegionOverlap(connected []*model.ConnectedRoute, dc *datacheck.Engine) {
	for _, cr := range connected {
		seen := make(map[string]bool)
		last := ""
		for _, r := range cr.Routes {
			if r.Region == last {
				continue
			}
			if seen[r.Region] {
				dc.Add(r, "", "", "", datacheck.MultiRegionOverlap, cr.Name+cr.Banner)
			}
			seen[r.Region] = true
			last = r.Region
		}
	}
}
