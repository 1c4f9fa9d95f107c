package csvload

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/travelmapping/siteupdate-go/internal/datacheck"
	"github.com/travelmapping/siteupdate-go/internal/model"
	"github.com/travelmapping/siteupdate-go/internal/perr"
	"github.com/travelmapping/siteupdate-go/internal/quadtree"
	"github.com/travelmapping/siteupdate-go/internal/workpool"
)

// Corpus is everything System loading produces: the systems, every
// chopped route (flattened), every connected route, and the shared
// quadtree every WPT parse feeds into.
type Corpus struct {
	Systems map[string]*model.HighwaySystem
	Routes  []*model.Route
	Tree    *quadtree.Node
}

// LoadAll performs component D end-to-end: systems.csv, then each
// active/preview/devel system's chopped and connected route CSVs, then
// (in parallel, §4.M) every route's .wpt file, then label_and_connect
// (§4.C) across the whole corpus.
func LoadAll(dataPath, systemsFile string, numWorkers int, dc *datacheck.Engine, errs *perr.ErrorList, nmpTolerance float64) *Corpus {
	systems := LoadSystems(systemsFile, errs)

	rootOwner := make(map[string]*model.ConnectedRoute)
	var allRoutes []*model.Route
	var allConnected []*model.ConnectedRoute

	// Deterministic order: sorted system codes, so later logs/output
	// never depend on map iteration order.
	codes := make([]string, 0, len(systems))
	for code := range systems {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		sys := systems[code]
		choppedPath := filepath.Join(dataPath, sys.Code+".csv")
		conPath := filepath.Join(dataPath, sys.Code+"_con.csv")

		byRoot := LoadChoppedRoutes(choppedPath, sys, errs)
		crs := LoadConnectedRoutes(conPath, sys, byRoot, rootOwner, dc, errs)
		allRoutes = append(allRoutes, sys.Routes...)
		allConnected = append(allConnected, crs...)
	}

	for _, r := range allRoutes {
		if r.Connected == nil {
			errs.Add("route %s is not referenced by any connected route", r.Root)
		}
	}

	tree := quadtree.New()
	loadWaypointsParallel(dataPath, allRoutes, tree, dc, errs, numWorkers, nmpTolerance)

	for _, r := range allRoutes {
		r.BuildLabelIndices()
	}
	raiseRouteIntegrityChecks(allRoutes, dc)
	labelAndConnect(allRoutes, dc)
	raiseCombineConRoutes(allConnected, dc)
	raiseMultiRegionOverlap(allConnected, dc)

	return &Corpus{Systems: systems, Routes: allRoutes, Tree: tree}
}

// loadWaypointsParallel fans WPT parsing out across numWorkers workers
// sharing one cursor into allRoutes (§4.M/§5's shared-work-cursor
// pattern, via internal/workpool), since every route's WPT file is
// independent except for the shared quadtree/datacheck engine, both of
// which already lock internally. Per-route parse failures accumulate
// into errs rather than aborting the pool, so workpool.Run never sees
// a non-nil error here.
func loadWaypointsParallel(dataPath string, routes []*model.Route, tree *quadtree.Node, dc *datacheck.Engine, errs *perr.ErrorList, numWorkers int, nmpTolerance float64) {
	_ = workpool.Run(context.Background(), routes, numWorkers, func(_ context.Context, r *model.Route) error {
		path := filepath.Join(dataPath, r.Region, r.System.Code, r.Root+".wpt")
		_ = LoadWPT(r, path, tree, dc, errs, nmpTolerance)
		return nil
	})
}

// labelAndConnect performs the post-load pass described in §4.C: build
// per-route label indices (already done by the caller), confirm every
// route belongs to a connected route (checked by the caller), and for
// each connected route with disconnected endpoints decide whether to
// flip a route's Reversed flag or flag DISCONNECTED_ROUTE.
func labelAndConnect(routes []*model.Route, dc *datacheck.Engine) {
	byConnected := make(map[*model.ConnectedRoute][]*model.Route)
	for _, r := range routes {
		if r.Connected != nil {
			byConnected[r.Connected] = append(byConnected[r.Connected], r)
		}
	}

	for cr, members := range byConnected {
		sort.Slice(members, func(i, j int) bool { return members[i].RootOrder < members[j].RootOrder })
		for i := 0; i+1 < len(members); i++ {
			a, b := members[i], members[i+1]
			if connectsEndpoints(a, b) {
				continue
			}
			// try flipping b, then a, before giving up
			b.Reversed = !b.Reversed
			if connectsEndpoints(a, b) {
				continue
			}
			b.Reversed = !b.Reversed
			a.Reversed = !a.Reversed
			if connectsEndpoints(a, b) {
				continue
			}
			a.Reversed = !a.Reversed
			dc.Add(a, "", "", "", datacheck.DisconnectedRoute, fmt.Sprintf("%s/%s", a.Root, b.Root))
		}
		_ = cr
	}
}

// raiseRouteIntegrityChecks applies the per-route abbrev/city checks
// from route_integrity.cpp: a route with no chop-word abbreviation
// whose banner happens to be a prefix of its city name should probably
// have used that banner as the abbreviation instead (ABBREV_AS_CHOP_
// BANNER); a route that does carry an abbreviation but no city name has
// nothing for the abbreviation to shorten (ABBREV_NO_CITY).
func raiseRouteIntegrityChecks(routes []*model.Route, dc *datacheck.Engine) {
	for _, r := range routes {
		if r.Abbrev == "" {
			if r.Banner != "" && strings.HasPrefix(r.City, r.Banner) {
				dc.Add(r, "", "", "", datacheck.AbbrevAsChopBanner, "")
			}
		} else if r.City == "" {
			dc.Add(r, "", "", "", datacheck.AbbrevNoCity, "")
		}
	}
}

func connectsEndpoints(a, b *model.Route) bool {
	if len(a.Waypoints) == 0 || len(b.Waypoints) == 0 {
		return false
	}
	aEnd := a.Waypoints[len(a.Waypoints)-1]
	if a.Reversed {
		aEnd = a.Waypoints[0]
	}
	bStart := b.Waypoints[0]
	if b.Reversed {
		bStart = b.Waypoints[len(b.Waypoints)-1]
	}
	if aEnd == bStart {
		return true
	}
	if aEnd.Colocated == nil {
		return false
	}
	for _, m := range aEnd.Colocated.Snapshot() {
		if m == bStart {
			return true
		}
	}
	return false
}
