// Package graphbuild turns the loaded corpus into the highway graph:
// one Vertex per distinct (non-devel) location and one Edge per
// concurrency group, with a collision-resolving naming scheme that
// picks each vertex name once, as the vertex is created. Grounded on
// original_source's
// GraphGeneration/{HighwayGraph,HGVertex,HGEdge}.cpp and
// Waypoint/canonical_waypoint_name.cpp.
package graphbuild

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/travelmapping/siteupdate-go/internal/datacheck"
	"github.com/travelmapping/siteupdate-go/internal/model"
)

// Vertex is one highway-graph node: a waypoint, or a colocation group's
// canonical representative.
type Vertex struct {
	Name          string
	Lat, Lng      float64
	Hidden        bool // true only if every colocated waypoint is hidden
	FirstWaypoint *model.Waypoint
	Regions       map[string]bool
	Systems       map[string]bool

	SimpleEdges []*Edge
}

// Edge joins two vertices over one segment (or its whole concurrency
// group); RouteLabels holds one "region+name+banner" entry per
// non-devel concurrent member, used for the edge's printed label.
type Edge struct {
	Vertex1, Vertex2 *Vertex
	Segment          *model.Segment
	RouteLabels      []string
	Systems          []*model.HighwaySystem
}

// Graph is the full two-pass build result.
type Graph struct {
	ByWaypoint map[*model.Waypoint]*Vertex
	Edges      []*Edge
	NamingLog  []string
}

// Build walks every waypoint (in quadtree traversal order, for
// deterministic naming), skipping points that are neither in nor
// colocated with an active/preview system and skipping every
// colocated point but the group's front, then names and constructs a
// Vertex for each survivor. It then walks every segment once per
// concurrency group (deduplicating via the group's first member) to
// build edges. dc may be nil (as in unit tests exercising only vertex/
// edge construction); when non-nil, every hidden vertex left with more
// than two incident edges is promoted to visible (effectivelyHidden's
// job downstream) and raises HIDDEN_JUNCTION here, once per run, the
// way HighwayGraph.cpp's master-graph pass does it rather than
// per-subgraph-write.
func Build(points []*model.Waypoint, systems []*model.HighwaySystem, dc *datacheck.Engine) *Graph {
	g := &Graph{ByWaypoint: make(map[*model.Waypoint]*Vertex)}
	used := make(map[string]bool)

	for _, w := range points {
		if !isOrColocatedWithActiveOrPreview(w) {
			continue
		}
		if w.Colocated != nil {
			front := w.Colocated.Snapshot()[0]
			if front != w {
				continue
			}
		}
		name := g.uniqueName(w, used)
		v := buildVertex(w, name)
		g.ByWaypoint[w] = v
		if w.Colocated != nil {
			for _, m := range w.Colocated.Snapshot() {
				g.ByWaypoint[m] = v
			}
		}
	}

	seenGroups := make(map[*model.ConcurrentGroup]bool)
	for _, h := range systems {
		for _, r := range h.Routes {
			for _, s := range r.Segments {
				if s.Concurrent != nil {
					if seenGroups[s.Concurrent] {
						continue
					}
					seenGroups[s.Concurrent] = true
				}
				g.addEdge(s)
			}
		}
	}
	raiseHiddenJunctions(g, dc)
	raiseVisibleHiddenColoc(g, dc)
	return g
}

// raiseHiddenJunctions flags every hidden vertex with more than two
// incident edges, grounded on HighwayGraph.cpp's incident_c_edges.size()
// check: a >2-edge hidden point is not a simple pass-through, gets
// promoted back to visible in the collapsed/traveled views (see
// internal/subgraph's effectivelyHidden), and needs a datacheck entry
// noting how many distinct adjacent locations it actually joins.
func raiseHiddenJunctions(g *Graph, dc *datacheck.Engine) {
	if dc == nil {
		return
	}
	seen := make(map[*Vertex]bool)
	for _, v := range g.ByWaypoint {
		if seen[v] || !v.Hidden || len(v.SimpleEdges) <= 2 {
			continue
		}
		seen[v] = true
		dc.Add(v.FirstWaypoint.Route, v.FirstWaypoint.Label, "", "", datacheck.HiddenJunction, strconv.Itoa(len(v.SimpleEdges)))
	}
}

// raiseVisibleHiddenColoc flags a colocated group containing both
// hidden and visible waypoints, grounded on HGVertex.cpp/
// HighwayGraphVertexInfo.cpp's mixed is_hidden comparison: colocating a
// visible point with a hidden one is usually a labeling mistake (one of
// them should match the other), so the first visible member (by
// SortKey, for deterministic output) gets a datacheck entry naming the
// first hidden member.
func raiseVisibleHiddenColoc(g *Graph, dc *datacheck.Engine) {
	if dc == nil {
		return
	}
	seen := make(map[*model.ColocatedGroup]bool)
	for w := range g.ByWaypoint {
		grp := w.Colocated
		if grp == nil || seen[grp] {
			continue
		}
		seen[grp] = true
		members := grp.Snapshot()
		model.SortPoints(members)
		var vis, hid []*model.Waypoint
		for _, m := range members {
			if m.Hidden {
				hid = append(hid, m)
			} else {
				vis = append(vis, m)
			}
		}
		if len(vis) == 0 || len(hid) == 0 {
			continue
		}
		dc.Add(vis[0].Route, vis[0].Label, "", "", datacheck.VisibleHiddenColoc, hid[0].Route.Root+"@"+hid[0].Label)
	}
}

func isOrColocatedWithActiveOrPreview(w *model.Waypoint) bool {
	if w.Route.System.ActiveOrPreview() {
		return true
	}
	if w.Colocated == nil {
		return false
	}
	for _, m := range w.Colocated.Snapshot() {
		if m.Route.System.ActiveOrPreview() {
			return true
		}
	}
	return false
}

func buildVertex(w *model.Waypoint, name string) *Vertex {
	v := &Vertex{
		Name:          name,
		Lat:           w.Point.Lat,
		Lng:           w.Point.Lng,
		FirstWaypoint: w,
		Regions:       make(map[string]bool),
		Systems:       make(map[string]bool),
	}
	members := []*model.Waypoint{w}
	if w.Colocated != nil {
		members = w.Colocated.Snapshot()
	}
	allHidden := true
	for _, m := range members {
		if !m.Hidden {
			allHidden = false
		}
		v.Regions[m.Route.Region] = true
		v.Systems[m.Route.System.Code] = true
	}
	v.Hidden = allHidden
	return v
}

// uniqueName picks a vertex name in a single pass: try the
// colocation-aware canonical name, then the region-qualified variant,
// then the plain route@label failsafe, then append '!' characters
// until free. A name once given is not revisited.
func (g *Graph) uniqueName(w *model.Waypoint, used map[string]bool) string {
	name := canonicalName(w)
	if !used[name] {
		used[name] = true
		return name
	}

	withRegion := name + "|" + w.Route.Region
	g.NamingLog = append(g.NamingLog, fmt.Sprintf("Appended region: %s", withRegion))
	if !used[withRegion] {
		used[withRegion] = true
		return withRegion
	}

	simple := simpleName(w)
	if !used[simple] {
		g.NamingLog = append(g.NamingLog, fmt.Sprintf("Revert to simple: %s from (taken) %s", simple, withRegion))
		used[simple] = true
		return simple
	}

	candidate := withRegion
	for used[candidate] {
		candidate += "!"
	}
	g.NamingLog = append(g.NamingLog, fmt.Sprintf("Appended !: %s", candidate))
	used[candidate] = true
	return candidate
}

// simpleName is the unconditional failsafe: "region+name+banner@label",
// joined with '&' across active/preview colocated members.
func simpleName(w *model.Waypoint) string {
	if w.Colocated == nil {
		return w.Route.ListEntryName() + "@" + w.Label
	}
	var parts []string
	for _, m := range w.Colocated.Snapshot() {
		if m.Route.System.ActiveOrPreview() {
			parts = append(parts, m.Route.ListEntryName()+"@"+m.Label)
		}
	}
	return strings.Join(parts, "&")
}

// canonicalName reduces canonical_waypoint_name.cpp to the single
// "straightforward concurrency" case (every active/preview colocated
// waypoint shares the same label, or is hidden): route/route/route@label.
// Every other intersection-naming heuristic from the original falls
// through to the plain failsafe name, trading naming compactness for
// the bulk of that function's combinatorial special-casing.
func canonicalName(w *model.Waypoint) string {
	name := simpleName(w)
	if w.Colocated == nil {
		return name
	}

	var apColoc []*model.Waypoint
	for _, m := range w.Colocated.Snapshot() {
		if m.Route.System.ActiveOrPreview() {
			apColoc = append(apColoc, m)
		}
	}
	if len(apColoc) <= 1 {
		return name
	}

	var routes []string
	var pointName string
	matches := 0
	for _, m := range apColoc {
		if len(routes) == 0 {
			routes = []string{m.Route.ListEntryName()}
			pointName = m.Label
			matches = 1
			continue
		}
		if pointName == m.Label || strings.HasPrefix(m.Label, "+") {
			already := false
			for _, rt := range routes {
				if rt == m.Route.ListEntryName() {
					already = true
				}
			}
			if !already {
				routes = append(routes, m.Route.ListEntryName())
			}
			matches++
		}
	}
	if matches == len(apColoc) {
		return strings.Join(routes, "/") + "@" + pointName
	}
	return name
}

func (g *Graph) addEdge(s *model.Segment) {
	v1, v2 := g.ByWaypoint[s.W1], g.ByWaypoint[s.W2]
	if v1 == nil || v2 == nil || v1 == v2 {
		return
	}
	e := &Edge{Vertex1: v1, Vertex2: v2, Segment: s}

	members := []*model.Segment{s}
	if s.Concurrent != nil {
		members = s.Concurrent.Snapshot()
	}
	for _, m := range members {
		if m.Route.System.Level == model.LevelDevel {
			continue
		}
		e.RouteLabels = append(e.RouteLabels, m.Route.ListEntryName())
		e.Systems = append(e.Systems, m.Route.System)
	}
	// Sort labels and systems together so Label's index pairing holds.
	order := make([]int, len(e.RouteLabels))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return e.RouteLabels[order[a]] < e.RouteLabels[order[b]] })
	labels := make([]string, len(order))
	systems := make([]*model.HighwaySystem, len(order))
	for i, k := range order {
		labels[i], systems[i] = e.RouteLabels[k], e.Systems[k]
	}
	e.RouteLabels, e.Systems = labels, systems
	v1.SimpleEdges = append(v1.SimpleEdges, e)
	v2.SimpleEdges = append(v2.SimpleEdges, e)
	g.Edges = append(g.Edges, e)
}

// Label renders this edge's route names, optionally restricted to one
// system, comma-joined in sorted label order.
func (e *Edge) Label(restrictTo *model.HighwaySystem) string {
	var parts []string
	for i, sys := range e.Systems {
		if restrictTo == nil || sys == restrictTo {
			parts = append(parts, e.RouteLabels[i])
		}
	}
	return strings.Join(parts, ",")
}
