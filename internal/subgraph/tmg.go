// Package subgraph resolves subgraph descriptors (master, area, region,
// system, multisystem, multiregion, country, continent, fullcustom) and
// writes each one's simple/collapsed/traveled TMG 2.0 files, grounded
// on original_source's HighwayGraph.cpp write_master_tmg_simple /
// write_subgraphs_tmg, adapted to the TMG 2.0 header and traveled-view
// bitset format spec.md §4.K actually calls for (the original emits a
// TMG 1.0 header with no traveled variant; this package follows the
// spec, not the original, on that point).
package subgraph

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/travelmapping/siteupdate-go/internal/geo"
	"github.com/travelmapping/siteupdate-go/internal/graphbuild"
	"github.com/travelmapping/siteupdate-go/internal/model"
)

// Category is one of the subgraph groupings named in spec §4.K.
type Category string

const (
	CategoryMaster      Category = "master"
	CategoryArea        Category = "area"
	CategoryRegion      Category = "region"
	CategorySystem      Category = "system"
	CategoryMultiSystem Category = "multisystem"
	CategoryMultiRegion Category = "multiregion"
	CategoryCountry     Category = "country"
	CategoryContinent   Category = "continent"
	CategoryFullCustom  Category = "fullcustom"
)

// PlaceRadius restricts a subgraph to vertices within Radius miles of
// (Lat, Lng).
type PlaceRadius struct {
	Lat, Lng, Radius float64
}

// Descriptor is one row of a graph list (areagraphs.csv, systemgraphs.csv,
// multisystem.csv, multiregion.csv, fullcustom.csv, or the implicit
// master/region/country/continent descriptors). Country and continent
// restriction is expressed by the caller pre-resolving the member
// regions into Regions, since a Vertex only tracks region membership.
type Descriptor struct {
	Category Category
	Root     string // output file basename, no extension
	Title    string
	Descr    string
	Regions  map[string]bool
	Systems  map[*model.HighwaySystem]bool
	Place    *PlaceRadius
}

// Row is one entry for the SQL emitter's graphs table.
type Row struct {
	Filename    string
	Descr       string
	VertexCount int
	EdgeCount   int
	Category    Category
}

func (d Descriptor) restricted() bool {
	return len(d.Regions) > 0 || len(d.Systems) > 0 || d.Place != nil
}

// matches implements spec §4.K's vertex-set intersection: the AND of
// every active restriction type, with an OR across members within one
// restriction type (e.g. any matching region is enough to satisfy the
// region restriction).
func (d Descriptor) matches(v *graphbuild.Vertex) bool {
	if !d.restricted() {
		return true
	}
	if len(d.Regions) > 0 {
		ok := false
		for region := range d.Regions {
			if v.Regions[region] {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if len(d.Systems) > 0 {
		ok := false
		for sys := range d.Systems {
			if v.Systems[sys.Code] {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if d.Place != nil {
		dist := geo.Distance(geo.Point{Lat: v.Lat, Lng: v.Lng}, geo.Point{Lat: d.Place.Lat, Lng: d.Place.Lng})
		if dist > d.Place.Radius {
			return false
		}
	}
	return true
}

func (d Descriptor) systemAllowsEdge(e *graphbuild.Edge) bool {
	if len(d.Systems) == 0 {
		return true
	}
	for _, sys := range e.Systems {
		if d.Systems[sys] {
			return true
		}
	}
	return false
}

func restrictSystem(d Descriptor) *model.HighwaySystem {
	if len(d.Systems) == 1 {
		for s := range d.Systems {
			return s
		}
	}
	return nil
}

func matchingVertices(g *graphbuild.Graph, d Descriptor, visibleOnly bool) []*graphbuild.Vertex {
	seen := make(map[*graphbuild.Vertex]bool)
	var out []*graphbuild.Vertex
	for _, v := range g.ByWaypoint {
		if seen[v] || !d.matches(v) {
			continue
		}
		if visibleOnly && effectivelyHidden(v) {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func matchingEdges(edges []*graphbuild.Edge, d Descriptor, vertices []*graphbuild.Vertex) []*graphbuild.Edge {
	in := make(map[*graphbuild.Vertex]bool, len(vertices))
	for _, v := range vertices {
		in[v] = true
	}
	var out []*graphbuild.Edge
	for _, e := range edges {
		if in[e.Vertex1] && in[e.Vertex2] && d.systemAllowsEdge(e) {
			out = append(out, e)
		}
	}
	return out
}

// effectivelyHidden reports whether v is a pure pass-through point in
// the collapsed/traveled views: hidden and carrying exactly two
// incident edges. A hidden vertex with one edge (a hidden terminus) or
// more than two (a hidden junction) is promoted to visible instead, per
// the vertex state machine in the design notes.
func effectivelyHidden(v *graphbuild.Vertex) bool {
	return v.Hidden && len(v.SimpleEdges) == 2
}

func otherVertex(e *graphbuild.Edge, v *graphbuild.Vertex) *graphbuild.Vertex {
	if e.Vertex1 == v {
		return e.Vertex2
	}
	return e.Vertex1
}

func mergeRouteLabels(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	out := append([]string(nil), a...)
	for _, s := range a {
		seen[s] = true
	}
	for _, s := range b {
		if !seen[s] {
			out = append(out, s)
			seen[s] = true
		}
	}
	sort.Strings(out)
	return out
}

func mergeSystems(a, b []*model.HighwaySystem) []*model.HighwaySystem {
	seen := make(map[*model.HighwaySystem]bool, len(a))
	out := append([]*model.HighwaySystem(nil), a...)
	for _, s := range a {
		seen[s] = true
	}
	for _, s := range b {
		if !seen[s] {
			out = append(out, s)
			seen[s] = true
		}
	}
	return out
}

// collapsedEdges merges every chain of pass-through (effectivelyHidden)
// vertices into a single edge between the two real endpoints on either
// side, implementing the 2-edge case of the hidden-waypoint state
// machine. A hidden vertex that is NOT a pass-through (1 or >2 edges)
// is left as a real endpoint by effectivelyHidden, so it naturally
// terminates a walk instead of being merged through.
func collapsedEdges(g *graphbuild.Graph) []*graphbuild.Edge {
	visited := make(map[*graphbuild.Edge]bool)
	seenStart := make(map[*graphbuild.Vertex]bool)
	var out []*graphbuild.Edge

	for _, v := range g.ByWaypoint {
		if seenStart[v] || effectivelyHidden(v) {
			continue
		}
		seenStart[v] = true

		for _, e := range v.SimpleEdges {
			if visited[e] {
				continue
			}
			visited[e] = true
			cur := e
			labels := append([]string(nil), cur.RouteLabels...)
			systems := append([]*model.HighwaySystem(nil), cur.Systems...)
			other := otherVertex(cur, v)

			for effectivelyHidden(other) {
				var next *graphbuild.Edge
				for _, cand := range other.SimpleEdges {
					if cand != cur {
						next = cand
						break
					}
				}
				if next == nil || visited[next] {
					break
				}
				visited[next] = true
				labels = mergeRouteLabels(labels, next.RouteLabels)
				systems = mergeSystems(systems, next.Systems)
				cur = next
				other = otherVertex(cur, other)
			}

			out = append(out, &graphbuild.Edge{
				Vertex1:     v,
				Vertex2:     other,
				Segment:     e.Segment,
				RouteLabels: labels,
				Systems:     systems,
			})
		}
	}
	return out
}

func writeHeader(w *bufio.Writer, view string, vCount, eCount, travelerCount int) {
	fmt.Fprintf(w, "TMG 2.0 %s\n", view)
	if view == "traveled" {
		fmt.Fprintf(w, "%d %d %d\n", vCount, eCount, travelerCount)
	} else {
		fmt.Fprintf(w, "%d %d\n", vCount, eCount)
	}
}

func writeVertexLines(w *bufio.Writer, vertices []*graphbuild.Vertex) map[*graphbuild.Vertex]int {
	num := make(map[*graphbuild.Vertex]int, len(vertices))
	for i, v := range vertices {
		fmt.Fprintf(w, "%s %.15g %.15g\n", v.Name, v.Lat, v.Lng)
		num[v] = i
	}
	return num
}

// WriteSimple writes <root>-simple.tmg: every matching vertex and
// every edge between two matching vertices.
func WriteSimple(g *graphbuild.Graph, d Descriptor, dir string) (Row, error) {
	vertices := matchingVertices(g, d, false)
	edges := matchingEdges(g.Edges, d, vertices)
	path := dir + "/" + d.Root + "-simple.tmg"

	f, err := os.Create(path)
	if err != nil {
		return Row{}, err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	writeHeader(w, "simple", len(vertices), len(edges), 0)
	num := writeVertexLines(w, vertices)
	restrict := restrictSystem(d)
	for _, e := range edges {
		fmt.Fprintf(w, "%d %d %s\n", num[e.Vertex1], num[e.Vertex2], e.Label(restrict))
	}
	return Row{Filename: filepath.Base(path), Descr: d.Descr, VertexCount: len(vertices), EdgeCount: len(edges), Category: d.Category}, nil
}

// WriteCollapsed writes <root>.tmg: only visible (non-hidden) vertices,
// with edges running through any pass-through hidden vertex merged
// into a single edge between the two real endpoints.
func WriteCollapsed(g *graphbuild.Graph, d Descriptor, dir string) (Row, error) {
	vertices := matchingVertices(g, d, true)
	edges := matchingEdges(collapsedEdges(g), d, vertices)
	path := dir + "/" + d.Root + ".tmg"

	f, err := os.Create(path)
	if err != nil {
		return Row{}, err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	writeHeader(w, "collapsed", len(vertices), len(edges), 0)
	num := writeVertexLines(w, vertices)
	restrict := restrictSystem(d)
	for _, e := range edges {
		fmt.Fprintf(w, "%d %d %s\n", num[e.Vertex1], num[e.Vertex2], e.Label(restrict))
	}
	return Row{Filename: filepath.Base(path), Descr: d.Descr, VertexCount: len(vertices), EdgeCount: len(edges), Category: d.Category}, nil
}

// WriteTraveled writes <root>-traveled.tmg: the same visible-vertex set
// as the collapsed view, with each edge carrying a hex bitset of which
// travelers (in travelers' given order) clinched it, and a trailing
// line naming the travelers in bit order. Edge polylines through
// intermediate hidden waypoints ("[lat lng ...]*" in spec §4.K) are not
// tracked by graphbuild.Edge and are omitted; see DESIGN.md.
func WriteTraveled(g *graphbuild.Graph, d Descriptor, dir string, travelers []string) (Row, error) {
	vertices := matchingVertices(g, d, true)
	edges := matchingEdges(collapsedEdges(g), d, vertices)
	path := dir + "/" + d.Root + "-traveled.tmg"

	bitIndex := make(map[string]int, len(travelers))
	for i, name := range travelers {
		bitIndex[name] = i
	}

	f, err := os.Create(path)
	if err != nil {
		return Row{}, err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	writeHeader(w, "traveled", len(vertices), len(edges), len(travelers))
	num := writeVertexLines(w, vertices)
	restrict := restrictSystem(d)
	for _, e := range edges {
		bitset := clinchBitset(e, bitIndex)
		fmt.Fprintf(w, "%d %d %s %s\n", num[e.Vertex1], num[e.Vertex2], e.Label(restrict), bitset)
	}
	fmt.Fprintln(w, strings.Join(travelers, " "))
	return Row{Filename: filepath.Base(path), Descr: d.Descr, VertexCount: len(vertices), EdgeCount: len(edges), Category: d.Category}, nil
}

// clinchBitset ORs together the clincher sets of every segment in e's
// concurrency group (or just e.Segment if ungrouped) and renders the
// result as lowercase hex, high bit first.
func clinchBitset(e *graphbuild.Edge, bitIndex map[string]int) string {
	if len(bitIndex) == 0 {
		return "0"
	}
	bits := make([]bool, len(bitIndex))
	members := []*model.Segment{e.Segment}
	if e.Segment.Concurrent != nil {
		members = e.Segment.Concurrent.Snapshot()
	}
	for _, m := range members {
		for _, name := range m.Clinchers() {
			if i, ok := bitIndex[name]; ok {
				bits[i] = true
			}
		}
	}
	nibbles := (len(bits) + 3) / 4
	var val uint64
	for i, b := range bits {
		if b {
			val |= 1 << uint(i)
		}
	}
	hex := strconv.FormatUint(val, 16)
	for len(hex) < nibbles {
		hex = "0" + hex
	}
	return hex
}

// WriteAll writes the simple, collapsed, and traveled files for one
// descriptor and returns their graphs-table rows in that order.
func WriteAll(g *graphbuild.Graph, d Descriptor, dir string, travelers []string) ([3]Row, error) {
	var rows [3]Row
	var err error
	if rows[0], err = WriteSimple(g, d, dir); err != nil {
		return rows, err
	}
	if rows[1], err = WriteCollapsed(g, d, dir); err != nil {
		return rows, err
	}
	if rows[2], err = WriteTraveled(g, d, dir, travelers); err != nil {
		return rows, err
	}
	return rows, nil
}
