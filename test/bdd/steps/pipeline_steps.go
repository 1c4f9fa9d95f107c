// Package steps holds the godog step definitions exercising the
// pipeline's concrete end-to-end scenarios, grounded on the same
// construct-domain-objects-then-assert style the component unit tests
// use (see internal/concurrency/concurrency_test.go).
package steps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/stretchr/testify/require"

	"github.com/travelmapping/siteupdate-go/internal/concurrency"
	"github.com/travelmapping/siteupdate-go/internal/csvload"
	"github.com/travelmapping/siteupdate-go/internal/datacheck"
	"github.com/travelmapping/siteupdate-go/internal/geo"
	"github.com/travelmapping/siteupdate-go/internal/graphbuild"
	"github.com/travelmapping/siteupdate-go/internal/model"
	"github.com/travelmapping/siteupdate-go/internal/perr"
	"github.com/travelmapping/siteupdate-go/internal/quadtree"
	"github.com/travelmapping/siteupdate-go/internal/subgraph"
)

// pipelineContext carries the routes/system/graph built up across one
// scenario's Given/When/Then steps.
type pipelineContext struct {
	t *testing.T

	sys    *model.HighwaySystem
	routes map[string]*model.Route
	tree   *quadtree.Node
	dc     *datacheck.Engine
	errs   *perr.ErrorList
	graph  *graphbuild.Graph

	// collapsedVertices and collapsedEdges are read back from the
	// collapsed .tmg written by theGraphIsBuilt.
	collapsedVertices []string
	collapsedEdges    [][2]string

	subDir string
	subRow subgraph.Row
}

func (pc *pipelineContext) reset() {
	pc.t = &testing.T{}
	pc.sys = model.NewHighwaySystem("tst", "USA", "Test System", "red", 1, model.LevelActive)
	pc.routes = make(map[string]*model.Route)
	pc.tree = quadtree.New()
	pc.dc = datacheck.NewEngine()
	pc.errs = perr.New()
	pc.graph = nil
	pc.collapsedVertices, pc.collapsedEdges = nil, nil
	pc.subDir = ""
}

func (pc *pipelineContext) route(name string) *model.Route {
	r, ok := pc.routes[name]
	if !ok {
		r = model.NewRoute(pc.sys, "", name, "", "", "City", "tst."+sanitizeRoot(name), nil)
		pc.sys.Routes = append(pc.sys.Routes, r)
		pc.routes[name] = r
	}
	return r
}

func sanitizeRoot(name string) string {
	return strings.ToLower(strings.NewReplacer("-", "", "+", "h", " ", "").Replace(name))
}

func (pc *pipelineContext) insertWaypoint(routeName, label string, lat, lng float64) {
	r := pc.route(routeName)
	w := model.NewWaypoint(label, nil, geo.Point{Lat: lat, Lng: lng}, r)
	pc.tree.Insert(w, true)
	r.AddWaypoint(w)
}

func (pc *pipelineContext) aRouteWithWaypointAt(routeName, label, latLng string) error {
	lat, lng, err := parseLatLng(latLng)
	if err != nil {
		return err
	}
	pc.insertWaypoint(routeName, label, lat, lng)
	return nil
}

func parseLatLng(s string) (lat, lng float64, err error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected lat,lng, got %q", s)
	}
	lat, err = strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, err
	}
	lng, err = strconv.ParseFloat(parts[1], 64)
	return lat, lng, err
}

func (pc *pipelineContext) theGraphIsBuilt() error {
	dir, err := os.MkdirTemp("", "siteupdate-bdd-concurrency-*")
	require.NoError(pc.t, err)
	require.NoError(pc.t, concurrency.Detect([]*model.HighwaySystem{pc.sys}, filepath.Join(dir, "concurrencies.log")))

	var all []*model.Waypoint
	for _, r := range pc.sys.Routes {
		all = append(all, r.Waypoints...)
	}
	pc.graph = graphbuild.Build(all, []*model.HighwaySystem{pc.sys}, pc.dc)

	row, err := subgraph.WriteCollapsed(pc.graph, subgraph.Descriptor{Category: subgraph.CategoryMaster, Root: "collapsed"}, dir)
	require.NoError(pc.t, err)
	data, err := os.ReadFile(filepath.Join(dir, row.Filename))
	require.NoError(pc.t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	for i := 0; i < row.VertexCount; i++ {
		pc.collapsedVertices = append(pc.collapsedVertices, strings.Fields(lines[2+i])[0])
	}
	for i := 0; i < row.EdgeCount; i++ {
		f := strings.Fields(lines[2+row.VertexCount+i])
		a, _ := strconv.Atoi(f[0])
		b, _ := strconv.Atoi(f[1])
		pc.collapsedEdges = append(pc.collapsedEdges, [2]string{pc.collapsedVertices[a], pc.collapsedVertices[b]})
	}
	return nil
}

// datacheckRuns re-parses every accumulated route's waypoints through
// csvload.LoadWPT, which is the production code path that actually
// raises HIDDEN_TERMINUS and LONG_SEGMENT, rather than reimplementing
// those checks in the test.
func (pc *pipelineContext) datacheckRuns() error {
	dir, err := os.MkdirTemp("", "siteupdate-bdd-datacheck-*")
	require.NoError(pc.t, err)

	for _, r := range pc.sys.Routes {
		var sb strings.Builder
		for _, w := range r.Waypoints {
			fmt.Fprintf(&sb, "%s https://www.openstreetmap.org/?lat=%g&lon=%g\n", w.Label, w.Point.Lat, w.Point.Lng)
		}
		path := filepath.Join(dir, r.Root+".wpt")
		require.NoError(pc.t, os.WriteFile(path, []byte(sb.String()), 0644))

		replay := model.NewRoute(r.System, r.Region, r.Name, r.Banner, r.Abbrev, r.City, r.Root, nil)
		require.NoError(pc.t, csvload.LoadWPT(replay, path, quadtree.New(), pc.dc, pc.errs, 0.0005))
	}
	return nil
}

func (pc *pipelineContext) findWaypoint(label string) *model.Waypoint {
	for _, r := range pc.sys.Routes {
		for _, w := range r.Waypoints {
			if w.Label == label {
				return w
			}
		}
	}
	return nil
}

func (pc *pipelineContext) aAndAreInTheSameColocationGroup(labelA, labelB string) error {
	wa, wb := pc.findWaypoint(labelA), pc.findWaypoint(labelB)
	require.NotNil(pc.t, wa)
	require.NotNil(pc.t, wb)
	require.NotNil(pc.t, wa.Colocated)
	require.Same(pc.t, wa.Colocated, wb.Colocated)
	return nil
}

func (pc *pipelineContext) hasVertexNamed(name string) bool {
	for _, v := range pc.graph.ByWaypoint {
		if v.Name == name {
			return true
		}
	}
	return false
}

func (pc *pipelineContext) theGraphContainsAVertexNamed(name string) error {
	require.True(pc.t, pc.hasVertexNamed(name), "expected a vertex named %q", name)
	return nil
}

func (pc *pipelineContext) collapsedHasVertexNamed(name string) bool {
	for _, v := range pc.collapsedVertices {
		if v == name {
			return true
		}
	}
	return false
}

func (pc *pipelineContext) theCollapsedGraphHasAVertexNamed(name string) error {
	require.True(pc.t, pc.collapsedHasVertexNamed(name), "expected a collapsed-graph vertex named %q", name)
	return nil
}

func (pc *pipelineContext) theCollapsedGraphHasNoVertexNamed(name string) error {
	require.False(pc.t, pc.collapsedHasVertexNamed(name), "did not expect a collapsed-graph vertex named %q", name)
	return nil
}

func (pc *pipelineContext) theCollapsedGraphHasNEdgesBetween(n int, a, b string) error {
	count := 0
	for _, e := range pc.collapsedEdges {
		if (e[0] == a && e[1] == b) || (e[0] == b && e[1] == a) {
			count++
		}
	}
	require.Equal(pc.t, n, count)
	return nil
}

func (pc *pipelineContext) aDatacheckEntryWithCodeIsRaisedForLabel(code, label string) error {
	for _, e := range pc.dc.Entries() {
		if string(e.Code) == code && (e.Label1 == label || e.Label2 == label || e.Label3 == label) {
			return nil
		}
	}
	return fmt.Errorf("no %s entry for label %q among %d entries", code, label, len(pc.dc.Entries()))
}

func (pc *pipelineContext) aDatacheckEntryWithCodeAndInfoIsRaised(code, info string) error {
	for _, e := range pc.dc.Entries() {
		if string(e.Code) == code && e.Info == info {
			return nil
		}
	}
	return fmt.Errorf("no %s entry with info %q among %d entries", code, info, len(pc.dc.Entries()))
}

func (pc *pipelineContext) theSimpleGraphHasAnEdgeLabeled(label string) error {
	for _, e := range pc.graph.Edges {
		if strings.Join(e.RouteLabels, ",") == label {
			return nil
		}
	}
	return fmt.Errorf("no edge labeled %q among %d edges", label, len(pc.graph.Edges))
}

func (pc *pipelineContext) aAndShareOneConcurrencyGroupOfSize(routeA, routeB string, size int) error {
	ra, rb := pc.route(routeA), pc.route(routeB)
	require.NotEmpty(pc.t, ra.Segments)
	require.NotEmpty(pc.t, rb.Segments)
	require.NotNil(pc.t, ra.Segments[0].Concurrent)
	require.Same(pc.t, ra.Segments[0].Concurrent, rb.Segments[0].Concurrent)
	require.Equal(pc.t, size, ra.Segments[0].Concurrent.Size())
	return nil
}

func (pc *pipelineContext) aPlaceradiusSubgraph(lat, lng, radius float64) error {
	dir, err := os.MkdirTemp("", "siteupdate-bdd-subgraph-*")
	require.NoError(pc.t, err)
	pc.subDir = dir

	var all []*model.Waypoint
	for _, r := range pc.sys.Routes {
		all = append(all, r.Waypoints...)
	}
	pc.graph = graphbuild.Build(all, []*model.HighwaySystem{pc.sys}, pc.dc)

	d := subgraph.Descriptor{
		Category: subgraph.CategoryArea,
		Root:     "placeradius",
		Descr:    "placeradius test",
		Place:    &subgraph.PlaceRadius{Lat: lat, Lng: lng, Radius: radius},
	}
	row, err := subgraph.WriteSimple(pc.graph, d, dir)
	require.NoError(pc.t, err)
	pc.subRow = row
	return nil
}

func (pc *pipelineContext) assertSubgraphVertex(name string, want bool) error {
	data, err := os.ReadFile(filepath.Join(pc.subDir, pc.subRow.Filename))
	require.NoError(pc.t, err)
	got := strings.Contains(string(data), name)
	require.Equal(pc.t, want, got, "vertex %q presence in %s", name, pc.subRow.Filename)
	return nil
}

func (pc *pipelineContext) theSubgraphContainsAVertexNamed(name string) error {
	return pc.assertSubgraphVertex(name, true)
}

func (pc *pipelineContext) theSubgraphDoesNotContainAVertexNamed(name string) error {
	return pc.assertSubgraphVertex(name, false)
}

// InitializePipelineScenario wires every Given/When/Then step above
// into sc, resetting the shared pipelineContext before each scenario.
func InitializePipelineScenario(sc *godog.ScenarioContext) {
	pc := &pipelineContext{}

	sc.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		pc.reset()
		return ctx, nil
	})

	latLng := `(-?[\d.]+,-?[\d.]+)`
	sc.Step(`^a route "([^"]+)" with waypoint "([^"]+)" at `+latLng+`$`, pc.aRouteWithWaypointAt)
	sc.Step(`^route "([^"]+)" also has waypoint "([^"]+)" at `+latLng+`$`, pc.aRouteWithWaypointAt)
	sc.Step(`^the graph is built$`, pc.theGraphIsBuilt)
	sc.Step(`^datacheck runs$`, pc.datacheckRuns)
	sc.Step(`^"([^"]+)" and "([^"]+)" are in the same colocation group$`, pc.aAndAreInTheSameColocationGroup)
	sc.Step(`^the graph contains a vertex named "([^"]+)"$`, pc.theGraphContainsAVertexNamed)
	sc.Step(`^the collapsed graph has a vertex named "([^"]+)"$`, pc.theCollapsedGraphHasAVertexNamed)
	sc.Step(`^the collapsed graph has no vertex named "([^"]+)"$`, pc.theCollapsedGraphHasNoVertexNamed)
	sc.Step(`^the collapsed graph has exactly (\d+) edge between "([^"]+)" and "([^"]+)"$`, pc.theCollapsedGraphHasNEdgesBetween)
	sc.Step(`^a datacheck entry with code "([^"]+)" is raised for label "([^"]+)"$`, pc.aDatacheckEntryWithCodeIsRaisedForLabel)
	sc.Step(`^a datacheck entry with code "([^"]+)" and info "([^"]+)" is raised$`, pc.aDatacheckEntryWithCodeAndInfoIsRaised)
	sc.Step(`^the simple graph has an edge labeled "([^"]+)"$`, pc.theSimpleGraphHasAnEdgeLabeled)
	sc.Step(`^"([^"]+)" and "([^"]+)" share one concurrency group of size (\d+)$`, pc.aAndShareOneConcurrencyGroupOfSize)
	sc.Step(`^a placeradius subgraph centered at `+latLng+` with radius (\d+) miles is written$`, pc.aPlaceradiusSubgraphFromMatch)
	sc.Step(`^the subgraph contains a vertex named "([^"]+)"$`, pc.theSubgraphContainsAVertexNamed)
	sc.Step(`^the subgraph does not contain a vertex named "([^"]+)"$`, pc.theSubgraphDoesNotContainAVertexNamed)
}

func (pc *pipelineContext) aPlaceradiusSubgraphFromMatch(latLng string, radius float64) error {
	lat, lng, err := parseLatLng(latLng)
	if err != nil {
		return err
	}
	return pc.aPlaceradiusSubgraph(lat, lng, radius)
}
