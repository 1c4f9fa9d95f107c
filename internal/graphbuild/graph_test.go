package graphbuild

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelmapping/siteupdate-go/internal/concurrency"
	"github.com/travelmapping/siteupdate-go/internal/geo"
	"github.com/travelmapping/siteupdate-go/internal/model"
)

func TestBuildCreatesVertexPerLocation(t *testing.T) {
	sys := model.NewHighwaySystem("tst", "USA", "Test", "red", 1, model.LevelActive)
	r := model.NewRoute(sys, "reg", "1", "", "", "City", "tst.one", nil)
	sys.Routes = append(sys.Routes, r)

	w1 := model.NewWaypoint("A", nil, geo.Point{Lat: 35.0, Lng: -106.0}, r)
	w2 := model.NewWaypoint("B", nil, geo.Point{Lat: 35.1, Lng: -106.0}, r)
	r.AddWaypoint(w1)
	r.AddWaypoint(w2)

	g := Build([]*model.Waypoint{w1, w2}, []*model.HighwaySystem{sys}, nil)
	require.Len(t, g.ByWaypoint, 2)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, "REG1@A", g.ByWaypoint[w1].Name)
	assert.NotEqual(t, g.ByWaypoint[w1], g.ByWaypoint[w2])
}

func TestBuildSkipsDevelOnlyPoints(t *testing.T) {
	sys := model.NewHighwaySystem("tst", "USA", "Test", "red", 1, model.LevelDevel)
	r := model.NewRoute(sys, "reg", "1", "", "", "City", "tst.one", nil)
	sys.Routes = append(sys.Routes, r)

	w1 := model.NewWaypoint("A", nil, geo.Point{Lat: 35.0, Lng: -106.0}, r)
	w2 := model.NewWaypoint("B", nil, geo.Point{Lat: 35.1, Lng: -106.0}, r)
	r.AddWaypoint(w1)
	r.AddWaypoint(w2)

	g := Build([]*model.Waypoint{w1, w2}, []*model.HighwaySystem{sys}, nil)
	assert.Empty(t, g.ByWaypoint)
	assert.Empty(t, g.Edges)
}

func TestBuildMergesConcurrentEdgeLabels(t *testing.T) {
	sys := model.NewHighwaySystem("tst", "USA", "Test", "red", 1, model.LevelActive)
	a := geo.Point{Lat: 35.0, Lng: -106.0}
	b := geo.Point{Lat: 35.1, Lng: -106.0}

	r1 := model.NewRoute(sys, "reg", "1", "", "", "City", "tst.one", nil)
	r2 := model.NewRoute(sys, "reg", "2", "", "", "City", "tst.two", nil)
	sys.Routes = append(sys.Routes, r1, r2)

	var allPoints []*model.Waypoint
	for _, r := range []*model.Route{r1, r2} {
		w1 := model.NewWaypoint("A", nil, a, r)
		w2 := model.NewWaypoint("B", nil, b, r)
		r.AddWaypoint(w1)
		r.AddWaypoint(w2)
		allPoints = append(allPoints, w1, w2)
	}
	grpA := &model.ColocatedGroup{}
	grpA.Add(r1.Waypoints[0])
	grpA.Add(r2.Waypoints[0])
	grpB := &model.ColocatedGroup{}
	grpB.Add(r1.Waypoints[1])
	grpB.Add(r2.Waypoints[1])

	require.NoError(t, concurrency.Detect([]*model.HighwaySystem{sys}, t.TempDir()+"/concurrencies.log"))

	g := Build(allPoints, []*model.HighwaySystem{sys}, nil)
	require.Len(t, g.Edges, 1, "concurrent segments collapse to a single edge")
	assert.ElementsMatch(t, []string{"REG1", "REG2"}, g.Edges[0].RouteLabels)
}
