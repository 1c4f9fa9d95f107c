package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelmapping/siteupdate-go/internal/concurrency"
	"github.com/travelmapping/siteupdate-go/internal/geo"
	"github.com/travelmapping/siteupdate-go/internal/model"
)

func TestComputeSplitsConcurrentMileage(t *testing.T) {
	sys := model.NewHighwaySystem("tst", "USA", "Test", "red", 1, model.LevelActive)

	a := geo.Point{Lat: 35.0, Lng: -106.0}
	b := geo.Point{Lat: 35.1, Lng: -106.0}

	r1 := model.NewRoute(sys, "reg", "1", "", "", "City", "tst.one", nil)
	r2 := model.NewRoute(sys, "reg", "2", "", "", "City", "tst.two", nil)
	sys.Routes = append(sys.Routes, r1, r2)

	for _, r := range []*model.Route{r1, r2} {
		w1 := model.NewWaypoint(r.Root+"A", nil, a, r)
		w2 := model.NewWaypoint(r.Root+"B", nil, b, r)
		r.AddWaypoint(w1)
		r.AddWaypoint(w2)
	}
	// manually colocate the two routes' endpoints, same as the quadtree would
	grpA := &model.ColocatedGroup{}
	grpA.Add(r1.Waypoints[0])
	grpA.Add(r2.Waypoints[0])
	grpB := &model.ColocatedGroup{}
	grpB.Add(r1.Waypoints[1])
	grpB.Add(r2.Waypoints[1])

	require.NoError(t, concurrency.Detect([]*model.HighwaySystem{sys}, t.TempDir()+"/concurrencies.log"))
	require.NotNil(t, r1.Segments[0].Concurrent)

	regions := make(map[string]*model.Region)
	rs := NewRegionStats(regions)
	Compute([]*model.HighwaySystem{sys}, rs)

	region := regions["reg"]
	require.NotNil(t, region)
	dist := geo.Distance(a, b)
	assert.InDelta(t, dist, region.Overall, 1e-9, "two concurrent segments should split to one segment's worth of overall mileage")
	assert.InDelta(t, dist*2, region.Mileage, 1e-9, "plain per-route mileage still counts both copies")
}
