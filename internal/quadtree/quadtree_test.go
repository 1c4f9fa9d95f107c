package quadtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelmapping/siteupdate-go/internal/geo"
	"github.com/travelmapping/siteupdate-go/internal/model"
)

func wpt(label string, lat, lng float64) *model.Waypoint {
	return model.NewWaypoint(label, nil, geo.Point{Lat: lat, Lng: lng}, nil)
}

func TestColocationOnInsert(t *testing.T) {
	root := New()
	a := wpt("A1", 10, 10)
	b := wpt("B1", 10, 10)
	root.Insert(a, true)
	root.Insert(b, true)

	require.NotNil(t, a.Colocated)
	require.NotNil(t, b.Colocated)
	assert.Equal(t, a.Colocated, b.Colocated)
	assert.Equal(t, 2, a.Colocated.Size())
}

func TestWaypointAtSamePoint(t *testing.T) {
	root := New()
	a := wpt("A1", 20, 20)
	b := wpt("B1", 20, 20)
	c := wpt("C1", 21, 20)
	root.Insert(a, true)
	root.Insert(b, true)
	root.Insert(c, true)

	assert.Equal(t, a, root.WaypointAtSamePoint(b))
	assert.Nil(t, root.WaypointAtSamePoint(c))
}

func TestNearMissWaypoints(t *testing.T) {
	root := New()
	a := wpt("A1", 30, 30)
	b := wpt("B1", 30.0001, 30.0001)
	c := wpt("C1", 30, 30) // exact colocation, not a near-miss
	d := wpt("D1", 40, 40) // far away
	for _, w := range []*model.Waypoint{a, b, c, d} {
		root.Insert(w, true)
	}

	near := root.NearMissWaypoints(a, 0.0005)
	assert.Contains(t, near, b)
	assert.NotContains(t, near, c)
	assert.NotContains(t, near, d)
	assert.NotContains(t, near, a)
}

func TestRefineOnOverflow(t *testing.T) {
	root := New()
	for i := 0; i < 60; i++ {
		w := wpt("P", float64(i)*0.001, float64(i)*0.001)
		root.Insert(w, true)
	}
	assert.Empty(t, root.SelfCheck())
	assert.Len(t, root.PointList(), 60)
}

func TestSelfCheckHealthy(t *testing.T) {
	root := New()
	for i := 0; i < 10; i++ {
		root.Insert(wpt("P", float64(i), float64(i)), true)
	}
	assert.Empty(t, root.SelfCheck())
}

func TestSortIsDeterministic(t *testing.T) {
	root := New()
	r1 := &model.Route{Root: "B"}
	r2 := &model.Route{Root: "A"}
	w1 := model.NewWaypoint("Z", nil, geo.Point{Lat: 1, Lng: 1}, r1)
	w2 := model.NewWaypoint("Y", nil, geo.Point{Lat: 1, Lng: 1}, r2)
	root.Insert(w1, true)
	root.Insert(w2, true)
	root.Sort(4)

	pts := root.PointList()
	require.Len(t, pts, 2)
	assert.Equal(t, "A@Y", pts[0].SortKey())
}
