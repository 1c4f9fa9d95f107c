package concurrency

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelmapping/siteupdate-go/internal/geo"
	"github.com/travelmapping/siteupdate-go/internal/model"
)

func buildRoute(sys *model.HighwaySystem, region, root string, pts []geo.Point, tree *sharedTree) *model.Route {
	r := model.NewRoute(sys, region, "1", "", "", "City", root, nil)
	sys.Routes = append(sys.Routes, r)
	for i, pt := range pts {
		w := model.NewWaypoint(root+"W"+itoa(i), nil, pt, r)
		tree.insert(w)
		r.AddWaypoint(w)
	}
	return r
}

// sharedTree is a minimal colocation stand-in: waypoints at the exact
// same coordinates are linked into the same ColocatedGroup, same as the
// real quadtree.Insert would do.
type sharedTree struct {
	byPoint map[geo.Point]*model.ColocatedGroup
}

func newSharedTree() *sharedTree { return &sharedTree{byPoint: make(map[geo.Point]*model.ColocatedGroup)} }

func (t *sharedTree) insert(w *model.Waypoint) {
	g, ok := t.byPoint[w.Point]
	if !ok {
		g = &model.ColocatedGroup{}
		t.byPoint[w.Point] = g
	}
	g.Add(w)
	w.Colocated = g
}

func itoa(i int) string {
	return string(rune('0' + i))
}

func TestDetectCreatesConcurrencyGroup(t *testing.T) {
	sys := model.NewHighwaySystem("tst", "USA", "Test", "red", 1, model.LevelActive)
	tree := newSharedTree()

	a := geo.Point{Lat: 35.0, Lng: -106.0}
	b := geo.Point{Lat: 35.1, Lng: -106.0}

	r1 := buildRoute(sys, "reg", "tst.one", []geo.Point{a, b}, tree)
	r2 := buildRoute(sys, "reg", "tst.two", []geo.Point{a, b}, tree)

	dir := t.TempDir()
	require.NoError(t, Detect([]*model.HighwaySystem{sys}, filepath.Join(dir, "concurrencies.log")))

	require.NotNil(t, r1.Segments[0].Concurrent)
	require.NotNil(t, r2.Segments[0].Concurrent)
	assert.Equal(t, 2, r1.Segments[0].Concurrent.Size())
	assert.Same(t, r1.Segments[0].Concurrent, r2.Segments[0].Concurrent)

	data, err := os.ReadFile(filepath.Join(dir, "concurrencies.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "New concurrency")
}

func TestDetectNoConcurrencyWithoutColocation(t *testing.T) {
	sys := model.NewHighwaySystem("tst", "USA", "Test", "red", 1, model.LevelActive)
	tree := newSharedTree()

	r1 := buildRoute(sys, "reg", "tst.one", []geo.Point{{Lat: 35.0, Lng: -106.0}, {Lat: 35.1, Lng: -106.0}}, tree)

	dir := t.TempDir()
	require.NoError(t, Detect([]*model.HighwaySystem{sys}, filepath.Join(dir, "concurrencies.log")))
	assert.Nil(t, r1.Segments[0].Concurrent)
}

func TestCheckSplitRegionFlagsMissingGroup(t *testing.T) {
	sys := model.NewHighwaySystem("tst", "USA", "Test", "red", 1, model.LevelActive)
	tree := newSharedTree()

	a := geo.Point{Lat: 35.0, Lng: -106.0}
	b := geo.Point{Lat: 35.1, Lng: -106.0}
	c := geo.Point{Lat: 35.2, Lng: -106.0}

	r1 := buildRoute(sys, "spl", "tst.one", []geo.Point{a, b}, tree)
	r2 := buildRoute(sys, "spl", "tst.two", []geo.Point{a, b}, tree)
	r3 := buildRoute(sys, "spl", "tst.three", []geo.Point{b, c}, tree)

	dir := t.TempDir()
	require.NoError(t, Detect([]*model.HighwaySystem{sys}, filepath.Join(dir, "concurrencies.log")))
	require.NoError(t, CheckSplitRegion([]*model.HighwaySystem{sys}, "spl", dir))

	data, err := os.ReadFile(filepath.Join(dir, "tst-concurrencies.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "has no concurrencies")

	_ = r1
	_ = r2
	_ = r3
}
