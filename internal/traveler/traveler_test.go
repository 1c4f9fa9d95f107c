package traveler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelmapping/siteupdate-go/internal/geo"
	"github.com/travelmapping/siteupdate-go/internal/model"
)

func buildTestRoute() (*model.HighwaySystem, *model.Route) {
	sys := model.NewHighwaySystem("usai", "USA", "US Interstate", "blue", 1, model.LevelActive)
	r := model.NewRoute(sys, "nm", "40", "", "", "City", "usai.nm40", []string{"i40"})
	sys.Routes = append(sys.Routes, r)
	pts := []geo.Point{{Lat: 35.0, Lng: -106.0}, {Lat: 35.1, Lng: -106.0}, {Lat: 35.2, Lng: -106.0}}
	labels := []string{"A", "B", "C"}
	for i, pt := range pts {
		w := model.NewWaypoint(labels[i], nil, pt, r)
		r.AddWaypoint(w)
	}
	r.BuildLabelIndices()
	return sys, r
}

func TestLoadMatchesAndClinches(t *testing.T) {
	sys, r := buildTestRoute()
	idx := BuildRouteIndex([]*model.Route{r})
	tl := model.NewTravelerList("alice")
	usage := NewUsage([]*model.Route{r})

	out := Load("alice", []byte("nm 40 A B\n"), idx, tl, usage)
	assert.Equal(t, 1, out.GoodLines)
	assert.Len(t, tl.ClinchedSegments(), 1)
	_ = sys
}

func TestLoadDeprecatedRouteName(t *testing.T) {
	_, r := buildTestRoute()
	idx := BuildRouteIndex([]*model.Route{r})
	tl := model.NewTravelerList("bob")

	out := Load("bob", []byte("nm i40 A B\n"), idx, tl, nil)
	assert.Equal(t, 1, out.GoodLines)
	require.Len(t, out.Deprecations, 1)
}

func TestLoadBadLine(t *testing.T) {
	_, r := buildTestRoute()
	idx := BuildRouteIndex([]*model.Route{r})
	tl := model.NewTravelerList("carl")

	out := Load("carl", []byte("nm 40 X Y\n"), idx, tl, nil)
	assert.Equal(t, 0, out.GoodLines)
	assert.Len(t, out.BadLines, 1)
}

func TestUsageWritesPointsInUse(t *testing.T) {
	_, r := buildTestRoute()
	idx := BuildRouteIndex([]*model.Route{r})
	tl := model.NewTravelerList("dana")
	usage := NewUsage([]*model.Route{r})

	Load("dana", []byte("nm 40 A B\n"), idx, tl, usage)

	dir := t.TempDir()
	require.NoError(t, usage.WritePointsInUse(filepath.Join(dir, "pointsinuse.log")))
	data, err := os.ReadFile(filepath.Join(dir, "pointsinuse.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "usai.nm40(3):")
	assert.Contains(t, string(data), "A")
	assert.Contains(t, string(data), "B")
}

func TestWriteFlippedRoutes(t *testing.T) {
	_, r := buildTestRoute()
	r.Reversed = true
	dir := t.TempDir()
	path := filepath.Join(dir, "flippedroutes.log")
	require.NoError(t, WriteFlippedRoutes(path, []*model.Route{r}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "usai.nm40\n", string(data))
}
