package csvload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelmapping/siteupdate-go/internal/datacheck"
	"github.com/travelmapping/siteupdate-go/internal/model"
	"github.com/travelmapping/siteupdate-go/internal/perr"
	"github.com/travelmapping/siteupdate-go/internal/quadtree"
)

func TestLoadSystems(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "systems.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"systemName;countryCode;fullName;color;tier;level\n"+
			"usai;USA;US Interstate;blue;1;active\n",
	), 0644))

	errs := perr.New()
	systems := LoadSystems(path, errs)
	require.True(t, errs.Empty(), errs.Error())
	require.Contains(t, systems, "usai")
	assert.Equal(t, model.LevelActive, systems["usai"].Level)
}

func TestLoadWPTLongSegment(t *testing.T) {
	dir := t.TempDir()
	wptPath := filepath.Join(dir, "test.wpt")
	require.NoError(t, os.WriteFile(wptPath, []byte(
		"A1 https://www.openstreetmap.org/?lat=35.0&lon=-106.0\n"+
			"A2 https://www.openstreetmap.org/?lat=35.4&lon=-106.0\n",
	), 0644))

	sys := model.NewHighwaySystem("test", "USA", "Test System", "red", 1, model.LevelActive)
	route := model.NewRoute(sys, "tst", "1", "", "", "City", "tst.test1", nil)

	dc := datacheck.NewEngine()
	errs := perr.New()
	tree := quadtree.New()

	require.NoError(t, LoadWPT(route, wptPath, tree, dc, errs, 0.0005))
	require.True(t, errs.Empty(), errs.Error())
	require.Len(t, route.Waypoints, 2)
	require.Len(t, route.Segments, 1)

	found := false
	for _, e := range dc.Entries() {
		if e.Code == datacheck.LongSegment {
			found = true
		}
	}
	assert.True(t, found, "expected a LONG_SEGMENT entry for a ~27mi segment")
}

func TestLoadAllEndToEnd(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "systems.csv"), []byte(
		"systemName;countryCode;fullName;color;tier;level\n"+
			"usai;USA;US Interstate;blue;1;active\n",
	), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "usai.csv"), []byte(
		"systemName;region;route;banner;abbrev;city;root;altRouteNames\n"+
			"usai;tst;1;;;City A,City B;usai.tst1;\n",
	), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "usai_con.csv"), []byte(
		"systemName;route;banner;groupName;roots\n"+
			"usai;1;;;usai.tst1\n",
	), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tst", "usai"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tst", "usai", "usai.tst1.wpt"), []byte(
		"A1 https://www.openstreetmap.org/?lat=35.0&lon=-106.0\n"+
			"A2 https://www.openstreetmap.org/?lat=35.1&lon=-106.0\n",
	), 0644))

	dc := datacheck.NewEngine()
	errs := perr.New()
	corpus := LoadAll(dir, filepath.Join(dir, "systems.csv"), 2, dc, errs, 0.0005)
	require.True(t, errs.Empty(), errs.Error())
	require.Len(t, corpus.Routes, 1)
	assert.NotNil(t, corpus.Routes[0].Connected)
	assert.Len(t, corpus.Routes[0].Waypoints, 2)
}
