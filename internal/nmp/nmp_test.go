package nmp

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelmapping/siteupdate-go/internal/geo"
	"github.com/travelmapping/siteupdate-go/internal/model"
)

func mkRoute(root string) *model.Route {
	sys := model.NewHighwaySystem("tst", "USA", "Test", "red", 1, model.LevelActive)
	return model.NewRoute(sys, "reg", "1", "", "", "City", root, nil)
}

func TestBuildReportsNearMissPair(t *testing.T) {
	r1 := mkRoute("tst.one")
	r2 := mkRoute("tst.two")

	w1 := model.NewWaypoint("A", nil, geo.Point{Lat: 35.0, Lng: -106.0}, r1)
	w2 := model.NewWaypoint("B", nil, geo.Point{Lat: 35.0001, Lng: -106.0}, r2)
	w1.NearMiss = []*model.Waypoint{w2}
	w2.NearMiss = []*model.Waypoint{w1}

	rep := Build([]*model.Waypoint{w1, w2}, nil)
	require.Len(t, rep.LogLines, 2)
	assert.Contains(t, rep.LogLines[0], "NMP")
	require.Len(t, rep.NMPLines, 2)

	dir := t.TempDir()
	require.NoError(t, WriteNearMissPoints(filepath.Join(dir, "nearmisspoints.log"), rep))
	require.NoError(t, WriteTMMaster(filepath.Join(dir, "tm-master.nmp"), rep))

	data, err := os.ReadFile(filepath.Join(dir, "tm-master.nmp"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "tst.one@A")
}

func TestBuildMarksFPAndAnnotatesPairLines(t *testing.T) {
	r1 := mkRoute("tst.one")
	r2 := mkRoute("tst.two")
	w1 := model.NewWaypoint("A", nil, geo.Point{Lat: 35.0, Lng: -106.0}, r1)
	w2 := model.NewWaypoint("B", nil, geo.Point{Lat: 35.0001, Lng: -106.0}, r2)
	w1.NearMiss = []*model.Waypoint{w2}
	w2.NearMiss = []*model.Waypoint{w1}

	line := "tst.one A NMP tst.two B"
	rep := Build([]*model.Waypoint{w1, w2}, []string{line})
	require.Len(t, rep.NMPLines, 2)
	for _, l := range rep.NMPLines {
		assert.True(t, strings.HasSuffix(l, " FP"), "tm-master.nmp line %q lacks the FP annotation", l)
	}
	assert.Empty(t, rep.Unmatched)
	found := false
	for _, l := range rep.LogLines {
		if l == line+" [MARKED FP]" {
			found = true
		}
	}
	assert.True(t, found)
}
