package subgraph

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelmapping/siteupdate-go/internal/geo"
	"github.com/travelmapping/siteupdate-go/internal/graphbuild"
	"github.com/travelmapping/siteupdate-go/internal/model"
)

func buildTestGraph(t *testing.T) (*graphbuild.Graph, *model.Segment) {
	sys := model.NewHighwaySystem("tst", "USA", "Test", "red", 1, model.LevelActive)
	r := model.NewRoute(sys, "reg", "1", "", "", "City", "tst.one", nil)
	sys.Routes = append(sys.Routes, r)

	w1 := model.NewWaypoint("A", nil, geo.Point{Lat: 35.0, Lng: -106.0}, r)
	w2 := model.NewWaypoint("B", nil, geo.Point{Lat: 35.1, Lng: -106.0}, r)
	r.AddWaypoint(w1)
	r.AddWaypoint(w2)

	g := graphbuild.Build([]*model.Waypoint{w1, w2}, []*model.HighwaySystem{sys}, nil)
	require.Len(t, g.Edges, 1)
	return g, r.Segments[0]
}

func TestWriteSimpleHeaderAndCounts(t *testing.T) {
	g, _ := buildTestGraph(t)
	dir := t.TempDir()
	d := Descriptor{Category: CategoryMaster, Root: "tm-master"}

	row, err := WriteSimple(g, d, dir)
	require.NoError(t, err)
	assert.Equal(t, 2, row.VertexCount)
	assert.Equal(t, 1, row.EdgeCount)

	data, err := os.ReadFile(dir + "/tm-master-simple.tmg")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Equal(t, "TMG 2.0 simple", lines[0])
	assert.Equal(t, "2 1", lines[1])
}

func TestWriteTraveledEncodesClincherBitset(t *testing.T) {
	g, seg := buildTestGraph(t)
	seg.AddClincher("alice")
	dir := t.TempDir()
	d := Descriptor{Category: CategoryMaster, Root: "tm-master"}

	_, err := WriteTraveled(g, d, dir, []string{"alice", "bob"})
	require.NoError(t, err)

	data, err := os.ReadFile(dir + "/tm-master-traveled.tmg")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Equal(t, "TMG 2.0 traveled", lines[0])
	assert.Equal(t, "2 1 2", lines[1])
	assert.Contains(t, lines[4], "1") // edge line: alice is bit 0 -> bitset "1"
	assert.Equal(t, "alice bob", lines[len(lines)-1])
}

func TestDescriptorRestrictsByRegion(t *testing.T) {
	g, _ := buildTestGraph(t)
	dir := t.TempDir()
	d := Descriptor{Category: CategoryRegion, Root: "reg", Regions: map[string]bool{"other": true}}

	row, err := WriteSimple(g, d, dir)
	require.NoError(t, err)
	assert.Equal(t, 0, row.VertexCount)
	assert.Equal(t, 0, row.EdgeCount)
}
