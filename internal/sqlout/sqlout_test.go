package sqlout

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func sampleData() *Data {
	return &Data{
		Continents: []Continent{{Code: "NA", Name: "North America"}},
		Countries:  []Country{{Code: "USA", Name: "United States"}},
		Regions:    []Region{{Code: "nm", Name: "New Mexico", Country: "USA", Continent: "NA", Type: "state"}},
		Systems:    []System{{Name: "usai", Country: "USA", FullName: "Interstates", Color: "blue", Tier: 1, Level: "active"}},
		Routes:     []Route{{SystemName: "usai", Region: "nm", Route: "40", Root: "usainm40"}},
		Waypoints: []Waypoint{
			{ID: 1, Root: "usainm40", Label: "A", Lat: 35.0, Lng: -106.0},
			{ID: 2, Root: "usainm40", Label: "B", Lat: 35.1, Lng: -106.0},
		},
		Segments: []Segment{{ID: 1, Root: "usainm40", Waypoint1: 1, Waypoint2: 2}},
	}
}

func TestGenerateProducesRunnableScript(t *testing.T) {
	script, err := Generate(sampleData())
	require.NoError(t, err)
	require.NotEmpty(t, script)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	_, err = sqlDB.Exec(script)
	require.NoError(t, err)

	var routeCount, waypointCount, segmentCount int
	require.NoError(t, sqlDB.QueryRow("SELECT COUNT(*) FROM routes").Scan(&routeCount))
	require.NoError(t, sqlDB.QueryRow("SELECT COUNT(*) FROM waypoints").Scan(&waypointCount))
	require.NoError(t, sqlDB.QueryRow("SELECT COUNT(*) FROM segments").Scan(&segmentCount))

	require.Equal(t, 1, routeCount)
	require.Equal(t, 2, waypointCount)
	require.Equal(t, 1, segmentCount)
}

func TestGenerateChunksLargeInserts(t *testing.T) {
	data := &Data{}
	for i := 0; i < ChunkSize+5; i++ {
		data.Waypoints = append(data.Waypoints, Waypoint{ID: i + 1, Root: "r", Label: "A", Lat: 1, Lng: 1})
	}
	script, err := Generate(data)
	require.NoError(t, err)

	count := 0
	for i := 0; i+len("INSERT INTO waypoints") <= len(script); i++ {
		if script[i:i+len("INSERT INTO waypoints")] == "INSERT INTO waypoints" {
			count++
		}
	}
	require.Equal(t, 2, count, "ChunkSize+5 rows should split into two INSERT statements")
}
