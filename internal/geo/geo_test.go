package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceZeroForSamePoint(t *testing.T) {
	p := Point{Lat: 35.0, Lng: -106.5}
	assert.InDelta(t, 0.0, Distance(p, p), 1e-9)
}

func TestDistanceKnownSpan(t *testing.T) {
	// Roughly one degree of longitude near the equator is ~69 miles;
	// the fudge factor nudges that up slightly.
	a := Point{Lat: 0, Lng: 0}
	b := Point{Lat: 0, Lng: 1}
	d := Distance(a, b)
	assert.Greater(t, d, 68.0)
	assert.Less(t, d, 71.0)
}

func TestAngleStraightLine(t *testing.T) {
	prev := Point{Lat: 10, Lng: 10}
	mid := Point{Lat: 10, Lng: 11}
	succ := Point{Lat: 10, Lng: 12}
	deg, ok := Angle(prev, mid, succ)
	assert.True(t, ok)
	// The chords between points 1 degree apart on a parallel turn by
	// about the 1 degree of arc between them.
	assert.InDelta(t, 1.0, deg, 0.01)
}

func TestAngleUTurn(t *testing.T) {
	prev := Point{Lat: 10, Lng: 10}
	mid := Point{Lat: 10, Lng: 11}
	succ := Point{Lat: 10, Lng: 10}
	deg, ok := Angle(prev, mid, succ)
	assert.True(t, ok)
	assert.InDelta(t, 180.0, deg, 0.01)
}

func TestAngleCoincidentIsNotOK(t *testing.T) {
	p := Point{Lat: 10, Lng: 10}
	_, ok := Angle(p, p, Point{Lat: 11, Lng: 11})
	assert.False(t, ok)
}

func TestNearby(t *testing.T) {
	a := Point{Lat: 10.00001, Lng: 20.00001}
	b := Point{Lat: 10.00002, Lng: 20.00002}
	assert.True(t, Nearby(a, b, 0.0005))
	assert.False(t, Nearby(a, b, 0.0000001))
}

func TestSameCoords(t *testing.T) {
	a := Point{Lat: 1, Lng: 2}
	b := Point{Lat: 1, Lng: 2}
	c := Point{Lat: 1, Lng: 2.0000001}
	assert.True(t, SameCoords(a, b))
	assert.False(t, SameCoords(a, c))
}
