// Package geo provides the great-circle distance, turn-angle, and
// axis-aligned proximity primitives that every other component in the
// pipeline builds on.
package geo

import "math"

// EarthRadiusMi is the spherical earth radius in miles used by the
// distance formula below (not the WGS84 mean radius — this is the
// project-specific constant the rest of the corpus was built against).
const EarthRadiusMi = 3963.1

// CurvatureFudgeFactor compensates for the fact that routes are plotted
// as straight lines between waypoints rather than the curves they
// actually follow; multiplying raw great-circle distance by this
// factor approximates the difference empirically.
const CurvatureFudgeFactor = 1.02112

// Point is a (lat, lng) pair in degrees.
type Point struct {
	Lat, Lng float64
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

// Distance returns the great-circle distance in miles between a and b,
// via the spherical law of cosines, scaled by CurvatureFudgeFactor.
func Distance(a, b Point) float64 {
	rlat1, rlng1 := toRad(a.Lat), toRad(a.Lng)
	rlat2, rlng2 := toRad(b.Lat), toRad(b.Lng)

	cosArg := math.Cos(rlat1)*math.Cos(rlng1)*math.Cos(rlat2)*math.Cos(rlng2) +
		math.Cos(rlat1)*math.Sin(rlng1)*math.Cos(rlat2)*math.Sin(rlng2) +
		math.Sin(rlat1)*math.Sin(rlat2)

	// Guard against acos domain errors from floating point drift when
	// a == b (cosArg can land at 1.0000000000000002).
	if cosArg > 1 {
		cosArg = 1
	} else if cosArg < -1 {
		cosArg = -1
	}

	return math.Acos(cosArg) * EarthRadiusMi * CurvatureFudgeFactor
}

// Angle returns the degrees of deviation at mid between the incoming
// leg prev->mid and the outgoing leg mid->succ, measured between the
// straight chords through the earth. For evenly spaced points along one
// great circle the result is about the arc between neighbouring points,
// so it is near 0 only for short legs; values approach 180 as the path
// folds back on itself. Returns (0, false) if
// prev, mid, or succ coincide, since no meaningful angle exists.
func Angle(prev, mid, succ Point) (deg float64, ok bool) {
	rlat0, rlng0 := toRad(prev.Lat), toRad(prev.Lng)
	rlat1, rlng1 := toRad(mid.Lat), toRad(mid.Lng)
	rlat2, rlng2 := toRad(succ.Lat), toRad(succ.Lng)

	x0, y0, z0 := math.Cos(rlng0)*math.Cos(rlat0), math.Sin(rlng0)*math.Cos(rlat0), math.Sin(rlat0)
	x1, y1, z1 := math.Cos(rlng1)*math.Cos(rlat1), math.Sin(rlng1)*math.Cos(rlat1), math.Sin(rlat1)
	x2, y2, z2 := math.Cos(rlng2)*math.Cos(rlat2), math.Sin(rlng2)*math.Cos(rlat2), math.Sin(rlat2)

	dx1, dy1, dz1 := x1-x0, y1-y0, z1-z0
	dx2, dy2, dz2 := x2-x1, y2-y1, z2-z1

	denom := math.Sqrt((dx2*dx2+dy2*dy2+dz2*dz2)*(dx1*dx1+dy1*dy1+dz1*dz1))
	if denom == 0 {
		return 0, false
	}

	cosArg := (dx2*dx1 + dy2*dy1 + dz2*dz1) / denom
	if cosArg > 1 {
		cosArg = 1
	} else if cosArg < -1 {
		cosArg = -1
	}

	return math.Acos(cosArg) * 180 / math.Pi, true
}

// Nearby reports whether a and b are within tol degrees of each other
// on both axes independently (an axis-aligned box check, not a radius
// check — this is what the quadtree's near-miss search uses since it
// must match the legacy tool's near-miss semantics exactly).
func Nearby(a, b Point, tol float64) bool {
	return math.Abs(a.Lat-b.Lat) < tol && math.Abs(a.Lng-b.Lng) < tol
}

// SameCoords reports exact coordinate equality, the colocation test.
func SameCoords(a, b Point) bool {
	return a.Lat == b.Lat && a.Lng == b.Lng
}

// Finite reports whether both coordinates are finite numbers, per the
// Waypoint invariant in spec §3.
func Finite(p Point) bool {
	return !math.IsNaN(p.Lat) && !math.IsInf(p.Lat, 0) &&
		!math.IsNaN(p.Lng) && !math.IsInf(p.Lng, 0)
}
