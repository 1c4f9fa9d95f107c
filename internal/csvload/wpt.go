package csvload

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/travelmapping/siteupdate-go/internal/datacheck"
	"github.com/travelmapping/siteupdate-go/internal/geo"
	"github.com/travelmapping/siteupdate-go/internal/model"
	"github.com/travelmapping/siteupdate-go/internal/perr"
	"github.com/travelmapping/siteupdate-go/internal/quadtree"
)

const outOfBoundsLat, outOfBoundsLng = 90.0, 180.0
const longSegmentMiles = 20.0
const visibleDistanceMiles = 10.0
const sharpAngleDegrees = 135.0

// parsedLine holds one WPT line's fields before a Waypoint is built.
type parsedLine struct {
	raw       string
	label     string
	altLabels []string
	lat, lng  float64
	ok        bool // false if lat/lng/url parsing failed (errors already logged)
}

// parseWPTLine splits one non-empty WPT line into label(s) and
// coordinates, extracted from the trailing OSM URL's lat=/lon= params.
func parseWPTLine(route *model.Route, line string, dc *datacheck.Engine, errs *perr.ErrorList) parsedLine {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		dc.Add(route, line, "", "", datacheck.SingleFieldLine, "")
		return parsedLine{raw: line}
	}

	url := fields[len(fields)-1]
	labels := fields[:len(fields)-1]

	lat, lng, code, info, ok := extractLatLng(url)
	if !ok {
		dc.Add(route, labels[0], "", "", code, info)
		errs.Add("%s: malformed URL %q", route.Root, url)
		return parsedLine{raw: line}
	}

	return parsedLine{
		raw:       line,
		label:     labels[0],
		altLabels: labels[1:],
		lat:       lat,
		lng:       lng,
		ok:        true,
	}
}

// extractLatLng pulls lat=/lng= (or lon=) query parameters out of an OSM
// URL. On failure it reports the most specific applicable code:
// MALFORMED_URL if the parameters are altogether missing, otherwise
// MALFORMED_LAT/MALFORMED_LON for a present-but-unparseable value.
func extractLatLng(url string) (lat, lng float64, code datacheck.Code, info string, ok bool) {
	latStr, latOK := queryParam(url, "lat")
	lngStr, lngOK := queryParam(url, "lng")
	if !lngOK {
		lngStr, lngOK = queryParam(url, "lon")
	}
	if !latOK && !lngOK {
		return 0, 0, datacheck.MalformedURL, url, false
	}
	if latOK {
		if v, err := strconv.ParseFloat(latStr, 64); err == nil {
			lat = v
		} else {
			return 0, 0, datacheck.MalformedLat, latStr, false
		}
	} else {
		return 0, 0, datacheck.MalformedURL, url, false
	}
	if lngOK {
		if v, err := strconv.ParseFloat(lngStr, 64); err == nil {
			lng = v
		} else {
			return 0, 0, datacheck.MalformedLon, lngStr, false
		}
	} else {
		return 0, 0, datacheck.MalformedURL, url, false
	}
	return lat, lng, "", "", true
}

func queryParam(url, key string) (string, bool) {
	marker := key + "="
	idx := strings.Index(url, marker)
	if idx < 0 {
		return "", false
	}
	rest := url[idx+len(marker):]
	end := strings.IndexAny(rest, "&#")
	if end >= 0 {
		rest = rest[:end]
	}
	if rest == "" {
		return "", false
	}
	return rest, true
}

// LoadWPT parses one route's .wpt file, inserting every waypoint into
// the shared quadtree, running the single-point and per-route datacheck
// rules of spec §4.C, and building the route's segment list.
func LoadWPT(route *model.Route, path string, tree *quadtree.Node, dc *datacheck.Engine, errs *perr.ErrorList, nmpTolerance float64) error {
	f, err := os.Open(path)
	if err != nil {
		errs.Add("could not open %s: %v", path, err)
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	seenLabels := make(map[string]bool)
	seenCoords := make(map[geo.Point]bool)
	visDist := 0.0
	var lastVisible *model.Waypoint

	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		parsed := parseWPTLine(route, line, dc, errs)
		if !parsed.ok {
			continue
		}

		pt := geo.Point{Lat: parsed.lat, Lng: parsed.lng}
		w := model.NewWaypoint(parsed.label, parsed.altLabels, pt, route)
		for _, lbl := range append([]string{parsed.label}, parsed.altLabels...) {
			ValidateLabelChars(route, lbl, dc, errs)
		}

		if !geo.Finite(pt) || pt.Lat < -outOfBoundsLat || pt.Lat > outOfBoundsLat || pt.Lng < -outOfBoundsLng || pt.Lng > outOfBoundsLng {
			dc.Add(route, w.Label, "", "", datacheck.OutOfBounds, fmt.Sprintf("(%g,%g)", pt.Lat, pt.Lng))
		}

		key := normalizeForDup(w.Label)
		if seenLabels[key] {
			dc.Add(route, w.Label, "", "", datacheck.DuplicateLabel, "")
		}
		seenLabels[key] = true

		if seenCoords[pt] {
			dc.Add(route, w.Label, "", "", datacheck.DuplicateCoords, fmt.Sprintf("(%g,%g)", pt.Lat, pt.Lng))
		}
		seenCoords[pt] = true

		tree.Insert(w, true)
		w.NearMiss = tree.NearMissWaypoints(w, nmpTolerance)

		seg := route.AddWaypoint(w)
		if seg != nil {
			d := seg.Length()
			visDist += d
			if d > longSegmentMiles {
				dc.Add(route, seg.Other(w).Label, w.Label, "", datacheck.LongSegment, fmt.Sprintf("%.2f", d))
			}
		}

		if !w.Hidden {
			if lastVisible != nil && route.System.Level != model.LevelActive && visDist > visibleDistanceMiles {
				dc.Add(route, lastVisible.Label, w.Label, "", datacheck.VisibleDistance, fmt.Sprintf("%.2f", visDist))
			}
			visDist = 0
			lastVisible = w
			checkLacksGeneric(route, w, dc)
		}
	}

	if err := sc.Err(); err != nil {
		errs.Add("error reading %s: %v", path, err)
		return err
	}

	finalizeRouteChecks(route, dc, errs)
	return nil
}

func normalizeForDup(label string) string {
	return strings.ToUpper(strings.TrimPrefix(strings.TrimPrefix(label, "+"), "*"))
}

// finalizeRouteChecks runs the checks that need the complete waypoint
// list: hidden termini and the angle-based BAD_ANGLE/SHARP_ANGLE scan.
func finalizeRouteChecks(route *model.Route, dc *datacheck.Engine, errs *perr.ErrorList) {
	if len(route.Waypoints) < 2 {
		errs.Add("route contains fewer than 2 points: %s", route.Root)
		return
	}

	if route.Waypoints[0].Hidden {
		dc.Add(route, route.Waypoints[0].Label, "", "", datacheck.HiddenTerminus, "")
	}
	last := route.Waypoints[len(route.Waypoints)-1]
	if last.Hidden {
		dc.Add(route, last.Label, "", "", datacheck.HiddenTerminus, "")
	}

	for i := 1; i < len(route.Waypoints)-1; i++ {
		prev, mid, succ := route.Waypoints[i-1], route.Waypoints[i], route.Waypoints[i+1]
		if geo.SameCoords(prev.Point, mid.Point) || geo.SameCoords(succ.Point, mid.Point) {
			dc.Add(route, prev.Label, mid.Label, succ.Label, datacheck.BadAngle, "")
			continue
		}
		angle, ok := geo.Angle(prev.Point, mid.Point, succ.Point)
		if ok && angle > sharpAngleDegrees {
			dc.Add(route, prev.Label, mid.Label, succ.Label, datacheck.SharpAngle, fmt.Sprintf("%.2f", angle))
		}
	}
}
