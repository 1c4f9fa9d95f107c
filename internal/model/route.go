package model

import "strings"

// Route is an ordered sequence of waypoints (>=2) belonging to one
// HighwaySystem/region, identified by a unique Root.
type Route struct {
	System        *HighwaySystem
	Region        string
	Name          string // <=16
	Banner        string // <=6
	Abbrev        string // <=3
	City          string // <=100
	Root          string // <=32, unique across the corpus
	AltRouteNames []string

	Waypoints []*Waypoint
	Segments  []*Segment

	// label indices: case-insensitive, leading '+'/'*' stripped.
	LabelIndex    map[string]int // primary label -> waypoint index
	AltLabelIndex map[string]int // alt label -> waypoint index
	DuplicateLabels map[string]bool

	Reversed  bool
	Connected *ConnectedRoute
	RootOrder int // index within the connected route

	mileage float64
}

// NewRoute constructs an empty Route shell; waypoints are appended as the
// WPT file is parsed.
func NewRoute(sys *HighwaySystem, region, name, banner, abbrev, city, root string, altNames []string) *Route {
	return &Route{
		System:          sys,
		Region:          region,
		Name:            name,
		Banner:          banner,
		Abbrev:          abbrev,
		City:            city,
		Root:            root,
		AltRouteNames:   altNames,
		LabelIndex:      make(map[string]int),
		AltLabelIndex:   make(map[string]int),
		DuplicateLabels: make(map[string]bool),
	}
}

// AddWaypoint appends w and, if there is a predecessor, creates the
// connecting Segment.
func (r *Route) AddWaypoint(w *Waypoint) *Segment {
	w.Route = r
	r.Waypoints = append(r.Waypoints, w)
	if len(r.Waypoints) < 2 {
		return nil
	}
	prev := r.Waypoints[len(r.Waypoints)-2]
	seg := NewSegment(prev, w, r)
	r.Segments = append(r.Segments, seg)
	return seg
}

// normalizeLabel strips a leading '+' or '*' and upcases, for label-index
// lookups per §4.C.
func normalizeLabel(label string) string {
	label = strings.TrimPrefix(label, "+")
	label = strings.TrimPrefix(label, "*")
	return strings.ToUpper(label)
}

// BuildLabelIndices (re)builds LabelIndex/AltLabelIndex/DuplicateLabels
// from the current Waypoints slice. Called once per route after WPT
// parsing (label_and_connect, §4.C).
func (r *Route) BuildLabelIndices() {
	r.LabelIndex = make(map[string]int)
	r.AltLabelIndex = make(map[string]int)
	r.DuplicateLabels = make(map[string]bool)

	seen := make(map[string]bool)
	note := func(key string, idx int, into map[string]int) {
		if seen[key] {
			r.DuplicateLabels[key] = true
			return
		}
		seen[key] = true
		into[key] = idx
	}

	for i, w := range r.Waypoints {
		note(normalizeLabel(w.Label), i, r.LabelIndex)
		for _, alt := range w.AltLabels {
			note(normalizeLabel(alt), i, r.AltLabelIndex)
		}
	}
}

// FindLabel resolves a label (any case, any +/* prefix) to a waypoint
// index, checking the primary index first and then the alt index, per
// §4.H step 3. ok is false if not found in either.
func (r *Route) FindLabel(label string) (idx int, viaAlt bool, ok bool) {
	key := normalizeLabel(label)
	if i, found := r.LabelIndex[key]; found {
		return i, false, true
	}
	if i, found := r.AltLabelIndex[key]; found {
		return i, true, true
	}
	return 0, false, false
}

// FindSegmentByWaypoints returns the segment directly joining w1 and w2
// (in either order) within this route, or nil if they are not adjacent.
func (r *Route) FindSegmentByWaypoints(w1, w2 *Waypoint) *Segment {
	for _, s := range r.Segments {
		if (s.W1 == w1 && s.W2 == w2) || (s.W1 == w2 && s.W2 == w1) {
			return s
		}
	}
	return nil
}

// Mileage is the sum of segment lengths, computed lazily and cached.
func (r *Route) Mileage() float64 {
	if r.mileage != 0 {
		return r.mileage
	}
	var total float64
	for _, s := range r.Segments {
		total += s.Length()
	}
	r.mileage = total
	return total
}

// ListEntryName is the name used to match `.list` entries to this route:
// region+route+banner, the way the traveler-list resolver hashes it.
func (r *Route) ListEntryName() string {
	return strings.ToUpper(r.Region + r.Name + r.Banner)
}
