package model

import (
	"sync"

	"github.com/travelmapping/siteupdate-go/internal/geo"
)

// Segment is an unordered pair of adjacent waypoints within one route.
type Segment struct {
	W1, W2     *Waypoint
	Route      *Route
	Concurrent *ConcurrentGroup // nil if this segment shares no pavement

	mu        sync.Mutex
	clinchers map[string]bool // traveler name -> clinched this segment
}

// NewSegment builds a Segment between two adjacent waypoints of route r.
func NewSegment(w1, w2 *Waypoint, r *Route) *Segment {
	return &Segment{W1: w1, W2: w2, Route: r, clinchers: make(map[string]bool)}
}

// Length is the great-circle distance between the segment's endpoints.
func (s *Segment) Length() float64 {
	return geo.Distance(s.W1.Point, s.W2.Point)
}

// Other returns the endpoint of the segment that is not w.
func (s *Segment) Other(w *Waypoint) *Waypoint {
	if w == s.W1 {
		return s.W2
	}
	return s.W1
}

// AddClincher records that traveler name has clinched this segment.
// Thread-safe.
func (s *Segment) AddClincher(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clinchers[name] = true
}

// ClinchedBy reports whether traveler name has clinched this segment.
func (s *Segment) ClinchedBy(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clinchers[name]
}

// Clinchers returns a snapshot of every traveler name that has clinched
// this segment.
func (s *Segment) Clinchers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.clinchers))
	for name := range s.clinchers {
		out = append(out, name)
	}
	return out
}

// IsClinched reports whether any traveler has clinched this segment,
// which is what determines graph-vertex visibility >= 1 (traveled).
func (s *Segment) IsClinched() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clinchers) > 0
}

// ConcurrentGroup is the shared set of segments considered equivalent
// pavement. Membership mutation happens under lock so the concurrency
// detector can run against many segments concurrently; size must stay
// >= 2 once created per spec §3's HighwaySegment invariant.
type ConcurrentGroup struct {
	mu       sync.Mutex
	Segments []*Segment
}

// NewConcurrentGroup creates a group from the given segments and wires
// their back-pointers.
func NewConcurrentGroup(segs ...*Segment) *ConcurrentGroup {
	g := &ConcurrentGroup{Segments: segs}
	for _, s := range segs {
		s.Concurrent = g
	}
	return g
}

// Extend appends s to the group under lock.
func (g *ConcurrentGroup) Extend(s *Segment) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Segments = append(g.Segments, s)
	s.Concurrent = g
}

// Merge absorbs other's members into g, repointing every absorbed
// segment's Concurrent back-pointer at g and leaving other empty, so no
// segment is ever left referencing a group it is no longer a member of.
// A no-op if g and other are already the same group.
func (g *ConcurrentGroup) Merge(other *ConcurrentGroup) {
	if g == other {
		return
	}
	other.mu.Lock()
	members := make([]*Segment, len(other.Segments))
	copy(members, other.Segments)
	other.Segments = nil
	other.mu.Unlock()

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, s := range members {
		s.Concurrent = g
		g.Segments = append(g.Segments, s)
	}
}

// Size returns the member count. Thread-safe.
func (g *ConcurrentGroup) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Segments)
}

// Snapshot returns a copy of the member slice.
func (g *ConcurrentGroup) Snapshot() []*Segment {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Segment, len(g.Segments))
	copy(out, g.Segments)
	return out
}

// ConcurrencyCounts reports the four concurrency-denominator counts used
// by the stats engine (§4.I): total members, members in active-or-preview
// systems, members in active-only systems, and members in the same
// system as `home`.
func ConcurrencyCounts(s *Segment, home *HighwaySystem) (overall, ap, ao, sys int) {
	if s.Concurrent == nil {
		ap := boolToCount(home.Level == LevelActive || home.Level == LevelPreview)
		ao := boolToCount(home.Level == LevelActive)
		return 1, ap, ao, 1
	}
	members := s.Concurrent.Snapshot()
	overall = len(members)
	for _, m := range members {
		lvl := m.Route.System.Level
		if lvl == LevelActive || lvl == LevelPreview {
			ap++
		}
		if lvl == LevelActive {
			ao++
		}
		if m.Route.System == home {
			sys++
		}
	}
	return
}

func boolToCount(b bool) int {
	if b {
		return 1
	}
	return 0
}
