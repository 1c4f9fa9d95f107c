// Package model holds the in-memory corpus: waypoints, routes, segments,
// systems, regions, connected routes, and traveler lists. Every type here
// is an arena member; cross-references are non-owning back-pointers, per
// the ownership model in spec §3/§9. Shared mutable structures (colocation
// groups, concurrency groups) carry their own mutex so concurrent loader
// and detector workers can mutate them safely.
package model

import (
	"sort"
	"strings"
	"sync"

	"github.com/travelmapping/siteupdate-go/internal/geo"
)

// Waypoint is one point along a Route.
type Waypoint struct {
	Label      string
	AltLabels  []string
	Point      geo.Point
	Hidden     bool
	Route      *Route
	Colocated  *ColocatedGroup // nil if this point is alone
	NearMiss   []*Waypoint     // populated by the quadtree at load time
}

// NewWaypoint constructs a Waypoint, deriving Hidden from the label.
func NewWaypoint(label string, alts []string, pt geo.Point, route *Route) *Waypoint {
	return &Waypoint{
		Label:     label,
		AltLabels: alts,
		Point:     pt,
		Hidden:    strings.HasPrefix(label, "+"),
		Route:     route,
	}
}

// NumColocated returns the number of waypoints at this location,
// including itself (1 if it is alone).
func (w *Waypoint) NumColocated() int {
	if w.Colocated == nil {
		return 1
	}
	return w.Colocated.Size()
}

// ColocatedGroup is the shared set of waypoints at one geographic
// location. At most one group exists per location; append is guarded by
// a per-group lock so loader workers can attach to it concurrently.
type ColocatedGroup struct {
	mu     sync.Mutex
	Points []*Waypoint
}

// NewColocatedGroup creates a group containing the given points and
// wires each point's Colocated back-pointer to it.
func NewColocatedGroup(points ...*Waypoint) *ColocatedGroup {
	g := &ColocatedGroup{Points: points}
	for _, p := range points {
		p.Colocated = g
	}
	return g
}

// Add appends w to the group under lock and wires its back-pointer.
func (g *ColocatedGroup) Add(w *Waypoint) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Points = append(g.Points, w)
	w.Colocated = g
}

// Size returns the number of members. Thread-safe.
func (g *ColocatedGroup) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Points)
}

// Snapshot returns a copy of the member slice, safe to range over
// without holding the lock.
func (g *ColocatedGroup) Snapshot() []*Waypoint {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Waypoint, len(g.Points))
	copy(out, g.Points)
	return out
}

// SortKey returns the "root@label" sort key used by quadtree.sort and by
// colocation-group ordering, so output is deterministic regardless of
// insertion order.
func (w *Waypoint) SortKey() string {
	root := ""
	if w.Route != nil {
		root = w.Route.Root
	}
	return root + "@" + w.Label
}

// SortPoints sorts a slice of waypoints in place by SortKey.
func SortPoints(pts []*Waypoint) {
	sort.Slice(pts, func(i, j int) bool { return pts[i].SortKey() < pts[j].SortKey() })
}
