// Package quadtree implements the recursive 2-D spatial index over every
// waypoint in the corpus (spec §4.B). It answers two questions: "is there
// already a waypoint at this exact location?" (colocation, used at load
// time) and "what points lie within tolerance of this one?" (near-miss
// search, used by the NMP reporter).
package quadtree

import (
	"fmt"
	"os"
	"sync"

	"github.com/travelmapping/siteupdate-go/internal/geo"
	"github.com/travelmapping/siteupdate-go/internal/model"
)

// maxLeafUniqueLocations is the refine threshold: once a leaf holds more
// than this many distinct (lat,lng) locations, it splits into quadrants.
const maxLeafUniqueLocations = 50

// Node is one quadtree node: either a leaf holding waypoints directly, or
// an internal node with four children. A per-node mutex guards both
// refine (leaf -> internal) and insert, so concurrent loader workers can
// share one tree.
type Node struct {
	minLat, maxLat, minLng, maxLng float64
	midLat, midLng                 float64

	mu       sync.Mutex
	points   []*model.Waypoint // only meaningful while this node is a leaf
	uniques  int               // count of distinct locations currently in points
	nw, ne, sw, se *Node        // non-nil iff refined
}

// New returns the root node, covering the whole lat/lng plane.
func New() *Node {
	return newNode(-90, 90, -180, 180)
}

func newNode(minLat, maxLat, minLng, maxLng float64) *Node {
	return &Node{
		minLat: minLat, maxLat: maxLat,
		minLng: minLng, maxLng: maxLng,
		midLat: (minLat + maxLat) / 2,
		midLng: (minLng + maxLng) / 2,
	}
}

func (n *Node) refined() bool { return n.nw != nil }

func (n *Node) contains(p geo.Point) bool {
	return p.Lat >= n.minLat && p.Lat <= n.maxLat && p.Lng >= n.minLng && p.Lng <= n.maxLng
}

func (n *Node) quadrantFor(p geo.Point) *Node {
	north := p.Lat >= n.midLat
	east := p.Lng >= n.midLng
	switch {
	case north && east:
		return n.ne
	case north && !east:
		return n.nw
	case !north && east:
		return n.se
	default:
		return n.sw
	}
}

// Insert adds w to the tree. initial must be true for the first
// insertion pass over the whole corpus (it wires up colocation groups
// for exact-coordinate matches); subsequent re-insertion during a
// refine passes initial=false, since those points have already been
// colocated.
func (n *Node) Insert(w *model.Waypoint, initial bool) {
	n.mu.Lock()
	if n.refined() {
		child := n.quadrantFor(w.Point)
		n.mu.Unlock()
		child.Insert(w, initial)
		return
	}

	var sameLocation *model.Waypoint
	for _, existing := range n.points {
		if geo.SameCoords(existing.Point, w.Point) {
			sameLocation = existing
			break
		}
	}

	if initial && sameLocation != nil {
		if sameLocation.Colocated != nil {
			sameLocation.Colocated.Add(w)
		} else {
			model.NewColocatedGroup(sameLocation, w)
		}
	}

	n.points = append(n.points, w)
	if sameLocation == nil {
		n.uniques++
	}

	if n.uniques > maxLeafUniqueLocations {
		n.refine()
	}
	n.mu.Unlock()
}

// refine turns a leaf into an internal node, reinserting every stored
// waypoint into the new quadrant children. Caller must hold n.mu.
func (n *Node) refine() {
	n.nw = newNode(n.midLat, n.maxLat, n.minLng, n.midLng)
	n.ne = newNode(n.midLat, n.maxLat, n.midLng, n.maxLng)
	n.sw = newNode(n.minLat, n.midLat, n.minLng, n.midLng)
	n.se = newNode(n.minLat, n.midLat, n.midLng, n.maxLng)

	stored := n.points
	n.points = nil
	n.uniques = 0

	for _, w := range stored {
		n.quadrantFor(w.Point).Insert(w, false)
	}
}

// WaypointAtSamePoint returns an existing waypoint at w's exact
// coordinates other than w itself, or nil if w is alone at its location.
func (n *Node) WaypointAtSamePoint(w *model.Waypoint) *model.Waypoint {
	n.mu.Lock()
	if n.refined() {
		child := n.quadrantFor(w.Point)
		n.mu.Unlock()
		return child.WaypointAtSamePoint(w)
	}
	defer n.mu.Unlock()
	for _, existing := range n.points {
		if existing != w && geo.SameCoords(existing.Point, w.Point) {
			return existing
		}
	}
	return nil
}

// NearMissWaypoints returns every waypoint within tol degrees of w on
// both axes, excluding w itself and any waypoint at w's exact
// coordinates (those are colocated, not near-misses).
func (n *Node) NearMissWaypoints(w *model.Waypoint, tol float64) []*model.Waypoint {
	var out []*model.Waypoint
	n.nearMiss(w, tol, &out)
	return out
}

func (n *Node) nearMiss(w *model.Waypoint, tol float64, out *[]*model.Waypoint) {
	n.mu.Lock()
	if n.refined() {
		lookNorth := w.Point.Lat+tol >= n.midLat
		lookSouth := w.Point.Lat-tol < n.midLat
		lookEast := w.Point.Lng+tol >= n.midLng
		lookWest := w.Point.Lng-tol < n.midLng
		nw, ne, sw, se := n.nw, n.ne, n.sw, n.se
		n.mu.Unlock()

		if lookNorth && lookWest {
			nw.nearMiss(w, tol, out)
		}
		if lookNorth && lookEast {
			ne.nearMiss(w, tol, out)
		}
		if lookSouth && lookWest {
			sw.nearMiss(w, tol, out)
		}
		if lookSouth && lookEast {
			se.nearMiss(w, tol, out)
		}
		return
	}
	defer n.mu.Unlock()
	for _, existing := range n.points {
		if existing == w {
			continue
		}
		if geo.SameCoords(existing.Point, w.Point) {
			continue
		}
		if geo.Nearby(existing.Point, w.Point, tol) {
			*out = append(*out, existing)
		}
	}
}

// PointList performs an in-order (NE, NW, SE, SW) traversal of the tree,
// returning every stored waypoint. The fixed child order is what makes
// Sort and WriteQtTmg deterministic across runs.
func (n *Node) PointList() []*model.Waypoint {
	var out []*model.Waypoint
	n.collect(&out)
	return out
}

func (n *Node) collect(out *[]*model.Waypoint) {
	if n.refined() {
		n.ne.collect(out)
		n.nw.collect(out)
		n.se.collect(out)
		n.sw.collect(out)
		return
	}
	*out = append(*out, n.points...)
}

// leaves returns every leaf node in the tree, in NE/NW/SE/SW order.
func (n *Node) leaves() []*Node {
	if !n.refined() {
		return []*Node{n}
	}
	var out []*Node
	out = append(out, n.ne.leaves()...)
	out = append(out, n.nw.leaves()...)
	out = append(out, n.se.leaves()...)
	out = append(out, n.sw.leaves()...)
	return out
}

// Sort orders each leaf's waypoints (and each colocation group they
// belong to) by "root@label", deterministically. Work is partitioned one
// goroutine per leaf so the pass parallelizes over a large corpus while
// still producing byte-identical output.
func (n *Node) Sort(workers int) {
	leaves := n.leaves()
	if workers < 1 {
		workers = 1
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	seenGroups := sync.Map{}

	for _, leaf := range leaves {
		leaf := leaf
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			leaf.mu.Lock()
			model.SortPoints(leaf.points)
			members := append([]*model.Waypoint(nil), leaf.points...)
			leaf.mu.Unlock()

			for _, w := range members {
				if w.Colocated == nil {
					continue
				}
				if _, already := seenGroups.LoadOrStore(w.Colocated, true); already {
					continue
				}
				pts := w.Colocated.Snapshot()
				model.SortPoints(pts)
				w.Colocated.Points = pts
			}
		}()
	}
	wg.Wait()
}

// SelfCheck verifies the two invariants from spec §4.B: no refined node
// stores points directly, and no leaf exceeds the unique-location cap.
// Returns a list of violation descriptions (empty means healthy).
func (n *Node) SelfCheck() []string {
	var problems []string
	n.selfCheck(&problems)
	return problems
}

func (n *Node) selfCheck(problems *[]string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.refined() {
		if len(n.points) != 0 {
			*problems = append(*problems, fmt.Sprintf("refined node at [%g,%g]x[%g,%g] holds %d points directly", n.minLat, n.maxLat, n.minLng, n.maxLng, len(n.points)))
		}
		n.nw.selfCheck(problems)
		n.ne.selfCheck(problems)
		n.sw.selfCheck(problems)
		n.se.selfCheck(problems)
		return
	}
	if n.uniques > maxLeafUniqueLocations {
		*problems = append(*problems, fmt.Sprintf("leaf at [%g,%g]x[%g,%g] has %d unique locations (max %d)", n.minLat, n.maxLat, n.minLng, n.maxLng, n.uniques, maxLeafUniqueLocations))
	}
}

// WriteQtTmg emits the quadtree's subdivision boundaries as a TMG-like
// diagnostic graph: one vertex per leaf corner, one edge per leaf
// rectangle side. Latitudes are clamped to [-80,80] since TMG viewers
// generally don't plot the poles usefully.
func WriteQtTmg(root *Node, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	leaves := root.leaves()
	type vtx struct{ lat, lng float64 }
	var verts []vtx
	idx := make(map[vtx]int)
	add := func(lat, lng float64) int {
		lat = clampLat(lat)
		v := vtx{lat, lng}
		if i, ok := idx[v]; ok {
			return i
		}
		idx[v] = len(verts)
		verts = append(verts, v)
		return len(verts) - 1
	}

	type edge struct{ u, v int }
	var edges []edge
	for _, leaf := range leaves {
		a := add(leaf.minLat, leaf.minLng)
		b := add(leaf.minLat, leaf.maxLng)
		c := add(leaf.maxLat, leaf.maxLng)
		d := add(leaf.maxLat, leaf.minLng)
		edges = append(edges, edge{a, b}, edge{b, c}, edge{c, d}, edge{d, a})
	}

	fmt.Fprintln(f, "TMG 2.0 simple")
	fmt.Fprintf(f, "%d %d\n", len(verts), len(edges))
	for i, v := range verts {
		fmt.Fprintf(f, "qt%d %.15g %.15g\n", i, v.lat, v.lng)
	}
	for _, e := range edges {
		fmt.Fprintf(f, "%d %d qt\n", e.u, e.v)
	}
	return nil
}

func clampLat(lat float64) float64 {
	if lat > 80 {
		return 80
	}
	if lat < -80 {
		return -80
	}
	return lat
}
