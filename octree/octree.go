// Package octree implements dynamic loose octrees that index elements either by
// an axis-aligned box (BoundsOctree) or by a single position (PointOctree).
//
// Both trees grow when an element lands outside the current root and shrink
// back after removals, never below the size they were created with. Nodes split
// into 8 children once they hold more than NumObjectsAllowed elements and merge
// back when a removal leaves the subtree at or under that threshold.
//
// A tree is safe for concurrent use: mutations are serialized and queries run
// concurrently with each other. Nodes on their own are not synchronized.
package octree

import (
	"math"

	"github.com/aukilabs/octree/geom"
)

const (
	// NumObjectsAllowed is the number of elements a node holds before it
	// splits, and the total under which 8 leaf children merge back.
	NumObjectsAllowed = 8

	// MaxGrowAttempts caps how many times a single Add may double the root.
	MaxGrowAttempts = 20

	// MaxDistance disables the distance limit of ray queries.
	MaxDistance = math.MaxFloat32
)

// octantOffsets gives the direction of each child center from its parent
// center. Index bits: 1 is +x, 2 is +z, 4 is -y.
var octantOffsets = [8]geom.Vector3{
	{X: -1, Y: 1, Z: -1},
	{X: 1, Y: 1, Z: -1},
	{X: -1, Y: 1, Z: 1},
	{X: 1, Y: 1, Z: 1},
	{X: -1, Y: -1, Z: -1},
	{X: 1, Y: -1, Z: -1},
	{X: -1, Y: -1, Z: 1},
	{X: 1, Y: -1, Z: 1},
}

// bestFitChild returns the octant of center that p falls into. Points on a
// split plane go to the low-x, high-y, low-z side.
func bestFitChild(center geom.Vector3, p geom.Vector3) int {
	index := 0
	if p.X > center.X {
		index |= 1
	}
	if p.Z > center.Z {
		index |= 2
	}
	if p.Y < center.Y {
		index |= 4
	}
	return index
}

// childCenters returns the centers of the 8 children of a node of the given
// length.
func childCenters(center geom.Vector3, length float32) [8]geom.Vector3 {
	quarter := length / 4

	var centers [8]geom.Vector3
	for i, offset := range octantOffsets {
		centers[i] = geom.Add(center, geom.Mul(offset, quarter))
	}
	return centers
}

// growthDirection turns an offset into a unit step on each axis. Zero counts
// as positive.
func growthDirection(offset geom.Vector3) geom.Vector3 {
	dir := geom.Splat(1)
	if offset.X < 0 {
		dir.X = -1
	}
	if offset.Y < 0 {
		dir.Y = -1
	}
	if offset.Z < 0 {
		dir.Z = -1
	}
	return dir
}

// Stats summarizes the shape of a tree.
type Stats struct {
	Count     int          `json:"count"`
	Nodes     int          `json:"nodes"`
	Leaves    int          `json:"leaves"`
	MaxDepth  int          `json:"max_depth"`
	Objects   int          `json:"objects"`
	MaxBounds geom.Bounds  `json:"max_bounds"`
	Center    geom.Vector3 `json:"center"`
}

// WalkFunc is called for every visited node. Returning false skips the
// children of that node.
type WalkFunc func(depth int, bounds geom.Bounds, objects int, leaf bool) bool

func collectStats(stats *Stats) WalkFunc {
	return func(depth int, bounds geom.Bounds, objects int, leaf bool) bool {
		stats.Nodes++
		stats.Objects += objects
		if leaf {
			stats.Leaves++
		}
		if depth > stats.MaxDepth {
			stats.MaxDepth = depth
		}
		return true
	}
}
