package octree

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/octree/geom"
)

type pointObject[T comparable] struct {
	Obj T
	Pos geom.Vector3
}

// PointNode is a node of a PointOctree. Its bounds are exact: a point always
// belongs to a single octant, so elements are only held by leaves.
type PointNode[T comparable] struct {
	center     geom.Vector3
	sideLength float32
	minSize    float32

	bounds      geom.Bounds
	childBounds [8]geom.Bounds

	objects  []pointObject[T]
	children []*PointNode[T]

	metrics *indexMetrics
}

func NewPointNode[T comparable](sideLength, minSize float32, center geom.Vector3) *PointNode[T] {
	return newPointNode[T](sideLength, minSize, center, nil)
}

func newPointNode[T comparable](sideLength, minSize float32, center geom.Vector3, m *indexMetrics) *PointNode[T] {
	n := &PointNode[T]{
		metrics: m,
	}
	n.setValues(sideLength, minSize, center)
	return n
}

func (n *PointNode[T]) setValues(sideLength, minSize float32, center geom.Vector3) {
	n.sideLength = sideLength
	n.minSize = minSize
	n.center = center
	n.bounds = geom.NewCube(center, sideLength)

	for i, c := range childCenters(center, sideLength) {
		n.childBounds[i] = geom.NewCube(c, sideLength/2)
	}
}

func (n *PointNode[T]) Center() geom.Vector3 {
	return n.center
}

func (n *PointNode[T]) SideLength() float32 {
	return n.sideLength
}

func (n *PointNode[T]) Bounds() geom.Bounds {
	return n.bounds
}

func (n *PointNode[T]) HasChildren() bool {
	return n.children != nil
}

func (n *PointNode[T]) Children() []*PointNode[T] {
	return n.children
}

// Len returns the number of elements held directly by the node.
func (n *PointNode[T]) Len() int {
	return len(n.objects)
}

// Add adds obj at pos. It returns false, leaving the node untouched, when pos
// is outside the node bounds.
func (n *PointNode[T]) Add(obj T, pos geom.Vector3) bool {
	if !n.bounds.Contains(pos) {
		return false
	}
	n.subAdd(obj, pos)
	return true
}

// Remove removes obj by scanning every node.
func (n *PointNode[T]) Remove(obj T) bool {
	removed := n.removeObject(obj)

	if !removed && n.children != nil {
		for _, child := range n.children {
			if removed = child.Remove(obj); removed {
				break
			}
		}
	}

	if removed && n.children != nil && n.shouldMerge() {
		n.merge()
	}
	return removed
}

// RemoveAt removes obj that was added at pos.
func (n *PointNode[T]) RemoveAt(obj T, pos geom.Vector3) bool {
	if !n.bounds.Contains(pos) {
		return false
	}
	return n.subRemove(obj, pos)
}

// GetNearbyRay appends to result the elements within maxDistance of the ray.
func (n *PointNode[T]) GetNearbyRay(r geom.Ray, maxDistance float32, result *[]T) {
	if hit, _ := n.bounds.Expand(maxDistance * 2).IntersectRay(r); !hit {
		return
	}

	sqrMaxDistance := maxDistance * maxDistance
	for _, o := range n.objects {
		if r.SqrDistanceToPoint(o.Pos) <= sqrMaxDistance {
			*result = append(*result, o.Obj)
		}
	}

	for _, child := range n.children {
		child.GetNearbyRay(r, maxDistance, result)
	}
}

// GetNearby appends to result the elements within maxDistance of position.
func (n *PointNode[T]) GetNearby(position geom.Vector3, maxDistance float32, result *[]T) {
	sqrMaxDistance := maxDistance * maxDistance
	if n.bounds.SqrDistance(position) > sqrMaxDistance {
		return
	}

	for _, o := range n.objects {
		if geom.SqrDistance(position, o.Pos) <= sqrMaxDistance {
			*result = append(*result, o.Obj)
		}
	}

	for _, child := range n.children {
		child.GetNearby(position, maxDistance, result)
	}
}

// GetAll appends every element of the subtree to result.
func (n *PointNode[T]) GetAll(result *[]T) {
	for _, o := range n.objects {
		*result = append(*result, o.Obj)
	}

	for _, child := range n.children {
		child.GetAll(result)
	}
}

// SetChildren replaces the children of the node. The node is left unchanged
// and an error returned unless exactly 8 non-nil nodes are given.
func (n *PointNode[T]) SetChildren(children []*PointNode[T]) error {
	if len(children) != 8 {
		return errors.New("child octree array must be length 8").
			WithType(ErrTypeInvalidChildren).
			WithTag("length", len(children))
	}

	for i, child := range children {
		if child == nil {
			return errors.New("child octree is nil").
				WithType(ErrTypeInvalidChildren).
				WithTag("index", i)
		}
	}

	n.children = children
	return nil
}

// ShrinkIfPossible returns the node standing for this subtree at a smaller
// size, or the node itself when its elements spread over several octants.
// Nodes shorter than 2*minLength are never shrunk.
func (n *PointNode[T]) ShrinkIfPossible(minLength float32) *PointNode[T] {
	if n.sideLength < 2*minLength {
		return n
	}
	if len(n.objects) == 0 && len(n.children) == 0 {
		return n
	}

	bestFit := -1
	for i, o := range n.objects {
		newBestFit := n.BestFitChild(o.Pos)
		if i != 0 && newBestFit != bestFit {
			return n
		}
		bestFit = newBestFit
	}

	if n.children != nil {
		childHadContent := false
		for i, child := range n.children {
			if !child.HasAnyObjects() {
				continue
			}
			if childHadContent {
				return n
			}
			if bestFit >= 0 && bestFit != i {
				return n
			}
			childHadContent = true
			bestFit = i
		}
	}

	if n.children == nil {
		n.setValues(n.sideLength/2, n.minSize, n.childBounds[bestFit].Center)
		return n
	}

	if bestFit < 0 {
		return n
	}

	newRoot := n.children[bestFit]
	for _, o := range n.objects {
		newRoot.subAdd(o.Obj, o.Pos)
	}
	return newRoot
}

// BestFitChild returns the octant p belongs to.
func (n *PointNode[T]) BestFitChild(p geom.Vector3) int {
	return bestFitChild(n.center, p)
}

// HasAnyObjects reports whether the subtree holds at least one element.
func (n *PointNode[T]) HasAnyObjects() bool {
	if len(n.objects) > 0 {
		return true
	}

	for _, child := range n.children {
		if child.HasAnyObjects() {
			return true
		}
	}
	return false
}

// Walk visits the subtree depth first.
func (n *PointNode[T]) Walk(fn WalkFunc) {
	n.walk(0, fn)
}

func (n *PointNode[T]) walk(depth int, fn WalkFunc) {
	if !fn(depth, n.bounds, len(n.objects), n.children == nil) {
		return
	}

	for _, child := range n.children {
		child.walk(depth+1, fn)
	}
}

func (n *PointNode[T]) subAdd(obj T, pos geom.Vector3) {
	if n.children == nil {
		if len(n.objects) < NumObjectsAllowed || n.sideLength/2 < n.minSize {
			n.objects = append(n.objects, pointObject[T]{Obj: obj, Pos: pos})
			return
		}

		n.split()

		for _, o := range n.objects {
			n.children[n.BestFitChild(o.Pos)].subAdd(o.Obj, o.Pos)
		}
		clear(n.objects)
		n.objects = n.objects[:0]
	}

	n.children[n.BestFitChild(pos)].subAdd(obj, pos)
}

func (n *PointNode[T]) subRemove(obj T, pos geom.Vector3) bool {
	removed := n.removeObject(obj)

	if !removed && n.children != nil {
		bestFit := n.BestFitChild(pos)
		removed = n.children[bestFit].subRemove(obj, pos)

		// Points on a split plane of a root kept as an octant after growing
		// may sit on the other side of the tie.
		for i, child := range n.children {
			if removed {
				break
			}
			if i != bestFit && child.bounds.Contains(pos) {
				removed = child.subRemove(obj, pos)
			}
		}
	}

	if removed && n.children != nil && n.shouldMerge() {
		n.merge()
	}
	return removed
}

func (n *PointNode[T]) removeObject(obj T) bool {
	for i, o := range n.objects {
		if o.Obj != obj {
			continue
		}

		last := len(n.objects) - 1
		n.objects[i] = n.objects[last]
		n.objects[last] = pointObject[T]{}
		n.objects = n.objects[:last]
		return true
	}
	return false
}

func (n *PointNode[T]) split() {
	length := n.sideLength / 2

	children := make([]*PointNode[T], 8)
	for i, c := range childCenters(n.center, n.sideLength) {
		children[i] = newPointNode[T](length, n.minSize, c, n.metrics)
	}

	n.children = children
	n.metrics.instrumentSplit()
}

func (n *PointNode[T]) merge() {
	for _, child := range n.children {
		n.objects = append(n.objects, child.objects...)
	}

	n.children = nil
	n.metrics.instrumentMerge()
}

func (n *PointNode[T]) shouldMerge() bool {
	total := len(n.objects)

	for _, child := range n.children {
		if child.children != nil {
			return false
		}
		total += len(child.objects)
	}
	return total <= NumObjectsAllowed
}
