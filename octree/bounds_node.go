package octree

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/octree/geom"
)

type boundsObject[T comparable] struct {
	Obj    T
	Bounds geom.Bounds
}

// BoundsNode is a node of a BoundsOctree. Elements live in the deepest node
// whose loose bounds fully contain them.
type BoundsNode[T comparable] struct {
	center     geom.Vector3
	baseLength float32
	looseness  float32
	minSize    float32

	// bounds is the base cube scaled by looseness. childBounds are the loose
	// bounds of the 8 potential children.
	bounds      geom.Bounds
	childBounds [8]geom.Bounds

	objects  []boundsObject[T]
	children []*BoundsNode[T]

	metrics *indexMetrics
}

// NewBoundsNode creates a leaf node. baseLength is the edge of the node before
// looseness is applied and minSize the edge under which the node stops
// splitting.
func NewBoundsNode[T comparable](baseLength, minSize, looseness float32, center geom.Vector3) *BoundsNode[T] {
	return newBoundsNode[T](baseLength, minSize, looseness, center, nil)
}

func newBoundsNode[T comparable](baseLength, minSize, looseness float32, center geom.Vector3, m *indexMetrics) *BoundsNode[T] {
	n := &BoundsNode[T]{
		metrics: m,
	}
	n.setValues(baseLength, minSize, looseness, center)
	return n
}

func (n *BoundsNode[T]) setValues(baseLength, minSize, looseness float32, center geom.Vector3) {
	n.baseLength = baseLength
	n.minSize = minSize
	n.looseness = looseness
	n.center = center
	n.bounds = geom.NewCube(center, looseness*baseLength)

	childLength := (baseLength / 2) * looseness
	for i, c := range childCenters(center, baseLength) {
		n.childBounds[i] = geom.NewCube(c, childLength)
	}
}

func (n *BoundsNode[T]) Center() geom.Vector3 {
	return n.center
}

// BaseLength returns the edge of the node without looseness.
func (n *BoundsNode[T]) BaseLength() float32 {
	return n.baseLength
}

// Bounds returns the loose bounds of the node.
func (n *BoundsNode[T]) Bounds() geom.Bounds {
	return n.bounds
}

// ChildBounds returns the loose bounds of the i-th octant, whether or not the
// node has split.
func (n *BoundsNode[T]) ChildBounds(i int) geom.Bounds {
	return n.childBounds[i]
}

func (n *BoundsNode[T]) HasChildren() bool {
	return n.children != nil
}

// Children returns the child nodes, or nil for a leaf.
func (n *BoundsNode[T]) Children() []*BoundsNode[T] {
	return n.children
}

// Len returns the number of elements held directly by the node.
func (n *BoundsNode[T]) Len() int {
	return len(n.objects)
}

// Add adds obj to the subtree. It returns false, leaving the node untouched,
// when objBounds is not fully inside the node bounds.
func (n *BoundsNode[T]) Add(obj T, objBounds geom.Bounds) bool {
	if !n.bounds.Encapsulates(objBounds) {
		return false
	}
	n.subAdd(obj, objBounds)
	return true
}

// Remove removes obj from the subtree by scanning every node. It assumes obj
// was added once.
func (n *BoundsNode[T]) Remove(obj T) bool {
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

// RemoveAt removes obj knowing the bounds it was added with, descending only
// into the children whose bounds contain them, best fit first.
func (n *BoundsNode[T]) RemoveAt(obj T, objBounds geom.Bounds) bool {
	if !n.bounds.Encapsulates(objBounds) {
		return false
	}
	return n.subRemove(obj, objBounds)
}

// IsColliding reports whether any element intersects checkBounds.
func (n *BoundsNode[T]) IsColliding(checkBounds geom.Bounds) bool {
	if !n.bounds.Intersects(checkBounds) {
		return false
	}

	for _, o := range n.objects {
		if o.Bounds.Intersects(checkBounds) {
			return true
		}
	}

	for _, child := range n.children {
		if child.IsColliding(checkBounds) {
			return true
		}
	}
	return false
}

// IsCollidingRay reports whether the ray hits any element within maxDistance.
func (n *BoundsNode[T]) IsCollidingRay(r geom.Ray, maxDistance float32) bool {
	if hit, distance := n.bounds.IntersectRay(r); !hit || distance > maxDistance {
		return false
	}

	for _, o := range n.objects {
		if hit, distance := o.Bounds.IntersectRay(r); hit && distance <= maxDistance {
			return true
		}
	}

	for _, child := range n.children {
		if child.IsCollidingRay(r, maxDistance) {
			return true
		}
	}
	return false
}

// GetColliding appends to result the elements intersecting checkBounds.
func (n *BoundsNode[T]) GetColliding(checkBounds geom.Bounds, result *[]T) {
	if !n.bounds.Intersects(checkBounds) {
		return
	}

	for _, o := range n.objects {
		if o.Bounds.Intersects(checkBounds) {
			*result = append(*result, o.Obj)
		}
	}

	for _, child := range n.children {
		child.GetColliding(checkBounds, result)
	}
}

// GetCollidingRay appends to result the elements hit by the ray within
// maxDistance.
func (n *BoundsNode[T]) GetCollidingRay(r geom.Ray, maxDistance float32, result *[]T) {
	if hit, distance := n.bounds.IntersectRay(r); !hit || distance > maxDistance {
		return
	}

	for _, o := range n.objects {
		if hit, distance := o.Bounds.IntersectRay(r); hit && distance <= maxDistance {
			*result = append(*result, o.Obj)
		}
	}

	for _, child := range n.children {
		child.GetCollidingRay(r, maxDistance, result)
	}
}

// GetWithinFrustum appends to result the elements inside or intersecting the
// volume enclosed by planes.
func (n *BoundsNode[T]) GetWithinFrustum(planes []geom.Plane, result *[]T) {
	if !geom.TestPlanesAABB(planes, n.bounds) {
		return
	}

	for _, o := range n.objects {
		if geom.TestPlanesAABB(planes, o.Bounds) {
			*result = append(*result, o.Obj)
		}
	}

	for _, child := range n.children {
		child.GetWithinFrustum(planes, result)
	}
}

// GetAll appends every element of the subtree to result.
func (n *BoundsNode[T]) GetAll(result *[]T) {
	for _, o := range n.objects {
		*result = append(*result, o.Obj)
	}

	for _, child := range n.children {
		child.GetAll(result)
	}
}

// SetChildren replaces the children of the node. The node is left unchanged
// and an error returned unless exactly 8 non-nil nodes are given.
func (n *BoundsNode[T]) SetChildren(children []*BoundsNode[T]) error {
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

// ShrinkIfPossible returns the node that can stand for this subtree at a
// smaller size: the node itself, shrunk in place when it is a leaf whose
// elements all fit one octant, or the only child holding elements. Nodes
// shorter than 2*minLength are never shrunk.
func (n *BoundsNode[T]) ShrinkIfPossible(minLength float32) *BoundsNode[T] {
	if n.baseLength < 2*minLength {
		return n
	}
	if len(n.objects) == 0 && len(n.children) == 0 {
		return n
	}

	// Elements here must share one octant and fit entirely inside it:
	bestFit := -1
	for i, o := range n.objects {
		newBestFit := n.BestFitChild(o.Bounds.Center)
		if i != 0 && newBestFit != bestFit {
			return n
		}
		if !n.childBounds[newBestFit].Encapsulates(o.Bounds) {
			return n
		}
		bestFit = newBestFit
	}

	// At most one child may hold elements, in that same octant:
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
		n.setValues(n.baseLength/2, n.minSize, n.looseness, n.childBounds[bestFit].Center)
		return n
	}

	if bestFit < 0 {
		return n
	}

	newRoot := n.children[bestFit]
	for _, o := range n.objects {
		newRoot.subAdd(o.Obj, o.Bounds)
	}
	return newRoot
}

// BestFitChild returns the octant p belongs to.
func (n *BoundsNode[T]) BestFitChild(p geom.Vector3) int {
	return bestFitChild(n.center, p)
}

// HasAnyObjects reports whether the subtree holds at least one element.
func (n *BoundsNode[T]) HasAnyObjects() bool {
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
func (n *BoundsNode[T]) Walk(fn WalkFunc) {
	n.walk(0, fn)
}

func (n *BoundsNode[T]) walk(depth int, fn WalkFunc) {
	if !fn(depth, n.bounds, len(n.objects), n.children == nil) {
		return
	}

	for _, child := range n.children {
		child.walk(depth+1, fn)
	}
}

func (n *BoundsNode[T]) subAdd(obj T, objBounds geom.Bounds) {
	// Elements always go as deep as they fit, so a node with children has
	// already pushed down everything it could.
	if n.children == nil {
		if len(n.objects) < NumObjectsAllowed || n.baseLength/2 < n.minSize {
			n.objects = append(n.objects, boundsObject[T]{Obj: obj, Bounds: objBounds})
			return
		}

		n.split()

		kept := n.objects[:0]
		for _, o := range n.objects {
			bestFit := n.BestFitChild(o.Bounds.Center)
			if child := n.children[bestFit]; child.bounds.Encapsulates(o.Bounds) {
				child.subAdd(o.Obj, o.Bounds)
				continue
			}
			kept = append(kept, o)
		}
		clear(n.objects[len(kept):])
		n.objects = kept
	}

	bestFit := n.BestFitChild(objBounds.Center)
	if child := n.children[bestFit]; child.bounds.Encapsulates(objBounds) {
		child.subAdd(obj, objBounds)
		return
	}
	n.objects = append(n.objects, boundsObject[T]{Obj: obj, Bounds: objBounds})
}

func (n *BoundsNode[T]) subRemove(obj T, objBounds geom.Bounds) bool {
	removed := n.removeObject(obj)

	if !removed && n.children != nil {
		bestFit := n.BestFitChild(objBounds.Center)
		removed = n.children[bestFit].subRemove(obj, objBounds)

		// A root kept as an octant after growing may hold elements whose
		// center falls in a sibling octant.
		for i, child := range n.children {
			if removed {
				break
			}
			if i != bestFit && child.bounds.Encapsulates(objBounds) {
				removed = child.subRemove(obj, objBounds)
			}
		}
	}

	if removed && n.children != nil && n.shouldMerge() {
		n.merge()
	}
	return removed
}

func (n *BoundsNode[T]) removeObject(obj T) bool {
	for i, o := range n.objects {
		if o.Obj != obj {
			continue
		}

		last := len(n.objects) - 1
		n.objects[i] = n.objects[last]
		n.objects[last] = boundsObject[T]{}
		n.objects = n.objects[:last]
		return true
	}
	return false
}

func (n *BoundsNode[T]) split() {
	length := n.baseLength / 2

	children := make([]*BoundsNode[T], 8)
	for i, c := range childCenters(n.center, n.baseLength) {
		children[i] = newBoundsNode[T](length, n.minSize, n.looseness, c, n.metrics)
	}

	n.children = children
	n.metrics.instrumentSplit()
}

// merge pulls the elements of the children into this node and drops them.
// Callers check shouldMerge first: merging is never done over grandchildren.
func (n *BoundsNode[T]) merge() {
	for _, child := range n.children {
		n.objects = append(n.objects, child.objects...)
	}

	n.children = nil
	n.metrics.instrumentMerge()
}

func (n *BoundsNode[T]) shouldMerge() bool {
	total := len(n.objects)

	for _, child := range n.children {
		if child.children != nil {
			return false
		}
		total += len(child.objects)
	}
	return total <= NumObjectsAllowed
}
