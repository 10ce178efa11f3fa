package octree

import (
	"sync"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/octree/geom"
)

// BoundsOctree is a dynamic loose octree indexing elements by an axis-aligned
// box.
type BoundsOctree[T comparable] struct {
	mutex       sync.RWMutex
	root        *BoundsNode[T]
	count       int
	initialSize float32
	minSize     float32
	looseness   float32
	name        string
	metrics     *indexMetrics
}

// NewBoundsOctree creates a tree whose root is a cube of initialSize centered
// on center. Looseness is clamped to [1, 2] and minSize to (0, initialSize].
func NewBoundsOctree[T comparable](initialSize float32, center geom.Vector3, minSize, looseness float32, opts ...Option) *BoundsOctree[T] {
	o := newOptions(opts)
	minSize = clampMinSize(o.name, initialSize, minSize)
	looseness = clampLooseness(o.name, looseness)
	metrics := newIndexMetrics(o.name, kindBounds)
	metrics.instrumentElements(0)

	return &BoundsOctree[T]{
		root:        newBoundsNode[T](initialSize, minSize, looseness, center, metrics),
		initialSize: initialSize,
		minSize:     minSize,
		looseness:   looseness,
		name:        o.name,
		metrics:     metrics,
	}
}

// Name returns the name the tree reports its metrics under.
func (t *BoundsOctree[T]) Name() string {
	return t.name
}

// Add adds obj with the given bounds, growing the tree until they fit. An
// error typed ErrTypeGrowthLimit is returned when they still do not fit after
// MaxGrowAttempts doublings, in which case the tree is left unchanged.
func (t *BoundsOctree[T]) Add(obj T, objBounds geom.Bounds) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	oldRoot := t.root
	grows := 0
	for !t.root.Add(obj, objBounds) {
		if grows == MaxGrowAttempts {
			t.root = oldRoot

			err := errors.New("adding element failed: growth limit reached").
				WithType(ErrTypeGrowthLimit).
				WithTag("index", t.name).
				WithTag("attempts", grows).
				WithTag("center", objBounds.Center).
				WithTag("extents", objBounds.Extents)
			t.metrics.instrumentAddError(err)
			return err
		}
		t.grow(geom.Sub(objBounds.Center, t.root.center))
		grows++
	}

	t.metrics.instrumentGrows(grows)
	t.count++
	t.metrics.instrumentElements(t.count)
	return nil
}

// Remove removes obj, scanning the whole tree. It returns false when obj is
// not stored.
func (t *BoundsOctree[T]) Remove(obj T) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.root.Remove(obj) {
		return false
	}
	t.removed()
	return true
}

// RemoveAt removes obj that was added with objBounds.
func (t *BoundsOctree[T]) RemoveAt(obj T, objBounds geom.Bounds) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.root.RemoveAt(obj, objBounds) {
		return false
	}
	t.removed()
	return true
}

// IsColliding reports whether any element intersects checkBounds.
func (t *BoundsOctree[T]) IsColliding(checkBounds geom.Bounds) bool {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	return t.root.IsColliding(checkBounds)
}

// IsCollidingRay reports whether the ray hits an element within maxDistance.
// Use MaxDistance for an unbounded ray.
func (t *BoundsOctree[T]) IsCollidingRay(r geom.Ray, maxDistance float32) bool {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	return t.root.IsCollidingRay(r, maxDistance)
}

// GetColliding appends to result the elements intersecting checkBounds.
func (t *BoundsOctree[T]) GetColliding(checkBounds geom.Bounds, result *[]T) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	t.root.GetColliding(checkBounds, result)
}

// GetCollidingRay appends to result the elements hit by the ray within
// maxDistance.
func (t *BoundsOctree[T]) GetCollidingRay(r geom.Ray, maxDistance float32, result *[]T) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	t.root.GetCollidingRay(r, maxDistance, result)
}

// GetWithinFrustum appends to result the elements that are inside or
// intersect the volume enclosed by planes, usually the 6 planes returned by
// geom.FrustumPlanes.
func (t *BoundsOctree[T]) GetWithinFrustum(planes []geom.Plane, result *[]T) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	t.root.GetWithinFrustum(planes, result)
}

// GetAll appends every element to result.
func (t *BoundsOctree[T]) GetAll(result *[]T) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	t.root.GetAll(result)
}

// MaxBounds returns the loose bounds of the root.
func (t *BoundsOctree[T]) MaxBounds() geom.Bounds {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	return t.root.bounds
}

func (t *BoundsOctree[T]) Count() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	return t.count
}

// Walk visits the nodes depth first. fn runs with the tree read locked and
// must not modify it.
func (t *BoundsOctree[T]) Walk(fn WalkFunc) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	t.root.Walk(fn)
}

func (t *BoundsOctree[T]) Stats() Stats {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	stats := Stats{
		Count:     t.count,
		MaxBounds: t.root.bounds,
		Center:    t.root.center,
	}
	t.root.Walk(collectStats(&stats))
	return stats
}

func (t *BoundsOctree[T]) removed() {
	t.count--
	t.shrink()
	t.metrics.instrumentElements(t.count)
}

// grow doubles the root toward direction. The old root becomes one of the
// octants of the new one.
func (t *BoundsOctree[T]) grow(direction geom.Vector3) {
	oldRoot := t.root
	half := oldRoot.baseLength / 2
	newCenter := geom.Add(oldRoot.center, geom.Mul(growthDirection(direction), half))
	t.root = newBoundsNode[T](oldRoot.baseLength*2, t.minSize, t.looseness, newCenter, t.metrics)

	if !oldRoot.HasAnyObjects() {
		return
	}

	rootPos := t.root.BestFitChild(oldRoot.center)
	children := make([]*BoundsNode[T], 8)
	for i, c := range childCenters(newCenter, t.root.baseLength) {
		if i == rootPos {
			children[i] = oldRoot
			continue
		}
		children[i] = newBoundsNode[T](oldRoot.baseLength, t.minSize, t.looseness, c, t.metrics)
	}

	// Always 8 non-nil children.
	_ = t.root.SetChildren(children)
}

// shrink reduces the root until it stops changing.
func (t *BoundsOctree[T]) shrink() {
	for {
		prev, prevLength := t.root, t.root.baseLength

		t.root = t.root.ShrinkIfPossible(t.initialSize)
		if t.root == prev && t.root.baseLength == prevLength {
			return
		}
		t.metrics.instrumentShrink()
	}
}
