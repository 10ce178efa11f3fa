package octree

import (
	"sync"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/octree/geom"
)

// PointOctree is a dynamic octree indexing elements by position.
//
// Payloads implementing Identifiable have their identifiers tracked while
// they are stored, which ContainsID looks up.
type PointOctree[T comparable] struct {
	mutex       sync.RWMutex
	root        *PointNode[T]
	count       int
	ids         idSet
	initialSize float32
	minSize     float32
	name        string
	metrics     *indexMetrics
}

// NewPointOctree creates a tree whose root is a cube of initialSize centered
// on center. minSize is clamped to (0, initialSize].
func NewPointOctree[T comparable](initialSize float32, center geom.Vector3, minSize float32, opts ...Option) *PointOctree[T] {
	o := newOptions(opts)
	minSize = clampMinSize(o.name, initialSize, minSize)
	metrics := newIndexMetrics(o.name, kindPoint)
	metrics.instrumentElements(0)

	return &PointOctree[T]{
		root:        newPointNode[T](initialSize, minSize, center, metrics),
		ids:         make(idSet),
		initialSize: initialSize,
		minSize:     minSize,
		name:        o.name,
		metrics:     metrics,
	}
}

func (t *PointOctree[T]) Name() string {
	return t.name
}

// Add adds obj at pos, growing the tree until pos fits. An error typed
// ErrTypeGrowthLimit is returned when it still does not fit after
// MaxGrowAttempts doublings, in which case the tree is left unchanged.
func (t *PointOctree[T]) Add(obj T, pos geom.Vector3) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	oldRoot := t.root
	grows := 0
	for !t.root.Add(obj, pos) {
		if grows == MaxGrowAttempts {
			t.root = oldRoot

			err := errors.New("adding element failed: growth limit reached").
				WithType(ErrTypeGrowthLimit).
				WithTag("index", t.name).
				WithTag("attempts", grows).
				WithTag("position", pos)
			t.metrics.instrumentAddError(err)
			return err
		}
		t.grow(geom.Sub(pos, t.root.center))
		grows++
	}

	t.metrics.instrumentGrows(grows)
	t.count++
	t.ids.register(obj)
	t.metrics.instrumentElements(t.count)
	return nil
}

// Remove removes obj, scanning the whole tree.
func (t *PointOctree[T]) Remove(obj T) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.root.Remove(obj) {
		return false
	}
	t.removed(obj)
	return true
}

// RemoveAt removes obj that was added at pos.
func (t *PointOctree[T]) RemoveAt(obj T, pos geom.Vector3) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.root.RemoveAt(obj, pos) {
		return false
	}
	t.removed(obj)
	return true
}

// GetNearbyRay returns the elements within maxDistance of the ray.
func (t *PointOctree[T]) GetNearbyRay(r geom.Ray, maxDistance float32) []T {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	var result []T
	t.root.GetNearbyRay(r, maxDistance, &result)
	return result
}

// GetNearby returns the elements within maxDistance of position.
func (t *PointOctree[T]) GetNearby(position geom.Vector3, maxDistance float32) []T {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	var result []T
	t.root.GetNearby(position, maxDistance, &result)
	return result
}

// GetNearbyRayNonAlloc replaces the content of result with the elements
// within maxDistance of the ray and reports whether there was any.
func (t *PointOctree[T]) GetNearbyRayNonAlloc(r geom.Ray, maxDistance float32, result *[]T) bool {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	*result = (*result)[:0]
	t.root.GetNearbyRay(r, maxDistance, result)
	return len(*result) > 0
}

// GetNearbyNonAlloc replaces the content of result with the elements within
// maxDistance of position and reports whether there was any.
func (t *PointOctree[T]) GetNearbyNonAlloc(position geom.Vector3, maxDistance float32, result *[]T) bool {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	*result = (*result)[:0]
	t.root.GetNearby(position, maxDistance, result)
	return len(*result) > 0
}

// GetAll returns every element in no particular order.
func (t *PointOctree[T]) GetAll() []T {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	result := make([]T, 0, t.count)
	t.root.GetAll(&result)
	return result
}

// GetAllNonAlloc replaces the content of result with every element and
// reports whether there was any.
func (t *PointOctree[T]) GetAllNonAlloc(result *[]T) bool {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	*result = (*result)[:0]
	t.root.GetAll(result)
	return len(*result) > 0
}

// ContainsID reports whether a stored element registered id.
func (t *PointOctree[T]) ContainsID(id int64) bool {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	return t.ids.contains(id)
}

// MaxBounds returns the bounds of the root.
func (t *PointOctree[T]) MaxBounds() geom.Bounds {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	return t.root.bounds
}

func (t *PointOctree[T]) Count() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	return t.count
}

// Walk visits the nodes depth first. fn runs with the tree read locked and
// must not modify it.
func (t *PointOctree[T]) Walk(fn WalkFunc) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	t.root.Walk(fn)
}

func (t *PointOctree[T]) Stats() Stats {
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

func (t *PointOctree[T]) removed(obj T) {
	t.count--
	t.ids.unregister(obj)
	t.shrink()
	t.metrics.instrumentElements(t.count)
}

func (t *PointOctree[T]) grow(direction geom.Vector3) {
	oldRoot := t.root
	half := oldRoot.sideLength / 2
	newCenter := geom.Add(oldRoot.center, geom.Mul(growthDirection(direction), half))
	t.root = newPointNode[T](oldRoot.sideLength*2, t.minSize, newCenter, t.metrics)

	if !oldRoot.HasAnyObjects() {
		return
	}

	rootPos := t.root.BestFitChild(oldRoot.center)
	children := make([]*PointNode[T], 8)
	for i, c := range childCenters(newCenter, t.root.sideLength) {
		if i == rootPos {
			children[i] = oldRoot
			continue
		}
		children[i] = newPointNode[T](oldRoot.sideLength, t.minSize, c, t.metrics)
	}

	// Always 8 non-nil children.
	_ = t.root.SetChildren(children)
}

func (t *PointOctree[T]) shrink() {
	for {
		prev, prevLength := t.root, t.root.sideLength

		t.root = t.root.ShrinkIfPossible(t.initialSize)
		if t.root == prev && t.root.sideLength == prevLength {
			return
		}
		t.metrics.instrumentShrink()
	}
}
