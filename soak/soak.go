// Package soak drives a bounds octree and a point octree with randomized
// workloads and checks after every operation that the trees still answer
// queries consistently with what was added and removed.
package soak

import (
	"context"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/hagall-common/messages/dagazpb"
	"github.com/aukilabs/octree/featureflag"
	"github.com/aukilabs/octree/geom"
	"github.com/aukilabs/octree/octree"
	"github.com/google/uuid"
)

const (
	// Returned when a tree answers differently from the reference set of
	// stored elements.
	ErrTypeSoakMismatch = "soak_mismatch"

	oscillationProbeCycles = 16
	nearbyTolerance        = 0.01
)

type Options struct {
	// The number of elements added to each index per round.
	Elements int

	// The edge of the cube, centered on the origin, elements are spread over.
	WorldSize float32

	// The maximum edge of a bounds element.
	ElementSize float32

	InitialSize float32
	MinSize     float32
	Looseness   float32
	Seed        int64

	// The duration between rounds started by Start.
	Interval time.Duration

	// The duration between each summary log.
	SummaryInterval time.Duration

	Flags featureflag.FeatureFlag
}

// Stats is a snapshot of a runner.
type Stats struct {
	Rounds      int           `json:"rounds"`
	Mismatches  int           `json:"mismatches"`
	Added       int           `json:"added"`
	Removed     int           `json:"removed"`
	Transitions int           `json:"oscillation_transitions"`
	LastRound   time.Duration `json:"last_round"`
	LastError   string        `json:"last_error,omitempty"`
	Flags       []string      `json:"flags"`
	Bounds      octree.Stats  `json:"bounds"`
	Points      octree.Stats  `json:"points"`
}

// Runner runs soak rounds against one bounds index and one point index. The
// indexes live as long as the runner.
type Runner struct {
	opts     Options
	workload workload
	bounds   *octree.BoundsOctree[uuid.UUID]
	points   *octree.PointOctree[Element]

	roundMutex   sync.Mutex
	round        int64
	seq          int64
	storedBounds map[uuid.UUID]geom.Bounds
	storedPoints map[Element]geom.Vector3
	uuids        []uuid.UUID
	elements     []Element

	statsMutex sync.Mutex
	stats      Stats
	counter    map[string]int
}

func NewRunner(opts Options) *Runner {
	if opts.Flags == nil {
		opts.Flags = featureflag.New(nil)
	}
	if opts.ElementSize <= 0 {
		opts.ElementSize = 1
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.SummaryInterval <= 0 {
		opts.SummaryInterval = time.Minute
	}

	return &Runner{
		opts: opts,
		workload: workload{
			rng:         rand.New(rand.NewSource(opts.Seed)),
			worldSize:   opts.WorldSize,
			elementSize: opts.ElementSize,
		},
		bounds: octree.NewBoundsOctree[uuid.UUID](
			opts.InitialSize,
			geom.Vector3{},
			opts.MinSize,
			opts.Looseness,
			octree.WithName("soak_bounds"),
		),
		points: octree.NewPointOctree[Element](
			opts.InitialSize,
			geom.Vector3{},
			opts.MinSize,
			octree.WithName("soak_points"),
		),
		storedBounds: make(map[uuid.UUID]geom.Bounds),
		storedPoints: make(map[Element]geom.Vector3),
		stats: Stats{
			Flags: opts.Flags.Strings(),
		},
		counter: make(map[string]int),
	}
}

// Start runs rounds every interval until ctx is done, logging a summary of
// the activity every summary interval.
func (r *Runner) Start(ctx context.Context) {
	ticker := time.NewTicker(r.opts.Interval)
	defer ticker.Stop()

	summaryTicker := time.NewTicker(r.opts.SummaryInterval)
	defer summaryTicker.Stop()
	defer r.logSummary()

	for {
		if err := r.RunRound(ctx); err != nil && ctx.Err() == nil {
			logs.Warn(errors.New("soak round failed").Wrap(err))
		}

		select {
		case <-ctx.Done():
			return

		case <-summaryTicker.C:
			r.logSummary()

		case <-ticker.C:
		}
	}
}

// RunRound runs every stage not disabled by a feature flag and returns the
// first mismatch found.
func (r *Runner) RunRound(ctx context.Context) error {
	r.roundMutex.Lock()
	defer r.roundMutex.Unlock()

	start := time.Now()
	r.round++

	var stages []func(context.Context) error
	r.opts.Flags.IfNotSet(featureflag.FlagDisableBoundsIndex, func() {
		stages = append(stages, r.runBoundsStage)
	})
	r.opts.Flags.IfNotSet(featureflag.FlagDisablePointIndex, func() {
		stages = append(stages, r.runPointStage)
	})
	r.opts.Flags.IfNotSet(featureflag.FlagDisableOscillationProbe, func() {
		stages = append(stages, r.runOscillationProbe)
	})
	r.opts.Flags.IfNotSet(featureflag.FlagDisableDrain, func() {
		stages = append(stages, r.runDrainStage)
	})

	var firstErr error
	for _, stage := range stages {
		if err := stage(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		if ctx.Err() != nil {
			break
		}
	}

	instrumentRound()
	r.statsMutex.Lock()
	r.stats.Rounds++
	r.stats.LastRound = time.Since(start)
	r.counter["rounds"]++
	r.statsMutex.Unlock()

	logs.WithTag("round", r.round).
		WithTag("duration", time.Since(start)).
		WithTag("bounds_count", r.bounds.Count()).
		WithTag("points_count", r.points.Count()).
		Debug("soak round done")
	return firstErr
}

// Stats returns a snapshot of the runner and the shape of its indexes.
func (r *Runner) Stats() Stats {
	r.statsMutex.Lock()
	stats := r.stats
	stats.Flags = slices.Clone(r.stats.Flags)
	r.statsMutex.Unlock()

	stats.Bounds = r.bounds.Stats()
	stats.Points = r.points.Stats()
	return stats
}

func (r *Runner) runBoundsStage(ctx context.Context) error {
	defer instrumentStage("bounds", time.Now())

	added := make([]uuid.UUID, 0, r.opts.Elements)
	for i := 0; i < r.opts.Elements; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		quad := r.workload.quad()
		bounds := geom.NewBoundsFromProtobuf(quad)
		id := uuid.New()

		if err := r.bounds.Add(id, bounds); err != nil {
			return r.fail("bounds_add", err)
		}
		r.storedBounds[id] = bounds
		added = append(added, id)
		r.added("bounds_added")

		if err := r.checkBoundsQueries(id, quad); err != nil {
			return err
		}
	}

	for i, id := range added[:len(added)/2] {
		bounds := r.storedBounds[id]

		var removed bool
		if i%2 == 0 {
			removed = r.bounds.Remove(id)
		} else {
			removed = r.bounds.RemoveAt(id, bounds)
		}
		if !removed {
			return r.fail("bounds_remove", errors.New("stored element not removed").
				WithType(ErrTypeSoakMismatch).
				WithTag("element", id))
		}
		delete(r.storedBounds, id)
		r.removed("bounds_removed")

		if r.bounds.Remove(id) {
			return r.fail("bounds_remove_twice", errors.New("removed element removed again").
				WithType(ErrTypeSoakMismatch).
				WithTag("element", id))
		}

		r.uuids = r.uuids[:0]
		r.bounds.GetColliding(bounds, &r.uuids)
		if slices.Contains(r.uuids, id) {
			return r.fail("bounds_removed_query", errors.New("removed element still returned").
				WithType(ErrTypeSoakMismatch).
				WithTag("element", id))
		}
	}

	return r.checkCount("bounds_count", r.bounds.Count(), len(r.storedBounds))
}

func (r *Runner) checkBoundsQueries(id uuid.UUID, quad *dagazpb.Quad) error {
	bounds := geom.NewBoundsFromProtobuf(quad)

	if !r.bounds.IsColliding(bounds) {
		return r.fail("bounds_is_colliding", errors.New("added element not colliding").
			WithType(ErrTypeSoakMismatch).
			WithTag("element", id))
	}

	r.uuids = r.uuids[:0]
	r.bounds.GetColliding(bounds, &r.uuids)
	if !slices.Contains(r.uuids, id) {
		return r.fail("bounds_colliding", errors.New("added element not returned").
			WithType(ErrTypeSoakMismatch).
			WithTag("element", id))
	}

	ray, length := geom.NewRayFromProtobuf(r.workload.rayTo(quad.Center))
	if !r.bounds.IsCollidingRay(ray, length) {
		return r.fail("bounds_is_colliding_ray", errors.New("added element not hit by ray").
			WithType(ErrTypeSoakMismatch).
			WithTag("element", id))
	}

	r.uuids = r.uuids[:0]
	r.bounds.GetCollidingRay(ray, length, &r.uuids)
	if !slices.Contains(r.uuids, id) {
		return r.fail("bounds_colliding_ray", errors.New("added element not returned by ray").
			WithType(ErrTypeSoakMismatch).
			WithTag("element", id))
	}

	planes := frustumAround(bounds, r.opts.ElementSize)
	r.uuids = r.uuids[:0]
	r.bounds.GetWithinFrustum(planes[:], &r.uuids)
	if !slices.Contains(r.uuids, id) {
		return r.fail("bounds_frustum", errors.New("added element not within frustum").
			WithType(ErrTypeSoakMismatch).
			WithTag("element", id))
	}
	return nil
}

func (r *Runner) runPointStage(ctx context.Context) error {
	defer instrumentStage("points", time.Now())

	added := make([]Element, 0, r.opts.Elements)
	for i := 0; i < r.opts.Elements; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		point := r.workload.position()
		pos := geom.NewVector3FromProtobuf(point)
		r.seq++
		e := Element{
			ID:    uuid.New(),
			Seq:   r.seq,
			Group: groupIDOffset + r.round,
		}

		if err := r.points.Add(e, pos); err != nil {
			return r.fail("points_add", err)
		}
		r.storedPoints[e] = pos
		added = append(added, e)
		r.added("points_added")

		if err := r.checkPointQueries(e, point); err != nil {
			return err
		}
	}

	for i, e := range added[:len(added)/2] {
		var removed bool
		if i%2 == 0 {
			removed = r.points.Remove(e)
		} else {
			removed = r.points.RemoveAt(e, r.storedPoints[e])
		}
		if !removed {
			return r.fail("points_remove", errors.New("stored element not removed").
				WithType(ErrTypeSoakMismatch).
				WithTag("element", e.ID))
		}
		delete(r.storedPoints, e)
		r.removed("points_removed")

		if r.points.ContainsID(e.Seq) {
			return r.fail("points_contains_id", errors.New("removed element id still registered").
				WithType(ErrTypeSoakMismatch).
				WithTag("element", e.ID))
		}
	}

	if len(added) > 1 && !r.points.ContainsID(groupIDOffset+r.round) {
		return r.fail("points_group_id", errors.New("group id of stored elements not registered").
			WithType(ErrTypeSoakMismatch).
			WithTag("round", r.round))
	}
	return r.checkCount("points_count", r.points.Count(), len(r.storedPoints))
}

func (r *Runner) checkPointQueries(e Element, point *dagazpb.Point) error {
	pos := geom.NewVector3FromProtobuf(point)

	if !slices.Contains(r.points.GetNearby(pos, nearbyTolerance), e) {
		return r.fail("points_nearby", errors.New("added element not nearby its position").
			WithType(ErrTypeSoakMismatch).
			WithTag("element", e.ID))
	}

	ray, _ := geom.NewRayFromProtobuf(r.workload.rayTo(point))
	if !r.points.GetNearbyRayNonAlloc(ray, nearbyTolerance, &r.elements) || !slices.Contains(r.elements, e) {
		return r.fail("points_nearby_ray", errors.New("added element not nearby a ray crossing it").
			WithType(ErrTypeSoakMismatch).
			WithTag("element", e.ID))
	}

	if !r.points.ContainsID(e.Seq) || !r.points.ContainsID(e.Group) {
		return r.fail("points_contains_id", errors.New("added element ids not registered").
			WithType(ErrTypeSoakMismatch).
			WithTag("element", e.ID))
	}
	return nil
}

// runOscillationProbe fills a node to the split threshold and repeatedly adds
// and removes one more element, counting the split then merge transitions.
func (r *Runner) runOscillationProbe(ctx context.Context) error {
	defer instrumentStage("oscillation_probe", time.Now())

	size := r.opts.InitialSize
	probe := octree.NewBoundsOctree[int](size, geom.Vector3{}, r.opts.MinSize, r.opts.Looseness,
		octree.WithName("soak_oscillation_probe"))

	elementSize := geom.Splat(size / 16)
	for i, c := range corners(size) {
		if err := probe.Add(i, geom.NewBounds(c, elementSize)); err != nil {
			return r.fail("probe_add", err)
		}
	}

	extra := octree.NumObjectsAllowed
	extraBounds := geom.NewBounds(geom.Splat(size/8), elementSize)
	transitions := 0

	for i := 0; i < oscillationProbeCycles; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := probe.Add(extra, extraBounds); err != nil {
			return r.fail("probe_add", err)
		}
		split := probe.Stats().Nodes > 1

		if !probe.Remove(extra) {
			return r.fail("probe_remove", errors.New("probe element not removed").
				WithType(ErrTypeSoakMismatch))
		}
		merged := probe.Stats().Nodes == 1

		if split && !merged {
			return r.fail("probe_merge", errors.New("node not merged back under the split threshold").
				WithType(ErrTypeSoakMismatch).
				WithTag("cycle", i))
		}
		if split {
			transitions++
		}
	}

	instrumentOscillations(transitions)
	r.statsMutex.Lock()
	r.stats.Transitions += transitions
	r.counter["oscillation_transitions"] += transitions
	r.statsMutex.Unlock()

	return r.checkCount("probe_count", probe.Count(), len(corners(size)))
}

func (r *Runner) runDrainStage(ctx context.Context) error {
	defer instrumentStage("drain", time.Now())

	for id, bounds := range r.storedBounds {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !r.bounds.RemoveAt(id, bounds) {
			return r.fail("drain_bounds", errors.New("stored element not removed").
				WithType(ErrTypeSoakMismatch).
				WithTag("element", id))
		}
		delete(r.storedBounds, id)
		r.removed("bounds_removed")
	}

	for e := range r.storedPoints {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !r.points.Remove(e) {
			return r.fail("drain_points", errors.New("stored element not removed").
				WithType(ErrTypeSoakMismatch).
				WithTag("element", e.ID))
		}
		delete(r.storedPoints, e)
		r.removed("points_removed")
	}

	if err := r.checkCount("drain_bounds_count", r.bounds.Count(), 0); err != nil {
		return err
	}
	if err := r.checkCount("drain_points_count", r.points.Count(), 0); err != nil {
		return err
	}
	if len(r.points.GetAll()) != 0 {
		return r.fail("drain_points_all", errors.New("drained index still returns elements").
			WithType(ErrTypeSoakMismatch))
	}
	if r.points.ContainsID(groupIDOffset + r.round) {
		return r.fail("drain_points_group_id", errors.New("drained index still registers ids").
			WithType(ErrTypeSoakMismatch).
			WithTag("round", r.round))
	}

	if size := r.bounds.MaxBounds().Size().X; size < r.opts.InitialSize {
		return r.fail("drain_shrink_floor", errors.New("index shrunk under its initial size").
			WithType(ErrTypeSoakMismatch).
			WithTag("size", size).
			WithTag("initial_size", r.opts.InitialSize))
	}
	return nil
}

func (r *Runner) checkCount(check string, count, expected int) error {
	if count == expected {
		return nil
	}

	return r.fail(check, errors.New("unexpected element count").WithType(ErrTypeSoakMismatch).
		WithTag("count", count).
		WithTag("expected", expected))
}

// fail records a failed check and returns err.
func (r *Runner) fail(check string, err error) error {
	instrumentMismatch(check, err)

	r.statsMutex.Lock()
	r.stats.Mismatches++
	r.stats.LastError = err.Error()
	r.counter["mismatches"]++
	r.statsMutex.Unlock()

	logs.WithTag("check", check).
		WithTag("round", r.round).
		Warn(err)
	return err
}

func (r *Runner) added(counter string) {
	r.statsMutex.Lock()
	defer r.statsMutex.Unlock()

	r.stats.Added++
	r.counter[counter]++
}

func (r *Runner) removed(counter string) {
	r.statsMutex.Lock()
	defer r.statsMutex.Unlock()

	r.stats.Removed++
	r.counter[counter]++
}

func (r *Runner) logSummary() {
	r.statsMutex.Lock()
	defer r.statsMutex.Unlock()

	if len(r.counter) == 0 {
		return
	}

	entry := logs.WithTag("time_interval", r.opts.SummaryInterval).
		WithTag("bounds_count", r.bounds.Count()).
		WithTag("points_count", r.points.Count())

	for k, v := range r.counter {
		entry = entry.WithTag(k, v)
		delete(r.counter, k)
	}

	entry.Info("soak summary")
}
