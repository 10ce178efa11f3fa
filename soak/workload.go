package soak

import (
	"math/rand"

	"github.com/aukilabs/hagall-common/messages/dagazpb"
	"github.com/aukilabs/octree/geom"
	"github.com/google/uuid"
)

// groupIDOffset keeps group identifiers apart from element sequence numbers.
const groupIDOffset = int64(1) << 48

// Element is the payload stored in the point index. It registers its own
// sequence number and the identifier of the round that created it.
type Element struct {
	ID    uuid.UUID
	Seq   int64
	Group int64
}

func (e Element) OctreeIDs() []int64 {
	return []int64{e.Seq, e.Group}
}

// workload generates the geometry of a round the way a client would send it,
// as dagaz protobuf messages.
type workload struct {
	rng         *rand.Rand
	worldSize   float32
	elementSize float32
}

func (w workload) position() *dagazpb.Point {
	half := w.worldSize / 2
	return &dagazpb.Point{
		X: w.rng.Float32()*w.worldSize - half,
		Y: w.rng.Float32()*w.worldSize - half,
		Z: w.rng.Float32()*w.worldSize - half,
	}
}

func (w workload) quad() *dagazpb.Quad {
	extents := func() float32 {
		return (0.05 + w.rng.Float32()*0.95) * w.elementSize / 2
	}

	return &dagazpb.Quad{
		Center: w.position(),
		Extents: &dagazpb.Point{
			X: extents(),
			Y: extents(),
			Z: extents(),
		},
	}
}

func (w workload) direction() geom.Vector3 {
	for {
		d := geom.NewVector3(
			w.rng.Float32()*2-1,
			w.rng.Float32()*2-1,
			w.rng.Float32()*2-1,
		)
		if l := d.SqrLength(); l > 0.01 && l <= 1 {
			return geom.Normalized(d)
		}
	}
}

// rayTo returns a ray starting outside of the world and ending at target.
func (w workload) rayTo(target *dagazpb.Point) *dagazpb.Ray {
	to := geom.NewVector3FromProtobuf(target)
	from := geom.Add(to, geom.Mul(w.direction(), w.worldSize))

	return &dagazpb.Ray{
		From: from.ToProtobuf(),
		To:   target,
	}
}

// frustumAround returns orthographic frustum planes enclosing b with a margin.
func frustumAround(b geom.Bounds, margin float32) [6]geom.Plane {
	min := b.Min()
	max := b.Max()

	return geom.FrustumPlanes(geom.OrthographicMatrix4(
		min.X-margin, max.X+margin,
		min.Y-margin, max.Y+margin,
		-max.Z-margin, -min.Z+margin,
	))
}

// corners returns the 8 positions at a quarter of length from the origin on
// each axis.
func corners(length float32) []geom.Vector3 {
	q := length / 4
	positions := make([]geom.Vector3, 0, 8)
	for _, x := range []float32{-q, q} {
		for _, y := range []float32{-q, q} {
			for _, z := range []float32{-q, q} {
				positions = append(positions, geom.NewVector3(x, y, z))
			}
		}
	}
	return positions
}
