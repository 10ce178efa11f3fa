package geom

import (
	"github.com/aukilabs/hagall-common/messages/dagazpb"
)

func NewVector3FromProtobuf(point *dagazpb.Point) Vector3 {
	if point == nil {
		return Vector3{}
	}

	return Vector3{
		X: point.X,
		Y: point.Y,
		Z: point.Z,
	}
}

func (v Vector3) ToProtobuf() *dagazpb.Point {
	return &dagazpb.Point{
		X: v.X,
		Y: v.Y,
		Z: v.Z,
	}
}

// NewBoundsFromProtobuf reads a quad as a box. Quads carry half extents, as
// Bounds does.
func NewBoundsFromProtobuf(protoQuad *dagazpb.Quad) Bounds {
	return Bounds{
		Center:  NewVector3FromProtobuf(protoQuad.Center),
		Extents: NewVector3FromProtobuf(protoQuad.Extents),
	}
}

func (b Bounds) ToProtobuf() *dagazpb.Quad {
	return &dagazpb.Quad{
		Center:  b.Center.ToProtobuf(),
		Extents: b.Extents.ToProtobuf(),
	}
}

// NewRayFromProtobuf turns a from/to segment into a ray and returns the
// segment length, usable as a maximum cast distance.
func NewRayFromProtobuf(protoRay *dagazpb.Ray) (Ray, float32) {
	from := NewVector3FromProtobuf(protoRay.From)
	to := NewVector3FromProtobuf(protoRay.To)
	dir := Sub(to, from)

	return NewRay(from, dir), (float32)(dir.Length())
}
