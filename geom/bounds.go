package geom

import (
	"math"
)

// Bounds is an axis-aligned box described by its center and half extents.
type Bounds struct {
	Center  Vector3
	Extents Vector3 // Half-Extents!
}

// NewBounds creates a box centered on center with the given full size.
func NewBounds(center Vector3, size Vector3) Bounds {
	return Bounds{
		Center:  center,
		Extents: Mul(size, 0.5),
	}
}

// NewCube creates a box centered on center whose edges all have the given
// length.
func NewCube(center Vector3, length float32) Bounds {
	return NewBounds(center, Splat(length))
}

func NewBoundsMinMax(min Vector3, max Vector3) Bounds {
	return Bounds{
		Center:  Mul(Add(min, max), 0.5),
		Extents: Mul(Sub(max, min), 0.5),
	}
}

func (b Bounds) Min() Vector3 {
	return Sub(b.Center, b.Extents)
}

func (b Bounds) Max() Vector3 {
	return Add(b.Center, b.Extents)
}

func (b Bounds) Size() Vector3 {
	return Mul(b.Extents, 2)
}

// Contains reports whether p lies inside the box, faces included.
func (b Bounds) Contains(p Vector3) bool {
	min := b.Min()
	max := b.Max()
	return p.GreaterOrEqualThan(min) && p.LesserOrEqualThan(max)
}

// Encapsulates reports whether inner is fully contained by b: both of its
// corners must be inside.
func (b Bounds) Encapsulates(inner Bounds) bool {
	return b.Contains(inner.Min()) && b.Contains(inner.Max())
}

// Intersects reports whether the two boxes overlap. Touching faces count as
// an intersection.
func (b Bounds) Intersects(other Bounds) bool {
	minA, maxA := b.Min(), b.Max()
	minB, maxB := other.Min(), other.Max()

	return minA.X <= maxB.X && maxA.X >= minB.X &&
		minA.Y <= maxB.Y && maxA.Y >= minB.Y &&
		minA.Z <= maxB.Z && maxA.Z >= minB.Z
}

// Expand grows the box by amount along each axis. The size grows by amount,
// so each face moves by half of it.
func (b Bounds) Expand(amount float32) Bounds {
	b.Extents = Add(b.Extents, Splat(amount*0.5))
	return b
}

// ClosestPoint returns the point of the box nearest to p. Points inside the box
// are returned unchanged.
func (b Bounds) ClosestPoint(p Vector3) Vector3 {
	min := b.Min()
	max := b.Max()
	return Vector3{
		Clamp(p.X, min.X, max.X),
		Clamp(p.Y, min.Y, max.Y),
		Clamp(p.Z, min.Z, max.Z),
	}
}

// SqrDistance returns the squared distance between p and the box. It is zero
// when p is inside.
func (b Bounds) SqrDistance(p Vector3) float32 {
	return SqrDistance(b.ClosestPoint(p), p)
}

// IntersectRay casts r against the box using the slab method. On a hit it
// returns the distance along the ray to the entry point, or 0 when the ray
// starts inside the box.
func (b Bounds) IntersectRay(r Ray) (bool, float32) {
	min := b.Min()
	max := b.Max()

	tMin := math.Inf(-1)
	tMax := math.Inf(1)

	origin := [3]float32{r.Origin.X, r.Origin.Y, r.Origin.Z}
	dir := [3]float32{r.Direction.X, r.Direction.Y, r.Direction.Z}
	lo := [3]float32{min.X, min.Y, min.Z}
	hi := [3]float32{max.X, max.Y, max.Z}

	for i := 0; i < 3; i++ {
		if dir[i] == 0 {
			// parallel to the slab, must already be between its planes:
			if origin[i] < lo[i] || origin[i] > hi[i] {
				return false, -1
			}
			continue
		}

		inv := 1 / (float64)(dir[i])
		t1 := (float64)(lo[i]-origin[i]) * inv
		t2 := (float64)(hi[i]-origin[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}

		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return false, -1
		}
	}

	if tMax < 0 {
		return false, -1
	}
	if tMin < 0 {
		return true, 0
	}
	return true, (float32)(tMin)
}
