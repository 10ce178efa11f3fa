package geom

import (
	"math"
)

// Plane is the set of points p where Normal.Dot(p) + Distance == 0. Points on
// the side the normal faces have a positive distance.
type Plane struct {
	Normal   Vector3
	Distance float32
}

// NewPlane builds a plane with the given normal passing through point.
func NewPlane(normal Vector3, point Vector3) Plane {
	n := Normalized(normal)
	return Plane{
		Normal:   n,
		Distance: -n.Dot(point),
	}
}

func (p Plane) GetDistanceToPoint(point Vector3) float32 {
	return p.Normal.Dot(point) + p.Distance
}

func (p Plane) normalized() Plane {
	length := (float32)(p.Normal.Length())
	if length == 0 {
		return p
	}
	return Plane{
		Normal:   Mul(p.Normal, 1/length),
		Distance: p.Distance / length,
	}
}

// Matrix4 is a row-major 4x4 matrix. Vectors are columns: clip = M * world.
type Matrix4 [4][4]float32

func IdentityMatrix4() Matrix4 {
	return Matrix4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Mul returns m * o.
func (m Matrix4) Mul(o Matrix4) Matrix4 {
	var res Matrix4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			for k := 0; k < 4; k++ {
				res[i][j] += m[i][k] * o[k][j]
			}
		}
	}
	return res
}

// OrthographicMatrix4 returns an OpenGL style orthographic projection.
func OrthographicMatrix4(left, right, bottom, top, near, far float32) Matrix4 {
	return Matrix4{
		{2 / (right - left), 0, 0, -(right + left) / (right - left)},
		{0, 2 / (top - bottom), 0, -(top + bottom) / (top - bottom)},
		{0, 0, -2 / (far - near), -(far + near) / (far - near)},
		{0, 0, 0, 1},
	}
}

// PerspectiveMatrix4 returns an OpenGL style perspective projection looking
// down -Z. fovY is in degrees.
func PerspectiveMatrix4(fovY, aspect, near, far float32) Matrix4 {
	f := (float32)(1 / math.Tan((float64)(fovY)*math.Pi/360))
	return Matrix4{
		{f / aspect, 0, 0, 0},
		{0, f, 0, 0},
		{0, 0, (far + near) / (near - far), 2 * far * near / (near - far)},
		{0, 0, -1, 0},
	}
}

// FrustumPlanes extracts the six planes of the frustum described by a
// view-projection matrix, in the order left, right, bottom, top, near, far.
// Normals point inside the frustum.
func FrustumPlanes(m Matrix4) [6]Plane {
	row := func(i int) (float32, float32, float32, float32) {
		return m[i][0], m[i][1], m[i][2], m[i][3]
	}
	x0, x1, x2, x3 := row(0)
	y0, y1, y2, y3 := row(1)
	z0, z1, z2, z3 := row(2)
	w0, w1, w2, w3 := row(3)

	planes := [6]Plane{
		{Normal: Vector3{w0 + x0, w1 + x1, w2 + x2}, Distance: w3 + x3},
		{Normal: Vector3{w0 - x0, w1 - x1, w2 - x2}, Distance: w3 - x3},
		{Normal: Vector3{w0 + y0, w1 + y1, w2 + y2}, Distance: w3 + y3},
		{Normal: Vector3{w0 - y0, w1 - y1, w2 - y2}, Distance: w3 - y3},
		{Normal: Vector3{w0 + z0, w1 + z1, w2 + z2}, Distance: w3 + z3},
		{Normal: Vector3{w0 - z0, w1 - z1, w2 - z2}, Distance: w3 - z3},
	}

	for i := range planes {
		planes[i] = planes[i].normalized()
	}
	return planes
}

// TestPlanesAABB reports whether b is inside or intersecting the volume
// enclosed by planes. A box is rejected only when it lies entirely behind at
// least one plane.
func TestPlanesAABB(planes []Plane, b Bounds) bool {
	min := b.Min()
	max := b.Max()

	for _, plane := range planes {
		// positive vertex: the corner furthest along the normal.
		p := min
		if plane.Normal.X >= 0 {
			p.X = max.X
		}
		if plane.Normal.Y >= 0 {
			p.Y = max.Y
		}
		if plane.Normal.Z >= 0 {
			p.Z = max.Z
		}

		if plane.GetDistanceToPoint(p) < 0 {
			return false
		}
	}
	return true
}
