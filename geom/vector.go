package geom

import (
	"math"
)

func EqualWithEpsilon(a float32, b float32, epsilon float64) bool {
	return math.Abs((float64)(a-b)) <= epsilon
}

func Clamp(value, min, max float32) float32 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

type Vector3 struct {
	X float32
	Y float32
	Z float32
}

func NewVector3(x, y, z float32) Vector3 {
	return Vector3{x, y, z}
}

// Splat returns a vector with all three components set to v.
func Splat(v float32) Vector3 {
	return Vector3{v, v, v}
}

func (v1 Vector3) EqualWithEpsilon(v2 Vector3, epsilon float64) bool {
	return EqualWithEpsilon(v1.X, v2.X, epsilon) &&
		EqualWithEpsilon(v1.Y, v2.Y, epsilon) &&
		EqualWithEpsilon(v1.Z, v2.Z, epsilon)
}

func (v1 Vector3) Equal(v2 Vector3) bool {
	return v1.X == v2.X && v1.Y == v2.Y && v1.Z == v2.Z
}

func (v1 Vector3) GreaterOrEqualThan(v2 Vector3) bool {
	return v1.X >= v2.X && v1.Y >= v2.Y && v1.Z >= v2.Z
}

func (v1 Vector3) LesserOrEqualThan(v2 Vector3) bool {
	return v1.X <= v2.X && v1.Y <= v2.Y && v1.Z <= v2.Z
}

func (v1 *Vector3) Add(v2 Vector3) {
	v1.X += v2.X
	v1.Y += v2.Y
	v1.Z += v2.Z
}

func Add(a Vector3, b Vector3) Vector3 {
	return Vector3{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

func Sub(a Vector3, b Vector3) Vector3 {
	return Vector3{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

func Mul(a Vector3, s float32) Vector3 {
	return Vector3{a.X * s, a.Y * s, a.Z * s}
}

// Scale multiplies a and b component-wise.
func Scale(a Vector3, b Vector3) Vector3 {
	return Vector3{a.X * b.X, a.Y * b.Y, a.Z * b.Z}
}

func Min(a Vector3, b Vector3) Vector3 {
	return Vector3{
		(float32)(math.Min((float64)(a.X), (float64)(b.X))),
		(float32)(math.Min((float64)(a.Y), (float64)(b.Y))),
		(float32)(math.Min((float64)(a.Z), (float64)(b.Z))),
	}
}

func Max(a Vector3, b Vector3) Vector3 {
	return Vector3{
		(float32)(math.Max((float64)(a.X), (float64)(b.X))),
		(float32)(math.Max((float64)(a.Y), (float64)(b.Y))),
		(float32)(math.Max((float64)(a.Z), (float64)(b.Z))),
	}
}

func (a Vector3) Length() float64 {
	return math.Sqrt((float64)(a.SqrLength()))
}

// SqrLength avoids the square root when only comparisons are needed.
func (a Vector3) SqrLength() float32 {
	return a.X*a.X + a.Y*a.Y + a.Z*a.Z
}

func (a *Vector3) NormalizeInPlace() {
	length := (float32)(a.Length())
	if length != 0 {
		a.X /= length
		a.Y /= length
		a.Z /= length
	}
}

func Normalized(a Vector3) Vector3 {
	result := a
	result.NormalizeInPlace()
	return result
}

func (a Vector3) Dot(b Vector3) float32 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

func Cross(a Vector3, b Vector3) Vector3 {
	return Vector3{a.Y*b.Z - a.Z*b.Y, a.Z*b.X - a.X*b.Z, a.X*b.Y - a.Y*b.X}
}

func SqrDistance(a Vector3, b Vector3) float32 {
	return Sub(a, b).SqrLength()
}
