package geom

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEqualWithEpsilon(t *testing.T) {
	require.True(t, EqualWithEpsilon(0.1, 0.2, 0.11))
	require.False(t, EqualWithEpsilon(0.1, 0.3, 0.11))
}

func TestClamp(t *testing.T) {
	require.Equal(t, float32(1), Clamp(0.5, 1, 2))
	require.Equal(t, float32(2), Clamp(3, 1, 2))
	require.Equal(t, float32(1.5), Clamp(1.5, 1, 2))
}

func TestDot(t *testing.T) {
	xAxis := Vector3{1, 0, 0}
	yAxis := Vector3{0, 1, 0}

	require.Equal(t, (float32)(0), xAxis.Dot(yAxis))
	require.Equal(t, (float32)(1), xAxis.Dot(xAxis))
}

func TestCross(t *testing.T) {
	xAxis := Vector3{1, 0, 0}
	yAxis := Vector3{0, 1, 0}
	zAxis := Vector3{0, 0, 1}

	require.True(t, zAxis.Equal(Cross(xAxis, yAxis)))
}

func TestVectorClass(t *testing.T) {
	zeroVector := Vector3{0, 0, 0}
	oneVector := Splat(1)

	require.True(t, zeroVector.Equal(NewVector3(0, 0, 0)))
	require.True(t, oneVector.EqualWithEpsilon(Vector3{0.9, 1.1, 1}, 0.11))
	require.True(t, oneVector.GreaterOrEqualThan(zeroVector))
	require.True(t, zeroVector.LesserOrEqualThan(oneVector))

	require.True(t, oneVector.Equal(Add(zeroVector, oneVector)))
	require.True(t, oneVector.Equal(Sub(oneVector, zeroVector)))
	require.True(t, zeroVector.Equal(Mul(oneVector, 0)))
	require.True(t, Vector3{2, 6, 12}.Equal(Scale(Vector3{1, 2, 3}, Vector3{2, 3, 4})))

	require.Equal(t, Vector3{-1, 2, -3}, Min(Vector3{-1, 5, 0}, Vector3{4, 2, -3}))
	require.Equal(t, Vector3{4, 5, 0}, Max(Vector3{-1, 5, 0}, Vector3{4, 2, -3}))

	l1Vector := Vector3{1, 0, 0}
	require.True(t, 1 == l1Vector.Length())

	v := Vector3{3, 0, 4}
	require.Equal(t, float32(25), v.SqrLength())
	require.Equal(t, float32(25), SqrDistance(v, zeroVector))

	v.NormalizeInPlace()
	require.True(t, v.EqualWithEpsilon(Vector3{0.6, 0, 0.8}, 0.0001))
	require.True(t, zeroVector.Equal(Normalized(zeroVector)))

	v.Add(Vector3{1, 1, 1})
	require.True(t, v.EqualWithEpsilon(Vector3{1.6, 1, 1.8}, 0.0001))
}
