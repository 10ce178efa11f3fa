package geom

import (
	"testing"

	"github.com/aukilabs/hagall-common/messages/dagazpb"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

func TestRay(t *testing.T) {
	r := NewRay(Vector3{0, 0, 0}, Vector3{0, 0, 10})
	require.Equal(t, Vector3{0, 0, 1}, r.Direction)
	require.Equal(t, Vector3{0, 0, 3}, r.GetPoint(3))

	require.Equal(t, float32(4), r.SqrDistanceToPoint(Vector3{2, 0, 5}))
	require.Equal(t, float32(0), r.SqrDistanceToPoint(Vector3{0, 0, 7}))
	require.Equal(t, float32(25), r.SqrDistanceToPoint(Vector3{0, 0, -5}))
}

func TestPlane(t *testing.T) {
	p := NewPlane(Vector3{0, 2, 0}, Vector3{0, 1, 0})
	require.Equal(t, Vector3{0, 1, 0}, p.Normal)
	require.Equal(t, float32(-1), p.Distance)

	require.Equal(t, float32(2), p.GetDistanceToPoint(Vector3{5, 3, 5}))
	require.Equal(t, float32(-1), p.GetDistanceToPoint(Vector3{0, 0, 0}))
}

func TestMatrix4Mul(t *testing.T) {
	m := OrthographicMatrix4(-1, 1, -1, 1, 1, 10)
	require.Equal(t, m, m.Mul(IdentityMatrix4()))
	require.Equal(t, m, IdentityMatrix4().Mul(m))
}

func TestFrustumPlanes(t *testing.T) {
	t.Run("orthographic", func(t *testing.T) {
		planes := FrustumPlanes(OrthographicMatrix4(-10, 10, -10, 10, 1, 100))

		require.True(t, TestPlanesAABB(planes[:], NewCube(Vector3{0, 0, -50}, 2)))
		require.True(t, TestPlanesAABB(planes[:], NewCube(Vector3{10, 0, -50}, 2)))
		require.False(t, TestPlanesAABB(planes[:], NewCube(Vector3{0, 0, 50}, 2)))
		require.False(t, TestPlanesAABB(planes[:], NewCube(Vector3{20, 0, -50}, 2)))
		require.False(t, TestPlanesAABB(planes[:], NewCube(Vector3{0, 0, -200}, 2)))

		for _, p := range planes {
			require.InDelta(t, 1, p.Normal.Length(), 0.0001)
		}
	})

	t.Run("perspective", func(t *testing.T) {
		planes := FrustumPlanes(PerspectiveMatrix4(90, 1, 0.5, 100))

		require.True(t, TestPlanesAABB(planes[:], NewCube(Vector3{0, 0, -10}, 1)))
		require.True(t, TestPlanesAABB(planes[:], NewCube(Vector3{9, 0, -10}, 1)))
		require.False(t, TestPlanesAABB(planes[:], NewCube(Vector3{15, 0, -10}, 1)))
		require.False(t, TestPlanesAABB(planes[:], NewCube(Vector3{0, 0, 10}, 1)))
	})
}

func TestTestPlanesAABB(t *testing.T) {
	planes := []Plane{
		{Normal: Vector3{0, 0, 1}, Distance: -5},
		{Normal: Vector3{0, 0, -1}, Distance: 20},
		{Normal: Vector3{1, 0, 0}, Distance: 10},
		{Normal: Vector3{-1, 0, 0}, Distance: 10},
		{Normal: Vector3{0, 1, 0}, Distance: 10},
		{Normal: Vector3{0, -1, 0}, Distance: 10},
	}

	require.True(t, TestPlanesAABB(planes, NewCube(Vector3{0, 0, 10}, 2)))
	require.False(t, TestPlanesAABB(planes, NewCube(Vector3{0, 0, -10}, 2)))
	require.True(t, TestPlanesAABB(planes, NewCube(Vector3{0, 0, 4.5}, 2)))
}

func TestProtobuf(t *testing.T) {
	t.Run("vector", func(t *testing.T) {
		v := Vector3{1, 2, 3}
		p := v.ToProtobuf()
		require.True(t, proto.Equal(&dagazpb.Point{X: 1, Y: 2, Z: 3}, p))
		require.Equal(t, v, NewVector3FromProtobuf(p))
		require.Equal(t, Vector3{}, NewVector3FromProtobuf(nil))
	})

	t.Run("bounds", func(t *testing.T) {
		b := NewCube(Vector3{1, 1, 1}, 4)
		require.Equal(t, b, NewBoundsFromProtobuf(b.ToProtobuf()))
	})

	t.Run("ray", func(t *testing.T) {
		r, length := NewRayFromProtobuf(&dagazpb.Ray{
			From: &dagazpb.Point{X: 0, Y: 10, Z: 0},
			To:   &dagazpb.Point{X: 0, Y: -10, Z: 0},
		})
		require.Equal(t, Vector3{0, 10, 0}, r.Origin)
		require.Equal(t, Vector3{0, -1, 0}, r.Direction)
		require.Equal(t, float32(20), length)
	})
}
