package octree

import (
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/octree/geom"
	"github.com/stretchr/testify/require"
)

func TestPointNodeAdd(t *testing.T) {
	t.Run("outside", func(t *testing.T) {
		n := NewPointNode[int](10, 1, geom.Vector3{})
		require.False(t, n.Add(1, geom.NewVector3(6, 0, 0)))
		require.False(t, n.HasAnyObjects())
	})

	t.Run("on the faces", func(t *testing.T) {
		n := NewPointNode[int](10, 1, geom.Vector3{})
		require.True(t, n.Add(1, geom.NewVector3(5, 5, 5)))
		require.True(t, n.Add(2, geom.NewVector3(-5, -5, -5)))
		require.Equal(t, 2, n.Len())
	})

	t.Run("split pushes every element down", func(t *testing.T) {
		n := NewPointNode[int](10, 1, geom.Vector3{})
		for i, c := range octantCorners(10) {
			require.True(t, n.Add(i, c))
		}
		require.False(t, n.HasChildren())

		require.True(t, n.Add(8, geom.Vector3{}))
		require.True(t, n.HasChildren())
		require.Zero(t, n.Len())
		require.Equal(t, 2, n.Children()[0].Len())

		for _, child := range n.Children() {
			require.Equal(t, float32(5), child.SideLength())
		}
	})

	t.Run("no split under min size", func(t *testing.T) {
		n := NewPointNode[int](1, 1, geom.Vector3{})
		for i := 0; i < 20; i++ {
			require.True(t, n.Add(i, geom.Vector3{}))
		}
		require.False(t, n.HasChildren())
		require.Equal(t, 20, n.Len())
	})
}

func TestPointNodeRemove(t *testing.T) {
	newSplitNode := func() *PointNode[int] {
		n := NewPointNode[int](10, 1, geom.Vector3{})
		for i, c := range octantCorners(10) {
			n.Add(i, c)
		}
		n.Add(8, geom.NewVector3(1, 1, 1))
		return n
	}

	t.Run("merge after remove", func(t *testing.T) {
		n := newSplitNode()
		require.True(t, n.Remove(8))
		require.False(t, n.HasChildren())
		require.Equal(t, NumObjectsAllowed, n.Len())
		require.False(t, n.Remove(8))
	})

	t.Run("remove at", func(t *testing.T) {
		n := newSplitNode()
		require.False(t, n.RemoveAt(8, geom.NewVector3(-1, -1, -1)))
		require.False(t, n.RemoveAt(8, geom.NewVector3(50, 0, 0)))
		require.True(t, n.HasChildren())

		require.True(t, n.RemoveAt(8, geom.NewVector3(1, 1, 1)))
		require.False(t, n.HasChildren())
	})
}

func TestPointNodeQueries(t *testing.T) {
	n := NewPointNode[string](100, 1, geom.Vector3{})
	n.Add("a", geom.NewVector3(0, 0, 10))
	n.Add("b", geom.NewVector3(3, 0, 20))
	n.Add("c", geom.NewVector3(0, 0, -10))
	n.Add("d", geom.NewVector3(30, 30, 30))

	t.Run("nearby position", func(t *testing.T) {
		var result []string
		n.GetNearby(geom.NewVector3(0, 0, 12), 5, &result)
		require.Equal(t, []string{"a"}, result)

		result = nil
		n.GetNearby(geom.Vector3{}, 10, &result)
		require.ElementsMatch(t, []string{"a", "c"}, result)

		result = nil
		n.GetNearby(geom.NewVector3(200, 0, 0), 10, &result)
		require.Empty(t, result)
	})

	t.Run("nearby ray", func(t *testing.T) {
		r := geom.NewRay(geom.Vector3{}, geom.NewVector3(0, 0, 1))

		var result []string
		n.GetNearbyRay(r, 1, &result)
		require.Equal(t, []string{"a"}, result)

		result = nil
		n.GetNearbyRay(r, 4, &result)
		require.ElementsMatch(t, []string{"a", "b"}, result)

		result = nil
		n.GetNearbyRay(r, MaxDistance, &result)
		require.Len(t, result, 4)
	})

	t.Run("all", func(t *testing.T) {
		var result []string
		n.GetAll(&result)
		require.ElementsMatch(t, []string{"a", "b", "c", "d"}, result)
	})
}

func TestPointNodeSetChildren(t *testing.T) {
	n := NewPointNode[int](10, 1, geom.Vector3{})

	err := n.SetChildren(nil)
	require.Error(t, err)
	require.Equal(t, ErrTypeInvalidChildren, errors.Type(err))

	children := make([]*PointNode[int], 8)
	for i, c := range childCenters(n.Center(), n.SideLength()) {
		children[i] = NewPointNode[int](5, 1, c)
	}
	children[3] = nil

	err = n.SetChildren(children)
	require.Error(t, err)
	require.Equal(t, ErrTypeInvalidChildren, errors.Type(err))
	require.False(t, n.HasChildren())

	children[3] = NewPointNode[int](5, 1, childCenters(n.Center(), n.SideLength())[3])
	require.NoError(t, n.SetChildren(children))
	require.True(t, n.HasChildren())
}

func TestPointNodeShrinkIfPossible(t *testing.T) {
	t.Run("leaf shrinks in place", func(t *testing.T) {
		n := NewPointNode[int](64, 1, geom.Vector3{})
		n.Add(1, geom.NewVector3(-10, -10, -10))

		require.Same(t, n, n.ShrinkIfPossible(16))
		require.Equal(t, float32(32), n.SideLength())
		require.Equal(t, geom.Splat(-16), n.Center())
	})

	t.Run("elements in several octants", func(t *testing.T) {
		n := NewPointNode[int](64, 1, geom.Vector3{})
		n.Add(1, geom.NewVector3(-10, -10, -10))
		n.Add(2, geom.NewVector3(10, -10, -10))

		require.Same(t, n, n.ShrinkIfPossible(16))
		require.Equal(t, float32(64), n.SideLength())
	})

	t.Run("single child with content", func(t *testing.T) {
		n := NewPointNode[int](64, 1, geom.Vector3{})
		for i := 0; i <= NumObjectsAllowed; i++ {
			n.Add(i, geom.NewVector3(10, 10, float32(i+1)))
		}
		require.True(t, n.HasChildren())

		child := n.Children()[3]
		require.Same(t, child, n.ShrinkIfPossible(16))
	})
}
