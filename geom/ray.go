package geom

type Ray struct {
	Origin    Vector3
	Direction Vector3 // Normalized.
}

// NewRay returns a ray starting at origin. The direction is normalized.
func NewRay(origin Vector3, direction Vector3) Ray {
	return Ray{
		Origin:    origin,
		Direction: Normalized(direction),
	}
}

// GetPoint returns the point at distance along the ray.
func (r Ray) GetPoint(distance float32) Vector3 {
	return Add(r.Origin, Mul(r.Direction, distance))
}

// SqrDistanceToPoint returns the squared distance between p and the ray.
// Points behind the origin are measured to the origin itself.
func (r Ray) SqrDistanceToPoint(p Vector3) float32 {
	toPoint := Sub(p, r.Origin)
	if r.Direction.Dot(toPoint) < 0 {
		return toPoint.SqrLength()
	}
	return Cross(r.Direction, toPoint).SqrLength()
}
