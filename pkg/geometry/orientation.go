package geometry

import "math"

// Quaternion is a rotation in the (w, x, y, z) convention used by trajectory files.
// In the plane only rotations about z occur: (cos θ/2, 0, 0, sin θ/2).
type Quaternion struct {
	W, X, Y, Z float64
}

// QuaternionFromHeading returns the unit quaternion rotating the x-axis onto theta.
func QuaternionFromHeading(theta float64) Quaternion {
	half := theta / 2
	return Quaternion{W: math.Cos(half), Z: math.Sin(half)}
}

// Heading returns the in-plane angle in (-Pi, Pi] encoded by q.
// Any x/y tilt is ignored.
func (q Quaternion) Heading() float64 {
	return NormalizeAngle(2 * math.Atan2(q.Z, q.W))
}

// NormalizeAngle folds theta into (-Pi, Pi].
func NormalizeAngle(theta float64) float64 {
	theta = math.Mod(theta, 2*math.Pi)
	if theta <= -math.Pi {
		theta += 2 * math.Pi
	} else if theta > math.Pi {
		theta -= 2 * math.Pi
	}
	return theta
}
