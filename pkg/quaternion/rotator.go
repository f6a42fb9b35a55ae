// Package quaternion composes small intrinsic rotations from axis-angle
// forces and applies them to batches of 3-vectors.
package quaternion

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Scale is the fixed rotation magnitude multiplier applied to every axis
// force before it is used as a rotation angle.
const Scale = 0.20

// Point is a single sample in the 3-dimensional (monetary, inflation, risk)
// state space.
type Point [3]float64

// Rotator composes an intrinsic X-then-Y-then-Z rotation, R = Rz*Ry*Rx, from
// three bounded axis forces and left-multiplies a batch of points by it.
// A Rotator carries no state of its own; it exists so call sites read the
// way the rest of the engine reads, one small component with one job.
type Rotator struct{}

// New returns a Rotator. It holds no configuration because the rotation
// magnitude (Scale) is fixed by spec.
func New() Rotator { return Rotator{} }

// Apply rotates points in place by the composed rotation built from
// (fx, fy, fz) scaled by Scale. Non-finite inputs are treated as zero force
// on that axis so a single bad observation cannot poison the whole batch.
func (Rotator) Apply(points []Point, fx, fy, fz float64) {
	R := compose(sanitizeAngle(fx)*Scale, sanitizeAngle(fy)*Scale, sanitizeAngle(fz)*Scale)
	for i := range points {
		p := points[i]
		x := R.At(0, 0)*p[0] + R.At(0, 1)*p[1] + R.At(0, 2)*p[2]
		y := R.At(1, 0)*p[0] + R.At(1, 1)*p[1] + R.At(1, 2)*p[2]
		z := R.At(2, 0)*p[0] + R.At(2, 1)*p[1] + R.At(2, 2)*p[2]
		points[i] = sanitizePoint(Point{x, y, z})
	}
}

func sanitizeAngle(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func sanitizePoint(p Point) Point {
	for i, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			p[i] = 0
		}
	}
	return p
}

// compose builds R = Rz(angleZ) * Ry(angleY) * Rx(angleX) via the standard
// Rodrigues rotation matrices, avoiding any small-angle linearization so the
// composition stays numerically stable at the small angles this engine
// actually produces (|force| <= 1, Scale = 0.20).
func compose(angleX, angleY, angleZ float64) *mat.Dense {
	rx := rodrigues([3]float64{1, 0, 0}, angleX)
	ry := rodrigues([3]float64{0, 1, 0}, angleY)
	rz := rodrigues([3]float64{0, 0, 1}, angleZ)

	ryx := mat.NewDense(3, 3, nil)
	ryx.Mul(ry, rx)

	r := mat.NewDense(3, 3, nil)
	r.Mul(rz, ryx)
	return r
}

// rodrigues returns the rotation matrix for a unit axis and an angle in
// radians, via R = I + sin(t)K + (1-cos(t))K^2 where K is the
// cross-product matrix of axis. For the coordinate-axis rotations used
// here this reduces to the classic Rx/Ry/Rz forms, computed directly.
func rodrigues(axis [3]float64, angle float64) *mat.Dense {
	c, s := math.Cos(angle), math.Sin(angle)
	ax, ay, az := axis[0], axis[1], axis[2]

	r := mat.NewDense(3, 3, []float64{
		c + ax*ax*(1-c), ax*ay*(1-c) - az*s, ax*az*(1-c) + ay*s,
		ay*ax*(1-c) + az*s, c + ay*ay*(1-c), ay*az*(1-c) - ax*s,
		az*ax*(1-c) - ay*s, az*ay*(1-c) + ax*s, c + az*az*(1-c),
	})
	return r
}
