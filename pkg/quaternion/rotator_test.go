package quaternion

import (
	"math"
	"testing"
)

func TestApplyZeroForceLeavesPointsUnchanged(t *testing.T) {
	r := New()
	points := []Point{{1, 2, 3}, {-1, 0.5, 2}}
	want := make([]Point, len(points))
	copy(want, points)

	r.Apply(points, 0, 0, 0)

	for i := range points {
		for k := 0; k < 3; k++ {
			if math.Abs(points[i][k]-want[i][k]) > 1e-9 {
				t.Fatalf("point %d axis %d: got %v want %v", i, k, points[i], want[i])
			}
		}
	}
}

func TestApplyPreservesNorm(t *testing.T) {
	r := New()
	points := []Point{{1, 2, 2}}
	norm0 := math.Sqrt(1 + 4 + 4)

	r.Apply(points, 0.5, -0.3, 0.8)

	norm1 := math.Sqrt(points[0][0]*points[0][0] + points[0][1]*points[0][1] + points[0][2]*points[0][2])
	if math.Abs(norm0-norm1) > 1e-9 {
		t.Fatalf("rotation changed vector norm: got %v want %v", norm1, norm0)
	}
}

func TestApplySanitizesNonFiniteForces(t *testing.T) {
	r := New()
	points := []Point{{1, 1, 1}}
	r.Apply(points, math.NaN(), math.Inf(1), 0)

	for k, v := range points[0] {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("axis %d is non-finite: %v", k, v)
		}
	}
}
