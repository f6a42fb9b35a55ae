package pca

import (
	"math"
	"testing"
)

func TestComputeAlignsWithDominantAxis(t *testing.T) {
	rows := make([][3]float64, 0, 100)
	for i := -50; i < 50; i++ {
		x := float64(i) * 0.1
		rows = append(rows, [3]float64{x, 0.001 * float64(i%3), 0})
	}

	res := Compute(rows, 42)
	axis := res.Axis3()

	if math.Abs(axis[0]) < 0.9 {
		t.Fatalf("expected dominant axis aligned with x, got %v", axis)
	}
	norm := math.Sqrt(axis[0]*axis[0] + axis[1]*axis[1] + axis[2]*axis[2])
	if math.Abs(norm-1) > 1e-9 {
		t.Fatalf("axis not unit length: %v (norm %v)", axis, norm)
	}
}

func TestComputeHandlesDegenerateInput(t *testing.T) {
	rows := make([][3]float64, 3)
	res := Compute(rows, 7)

	for _, axis := range res.Axes {
		norm := math.Sqrt(axis[0]*axis[0] + axis[1]*axis[1] + axis[2]*axis[2])
		if math.IsNaN(norm) || math.Abs(norm-1) > 1e-6 {
			t.Fatalf("degenerate input produced non-unit axis %v", axis)
		}
	}
}

func TestComputeSanitizesNonFiniteInput(t *testing.T) {
	rows := [][3]float64{
		{math.NaN(), 1, 2},
		{math.Inf(1), -1, 0.5},
		{0.5, 0, -1},
	}
	res := Compute(rows, 1)
	for _, v := range res.Eigenvalues {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("eigenvalues not finite: %v", res.Eigenvalues)
		}
	}
}

func TestComputeThreePointsSucceeds(t *testing.T) {
	rows := [][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	res := Compute(rows, 99)
	if res.Eigenvalues[0] < res.Eigenvalues[1] || res.Eigenvalues[1] < res.Eigenvalues[2] {
		t.Fatalf("eigenvalues not descending: %v", res.Eigenvalues)
	}
}
