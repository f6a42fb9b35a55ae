package rolling

import (
	"math"
	"testing"
)

func TestPushEvictsAtCapacity(t *testing.T) {
	w := New(3)
	w.Push(1)
	w.Push(2)
	w.Push(3)
	w.Push(4)

	if w.Len() != 3 {
		t.Fatalf("expected length 3, got %d", w.Len())
	}
	got := w.Values()
	want := []float64{2, 3, 4}
	for i, v := range want {
		if got[i] != v {
			t.Fatalf("values = %v, want %v", got, want)
		}
	}
}

func TestMeanAndStd(t *testing.T) {
	w := New(5)
	for _, v := range []float64{2, 4, 4, 4, 5} {
		w.Push(v)
	}

	if math.Abs(w.Mean()-3.8) > 1e-9 {
		t.Fatalf("mean = %v, want 3.8", w.Mean())
	}

	// population variance = 4.8/5 = 0.96, std = sqrt(0.96)
	want := math.Sqrt(0.96)
	if math.Abs(w.Std()-want) > 1e-9 {
		t.Fatalf("std = %v, want %v", w.Std(), want)
	}
}

func TestStdOfSingleSampleIsZero(t *testing.T) {
	w := New(5)
	w.Push(10)
	if w.Std() != 0 {
		t.Fatalf("expected 0 std for single sample, got %v", w.Std())
	}
}

func TestCorrRequiresAtLeastThreePoints(t *testing.T) {
	a := New(10)
	b := New(10)
	a.Push(1)
	a.Push(2)
	b.Push(1)
	b.Push(2)

	if _, ok := a.Corr(b); ok {
		t.Fatalf("expected no value with only 2 points (k=1)")
	}

	// Non-linear third points so neither differenced series is constant.
	a.Push(4)
	b.Push(5)
	if _, ok := a.Corr(b); !ok {
		t.Fatalf("expected a value with 3 points (k=2)")
	}
}

func TestCorrOnConstantSeriesReturnsNoValue(t *testing.T) {
	a := New(10)
	b := New(10)
	for i := 0; i < 5; i++ {
		a.Push(5)
		b.Push(1.0 + float64(i))
	}

	if _, ok := a.Corr(b); ok {
		t.Fatalf("expected no value when one series is constant (zero-diff variance)")
	}
}

func TestCorrWindowOfTwoAlwaysNoValue(t *testing.T) {
	a := New(2)
	b := New(2)
	for i := 0; i < 10; i++ {
		a.Push(float64(i))
		b.Push(float64(i) * 2)
	}

	if _, ok := a.Corr(b); ok {
		t.Fatalf("window capacity 2 can never produce k>=2, expected no value")
	}
}

func TestCorrPerfectPositiveCorrelation(t *testing.T) {
	a := New(10)
	b := New(10)
	// Quadratic series: first differences are non-constant (1,3,5,...) and
	// b's differences are exactly twice a's.
	for i := 0; i < 6; i++ {
		a.Push(float64(i * i))
		b.Push(float64(i*i) * 2)
	}

	corr, ok := a.Corr(b)
	if !ok {
		t.Fatalf("expected a value")
	}
	if math.Abs(corr-1.0) > 1e-9 {
		t.Fatalf("corr = %v, want 1.0", corr)
	}
}
