// Package rolling provides a fixed-capacity ordered scalar window with
// O(1) append-and-evict and statistics that degrade gracefully on
// low-variance input instead of producing NaN or infinities.
package rolling

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Window is a fixed-capacity ordered sequence of float64 samples. The zero
// value is not usable; construct with New.
type Window struct {
	capacity int
	buf      []float64
}

// New returns a Window that retains at most capacity samples, evicting the
// oldest on overflow. capacity must be >= 1.
func New(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{capacity: capacity, buf: make([]float64, 0, capacity)}
}

// Push appends x, evicting the oldest sample if the window is at capacity.
func (w *Window) Push(x float64) {
	if len(w.buf) == w.capacity {
		// Drop the oldest sample by re-slicing; append reallocates only once
		// the spare tail is used up, so eviction is amortized O(1).
		w.buf = w.buf[1:]
	}
	w.buf = append(w.buf, x)
}

// Len returns the number of samples currently held.
func (w *Window) Len() int { return len(w.buf) }

// Values returns the samples in insertion order, oldest first. The slice is
// owned by the caller.
func (w *Window) Values() []float64 {
	out := make([]float64, len(w.buf))
	copy(out, w.buf)
	return out
}

// Mean returns the population mean of the window, or 0 if empty.
func (w *Window) Mean() float64 {
	if len(w.buf) == 0 {
		return 0
	}
	return stat.Mean(w.buf, nil)
}

// Std returns the population standard deviation of the window, or 0 if
// fewer than 2 samples are present.
func (w *Window) Std() float64 {
	if len(w.buf) < 2 {
		return 0
	}
	_, variance := stat.PopMeanVariance(w.buf, nil)
	if variance < 0 {
		return 0
	}
	return sqrt(variance)
}

// Corr computes the Pearson correlation of the first differences of the
// last k = min(len(w), len(other)) - 1 paired samples. It reports ok=false
// ("no value") when k < 2 or either differenced series has a population
// standard deviation <= 0 (constant series); the caller is expected to
// retain whatever correlation value it last had in that case.
func (w *Window) Corr(other *Window) (corr float64, ok bool) {
	a := w.buf
	b := other.buf
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n < 1 {
		return 0, false
	}
	a = a[len(a)-n:]
	b = b[len(b)-n:]

	k := n - 1
	if k < 2 {
		return 0, false
	}

	da := diff(a)
	db := diff(b)

	if popStd(da) <= 0 || popStd(db) <= 0 {
		return 0, false
	}

	return stat.Correlation(da, db, nil), true
}

func diff(x []float64) []float64 {
	out := make([]float64, len(x)-1)
	for i := 1; i < len(x); i++ {
		out[i-1] = x[i] - x[i-1]
	}
	return out
}

func popStd(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	_, variance := stat.PopMeanVariance(x, nil)
	if variance < 0 {
		return 0
	}
	return sqrt(variance)
}

func sqrt(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Sqrt(v)
}
