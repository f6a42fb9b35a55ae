package macro

import "github.com/atlas-desktop/macrosignal/pkg/rolling"

// CorrelationTracker maintains rolling first-differenced Pearson
// correlations of (VIX, inflation) and (VIX, rate). It only updates its
// stored "last good" value when the underlying Rolling Window correlation
// is defined; otherwise it retains the previous value. Both start at 0.
type CorrelationTracker struct {
	vix        *rolling.Window
	inflation  *rolling.Window
	rate       *rolling.Window
	vixInflCorr float64
	vixRateCorr float64
}

// NewCorrelationTracker returns a tracker with rolling windows of the given
// capacity and both stored correlations initialized to 0.
func NewCorrelationTracker(window int) *CorrelationTracker {
	return &CorrelationTracker{
		vix:       rolling.New(window),
		inflation: rolling.New(window),
		rate:      rolling.New(window),
	}
}

// Push appends one step's vix, inflation, and rate observations.
func (t *CorrelationTracker) Push(vix, inflation, rate float64) {
	t.vix.Push(vix)
	t.inflation.Push(inflation)
	t.rate.Push(rate)
}

// Correlations recomputes both correlations, updating the stored values
// only where a new value is defined, and returns the resulting (possibly
// retained) values.
func (t *CorrelationTracker) Correlations() (vixInflationCorr, vixRateCorr float64) {
	if c, ok := t.vix.Corr(t.inflation); ok {
		t.vixInflCorr = c
	}
	if c, ok := t.vix.Corr(t.rate); ok {
		t.vixRateCorr = c
	}
	return t.vixInflCorr, t.vixRateCorr
}

// Reset clears the rolling windows and stored correlations back to initial
// (zero) state.
func (t *CorrelationTracker) Reset(window int) {
	t.vix = rolling.New(window)
	t.inflation = rolling.New(window)
	t.rate = rolling.New(window)
	t.vixInflCorr = 0
	t.vixRateCorr = 0
}
