package cloud

import (
	"math"

	"github.com/atlas-desktop/macrosignal/pkg/pca"
)

// entropyBins and entropyMax define the fixed 20-bin histogram over
// [0, 5] used for the pairwise-distance entropy invariant.
const (
	entropyBins = 20
	entropyMax  = 5.0
)

// derivedMinHistory is the minimum number of prior metric rows required
// before precession, instability, and market mood are computed; below it
// they are 0.
const derivedMinHistory = 5

// Invariants holds the always-populated and derived per-step invariants
// (C8) for one step.
type Invariants struct {
	AvgDelta    float64
	Entropy     float64
	AxisAngle   float64
	RotEnergy   float64
	Precession  float64
	Instability float64
	MarketMood  float64
}

// Compute derives this step's invariants from the current/previous cloud
// snapshots, updates the bounded metrics history, and returns the result.
// Must be called exactly once per step, after Redistribute and Rotate.
func (e *Engine) Compute() Invariants {
	avgDelta := e.avgDisplacement()
	entropy := e.pairwiseDistanceEntropy()
	axisAngle := e.axisAngle()
	rotEnergy := e.rotationalEnergy()

	priorCount := len(e.avgDeltaHistory)

	var precession, instability, marketMood float64
	if priorCount >= derivedMinHistory {
		precession = e.precession(axisAngle)
		instability = e.instability(rotEnergy, avgDelta)
		marketMood = e.marketMood()
	}

	e.appendHistory(avgDelta, rotEnergy, axisAngle)

	return Invariants{
		AvgDelta:    avgDelta,
		Entropy:     entropy,
		AxisAngle:   axisAngle,
		RotEnergy:   rotEnergy,
		Precession:  precession,
		Instability: instability,
		MarketMood:  marketMood,
	}
}

func (e *Engine) avgDisplacement() float64 {
	if len(e.current) == 0 {
		return 0
	}
	var total float64
	for i := range e.current {
		total += norm(sub(e.current[i], e.previous[i]))
	}
	return total / float64(len(e.current))
}

func (e *Engine) pairwiseDistanceEntropy() float64 {
	n := len(e.current)
	if n < 2 {
		return 0
	}

	var counts [entropyBins]int
	total := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := norm(sub(e.current[i], e.current[j]))
			bin := int(d / entropyMax * entropyBins)
			if bin < 0 {
				bin = 0
			}
			if bin >= entropyBins {
				// Clamp into the last bin rather than drop the sample; an
				// out-of-range distance still carries entropy signal worth
				// keeping.
				bin = entropyBins - 1
			}
			counts[bin]++
			total++
		}
	}
	if total == 0 {
		return 0
	}

	var h float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(total)
		h -= p * math.Log(p)
	}
	return h
}

func (e *Engine) axisAngle() float64 {
	res := pca.Compute(e.current, uint64(e.stepCount))
	axis := res.Axis3()
	angle := math.Acos(clip(axis[0], -1, 1))
	if math.IsNaN(angle) {
		return e.lastAxisAngle
	}
	e.lastAxisAngle = angle
	return angle
}

func (e *Engine) rotationalEnergy() float64 {
	n := len(e.current)
	if n == 0 {
		return 0
	}
	var total float64
	for i := 0; i < n; i++ {
		r := e.current[i]
		v := sub(e.current[i], e.previous[i])
		l := cross(r, v)
		total += dot(l, l)
	}
	return total / float64(n)
}

func (e *Engine) precession(currentAxisAngle float64) float64 {
	window := lastN(append(append([]float64{}, e.axisAngleHistory...), currentAxisAngle), derivedMinHistory)
	grad := gradient(window)
	return mean(grad)
}

func (e *Engine) instability(currentRotEnergy, currentAvgDelta float64) float64 {
	rotWindow := lastN(append(append([]float64{}, e.rotEnergyHistory...), currentRotEnergy), derivedMinHistory)
	deltaWindow := lastN(append(append([]float64{}, e.avgDeltaHistory...), currentAvgDelta), derivedMinHistory)
	return mean(rotWindow) / (mean(deltaWindow) + 1e-6)
}

func (e *Engine) marketMood() float64 {
	n := len(e.current)
	disp := make([][3]float64, n)
	for i := 0; i < n; i++ {
		disp[i] = sanitizePoint(sub(e.current[i], e.previous[i]))
	}
	res := pca.Compute(disp, uint64(e.stepCount)+1)
	d := res.Axis3()
	return 0.4*d[0] + 0.3*d[1] + 0.3*d[2]
}

func (e *Engine) appendHistory(avgDelta, rotEnergy, axisAngle float64) {
	e.avgDeltaHistory = appendBounded(e.avgDeltaHistory, avgDelta, e.metricsRetention)
	e.rotEnergyHistory = appendBounded(e.rotEnergyHistory, rotEnergy, e.metricsRetention)
	e.axisAngleHistory = appendBounded(e.axisAngleHistory, axisAngle, e.metricsRetention)
}

func appendBounded(hist []float64, v float64, maxLen int) []float64 {
	hist = append(hist, v)
	if len(hist) > maxLen {
		hist = hist[len(hist)-maxLen:]
	}
	return hist
}

func lastN(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

// gradient approximates numpy.gradient: central differences at interior
// points, one-sided differences at the boundaries.
func gradient(values []float64) []float64 {
	n := len(values)
	if n == 0 {
		return nil
	}
	if n == 1 {
		return []float64{0}
	}
	out := make([]float64, n)
	out[0] = values[1] - values[0]
	out[n-1] = values[n-1] - values[n-2]
	for i := 1; i < n-1; i++ {
		out[i] = (values[i+1] - values[i-1]) / 2
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sub(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func norm(a [3]float64) float64 {
	return math.Sqrt(dot(a, a))
}
