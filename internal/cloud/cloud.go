// Package cloud owns the per-instrument point-cloud state: seeding,
// regime-conditioned redistribution, rotation, and the rotational
// invariants derived from the cloud's evolution.
package cloud

import (
	"math"

	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/atlas-desktop/macrosignal/internal/macro"
	"github.com/atlas-desktop/macrosignal/pkg/quaternion"
	"github.com/atlas-desktop/macrosignal/pkg/types"
)

// baselineOffDiagonal holds the three independent off-diagonal entries of
// the baseline covariance Sigma0: Sigma[0][1], Sigma[0][2], Sigma[1][2].
// The exact magnitudes are not load-bearing (see DESIGN.md); what matters
// is a positive-semi-definite diag(1,1,1) plus a small symmetric
// perturbation, fixed by seed for determinism.
var baselineOffDiagonal = [3]float64{0.1, -0.1, -0.1}

// initialNoiseStd is the standard deviation of the i.i.d. Gaussian noise
// added to the seed cloud at construction.
const initialNoiseStd = 0.01

// Engine owns one instrument's point cloud: its initial seed, and the
// current/previous snapshots updated each step. It is not safe for
// concurrent use; each Engine Facade owns exactly one cloud Engine.
type Engine struct {
	logger *zap.Logger
	desc   types.InstrumentDescriptor

	numPoints int
	rng       *rand.Rand

	initial  [][3]float64
	current  [][3]float64
	previous [][3]float64

	stepCount int

	metricsRetention  int
	axisAngleHistory  []float64
	rotEnergyHistory  []float64
	avgDeltaHistory   []float64
	lastAxisAngle     float64
}

// New seeds a cloud of numPoints points from N(0, Sigma0) plus small i.i.d.
// noise, using seed deterministically, and copies it into current/previous.
func New(desc types.InstrumentDescriptor, numPoints int, seed uint64, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if numPoints < 3 {
		numPoints = 3
	}

	e := &Engine{
		logger:           logger.Named("cloud"),
		desc:             desc,
		numPoints:        numPoints,
		rng:              rand.New(rand.NewSource(seed)),
		metricsRetention: 5000,
	}
	e.seedInitial()
	return e
}

func (e *Engine) seedInitial() {
	mean := [3]float64{0, 0, 0}
	sigma := baselineCovariance()

	e.initial = sampleMultivariateNormal(e.rng, mean, sigma, e.numPoints)
	for i := range e.initial {
		for k := 0; k < 3; k++ {
			e.initial[i][k] += e.rng.NormFloat64() * initialNoiseStd
		}
	}
	e.current = cloneCloud(e.initial)
	e.previous = cloneCloud(e.initial)
}

// Current returns the current cloud snapshot. Callers must not mutate it.
func (e *Engine) Current() [][3]float64 { return e.current }

// Previous returns the pre-redistribution cloud snapshot from the most
// recently completed step. Callers must not mutate it.
func (e *Engine) Previous() [][3]float64 { return e.previous }

// Redistribute performs Cloud Engine steps 1-3: snapshot current into
// previous, compute the regime-conditioned mean/covariance, and replace
// current with N fresh samples from that distribution. Step 4 (rotation)
// is performed separately via Rotate, using the driving forces the caller
// computed with the Force Mapper's regime amplification applied.
func (e *Engine) Redistribute(obs types.Observation, regime types.RegimeType, lbProb float64) {
	e.previous = cloneCloud(e.current)

	baseForces := macro.Base(obs, e.desc)
	mean := [3]float64{baseForces.FX, baseForces.FY, baseForces.FZ}
	sigma := e.redistributionCovariance(regime, lbProb)

	e.current = sampleMultivariateNormal(e.rng, mean, sigma, e.numPoints)
	e.stepCount++
}

// Rotate applies the Quaternion Rotator to the current cloud in place using
// the supplied driving forces (expected to be the Force Mapper's amplified
// output), completing Cloud Engine step 4.
func (e *Engine) Rotate(forces types.Forces) {
	points := make([]quaternion.Point, len(e.current))
	for i, p := range e.current {
		points[i] = quaternion.Point(p)
	}
	quaternion.New().Apply(points, forces.FX, forces.FY, forces.FZ)
	for i, p := range points {
		e.current[i] = sanitizePoint([3]float64(p))
	}
}

// Reset restores the cloud to its initial seed state.
func (e *Engine) Reset() {
	e.current = cloneCloud(e.initial)
	e.previous = cloneCloud(e.initial)
	e.stepCount = 0
	e.axisAngleHistory = nil
	e.rotEnergyHistory = nil
	e.avgDeltaHistory = nil
	e.lastAxisAngle = 0
}

// redistributionCovariance returns Sigma0 in TARGET_EQUILIBRIUM, or the
// sensitivity-scaled LOWER_BOUND_RISK covariance otherwise.
func (e *Engine) redistributionCovariance(regime types.RegimeType, lbProb float64) [3][3]float64 {
	if regime != types.RegimeLowerBoundRisk {
		return baselineCovariance()
	}

	sensitivity := math.Min(0.8, 1.5*lbProb)
	s := sensitivity
	return [3][3]float64{
		{1, 0.3 * s, -0.4 * s},
		{0.3 * s, 1, -0.3 * s},
		{-0.4 * s, -0.3 * s, 1},
	}
}

func baselineCovariance() [3][3]float64 {
	a, b, c := baselineOffDiagonal[0], baselineOffDiagonal[1], baselineOffDiagonal[2]
	return [3][3]float64{
		{1, a, b},
		{a, 1, c},
		{b, c, 1},
	}
}

func cloneCloud(src [][3]float64) [][3]float64 {
	dst := make([][3]float64, len(src))
	copy(dst, src)
	return dst
}

func sanitizePoint(p [3]float64) [3]float64 {
	for i, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			p[i] = 0
		}
	}
	return p
}

// sampleMultivariateNormal draws n independent samples from N(mean, sigma)
// via Cholesky decomposition: x = mean + L*z with z standard-normal and
// sigma = L*L^T. If sigma is not positive definite (should not happen for
// the fixed matrices this engine uses), the samples fall back to the mean
// plus independent unit-variance noise (identity covariance, no
// off-diagonal coupling) rather than producing non-finite output.
func sampleMultivariateNormal(rng *rand.Rand, mean [3]float64, sigma [3][3]float64, n int) [][3]float64 {
	sym := mat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			sym.SetSym(i, j, sigma[i][j])
		}
	}

	var chol mat.Cholesky
	ok := chol.Factorize(sym)

	var l mat.TriDense
	if ok {
		chol.LTo(&l)
	}

	out := make([][3]float64, n)
	for i := 0; i < n; i++ {
		z := [3]float64{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}

		var y [3]float64
		if ok {
			y[0] = l.At(0, 0)*z[0]
			y[1] = l.At(1, 0)*z[0] + l.At(1, 1)*z[1]
			y[2] = l.At(2, 0)*z[0] + l.At(2, 1)*z[1] + l.At(2, 2)*z[2]
		} else {
			y = z
		}

		out[i] = sanitizePoint([3]float64{mean[0] + y[0], mean[1] + y[1], mean[2] + y[2]})
	}
	return out
}
