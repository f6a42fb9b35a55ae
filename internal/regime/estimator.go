// Package regime maintains the EMA-smoothed natural-rate estimate and
// classifies the current macro policy regime against a policy-rule
// threshold.
package regime

import (
	"math"

	"go.uber.org/zap"

	"github.com/atlas-desktop/macrosignal/pkg/types"
)

// Config configures the Natural-Rate & Regime Estimator.
type Config struct {
	// EMAAlpha is the smoothing weight applied to each new natural-rate
	// estimate: natural_rate = (1-EMAAlpha)*prev + EMAAlpha*new.
	EMAAlpha float64
	// LowerBound is the interest-rate lower bound constant used by the
	// lower-bound probability logistic mapping.
	LowerBound float64
	// Psi is the policy-rule coefficient; the regime threshold is
	// theta = (Psi-1)/Psi.
	Psi float64
}

// DefaultConfig returns the engine's default estimator configuration.
func DefaultConfig() Config {
	return Config{EMAAlpha: 0.05, LowerBound: 0.0, Psi: 1.5}
}

// Estimator maintains the EMA-smoothed natural rate for one instrument and
// classifies its regime. It is not safe for concurrent use; each Engine
// Facade owns one Estimator.
type Estimator struct {
	logger *zap.Logger
	config Config

	naturalRate float64
	hasEstimate bool
}

// New returns an Estimator with its natural rate unset.
func New(config Config, logger *zap.Logger) *Estimator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Estimator{logger: logger.Named("regime"), config: config}
}

// Update folds in this step's 10-year yield and YoY CPI, returning the
// smoothed natural rate, the lower-bound probability, and the classified
// regime. The first call takes the raw estimate directly; subsequent calls
// EMA-smooth against the prior value.
func (e *Estimator) Update(tenYear, cpiYoY float64) (naturalRate float64, lbProb float64, regime types.RegimeType) {
	estimate := tenYear - cpiYoY/2

	if !e.hasEstimate {
		e.naturalRate = estimate
		e.hasEstimate = true
	} else {
		e.naturalRate = (1-e.config.EMAAlpha)*e.naturalRate + e.config.EMAAlpha*estimate
	}

	lbProb = lowerBoundProbability(e.naturalRate, e.config.LowerBound)
	theta := (e.config.Psi - 1) / e.config.Psi

	regime = types.RegimeTargetEquilibrium
	if lbProb >= theta {
		regime = types.RegimeLowerBoundRisk
	}

	return e.naturalRate, lbProb, regime
}

// lowerBoundProbability is the logistic mapping of the gap between the
// natural rate and the lower bound: 1 / (1 + exp(2*(natural_rate -
// lower_bound))). At natural_rate == lower_bound this is exactly 0.5.
func lowerBoundProbability(naturalRate, lowerBound float64) float64 {
	return 1 / (1 + math.Exp(2*(naturalRate-lowerBound)))
}

// Reset clears the estimator back to its unset initial state.
func (e *Estimator) Reset() {
	e.naturalRate = 0
	e.hasEstimate = false
}
