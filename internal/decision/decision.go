// Package decision converts cloud invariants, regime, and correlation
// state into a discrete trading signal using regime-conditioned thresholds.
package decision

import (
	"math"

	"go.uber.org/zap"

	"github.com/atlas-desktop/macrosignal/pkg/types"
)

// strongInstabilityCutoff is the instability level above which a BUY/SELL
// decision is promoted to its STRONG_ variant.
const strongInstabilityCutoff = 1.5

// regimeAmplification scales both the precession and mood thresholds down
// when the lower-bound regime's correlation guard triggers.
const regimeAmplification = 0.8

// Decider converts per-step invariants into a Signal via the configured
// thresholds. It holds no mutable state, so a single Decider could be shared
// safely across facades; each Engine Facade builds its own.
type Decider struct {
	logger     *zap.Logger
	thresholds types.Thresholds
}

// New returns a Decider with the given thresholds.
func New(thresholds types.Thresholds, logger *zap.Logger) *Decider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decider{logger: logger.Named("decision"), thresholds: thresholds}
}

// Decide implements C9's procedure exactly: select regime-conditioned
// thresholds, apply the correlation-triggered 0.8x amplification in
// LOWER_BOUND_RISK, then classify on precession and market mood.
func (d *Decider) Decide(precession, marketMood, instability float64, regime types.RegimeType, vixInflationCorr float64) types.Signal {
	if precession == 0 {
		return types.SignalNeutral
	}

	precT, moodT := d.thresholds.PrecEq, d.thresholds.MoodEq
	if regime == types.RegimeLowerBoundRisk {
		precT, moodT = d.thresholds.PrecLB, d.thresholds.MoodLB
	}

	if regime == types.RegimeLowerBoundRisk && vixInflationCorr < d.thresholds.VixInflT {
		precT *= regimeAmplification
		moodT *= regimeAmplification
	}

	if math.Abs(precession) <= precT {
		return types.SignalNeutral
	}

	strong := instability > strongInstabilityCutoff

	switch {
	case marketMood > moodT:
		if strong {
			return types.SignalStrongBuy
		}
		return types.SignalBuy
	case marketMood < -moodT:
		if strong {
			return types.SignalStrongSell
		}
		return types.SignalSell
	default:
		return types.SignalNeutral
	}
}
