// Package engine provides the per-instrument Engine Facade: the single
// entry point that drives one instrument's cloud, estimator, correlation
// tracker, and decision components through one step at a time.
package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/atlas-desktop/macrosignal/internal/cloud"
	"github.com/atlas-desktop/macrosignal/internal/decision"
	"github.com/atlas-desktop/macrosignal/internal/macro"
	"github.com/atlas-desktop/macrosignal/internal/regime"
	"github.com/atlas-desktop/macrosignal/pkg/types"
)

// Config configures one Engine Facade instance.
type Config struct {
	PairName         string
	NumPoints        int
	Window           int
	Seed             uint64
	Thresholds       types.Thresholds
	Regime           regime.Config
	MetricsRetention int
}

// DefaultConfig returns the engine's default configuration for the given
// pair name: num_points=300, window=60, seed=42, default thresholds and
// regime parameters.
func DefaultConfig(pairName string) Config {
	return Config{
		PairName:         pairName,
		NumPoints:        300,
		Window:           60,
		Seed:             42,
		Thresholds:       types.DefaultThresholds(),
		Regime:           regime.DefaultConfig(),
		MetricsRetention: 5000,
	}
}

// Validate reports construction-time invariant violations (spec.md §7):
// num_points >= 3, window >= 2. These are the only errors the facade ever
// returns; Step never does.
func (c Config) Validate() error {
	if c.NumPoints < 3 {
		return fmt.Errorf("engine config: num_points must be >= 3, got %d", c.NumPoints)
	}
	if c.Window < 2 {
		return fmt.Errorf("engine config: window must be >= 2, got %d", c.Window)
	}
	return nil
}

// Facade is the per-instrument orchestrator (C10). It owns one Cloud
// Engine, one Natural-Rate & Regime Estimator, one Correlation Tracker,
// and its own Signal Decider, and exposes Step/Reset. A Facade is
// single-threaded and stateful: a single Step must complete before the
// next begins (spec.md §5). Distinct Facades share no state and may be
// driven concurrently by independent goroutines.
type Facade struct {
	logger *zap.Logger
	config Config
	desc   types.InstrumentDescriptor

	cloud     *cloud.Engine
	estimator *regime.Estimator
	corr      *macro.CorrelationTracker
	decider   *decision.Decider

	log []types.StepResult
}

// New constructs a Facade for config.PairName, resolving its Instrument
// Descriptor from the fixed catalog. Returns an error if config fails
// Validate.
func New(config Config, logger *zap.Logger) (*Facade, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("engine").With(zap.String("pair", config.PairName))

	desc := macro.Descriptor(config.PairName)

	return &Facade{
		logger:    logger,
		config:    config,
		desc:      desc,
		cloud:     cloud.New(desc, config.NumPoints, config.Seed, logger),
		estimator: regime.New(config.Regime, logger),
		corr:      macro.NewCorrelationTracker(config.Window),
		decider:   decision.New(config.Thresholds, logger),
	}, nil
}

// Step runs the full per-step pipeline — C5, C6, cloud redistribution
// (C7 steps 1-3), force computation (C4), rotation (C1), invariants (C8),
// and signal (C9) — and appends the result to the facade's metrics log.
// Step never returns an error: numerical degeneracy and missing history
// are absorbed as specified in spec.md §7, always yielding a well-formed
// StepResult.
func (f *Facade) Step(obs types.Observation) types.StepResult {
	_, tenYear, cpi := types.CountryIndicatorKeys(f.desc.CountryCode)
	s10 := obs.Get(tenYear, 0)
	ci := obs.Get(cpi, 0)
	vix := obs.Get("VIX", 20)

	_, lbProb, regimeState := f.estimator.Update(s10, ci)

	f.corr.Push(vix, ci, s10)
	vixInflationCorr, vixRateCorr := f.corr.Correlations()

	f.cloud.Redistribute(obs, regimeState, lbProb)
	forces := macro.Compute(obs, f.desc, regimeState, vixInflationCorr, true)
	f.cloud.Rotate(forces)

	inv := f.cloud.Compute()

	signal := f.decider.Decide(inv.Precession, inv.MarketMood, inv.Instability, regimeState, vixInflationCorr)

	result := types.StepResult{
		Signal: signal,
		Metrics: types.StepMetrics{
			AvgDelta:         inv.AvgDelta,
			Entropy:          inv.Entropy,
			AxisAngle:        inv.AxisAngle,
			RotEnergy:        inv.RotEnergy,
			Regime:           regimeState,
			LBProb:           lbProb,
			VixInflationCorr: vixInflationCorr,
			VixRateCorr:      vixRateCorr,
			Precession:       inv.Precession,
			Instability:      inv.Instability,
			MarketMood:       inv.MarketMood,
		},
	}

	f.appendLog(result)
	return result
}

func (f *Facade) appendLog(r types.StepResult) {
	f.log = append(f.log, r)
	if retention := f.config.MetricsRetention; retention > 0 && len(f.log) > retention {
		f.log = f.log[len(f.log)-retention:]
	}
}

// History returns the bounded metrics log accumulated since construction
// or the last Reset. The returned slice is owned by the caller.
func (f *Facade) History() []types.StepResult {
	out := make([]types.StepResult, len(f.log))
	copy(out, f.log)
	return out
}

// Reset restores the cloud to its initial seed, clears histories, and
// resets the estimator and correlation tracker to their initial values.
func (f *Facade) Reset() {
	f.cloud.Reset()
	f.estimator.Reset()
	f.corr.Reset(f.config.Window)
	f.log = nil
}
