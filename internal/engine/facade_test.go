package engine

import (
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/atlas-desktop/macrosignal/pkg/types"
)

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig("USDJPY")
	cfg.NumPoints = 2
	if _, err := New(cfg, zap.NewNop()); err == nil {
		t.Fatalf("expected error for num_points < 3")
	}

	cfg = DefaultConfig("USDJPY")
	cfg.Window = 1
	if _, err := New(cfg, zap.NewNop()); err == nil {
		t.Fatalf("expected error for window < 2")
	}
}

func TestStepAlwaysReturnsValidSignalAndRegime(t *testing.T) {
	f, err := New(DefaultConfig("USDJPY"), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	validSignals := map[types.Signal]bool{
		types.SignalNeutral: true, types.SignalBuy: true, types.SignalStrongBuy: true,
		types.SignalSell: true, types.SignalStrongSell: true,
	}

	obs := types.Observation{"VIX": 20}
	for i := 0; i < 20; i++ {
		res := f.Step(obs)
		if !validSignals[res.Signal] {
			t.Fatalf("step %d: invalid signal %v", i, res.Signal)
		}
		if res.Metrics.Regime != types.RegimeTargetEquilibrium && res.Metrics.Regime != types.RegimeLowerBoundRisk {
			t.Fatalf("step %d: invalid regime %v", i, res.Metrics.Regime)
		}
		if res.Metrics.LBProb < 0 || res.Metrics.LBProb > 1 {
			t.Fatalf("step %d: lb_prob out of [0,1]: %v", i, res.Metrics.LBProb)
		}
	}
}

func TestStepNeutralQuiescentScenario(t *testing.T) {
	f, err := New(DefaultConfig("USDJPY"), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	obs := types.Observation{"VIX": 20}
	for i := 0; i < 10; i++ {
		res := f.Step(obs)
		if res.Signal != types.SignalNeutral {
			t.Fatalf("step %d: expected NEUTRAL, got %v", i, res.Signal)
		}
		if res.Metrics.Regime != types.RegimeLowerBoundRisk {
			t.Fatalf("step %d: expected LOWER_BOUND_RISK (natural_rate 0 <= 0), got %v", i, res.Metrics.Regime)
		}
		if math.Abs(res.Metrics.LBProb-0.5) > 1e-9 {
			t.Fatalf("step %d: expected lb_prob 0.5, got %v", i, res.Metrics.LBProb)
		}
		if i < 5 {
			if res.Metrics.Precession != 0 || res.Metrics.Instability != 0 || res.Metrics.MarketMood != 0 {
				t.Fatalf("step %d: expected derived metrics 0 before 5 prior rows", i)
			}
		}
	}
}

func TestResetZerosDerivedMetricsOnFirstStep(t *testing.T) {
	f, err := New(DefaultConfig("USDJPY"), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	obs := types.Observation{"US-JP_2Y": 1, "VIX": 25}
	for i := 0; i < 10; i++ {
		f.Step(obs)
	}

	f.Reset()
	res := f.Step(obs)
	if res.Metrics.Precession != 0 || res.Metrics.Instability != 0 || res.Metrics.MarketMood != 0 {
		t.Fatalf("expected derived metrics 0 immediately after reset, got %+v", res.Metrics)
	}
}

func TestDeterminismAcrossTwoFacades(t *testing.T) {
	f1, err := New(DefaultConfig("EURUSD"), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f2, err := New(DefaultConfig("EURUSD"), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	obsSeq := make([]types.Observation, 30)
	for i := range obsSeq {
		obsSeq[i] = types.Observation{
			"US-EU_2Y":      0.3 + float64(i)*0.01,
			"US-EU_10Y":     0.8 - float64(i)*0.005,
			"US-EU_CPI_YOY": 2.0 + float64(i%3)*0.1,
			"VIX":           18 + float64(i%7),
		}
	}

	for _, obs := range obsSeq {
		r1 := f1.Step(obs)
		r2 := f2.Step(obs)
		if r1.Signal != r2.Signal {
			t.Fatalf("signal mismatch: %v vs %v", r1.Signal, r2.Signal)
		}
		if r1.Metrics.AvgDelta != r2.Metrics.AvgDelta {
			t.Fatalf("avg_delta mismatch: %v vs %v", r1.Metrics.AvgDelta, r2.Metrics.AvgDelta)
		}
	}
}

func TestPairInversionSymmetryAtFacadeLevel(t *testing.T) {
	jp, err := New(DefaultConfig("USDJPY"), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eu, err := New(DefaultConfig("EURUSD"), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resJP := jp.Step(types.Observation{"US-JP_2Y": 1.0, "US-JP_10Y": 1.0, "US-JP_CPI_YOY": 0.0, "VIX": 20})
	resEU := eu.Step(types.Observation{"US-EU_2Y": 1.0, "US-EU_10Y": 1.0, "US-EU_CPI_YOY": 0.0, "VIX": 20})

	// Both are well-formed steps; the underlying force asymmetry is covered
	// directly in internal/macro. Here we only assert the facade wiring
	// doesn't collapse to identical StepResults for forces of opposite sign.
	if resJP.Metrics.AvgDelta == resEU.Metrics.AvgDelta && resJP.Signal == resEU.Signal {
		t.Fatalf("JP and EU produced identical results for forces of opposite sign: %+v vs %+v", resJP, resEU)
	}
}

func TestAllStepResultFieldsFinite(t *testing.T) {
	f, err := New(DefaultConfig("GBPUSD"), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	obs := types.Observation{"US-GB_2Y": 0.7, "US-GB_10Y": 1.1, "US-GB_CPI_YOY": 3.2, "VIX": 35}
	var res types.StepResult
	for i := 0; i < 12; i++ {
		res = f.Step(obs)
	}

	m := res.Metrics
	vals := []float64{m.AvgDelta, m.Entropy, m.AxisAngle, m.RotEnergy, m.LBProb, m.VixInflationCorr, m.VixRateCorr, m.Precession, m.Instability, m.MarketMood}
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("non-finite metric in %+v", m)
		}
	}
}
