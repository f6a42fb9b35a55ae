package macro

import (
	"math"

	"github.com/atlas-desktop/macrosignal/pkg/types"
)

// signMultipliers returns the base inversion multiplier m and the
// risk-axis multiplier risk_m, applying the JP safe-haven and AU explicit
// override rules from the Instrument Descriptor contract.
func signMultipliers(d types.InstrumentDescriptor) (m, riskM float64) {
	m = 1
	if d.Inverted {
		m = -1
	}
	riskM = m
	switch {
	case d.CountryCode == "JP" && !d.Inverted:
		riskM = -m
	case d.CountryCode == "AU" && d.Inverted:
		riskM = +m
	}
	return m, riskM
}

// Base computes the bounded tanh-transformed axis forces for an
// observation and descriptor, with the pair-specific sign rules applied but
// without regime amplification. This is used both as the driving force
// before amplification and as the redistribution mean in the Cloud Engine,
// which the specification requires to skip amplification entirely.
func Base(obs types.Observation, d types.InstrumentDescriptor) types.Forces {
	m, riskM := signMultipliers(d)

	twoYear, tenYear, cpi := types.CountryIndicatorKeys(d.CountryCode)
	s2 := obs.Get(twoYear, 0)
	s10 := obs.Get(tenYear, 0)
	ci := obs.Get(cpi, 0)
	vix := obs.Get("VIX", 20)

	fx := math.Tanh((0.5*s2+0.5*s10)/2) * m
	fy := math.Tanh(ci/3) * m
	fz := -math.Tanh((vix-20)/15) * riskM

	return types.Forces{FX: fx, FY: fy, FZ: fz}
}

// Compute computes the driving axis forces for a step: Base forces, plus
// regime amplification of fx and fy when the regime is LOWER_BOUND_RISK,
// VIX is above 20, and a known vix/inflation correlation is below -0.1. The
// risk axis is never amplified. corrKnown mirrors the Rolling Window "no
// value" semantics: when false, amplification never triggers regardless of
// corr's numeric value.
func Compute(obs types.Observation, d types.InstrumentDescriptor, regime types.RegimeType, corr float64, corrKnown bool) types.Forces {
	f := Base(obs, d)

	vix := obs.Get("VIX", 20)
	if regime == types.RegimeLowerBoundRisk && vix > 20 && corrKnown && corr < -0.1 {
		amp := 1 + 0.5*math.Abs(corr)
		f.FX *= amp
		f.FY *= amp
	}

	return f
}
