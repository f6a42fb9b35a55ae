// Package metrics exposes the engine's runtime counters and gauges as
// Prometheus collectors, registered on their own registry so the engine
// server can mount them independently of the default global registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/atlas-desktop/macrosignal/pkg/types"
)

// Collectors holds every metric the engine server publishes at /metrics.
type Collectors struct {
	registry *prometheus.Registry

	stepsTotal    *prometheus.CounterVec
	signalsTotal  *prometheus.CounterVec
	regimeState   *prometheus.GaugeVec
	lbProbability *prometheus.GaugeVec
	instability   *prometheus.GaugeVec
	marketMood    *prometheus.GaugeVec
	precession    *prometheus.GaugeVec
}

// New builds a Collectors bound to a fresh registry.
func New() *Collectors {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collectors{
		registry: registry,
		stepsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "macrosignal",
			Name:      "steps_total",
			Help:      "Total number of engine steps processed, by instrument pair.",
		}, []string{"pair"}),
		signalsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "macrosignal",
			Name:      "signals_total",
			Help:      "Total number of signals emitted, by instrument pair and signal value.",
		}, []string{"pair", "signal"}),
		regimeState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "macrosignal",
			Name:      "regime_is_lower_bound_risk",
			Help:      "1 if the pair's current regime is LOWER_BOUND_RISK, 0 if TARGET_EQUILIBRIUM.",
		}, []string{"pair"}),
		lbProbability: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "macrosignal",
			Name:      "lower_bound_probability",
			Help:      "Current lower-bound-risk probability, by instrument pair.",
		}, []string{"pair"}),
		instability: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "macrosignal",
			Name:      "instability",
			Help:      "Current instability metric, by instrument pair.",
		}, []string{"pair"}),
		marketMood: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "macrosignal",
			Name:      "market_mood",
			Help:      "Current market mood metric, by instrument pair.",
		}, []string{"pair"}),
		precession: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "macrosignal",
			Name:      "precession",
			Help:      "Current precession metric, by instrument pair.",
		}, []string{"pair"}),
	}
}

// Registry returns the registry these collectors are registered on, for
// mounting at /metrics via promhttp.HandlerFor.
func (c *Collectors) Registry() *prometheus.Registry {
	return c.registry
}

// Observe records one StepResult for pair into every relevant collector.
func (c *Collectors) Observe(pair string, result types.StepResult) {
	c.stepsTotal.WithLabelValues(pair).Inc()
	c.signalsTotal.WithLabelValues(pair, string(result.Signal)).Inc()

	regimeValue := 0.0
	if result.Metrics.Regime == types.RegimeLowerBoundRisk {
		regimeValue = 1.0
	}
	c.regimeState.WithLabelValues(pair).Set(regimeValue)
	c.lbProbability.WithLabelValues(pair).Set(result.Metrics.LBProb)
	c.instability.WithLabelValues(pair).Set(result.Metrics.Instability)
	c.marketMood.WithLabelValues(pair).Set(result.Metrics.MarketMood)
	c.precession.WithLabelValues(pair).Set(result.Metrics.Precession)
}
