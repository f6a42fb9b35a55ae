// Package config loads the engine's configuration from a YAML file plus
// environment-variable overrides, using viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/atlas-desktop/macrosignal/internal/engine"
	"github.com/atlas-desktop/macrosignal/internal/regime"
	"github.com/atlas-desktop/macrosignal/pkg/types"
)

// ServerConfig configures the ambient HTTP/WebSocket service.
type ServerConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	MetricsPort   int    `mapstructure:"metrics_port"`
	EnableMetrics bool   `mapstructure:"enable_metrics"`
}

// InstrumentConfig is one instrument's engine parameters as loaded from
// configuration, before resolution into an engine.Config.
type InstrumentConfig struct {
	Pair      string `mapstructure:"pair"`
	NumPoints int    `mapstructure:"num_points"`
	Window    int    `mapstructure:"window"`
	Seed      uint64 `mapstructure:"seed"`
}

// ThresholdConfig mirrors types.Thresholds for YAML/env decoding.
type ThresholdConfig struct {
	PrecEq   float64 `mapstructure:"prec_t_eq"`
	PrecLB   float64 `mapstructure:"prec_t_lb"`
	MoodEq   float64 `mapstructure:"mood_t_eq"`
	MoodLB   float64 `mapstructure:"mood_t_lb"`
	VixInflT float64 `mapstructure:"vix_infl_t"`
}

// RegimeConfig mirrors regime.Config for YAML/env decoding.
type RegimeConfig struct {
	EMAAlpha   float64 `mapstructure:"ema_alpha"`
	LowerBound float64 `mapstructure:"lower_bound"`
	Psi        float64 `mapstructure:"psi"`
}

// Config is the engine's top-level configuration.
type Config struct {
	Server           ServerConfig       `mapstructure:"server"`
	Instruments      []InstrumentConfig `mapstructure:"instruments"`
	Thresholds       ThresholdConfig    `mapstructure:"thresholds"`
	Regime           RegimeConfig       `mapstructure:"regime"`
	MetricsRetention int                `mapstructure:"metrics_retention"`
}

// defaultInstruments is used when no instruments are configured: the full
// fixed catalog, each at the engine's default parameters.
var defaultInstruments = []string{"USDJPY", "USDCAD", "AUDUSD", "EURUSD", "GBPUSD"}

// Load reads configuration from path (if non-empty) and from environment
// variables prefixed MACROSIGNAL_ (e.g. MACROSIGNAL_SERVER_PORT), falling
// back to built-in defaults for anything unset. A missing or unreadable
// file at an explicitly supplied path is a hard error; an empty path
// silently uses defaults plus environment overrides only.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MACROSIGNAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	if len(cfg.Instruments) == 0 {
		for _, pair := range defaultInstruments {
			cfg.Instruments = append(cfg.Instruments, InstrumentConfig{
				Pair: pair, NumPoints: 300, Window: 60, Seed: 42,
			})
		}
	} else {
		for i := range cfg.Instruments {
			applyInstrumentDefaults(&cfg.Instruments[i])
		}
	}

	return cfg, nil
}

// applyInstrumentDefaults fills the per-field defaults (num_points=300,
// window=60, seed=42) for any instrument entry that omitted them, so a
// config file that lists instruments by pair alone is still runnable.
func applyInstrumentDefaults(inst *InstrumentConfig) {
	if inst.NumPoints == 0 {
		inst.NumPoints = 300
	}
	if inst.Window == 0 {
		inst.Window = 60
	}
	if inst.Seed == 0 {
		inst.Seed = 42
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.enable_metrics", true)

	defaults := types.DefaultThresholds()
	v.SetDefault("thresholds.prec_t_eq", defaults.PrecEq)
	v.SetDefault("thresholds.prec_t_lb", defaults.PrecLB)
	v.SetDefault("thresholds.mood_t_eq", defaults.MoodEq)
	v.SetDefault("thresholds.mood_t_lb", defaults.MoodLB)
	v.SetDefault("thresholds.vix_infl_t", defaults.VixInflT)

	regimeDefaults := regime.DefaultConfig()
	v.SetDefault("regime.ema_alpha", regimeDefaults.EMAAlpha)
	v.SetDefault("regime.lower_bound", regimeDefaults.LowerBound)
	v.SetDefault("regime.psi", regimeDefaults.Psi)

	v.SetDefault("metrics_retention", 5000)
}

// EngineConfig resolves one InstrumentConfig plus the shared threshold and
// regime settings into an engine.Config ready for engine.New.
func (c Config) EngineConfig(inst InstrumentConfig) engine.Config {
	return engine.Config{
		PairName:  inst.Pair,
		NumPoints: inst.NumPoints,
		Window:    inst.Window,
		Seed:      inst.Seed,
		Thresholds: types.Thresholds{
			PrecEq:   c.Thresholds.PrecEq,
			PrecLB:   c.Thresholds.PrecLB,
			MoodEq:   c.Thresholds.MoodEq,
			MoodLB:   c.Thresholds.MoodLB,
			VixInflT: c.Thresholds.VixInflT,
		},
		Regime: regime.Config{
			EMAAlpha:   c.Regime.EMAAlpha,
			LowerBound: c.Regime.LowerBound,
			Psi:        c.Regime.Psi,
		},
		MetricsRetention: c.MetricsRetention,
	}
}
