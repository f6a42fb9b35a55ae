package config

import "testing"

func TestLoadWithoutPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("port = %d, want 8080", cfg.Server.Port)
	}
	if len(cfg.Instruments) != 5 {
		t.Fatalf("expected default catalog of 5 instruments, got %d", len(cfg.Instruments))
	}
	if cfg.Thresholds.PrecEq != 0.15 {
		t.Fatalf("prec_t_eq = %v, want 0.15", cfg.Thresholds.PrecEq)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.yaml"); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestEngineConfigResolvesInstrument(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ec := cfg.EngineConfig(cfg.Instruments[0])
	if ec.PairName != cfg.Instruments[0].Pair {
		t.Fatalf("pair mismatch: %s vs %s", ec.PairName, cfg.Instruments[0].Pair)
	}
	if ec.NumPoints != 300 || ec.Window != 60 {
		t.Fatalf("unexpected resolved engine config: %+v", ec)
	}
}
