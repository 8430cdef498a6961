package app

import "testing"

func TestRuntimeConfigNormalizedDefaults(t *testing.T) {
	cfg := RuntimeConfig{}.normalized()
	if cfg.HTTPPort != defaultCalcHTTPPort {
		t.Fatalf("http port = %d", cfg.HTTPPort)
	}
	if cfg.HealthPort != defaultCalcHealthPort {
		t.Fatalf("health port = %d", cfg.HealthPort)
	}
	if cfg.DBPath != defaultCalcDB {
		t.Fatalf("db path = %q", cfg.DBPath)
	}
}

func TestRuntimeConfigNormalizedKeepsExplicitValues(t *testing.T) {
	cfg := RuntimeConfig{HTTPPort: 9100, HealthPort: 9101, DBPath: "/tmp/calc.db", Locale: "pt-BR"}.normalized()
	if cfg.HTTPPort != 9100 || cfg.HealthPort != 9101 {
		t.Fatalf("ports = %d/%d", cfg.HTTPPort, cfg.HealthPort)
	}
	if cfg.DBPath != "/tmp/calc.db" {
		t.Fatalf("db path = %q", cfg.DBPath)
	}
	if cfg.Locale != "pt-BR" {
		t.Fatalf("locale = %q", cfg.Locale)
	}
}
