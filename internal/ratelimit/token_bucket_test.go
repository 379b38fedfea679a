package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinBurst(t *testing.T) {
	l := New(10, 5)
	for i := 0; i < 5; i++ {
		if !l.Allow() {
			t.Fatalf("expected allow on request %d within burst", i+1)
		}
	}
}

func TestBlockWhenDepleted(t *testing.T) {
	l := New(10, 2)
	l.Allow()
	l.Allow()
	if l.Allow() {
		t.Fatal("expected rate limit after burst exhausted")
	}
}

func TestRefillOverTime(t *testing.T) {
	l := New(1000, 1) // 1000 rps, burst 1
	l.Allow()         // exhaust the burst
	time.Sleep(2 * time.Millisecond)
	if !l.Allow() {
		t.Fatal("expected allow after refill")
	}
}

func TestStoreCreatesPerProjectLimiters(t *testing.T) {
	s := NewStore(100, 10)
	for i := 0; i < 10; i++ {
		if !s.Allow("checkout") {
			t.Fatalf("expected allow on checkout request %d", i+1)
		}
	}
	// A second project gets its own fresh bucket.
	if !s.Allow("search") {
		t.Fatal("expected allow on search (fresh limiter)")
	}
}

func TestGateNilAllowsEverything(t *testing.T) {
	var g *Gate
	if !g.Allow("any", "openai") {
		t.Fatal("nil gate must allow")
	}
	if NewGate(Config{}) != nil {
		t.Fatal("empty config must disable the gate")
	}
}

func TestGateProjectsAreIsolated(t *testing.T) {
	g := NewGate(Config{Rate: 1, Burst: 2})

	g.Allow("checkout", "openai")
	g.Allow("checkout", "anthropic")
	if g.Allow("checkout", "openai") {
		t.Fatal("expected checkout to be limited after its burst")
	}
	if !g.Allow("search", "openai") {
		t.Fatal("expected search to have its own bucket")
	}
}

func TestGateProviderOverride(t *testing.T) {
	g := NewGate(Config{
		Rate:          100,
		Burst:         50,
		ProviderRates: map[string]float64{"replicate": 0.5},
	})

	// replicate draws from its own 0.5 rps bucket (burst 1).
	if !g.Allow("batch", "replicate") {
		t.Fatal("expected first replicate request to pass")
	}
	if g.Allow("batch", "replicate") {
		t.Fatal("expected replicate override to limit the second request")
	}
	// The default bucket is untouched by the override spend.
	if !g.Allow("batch", "openai") {
		t.Fatal("expected openai to use the default bucket")
	}
}

func TestGateOverrideOnlyConfig(t *testing.T) {
	g := NewGate(Config{ProviderRates: map[string]float64{"gemini": 1}})
	if g == nil {
		t.Fatal("override-only config must still build a gate")
	}
	// No default rate: other providers are unlimited.
	for i := 0; i < 20; i++ {
		if !g.Allow("default", "openai") {
			t.Fatal("expected unlimited default when no base rate is set")
		}
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("RATE_LIMIT_RPS", "25")
	t.Setenv("RATE_LIMIT_BURST", "60")
	t.Setenv("RATE_LIMIT_RPS_AZURE_OPENAI", "5")
	t.Setenv("RATE_LIMIT_RPS_BROKEN", "not-a-number")

	cfg := ConfigFromEnv()
	if cfg.Rate != 25 || cfg.Burst != 60 {
		t.Errorf("expected rate 25 burst 60, got %v %v", cfg.Rate, cfg.Burst)
	}
	if cfg.ProviderRates["azure-openai"] != 5 {
		t.Errorf("expected azure-openai override 5, got %v", cfg.ProviderRates["azure-openai"])
	}
	if _, ok := cfg.ProviderRates["broken"]; ok {
		t.Error("unparseable override must be ignored")
	}
}
