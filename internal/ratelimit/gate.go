package ratelimit

import (
	"os"
	"strconv"
	"strings"
)

// Config carries the limits the gate enforces. A Rate of 0 disables limiting.
type Config struct {
	// Rate is the default requests/s each project may spend, across all
	// providers without their own override.
	Rate float64
	// Burst is the bucket capacity; 0 means twice the rate.
	Burst float64
	// ProviderRates overrides the rate for individual providers, keyed by
	// catalog provider ID.
	ProviderRates map[string]float64
}

// ConfigFromEnv reads RATE_LIMIT_RPS, RATE_LIMIT_BURST, and per-provider
// RATE_LIMIT_RPS_<PROVIDER> overrides (AZURE_OPENAI maps to azure-openai).
// Unset means limiting is off.
func ConfigFromEnv() Config {
	cfg := Config{
		Rate:          envFloat("RATE_LIMIT_RPS", 0),
		Burst:         envFloat("RATE_LIMIT_BURST", 0),
		ProviderRates: map[string]float64{},
	}

	const prefix = "RATE_LIMIT_RPS_"
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, prefix) || name == "RATE_LIMIT_RPS" {
			continue
		}
		rate, err := strconv.ParseFloat(value, 64)
		if err != nil || rate <= 0 {
			continue
		}
		provider := strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(name, prefix), "_", "-"))
		cfg.ProviderRates[provider] = rate
	}
	return cfg
}

func envFloat(name string, fallback float64) float64 {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return f
}

// Gate applies per-project token buckets on the forwarder path. Providers
// named in the config draw from their own buckets; everything else shares the
// project's default bucket.
type Gate struct {
	def       *Store
	overrides map[string]*Store
}

// NewGate builds a gate from cfg. A nil return means limiting is disabled.
func NewGate(cfg Config) *Gate {
	if cfg.Rate <= 0 && len(cfg.ProviderRates) == 0 {
		return nil
	}

	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.Rate * 2
	}

	g := &Gate{overrides: make(map[string]*Store, len(cfg.ProviderRates))}
	if cfg.Rate > 0 {
		g.def = NewStore(cfg.Rate, burst)
	}
	for provider, rate := range cfg.ProviderRates {
		g.overrides[provider] = NewStore(rate, rate*2)
	}
	return g
}

// Allow reports whether project may spend one request against provider right
// now. A nil gate, or a provider/default pair with no configured rate, always
// allows.
func (g *Gate) Allow(project, provider string) bool {
	if g == nil {
		return true
	}
	if s, ok := g.overrides[provider]; ok {
		// Override buckets are still per project, scoped to the provider.
		return s.Allow(project)
	}
	if g.def == nil {
		return true
	}
	return g.def.Allow(project)
}
