package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// gatherFamily returns the named metric family from the default registry, or
// nil when it has no samples yet.
func gatherFamily(t *testing.T, name string) *dto.MetricFamily {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func findMetric(mf *dto.MetricFamily, labels map[string]string) *dto.Metric {
	if mf == nil {
		return nil
	}
	for _, m := range mf.GetMetric() {
		if matchesLabels(m, labels) {
			return m
		}
	}
	return nil
}

func matchesLabels(m *dto.Metric, labels map[string]string) bool {
	for name, value := range labels {
		found := false
		for _, lp := range m.GetLabel() {
			if lp.GetName() == name && lp.GetValue() == value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func TestProxyRequestsCounter(t *testing.T) {
	ProxyRequests.WithLabelValues("openai", "2xx").Add(3)

	mf := gatherFamily(t, "bridge_proxy_requests_total")
	m := findMetric(mf, map[string]string{"provider": "openai", "status": "2xx"})
	if m == nil {
		t.Fatal("no sample for provider=openai status=2xx")
	}
	if got := m.GetCounter().GetValue(); got != 3 {
		t.Errorf("counter = %v, want 3", got)
	}
}

func TestCircuitStateGauge(t *testing.T) {
	CircuitState.WithLabelValues("cohere").Set(1)

	mf := gatherFamily(t, "bridge_circuit_state")
	m := findMetric(mf, map[string]string{"provider": "cohere"})
	if m == nil {
		t.Fatal("no sample for provider=cohere")
	}
	if got := m.GetGauge().GetValue(); got != 1 {
		t.Errorf("gauge = %v, want 1 (open)", got)
	}
}

func TestProxyDurationHistogram(t *testing.T) {
	ProxyDuration.WithLabelValues("gemini").Observe(0.2)
	ProxyDuration.WithLabelValues("gemini").Observe(1.8)

	mf := gatherFamily(t, "bridge_proxy_request_duration_seconds")
	m := findMetric(mf, map[string]string{"provider": "gemini"})
	if m == nil {
		t.Fatal("no sample for provider=gemini")
	}
	if got := m.GetHistogram().GetSampleCount(); got != 2 {
		t.Errorf("sample count = %d, want 2", got)
	}
}

func TestTokenValidationOutcomes(t *testing.T) {
	TokenValidations.WithLabelValues("expired").Inc()
	TokenValidations.WithLabelValues("expired").Inc()

	mf := gatherFamily(t, "bridge_token_validations_total")
	m := findMetric(mf, map[string]string{"outcome": "expired"})
	if m == nil {
		t.Fatal("no sample for outcome=expired")
	}
	if got := m.GetCounter().GetValue(); got != 2 {
		t.Errorf("counter = %v, want 2", got)
	}
}
