package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestHTTPSeriesShareServicePrefix(t *testing.T) {
	registry := prometheus.NewRegistry()
	Register(registry)

	RequestCount.WithLabelValues("GET", "/portfolio", "200").Inc()
	RequestDuration.WithLabelValues("GET", "/portfolio", "200").Observe(0.01)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	want := map[string]bool{
		"bank_http_requests_total":           false,
		"bank_http_request_duration_seconds": false,
	}
	for _, fam := range families {
		if _, ok := want[fam.GetName()]; ok {
			want[fam.GetName()] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("series %s not registered", name)
		}
	}
}
