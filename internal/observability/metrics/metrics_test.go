package metrics

import "testing"

func TestNewHTTPMetricsIdempotent(t *testing.T) {
	first, err := NewHTTPMetrics()
	if err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if first == nil {
		t.Fatal("expected metrics instance")
	}

	second, err := NewHTTPMetrics()
	if err != nil {
		t.Fatalf("re-registration failed: %v", err)
	}
	if second.requests != first.requests {
		t.Fatal("expected the existing request counter to be reused")
	}
	if second.duration != first.duration {
		t.Fatal("expected the existing duration histogram to be reused")
	}
}
