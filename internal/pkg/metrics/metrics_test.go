package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.ObserveRequest("image", "ok")
	m.ObserveRequest("image", "ok")
	m.ObserveRequest("video", "error")
	m.ObserveZone("red")
	m.CacheHit(LayerRedis)

	if got := testutil.ToFloat64(m.Requests.WithLabelValues("image", "ok")); got != 2 {
		t.Errorf("Expected 2 image requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.DangerZones.WithLabelValues("red")); got != 1 {
		t.Errorf("Expected 1 red zone, got %v", got)
	}
	if got := testutil.ToFloat64(m.CacheHits.WithLabelValues(LayerRedis)); got != 1 {
		t.Errorf("Expected 1 redis hit, got %v", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveAnalysis("video", 3*time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{"hazard_analysis_seconds_bucket", `media_type="video"`, "go_goroutines"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("Expected %q in metrics output", want)
		}
	}
}
