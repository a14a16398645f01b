package service

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceSnapshotAggregates(t *testing.T) {
	svc := NewMetricsService()

	svc.RecordHTTPRequest("GET", "/api/v1/customers", 200, 10*time.Millisecond)
	svc.RecordHTTPRequest("GET", "/api/v1/customers", 200, 30*time.Millisecond)
	svc.RecordCacheLookup(true, time.Millisecond)
	svc.RecordCacheLookup(true, time.Millisecond)
	svc.RecordCacheLookup(false, time.Millisecond)
	svc.RecordCacheWrite(time.Millisecond)

	snap := svc.Snapshot()
	assert.Equal(t, uint64(2), snap.RequestsTotal)
	assert.InDelta(t, 20.0, snap.AverageRequestDurationMs, 0.01)
	assert.Equal(t, uint64(2), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
	assert.InDelta(t, 2.0/3.0, snap.CacheHitRatio, 0.001)
	assert.GreaterOrEqual(t, snap.UptimeSeconds, 0.0)
	assert.False(t, snap.GeneratedAt.IsZero())
}

func TestMetricsServiceScrapeExposesCollectors(t *testing.T) {
	svc := NewMetricsService()
	svc.RecordHTTPRequest("GET", "/health", 200, time.Millisecond)
	svc.RecordCacheLookup(false, time.Millisecond)

	rec := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, `billing_cache_lookups_total{result="miss"} 1`)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var svc *MetricsService
	svc.RecordHTTPRequest("GET", "/", 200, time.Millisecond)
	svc.RecordCacheLookup(true, time.Millisecond)
	svc.RecordCacheWrite(time.Millisecond)

	assert.Equal(t, uint64(0), svc.Snapshot().RequestsTotal)

	rec := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 503, rec.Code)
}
