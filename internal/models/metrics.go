package models

import "time"

// SystemMetrics is an aggregated runtime snapshot for the health surface.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	UptimeSeconds            float64   `json:"uptime_seconds"`
	GeneratedAt              time.Time `json:"generated_at"`
}
