package models

import "time"

// SystemMetrics is the JSON summary served to administrators next to the Prometheus endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64    `json:"cache_hit_ratio"`
	CacheHits                uint64     `json:"cache_hits"`
	CacheMisses              uint64     `json:"cache_misses"`
	RequestsTotal            uint64     `json:"requests_total"`
	AverageRequestDurationMs float64    `json:"average_request_duration_ms"`
	PaymentRunsTotal         uint64     `json:"payment_runs_total"`
	LastPaymentRun           *time.Time `json:"last_payment_run,omitempty"`
	Goroutines               int        `json:"goroutines"`
	GeneratedAt              time.Time  `json:"generated_at"`
}
