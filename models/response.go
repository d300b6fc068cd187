package models

import "time"

// ScrapeResponse is the envelope for POST /scrape and POST /scrape/product-info.
type ScrapeResponse struct {
	// Success indicates whether the scrape produced data.
	Success bool `json:"success"`

	// Data is the raw payload (/scrape) or the product record
	// (/scrape/product-info). On a degraded product-info response it
	// carries the raw payload instead.
	Data any `json:"data,omitempty"`

	// Degraded is true when normalization could not complete and Data
	// holds the unmodified raw payload.
	Degraded bool `json:"degraded,omitempty"`

	// Source names the extraction path: a locator strategy or "dom".
	Source string `json:"source,omitempty"`

	// Message is a human-readable summary for successful responses.
	Message string `json:"message,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	TotalMs       int64 `json:"total_ms"`
	ScrapeMs      int64 `json:"scrape_ms"`
	NormalizingMs int64 `json:"normalizing_ms,omitempty"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status    string    `json:"status"` // "OK" or "degraded"
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`
	Version   string    `json:"version"`
}

// PoolStats reports browser session usage.
type PoolStats struct {
	MaxSessions    int `json:"max_sessions"`
	ActiveSessions int `json:"active_sessions"`
}
