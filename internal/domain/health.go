package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	Detail      string `json:"detail,omitempty"`
	LastChecked string `json:"lastChecked"`
}

// AssistantMetrics is returned by GET /v1/metrics/assistant.
type AssistantMetrics struct {
	TotalRequests       int64   `json:"totalRequests"`
	AvgLatencyMs        float64 `json:"avgLatencyMs"`
	ErrorRate           float64 `json:"errorRate"`
	FallbackRate        float64 `json:"fallbackRate"`
	AvgTokensPerRequest float64 `json:"avgTokensPerRequest"`
	EstimatedCostUsd    float64 `json:"estimatedCostUsd"`
	CacheHitRate        float64 `json:"cacheHitRate"`
	Period              string  `json:"period"`
}
