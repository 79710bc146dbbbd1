package dto

import "time"

// MetricsSnapshot is the JSON summary served next to the Prometheus endpoint.
type MetricsSnapshot struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	RemoteCalls              uint64    `json:"remoteCalls"`
	RemoteErrors             uint64    `json:"remoteErrors"`
	AverageRemoteDurationMs  float64   `json:"averageRemoteDurationMs"`
	StaleResponses           uint64    `json:"staleResponses"`
	OpenViews                int       `json:"openViews"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
