package shared

import "time"

// HTTP Configuration
const (
	DefaultPort            = 5000
	DefaultRequestTimeout  = 30 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	MaxRequestBodyBytes    = 8 << 20
)

// Cache Configuration
const (
	PredictionCacheTTL          = 10 * time.Minute
	PredictionCacheTimeout      = 50 * time.Millisecond
	PredictionCacheWriteTimeout = 1 * time.Second
	PredictionCachePrefix       = "predict:v1"
)

// API Configuration
const (
	APIKeyLength = 32
)

// Bucket Configuration
const (
	BucketFlushInterval = 1 * time.Minute
	BucketRetryDelay    = 5 * time.Second
	MaxBucketSize       = 500
	MaxFlushRetries     = 3
)
