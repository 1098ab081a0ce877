package config

import "time"

// Application constants
const (
	AppName    = "holdlens"
	AppVersion = "0.4.0"

	// Server
	DefaultPort           = 8000
	DefaultMaxUploadBytes = 10 << 20
	DefaultRateLimit      = 20 // requests per second
	DefaultBurstSize      = 40
	DefaultLogFile        = "logs/holdlens.log"

	// Storage backends
	StorageBackendS3    = "s3"
	StorageBackendLocal = "local"

	DefaultBucket    = "holdlens-portfolios"
	DefaultRegion    = "ap-south-1"
	DefaultKeyPrefix = "portfolios"

	// AI insights
	DefaultAIModel         = "gemini-2.5-flash"
	DefaultAITimeout       = 200 * time.Second
	DefaultMaxOutputTokens = 4096
	DefaultMaxPromptChars  = 2000
	DefaultCurrency        = "INR"
)
