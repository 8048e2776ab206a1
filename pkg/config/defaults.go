package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "carebook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort = "8080"

	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 100
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultSlotGranularity    = 15 * time.Minute
	DefaultPaymentHoldTimeout = 10 * time.Second
	DefaultCompletionSweep    = 1 * time.Minute

	DefaultFreeCancelMin    = 24 * 60
	DefaultPartialRefundMin = 2 * 60
	DefaultPartialRefundPct = 50

	DefaultAppointmentEventsTopic = "appointment-events"

	DefaultPaginationLimit = 100
)
