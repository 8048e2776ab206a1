package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvSlotGranularity    = "SLOT_GRANULARITY"
	EnvPaymentHoldTimeout = "PAYMENT_HOLD_TIMEOUT"
	EnvCompletionSweep    = "COMPLETION_SWEEP_INTERVAL"

	EnvFreeCancelMin    = "FREE_CANCEL_MIN"
	EnvPartialRefundMin = "PARTIAL_REFUND_MIN"
	EnvPartialRefundPct = "PARTIAL_REFUND_PCT"

	EnvAppointmentEventsTopic = "APPOINTMENT_EVENTS_TOPIC"
	EnvStripeSecretKey        = "STRIPE_SECRET_KEY"
)
