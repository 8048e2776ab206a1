package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"carebook/pkg/client"
	"carebook/pkg/logger"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	SlotGranularity    time.Duration
	PaymentHoldTimeout time.Duration
	CompletionSweep    time.Duration

	FreeCancelMin    int
	PartialRefundMin int
	PartialRefundPct int

	AppointmentEventsTopic string
	StripeSecretKey        string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		SlotGranularity:    getEnvDuration(EnvSlotGranularity, DefaultSlotGranularity),
		PaymentHoldTimeout: getEnvDuration(EnvPaymentHoldTimeout, DefaultPaymentHoldTimeout),
		CompletionSweep:    getEnvDuration(EnvCompletionSweep, DefaultCompletionSweep),

		FreeCancelMin:    getEnvNum(EnvFreeCancelMin, DefaultFreeCancelMin),
		PartialRefundMin: getEnvNum(EnvPartialRefundMin, DefaultPartialRefundMin),
		PartialRefundPct: getEnvNum(EnvPartialRefundPct, DefaultPartialRefundPct),

		AppointmentEventsTopic: getEnvStr(EnvAppointmentEventsTopic, DefaultAppointmentEventsTopic),
		StripeSecretKey:        getEnvStr(EnvStripeSecretKey, ""),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    "json",
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	err := cfg.Validate()
	if err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}

	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.SlotGranularity < time.Minute {
		errors = append(errors, fmt.Sprintf("SlotGranularity must be at least 1m, got: %s", cfg.SlotGranularity))
	}
	if cfg.PaymentHoldTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("PaymentHoldTimeout must be positive, got: %s", cfg.PaymentHoldTimeout))
	}
	if cfg.CompletionSweep <= 0 {
		errors = append(errors, fmt.Sprintf("CompletionSweep must be positive, got: %s", cfg.CompletionSweep))
	}

	if cfg.FreeCancelMin < 0 {
		errors = append(errors, fmt.Sprintf("FreeCancelMin cannot be negative, got: %d", cfg.FreeCancelMin))
	}
	if cfg.PartialRefundMin < 0 {
		errors = append(errors, fmt.Sprintf("PartialRefundMin cannot be negative, got: %d", cfg.PartialRefundMin))
	}
	if cfg.FreeCancelMin < cfg.PartialRefundMin {
		errors = append(errors, fmt.Sprintf("FreeCancelMin (%d) must be >= PartialRefundMin (%d)", cfg.FreeCancelMin, cfg.PartialRefundMin))
	}
	if cfg.PartialRefundPct < 0 || cfg.PartialRefundPct > 100 {
		errors = append(errors, fmt.Sprintf("PartialRefundPct must be between 0 and 100, got: %d", cfg.PartialRefundPct))
	}

	if cfg.AppointmentEventsTopic == "" {
		errors = append(errors, "AppointmentEventsTopic cannot be empty")
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"slot_granularity", cfg.SlotGranularity,
		"payment_hold_timeout", cfg.PaymentHoldTimeout,
		"completion_sweep", cfg.CompletionSweep,
		"free_cancel_min", cfg.FreeCancelMin,
		"partial_refund_min", cfg.PartialRefundMin,
		"partial_refund_pct", cfg.PartialRefundPct,
		"appointment_events_topic", cfg.AppointmentEventsTopic,
		"stripe_key_set", cfg.StripeSecretKey != "",
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}

func (cfg *Config) DefaultPolicy() (freeCancelMin, partialRefundMin, partialRefundPct int) {
	return cfg.FreeCancelMin, cfg.PartialRefundMin, cfg.PartialRefundPct
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
