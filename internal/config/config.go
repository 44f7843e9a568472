package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage modes for download links.
const (
	StorageModeS3      = "s3"
	StorageModeOffline = "offline"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress     string
	DatabaseURI    string
	AutoMigrate    bool
	LogLevel       string
	FrontendURL    string
	AdminTokenHash string
	MaxRequestBody int64

	StripeSecretKey     string
	StripeWebhookSecret string
	PaymentCurrency     string
	MaxPaymentAttempts  int

	StorageMode        string
	AWSRegion          string
	AWSBucketName      string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	DownloadKeyPrefix  string
	DownloadKeyExt     string
	DownloadURLExpiry  time.Duration
	OfflineBaseURL     string

	EmailHost     string
	EmailPort     int
	EmailUser     string
	EmailPassword string
	EmailFrom     string

	RedisAddress    string
	RedisPassword   string
	RedisDB         int
	WebhookEventTTL time.Duration

	UpstreamTimeout   time.Duration
	ReconcileInterval time.Duration
	ReconcileAfter    time.Duration
	WorkerPoolSize    int
	ReconcileBatch    int
	ShutdownTimeout   time.Duration
}

// EmailEnabled reports whether SMTP delivery is configured.
func (c *Config) EmailEnabled() bool {
	return c.EmailHost != "" && c.EmailFrom != ""
}

const (
	defaultRunAddress         = ":8080"
	defaultLogLevel           = "info"
	defaultFrontendURL        = "http://localhost:3000"
	defaultMaxRequestBody     = 1 << 20
	defaultPaymentCurrency    = "usd"
	defaultMaxPaymentAttempts = 5
	defaultStorageMode        = StorageModeS3
	defaultAWSRegion          = "us-east-1"
	defaultDownloadKeyPrefix  = "products/"
	defaultDownloadKeyExt     = ".dwg"
	defaultDownloadURLExpiry  = 15 * time.Minute
	defaultEmailPort          = 587
	defaultWebhookEventTTL    = 72 * time.Hour
	defaultUpstreamTimeout    = 10 * time.Second
	defaultReconcileInterval  = time.Minute
	defaultReconcileAfter     = 10 * time.Minute
	defaultWorkerPoolSize     = 4
	defaultReconcileBatch     = 32
	defaultShutdownTimeout    = 10 * time.Second
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:     getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:    getString(lookup, "DATABASE_URI", ""),
		AutoMigrate:    getBool(lookup, "AUTO_MIGRATE", false),
		LogLevel:       getString(lookup, "LOG_LEVEL", defaultLogLevel),
		FrontendURL:    getString(lookup, "FRONTEND_URL", defaultFrontendURL),
		AdminTokenHash: getString(lookup, "ADMIN_TOKEN_HASH", ""),
		MaxRequestBody: int64(getInt(lookup, "MAX_REQUEST_BODY", defaultMaxRequestBody)),

		StripeSecretKey:     getString(lookup, "STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getString(lookup, "STRIPE_WEBHOOK_SECRET", ""),
		PaymentCurrency:     getString(lookup, "PAYMENT_CURRENCY", defaultPaymentCurrency),
		MaxPaymentAttempts:  getInt(lookup, "MAX_PAYMENT_ATTEMPTS", defaultMaxPaymentAttempts),

		StorageMode:        getString(lookup, "STORAGE_MODE", defaultStorageMode),
		AWSRegion:          getString(lookup, "AWS_REGION", defaultAWSRegion),
		AWSBucketName:      getString(lookup, "AWS_BUCKET_NAME", ""),
		AWSAccessKeyID:     getString(lookup, "AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getString(lookup, "AWS_SECRET_ACCESS_KEY", ""),
		DownloadKeyPrefix:  getString(lookup, "DOWNLOAD_KEY_PREFIX", defaultDownloadKeyPrefix),
		DownloadKeyExt:     getString(lookup, "DOWNLOAD_KEY_EXT", defaultDownloadKeyExt),
		DownloadURLExpiry:  getDuration(lookup, "DOWNLOAD_URL_EXPIRY", defaultDownloadURLExpiry),
		OfflineBaseURL:     getString(lookup, "OFFLINE_BASE_URL", ""),

		EmailHost:     getString(lookup, "EMAIL_HOST", ""),
		EmailPort:     getInt(lookup, "EMAIL_PORT", defaultEmailPort),
		EmailUser:     getString(lookup, "EMAIL_USER", ""),
		EmailPassword: getString(lookup, "EMAIL_PASSWORD", ""),
		EmailFrom:     getString(lookup, "EMAIL_FROM", ""),

		RedisAddress:    getString(lookup, "REDIS_ADDRESS", ""),
		RedisPassword:   getString(lookup, "REDIS_PASSWORD", ""),
		RedisDB:         getInt(lookup, "REDIS_DB", 0),
		WebhookEventTTL: getDuration(lookup, "WEBHOOK_EVENT_TTL", defaultWebhookEventTTL),

		UpstreamTimeout:   getDuration(lookup, "UPSTREAM_TIMEOUT", defaultUpstreamTimeout),
		ReconcileInterval: getDuration(lookup, "RECONCILE_INTERVAL", defaultReconcileInterval),
		ReconcileAfter:    getDuration(lookup, "RECONCILE_AFTER", defaultReconcileAfter),
		WorkerPoolSize:    getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		ReconcileBatch:    getInt(lookup, "RECONCILE_BATCH", defaultReconcileBatch),
		ShutdownTimeout:   getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}

	fs := flag.NewFlagSet("archstore", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		reconcileIntervalStr = cfg.ReconcileInterval.String()
		upstreamTimeoutStr   = cfg.UpstreamTimeout.String()
		shutdownTimeoutStr   = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.BoolVar(&cfg.AutoMigrate, "migrate", cfg.AutoMigrate, "Apply database migrations on start")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.StorageMode, "storage-mode", cfg.StorageMode, "Download link mode: s3 or offline")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent reconcile workers")
	fs.IntVar(&cfg.ReconcileBatch, "reconcile-batch", cfg.ReconcileBatch, "Maximum orders per reconcile batch")
	fs.StringVar(&reconcileIntervalStr, "reconcile-interval", reconcileIntervalStr, "Interval between reconcile passes, 0 disables")
	fs.StringVar(&upstreamTimeoutStr, "upstream-timeout", upstreamTimeoutStr, "Timeout for database and provider calls")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.ReconcileInterval, err = time.ParseDuration(reconcileIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid reconcile interval: %w", err)
	}

	if cfg.UpstreamTimeout, err = time.ParseDuration(upstreamTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid upstream timeout: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.StripeSecretKey, err = fromFile(lookup, "STRIPE_SECRET_KEY_FILE", cfg.StripeSecretKey); err != nil {
		return nil, err
	}
	if cfg.StripeWebhookSecret, err = fromFile(lookup, "STRIPE_WEBHOOK_SECRET_FILE", cfg.StripeWebhookSecret); err != nil {
		return nil, err
	}

	normalize(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func normalize(cfg *Config) {
	cfg.PaymentCurrency = strings.ToLower(strings.TrimSpace(cfg.PaymentCurrency))
	cfg.StorageMode = strings.ToLower(strings.TrimSpace(cfg.StorageMode))
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	cfg.OfflineBaseURL = strings.TrimRight(cfg.OfflineBaseURL, "/")

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.ReconcileBatch <= 0 {
		cfg.ReconcileBatch = defaultReconcileBatch
	}

	// Zero or negative interval turns the reconciler off.
	if cfg.ReconcileInterval < 0 {
		cfg.ReconcileInterval = 0
	}

	if cfg.ReconcileAfter <= 0 {
		cfg.ReconcileAfter = defaultReconcileAfter
	}

	if cfg.UpstreamTimeout <= 0 {
		cfg.UpstreamTimeout = defaultUpstreamTimeout
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.DownloadURLExpiry <= 0 {
		cfg.DownloadURLExpiry = defaultDownloadURLExpiry
	}

	if cfg.WebhookEventTTL <= 0 {
		cfg.WebhookEventTTL = defaultWebhookEventTTL
	}

	if cfg.MaxPaymentAttempts <= 0 {
		cfg.MaxPaymentAttempts = defaultMaxPaymentAttempts
	}

	if cfg.MaxRequestBody <= 0 {
		cfg.MaxRequestBody = defaultMaxRequestBody
	}

	if cfg.PaymentCurrency == "" {
		cfg.PaymentCurrency = defaultPaymentCurrency
	}
}

func validate(cfg *Config) error {
	if cfg.DatabaseURI == "" {
		return fmt.Errorf("database URI must be provided")
	}

	switch cfg.StorageMode {
	case StorageModeS3:
		if cfg.AWSBucketName == "" {
			return fmt.Errorf("bucket name must be provided in %s storage mode", StorageModeS3)
		}
	case StorageModeOffline:
		if cfg.OfflineBaseURL == "" {
			return fmt.Errorf("offline base URL must be provided in %s storage mode", StorageModeOffline)
		}
	default:
		return fmt.Errorf("unknown storage mode %q", cfg.StorageMode)
	}

	if (cfg.AWSAccessKeyID == "") != (cfg.AWSSecretAccessKey == "") {
		return fmt.Errorf("AWS access key id and secret access key must be set together")
	}

	return nil
}

func fromFile(lookup envLookup, key, current string) (string, error) {
	path, ok := lookup(key)
	if !ok || path == "" {
		return current, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(key), err)
	}
	return strings.TrimSpace(string(content)), nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getBool(lookup envLookup, key string, def bool) bool {
	if v, ok := lookup(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
