package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	HTTPAddr     string
	DBDSN        string

	// Day-boundary policy for the business timezone.
	BookingTimezone      string
	CheckInTime          string // wall clock "HH:MM"
	CheckOutTime         string // wall clock "HH:MM"
	CheckInBufferMinutes int

	// Payment provider (Paystack).
	PaystackSecretKey string
	PaystackBaseURL   string
	InitTimeout       time.Duration
	InitMaxRetries    int
	InitRetryBase     time.Duration

	// Callback URL resolution chain for payment initialization.
	PublicAppURL string
	PlatformURL  string

	// Booking request reuse window for payment retries.
	ReuseWindow time.Duration

	// Optional Redis backing for the rate-limit store.
	RedisAddr string

	// Transactional email (disabled when unset).
	BrevoAPIKey     string
	EmailSender     string
	EmailSenderName string
	ManagerEmail    string

	// Reconciliation sweep.
	ReconcileCron                string
	ReconcileWindowDays          int
	ReconcilePendingTimeoutHours int
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		log.Printf("failed to load .env file: %v", err)
	}

	cfg := &Config{}

	// Application environment (default: dev)
	appEnvStr := getEnv("APP_ENV", "dev")
	cfg.IsProduction = appEnvStr == PROD_STRING

	// Production origin (default: empty)
	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")

	// HTTP listen address (default: :8080)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	// Database DSN is required
	cfg.DBDSN = os.Getenv("DB_DSN")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}

	cfg.BookingTimezone = getEnv("BOOKING_TIMEZONE", "Africa/Lagos")
	cfg.CheckInTime = getEnv("CHECK_IN_TIME", "12:45")
	cfg.CheckOutTime = getEnv("CHECK_OUT_TIME", "11:45")
	cfg.CheckInBufferMinutes, err = getEnvAsInt("CHECK_IN_BUFFER_MINUTES", 30)
	if err != nil {
		return nil, fmt.Errorf("invalid CHECK_IN_BUFFER_MINUTES: %w", err)
	}

	// Paystack secret is required to initialize and verify transactions
	cfg.PaystackSecretKey = os.Getenv("PAYSTACK_SECRET_KEY")
	if cfg.PaystackSecretKey == "" {
		return nil, fmt.Errorf("PAYSTACK_SECRET_KEY is required")
	}
	cfg.PaystackBaseURL = getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co")

	cfg.InitTimeout, err = getEnvAsDuration("PAYSTACK_INIT_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid PAYSTACK_INIT_TIMEOUT: %w", err)
	}
	cfg.InitMaxRetries, err = getEnvAsInt("PAYSTACK_INIT_MAX_RETRIES", 2)
	if err != nil {
		return nil, fmt.Errorf("invalid PAYSTACK_INIT_MAX_RETRIES: %w", err)
	}
	cfg.InitRetryBase, err = getEnvAsDuration("PAYSTACK_INIT_RETRY_BASE", 400*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("invalid PAYSTACK_INIT_RETRY_BASE: %w", err)
	}

	cfg.PublicAppURL = getEnv("PUBLIC_APP_URL", "")
	cfg.PlatformURL = getEnv("PLATFORM_URL", "")

	cfg.ReuseWindow, err = getEnvAsDuration("BOOKING_REQUEST_REUSE_WINDOW", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid BOOKING_REQUEST_REUSE_WINDOW: %w", err)
	}

	cfg.RedisAddr = getEnv("REDIS_ADDR", "")

	cfg.BrevoAPIKey = getEnv("BREVO_API_KEY", "")
	cfg.EmailSender = getEnv("EMAIL_SENDER", "")
	cfg.EmailSenderName = getEnv("EMAIL_SENDER_NAME", "")
	cfg.ManagerEmail = getEnv("MANAGER_EMAIL", "")

	cfg.ReconcileCron = getEnv("RECONCILE_CRON", "")
	cfg.ReconcileWindowDays, err = getEnvAsInt("RECONCILE_WINDOW_DAYS", 14)
	if err != nil {
		return nil, fmt.Errorf("invalid RECONCILE_WINDOW_DAYS: %w", err)
	}
	cfg.ReconcilePendingTimeoutHours, err = getEnvAsInt("RECONCILE_PENDING_TIMEOUT_HOURS", 24)
	if err != nil {
		return nil, fmt.Errorf("invalid RECONCILE_PENDING_TIMEOUT_HOURS: %w", err)
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
// It returns an error if the variable is set but is not a valid integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		// Return 0 and a wrapped error to provide context
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}

// getEnvAsDuration retrieves an environment variable as a time.Duration
// (e.g. "10s", "400ms", "10m"), falling back to the default when unset.
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid duration: %w", key, valStr, err)
	}

	return val, nil
}
