package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv  string
	AppPort string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	GatewayBaseURL string
	GatewayKeyID   string
	GatewaySecret  string

	FulfillmentBaseURL  string
	FulfillmentEmail    string
	FulfillmentPassword string

	RabbitMQURL   string
	OrderExchange string

	SMSBaseURL string
	SMSAPIKey  string
	SMSSender  string

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	AdminJWTSecret string

	// Fixed advance charged through the gateway on COD orders, minor units.
	CODTokenMinor int64

	PaymentReconcileInterval     time.Duration
	FulfillmentReconcileInterval time.Duration
	OutboxDispatchInterval       time.Duration
	// A pending payment younger than this is left to the real-time callback.
	PendingPaymentAge time.Duration
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:  os.Getenv("APP_ENV"),
		AppPort: getenv("APP_PORT", "8080"),

		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     getenv("DB_PORT", "5432"),

		GatewayBaseURL: getenv("GATEWAY_BASE_URL", "https://api.razorpay.com"),
		GatewayKeyID:   os.Getenv("GATEWAY_KEY_ID"),
		GatewaySecret:  os.Getenv("GATEWAY_SECRET"),

		FulfillmentBaseURL:  os.Getenv("FULFILLMENT_BASE_URL"),
		FulfillmentEmail:    os.Getenv("FULFILLMENT_EMAIL"),
		FulfillmentPassword: os.Getenv("FULFILLMENT_PASSWORD"),

		RabbitMQURL:   os.Getenv("RABBITMQ_URL"),
		OrderExchange: getenv("ORDER_EXCHANGE", "kirana.orders"),

		SMSBaseURL: os.Getenv("SMS_BASE_URL"),
		SMSAPIKey:  os.Getenv("SMS_API_KEY"),
		SMSSender:  os.Getenv("SMS_SENDER"),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: getenv("SMTP_PORT", "587"),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		SMTPFrom: os.Getenv("SMTP_FROM"),

		AdminJWTSecret: os.Getenv("ADMIN_JWT_SECRET"),

		CODTokenMinor: getenvInt64("COD_TOKEN_MINOR", 100000),

		PaymentReconcileInterval:     getenvDuration("PAYMENT_RECONCILE_INTERVAL", 5*time.Minute),
		FulfillmentReconcileInterval: getenvDuration("FULFILLMENT_RECONCILE_INTERVAL", 15*time.Minute),
		OutboxDispatchInterval:       getenvDuration("OUTBOX_DISPATCH_INTERVAL", 10*time.Second),
		PendingPaymentAge:            getenvDuration("PENDING_PAYMENT_AGE", 10*time.Minute),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return n
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return d
}
