package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	DB        PostgresConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	VNPay     VNPayConfig
	Shipping  ShippingConfig
	Frontend  FrontendConfig
	Reconcile ReconcileConfig
}

type AppConfig struct {
	Name string
	Env  string
}

type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

type StorageConfig struct {
	Driver string
}

type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	CartTTL        time.Duration
	IdempotencyTTL time.Duration
}

type KafkaConfig struct {
	Brokers       []string
	OrderTopic    string
	ConsumerGroup string
}

// VNPayConfig chứa thông tin merchant do VNPAY cấp. HashSecret không bao giờ được log.
type VNPayConfig struct {
	TmnCode        string
	HashSecret     string
	PayURL         string
	APIURL         string
	ReturnURL      string
	Locale         string
	ExpireMinutes  int
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryBackoff   time.Duration
}

type ShippingConfig struct {
	FlatFee          int64
	FreeFromSubtotal int64
}

type FrontendConfig struct {
	PaymentResultURL string
}

// ReconcileConfig cho job quét querydr. Interval 0 tắt job.
type ReconcileConfig struct {
	Interval time.Duration
	MinAge   time.Duration
	Workers  int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name: getEnv("APP_NAME", "xt-fashion-api"),
			Env:  getEnv("APP_ENV", "local"),
		},
		Server: ServerConfig{
			Host:            getEnv("HTTP_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("HTTP_PORT", 8030),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		DB: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			DBName:   getEnv("POSTGRES_DB", "xtfashion"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 10),
		},
		Storage: StorageConfig{
			Driver: getEnv("STORAGE_DRIVER", StorageDriverPostgres),
		},
		Redis: RedisConfig{
			Addr:           getEnv("REDIS_ADDR", "localhost:6379"),
			Password:       getEnv("REDIS_PASSWORD", ""),
			DB:             getEnvAsInt("REDIS_DB", 0),
			CartTTL:        getEnvAsDuration("CART_TTL", 7*24*time.Hour),
			IdempotencyTTL: getEnvAsDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers:       splitAndTrim(getEnv("KAFKA_BOOTSTRAP_SERVERS", "localhost:9092")),
			OrderTopic:    getEnv("KAFKA_ORDER_TOPIC", "xtfashion.order-events"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "xtfashion-order-events"),
		},
		VNPay: VNPayConfig{
			TmnCode:        getEnv("VNP_TMN_CODE", ""),
			HashSecret:     getEnv("VNP_HASH_SECRET", ""),
			PayURL:         getEnv("VNP_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"),
			APIURL:         getEnv("VNP_API_URL", "https://sandbox.vnpayment.vn/merchant_webapi/api/transaction"),
			ReturnURL:      getEnv("VNP_RETURN_URL", "http://localhost:8030/api/payment/vnpay_return"),
			Locale:         getEnv("VNP_LOCALE", "vn"),
			ExpireMinutes:  getEnvAsInt("VNP_EXPIRE_MINUTES", 15),
			RequestTimeout: getEnvAsDuration("VNP_REQUEST_TIMEOUT", 10*time.Second),
			RetryAttempts:  getEnvAsInt("VNP_RETRY_ATTEMPTS", 2),
			RetryBackoff:   getEnvAsDuration("VNP_RETRY_BACKOFF", 500*time.Millisecond),
		},
		Shipping: ShippingConfig{
			FlatFee:          int64(getEnvAsInt("SHIPPING_FEE", 30000)),
			FreeFromSubtotal: int64(getEnvAsInt("FREE_SHIPPING_THRESHOLD", 2000000)),
		},
		Frontend: FrontendConfig{
			PaymentResultURL: getEnv("FRONTEND_PAYMENT_RESULT_URL", "http://localhost:3000/payment/result"),
		},
		Reconcile: ReconcileConfig{
			Interval: getEnvAsDuration("PAYMENT_RECONCILE_INTERVAL", 5*time.Minute),
			MinAge:   getEnvAsDuration("PAYMENT_RECONCILE_MIN_AGE", 20*time.Minute),
			Workers:  getEnvAsInt("PAYMENT_RECONCILE_WORKERS", 4),
		},
	}

	return cfg, cfg.validate()
}

func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User,
		p.Password,
		p.Host,
		p.Port,
		p.DBName,
		p.SSLMode,
	)
}

// MigrateURL là DSN cho golang-migrate driver pgx/v5.
func (p PostgresConfig) MigrateURL() string {
	return "pgx5" + strings.TrimPrefix(p.DSN(), "postgres")
}

/* ================= helpers ================= */

func (c *Config) validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("HTTP_PORT is invalid")
	}
	switch c.Storage.Driver {
	case StorageDriverPostgres:
		if c.DB.Host == "" || c.DB.User == "" || c.DB.DBName == "" {
			return fmt.Errorf("database config is incomplete")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER %q is not supported", c.Storage.Driver)
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers is empty")
	}
	if c.Shipping.FlatFee < 0 || c.Shipping.FreeFromSubtotal < 0 {
		return fmt.Errorf("shipping config must not be negative")
	}
	// VNPAY credentials chỉ bắt buộc ở production, local có thể chạy COD
	if c.App.Env == "production" && (c.VNPay.TmnCode == "" || c.VNPay.HashSecret == "") {
		return fmt.Errorf("VNP_TMN_CODE and VNP_HASH_SECRET are required in production")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if val := strings.TrimSpace(p); val != "" {
			out = append(out, val)
		}
	}
	return out
}
