package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	DatabaseURL     string
	JWTSecret       string
	JWTTTL          time.Duration
	GoogleAudience  string
	AllowOrigins    []string
	LogstashTCPAddr string
	SwaggerSpecPath string

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	RunMigrations     bool

	// BookingInitialStatus is the status a new booking starts in. Only
	// "pending" and "confirmed" are accepted.
	BookingInitialStatus string
	StorageTimeout       time.Duration
	RetryMaxAttempts     int
	RetryBaseDelay       time.Duration

	PaymentServiceURL    string
	PaymentInitialStatus string
	PaymentTimeout       time.Duration

	MinIOEndpoint      string
	MinIOAccessKey     string
	MinIOSecretKey     string
	MinIOUseSSL        bool
	MinIOBucketExports string
	MinIOPublicURL     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTLS      bool

	RateLimitEnabled        bool
	RateLimitCapacity       int
	RateLimitRefillTokens   int
	RateLimitRefillInterval time.Duration
	RateLimitTTL            time.Duration

	RabbitMQURL      string
	RabbitMQExchange string
	RabbitMQQueue    string
	WorkerPrefetch   int
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	return Config{
		Port:            getenv("PORT", "8080"),
		DatabaseURL:     must("DATABASE_URL"),
		JWTSecret:       must("JWT_SECRET"),
		JWTTTL:          envDur("JWT_TTL", 24*time.Hour),
		GoogleAudience:  getenv("GOOGLE_AUDIENCE", ""),
		AllowOrigins:    splitAndTrim(getenv("ALLOW_ORIGINS", "*")),
		LogstashTCPAddr: getenv("LOGSTASH_TCP_ADDR", ""),
		SwaggerSpecPath: getenv("SWAGGER_SPEC_PATH", "docs/swagger.yaml"),

		DBMaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 20),
		DBMaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: envDur("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		RunMigrations:     envBool("RUN_MIGRATIONS", true),

		BookingInitialStatus: strings.ToLower(getenv("BOOKING_INITIAL_STATUS", "pending")),
		StorageTimeout:       envDur("STORAGE_TIMEOUT", 5*time.Second),
		RetryMaxAttempts:     envInt("RETRY_MAX_ATTEMPTS", 3),
		RetryBaseDelay:       envDur("RETRY_BASE_DELAY", 50*time.Millisecond),

		PaymentServiceURL:    getenv("PAYMENT_SERVICE_URL", ""),
		PaymentInitialStatus: strings.ToLower(getenv("PAYMENT_INITIAL_STATUS", "pending")),
		PaymentTimeout:       envDur("PAYMENT_TIMEOUT", 3*time.Second),

		MinIOEndpoint:      getenv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:     getenv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:     getenv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:        envBool("MINIO_USE_SSL", false),
		MinIOBucketExports: getenv("MINIO_BUCKET_EXPORTS", "tour-market-exports"),
		MinIOPublicURL:     getenv("MINIO_PUBLIC_URL", ""),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       envInt("REDIS_DB", 0),
		RedisTLS:      envBool("REDIS_TLS", false),

		RateLimitEnabled:        envBool("RATE_LIMIT_ENABLED", true),
		RateLimitCapacity:       envInt("RATE_LIMIT_CAPACITY", 20),
		RateLimitRefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RateLimitRefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", 3*time.Second),
		RateLimitTTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),

		RabbitMQURL:      getenv("RABBITMQ_URL", ""),
		RabbitMQExchange: getenv("RABBITMQ_EXCHANGE", "tour_market.events"),
		RabbitMQQueue:    getenv("RABBITMQ_RATING_QUEUE", "tour_market.rating_recompute"),
		WorkerPrefetch:   envInt("WORKER_PREFETCH", 10),
	}
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}

func envInt(k string, d int) int {
	v, err := strconv.Atoi(getenv(k, ""))
	if err != nil {
		return d
	}
	return v
}

func envBool(k string, d bool) bool {
	v, err := strconv.ParseBool(getenv(k, ""))
	if err != nil {
		return d
	}
	return v
}

func envDur(k string, d time.Duration) time.Duration {
	v, err := time.ParseDuration(getenv(k, ""))
	if err != nil || v <= 0 {
		return d
	}
	return v
}
