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
	Port               string
	DatabaseURL        string
	JWTSecret          string
	GoogleAudience     string
	SessionTTL         time.Duration
	AllowOrigins       []string
	Environment        string
	ServiceName        string
	LogLevel           string
	LogstashTCPAddr    string
	OTLPEndpoint       string
	MinIOEndpoint      string
	MinIOAccessKey     string
	MinIOSecretKey     string
	MinIOUseSSL        bool
	MinIOBucketProduct string
	MinIOPublicURL     string
	ProductImageURLTTL time.Duration
	FavoriteClass      string
	NonFavoriteClass   string
	DefaultPageSize    int
	MaxPageSize        int
}

// Development reports whether logs should be written for humans.
func (c Config) Development() bool {
	return c.Environment == "" || c.Environment == "development" || c.Environment == "local"
}

// ImagesEnabled reports whether product images are presigned. Without a
// MinIO endpoint products are served without image URLs.
func (c Config) ImagesEnabled() bool {
	return c.MinIOEndpoint != ""
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := Config{
		Port:               getenv("PORT", "8080"),
		DatabaseURL:        must("DATABASE_URL"),
		JWTSecret:          must("JWT_SECRET"),
		GoogleAudience:     getenv("GOOGLE_AUDIENCE", ""),
		SessionTTL:         getDuration("SESSION_TTL", 24*time.Hour),
		AllowOrigins:       splitAndTrim(getenv("ALLOW_ORIGINS", "*")),
		Environment:        strings.ToLower(getenv("ENVIRONMENT", "development")),
		ServiceName:        getenv("SERVICE_NAME", "storefront-favorites"),
		LogLevel:           getenv("LOG_LEVEL", "info"),
		LogstashTCPAddr:    getenv("LOGSTASH_TCP_ADDR", ""),
		OTLPEndpoint:       getenv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		MinIOEndpoint:      getenv("MINIO_ENDPOINT", ""),
		MinIOUseSSL:        getenv("MINIO_USE_SSL", "false") == "true",
		MinIOPublicURL:     getenv("MINIO_PUBLIC_URL", ""),
		ProductImageURLTTL: getDuration("PRODUCT_IMAGE_URL_TTL", 15*time.Minute),
		FavoriteClass:      getenv("FAVORITE_CLASS", "favorite"),
		NonFavoriteClass:   getenv("NON_FAVORITE_CLASS", "not-favorite"),
		DefaultPageSize:    getInt("DEFAULT_PAGE_SIZE", 20),
		MaxPageSize:        getInt("MAX_PAGE_SIZE", 100),
	}
	if cfg.ImagesEnabled() {
		cfg.MinIOAccessKey = must("MINIO_ACCESS_KEY")
		cfg.MinIOSecretKey = must("MINIO_SECRET_KEY")
		cfg.MinIOBucketProduct = getenv("MINIO_BUCKET_PRODUCTS", "storefront-products")
	}
	return cfg
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

func getInt(k string, d int) int {
	v, err := strconv.Atoi(getenv(k, ""))
	if err != nil || v <= 0 {
		return d
	}
	return v
}

func getDuration(k string, d time.Duration) time.Duration {
	v, err := time.ParseDuration(getenv(k, ""))
	if err != nil || v <= 0 {
		return d
	}
	return v
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
