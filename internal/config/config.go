package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port        string
	Env         string
	APIBasePath string

	// Database
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Object storage (S3 compatible)
	StorageS3Endpoint        string
	StorageS3Region          string
	StorageS3AccessKeyID     string
	StorageS3SecretAccessKey string
	StorageS3UsePathStyle    bool
	StoragePublicURL         string
	GalleryBucket            string

	// Uploads
	UploadMaxImageSize  int64
	UploadMaxBatchFiles int
	UploadMaxConcurrent int
	UploadDailyLimit    int

	// Admin gate
	AdminAPIKey string
	AdminHeader string

	// Rate limiting
	RateLimitBackend  string // "memory" | "redis"
	RateLimitRequests int
	RateLimitDuration time.Duration
	RateLimitBurst    int

	// CORS
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string

	// Observability
	LogLevel       string
	LogFormat      string
	MetricsEnabled bool
}

func New() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		APIBasePath: getEnv("API_BASE_PATH", "/api/v1"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "gallery"),
		DBPassword:  getEnv("DB_PASSWORD", "password"),
		DBName:      getEnv("DB_NAME", "gallery_db"),
		DBSSLMode:   getEnv("DB_SSL_MODE", "disable"),

		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// Object storage
		StorageS3Endpoint:        getEnv("STORAGE_S3_ENDPOINT", ""),
		StorageS3Region:          getEnv("STORAGE_S3_REGION", "us-east-1"),
		StorageS3AccessKeyID:     getEnv("STORAGE_S3_ACCESS_KEY_ID", ""),
		StorageS3SecretAccessKey: getEnv("STORAGE_S3_SECRET_ACCESS_KEY", ""),
		StorageS3UsePathStyle:    getEnvAsBool("STORAGE_S3_USE_PATH_STYLE", true),
		StoragePublicURL:         strings.TrimRight(getEnv("STORAGE_PUBLIC_URL", ""), "/"),
		GalleryBucket:            getEnv("GALLERY_BUCKET", "gallery-images"),

		// Uploads
		UploadMaxImageSize:  getEnvAsInt64("UPLOAD_MAX_IMAGE_SIZE", 10*1024*1024),
		UploadMaxBatchFiles: getEnvAsInt("UPLOAD_MAX_BATCH_FILES", 10),
		UploadMaxConcurrent: getEnvAsInt("UPLOAD_MAX_CONCURRENT", 3),
		UploadDailyLimit:    getEnvAsInt("UPLOAD_DAILY_LIMIT", 200),

		// Admin gate
		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),
		AdminHeader: getEnv("ADMIN_HEADER", "X-Admin-Key"),

		// Rate limiting
		RateLimitBackend:  getEnv("RATE_LIMIT_BACKEND", "memory"),
		RateLimitRequests: getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitDuration: getEnvAsDuration("RATE_LIMIT_DURATION", "15m"),
		RateLimitBurst:    getEnvAsInt("RATE_LIMIT_BURST", 100),

		// CORS
		AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		AllowedMethods: getEnvAsSlice("ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		AllowedHeaders: getEnvAsSlice("ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Authorization", "X-Admin-Key"}),

		// Observability
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", ""),
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}
}

// IsProduction reports whether the admin gate and release-mode defaults apply.
func (c *Config) IsProduction() bool { return c.Env == "production" }

// IsDevelopment reports whether error responses may carry stack traces.
func (c *Config) IsDevelopment() bool { return c.Env == "development" }

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	if duration, err := time.ParseDuration(defaultValue); err == nil {
		return duration
	}
	return time.Hour
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
