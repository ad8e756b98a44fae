package config

import (
	"os"
	"strconv"
	"time"
)

// Backend identifiers for the document store and blob store.
const (
	StoreBackendPostgres  = "postgres"
	StoreBackendFirestore = "firestore"
	BlobBackendMinIO      = "minio"
	BlobBackendGCS        = "gcs"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
	AutoMigrate        bool
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// GCPConfig holds settings shared by the Firestore and Cloud Storage adapters.
type GCPConfig struct {
	ProjectID       string
	CredentialsFile string
	Bucket          string
}

// BlobConfig controls how retrieval URLs are produced for uploaded images.
type BlobConfig struct {
	// PublicBaseURL, when set, is joined with the object key to form the stored URL.
	// Otherwise the stored URL is APIPublicURL + /documents/{id}/image.
	PublicBaseURL string
	APIPublicURL  string
	// PresignExpiry bounds links from GET /documents/{id}/image/link.
	PresignExpiry time.Duration
}

// AuthConfig holds token signing settings.
type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	ResetTokenTTL time.Duration
}

// OCRConfig holds Tesseract settings.
type OCRConfig struct {
	Language   string
	Timeout    time.Duration
	Preprocess bool
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost        string
	Port           string
	Timezone       string
	LogLevel       string
	MaxUploadBytes int64
	StoreBackend   string
	BlobBackend    string
	SnowflakeNode  int64
	Database       DatabaseConfig
	MinIO          MinIOConfig
	GCP            GCPConfig
	Blob           BlobConfig
	Auth           AuthConfig
	OCR            OCRConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:        getEnv("APP_HOST", "localhost:8080"),
		Port:           getEnv("PORT", "8080"),
		Timezone:       getEnv("APP_TIMEZONE", "UTC"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 10<<20),
		StoreBackend:   getEnv("STORE_BACKEND", StoreBackendPostgres),
		BlobBackend:    getEnv("BLOB_BACKEND", BlobBackendMinIO),
		SnowflakeNode:  getEnvInt64("SNOWFLAKE_NODE", 1),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
			AutoMigrate:        getEnvBool("DB_AUTO_MIGRATE", true),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		GCP: GCPConfig{
			ProjectID:       getEnv("GCP_PROJECT_ID", ""),
			CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
			Bucket:          getEnv("GCS_BUCKET", ""),
		},
		Blob: BlobConfig{
			PublicBaseURL: getEnv("BLOB_PUBLIC_BASE_URL", ""),
			APIPublicURL:  getEnv("API_PUBLIC_URL", ""),
			PresignExpiry: getEnvDuration("BLOB_PRESIGN_EXPIRY", 15*time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", ""),
			TokenTTL:      getEnvDuration("JWT_TTL", 24*time.Hour),
			ResetTokenTTL: getEnvDuration("RESET_TOKEN_TTL", 30*time.Minute),
		},
		OCR: OCRConfig{
			Language:   getEnv("OCR_LANGUAGE", "eng"),
			Timeout:    getEnvDuration("OCR_TIMEOUT", 60*time.Second),
			Preprocess: getEnvBool("OCR_PREPROCESS", true),
		},
	}
}

// Location resolves the configured time zone, falling back to UTC.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}
