package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StorageLocal = "local"
	StorageGCS   = "gcs"
)

var (
	PORT        string
	DB_URL      string
	JWT_SECRET  string
	CORS_ORIGIN string
	APP_ENV     string

	STORAGE_MODE  string
	MEDIA_ROOT    string
	MEDIA_URL     string
	MAX_UPLOAD_MB int

	GCS_BUCKET           string
	GCS_CREDENTIALS_FILE string
	GCS_PUBLIC_BASE_URL  string
)

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	PORT = getEnv("PORT", "8080")
	DB_URL = mustEnv("DB_URL")
	JWT_SECRET = mustEnv("JWT_SECRET")
	CORS_ORIGIN = getEnv("CORS_ORIGIN", "http://localhost:3000")
	APP_ENV = getEnv("APP_ENV", "development")

	loadStorage()
}

// loadStorage is split out so the storage settings can be reloaded in tests
// without DB_URL and JWT_SECRET being present.
func loadStorage() {
	STORAGE_MODE = strings.ToLower(getEnv("STORAGE_MODE", StorageLocal))
	MEDIA_ROOT = getEnv("MEDIA_ROOT", "./media")
	MEDIA_URL = "/" + strings.Trim(getEnv("MEDIA_URL", "/media/"), "/")
	MAX_UPLOAD_MB = getEnvInt("MAX_UPLOAD_MB", 20)

	switch STORAGE_MODE {
	case StorageLocal:
	case StorageGCS:
		GCS_BUCKET = mustEnv("GCS_BUCKET")
		GCS_CREDENTIALS_FILE = getEnv("GCS_CREDENTIALS_FILE", "")
		GCS_PUBLIC_BASE_URL = getEnv("GCS_PUBLIC_BASE_URL", "")
	default:
		log.Fatalf("Unsupported STORAGE_MODE %q (expected %q or %q)", STORAGE_MODE, StorageLocal, StorageGCS)
	}
}

func IsProduction() bool {
	return APP_ENV == "prod" || APP_ENV == "production"
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("Ignoring invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}
