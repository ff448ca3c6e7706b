package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env string // dev | prod

	APIBaseURL string
	APIToken   string

	// PrimaryBatchSize caps concurrent primary fan-out calls; the detail
	// fan-out is tuned higher since those are lighter calls.
	PrimaryBatchSize int
	DetailBatchSize  int

	CacheMaxEntries int
	RequestTimeout  time.Duration
}

func Load() Config {
	_ = godotenv.Load()
	return Config{
		Env:              getenv("ENV", "dev"),
		APIBaseURL:       getenv("API_BASE_URL", "http://localhost:8080"),
		APIToken:         getenv("API_TOKEN", ""),
		PrimaryBatchSize: getint("PRIMARY_BATCH_SIZE", 5),
		DetailBatchSize:  getint("DETAIL_BATCH_SIZE", 10),
		CacheMaxEntries:  getint("CACHE_MAX_ENTRIES", 1000),
		RequestTimeout:   time.Duration(getint("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
	}
}

func getenv(key string, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getint(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
