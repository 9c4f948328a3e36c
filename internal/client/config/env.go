package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names. NEXT_PUBLIC_* are accepted as fallbacks so one
// .env file can serve both the web frontend and the CLI.
const (
	EnvAPIURL         = "DOCSUM_API_URL"
	EnvAPIURLFallback = "NEXT_PUBLIC_API_URL"
	EnvFrontendURL    = "DOCSUM_FRONTEND_URL"
	EnvFrontendURLFb  = "NEXT_PUBLIC_FRONTEND_URL"
	EnvStorage        = "DOCSUM_STORAGE"
	EnvRequestTimeout = "DOCSUM_REQUEST_TIMEOUT"
	EnvLogLevel       = "DOCSUM_LOG_LEVEL"
	EnvLogFormat      = "DOCSUM_LOG_FORMAT"
	EnvPageSize       = "DOCSUM_PAGE_SIZE"
	EnvAWSRegion      = "AWS_REGION"
	EnvAWSAccessKey   = "AWS_ACCESS_KEY"
	EnvAWSSecretKey   = "AWS_SECRET_KEY"
)

// envFile is loaded if it exists; variables already set are not overridden.
var envFile = ".env"

// parseEnv overlays Config with environment variables. Unset or empty
// variables leave the current value alone; malformed numbers and durations
// are ignored.
func parseEnv(cfg *Config) {
	_ = godotenv.Load(envFile)

	cfg.APIURL = getEnv(EnvAPIURL, getEnv(EnvAPIURLFallback, cfg.APIURL))
	cfg.FrontendURL = getEnv(EnvFrontendURL, getEnv(EnvFrontendURLFb, cfg.FrontendURL))
	cfg.StoragePath = getEnv(EnvStorage, cfg.StoragePath)
	cfg.RequestTimeout = getEnvDuration(EnvRequestTimeout, cfg.RequestTimeout)
	cfg.LogLevel = getEnv(EnvLogLevel, cfg.LogLevel)
	cfg.LogFormat = getEnv(EnvLogFormat, cfg.LogFormat)
	cfg.PageSize = getEnvInt(EnvPageSize, cfg.PageSize)
	cfg.AWSRegion = getEnv(EnvAWSRegion, cfg.AWSRegion)
	cfg.AWSAccessKey = getEnv(EnvAWSAccessKey, cfg.AWSAccessKey)
	cfg.AWSSecretKey = getEnv(EnvAWSSecretKey, cfg.AWSSecretKey)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
