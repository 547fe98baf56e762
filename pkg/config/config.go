package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the front-end settings
type Config struct {
	Service ServiceConfig
	Log     LogConfig
	// WatchDir is a folder whose new documents are uploaded automatically
	WatchDir string
}

// ServiceConfig locates the document service
type ServiceConfig struct {
	URL     string
	Timeout time.Duration
}

// LogConfig controls log output
type LogConfig struct {
	FilePath string
	Debug    bool
}

// Load reads settings from the environment, after loading a .env file
// from the working directory when one exists
func Load() *Config {
	// A missing .env is normal; the environment is used as is.
	_ = godotenv.Load()

	return &Config{
		Service: ServiceConfig{
			URL:     getEnv("DOC_SERVICE_URL", "http://127.0.0.1:8000"),
			Timeout: getEnvAsDuration("DOC_SERVICE_TIMEOUT", 5*time.Minute),
		},
		Log: LogConfig{
			FilePath: getEnv("DOC_CHAT_LOG_FILE", "doc-chat.log"),
			Debug:    getEnvAsBool("DOC_CHAT_DEBUG", false),
		},
		WatchDir: getEnv("DOC_CHAT_WATCH_DIR", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
