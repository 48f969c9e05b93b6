package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Keys       APIKeys
	Gemini     GeminiConfig
	FileSearch FileSearchConfig
	Analytics  AnalyticsConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	RedisURL           string
}

type APIKeys struct {
	GoogleGemini string
	Amplitude    string
}

type GeminiConfig struct {
	Model         string
	BaseURL       string
	UploadBaseURL string
}

type FileSearchConfig struct {
	PollInterval time.Duration
	// MaxTransient caps consecutive transient poll failures per operation.
	// 0 keeps the original behavior: retry until teardown.
	MaxTransient int
}

type AnalyticsConfig struct {
	Endpoint string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GEMINI_API_KEY", ""),
			Amplitude:    getEnv("AMPLITUDE_API_KEY", ""),
		},
		Gemini: GeminiConfig{
			Model:         getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			BaseURL:       getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			UploadBaseURL: getEnv("GEMINI_UPLOAD_BASE_URL", "https://generativelanguage.googleapis.com/upload/v1beta"),
		},
		FileSearch: FileSearchConfig{
			PollInterval: getEnvAsDuration("FILESEARCH_POLL_INTERVAL", 5*time.Second),
			MaxTransient: getEnvAsInt("FILESEARCH_POLL_MAX_TRANSIENT", 0),
		},
		Analytics: AnalyticsConfig{
			Endpoint: getEnv("AMPLITUDE_ENDPOINT", "https://api2.amplitude.com/2/httpapi"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
