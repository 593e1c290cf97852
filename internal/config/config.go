package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Redis
	RedisURL string

	// Chat completion endpoint
	ChatAPIURL     string
	ChatAPIKey     string // optional server-wide fallback; sessions supply their own
	ChatModel      string
	ChatTimeoutSec int

	// Optimization pipeline
	OptimizerWorkers int
	SessionCapacity  int

	// Field data sources
	SpaceWeatherURL string
	GeomagURL       string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:             getEnvOrDefault("PORT", "8000"),
		Env:              getEnvOrDefault("ENV", "development"),
		RedisURL:         mustGetEnv("REDIS_URL"),
		ChatAPIURL:       getEnvOrDefault("CHAT_API_URL", "https://api.openai.com/v1/chat/completions"),
		ChatAPIKey:       getEnvOrDefault("CHAT_API_KEY", ""),
		ChatModel:        getEnvOrDefault("CHAT_MODEL", "gpt-4o-mini"),
		ChatTimeoutSec:   getEnvAsIntOrDefault("CHAT_TIMEOUT_SECONDS", 60),
		OptimizerWorkers: getEnvAsIntOrDefault("OPTIMIZER_WORKERS", 5),
		SessionCapacity:  getEnvAsIntOrDefault("SESSION_CAPACITY", 1024),
		SpaceWeatherURL:  getEnvOrDefault("SPACE_WEATHER_URL", "https://services.swpc.noaa.gov/json/rtsw/rtsw_mag_1m.json"),
		GeomagURL:        getEnvOrDefault("GEOMAG_URL", "https://geomag.usgs.gov/ws/data/"),
		FrontendURL:      getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
