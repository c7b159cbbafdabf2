package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPPort  string
	LogLevel  string
	ClientURL string

	OpenAIKey string
	MapsKey   string

	// Bluesky ingestion channel.
	SocialFeedHost string
	SocialFeedURI  string
	SocialFeedMax  int

	// Cron cadences.
	SatelliteRefreshSpec string
	WeatherRefreshSpec   string
	SocialPullSpec       string

	// Synthetic report generator; 0 disables the task.
	SyntheticIntervalSec int

	// Consensus tunables.
	AutoVerifyThreshold  int
	RadarCorroborationMM float64

	WeatherBaseURL string
}

// Load reads .env (when present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	cfg := &Config{
		HTTPPort:  getEnv("HTTP_PORT", "8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		ClientURL: os.Getenv("CLIENT_URL"),

		OpenAIKey: os.Getenv("OPENAI_API_KEY"),
		MapsKey:   os.Getenv("MAPS_CREDENTIALS"),

		SocialFeedHost: getEnv("SOCIAL_FEED_HOST", "https://public.api.bsky.app"),
		SocialFeedURI:  os.Getenv("SOCIAL_FEED_URI"),
		SocialFeedMax:  getEnvAsInt("SOCIAL_FEED_MAX", 25),

		SatelliteRefreshSpec: getEnv("SATELLITE_REFRESH_SPEC", "*/10 * * * *"),
		WeatherRefreshSpec:   getEnv("WEATHER_REFRESH_SPEC", "*/2 * * * *"),
		SocialPullSpec:       getEnv("SOCIAL_PULL_SPEC", "4-59/10 * * * *"),

		SyntheticIntervalSec: getEnvAsInt("SYNTHETIC_INTERVAL_SEC", 0),

		AutoVerifyThreshold:  getEnvAsInt("AUTO_VERIFY_THRESHOLD", 3),
		RadarCorroborationMM: getEnvAsFloat("RADAR_CORROBORATION_MM", 5.0),

		WeatherBaseURL: getEnv("WEATHER_BASE_URL", "https://api.open-meteo.com"),
	}

	cfg.SocialFeedURI = strings.TrimSpace(cfg.SocialFeedURI)
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
