package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// DefaultStartingBalance — стартовый виртуальный баланс, используется как
// запасное значение, когда app_settings недоступны или содержат мусор
const DefaultStartingBalance = 100000

type Config struct {
	Port            string
	DatabaseURL     string
	RedisURL        string
	JWTSecret       string
	JWTTTL          time.Duration
	LookupTimeout   time.Duration
	StartingBalance float64
}

func Load() *Config {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			logrus.Info(".env not found, using environment variables")
		}
	}

	return &Config{
		Port:            getEnvOrDefault("PORT", "8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		JWTTTL:          getDurationOrDefault("JWT_TTL", "24h"),
		LookupTimeout:   getDurationOrDefault("LOOKUP_TIMEOUT", "3s"),
		StartingBalance: getFloatOrDefault("STARTING_BALANCE_FALLBACK", DefaultStartingBalance),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key, defaultValue string) time.Duration {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		logrus.Fatalf("Invalid duration for %s: %v", key, err)
	}
	return duration
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		logrus.Fatalf("Invalid number for %s: %v", key, err)
	}
	return f
}
