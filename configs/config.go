package configs

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort           string
	DatabaseURL          string
	RedisURL             string
	JWTSecret            string
	JWTTTL               time.Duration
	RateLimitWindow      time.Duration
	RateLimitMax         int
	TicketLimitWindow    time.Duration
	TicketLimitMax       int
	CacheTTL             time.Duration
	AdminName            string
	AdminEmail           string
	AdminPassword        string
	EnableWebSocket      bool
	RateLimitSweepPeriod time.Duration
}

var AppConfig *Config

func LoadConfig() error {

	godotenv.Load()

	AppConfig = &Config{
		ServerPort:           getEnv("SERVER_PORT", "8080"),
		DatabaseURL:          getEnv("DATABASE_URL", "root:password@tcp(localhost:3306)/techfix?charset=utf8mb4&parseTime=True&loc=Local"),
		RedisURL:             getEnv("REDIS_URL", "localhost:6379"),
		JWTSecret:            getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTTTL:               parseDuration(getEnv("JWT_TTL", "24h"), 24*time.Hour),
		RateLimitWindow:      parseDuration(getEnv("RATE_LIMIT_WINDOW", "15m"), 15*time.Minute),
		RateLimitMax:         parseInt(getEnv("RATE_LIMIT_MAX", "100")),
		TicketLimitWindow:    parseDuration(getEnv("TICKET_LIMIT_WINDOW", "1m"), time.Minute),
		TicketLimitMax:       parseInt(getEnv("TICKET_LIMIT_MAX", "5")),
		CacheTTL:             parseDuration(getEnv("CACHE_TTL", "10m"), 10*time.Minute),
		AdminName:            getEnv("ADMIN_NAME", "Administrador"),
		AdminEmail:           getEnv("ADMIN_EMAIL", "admin@techfix.uy"),
		AdminPassword:        getEnv("ADMIN_PASSWORD", "change-me"),
		EnableWebSocket:      parseBool(getEnv("ENABLE_WEBSOCKET", "true")),
		RateLimitSweepPeriod: parseDuration(getEnv("RATE_LIMIT_SWEEP_PERIOD", "30m"), 30*time.Minute),
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return b
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func init() {
	if err := LoadConfig(); err != nil {
		log.Fatal("Failed to load config:", err)
	}
}
