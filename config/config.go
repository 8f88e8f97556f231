package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	Environment    string
	AllowedOrigins []string
	JWTSecret      string
	LogLevel       string
	Redis          RedisConfig
	History        HistoryConfig
	Public         PublicConfig
	Peer           PeerConfig
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// HistoryConfig bounds the chat history kept per room
type HistoryConfig struct {
	Backend string // "redis" or "memory"
	Limit   int
}

// PublicConfig is where the browser client is served, used to build share links
type PublicConfig struct {
	Origin string
	Path   string
}

// PeerConfig configures the headless chat peer
type PeerConfig struct {
	RelayURL string
	Room     string
	RoomLink string
	UserName string
	STUNURLs []string
}

// Load reads configuration from the environment, after loading a .env file
// when one is present
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	// Parse allowed origins (comma-separated)
	origins := splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"))

	return &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		AllowedOrigins: origins,
		JWTSecret:      getEnv("JWT_SECRET", "change-me-in-production"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		History: HistoryConfig{
			Backend: getEnv("HISTORY_BACKEND", "redis"),
			Limit:   getEnvInt("HISTORY_LIMIT", 50),
		},
		Public: PublicConfig{
			Origin: getEnv("PUBLIC_ORIGIN", "http://localhost:3000"),
			Path:   getEnv("PUBLIC_PATH", "/"),
		},
		Peer: PeerConfig{
			RelayURL: getEnv("RELAY_URL", "ws://localhost:8080/ws/relay"),
			Room:     os.Getenv("ROOM"),
			RoomLink: os.Getenv("ROOM_LINK"),
			UserName: os.Getenv("USER_NAME"),
			STUNURLs: splitList(os.Getenv("STUN_URLS")),
		},
	}
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger installs the default structured logger
func (c *Config) SetupLogger() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: c.SlogLevel()})))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
