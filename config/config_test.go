package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "ALLOWED_ORIGINS", "REDIS_DB", "HISTORY_LIMIT", "HISTORY_BACKEND", "RELAY_URL", "STUN_URLS", "ROOM"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, 50, cfg.History.Limit)
	assert.Equal(t, "redis", cfg.History.Backend)
	assert.Equal(t, "ws://localhost:8080/ws/relay", cfg.Peer.RelayURL)
	assert.Empty(t, cfg.Peer.STUNURLs)
	assert.Empty(t, cfg.Peer.Room)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("HISTORY_LIMIT", "not-a-number")
	t.Setenv("STUN_URLS", "stun:one:3478,stun:two:3478")
	t.Setenv("ROOM_LINK", "https://chat.example/#friday")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 50, cfg.History.Limit)
	assert.Equal(t, []string{"stun:one:3478", "stun:two:3478"}, cfg.Peer.STUNURLs)
	assert.Equal(t, "https://chat.example/#friday", cfg.Peer.RoomLink)
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
	}
	for in, want := range tests {
		cfg := &Config{LogLevel: in}
		assert.Equal(t, want, cfg.SlogLevel(), in)
	}
}
