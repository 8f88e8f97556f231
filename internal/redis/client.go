package redis

import (
	"context"
	"fmt"
	"net"

	"github.com/redis/go-redis/v9"

	"github.com/mossy-p/webrtc-chat/config"
)

// Dial opens a client for cfg and pings it once.
func Dial(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", client.Options().Addr, err)
	}
	return client, nil
}

// OpenHistory dials redis and returns a chat history store over it,
// together with a func that closes the connection.
func OpenHistory(ctx context.Context, cfg config.RedisConfig, limit int) (*History, func() error, error) {
	client, err := Dial(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return NewHistory(client, limit), client.Close, nil
}
