package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mossy-p/webrtc-chat/internal/chat"
	"github.com/mossy-p/webrtc-chat/internal/models"
	"github.com/redis/go-redis/v9"
)

const historyTTL = 24 * time.Hour

// History keeps the newest chat lines of each room in a capped Redis list
// under "history:<channel>", newest at the head.
type History struct {
	client redis.Cmdable
	limit  int64
	ttl    time.Duration
}

func NewHistory(client redis.Cmdable, limit int) *History {
	return &History{client: client, limit: int64(limit), ttl: historyTTL}
}

func historyKey(channel chat.ChannelID) string {
	return "history:" + string(channel)
}

// Append pushes entry and trims the list to the configured limit
func (h *History) Append(ctx context.Context, channel chat.ChannelID, entry models.HistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}

	key := historyKey(channel)
	pipe := h.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	if h.limit > 0 {
		pipe.LTrim(ctx, key, 0, h.limit-1)
	}
	pipe.Expire(ctx, key, h.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append history for %s: %w", channel, err)
	}
	return nil
}

// Recent returns the stored lines, oldest first
func (h *History) Recent(ctx context.Context, channel chat.ChannelID) ([]models.HistoryEntry, error) {
	raw, err := h.client.LRange(ctx, historyKey(channel), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read history for %s: %w", channel, err)
	}

	entries := make([]models.HistoryEntry, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var entry models.HistoryEntry
		if err := json.Unmarshal([]byte(raw[i]), &entry); err != nil {
			return nil, fmt.Errorf("decode history for %s: %w", channel, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Clear drops the room's history
func (h *History) Clear(ctx context.Context, channel chat.ChannelID) error {
	if err := h.client.Del(ctx, historyKey(channel)).Err(); err != nil {
		return fmt.Errorf("clear history for %s: %w", channel, err)
	}
	return nil
}
