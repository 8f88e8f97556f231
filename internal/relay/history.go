package relay

import (
	"context"
	"sync"

	"github.com/mossy-p/webrtc-chat/internal/chat"
	"github.com/mossy-p/webrtc-chat/internal/models"
)

// History stores recent chat lines per room. Recent returns oldest first.
type History interface {
	Append(ctx context.Context, channel chat.ChannelID, entry models.HistoryEntry) error
	Recent(ctx context.Context, channel chat.ChannelID) ([]models.HistoryEntry, error)
	Clear(ctx context.Context, channel chat.ChannelID) error
}

// MemoryHistory is a process-local History used when Redis is not configured.
type MemoryHistory struct {
	limit   int
	entries map[chat.ChannelID][]models.HistoryEntry
	mu      sync.Mutex
}

func NewMemoryHistory(limit int) *MemoryHistory {
	return &MemoryHistory{
		limit:   limit,
		entries: make(map[chat.ChannelID][]models.HistoryEntry),
	}
}

func (m *MemoryHistory) Append(_ context.Context, channel chat.ChannelID, entry models.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := append(m.entries[channel], entry)
	if m.limit > 0 && len(list) > m.limit {
		list = list[len(list)-m.limit:]
	}
	m.entries[channel] = list
	return nil
}

func (m *MemoryHistory) Recent(_ context.Context, channel chat.ChannelID) ([]models.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.HistoryEntry, len(m.entries[channel]))
	copy(out, m.entries[channel])
	return out, nil
}

func (m *MemoryHistory) Clear(_ context.Context, channel chat.ChannelID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, channel)
	return nil
}
