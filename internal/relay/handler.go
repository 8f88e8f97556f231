package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mossy-p/webrtc-chat/internal/chat"
	"github.com/mossy-p/webrtc-chat/internal/models"
)

var ErrUnknownFrame = errors.New("unknown frame type")

// Handler routes client frames to the hub and records chat history.
type Handler struct {
	hub     *Hub
	history History
	now     func() time.Time
}

func NewHandler(hub *Hub, history History) *Handler {
	return &Handler{hub: hub, history: history, now: time.Now}
}

// Handle applies one decoded client frame. A returned error should be
// reported back to the client; the connection stays usable.
func (h *Handler) Handle(ctx context.Context, m Member, frame models.Frame) error {
	switch frame.Type {
	case models.FrameSubscribe:
		return h.hub.Subscribe(frame.Room, m)

	case models.FrameUnsubscribe:
		h.hub.Unsubscribe(frame.Room, m)
		return nil

	case models.FramePublish:
		return h.publish(ctx, m, frame.Room, frame.Message)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownFrame, frame.Type)
	}
}

func (h *Handler) publish(ctx context.Context, m Member, channel chat.ChannelID, raw json.RawMessage) error {
	var sig chat.Signal
	if err := json.Unmarshal(raw, &sig); err != nil {
		return fmt.Errorf("publish %q: %w", channel, err)
	}

	// Re-encode so subscribers only ever see the canonical shape.
	data, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("publish %q: %w", channel, err)
	}
	if err := h.hub.Publish(channel, m, data); err != nil {
		return err
	}

	msg, ok := sig.Chat()
	if !ok || h.history == nil {
		return nil
	}
	entry := models.HistoryEntry{
		ClientID: m.ID(),
		User:     msg.User,
		Text:     msg.ChatText,
		SentAt:   h.now().UTC(),
	}
	if err := h.history.Append(ctx, channel, entry); err != nil {
		// Delivery already happened; losing the history line is not fatal.
		slog.Warn("failed to store chat history", "room", channel, "clientId", m.ID(), "error", err)
	}
	return nil
}

// Leave unsubscribes m from every room it joined.
func (h *Handler) Leave(m Member) {
	h.hub.UnsubscribeAll(m)
}
