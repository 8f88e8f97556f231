// Package relay is the pub/sub room hub behind the signaling websocket.
// Clients subscribe to observable rooms, receive membership events and get
// every message published to those rooms, their own included.
package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/mossy-p/webrtc-chat/internal/chat"
	"github.com/mossy-p/webrtc-chat/internal/models"
)

var (
	ErrRoomNotObservable = errors.New("room is not observable")
	ErrNotSubscribed     = errors.New("not subscribed to room")
)

// Member is a connected relay client.
type Member interface {
	ID() string
	Name() string
	Send(data []byte) error
}

type room struct {
	members map[string]Member
	mu      sync.RWMutex
}

// Hub tracks room subscriptions.
type Hub struct {
	rooms map[chat.ChannelID]*room
	mu    sync.RWMutex
}

// NewHub returns a hub with no rooms.
func NewHub() *Hub {
	return &Hub{
		rooms: make(map[chat.ChannelID]*room),
	}
}

// Subscribe adds m to channel. The subscriber gets the full member list,
// everybody else gets a member_join. Subscribing again only repeats the
// acknowledgement.
func (h *Hub) Subscribe(channel chat.ChannelID, m Member) error {
	if !strings.HasPrefix(string(channel), chat.ChannelPrefix) {
		return fmt.Errorf("subscribe %q: %w", channel, ErrRoomNotObservable)
	}

	h.mu.Lock()
	r, exists := h.rooms[channel]
	if !exists {
		r = &room{members: make(map[string]Member)}
		h.rooms[channel] = r
		slog.Debug("room created", "room", channel)
	}
	// Hold the room lock before releasing the hub lock so Unsubscribe
	// cannot delete the room while it is being joined.
	r.mu.Lock()
	h.mu.Unlock()

	_, already := r.members[m.ID()]
	r.members[m.ID()] = m
	members := snapshot(r.members)
	r.mu.Unlock()

	send(m, models.Frame{Type: models.FrameOpen, Room: channel})
	send(m, models.Frame{Type: models.FrameMembers, Room: channel, Members: members})
	if already {
		return nil
	}

	slog.Info("member subscribed", "room", channel, "clientId", m.ID(), "members", len(members))
	h.broadcast(channel, models.Frame{Type: models.FrameMemberJoin, Room: channel, Member: memberOf(m)}, m.ID())
	return nil
}

// Unsubscribe removes m from channel and tells the remaining members.
func (h *Hub) Unsubscribe(channel chat.ChannelID, m Member) {
	h.mu.Lock()
	r, exists := h.rooms[channel]
	if !exists {
		h.mu.Unlock()
		return
	}
	r.mu.Lock()
	_, was := r.members[m.ID()]
	delete(r.members, m.ID())
	count := len(r.members)
	if count == 0 {
		delete(h.rooms, channel)
	}
	r.mu.Unlock()
	h.mu.Unlock()

	if !was {
		return
	}
	slog.Info("member unsubscribed", "room", channel, "clientId", m.ID(), "members", count)
	if count == 0 {
		slog.Debug("room removed", "room", channel)
		return
	}
	h.broadcast(channel, models.Frame{Type: models.FrameMemberLeave, Room: channel, Member: memberOf(m)}, "")
}

// UnsubscribeAll removes m from every room it is in.
func (h *Hub) UnsubscribeAll(m Member) {
	h.mu.RLock()
	var joined []chat.ChannelID
	for channel, r := range h.rooms {
		r.mu.RLock()
		if _, ok := r.members[m.ID()]; ok {
			joined = append(joined, channel)
		}
		r.mu.RUnlock()
	}
	h.mu.RUnlock()

	for _, channel := range joined {
		h.Unsubscribe(channel, m)
	}
}

// Publish delivers data to every subscriber of channel, the sender included.
func (h *Hub) Publish(channel chat.ChannelID, sender Member, data json.RawMessage) error {
	if !h.IsSubscribed(channel, sender.ID()) {
		return fmt.Errorf("publish %q: %w", channel, ErrNotSubscribed)
	}
	h.broadcast(channel, models.Frame{
		Type:     models.FrameMessage,
		Room:     channel,
		ClientID: sender.ID(),
		Member:   memberOf(sender),
		Data:     data,
	}, "")
	return nil
}

// IsSubscribed reports whether clientID is a member of channel.
func (h *Hub) IsSubscribed(channel chat.ChannelID, clientID string) bool {
	r := h.room(channel)
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[clientID]
	return ok
}

// MemberCount returns the number of subscribers of channel.
func (h *Hub) MemberCount(channel chat.ChannelID) int {
	r := h.room(channel)
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// Stats counts live rooms and their subscriptions.
func (h *Hub) Stats() (rooms, members int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms = len(h.rooms)
	for _, r := range h.rooms {
		r.mu.RLock()
		members += len(r.members)
		r.mu.RUnlock()
	}
	return rooms, members
}

func (h *Hub) room(channel chat.ChannelID) *room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[channel]
}

func (h *Hub) broadcast(channel chat.ChannelID, frame models.Frame, excludeID string) {
	r := h.room(channel)
	if r == nil {
		return
	}

	data, err := json.Marshal(frame)
	if err != nil {
		slog.Error("failed to marshal frame", "type", frame.Type, "error", err)
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, m := range r.members {
		if id == excludeID {
			continue
		}
		if err := m.Send(data); err != nil {
			slog.Warn("failed to deliver frame", "room", channel, "clientId", id, "error", err)
		}
	}
}

func send(m Member, frame models.Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		slog.Error("failed to marshal frame", "type", frame.Type, "error", err)
		return
	}
	if err := m.Send(data); err != nil {
		slog.Warn("failed to deliver frame", "clientId", m.ID(), "error", err)
	}
}

func memberOf(m Member) *models.Member {
	return &models.Member{ID: m.ID(), ClientData: models.ClientData{Name: m.Name()}}
}

// snapshot lists members ordered by id so frames are deterministic.
func snapshot(members map[string]Member) []models.Member {
	out := make([]models.Member, 0, len(members))
	for _, m := range members {
		out = append(out, *memberOf(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
