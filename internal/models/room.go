package models

import (
	"time"

	"github.com/mossy-p/webrtc-chat/internal/chat"
)

// RoomInfo describes the live state of a room
type RoomInfo struct {
	Room        chat.RoomName  `json:"room"`
	Channel     chat.ChannelID `json:"channel"`
	MemberCount int            `json:"memberCount"`
	NextOffers  bool           `json:"nextJoinerOffers"` // whether the next joiner would create the offer
}

// CreateRoomRequest is the request body for creating a room link
type CreateRoomRequest struct {
	Name string `json:"name"`
}

// CreateRoomResponse is the response for creating a room link
type CreateRoomResponse struct {
	Room    chat.RoomName  `json:"room"`
	Channel chat.ChannelID `json:"channel"`
	Link    string         `json:"link"`
}

// HistoryEntry is a stored chat line
type HistoryEntry struct {
	ClientID string    `json:"clientId"`
	User     string    `json:"user"`
	Text     string    `json:"text"`
	SentAt   time.Time `json:"sentAt"`
}
