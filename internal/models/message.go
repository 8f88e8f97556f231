package models

import (
	"encoding/json"

	"github.com/mossy-p/webrtc-chat/internal/chat"
)

// FrameType is the kind of a relay websocket frame
type FrameType string

const (
	// Relay -> client
	FrameHello       FrameType = "hello"
	FrameOpen        FrameType = "open"
	FrameMembers     FrameType = "members"
	FrameMemberJoin  FrameType = "member_join"
	FrameMemberLeave FrameType = "member_leave"
	FrameMessage     FrameType = "message"
	FrameError       FrameType = "error"

	// Client -> relay
	FrameSubscribe   FrameType = "subscribe"
	FrameUnsubscribe FrameType = "unsubscribe"
	FramePublish     FrameType = "publish"
)

// ClientData is the public data a client attaches when connecting
type ClientData struct {
	Name string `json:"name"`
}

// Member is a client subscribed to a relay room
type Member struct {
	ID         string     `json:"id"`
	ClientData ClientData `json:"clientData"`
}

// Frame is a single relay websocket message in either direction
type Frame struct {
	Type     FrameType       `json:"type"`
	Room     chat.ChannelID  `json:"room,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	Member   *Member         `json:"member,omitempty"`
	Members  []Member        `json:"members,omitempty"`
	Message  json.RawMessage `json:"message,omitempty"` // publish payload
	Data     json.RawMessage `json:"data,omitempty"`    // delivered payload
	Error    string          `json:"error,omitempty"`
}

// PublishFrame wraps an envelope for sending to the relay
func PublishFrame(env chat.Envelope) (Frame, error) {
	msg, err := json.Marshal(env.Message)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Type: FramePublish, Room: env.Room, Message: msg}, nil
}
