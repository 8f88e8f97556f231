package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/pion/webrtc/v4"
)

var (
	// ErrAmbiguousSignal is returned when a message carries more than one of
	// sdp, candidate and chatText.
	ErrAmbiguousSignal = errors.New("signal carries more than one payload")
	// ErrUnknownSignal is returned when a message carries none of them.
	ErrUnknownSignal = errors.New("signal carries no known payload")
)

// SignalKind identifies which payload a Signal holds.
type SignalKind int

const (
	SignalUnknown SignalKind = iota
	SignalSDP
	SignalCandidate
	SignalChat
)

func (k SignalKind) String() string {
	switch k {
	case SignalSDP:
		return "sdp"
	case SignalCandidate:
		return "candidate"
	case SignalChat:
		return "chat"
	default:
		return "unknown"
	}
}

// ChatMessage is the chat payload published through the relay.
type ChatMessage struct {
	ChatText string `json:"chatText"`
	User     string `json:"user"`
}

// Signal is a message exchanged through the relay. Exactly one payload is
// set; the zero value is SignalUnknown and does not marshal.
type Signal struct {
	kind      SignalKind
	sdp       webrtc.SessionDescription
	candidate webrtc.ICECandidateInit
	chat      ChatMessage
}

// SDPSignal wraps an offer or answer.
func SDPSignal(desc webrtc.SessionDescription) Signal {
	return Signal{kind: SignalSDP, sdp: desc}
}

// CandidateSignal wraps a trickled ICE candidate.
func CandidateSignal(candidate webrtc.ICECandidateInit) Signal {
	return Signal{kind: SignalCandidate, candidate: candidate}
}

// ChatSignal wraps a chat line.
func ChatSignal(msg ChatMessage) Signal {
	return Signal{kind: SignalChat, chat: msg}
}

// Kind reports which variant s holds.
func (s Signal) Kind() SignalKind { return s.kind }

// SDP returns the session description when s is an SDP signal.
func (s Signal) SDP() (webrtc.SessionDescription, bool) {
	return s.sdp, s.kind == SignalSDP
}

// Candidate returns the ICE candidate when s is a candidate signal.
func (s Signal) Candidate() (webrtc.ICECandidateInit, bool) {
	return s.candidate, s.kind == SignalCandidate
}

// Chat returns the chat line when s is a chat signal.
func (s Signal) Chat() (ChatMessage, bool) {
	return s.chat, s.kind == SignalChat
}

// MarshalJSON writes the payload in its wire shape:
// {"sdp":...}, {"candidate":...} or {"chatText":...,"user":...}.
func (s Signal) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case SignalSDP:
		return json.Marshal(struct {
			SDP webrtc.SessionDescription `json:"sdp"`
		}{s.sdp})
	case SignalCandidate:
		return json.Marshal(struct {
			Candidate webrtc.ICECandidateInit `json:"candidate"`
		}{s.candidate})
	case SignalChat:
		return json.Marshal(s.chat)
	default:
		return nil, ErrUnknownSignal
	}
}

// UnmarshalJSON classifies by field presence in the order sdp, candidate,
// chat and rejects messages that match more than one.
func (s *Signal) UnmarshalJSON(data []byte) error {
	var loose map[string]any
	if err := json.Unmarshal(data, &loose); err != nil {
		return fmt.Errorf("decode signal: %w", err)
	}

	kind, err := ClassifySignal(loose)
	if err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("decode signal: %w", err)
	}

	out := Signal{kind: kind}
	switch kind {
	case SignalSDP:
		err = json.Unmarshal(fields["sdp"], &out.sdp)
	case SignalCandidate:
		err = json.Unmarshal(fields["candidate"], &out.candidate)
	case SignalChat:
		err = json.Unmarshal(data, &out.chat)
	}
	if err != nil {
		return fmt.Errorf("decode %s signal: %w", kind, err)
	}
	*s = out
	return nil
}

// ClassifySignal returns the single kind msg matches.
func ClassifySignal(msg map[string]any) (SignalKind, error) {
	kind := SignalUnknown
	matches := 0
	if IsSDPMessage(msg) {
		kind = SignalSDP
		matches++
	}
	if IsICEMessage(msg) {
		if kind == SignalUnknown {
			kind = SignalCandidate
		}
		matches++
	}
	if IsChatMessage(msg) {
		if kind == SignalUnknown {
			kind = SignalChat
		}
		matches++
	}
	switch matches {
	case 0:
		return SignalUnknown, ErrUnknownSignal
	case 1:
		return kind, nil
	default:
		return SignalUnknown, ErrAmbiguousSignal
	}
}

// IsSDPMessage reports whether msg has a truthy "sdp" field.
func IsSDPMessage(msg map[string]any) bool {
	return msg != nil && truthy(msg["sdp"])
}

// IsICEMessage reports whether msg has a truthy "candidate" field.
func IsICEMessage(msg map[string]any) bool {
	return msg != nil && truthy(msg["candidate"])
}

// IsChatMessage reports whether msg has a "chatText" key. An empty string
// or null still counts.
func IsChatMessage(msg map[string]any) bool {
	if msg == nil {
		return false
	}
	_, ok := msg["chatText"]
	return ok
}

// truthy follows JavaScript truthiness for decoded JSON values.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case string:
		return t != ""
	default:
		return true
	}
}

// Envelope is what a client publishes to the relay.
type Envelope struct {
	Room    ChannelID `json:"room"`
	Message Signal    `json:"message"`
}

// BuildSignalPayload wraps msg for publishing to room's channel.
func BuildSignalPayload(room RoomName, msg Signal) Envelope {
	return Envelope{
		Room:    GetChannelRoom(room),
		Message: msg,
	}
}

// BuildChatPayload wraps a chat line. text is trimmed; user is used as given.
func BuildChatPayload(room RoomName, user, text string) Envelope {
	return Envelope{
		Room: GetChannelRoom(room),
		Message: ChatSignal(ChatMessage{
			ChatText: Trim(text),
			User:     user,
		}),
	}
}
