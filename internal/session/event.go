package session

import (
	"github.com/mossy-p/webrtc-chat/internal/chat"
	"github.com/pion/webrtc/v4"
)

// Event is an input to Reduce. There is one type per inbound event kind.
type Event interface {
	isEvent()
}

// Join is the user submitting the landing form.
type Join struct {
	Room string
	User string
}

// RelayOpened is the relay connection becoming ready.
type RelayOpened struct {
	ClientID string
}

// RelayClosed is the relay connection closing or failing.
type RelayClosed struct {
	Err error
}

// RoomOpened acknowledges the room subscription.
type RoomOpened struct {
	Err error
}

// Members is the member list received right after subscribing.
type Members struct {
	Count int
}

type MemberJoined struct {
	Name string
}

type MemberLeft struct {
	Name string
}

// RelayMessage is a payload published to the room by any member, including us.
type RelayMessage struct {
	ClientID string
	Signal   chat.Signal
}

// LocalDescription is an offer or answer the peer connection produced.
type LocalDescription struct {
	Description webrtc.SessionDescription
}

// LocalCandidate is a trickled ICE candidate from the peer connection.
type LocalCandidate struct {
	Candidate webrtc.ICECandidateInit
}

// ConnectionStateChanged carries the peer connection state name.
type ConnectionStateChanged struct {
	State string
}

// StatsSampled is one quality poll result.
type StatsSampled struct {
	RTT float64
	OK  bool
}

type ToggleAudio struct{}

type ToggleVideo struct{}

// SendChat is a chat line the caller already checked with chat.ShouldSendMessage.
type SendChat struct {
	Text string
}

type EndCall struct{}

func (Join) isEvent()                   {}
func (RelayOpened) isEvent()            {}
func (RelayClosed) isEvent()            {}
func (RoomOpened) isEvent()             {}
func (Members) isEvent()                {}
func (MemberJoined) isEvent()           {}
func (MemberLeft) isEvent()             {}
func (RelayMessage) isEvent()           {}
func (LocalDescription) isEvent()       {}
func (LocalCandidate) isEvent()         {}
func (ConnectionStateChanged) isEvent() {}
func (StatsSampled) isEvent()           {}
func (ToggleAudio) isEvent()            {}
func (ToggleVideo) isEvent()            {}
func (SendChat) isEvent()               {}
func (EndCall) isEvent()                {}
