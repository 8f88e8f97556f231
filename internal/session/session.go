// Package session holds the call state of one client and the pure
// transition function driving it. Hosts feed events into Reduce from a
// single goroutine and execute the returned commands in order.
package session

import (
	"github.com/mossy-p/webrtc-chat/internal/chat"
)

const unknownMember = "Someone"

// State is everything one client knows about its active call. The zero
// value is the landing page: not joined, nothing running.
type State struct {
	Room     chat.RoomName
	User     string
	ClientID string

	Joined      bool
	Status      chat.Status
	Quality     chat.Quality
	AudioMuted  bool
	VideoOff    bool
	PeerStarted bool
	Offerer     bool
	Monitoring  bool
}

// Channel is the relay room for the current room name.
func (s State) Channel() chat.ChannelID {
	return chat.GetChannelRoom(s.Room)
}

// Reduce applies ev to s and returns the next state together with the
// commands the host must run. Events that make no sense in the current
// state return s unchanged and no commands.
func Reduce(s State, ev Event) (State, []Command) {
	switch e := ev.(type) {
	case Join:
		return onJoin(s, e)
	case EndCall:
		return onEndCall(s)
	}

	if !s.Joined {
		return s, nil
	}

	switch e := ev.(type) {
	case RelayOpened:
		s.ClientID = e.ClientID
		return s, []Command{Subscribe{Channel: s.Channel()}}

	case RelayClosed:
		s.ClientID = ""
		return setStatus(s, chat.StatusDisconnected)

	case RoomOpened:
		if e.Err != nil {
			return setStatus(s, chat.StatusDisconnected)
		}
		return s, []Command{AppendSystem{Text: "Connected to room: " + string(s.Room)}}

	case Members:
		if s.PeerStarted {
			return s, nil
		}
		s.PeerStarted = true
		s.Offerer = chat.IsOfferer(e.Count)
		return s, []Command{StartPeer{Offerer: s.Offerer}}

	case MemberJoined:
		return s, []Command{AppendSystem{Text: memberName(e.Name) + " joined the room"}}

	case MemberLeft:
		return onMemberLeft(s, e)

	case RelayMessage:
		return onRelayMessage(s, e)

	case LocalDescription:
		return s, []Command{Publish{Envelope: chat.BuildSignalPayload(s.Room, chat.SDPSignal(e.Description))}}

	case LocalCandidate:
		return s, []Command{Publish{Envelope: chat.BuildSignalPayload(s.Room, chat.CandidateSignal(e.Candidate))}}

	case ConnectionStateChanged:
		return onConnectionState(s, e)

	case StatsSampled:
		if !s.Monitoring {
			return s, nil
		}
		s.Quality = chat.QualityLevel(e.RTT, e.OK)
		return s, []Command{SetQuality{Quality: s.Quality}}

	case ToggleAudio:
		a := chat.ToggleAudioState(s.AudioMuted)
		s.AudioMuted = a.Muted
		return s, []Command{SetAudio{State: a}}

	case ToggleVideo:
		v := chat.ToggleVideoState(s.VideoOff)
		s.VideoOff = v.Off
		return s, []Command{SetVideo{State: v}}

	case SendChat:
		if s.ClientID == "" {
			return s, nil
		}
		return s, []Command{Publish{Envelope: chat.BuildChatPayload(s.Room, s.User, e.Text)}}
	}

	return s, nil
}

func onJoin(s State, e Join) (State, []Command) {
	if s.Joined {
		return s, nil
	}
	next := State{
		Room:   chat.NormalizeRoomName(e.Room),
		User:   chat.NormalizeUserName(e.User),
		Joined: true,
		Status: chat.StatusConnecting,
	}
	return next, []Command{
		SetStatus{Status: chat.StatusConnecting},
		ConnectRelay{User: next.User},
	}
}

func onEndCall(s State) (State, []Command) {
	if !s.Joined {
		return s, nil
	}
	cmds := []Command{}
	if s.PeerStarted {
		cmds = append(cmds, ClosePeer{})
	}
	cmds = append(cmds,
		Teardown{},
		StopQualityMonitor{},
		SetQuality{Quality: chat.QualityUnknown},
		SetStatus{Status: chat.StatusConnecting},
	)
	return State{Status: chat.StatusConnecting}, cmds
}

// onMemberLeft resets the peer so the next joiner can offer to a fresh
// connection.
func onMemberLeft(s State, e MemberLeft) (State, []Command) {
	cmds := []Command{
		AppendSystem{Text: memberName(e.Name) + " left the room"},
		SetStatus{Status: chat.StatusConnecting},
	}
	s.Status = chat.StatusConnecting
	if s.Monitoring {
		s.Monitoring = false
		s.Quality = chat.QualityUnknown
		cmds = append(cmds, StopQualityMonitor{}, SetQuality{Quality: chat.QualityUnknown})
	}
	if s.PeerStarted {
		s.Offerer = false
		cmds = append(cmds, ClosePeer{}, StartPeer{Offerer: false})
	}
	return s, cmds
}

func onRelayMessage(s State, e RelayMessage) (State, []Command) {
	self := e.ClientID != "" && e.ClientID == s.ClientID

	switch e.Signal.Kind() {
	case chat.SignalChat:
		msg, _ := e.Signal.Chat()
		return s, []Command{AppendChat{Author: msg.User, Text: msg.ChatText, IsSelf: self}}

	case chat.SignalSDP:
		if self || !s.PeerStarted {
			return s, nil
		}
		desc, _ := e.Signal.SDP()
		return s, []Command{ApplyRemoteDescription{Description: desc}}

	case chat.SignalCandidate:
		if self || !s.PeerStarted {
			return s, nil
		}
		c, _ := e.Signal.Candidate()
		return s, []Command{AddCandidate{Candidate: c}}
	}
	return s, nil
}

func onConnectionState(s State, e ConnectionStateChanged) (State, []Command) {
	status, ok := chat.MapConnectionState(e.State)
	if !ok {
		return s, nil
	}
	s, cmds := setStatus(s, status)

	switch status {
	case chat.StatusConnected:
		if !s.Monitoring {
			s.Monitoring = true
			cmds = append(cmds, StartQualityMonitor{})
		}
	case chat.StatusDisconnected:
		if s.Monitoring {
			s.Monitoring = false
			s.Quality = chat.QualityUnknown
			cmds = append(cmds, StopQualityMonitor{}, SetQuality{Quality: chat.QualityUnknown})
		}
	}
	return s, cmds
}

func setStatus(s State, status chat.Status) (State, []Command) {
	s.Status = status
	return s, []Command{SetStatus{Status: status}}
}

func memberName(name string) string {
	if name == "" {
		return unknownMember
	}
	return name
}
