package session

import (
	"github.com/mossy-p/webrtc-chat/internal/chat"
	"github.com/pion/webrtc/v4"
)

// Command is a side effect Reduce asks the host to perform.
type Command interface {
	isCommand()
}

type SetStatus struct {
	Status chat.Status
}

type AppendSystem struct {
	Text string
}

type AppendChat struct {
	Author string
	Text   string
	IsSelf bool
}

// ConnectRelay opens the relay connection announcing User as the display name.
type ConnectRelay struct {
	User string
}

type Subscribe struct {
	Channel chat.ChannelID
}

type Publish struct {
	Envelope chat.Envelope
}

// StartPeer creates the peer connection. Offerer peers create the first offer.
type StartPeer struct {
	Offerer bool
}

// ClosePeer drops the current peer connection.
type ClosePeer struct{}

// ApplyRemoteDescription sets the remote description and answers offers.
type ApplyRemoteDescription struct {
	Description webrtc.SessionDescription
}

type AddCandidate struct {
	Candidate webrtc.ICECandidateInit
}

type StartQualityMonitor struct{}

type StopQualityMonitor struct{}

type SetQuality struct {
	Quality chat.Quality
}

type SetAudio struct {
	State chat.AudioState
}

type SetVideo struct {
	State chat.VideoState
}

// Teardown closes the relay connection and releases media.
type Teardown struct{}

func (SetStatus) isCommand()              {}
func (AppendSystem) isCommand()           {}
func (AppendChat) isCommand()             {}
func (ConnectRelay) isCommand()           {}
func (Subscribe) isCommand()              {}
func (Publish) isCommand()                {}
func (StartPeer) isCommand()              {}
func (ClosePeer) isCommand()              {}
func (ApplyRemoteDescription) isCommand() {}
func (AddCandidate) isCommand()           {}
func (StartQualityMonitor) isCommand()    {}
func (StopQualityMonitor) isCommand()     {}
func (SetQuality) isCommand()             {}
func (SetAudio) isCommand()               {}
func (SetVideo) isCommand()               {}
func (Teardown) isCommand()               {}
